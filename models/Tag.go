package models

type Tag struct {
	ID     uint    `gorm:"primaryKey" json:"id"`
	Title  string  `gorm:"size:100;not null" json:"title"`
	Bricks []Brick `gorm:"many2many:brick_tags" json:"bricks,omitempty"`
}

func (t *Tag) Key() uint {
	return t.ID
}
