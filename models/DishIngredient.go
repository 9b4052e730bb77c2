package models

import (
	"github.com/shopspring/decimal"
)

type DishIngredient struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Description   string          `gorm:"size:100;not null" json:"description"`
	UnitOfMeasure string          `gorm:"size:50;not null" json:"unit_of_measure"`
	Amount        decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"amount"`

	// Owning dish. DishID is mandatory; Dish is only populated when preloaded.
	DishID uint  `gorm:"not null;index" json:"dish_id"`
	Dish   *Dish `gorm:"foreignKey:DishID" json:"dish,omitempty"`
}

// TableName keeps the table name used by the cookbook migrations.
func (DishIngredient) TableName() string {
	return "ingredients"
}

func (i *DishIngredient) Key() uint {
	return i.ID
}
