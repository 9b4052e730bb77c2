package models

import "slices"

// Dish is a recipe with an ordered list of ingredients. Deleting a dish
// removes its ingredients once the cascade migration has been applied.
type Dish struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Title       string           `gorm:"size:100;not null" json:"title"`
	Notes       *string          `gorm:"size:1000" json:"notes,omitempty"`
	Stars       *int             `json:"stars,omitempty"`
	Ingredients []DishIngredient `gorm:"foreignKey:DishID" json:"ingredients"`
}

func (d *Dish) Key() uint {
	return d.ID
}

// Snapshot copies d without sharing notes, stars or the ingredient list.
func (d *Dish) Snapshot() Dish {
	c := *d
	if d.Notes != nil {
		c.Notes = Text(*d.Notes)
	}
	if d.Stars != nil {
		c.Stars = Int(*d.Stars)
	}
	c.Ingredients = slices.Clone(d.Ingredients)
	return c
}

// FieldValue exposes columns by name for in-memory predicate evaluation.
func (d *Dish) FieldValue(name string) (any, bool) {
	switch name {
	case "id":
		return d.ID, true
	case "title":
		return d.Title, true
	case "notes":
		if d.Notes == nil {
			return nil, true
		}
		return *d.Notes, true
	case "stars":
		if d.Stars == nil {
			return nil, true
		}
		return *d.Stars, true
	default:
		return nil, false
	}
}

// Text returns a pointer to s, for optional string columns.
func Text(s string) *string {
	return &s
}

// Int returns a pointer to n, for optional integer columns.
func Int(n int) *int {
	return &n
}
