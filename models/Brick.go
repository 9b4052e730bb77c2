package models

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// BrickKind is the discriminator stored with every row of the bricks table.
type BrickKind string

const (
	KindBrick       BrickKind = "Brick"
	KindBasePlate   BrickKind = "BasePlate"
	KindMinifigHead BrickKind = "MinifigHead"
)

var ErrInvalidVariant = errors.New("brick row does not match its discriminator")

// Brick is the single table shared by every kind of brick. The subtype columns
// are nullable and only populated for the kind that owns them; use NewBrick,
// SetVariant and Variant instead of writing them directly.
type Brick struct {
	ID           uint                `gorm:"primaryKey" json:"id"`
	Kind         BrickKind           `gorm:"column:discriminator;size:32;not null;index" json:"kind"`
	Title        string              `gorm:"size:250;not null" json:"title"`
	Color        *Color              `json:"color,omitempty"`
	Length       *int                `json:"length,omitempty"`
	Width        *int                `json:"width,omitempty"`
	IsDualSided  *bool               `json:"is_dual_sided,omitempty"`
	Tags         []Tag               `gorm:"many2many:brick_tags" json:"tags,omitempty"`
	Availability []BrickAvailability `gorm:"foreignKey:BrickID" json:"availability,omitempty"`
}

// BrickVariant is the closed set of concrete brick kinds.
type BrickVariant interface {
	Kind() BrickKind
	apply(b *Brick)
}

// PlainBrick has no columns of its own.
type PlainBrick struct{}

type BasePlate struct {
	Length int
	Width  int
}

type MinifigHead struct {
	IsDualSided bool
}

func (PlainBrick) Kind() BrickKind  { return KindBrick }
func (BasePlate) Kind() BrickKind   { return KindBasePlate }
func (MinifigHead) Kind() BrickKind { return KindMinifigHead }

func (PlainBrick) apply(b *Brick) {
	b.Length, b.Width, b.IsDualSided = nil, nil, nil
}

func (v BasePlate) apply(b *Brick) {
	length, width := v.Length, v.Width
	b.Length, b.Width, b.IsDualSided = &length, &width, nil
}

func (v MinifigHead) apply(b *Brick) {
	dual := v.IsDualSided
	b.Length, b.Width, b.IsDualSided = nil, nil, &dual
}

// NewBrick builds a row for the given variant.
func NewBrick(title string, color *Color, variant BrickVariant) *Brick {
	b := &Brick{Title: title, Color: color}
	b.SetVariant(variant)
	return b
}

// SetVariant replaces the kind of b and its subtype columns.
func (b *Brick) SetVariant(variant BrickVariant) {
	if variant == nil {
		variant = PlainBrick{}
	}
	b.Kind = variant.Kind()
	variant.apply(b)
}

// Variant rebuilds the concrete kind from the flat row.
func (b *Brick) Variant() (BrickVariant, error) {
	switch b.Kind {
	case KindBrick:
		if b.Length != nil || b.Width != nil || b.IsDualSided != nil {
			return nil, fmt.Errorf("%w: brick %d carries subtype columns", ErrInvalidVariant, b.ID)
		}
		return PlainBrick{}, nil
	case KindBasePlate:
		if b.Length == nil || b.Width == nil || b.IsDualSided != nil {
			return nil, fmt.Errorf("%w: base plate %d needs length and width only", ErrInvalidVariant, b.ID)
		}
		return BasePlate{Length: *b.Length, Width: *b.Width}, nil
	case KindMinifigHead:
		if b.IsDualSided == nil || b.Length != nil || b.Width != nil {
			return nil, fmt.Errorf("%w: minifig head %d needs is_dual_sided only", ErrInvalidVariant, b.ID)
		}
		return MinifigHead{IsDualSided: *b.IsDualSided}, nil
	default:
		return nil, fmt.Errorf("%w: unknown discriminator %q", ErrInvalidVariant, b.Kind)
	}
}

// BeforeSave rejects rows whose subtype columns disagree with the discriminator.
func (b *Brick) BeforeSave(tx *gorm.DB) error {
	if b.Color != nil && !b.Color.Valid() {
		return fmt.Errorf("brick %q: invalid color %d", b.Title, int(*b.Color))
	}
	_, err := b.Variant()
	return err
}

func (b *Brick) Key() uint {
	return b.ID
}

// OfKind restricts a query over the bricks table to one concrete kind.
func OfKind(kind BrickKind) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("discriminator = ?", kind)
	}
}
