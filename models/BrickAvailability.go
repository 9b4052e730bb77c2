package models

import (
	"github.com/shopspring/decimal"
)

// BrickAvailability records how many bricks a vendor has in stock and at what
// price. Both references are required and stored as NOT NULL columns.
type BrickAvailability struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	BrickID         uint            `gorm:"not null;index" json:"brick_id"`
	Brick           *Brick          `gorm:"foreignKey:BrickID" json:"brick,omitempty"`
	VendorID        uint            `gorm:"not null;index" json:"vendor_id"`
	Vendor          *Vendor         `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	AvailableAmount int             `gorm:"not null" json:"available_amount"`
	PriceEur        decimal.Decimal `gorm:"type:decimal(8,2);not null" json:"price_eur"`
}

func (a *BrickAvailability) Key() uint {
	return a.ID
}
