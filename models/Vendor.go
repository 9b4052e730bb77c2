package models

type Vendor struct {
	ID           uint                `gorm:"primaryKey" json:"id"`
	VendorName   string              `gorm:"size:250;not null" json:"vendor_name"`
	Availability []BrickAvailability `gorm:"foreignKey:VendorID" json:"availability,omitempty"`
}

func (v *Vendor) Key() uint {
	return v.ID
}
