package models

import (
	"time"

	"gorm.io/gorm"
)

// DeliveryZone is a serviced area keyed by postcode prefixes.
type DeliveryZone struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                            // primary key
	Name              string         `gorm:"not null" json:"name"`                                            // area name
	PostcodePrefixes  StringArray    `gorm:"type:json;not null" json:"postcode_prefixes"`                     // matched outward codes
	DeliveryFee       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_fee"`       // flat fee per order
	MinimumOrderValue Money          `gorm:"type:decimal(20,2);not null;default:0" json:"minimum_order_value"` // intake floor on subtotal
	IsActive          bool           `gorm:"not null;default:true;index" json:"is_active"`                    // zone serviced
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                         // creation time
	UpdatedAt         time.Time      `json:"updated_at"`                                                      // update time
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                                  // soft delete time
}

// TableName sets the table name.
func (DeliveryZone) TableName() string {
	return "delivery_zones"
}
