package models

import (
	"time"

	"gorm.io/gorm"
)

// DeliverySlot is a bookable delivery window with finite van capacity.
type DeliverySlot struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                                  // primary key
	SlotDate        time.Time      `gorm:"type:date;not null;uniqueIndex:idx_slot_window" json:"slot_date"`       // delivery day
	StartTime       string         `gorm:"type:varchar(5);not null;uniqueIndex:idx_slot_window" json:"start_time"` // window start (HH:MM)
	EndTime         string         `gorm:"type:varchar(5);not null;uniqueIndex:idx_slot_window" json:"end_time"`  // window end (HH:MM)
	MaxOrders       int            `gorm:"not null" json:"max_orders"`                                            // van capacity
	CurrentBookings int            `gorm:"not null;default:0" json:"current_bookings"`                            // reserved count
	IsAvailable     bool           `gorm:"not null;default:true;index" json:"is_available"`                       // open for booking
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                               // creation time
	UpdatedAt       time.Time      `json:"updated_at"`                                                            // update time
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                                        // soft delete time
}

// TableName sets the table name.
func (DeliverySlot) TableName() string {
	return "delivery_slots"
}

// HasCapacity reports whether another booking fits in the window.
func (s DeliverySlot) HasCapacity() bool {
	return s.IsAvailable && s.CurrentBookings < s.MaxOrders
}
