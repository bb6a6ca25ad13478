package models

import (
	"time"

	"gorm.io/gorm"
)

// VoucherUsage records one redemption of a voucher on an order.
//
// OneTimeKey carries the uniqueness guarantee: for one-time-per-user
// vouchers it is voucherID|identity, so a second redemption by the same
// customer violates the index even under concurrent intake. For other
// vouchers the key includes the order ID and never collides.
type VoucherUsage struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                         // primary key
	VoucherID      uint           `gorm:"index;not null" json:"voucher_id"`                             // redeemed voucher
	UserID         uint           `gorm:"index;not null;default:0" json:"user_id"`                      // customer ID (0 for guests)
	GuestEmail     string         `gorm:"index" json:"guest_email,omitempty"`                           // guest identity
	OrderID        uint           `gorm:"index;not null" json:"order_id"`                               // redeeming order
	DiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // granted discount
	OneTimeKey     string         `gorm:"uniqueIndex;not null" json:"-"`                                // redemption uniqueness key
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                      // creation time
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                               // soft delete time
}

// TableName sets the table name.
func (VoucherUsage) TableName() string {
	return "voucher_usages"
}
