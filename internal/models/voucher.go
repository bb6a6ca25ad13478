package models

import (
	"time"

	"gorm.io/gorm"
)

// Voucher is a discount code applied at order intake.
type Voucher struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                          // primary key
	Code           string         `gorm:"uniqueIndex;not null" json:"code"`                              // uppercase code
	Type           string         `gorm:"not null" json:"type"`                                          // FIXED / PERCENTAGE
	Value          Money          `gorm:"type:decimal(20,2);not null" json:"value"`                      // amount or percent figure
	MinOrderValue  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"min_order_value"`  // subtotal floor for eligibility
	MaxUses        *int           `gorm:"" json:"max_uses"`                                              // global cap (nil means unlimited)
	UsedCount      int            `gorm:"not null;default:0" json:"used_count"`                          // redemptions so far
	OneTimePerUser bool           `gorm:"not null;default:false" json:"one_time_per_user"`               // single redemption per customer
	ValidFrom      *time.Time     `gorm:"index" json:"valid_from"`                                       // start of validity (nil means immediate)
	ExpiresAt      *time.Time     `gorm:"index" json:"expires_at"`                                       // expiry (nil means open ended)
	IsActive       bool           `gorm:"not null;default:true" json:"is_active"`                        // enabled
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                       // creation time
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                       // update time
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                                // soft delete time
}

// TableName sets the table name.
func (Voucher) TableName() string {
	return "vouchers"
}
