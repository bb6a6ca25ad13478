package models

import (
	"time"

	"gorm.io/gorm"
)

// Order is a grocery delivery order.
type Order struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                                             // primary key
	OrderNo            string         `gorm:"uniqueIndex;not null" json:"order_no"`                             // order number
	UserID             uint           `gorm:"index;not null;default:0" json:"user_id,omitempty"`                // customer ID (0 for guest orders)
	GuestEmail         string         `gorm:"index" json:"guest_email,omitempty"`                               // guest contact email
	Status             string         `gorm:"index;not null" json:"status"`                                     // fulfilment status
	PaymentStatus      string         `gorm:"index;not null" json:"payment_status"`                             // payment status
	PaymentRef         string         `gorm:"index;type:varchar(100)" json:"payment_ref,omitempty"`             // gateway authorization reference
	Currency           string         `gorm:"not null" json:"currency"`                                         // currency code
	SubtotalAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal_amount"`     // sum of line totals
	DiscountAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`     // voucher discount
	DiscountedSubtotal Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discounted_subtotal"` // subtotal after discount
	DeliveryFee        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_fee"`        // zone delivery fee
	TotalAmount        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`        // amount charged
	VoucherID          *uint          `gorm:"index" json:"voucher_id,omitempty"`                                // applied voucher ID
	VoucherCode        string         `gorm:"type:varchar(40)" json:"voucher_code,omitempty"`                   // voucher code snapshot
	DeliverySlotID     uint           `gorm:"index;not null" json:"delivery_slot_id"`                           // booked slot
	DeliveryZoneID     uint           `gorm:"index;not null" json:"delivery_zone_id"`                           // matched zone
	DeliveryName       string         `gorm:"type:varchar(120);not null" json:"delivery_name"`                  // recipient name
	DeliveryPhone      string         `gorm:"type:varchar(32)" json:"delivery_phone,omitempty"`                 // contact phone
	AddressLine1       string         `gorm:"type:varchar(255);not null" json:"address_line1"`                  // street address
	AddressLine2       string         `gorm:"type:varchar(255)" json:"address_line2,omitempty"`                 // flat or building detail
	City               string         `gorm:"type:varchar(100);not null" json:"city"`                           // town or city
	Postcode           string         `gorm:"type:varchar(16);not null" json:"postcode"`                        // delivery postcode
	VATNumber          string         `gorm:"type:varchar(40)" json:"vat_number,omitempty"`                     // business VAT number
	PurchaseOrderRef   string         `gorm:"type:varchar(64)" json:"purchase_order_ref,omitempty"`             // customer purchase order reference
	ClientIP           string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"`                      // intake client IP
	PaidAt             *time.Time     `gorm:"index" json:"paid_at"`                                             // payment confirmation time
	CancelledAt        *time.Time     `gorm:"index" json:"cancelled_at"`                                        // cancellation time
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                                          // creation time
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                                          // update time
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                                   // soft delete time

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // order lines
	// Associations
	DeliverySlot *DeliverySlot `gorm:"foreignKey:DeliverySlotID" json:"delivery_slot,omitempty"` // slot info
	DeliveryZone *DeliveryZone `gorm:"foreignKey:DeliveryZoneID" json:"delivery_zone,omitempty"` // zone info
}

// TableName sets the table name.
func (Order) TableName() string {
	return "orders"
}

// IsGuest reports whether the order belongs to an unregistered customer.
func (o Order) IsGuest() bool {
	return o.UserID == 0
}
