package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem is a single line on an order, including any substitution state.
type OrderItem struct {
	ID                  uint           `gorm:"primarykey" json:"id"`                                                 // primary key
	OrderID             uint           `gorm:"index;not null" json:"order_id"`                                       // parent order
	ProductID           uint           `gorm:"index;not null" json:"product_id"`                                     // catalogue product
	ProductName         string         `gorm:"not null" json:"product_name"`                                         // name snapshot at order time
	UnitPrice           Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`              // price snapshot at order time
	Quantity            int            `gorm:"not null" json:"quantity"`                                             // units ordered
	TotalPrice          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`             // unit price times quantity
	SubstitutionStatus  string         `gorm:"index;not null;default:'NONE'" json:"substitution_status"`             // substitution workflow state
	SubstituteProductID *uint          `gorm:"index" json:"substitute_product_id,omitempty"`                         // offered replacement product
	SubstituteName      string         `json:"substitute_name,omitempty"`                                            // replacement name snapshot
	SubstituteUnitPrice Money          `gorm:"type:decimal(20,2);not null;default:0" json:"substitute_unit_price"`   // replacement price snapshot
	RefundAmount        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"refund_amount,omitempty"` // refunded line value
	CreatedAt           time.Time      `gorm:"index" json:"created_at"`                                              // creation time
	UpdatedAt           time.Time      `gorm:"index" json:"updated_at"`                                              // update time
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`                                                       // soft delete time
}

// TableName sets the table name.
func (OrderItem) TableName() string {
	return "order_items"
}
