package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is a grocery catalogue entry.
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                      // primary key
	CategoryID  uint           `gorm:"not null;index" json:"category_id"`                         // aisle category
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`                          // unique handle
	Name        string         `gorm:"not null" json:"name"`                                      // display name
	Description string         `gorm:"type:text" json:"description,omitempty"`                    // shelf description
	PriceAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"` // unit price
	Unit        string         `gorm:"type:varchar(20);default:'each'" json:"unit"`               // sold-by unit (each/kg/pack)
	Tags        StringArray    `gorm:"type:json" json:"tags"`                                     // dietary tags
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`                       // listed for sale
	SortOrder   int            `gorm:"default:0;index" json:"sort_order"`                         // listing weight
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                   // creation time
	UpdatedAt   time.Time      `json:"updated_at"`                                                // update time
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                            // soft delete time

	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // aisle info
}

// TableName sets the table name.
func (Product) TableName() string {
	return "products"
}
