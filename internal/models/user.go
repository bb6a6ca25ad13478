package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a registered customer account.
type User struct {
	ID          uint           `gorm:"primarykey" json:"id"`              // primary key
	Email       string         `gorm:"uniqueIndex;not null" json:"email"` // contact email
	DisplayName string         `gorm:"default:''" json:"display_name"`    // shown name
	Postcode    string         `gorm:"type:varchar(16)" json:"postcode"`  // default delivery postcode
	Status      string         `gorm:"default:'active'" json:"status"`    // account status
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`           // creation time
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`           // update time
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                    // soft delete time
}

// TableName sets the table name.
func (User) TableName() string {
	return "users"
}
