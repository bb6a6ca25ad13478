package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// StringArray stores a string slice as a JSON column.
type StringArray []string

// Value implements driver.Valuer.
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// Category is a product aisle grouping.
type Category struct {
	ID        uint           `gorm:"primarykey" json:"id"`              // primary key
	Slug      string         `gorm:"uniqueIndex;not null" json:"slug"`  // unique handle
	Name      string         `gorm:"not null" json:"name"`              // display name
	SortOrder int            `gorm:"default:0;index" json:"sort_order"` // listing weight
	CreatedAt time.Time      `gorm:"index" json:"created_at"`           // creation time
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                    // soft delete time
}

// TableName sets the table name.
func (Category) TableName() string {
	return "categories"
}
