package repository

import "time"

// OrderListFilter filters order listings.
type OrderListFilter struct {
	Page          int
	PageSize      int
	UserID        uint
	Status        string
	PaymentStatus string
	OrderNo       string
	GuestEmail    string
	Postcode      string
	SlotID        uint
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// ProductListFilter filters catalogue listings.
type ProductListFilter struct {
	Page       int
	PageSize   int
	CategoryID uint
	Search     string
	OnlyActive bool
}

// VoucherListFilter filters voucher listings.
type VoucherListFilter struct {
	Page     int
	PageSize int
	Code     string
	IsActive *bool
}

// SlotListFilter filters delivery slot listings.
type SlotListFilter struct {
	Page          int
	PageSize      int
	DateFrom      *time.Time
	DateTo        *time.Time
	OnlyAvailable bool
}

// ZoneListFilter filters delivery zone listings.
type ZoneListFilter struct {
	Page       int
	PageSize   int
	OnlyActive bool
}
