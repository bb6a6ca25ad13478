package repository

import (
	"github.com/freshbasket/freshbasket/internal/models"

	"gorm.io/gorm"
)

// VoucherUsageRepository is the redemption record data access interface.
type VoucherUsageRepository interface {
	Create(usage *models.VoucherUsage) error
	CountByCustomer(voucherID, userID uint, guestEmail string) (int64, error)
	ListByOrderID(orderID uint) ([]models.VoucherUsage, error)
	DeleteByOrderID(orderID uint) error
	WithTx(tx *gorm.DB) *GormVoucherUsageRepository
}

// GormVoucherUsageRepository is the GORM implementation.
type GormVoucherUsageRepository struct {
	db *gorm.DB
}

// NewVoucherUsageRepository creates a redemption record repository.
func NewVoucherUsageRepository(db *gorm.DB) *GormVoucherUsageRepository {
	return &GormVoucherUsageRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormVoucherUsageRepository) WithTx(tx *gorm.DB) *GormVoucherUsageRepository {
	if tx == nil {
		return r
	}
	return &GormVoucherUsageRepository{db: tx}
}

// Create persists a redemption record.
func (r *GormVoucherUsageRepository) Create(usage *models.VoucherUsage) error {
	return r.db.Create(usage).Error
}

// CountByCustomer counts redemptions by one customer identity.
func (r *GormVoucherUsageRepository) CountByCustomer(voucherID, userID uint, guestEmail string) (int64, error) {
	var count int64
	query := r.db.Model(&models.VoucherUsage{}).Where("voucher_id = ?", voucherID)
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	} else {
		query = query.Where("user_id = 0 AND guest_email = ?", guestEmail)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListByOrderID lists redemptions attached to an order.
func (r *GormVoucherUsageRepository) ListByOrderID(orderID uint) ([]models.VoucherUsage, error) {
	var usages []models.VoucherUsage
	if err := r.db.Where("order_id = ?", orderID).Find(&usages).Error; err != nil {
		return nil, err
	}
	return usages, nil
}

// DeleteByOrderID removes redemptions attached to an order.
func (r *GormVoucherUsageRepository) DeleteByOrderID(orderID uint) error {
	return r.db.Where("order_id = ?", orderID).Delete(&models.VoucherUsage{}).Error
}
