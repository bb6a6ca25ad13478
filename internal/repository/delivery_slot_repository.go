package repository

import (
	"errors"

	"github.com/freshbasket/freshbasket/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeliverySlotRepository is the delivery slot data access interface.
type DeliverySlotRepository interface {
	GetByID(id uint) (*models.DeliverySlot, error)
	List(filter SlotListFilter) ([]models.DeliverySlot, int64, error)
	Create(slot *models.DeliverySlot) error
	CreateBatch(slots []models.DeliverySlot) (int64, error)
	Update(slot *models.DeliverySlot) error
	Reserve(id uint) (bool, error)
	Release(id uint) error
	WithTx(tx *gorm.DB) *GormDeliverySlotRepository
}

// GormDeliverySlotRepository is the GORM implementation.
type GormDeliverySlotRepository struct {
	db *gorm.DB
}

// NewDeliverySlotRepository creates a delivery slot repository.
func NewDeliverySlotRepository(db *gorm.DB) *GormDeliverySlotRepository {
	return &GormDeliverySlotRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormDeliverySlotRepository) WithTx(tx *gorm.DB) *GormDeliverySlotRepository {
	if tx == nil {
		return r
	}
	return &GormDeliverySlotRepository{db: tx}
}

// GetByID fetches a slot by ID.
func (r *GormDeliverySlotRepository) GetByID(id uint) (*models.DeliverySlot, error) {
	var slot models.DeliverySlot
	if err := r.db.First(&slot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &slot, nil
}

// List lists slots in date order.
func (r *GormDeliverySlotRepository) List(filter SlotListFilter) ([]models.DeliverySlot, int64, error) {
	var slots []models.DeliverySlot
	query := r.db.Model(&models.DeliverySlot{})

	if filter.DateFrom != nil {
		query = query.Where("slot_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("slot_date <= ?", *filter.DateTo)
	}
	if filter.OnlyAvailable {
		query = query.Where("is_available = ? AND current_bookings < max_orders", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("slot_date asc, start_time asc").Find(&slots).Error; err != nil {
		return nil, 0, err
	}
	return slots, total, nil
}

// Create persists a slot.
func (r *GormDeliverySlotRepository) Create(slot *models.DeliverySlot) error {
	return r.db.Create(slot).Error
}

// CreateBatch inserts slots, silently skipping windows that already
// exist. Returns the number of rows actually inserted.
func (r *GormDeliverySlotRepository) CreateBatch(slots []models.DeliverySlot) (int64, error) {
	if len(slots) == 0 {
		return 0, nil
	}
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&slots)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Update saves a slot.
func (r *GormDeliverySlotRepository) Update(slot *models.DeliverySlot) error {
	return r.db.Save(slot).Error
}

// Reserve takes one unit of capacity. The capacity check and the
// increment run in a single conditional UPDATE, so concurrent intakes
// cannot overbook a window. Returns false when the slot is full or closed.
func (r *GormDeliverySlotRepository) Reserve(id uint) (bool, error) {
	result := r.db.Model(&models.DeliverySlot{}).
		Where("id = ? AND is_available = ? AND current_bookings < max_orders", id, true).
		UpdateColumn("current_bookings", gorm.Expr("current_bookings + ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Release returns one unit of capacity, clamped at zero.
func (r *GormDeliverySlotRepository) Release(id uint) error {
	return r.db.Model(&models.DeliverySlot{}).
		Where("id = ? AND current_bookings > 0", id).
		UpdateColumn("current_bookings", gorm.Expr("current_bookings - ?", 1)).Error
}
