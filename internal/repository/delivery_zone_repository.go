package repository

import (
	"errors"

	"github.com/freshbasket/freshbasket/internal/models"

	"gorm.io/gorm"
)

// DeliveryZoneRepository is the delivery zone data access interface.
type DeliveryZoneRepository interface {
	GetByID(id uint) (*models.DeliveryZone, error)
	ListActive() ([]models.DeliveryZone, error)
	List(filter ZoneListFilter) ([]models.DeliveryZone, int64, error)
	Create(zone *models.DeliveryZone) error
	Update(zone *models.DeliveryZone) error
	Delete(id uint) error
	WithTx(tx *gorm.DB) *GormDeliveryZoneRepository
}

// GormDeliveryZoneRepository is the GORM implementation.
type GormDeliveryZoneRepository struct {
	db *gorm.DB
}

// NewDeliveryZoneRepository creates a delivery zone repository.
func NewDeliveryZoneRepository(db *gorm.DB) *GormDeliveryZoneRepository {
	return &GormDeliveryZoneRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormDeliveryZoneRepository) WithTx(tx *gorm.DB) *GormDeliveryZoneRepository {
	if tx == nil {
		return r
	}
	return &GormDeliveryZoneRepository{db: tx}
}

// GetByID fetches a zone by ID.
func (r *GormDeliveryZoneRepository) GetByID(id uint) (*models.DeliveryZone, error) {
	var zone models.DeliveryZone
	if err := r.db.First(&zone, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &zone, nil
}

// ListActive lists serviced zones.
func (r *GormDeliveryZoneRepository) ListActive() ([]models.DeliveryZone, error) {
	var zones []models.DeliveryZone
	if err := r.db.Where("is_active = ?", true).Order("id asc").Find(&zones).Error; err != nil {
		return nil, err
	}
	return zones, nil
}

// List lists zones for the back office.
func (r *GormDeliveryZoneRepository) List(filter ZoneListFilter) ([]models.DeliveryZone, int64, error) {
	var zones []models.DeliveryZone
	query := r.db.Model(&models.DeliveryZone{})

	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("id asc").Find(&zones).Error; err != nil {
		return nil, 0, err
	}
	return zones, total, nil
}

// Create persists a zone.
func (r *GormDeliveryZoneRepository) Create(zone *models.DeliveryZone) error {
	return r.db.Create(zone).Error
}

// Update saves a zone.
func (r *GormDeliveryZoneRepository) Update(zone *models.DeliveryZone) error {
	return r.db.Save(zone).Error
}

// Delete soft deletes a zone.
func (r *GormDeliveryZoneRepository) Delete(id uint) error {
	return r.db.Delete(&models.DeliveryZone{}, id).Error
}
