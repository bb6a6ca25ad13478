package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/freshbasket/freshbasket/internal/constants"
	"github.com/freshbasket/freshbasket/internal/models"
	"github.com/freshbasket/freshbasket/internal/repository"

	"github.com/shopspring/decimal"
)

// VoucherService validates voucher codes and computes discounts.
type VoucherService struct {
	voucherRepo repository.VoucherRepository
	usageRepo   repository.VoucherUsageRepository
}

// NewVoucherService creates a voucher service.
func NewVoucherService(voucherRepo repository.VoucherRepository, usageRepo repository.VoucherUsageRepository) *VoucherService {
	return &VoucherService{
		voucherRepo: voucherRepo,
		usageRepo:   usageRepo,
	}
}

// CanonicalVoucherCode normalizes a code for lookup and storage.
func CanonicalVoucherCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Apply validates a code against the order subtotal and customer identity
// and returns the discount amount. The returned voucher is non-nil whenever
// the code resolved, even if a later check failed.
func (s *VoucherService) Apply(subtotal models.Money, code string, userID uint, guestEmail string) (models.Money, *models.Voucher, error) {
	canonical := CanonicalVoucherCode(code)
	if canonical == "" {
		return models.Money{}, nil, ErrVoucherInvalid
	}

	voucher, err := s.voucherRepo.GetByCode(canonical)
	if err != nil {
		return models.Money{}, nil, err
	}
	if voucher == nil {
		return models.Money{}, nil, ErrVoucherNotFound
	}
	if !voucher.IsActive {
		return models.Money{}, voucher, ErrVoucherInactive
	}
	now := time.Now()
	if voucher.ValidFrom != nil && now.Before(*voucher.ValidFrom) {
		return models.Money{}, voucher, ErrVoucherNotYetValid
	}
	if voucher.ExpiresAt != nil && now.After(*voucher.ExpiresAt) {
		return models.Money{}, voucher, ErrVoucherExpired
	}
	if voucher.MaxUses != nil && voucher.UsedCount >= *voucher.MaxUses {
		return models.Money{}, voucher, ErrVoucherUsageLimit
	}

	if voucher.OneTimePerUser {
		count, err := s.usageRepo.CountByCustomer(voucher.ID, userID, guestEmail)
		if err != nil {
			return models.Money{}, voucher, err
		}
		if count > 0 {
			return models.Money{}, voucher, ErrVoucherAlreadyUsed
		}
	}

	if subtotal.Decimal.Cmp(voucher.MinOrderValue.Decimal) < 0 {
		return models.Money{}, voucher, ErrVoucherMinOrder
	}

	discount, err := calculateDiscount(voucher, subtotal)
	if err != nil {
		return models.Money{}, voucher, err
	}
	return discount, voucher, nil
}

// calculateDiscount derives the discount from the voucher type. A fixed
// discount never exceeds the subtotal; a percentage discount is rounded
// to two decimal places.
func calculateDiscount(voucher *models.Voucher, subtotal models.Money) (models.Money, error) {
	if voucher.Value.Decimal.LessThanOrEqual(decimal.Zero) {
		return models.Money{}, ErrVoucherInvalid
	}
	switch voucher.Type {
	case constants.VoucherTypeFixed:
		if voucher.Value.Decimal.GreaterThan(subtotal.Decimal) {
			return models.NewMoneyFromDecimal(subtotal.Decimal), nil
		}
		return models.NewMoneyFromDecimal(voucher.Value.Decimal), nil
	case constants.VoucherTypePercentage:
		percent := voucher.Value.Decimal.Div(decimal.NewFromInt(100))
		discount := subtotal.Decimal.Mul(percent).Round(2)
		if discount.GreaterThan(subtotal.Decimal) {
			discount = subtotal.Decimal
		}
		return models.NewMoneyFromDecimal(discount), nil
	default:
		return models.Money{}, ErrVoucherInvalid
	}
}

// voucherUsageKey builds the uniqueness key for a redemption record.
// One-time-per-user vouchers key on the customer identity so a duplicate
// redemption fails the unique index even under concurrent intake.
func voucherUsageKey(voucher *models.Voucher, userID uint, guestEmail string, orderID uint) string {
	identity := fmt.Sprintf("u:%d", userID)
	if userID == 0 {
		identity = "g:" + strings.ToLower(strings.TrimSpace(guestEmail))
	}
	if voucher.OneTimePerUser {
		return fmt.Sprintf("%d|%s", voucher.ID, identity)
	}
	return fmt.Sprintf("%d|%s|o:%d", voucher.ID, identity, orderID)
}

// VoucherCreateInput are the admin parameters for a new voucher.
type VoucherCreateInput struct {
	Code           string
	Type           string
	Value          models.Money
	MinOrderValue  models.Money
	MaxUses        *int
	OneTimePerUser bool
	ValidFrom      *time.Time
	ExpiresAt      *time.Time
	IsActive       bool
}

// VoucherUpdateInput are the admin parameters for editing a voucher.
// Nil fields are left unchanged.
type VoucherUpdateInput struct {
	Value          *models.Money
	MinOrderValue  *models.Money
	MaxUses        *int
	ClearMaxUses   bool
	OneTimePerUser *bool
	ValidFrom      *time.Time
	ClearValidFrom bool
	ExpiresAt      *time.Time
	ClearExpiresAt bool
	IsActive       *bool
}

// Create validates and stores a new voucher.
func (s *VoucherService) Create(input VoucherCreateInput) (*models.Voucher, error) {
	code := CanonicalVoucherCode(input.Code)
	if code == "" {
		return nil, ErrVoucherInvalid
	}
	switch input.Type {
	case constants.VoucherTypeFixed, constants.VoucherTypePercentage:
	default:
		return nil, ErrVoucherInvalid
	}
	if input.Value.Decimal.LessThanOrEqual(decimal.Zero) {
		return nil, ErrVoucherInvalid
	}
	if input.Type == constants.VoucherTypePercentage && input.Value.Decimal.GreaterThan(decimal.NewFromInt(100)) {
		return nil, ErrVoucherInvalid
	}
	if input.ValidFrom != nil && input.ExpiresAt != nil && input.ValidFrom.After(*input.ExpiresAt) {
		return nil, ErrVoucherInvalid
	}

	existing, err := s.voucherRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrVoucherCodeTaken
	}

	voucher := &models.Voucher{
		Code:           code,
		Type:           input.Type,
		Value:          input.Value,
		MinOrderValue:  input.MinOrderValue,
		MaxUses:        input.MaxUses,
		OneTimePerUser: input.OneTimePerUser,
		ValidFrom:      input.ValidFrom,
		ExpiresAt:      input.ExpiresAt,
		IsActive:       input.IsActive,
	}
	if err := s.voucherRepo.Create(voucher); err != nil {
		return nil, err
	}
	return voucher, nil
}

// Update edits an existing voucher. The code and type are immutable so
// past orders keep their meaning.
func (s *VoucherService) Update(id uint, input VoucherUpdateInput) (*models.Voucher, error) {
	voucher, err := s.voucherRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, ErrVoucherNotFound
	}

	if input.Value != nil {
		if input.Value.Decimal.LessThanOrEqual(decimal.Zero) {
			return nil, ErrVoucherInvalid
		}
		voucher.Value = *input.Value
	}
	if input.MinOrderValue != nil {
		voucher.MinOrderValue = *input.MinOrderValue
	}
	if input.ClearMaxUses {
		voucher.MaxUses = nil
	} else if input.MaxUses != nil {
		voucher.MaxUses = input.MaxUses
	}
	if input.OneTimePerUser != nil {
		voucher.OneTimePerUser = *input.OneTimePerUser
	}
	if input.ClearValidFrom {
		voucher.ValidFrom = nil
	} else if input.ValidFrom != nil {
		voucher.ValidFrom = input.ValidFrom
	}
	if input.ClearExpiresAt {
		voucher.ExpiresAt = nil
	} else if input.ExpiresAt != nil {
		voucher.ExpiresAt = input.ExpiresAt
	}
	if input.IsActive != nil {
		voucher.IsActive = *input.IsActive
	}

	if err := s.voucherRepo.Update(voucher); err != nil {
		return nil, err
	}
	return voucher, nil
}

// Delete soft deletes a voucher.
func (s *VoucherService) Delete(id uint) error {
	voucher, err := s.voucherRepo.GetByID(id)
	if err != nil {
		return err
	}
	if voucher == nil {
		return ErrVoucherNotFound
	}
	return s.voucherRepo.Delete(id)
}

// Get fetches one voucher by ID.
func (s *VoucherService) Get(id uint) (*models.Voucher, error) {
	voucher, err := s.voucherRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, ErrVoucherNotFound
	}
	return voucher, nil
}

// List pages vouchers for the admin console.
func (s *VoucherService) List(filter repository.VoucherListFilter) ([]models.Voucher, int64, error) {
	return s.voucherRepo.List(filter)
}
