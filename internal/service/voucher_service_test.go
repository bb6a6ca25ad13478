package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/freshbasket/freshbasket/internal/constants"
	"github.com/freshbasket/freshbasket/internal/models"
	"github.com/freshbasket/freshbasket/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupVoucherServiceTest(t *testing.T) (*VoucherService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:voucher_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Voucher{}, &models.VoucherUsage{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	voucherRepo := repository.NewVoucherRepository(db)
	usageRepo := repository.NewVoucherUsageRepository(db)
	return NewVoucherService(voucherRepo, usageRepo), db
}

func TestApplyPercentageVoucher(t *testing.T) {
	svc, db := setupVoucherServiceTest(t)
	createTestVoucher(t, db, &models.Voucher{
		Code:          "SAVE10",
		Type:          constants.VoucherTypePercentage,
		Value:         mustMoney(t, "10"),
		MinOrderValue: mustMoney(t, "25.00"),
		IsActive:      true,
	})

	discount, voucher, err := svc.Apply(mustMoney(t, "70.00"), "  save10 ", 0, "shopper@example.com")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if voucher == nil || voucher.Code != "SAVE10" {
		t.Fatalf("voucher should resolve to SAVE10")
	}
	if discount.String() != "7.00" {
		t.Fatalf("discount want 7.00 got %s", discount.String())
	}

	// Rounded to two decimal places.
	discount, _, err = svc.Apply(mustMoney(t, "33.33"), "SAVE10", 0, "shopper@example.com")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if discount.String() != "3.33" {
		t.Fatalf("discount want 3.33 got %s", discount.String())
	}
}

func TestApplyFixedVoucherCapped(t *testing.T) {
	svc, db := setupVoucherServiceTest(t)
	createTestVoucher(t, db, &models.Voucher{
		Code:     "BIGSAVE",
		Type:     constants.VoucherTypeFixed,
		Value:    mustMoney(t, "50.00"),
		IsActive: true,
	})

	discount, _, err := svc.Apply(mustMoney(t, "30.00"), "BIGSAVE", 0, "shopper@example.com")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if discount.String() != "30.00" {
		t.Fatalf("fixed discount should cap at subtotal, want 30.00 got %s", discount.String())
	}
}

func TestApplyEligibilityChecks(t *testing.T) {
	svc, db := setupVoucherServiceTest(t)

	if _, _, err := svc.Apply(mustMoney(t, "30.00"), "  ", 0, "a@example.com"); !errors.Is(err, ErrVoucherInvalid) {
		t.Fatalf("blank code want ErrVoucherInvalid got %v", err)
	}
	if _, _, err := svc.Apply(mustMoney(t, "30.00"), "NOPE", 0, "a@example.com"); !errors.Is(err, ErrVoucherNotFound) {
		t.Fatalf("unknown code want ErrVoucherNotFound got %v", err)
	}

	createTestVoucher(t, db, &models.Voucher{
		Code:     "DISABLED",
		Type:     constants.VoucherTypeFixed,
		Value:    mustMoney(t, "5.00"),
		IsActive: false,
	})
	if _, voucher, err := svc.Apply(mustMoney(t, "30.00"), "DISABLED", 0, "a@example.com"); !errors.Is(err, ErrVoucherInactive) || voucher == nil {
		t.Fatalf("inactive want ErrVoucherInactive with voucher, got %v", err)
	}

	notYet := time.Now().Add(time.Hour)
	createTestVoucher(t, db, &models.Voucher{
		Code:      "SOON",
		Type:      constants.VoucherTypeFixed,
		Value:     mustMoney(t, "5.00"),
		ValidFrom: &notYet,
		IsActive:  true,
	})
	if _, voucher, err := svc.Apply(mustMoney(t, "30.00"), "SOON", 0, "a@example.com"); !errors.Is(err, ErrVoucherNotYetValid) || voucher == nil {
		t.Fatalf("scheduled want ErrVoucherNotYetValid with voucher, got %v", err)
	}

	started := time.Now().Add(-time.Hour)
	createTestVoucher(t, db, &models.Voucher{
		Code:      "LIVE",
		Type:      constants.VoucherTypeFixed,
		Value:     mustMoney(t, "5.00"),
		ValidFrom: &started,
		IsActive:  true,
	})
	if _, _, err := svc.Apply(mustMoney(t, "30.00"), "LIVE", 0, "a@example.com"); err != nil {
		t.Fatalf("started window should pass, got %v", err)
	}

	expired := time.Now().Add(-time.Hour)
	createTestVoucher(t, db, &models.Voucher{
		Code:      "EXPIRED",
		Type:      constants.VoucherTypeFixed,
		Value:     mustMoney(t, "5.00"),
		ExpiresAt: &expired,
		IsActive:  true,
	})
	if _, _, err := svc.Apply(mustMoney(t, "30.00"), "EXPIRED", 0, "a@example.com"); !errors.Is(err, ErrVoucherExpired) {
		t.Fatalf("expired want ErrVoucherExpired got %v", err)
	}

	maxUses := 1
	createTestVoucher(t, db, &models.Voucher{
		Code:      "SPENT",
		Type:      constants.VoucherTypeFixed,
		Value:     mustMoney(t, "5.00"),
		MaxUses:   &maxUses,
		UsedCount: 1,
		IsActive:  true,
	})
	if _, _, err := svc.Apply(mustMoney(t, "30.00"), "SPENT", 0, "a@example.com"); !errors.Is(err, ErrVoucherUsageLimit) {
		t.Fatalf("spent want ErrVoucherUsageLimit got %v", err)
	}

	createTestVoucher(t, db, &models.Voucher{
		Code:          "FLOOR",
		Type:          constants.VoucherTypeFixed,
		Value:         mustMoney(t, "5.00"),
		MinOrderValue: mustMoney(t, "50.00"),
		IsActive:      true,
	})
	if _, _, err := svc.Apply(mustMoney(t, "30.00"), "FLOOR", 0, "a@example.com"); !errors.Is(err, ErrVoucherMinOrder) {
		t.Fatalf("below floor want ErrVoucherMinOrder got %v", err)
	}
}

func TestApplyOneTimePerUser(t *testing.T) {
	svc, db := setupVoucherServiceTest(t)
	voucher := createTestVoucher(t, db, &models.Voucher{
		Code:           "ONCE",
		Type:           constants.VoucherTypeFixed,
		Value:          mustMoney(t, "5.00"),
		OneTimePerUser: true,
		IsActive:       true,
	})

	usage := models.VoucherUsage{
		VoucherID:      voucher.ID,
		UserID:         7,
		OrderID:        1,
		DiscountAmount: mustMoney(t, "5.00"),
		OneTimeKey:     voucherUsageKey(voucher, 7, "", 1),
	}
	if err := db.Create(&usage).Error; err != nil {
		t.Fatalf("create usage failed: %v", err)
	}

	if _, _, err := svc.Apply(mustMoney(t, "30.00"), "ONCE", 7, ""); !errors.Is(err, ErrVoucherAlreadyUsed) {
		t.Fatalf("repeat user want ErrVoucherAlreadyUsed got %v", err)
	}
	if _, _, err := svc.Apply(mustMoney(t, "30.00"), "ONCE", 8, ""); err != nil {
		t.Fatalf("different user should pass, got %v", err)
	}
	if _, _, err := svc.Apply(mustMoney(t, "30.00"), "ONCE", 0, "guest@example.com"); err != nil {
		t.Fatalf("guest should pass, got %v", err)
	}
}

func TestVoucherUsageKey(t *testing.T) {
	oneTime := &models.Voucher{ID: 3, OneTimePerUser: true}
	if got := voucherUsageKey(oneTime, 7, "", 10); got != "3|u:7" {
		t.Fatalf("user key want 3|u:7 got %s", got)
	}
	if got := voucherUsageKey(oneTime, 0, " Guest@Example.com ", 10); got != "3|g:guest@example.com" {
		t.Fatalf("guest key want 3|g:guest@example.com got %s", got)
	}

	multi := &models.Voucher{ID: 3}
	if got := voucherUsageKey(multi, 7, "", 10); got != "3|u:7|o:10" {
		t.Fatalf("multi-use key want 3|u:7|o:10 got %s", got)
	}
}

func TestVoucherCreateValidation(t *testing.T) {
	svc, _ := setupVoucherServiceTest(t)

	if _, err := svc.Create(VoucherCreateInput{Code: "X", Type: "WEIRD", Value: mustMoney(t, "5")}); !errors.Is(err, ErrVoucherInvalid) {
		t.Fatalf("bad type want ErrVoucherInvalid got %v", err)
	}
	if _, err := svc.Create(VoucherCreateInput{Code: "X", Type: constants.VoucherTypeFixed, Value: mustMoney(t, "0")}); !errors.Is(err, ErrVoucherInvalid) {
		t.Fatalf("zero value want ErrVoucherInvalid got %v", err)
	}
	if _, err := svc.Create(VoucherCreateInput{Code: "X", Type: constants.VoucherTypePercentage, Value: mustMoney(t, "120")}); !errors.Is(err, ErrVoucherInvalid) {
		t.Fatalf("over 100 percent want ErrVoucherInvalid got %v", err)
	}

	windowStart := time.Now().Add(48 * time.Hour)
	windowEnd := time.Now().Add(24 * time.Hour)
	if _, err := svc.Create(VoucherCreateInput{
		Code:      "BACKWARDS",
		Type:      constants.VoucherTypeFixed,
		Value:     mustMoney(t, "5"),
		ValidFrom: &windowStart,
		ExpiresAt: &windowEnd,
	}); !errors.Is(err, ErrVoucherInvalid) {
		t.Fatalf("inverted window want ErrVoucherInvalid got %v", err)
	}

	created, err := svc.Create(VoucherCreateInput{
		Code:     "fresh20",
		Type:     constants.VoucherTypePercentage,
		Value:    mustMoney(t, "20"),
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Code != "FRESH20" {
		t.Fatalf("code should canonicalize to FRESH20, got %s", created.Code)
	}

	if _, err := svc.Create(VoucherCreateInput{
		Code:     "FRESH20",
		Type:     constants.VoucherTypeFixed,
		Value:    mustMoney(t, "5"),
		IsActive: true,
	}); !errors.Is(err, ErrVoucherCodeTaken) {
		t.Fatalf("duplicate code want ErrVoucherCodeTaken got %v", err)
	}
}

func TestVoucherUpdate(t *testing.T) {
	svc, db := setupVoucherServiceTest(t)
	maxUses := 10
	voucher := createTestVoucher(t, db, &models.Voucher{
		Code:     "EDITME",
		Type:     constants.VoucherTypeFixed,
		Value:    mustMoney(t, "5.00"),
		MaxUses:  &maxUses,
		IsActive: true,
	})

	newValue := mustMoney(t, "7.50")
	inactive := false
	updated, err := svc.Update(voucher.ID, VoucherUpdateInput{
		Value:        &newValue,
		ClearMaxUses: true,
		IsActive:     &inactive,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Value.String() != "7.50" {
		t.Fatalf("value want 7.50 got %s", updated.Value.String())
	}
	if updated.MaxUses != nil {
		t.Fatalf("max uses should be cleared")
	}
	if updated.IsActive {
		t.Fatalf("voucher should be inactive")
	}

	if _, err := svc.Update(99999, VoucherUpdateInput{}); !errors.Is(err, ErrVoucherNotFound) {
		t.Fatalf("missing voucher want ErrVoucherNotFound got %v", err)
	}
}
