package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/freshbasket/freshbasket/internal/constants"
	"github.com/freshbasket/freshbasket/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderRepositoryTest(t *testing.T) (*GormOrderRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
		&models.DeliverySlot{},
		&models.DeliveryZone{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewOrderRepository(db), db
}

func repoMoney(t *testing.T, value string) models.Money {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse money %s failed: %v", value, err)
	}
	return models.NewMoneyFromDecimal(d)
}

func createRepoOrder(t *testing.T, repo *GormOrderRepository, orderNo string) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo:         orderNo,
		GuestEmail:      "shopper@example.com",
		Status:          constants.OrderStatusPending,
		PaymentStatus:   constants.PaymentStatusUnpaid,
		Currency:        "GBP",
		SubtotalAmount:  repoMoney(t, "12.50"),
		TotalAmount:     repoMoney(t, "16.49"),
		DeliveryFee:     repoMoney(t, "3.99"),
		DeliverySlotID:  1,
		DeliveryZoneID:  1,
		AddressLine1:    "1 Test Street",
		Postcode:        "EC1A1AA",
	}
	items := []models.OrderItem{
		{
			ProductID:          1,
			ProductName:        "Apples",
			UnitPrice:          repoMoney(t, "2.50"),
			Quantity:           5,
			TotalPrice:         repoMoney(t, "12.50"),
			SubstitutionStatus: constants.SubstitutionStatusNone,
		},
	}
	if err := repo.Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestOrderRepositoryCreateLinksItems(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	order := createRepoOrder(t, repo, "FB20260901000000000001")

	loaded, err := repo.GetByOrderNo("FB20260901000000000001")
	if err != nil {
		t.Fatalf("get by order no failed: %v", err)
	}
	if loaded == nil {
		t.Fatalf("order should be found")
	}
	if len(loaded.Items) != 1 {
		t.Fatalf("items want 1 got %d", len(loaded.Items))
	}
	if loaded.Items[0].OrderID != order.ID {
		t.Fatalf("item should link to order %d, got %d", order.ID, loaded.Items[0].OrderID)
	}
}

func TestOrderRepositoryMarkPaidOnce(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	order := createRepoOrder(t, repo, "FB20260901000000000002")

	paidAt := time.Now().UTC()
	done, err := repo.MarkPaid(order.ID, "pi_123", paidAt)
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if !done {
		t.Fatalf("first MarkPaid should transition the order")
	}

	loaded, err := repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("get by id failed: %v", err)
	}
	if loaded.PaymentStatus != constants.PaymentStatusPaid || loaded.Status != constants.OrderStatusConfirmed {
		t.Fatalf("order should be PAID/CONFIRMED, got %s/%s", loaded.PaymentStatus, loaded.Status)
	}
	if loaded.PaymentRef != "pi_123" || loaded.PaidAt == nil {
		t.Fatalf("payment ref and paid_at should be recorded")
	}

	// Replayed delivery finds no unpaid row to update.
	done, err = repo.MarkPaid(order.ID, "pi_123", paidAt)
	if err != nil {
		t.Fatalf("second mark paid failed: %v", err)
	}
	if done {
		t.Fatalf("second MarkPaid should be a no-op")
	}
}

func TestOrderRepositoryUpdateItemSubstitutionGuard(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	order := createRepoOrder(t, repo, "FB20260901000000000003")
	itemID := order.Items[0].ID

	updates := map[string]interface{}{
		"substitution_status": constants.SubstitutionStatusPending,
		"substitute_name":     "Pears",
	}
	done, err := repo.UpdateItemSubstitution(itemID, constants.SubstitutionStatusNone, updates)
	if err != nil {
		t.Fatalf("update substitution failed: %v", err)
	}
	if !done {
		t.Fatalf("NONE line should accept an offer")
	}

	// A stale transition from the old state finds nothing to update.
	done, err = repo.UpdateItemSubstitution(itemID, constants.SubstitutionStatusNone, map[string]interface{}{
		"substitution_status": constants.SubstitutionStatusRefunded,
	})
	if err != nil {
		t.Fatalf("stale update failed: %v", err)
	}
	if done {
		t.Fatalf("transition from a stale state should be a no-op")
	}

	item, err := repo.GetItem(order.ID, itemID)
	if err != nil {
		t.Fatalf("get item failed: %v", err)
	}
	if item.SubstitutionStatus != constants.SubstitutionStatusPending || item.SubstituteName != "Pears" {
		t.Fatalf("line should stay PENDING with offered name, got %s/%s", item.SubstitutionStatus, item.SubstituteName)
	}
}

func TestOrderRepositoryGuestAndUserScoping(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	createRepoOrder(t, repo, "FB20260901000000000004")

	found, err := repo.GetByOrderNoAndGuest("FB20260901000000000004", "shopper@example.com")
	if err != nil {
		t.Fatalf("guest lookup failed: %v", err)
	}
	if found == nil {
		t.Fatalf("guest owner should see the order")
	}

	found, err = repo.GetByOrderNoAndGuest("FB20260901000000000004", "other@example.com")
	if err != nil {
		t.Fatalf("guest lookup failed: %v", err)
	}
	if found != nil {
		t.Fatalf("wrong guest email should not match")
	}

	found, err = repo.GetByOrderNoAndUser("FB20260901000000000004", 42)
	if err != nil {
		t.Fatalf("user lookup failed: %v", err)
	}
	if found != nil {
		t.Fatalf("guest order should not match a user scope")
	}
}

func TestOrderRepositoryListAdminFilters(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)
	createRepoOrder(t, repo, "FB20260901000000000005")
	second := createRepoOrder(t, repo, "FB20260901000000000006")
	if err := db.Model(&models.Order{}).Where("id = ?", second.ID).
		Update("status", constants.OrderStatusConfirmed).Error; err != nil {
		t.Fatalf("update status failed: %v", err)
	}

	orders, total, err := repo.ListAdmin(OrderListFilter{Status: constants.OrderStatusConfirmed, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list admin failed: %v", err)
	}
	if total != 1 || len(orders) != 1 {
		t.Fatalf("want 1 confirmed order, got total %d len %d", total, len(orders))
	}
	if orders[0].OrderNo != "FB20260901000000000006" {
		t.Fatalf("unexpected order %s", orders[0].OrderNo)
	}

	_, total, err = repo.ListAdmin(OrderListFilter{Page: 1, PageSize: 1})
	if err != nil {
		t.Fatalf("list admin failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("unfiltered total want 2 got %d", total)
	}
}
