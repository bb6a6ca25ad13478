package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/freshbasket/freshbasket/internal/constants"
	"github.com/freshbasket/freshbasket/internal/models"

	"gorm.io/gorm"
)

// paidTestOrder builds a confirmed, paid order with one line so substitution
// flows can run against it.
func paidTestOrder(t *testing.T, svc *OrderService, db *gorm.DB, gateway *fakeGateway, price string) (*models.Order, *models.OrderItem, *models.Product) {
	t.Helper()
	product := createTestProduct(t, db, "original-"+price, price)
	slot := createTestSlot(t, db, 5)
	createTestZone(t, db, []string{"EC1"}, "3.99", "0")

	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		GuestEmail:      "shopper@example.com",
		Items:           []OrderItemInput{{ProductID: product.ID, Quantity: 2}},
		DeliverySlotID:  slot.ID,
		DeliveryAddress: testAddress("1 Test Street"),
		Postcode:        "EC1A 1AA",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	gateway.webhookEvent = &WebhookEvent{
		EventID: "evt_" + order.OrderNo,
		OrderNo: order.OrderNo,
		Status:  "success",
	}
	if _, err := svc.HandlePaymentWebhook(context.Background(), nil, []byte("{}"), time.Now()); err != nil {
		t.Fatalf("confirm order failed: %v", err)
	}

	order, err = svc.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if len(order.Items) != 1 {
		t.Fatalf("order lines want 1 got %d", len(order.Items))
	}
	return order, &order.Items[0], product
}

func TestOfferSubstitute(t *testing.T) {
	svc, db, gateway := setupOrderServiceTest(t)
	order, item, _ := paidTestOrder(t, svc, db, gateway, "3.00")
	substitute := createTestProduct(t, db, "substitute", "2.50")

	offered, err := svc.OfferSubstitute(OfferSubstituteInput{
		OrderID:             order.ID,
		ItemID:              item.ID,
		SubstituteProductID: substitute.ID,
	})
	if err != nil {
		t.Fatalf("offer failed: %v", err)
	}
	if offered.SubstitutionStatus != constants.SubstitutionStatusPending {
		t.Fatalf("status want PENDING got %s", offered.SubstitutionStatus)
	}
	if offered.SubstituteName != substitute.Name {
		t.Fatalf("substitute name want %s got %s", substitute.Name, offered.SubstituteName)
	}
	if offered.SubstituteUnitPrice.String() != "2.50" {
		t.Fatalf("substitute price want 2.50 got %s", offered.SubstituteUnitPrice.String())
	}

	// Re-offering a different product on a pending line replaces the snapshot.
	cheaper := createTestProduct(t, db, "cheaper", "1.99")
	reoffered, err := svc.OfferSubstitute(OfferSubstituteInput{
		OrderID:             order.ID,
		ItemID:              item.ID,
		SubstituteProductID: cheaper.ID,
	})
	if err != nil {
		t.Fatalf("re-offer failed: %v", err)
	}
	if reoffered.SubstituteUnitPrice.String() != "1.99" {
		t.Fatalf("re-offer price want 1.99 got %s", reoffered.SubstituteUnitPrice.String())
	}
}

func TestOfferSubstituteGuards(t *testing.T) {
	svc, db, gateway := setupOrderServiceTest(t)

	product := createTestProduct(t, db, "pending-product", "3.00")
	slot := createTestSlot(t, db, 5)
	createTestZone(t, db, []string{"EC1"}, "3.99", "0")
	pending, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		GuestEmail:      "pending@example.com",
		Items:           []OrderItemInput{{ProductID: product.ID, Quantity: 1}},
		DeliverySlotID:  slot.ID,
		DeliveryAddress: testAddress("1 Test Street"),
		Postcode:        "EC1A 1AA",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	substitute := createTestProduct(t, db, "guard-substitute", "2.00")

	// Unpaid pending orders are not picked yet.
	_, err = svc.OfferSubstitute(OfferSubstituteInput{OrderID: pending.ID, ItemID: 1, SubstituteProductID: substitute.ID})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending order want ErrInvalidTransition got %v", err)
	}

	order, item, _ := paidTestOrder(t, svc, db, gateway, "4.00")

	inactive := createTestProduct(t, db, "inactive", "2.00")
	if err := db.Model(&models.Product{}).Where("id = ?", inactive.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}
	_, err = svc.OfferSubstitute(OfferSubstituteInput{OrderID: order.ID, ItemID: item.ID, SubstituteProductID: inactive.ID})
	if !errors.Is(err, ErrProductUnavailable) {
		t.Fatalf("inactive substitute want ErrProductUnavailable got %v", err)
	}

	_, err = svc.OfferSubstitute(OfferSubstituteInput{OrderID: order.ID, ItemID: 99999, SubstituteProductID: substitute.ID})
	if !errors.Is(err, ErrOrderItemNotFound) {
		t.Fatalf("missing item want ErrOrderItemNotFound got %v", err)
	}
}

func TestRespondSubstitutionAcceptReprices(t *testing.T) {
	svc, db, gateway := setupOrderServiceTest(t)
	order, item, _ := paidTestOrder(t, svc, db, gateway, "3.00")
	substitute := createTestProduct(t, db, "swap", "2.50")

	if _, err := svc.OfferSubstitute(OfferSubstituteInput{
		OrderID:             order.ID,
		ItemID:              item.ID,
		SubstituteProductID: substitute.ID,
	}); err != nil {
		t.Fatalf("offer failed: %v", err)
	}

	updated, err := svc.RespondSubstitution(context.Background(), order.OrderNo, item.ID, SubstituteDecisionAccept, 0, "shopper@example.com")
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	// 2 x 2.50 replaces 2 x 3.00; the delivery fee stands.
	if updated.SubtotalAmount.String() != "5.00" {
		t.Fatalf("subtotal want 5.00 got %s", updated.SubtotalAmount.String())
	}
	if updated.TotalAmount.String() != "8.99" {
		t.Fatalf("total want 8.99 got %s", updated.TotalAmount.String())
	}
	if updated.Items[0].SubstitutionStatus != constants.SubstitutionStatusAccepted {
		t.Fatalf("line status want ACCEPTED got %s", updated.Items[0].SubstitutionStatus)
	}

	// The stored snapshot now records what was actually sold: the replacement
	// name and price, with the line total recomputed from them.
	var persisted models.OrderItem
	if err := db.First(&persisted, item.ID).Error; err != nil {
		t.Fatalf("reload item failed: %v", err)
	}
	if persisted.ProductName != substitute.Name {
		t.Fatalf("persisted name want %s got %s", substitute.Name, persisted.ProductName)
	}
	if persisted.UnitPrice.String() != "2.50" {
		t.Fatalf("persisted unit price want 2.50 got %s", persisted.UnitPrice.String())
	}
	if persisted.TotalPrice.String() != "5.00" {
		t.Fatalf("persisted line total want 5.00 got %s", persisted.TotalPrice.String())
	}
	if persisted.TotalPrice.String() != updated.SubtotalAmount.String() {
		t.Fatalf("line totals must sum to the subtotal: line %s subtotal %s",
			persisted.TotalPrice.String(), updated.SubtotalAmount.String())
	}

	// The decision is final.
	if _, err := svc.RespondSubstitution(context.Background(), order.OrderNo, item.ID, SubstituteDecisionRefuse, 0, "shopper@example.com"); !errors.Is(err, ErrSubstitutionNotPending) {
		t.Fatalf("second decision want ErrSubstitutionNotPending got %v", err)
	}
}

func TestRespondSubstitutionRefuseRefunds(t *testing.T) {
	svc, db, gateway := setupOrderServiceTest(t)
	order, item, _ := paidTestOrder(t, svc, db, gateway, "3.00")
	substitute := createTestProduct(t, db, "swap", "2.50")

	if _, err := svc.OfferSubstitute(OfferSubstituteInput{
		OrderID:             order.ID,
		ItemID:              item.ID,
		SubstituteProductID: substitute.ID,
	}); err != nil {
		t.Fatalf("offer failed: %v", err)
	}

	updated, err := svc.RespondSubstitution(context.Background(), order.OrderNo, item.ID, SubstituteDecisionRefuse, 0, "shopper@example.com")
	if err != nil {
		t.Fatalf("refuse failed: %v", err)
	}

	if gateway.refundCalls != 1 {
		t.Fatalf("refund calls want 1 got %d", gateway.refundCalls)
	}
	if gateway.lastRefund.Amount.String() != "6.00" {
		t.Fatalf("refund amount want 6.00 got %s", gateway.lastRefund.Amount.String())
	}
	if updated.Items[0].SubstitutionStatus != constants.SubstitutionStatusRefunded {
		t.Fatalf("line status want REFUNDED got %s", updated.Items[0].SubstitutionStatus)
	}
	if updated.Items[0].RefundAmount.String() != "6.00" {
		t.Fatalf("line refund want 6.00 got %s", updated.Items[0].RefundAmount.String())
	}
	// The refunded line values to zero; the delivery fee stands.
	if updated.SubtotalAmount.String() != "0.00" {
		t.Fatalf("subtotal want 0.00 got %s", updated.SubtotalAmount.String())
	}
	if updated.TotalAmount.String() != "3.99" {
		t.Fatalf("total want 3.99 got %s", updated.TotalAmount.String())
	}
}

func TestRespondSubstitutionRefuseRefundFailure(t *testing.T) {
	svc, db, gateway := setupOrderServiceTest(t)
	order, item, _ := paidTestOrder(t, svc, db, gateway, "3.00")
	substitute := createTestProduct(t, db, "swap", "2.50")

	if _, err := svc.OfferSubstitute(OfferSubstituteInput{
		OrderID:             order.ID,
		ItemID:              item.ID,
		SubstituteProductID: substitute.ID,
	}); err != nil {
		t.Fatalf("offer failed: %v", err)
	}

	gateway.failRefund = true
	_, err := svc.RespondSubstitution(context.Background(), order.OrderNo, item.ID, SubstituteDecisionRefuse, 0, "shopper@example.com")
	if !errors.Is(err, ErrRefundManualProcessing) {
		t.Fatalf("want ErrRefundManualProcessing got %v", err)
	}

	// The line is handed back as pending so the refusal can be retried.
	var reloaded models.OrderItem
	if err := db.First(&reloaded, item.ID).Error; err != nil {
		t.Fatalf("reload item failed: %v", err)
	}
	if reloaded.SubstitutionStatus != constants.SubstitutionStatusPending {
		t.Fatalf("line status want PENDING got %s", reloaded.SubstitutionStatus)
	}
	if !reloaded.RefundAmount.IsZero() {
		t.Fatalf("refund amount should be reset, got %s", reloaded.RefundAmount.String())
	}

	gateway.failRefund = false
	if _, err := svc.RespondSubstitution(context.Background(), order.OrderNo, item.ID, SubstituteDecisionRefuse, 0, "shopper@example.com"); err != nil {
		t.Fatalf("retry after failure should succeed: %v", err)
	}
}

func TestRespondSubstitutionRefuseRequiresPayment(t *testing.T) {
	svc, db, _ := setupOrderServiceTest(t)
	product := createTestProduct(t, db, "unpaid-product", "3.00")
	slot := createTestSlot(t, db, 5)
	createTestZone(t, db, []string{"EC1"}, "3.99", "0")

	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		GuestEmail:      "shopper@example.com",
		Items:           []OrderItemInput{{ProductID: product.ID, Quantity: 1}},
		DeliverySlotID:  slot.ID,
		DeliveryAddress: testAddress("1 Test Street"),
		Postcode:        "EC1A 1AA",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// Force the line pending without the payment having settled.
	var item models.OrderItem
	if err := db.Where("order_id = ?", order.ID).First(&item).Error; err != nil {
		t.Fatalf("load item failed: %v", err)
	}
	if err := db.Model(&models.OrderItem{}).Where("id = ?", item.ID).
		Update("substitution_status", constants.SubstitutionStatusPending).Error; err != nil {
		t.Fatalf("force pending failed: %v", err)
	}

	_, err = svc.RespondSubstitution(context.Background(), order.OrderNo, item.ID, SubstituteDecisionRefuse, 0, "shopper@example.com")
	if !errors.Is(err, ErrPaymentNotCompleted) {
		t.Fatalf("want ErrPaymentNotCompleted got %v", err)
	}

	// A paid order without an authorization handle has nothing to refund
	// against, so the refusal is rejected the same way.
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"payment_status": constants.PaymentStatusPaid,
		"payment_ref":    "",
	}).Error; err != nil {
		t.Fatalf("clear payment ref failed: %v", err)
	}
	_, err = svc.RespondSubstitution(context.Background(), order.OrderNo, item.ID, SubstituteDecisionRefuse, 0, "shopper@example.com")
	if !errors.Is(err, ErrPaymentNotCompleted) {
		t.Fatalf("missing payment ref want ErrPaymentNotCompleted got %v", err)
	}
}

func TestRespondSubstitutionBadDecision(t *testing.T) {
	svc, db, gateway := setupOrderServiceTest(t)
	order, item, _ := paidTestOrder(t, svc, db, gateway, "3.00")
	substitute := createTestProduct(t, db, "swap", "2.50")

	if _, err := svc.OfferSubstitute(OfferSubstituteInput{
		OrderID:             order.ID,
		ItemID:              item.ID,
		SubstituteProductID: substitute.ID,
	}); err != nil {
		t.Fatalf("offer failed: %v", err)
	}

	if _, err := svc.RespondSubstitution(context.Background(), order.OrderNo, item.ID, "maybe", 0, "shopper@example.com"); !errors.Is(err, ErrInvalidOrderItem) {
		t.Fatalf("want ErrInvalidOrderItem got %v", err)
	}
}
