package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/freshbasket/freshbasket/internal/constants"
	"github.com/freshbasket/freshbasket/internal/logger"
	"github.com/freshbasket/freshbasket/internal/models"
	"github.com/freshbasket/freshbasket/internal/queue"
	"github.com/freshbasket/freshbasket/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// allowedTransitions lists the reachable statuses from each order status.
// DELIVERED and CANCELLED are terminal.
var allowedTransitions = map[string][]string{
	constants.OrderStatusPending:        {constants.OrderStatusCancelled},
	constants.OrderStatusConfirmed:      {constants.OrderStatusPacked, constants.OrderStatusCancelled},
	constants.OrderStatusPacked:         {constants.OrderStatusOutForDelivery, constants.OrderStatusCancelled},
	constants.OrderStatusOutForDelivery: {constants.OrderStatusDelivered, constants.OrderStatusCancelled},
}

// OrderService orchestrates order intake, payment reconciliation and the
// order status lifecycle.
type OrderService struct {
	orderRepo       repository.OrderRepository
	userRepo        repository.UserRepository
	productRepo     repository.ProductRepository
	slotRepo        repository.DeliverySlotRepository
	voucherRepo     repository.VoucherRepository
	usageRepo       repository.VoucherUsageRepository
	voucherService  *VoucherService
	deliveryService *DeliveryService
	gateway         PaymentGateway
	queueClient     *queue.Client
	currency        string
	maxItems        int
}

// NewOrderService creates an order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	slotRepo repository.DeliverySlotRepository,
	voucherRepo repository.VoucherRepository,
	usageRepo repository.VoucherUsageRepository,
	voucherService *VoucherService,
	deliveryService *DeliveryService,
	gateway PaymentGateway,
	queueClient *queue.Client,
	currency string,
	maxItems int,
) *OrderService {
	if strings.TrimSpace(currency) == "" {
		currency = constants.SiteCurrencyDefault
	}
	if maxItems <= 0 {
		maxItems = constants.OrderMaxItemsDefault
	}
	return &OrderService{
		orderRepo:       orderRepo,
		userRepo:        userRepo,
		productRepo:     productRepo,
		slotRepo:        slotRepo,
		voucherRepo:     voucherRepo,
		usageRepo:       usageRepo,
		voucherService:  voucherService,
		deliveryService: deliveryService,
		gateway:         gateway,
		queueClient:     queueClient,
		currency:        currency,
		maxItems:        maxItems,
	}
}

// OrderItemInput is one requested line at intake.
type OrderItemInput struct {
	ProductID uint
	Quantity  int
}

// DeliveryAddressInput is the structured drop-off address. Name, the first
// address line and the city are required.
type DeliveryAddressInput struct {
	Name  string
	Phone string
	Line1 string
	Line2 string
	City  string
}

func (a DeliveryAddressInput) normalized() DeliveryAddressInput {
	return DeliveryAddressInput{
		Name:  strings.TrimSpace(a.Name),
		Phone: strings.TrimSpace(a.Phone),
		Line1: strings.TrimSpace(a.Line1),
		Line2: strings.TrimSpace(a.Line2),
		City:  strings.TrimSpace(a.City),
	}
}

// CreateOrderInput are the intake parameters. Exactly one of UserID and
// GuestEmail identifies the customer.
type CreateOrderInput struct {
	UserID           uint
	GuestEmail       string
	Items            []OrderItemInput
	VoucherCode      string
	DeliverySlotID   uint
	DeliveryAddress  DeliveryAddressInput
	Postcode         string
	VATNumber        string
	PurchaseOrderRef string
	ClientIP         string
}

// CreateOrder runs the full intake pipeline: validation, pricing, payment
// authorization and a single transaction that persists the order, reserves
// the slot and records the voucher redemption.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	guestEmail := strings.ToLower(strings.TrimSpace(input.GuestEmail))
	if (input.UserID == 0) == (guestEmail == "") {
		return nil, ErrIdentityRequired
	}
	if input.UserID != 0 {
		user, err := s.userRepo.GetByID(input.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
	}

	address := input.DeliveryAddress.normalized()
	if address.Name == "" || address.Line1 == "" || address.City == "" {
		return nil, ErrAddressIncomplete
	}

	if len(input.Items) == 0 {
		return nil, ErrInvalidOrderItem
	}
	if len(input.Items) > s.maxItems {
		return nil, ErrTooManyItems
	}

	items, subtotal, err := s.buildOrderItems(input.Items)
	if err != nil {
		return nil, err
	}

	zone, err := s.deliveryService.MatchZone(input.Postcode)
	if err != nil {
		return nil, err
	}
	if subtotal.Cmp(zone.MinimumOrderValue.Decimal) < 0 {
		return nil, ErrBelowMinimumOrder
	}

	slot, err := s.slotRepo.GetByID(input.DeliverySlotID)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}
	if !slot.HasCapacity() {
		return nil, ErrSlotUnavailable
	}

	discount := decimal.Zero
	var voucher *models.Voucher
	if strings.TrimSpace(input.VoucherCode) != "" {
		discountMoney, applied, err := s.voucherService.Apply(models.NewMoneyFromDecimal(subtotal), input.VoucherCode, input.UserID, guestEmail)
		if err != nil {
			return nil, err
		}
		discount = discountMoney.Decimal
		voucher = applied
	}

	discountedSubtotal := subtotal.Sub(discount)
	total := discountedSubtotal.Add(zone.DeliveryFee.Decimal)

	orderNo, err := s.allocateOrderNo()
	if err != nil {
		return nil, err
	}
	receipt, err := s.gateway.Authorize(ctx, AuthorizeRequest{
		OrderNo:      orderNo,
		Amount:       models.NewMoneyFromDecimal(total),
		Currency:     s.currency,
		Description:  fmt.Sprintf("Grocery order %s", orderNo),
		ReceiptEmail: guestEmail,
	})
	if err != nil {
		logger.Warnw("order_payment_authorize_failed",
			"order_no", orderNo,
			"user_id", input.UserID,
			"total", total.StringFixed(2),
			"error", err,
		)
		return nil, err
	}

	now := time.Now()
	order := &models.Order{
		OrderNo:            orderNo,
		UserID:             input.UserID,
		GuestEmail:         guestEmail,
		Status:             constants.OrderStatusPending,
		PaymentStatus:      constants.PaymentStatusUnpaid,
		PaymentRef:         receipt.PaymentRef,
		Currency:           s.currency,
		SubtotalAmount:     models.NewMoneyFromDecimal(subtotal),
		DiscountAmount:     models.NewMoneyFromDecimal(discount),
		DiscountedSubtotal: models.NewMoneyFromDecimal(discountedSubtotal),
		DeliveryFee:        zone.DeliveryFee,
		TotalAmount:        models.NewMoneyFromDecimal(total),
		DeliverySlotID:     slot.ID,
		DeliveryZoneID:     zone.ID,
		DeliveryName:       address.Name,
		DeliveryPhone:      address.Phone,
		AddressLine1:       address.Line1,
		AddressLine2:       address.Line2,
		City:               address.City,
		Postcode:           NormalizePostcode(input.Postcode),
		VATNumber:          strings.TrimSpace(input.VATNumber),
		PurchaseOrderRef:   strings.TrimSpace(input.PurchaseOrderRef),
		ClientIP:           strings.TrimSpace(input.ClientIP),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if voucher != nil {
		order.VoucherID = &voucher.ID
		order.VoucherCode = voucher.Code
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		slotRepo := s.slotRepo.WithTx(tx)

		if err := orderRepo.Create(order, items); err != nil {
			return err
		}

		reserved, err := slotRepo.Reserve(slot.ID)
		if err != nil {
			return err
		}
		if !reserved {
			return ErrSlotUnavailable
		}

		if voucher != nil {
			usageRepo := s.usageRepo.WithTx(tx)
			voucherRepo := s.voucherRepo.WithTx(tx)
			usage := &models.VoucherUsage{
				VoucherID:      voucher.ID,
				UserID:         input.UserID,
				GuestEmail:     guestEmail,
				OrderID:        order.ID,
				DiscountAmount: models.NewMoneyFromDecimal(discount),
				OneTimeKey:     voucherUsageKey(voucher, input.UserID, guestEmail, order.ID),
				CreatedAt:      now,
			}
			if err := usageRepo.Create(usage); err != nil {
				return err
			}
			incremented, err := voucherRepo.IncrementUsedCount(voucher.ID)
			if err != nil {
				return err
			}
			if !incremented {
				return ErrVoucherUsageLimit
			}
		}
		return nil
	})
	if err != nil {
		s.compensateAuthorization(ctx, orderNo, receipt.PaymentRef, total)
		switch {
		case errors.Is(err, ErrSlotUnavailable):
			return nil, ErrSlotUnavailable
		case errors.Is(err, ErrVoucherUsageLimit):
			return nil, ErrVoucherUsageLimit
		case isUniqueViolation(err):
			return nil, ErrVoucherAlreadyUsed
		}
		logger.Errorw("order_create_tx_failed",
			"order_no", orderNo,
			"error", err,
		)
		return nil, ErrOrderCreateFailed
	}

	s.enqueueOrderCreated(order)
	logger.Infow("order_created",
		"order_no", order.OrderNo,
		"order_id", order.ID,
		"user_id", order.UserID,
		"total", order.TotalAmount.String(),
		"slot_id", order.DeliverySlotID,
	)
	return order, nil
}

// buildOrderItems snapshots catalogue names and prices into order lines.
// Duplicate product lines are merged.
func (s *OrderService) buildOrderItems(inputs []OrderItemInput) ([]models.OrderItem, decimal.Decimal, error) {
	quantities := make(map[uint]int, len(inputs))
	ids := make([]uint, 0, len(inputs))
	for _, item := range inputs {
		if item.ProductID == 0 || item.Quantity <= 0 {
			return nil, decimal.Zero, ErrInvalidOrderItem
		}
		if _, ok := quantities[item.ProductID]; !ok {
			ids = append(ids, item.ProductID)
		}
		quantities[item.ProductID] += item.Quantity
	}

	products, err := s.productRepo.ListByIDs(ids)
	if err != nil {
		return nil, decimal.Zero, err
	}
	byID := make(map[uint]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	items := make([]models.OrderItem, 0, len(ids))
	subtotal := decimal.Zero
	for _, id := range ids {
		product, ok := byID[id]
		if !ok || !product.IsActive {
			return nil, decimal.Zero, ErrProductUnavailable
		}
		quantity := quantities[id]
		lineTotal := product.PriceAmount.Decimal.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
		items = append(items, models.OrderItem{
			ProductID:          product.ID,
			ProductName:        product.Name,
			UnitPrice:          product.PriceAmount,
			Quantity:           quantity,
			TotalPrice:         models.NewMoneyFromDecimal(lineTotal),
			SubstitutionStatus: constants.SubstitutionStatusNone,
		})
		subtotal = subtotal.Add(lineTotal)
	}
	return items, subtotal, nil
}

// compensateAuthorization releases an authorized charge after the intake
// transaction rolled back. Failure here needs an operator, not a retry loop.
func (s *OrderService) compensateAuthorization(ctx context.Context, orderNo, paymentRef string, amount decimal.Decimal) {
	if s.gateway == nil || paymentRef == "" {
		return
	}
	_, err := s.gateway.Refund(ctx, RefundRequest{
		PaymentRef: paymentRef,
		Amount:     models.NewMoneyFromDecimal(amount),
		Currency:   s.currency,
		Reason:     "order intake rolled back",
	})
	if err == nil {
		return
	}
	logger.Errorw("order_authorize_compensation_failed",
		"order_no", orderNo,
		"payment_ref", paymentRef,
		"amount", amount.StringFixed(2),
		"error", err,
	)
	if s.queueClient != nil {
		if alertErr := s.queueClient.EnqueueOperatorRefundAlert(queue.OperatorRefundAlertPayload{
			Amount: amount.StringFixed(2),
			Reason: "intake rollback refund failed: " + paymentRef,
		}); alertErr != nil {
			logger.Errorw("order_refund_alert_enqueue_failed",
				"order_no", orderNo,
				"error", alertErr,
			)
		}
	}
}

// enqueueOrderCreated fires the post-intake notifications. Enqueue failures
// are logged and swallowed; the order stands regardless.
func (s *OrderService) enqueueOrderCreated(order *models.Order) {
	if s.queueClient == nil {
		return
	}
	if err := s.queueClient.EnqueueOrderConfirmation(queue.OrderConfirmationPayload{OrderID: order.ID}); err != nil {
		logger.Errorw("order_enqueue_confirmation_failed",
			"order_id", order.ID,
			"error", err,
		)
	}
	if err := s.queueClient.EnqueueOrderCRMSync(queue.OrderCRMSyncPayload{OrderID: order.ID, Event: "order_created"}); err != nil {
		logger.Errorw("order_enqueue_crm_sync_failed",
			"order_id", order.ID,
			"error", err,
		)
	}
}

// GetOrderForUser fetches one order owned by a registered customer.
func (s *OrderService) GetOrderForUser(orderNo string, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNoAndUser(strings.TrimSpace(orderNo), userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrderForGuest fetches one guest order scoped by its contact email.
func (s *OrderService) GetOrderForGuest(orderNo, email string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNoAndGuest(strings.TrimSpace(orderNo), strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrderByNo fetches one order by number for the admin console.
func (s *OrderService) GetOrderByNo(orderNo string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(strings.TrimSpace(orderNo))
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrder fetches one order by ID for the admin console.
func (s *OrderService) GetOrder(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders pages orders for the admin console.
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// UpdateStatus moves an order along the fulfilment lifecycle. Cancelling
// releases the delivery slot and returns the voucher redemption.
func (s *OrderService) UpdateStatus(orderID uint, newStatus string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !isTransitionAllowed(order.Status, newStatus) {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	updates := map[string]interface{}{}
	if newStatus == constants.OrderStatusCancelled {
		updates["cancelled_at"] = now
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).UpdateStatus(order.ID, newStatus, updates); err != nil {
			return err
		}
		if newStatus != constants.OrderStatusCancelled {
			return nil
		}
		if err := s.slotRepo.WithTx(tx).Release(order.DeliverySlotID); err != nil {
			return err
		}
		if order.VoucherID != nil {
			if err := s.usageRepo.WithTx(tx).DeleteByOrderID(order.ID); err != nil {
				return err
			}
			if err := s.voucherRepo.WithTx(tx).DecrementUsedCount(*order.VoucherID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Errorw("order_status_update_failed",
			"order_id", order.ID,
			"from", order.Status,
			"to", newStatus,
			"error", err,
		)
		return nil, err
	}

	order.Status = newStatus
	if newStatus == constants.OrderStatusCancelled {
		order.CancelledAt = &now
	}
	s.enqueueStatusChanged(order, newStatus)
	logger.Infow("order_status_updated",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"status", newStatus,
	)
	return order, nil
}

func (s *OrderService) enqueueStatusChanged(order *models.Order, status string) {
	if s.queueClient == nil {
		return
	}
	if err := s.queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{OrderID: order.ID, Status: status}); err != nil {
		logger.Errorw("order_enqueue_status_email_failed",
			"order_id", order.ID,
			"status", status,
			"error", err,
		)
	}
	if err := s.queueClient.EnqueueOrderCRMSync(queue.OrderCRMSyncPayload{OrderID: order.ID, Event: "order_" + strings.ToLower(status)}); err != nil {
		logger.Errorw("order_enqueue_crm_sync_failed",
			"order_id", order.ID,
			"error", err,
		)
	}
}

func isTransitionAllowed(from, to string) bool {
	for _, status := range allowedTransitions[from] {
		if status == to {
			return true
		}
	}
	return false
}

// isUniqueViolation sniffs driver-specific duplicate key errors. The
// voucher usage unique index is the backstop for concurrent redemptions.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique") || strings.Contains(message, "duplicate")
}

// allocateOrderNo generates an order number not yet in use. The unique
// index on order_no remains the backstop for a lost race.
func (s *OrderService) allocateOrderNo() (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		orderNo := generateOrderNo()
		existing, err := s.orderRepo.GetByOrderNo(orderNo)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return orderNo, nil
		}
	}
	return "", ErrOrderCreateFailed
}

// generateOrderNo builds an order number from the timestamp and a random
// numeric suffix.
func generateOrderNo() string {
	return fmt.Sprintf("FB%s%s", time.Now().Format("20060102150405"), randNumeric(6))
}

func randNumeric(length int) string {
	digits := make([]byte, length)
	max := big.NewInt(10)
	for i := range digits {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			digits[i] = '0'
			continue
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits)
}
