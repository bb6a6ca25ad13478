package service

import (
	"context"

	"github.com/freshbasket/freshbasket/internal/constants"
	"github.com/freshbasket/freshbasket/internal/logger"
	"github.com/freshbasket/freshbasket/internal/models"
	"github.com/freshbasket/freshbasket/internal/queue"
	"github.com/freshbasket/freshbasket/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SubstituteDecisionAccept and SubstituteDecisionRefuse are the customer
// responses to a substitution offer.
const (
	SubstituteDecisionAccept = "accept"
	SubstituteDecisionRefuse = "refuse"
)

// OfferSubstituteInput are the picker parameters for proposing a
// replacement on one order line.
type OfferSubstituteInput struct {
	OrderID             uint
	ItemID              uint
	SubstituteProductID uint
}

// OfferSubstitute proposes a replacement product for an out-of-stock line.
// Re-offering a different substitute on a still pending line is allowed;
// the new snapshot replaces the old one.
func (s *OrderService) OfferSubstitute(input OfferSubstituteInput) (*models.OrderItem, error) {
	order, err := s.orderRepo.GetByID(input.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusConfirmed && order.Status != constants.OrderStatusPacked {
		return nil, ErrInvalidTransition
	}

	item, err := s.orderRepo.GetItem(order.ID, input.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrOrderItemNotFound
	}
	if item.SubstitutionStatus != constants.SubstitutionStatusNone &&
		item.SubstitutionStatus != constants.SubstitutionStatusPending {
		return nil, ErrSubstitutionNotPending
	}

	substitute, err := s.productRepo.GetByID(input.SubstituteProductID)
	if err != nil {
		return nil, err
	}
	if substitute == nil || !substitute.IsActive {
		return nil, ErrProductUnavailable
	}

	if err := s.orderRepo.UpdateItem(item.ID, map[string]interface{}{
		"substitution_status":   constants.SubstitutionStatusPending,
		"substitute_product_id": substitute.ID,
		"substitute_name":       substitute.Name,
		"substitute_unit_price": substitute.PriceAmount,
	}); err != nil {
		return nil, err
	}

	item.SubstitutionStatus = constants.SubstitutionStatusPending
	item.SubstituteProductID = &substitute.ID
	item.SubstituteName = substitute.Name
	item.SubstituteUnitPrice = substitute.PriceAmount

	if s.queueClient != nil {
		if err := s.queueClient.EnqueueSubstitutionOffer(queue.SubstitutionOfferPayload{OrderID: order.ID, ItemID: item.ID}); err != nil {
			logger.Errorw("substitution_enqueue_offer_failed",
				"order_id", order.ID,
				"item_id", item.ID,
				"error", err,
			)
		}
	}
	logger.Infow("substitution_offered",
		"order_id", order.ID,
		"item_id", item.ID,
		"substitute_product_id", substitute.ID,
	)
	return item, nil
}

// RespondSubstitution applies a customer decision on a pending substitution.
// The caller is scoped by the same identity rules as order lookup.
func (s *OrderService) RespondSubstitution(ctx context.Context, orderNo string, itemID uint, decision string, userID uint, guestEmail string) (*models.Order, error) {
	var (
		order *models.Order
		err   error
	)
	if userID != 0 {
		order, err = s.GetOrderForUser(orderNo, userID)
	} else {
		order, err = s.GetOrderForGuest(orderNo, guestEmail)
	}
	if err != nil {
		return nil, err
	}

	item, err := s.orderRepo.GetItem(order.ID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrOrderItemNotFound
	}
	if item.SubstitutionStatus != constants.SubstitutionStatusPending {
		return nil, ErrSubstitutionNotPending
	}

	switch decision {
	case SubstituteDecisionAccept:
		err = s.acceptSubstitution(order, item)
	case SubstituteDecisionRefuse:
		err = s.refuseSubstitution(ctx, order, item)
	default:
		return nil, ErrInvalidOrderItem
	}
	if err != nil {
		return nil, err
	}

	if s.queueClient != nil {
		if enqErr := s.queueClient.EnqueueSubstitutionResult(queue.SubstitutionResultPayload{
			OrderID:  order.ID,
			ItemID:   item.ID,
			Decision: decision,
		}); enqErr != nil {
			logger.Errorw("substitution_enqueue_result_failed",
				"order_id", order.ID,
				"item_id", item.ID,
				"error", enqErr,
			)
		}
	}
	return s.GetOrder(order.ID)
}

// acceptSubstitution swaps the replacement into the line snapshot, persists
// the recomputed line total and reprices the order. The granted discount is
// kept as is.
func (s *OrderService) acceptSubstitution(order *models.Order, item *models.OrderItem) error {
	newLineTotal := models.NewMoneyFromDecimal(
		item.SubstituteUnitPrice.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2))
	return models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		flipped, err := orderRepo.UpdateItemSubstitution(item.ID, constants.SubstitutionStatusPending, map[string]interface{}{
			"substitution_status": constants.SubstitutionStatusAccepted,
			"product_name":        item.SubstituteName,
			"unit_price":          item.SubstituteUnitPrice,
			"total_price":         newLineTotal,
		})
		if err != nil {
			return err
		}
		if !flipped {
			return ErrSubstitutionNotPending
		}

		item.SubstitutionStatus = constants.SubstitutionStatusAccepted
		item.ProductName = item.SubstituteName
		item.UnitPrice = item.SubstituteUnitPrice
		item.TotalPrice = newLineTotal
		return s.repriceOrder(orderRepo, order, item)
	})
}

// refuseSubstitution refunds the original line value. The line is claimed
// before the gateway call so concurrent responses cannot double refund;
// a gateway failure hands the line back as pending and escalates.
func (s *OrderService) refuseSubstitution(ctx context.Context, order *models.Order, item *models.OrderItem) error {
	if order.PaymentStatus != constants.PaymentStatusPaid || order.PaymentRef == "" {
		return ErrPaymentNotCompleted
	}

	claimed, err := s.orderRepo.UpdateItemSubstitution(item.ID, constants.SubstitutionStatusPending, map[string]interface{}{
		"substitution_status": constants.SubstitutionStatusRefunded,
		"refund_amount":       item.TotalPrice,
	})
	if err != nil {
		return err
	}
	if !claimed {
		return ErrSubstitutionNotPending
	}

	_, refundErr := s.gateway.Refund(ctx, RefundRequest{
		PaymentRef: order.PaymentRef,
		Amount:     item.TotalPrice,
		Currency:   order.Currency,
		Reason:     "substitution refused",
	})
	if refundErr != nil {
		logger.Errorw("substitution_refund_failed",
			"order_id", order.ID,
			"item_id", item.ID,
			"payment_ref", order.PaymentRef,
			"amount", item.TotalPrice.String(),
			"error", refundErr,
		)
		if resetErr := s.orderRepo.UpdateItem(item.ID, map[string]interface{}{
			"substitution_status": constants.SubstitutionStatusPending,
			"refund_amount":       models.NewMoneyFromDecimal(decimal.Zero),
		}); resetErr != nil {
			logger.Errorw("substitution_refund_reset_failed",
				"order_id", order.ID,
				"item_id", item.ID,
				"error", resetErr,
			)
		}
		if s.queueClient != nil {
			if alertErr := s.queueClient.EnqueueOperatorRefundAlert(queue.OperatorRefundAlertPayload{
				OrderID: order.ID,
				ItemID:  item.ID,
				Amount:  item.TotalPrice.String(),
				Reason:  "substitution refund failed",
			}); alertErr != nil {
				logger.Errorw("substitution_refund_alert_enqueue_failed",
					"order_id", order.ID,
					"item_id", item.ID,
					"error", alertErr,
				)
			}
		}
		return ErrRefundManualProcessing
	}

	item.SubstitutionStatus = constants.SubstitutionStatusRefunded
	item.RefundAmount = item.TotalPrice
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		return s.repriceOrder(s.orderRepo.WithTx(tx), order, item)
	})
	if err != nil {
		return err
	}

	logger.Infow("substitution_refunded",
		"order_id", order.ID,
		"item_id", item.ID,
		"amount", item.RefundAmount.String(),
	)
	return nil
}

// repriceOrder recomputes the order money fields from its lines, taking
// the updated line from memory rather than the stale preload.
func (s *OrderService) repriceOrder(orderRepo *repository.GormOrderRepository, order *models.Order, updated *models.OrderItem) error {
	subtotal := decimal.Zero
	for i := range order.Items {
		line := &order.Items[i]
		if line.ID == updated.ID {
			line = updated
		}
		subtotal = subtotal.Add(effectiveLineTotal(line))
	}

	discount := order.DiscountAmount.Decimal
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	discountedSubtotal := subtotal.Sub(discount)
	total := discountedSubtotal.Add(order.DeliveryFee.Decimal)

	return orderRepo.UpdateTotals(order.ID, map[string]interface{}{
		"subtotal_amount":     models.NewMoneyFromDecimal(subtotal),
		"discount_amount":     models.NewMoneyFromDecimal(discount),
		"discounted_subtotal": models.NewMoneyFromDecimal(discountedSubtotal),
		"total_amount":        models.NewMoneyFromDecimal(total),
	})
}

// effectiveLineTotal values a line after any substitution outcome. Accepted
// lines carry the recomputed total in total_price, so only refunded lines
// need special handling.
func effectiveLineTotal(item *models.OrderItem) decimal.Decimal {
	if item.SubstitutionStatus == constants.SubstitutionStatusRefunded {
		return decimal.Zero
	}
	return item.TotalPrice.Decimal
}
