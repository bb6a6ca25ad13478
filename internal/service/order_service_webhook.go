package service

import (
	"context"
	"time"

	"github.com/freshbasket/freshbasket/internal/cache"
	"github.com/freshbasket/freshbasket/internal/constants"
	"github.com/freshbasket/freshbasket/internal/logger"
	"github.com/freshbasket/freshbasket/internal/models"
	"github.com/freshbasket/freshbasket/internal/queue"
)

// HandlePaymentWebhook verifies a gateway event and reconciles the order it
// refers to. Delivery is at-least-once: the conditional payment update in
// the repository is the hard idempotency guarantee, the cache claim only
// short-circuits obvious replays.
func (s *OrderService) HandlePaymentWebhook(ctx context.Context, headers map[string]string, body []byte, now time.Time) (*models.Order, error) {
	event, err := s.gateway.VerifyWebhook(headers, body, now)
	if err != nil {
		logger.Warnw("payment_webhook_rejected",
			"body_size", len(body),
			"error", err,
		)
		return nil, err
	}

	log := logger.SW(
		"event_id", event.EventID,
		"event_type", event.EventType,
		"order_no", event.OrderNo,
	)

	if event.EventID != "" {
		claimed, err := cache.ClaimWebhookEvent(ctx, event.EventID)
		if err != nil {
			log.Warnw("payment_webhook_claim_failed", "error", err)
		} else if !claimed {
			log.Infow("payment_webhook_event_replayed")
			return nil, ErrAlreadyProcessed
		}
	}

	if event.OrderNo == "" {
		log.Warnw("payment_webhook_order_no_missing")
		return nil, ErrWebhookInvalid
	}

	order, err := s.orderRepo.GetByOrderNo(event.OrderNo)
	if err != nil {
		log.Errorw("payment_webhook_order_lookup_failed", "error", err)
		return nil, err
	}
	if order == nil {
		log.Warnw("payment_webhook_order_not_found")
		return nil, ErrOrderNotFound
	}

	if event.Status != "success" {
		log.Infow("payment_webhook_event_ignored", "status", event.Status)
		return order, nil
	}

	paidAt := now
	if event.PaidAt != nil {
		paidAt = *event.PaidAt
	}
	paymentRef := event.PaymentRef
	if paymentRef == "" {
		paymentRef = order.PaymentRef
	}

	marked, err := s.orderRepo.MarkPaid(order.ID, paymentRef, paidAt)
	if err != nil {
		log.Errorw("payment_webhook_mark_paid_failed", "error", err)
		return nil, err
	}
	if !marked {
		log.Infow("payment_webhook_already_paid")
		return order, ErrAlreadyProcessed
	}

	order.PaymentStatus = constants.PaymentStatusPaid
	order.Status = constants.OrderStatusConfirmed
	order.PaymentRef = paymentRef
	order.PaidAt = &paidAt

	s.enqueuePaymentConfirmed(order)
	log.Infow("payment_webhook_order_confirmed",
		"order_id", order.ID,
		"amount", event.Amount,
		"currency", event.Currency,
	)
	return order, nil
}

func (s *OrderService) enqueuePaymentConfirmed(order *models.Order) {
	if s.queueClient == nil {
		return
	}
	if err := s.queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{OrderID: order.ID, Status: order.Status}); err != nil {
		logger.Errorw("order_enqueue_status_email_failed",
			"order_id", order.ID,
			"status", order.Status,
			"error", err,
		)
	}
	if err := s.queueClient.EnqueueOrderCRMSync(queue.OrderCRMSyncPayload{OrderID: order.ID, Event: "order_paid"}); err != nil {
		logger.Errorw("order_enqueue_crm_sync_failed",
			"order_id", order.ID,
			"error", err,
		)
	}
}
