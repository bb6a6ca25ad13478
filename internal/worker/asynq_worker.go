package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/freshbasket/freshbasket/internal/logger"
	"github.com/freshbasket/freshbasket/internal/models"
	"github.com/freshbasket/freshbasket/internal/provider"
	"github.com/freshbasket/freshbasket/internal/queue"
	"github.com/freshbasket/freshbasket/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer dispatches queued notification tasks.
type Consumer struct {
	*provider.Container
}

// NewConsumer creates a consumer.
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register installs the task handlers.
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderConfirmation, c.handleOrderConfirmation)
	mux.HandleFunc(queue.TaskOrderStatusEmail, c.handleOrderStatusEmail)
	mux.HandleFunc(queue.TaskOrderCRMSync, c.handleOrderCRMSync)
	mux.HandleFunc(queue.TaskSubstitutionOffer, c.handleSubstitutionOffer)
	mux.HandleFunc(queue.TaskSubstitutionResult, c.handleSubstitutionResult)
	mux.HandleFunc(queue.TaskOperatorRefundAlert, c.handleOperatorRefundAlert)
}

// loadOrder fetches the order for a task. A missing order drops the task.
func (c *Consumer) loadOrder(taskName string, orderID uint) (*models.Order, error) {
	if orderID == 0 {
		logger.Debugw("worker_skip_invalid_payload", "task", taskName)
		return nil, nil
	}
	order, err := c.OrderRepo.GetByID(orderID)
	if err != nil {
		logger.Warnw("worker_order_fetch_failed", "task", taskName, "order_id", orderID, "error", err)
		return nil, err
	}
	if order == nil {
		logger.Debugw("worker_skip_order_not_found", "task", taskName, "order_id", orderID)
		return nil, nil
	}
	return order, nil
}

// swallowEmailError keeps disabled or terminally failing email sends from
// cycling through the retry queue.
func swallowEmailError(taskName string, orderID uint, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, service.ErrEmailServiceDisabled),
		errors.Is(err, service.ErrEmailServiceNotConfigured):
		logger.Debugw("worker_email_skip_disabled", "task", taskName, "order_id", orderID)
		return nil
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrEmailRecipientRejected):
		logger.Warnw("worker_email_skip_bad_recipient", "task", taskName, "order_id", orderID, "error", err)
		return nil
	}
	logger.Warnw("worker_email_send_failed", "task", taskName, "order_id", orderID, "error", err)
	return err
}

func (c *Consumer) handleOrderConfirmation(_ context.Context, task *asynq.Task) error {
	var payload queue.OrderConfirmationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_confirmation_unmarshal_failed", "error", err)
		return err
	}
	order, err := c.loadOrder(queue.TaskOrderConfirmation, payload.OrderID)
	if err != nil || order == nil {
		return err
	}
	receiver, err := c.OrderRepo.ResolveReceiverEmailByOrderID(order.ID)
	if err != nil {
		return err
	}
	if receiver == "" {
		logger.Debugw("worker_order_confirmation_skip_empty_receiver", "order_id", order.ID)
		return nil
	}
	return swallowEmailError(queue.TaskOrderConfirmation, order.ID, c.EmailService.SendOrderConfirmation(receiver, order))
}

func (c *Consumer) handleOrderStatusEmail(_ context.Context, task *asynq.Task) error {
	var payload queue.OrderStatusEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_email_unmarshal_failed", "error", err)
		return err
	}
	order, err := c.loadOrder(queue.TaskOrderStatusEmail, payload.OrderID)
	if err != nil || order == nil {
		return err
	}
	receiver, err := c.OrderRepo.ResolveReceiverEmailByOrderID(order.ID)
	if err != nil {
		return err
	}
	if receiver == "" {
		logger.Debugw("worker_order_status_email_skip_empty_receiver", "order_id", order.ID)
		return nil
	}
	status := strings.TrimSpace(payload.Status)
	if status == "" {
		status = order.Status
	}
	return swallowEmailError(queue.TaskOrderStatusEmail, order.ID, c.EmailService.SendOrderStatusEmail(receiver, order, status))
}

func (c *Consumer) handleOrderCRMSync(ctx context.Context, task *asynq.Task) error {
	var payload queue.OrderCRMSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_crm_sync_unmarshal_failed", "error", err)
		return err
	}
	order, err := c.loadOrder(queue.TaskOrderCRMSync, payload.OrderID)
	if err != nil || order == nil {
		return err
	}
	if err := c.CRMService.SyncOrder(ctx, order, payload.Event); err != nil {
		logger.Warnw("worker_order_crm_sync_failed", "order_id", order.ID, "event", payload.Event, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleSubstitutionOffer(_ context.Context, task *asynq.Task) error {
	var payload queue.SubstitutionOfferPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_substitution_offer_unmarshal_failed", "error", err)
		return err
	}
	order, err := c.loadOrder(queue.TaskSubstitutionOffer, payload.OrderID)
	if err != nil || order == nil {
		return err
	}
	item, err := c.OrderRepo.GetItem(order.ID, payload.ItemID)
	if err != nil {
		return err
	}
	if item == nil {
		logger.Debugw("worker_substitution_offer_skip_item_not_found", "order_id", order.ID, "item_id", payload.ItemID)
		return nil
	}
	receiver, err := c.OrderRepo.ResolveReceiverEmailByOrderID(order.ID)
	if err != nil {
		return err
	}
	if receiver == "" {
		return nil
	}
	return swallowEmailError(queue.TaskSubstitutionOffer, order.ID, c.EmailService.SendSubstitutionOffer(receiver, order, item))
}

func (c *Consumer) handleSubstitutionResult(_ context.Context, task *asynq.Task) error {
	var payload queue.SubstitutionResultPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_substitution_result_unmarshal_failed", "error", err)
		return err
	}
	order, err := c.loadOrder(queue.TaskSubstitutionResult, payload.OrderID)
	if err != nil || order == nil {
		return err
	}
	item, err := c.OrderRepo.GetItem(order.ID, payload.ItemID)
	if err != nil {
		return err
	}
	if item == nil {
		logger.Debugw("worker_substitution_result_skip_item_not_found", "order_id", order.ID, "item_id", payload.ItemID)
		return nil
	}
	receiver, err := c.OrderRepo.ResolveReceiverEmailByOrderID(order.ID)
	if err != nil {
		return err
	}
	if receiver == "" {
		return nil
	}
	return swallowEmailError(queue.TaskSubstitutionResult, order.ID, c.EmailService.SendSubstitutionResult(receiver, order, item, payload.Decision))
}

func (c *Consumer) handleOperatorRefundAlert(_ context.Context, task *asynq.Task) error {
	var payload queue.OperatorRefundAlertPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_refund_alert_unmarshal_failed", "error", err)
		return err
	}
	operatorEmail := strings.TrimSpace(c.Config.Notification.OperatorAlertEmail)
	if operatorEmail == "" {
		logger.Warnw("worker_refund_alert_skip_no_operator_email",
			"order_id", payload.OrderID,
			"item_id", payload.ItemID,
			"amount", payload.Amount,
		)
		return nil
	}
	err := c.EmailService.SendOperatorRefundAlert(operatorEmail, payload.OrderID, payload.ItemID, payload.Amount, payload.Reason)
	return swallowEmailError(queue.TaskOperatorRefundAlert, payload.OrderID, err)
}
