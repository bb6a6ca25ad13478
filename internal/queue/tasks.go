package queue

import (
	"encoding/json"

	"github.com/freshbasket/freshbasket/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderConfirmation sends the order confirmation email.
	TaskOrderConfirmation = constants.TaskOrderConfirmation
	// TaskOrderStatusEmail sends a fulfilment status email.
	TaskOrderStatusEmail = constants.TaskOrderStatusEmail
	// TaskOrderCRMSync pushes the order to the CRM.
	TaskOrderCRMSync = constants.TaskOrderCRMSync
	// TaskSubstitutionOffer notifies the customer of a proposed substitute.
	TaskSubstitutionOffer = constants.TaskSubstitutionOffer
	// TaskSubstitutionResult confirms the customer's substitution decision.
	TaskSubstitutionResult = constants.TaskSubstitutionResult
	// TaskOperatorRefundAlert pages an operator about a failed refund.
	TaskOperatorRefundAlert = constants.TaskOperatorRefundAlert
)

// OrderConfirmationPayload carries the confirmation email task.
type OrderConfirmationPayload struct {
	OrderID uint `json:"order_id"`
}

// OrderStatusEmailPayload carries the status email task.
type OrderStatusEmailPayload struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

// OrderCRMSyncPayload carries the CRM sync task.
type OrderCRMSyncPayload struct {
	OrderID uint   `json:"order_id"`
	Event   string `json:"event"`
}

// SubstitutionOfferPayload carries the substitution offer email task.
type SubstitutionOfferPayload struct {
	OrderID uint `json:"order_id"`
	ItemID  uint `json:"item_id"`
}

// SubstitutionResultPayload carries the substitution outcome email task.
type SubstitutionResultPayload struct {
	OrderID  uint   `json:"order_id"`
	ItemID   uint   `json:"item_id"`
	Decision string `json:"decision"`
}

// OperatorRefundAlertPayload carries the manual refund escalation task.
type OperatorRefundAlertPayload struct {
	OrderID uint   `json:"order_id"`
	ItemID  uint   `json:"item_id"`
	Amount  string `json:"amount"`
	Reason  string `json:"reason"`
}

// NewOrderConfirmationTask builds the confirmation email task.
func NewOrderConfirmationTask(payload OrderConfirmationPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderConfirmation, body), nil
}

// NewOrderStatusEmailTask builds the status email task.
func NewOrderStatusEmailTask(payload OrderStatusEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStatusEmail, body), nil
}

// NewOrderCRMSyncTask builds the CRM sync task.
func NewOrderCRMSyncTask(payload OrderCRMSyncPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderCRMSync, body), nil
}

// NewSubstitutionOfferTask builds the substitution offer task.
func NewSubstitutionOfferTask(payload SubstitutionOfferPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSubstitutionOffer, body), nil
}

// NewSubstitutionResultTask builds the substitution outcome task.
func NewSubstitutionResultTask(payload SubstitutionResultPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSubstitutionResult, body), nil
}

// NewOperatorRefundAlertTask builds the manual refund escalation task.
func NewOperatorRefundAlertTask(payload OperatorRefundAlertPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOperatorRefundAlert, body), nil
}
