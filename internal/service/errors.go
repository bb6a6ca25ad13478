package service

import "errors"

// Order errors.
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderItemNotFound = errors.New("order item not found")
	ErrInvalidOrderItem  = errors.New("order item invalid")
	ErrTooManyItems      = errors.New("order has too many items")
	ErrIdentityRequired  = errors.New("order requires exactly one of user or guest email")
	ErrAddressIncomplete = errors.New("delivery address incomplete")
	ErrUserNotFound      = errors.New("customer account not found")
	ErrInvalidTransition = errors.New("order status transition not allowed")
	ErrOrderCreateFailed = errors.New("order create failed")
)

// Catalogue and delivery errors.
var (
	ErrProductUnavailable = errors.New("product unavailable")
	ErrZoneNotServiced    = errors.New("postcode not serviced by any delivery zone")
	ErrBelowMinimumOrder  = errors.New("order below zone minimum value")
	ErrSlotNotFound       = errors.New("delivery slot not found")
	ErrSlotUnavailable    = errors.New("delivery slot unavailable")
	ErrZoneNotFound       = errors.New("delivery zone not found")
)

// Voucher errors.
var (
	ErrVoucherInvalid     = errors.New("voucher invalid")
	ErrVoucherNotFound    = errors.New("voucher not found")
	ErrVoucherInactive    = errors.New("voucher inactive")
	ErrVoucherNotYetValid = errors.New("voucher not yet valid")
	ErrVoucherExpired     = errors.New("voucher expired")
	ErrVoucherMinOrder    = errors.New("order below voucher minimum value")
	ErrVoucherUsageLimit  = errors.New("voucher usage limit reached")
	ErrVoucherAlreadyUsed = errors.New("voucher already used by this customer")
	ErrVoucherCodeTaken   = errors.New("voucher code already exists")
)

// Payment and webhook errors.
var (
	ErrPaymentDeclined     = errors.New("payment declined by gateway")
	ErrPaymentFailed       = errors.New("payment gateway request failed")
	ErrPaymentNotCompleted = errors.New("order payment not completed")
	ErrWebhookInvalid      = errors.New("webhook payload invalid")
	ErrAlreadyProcessed    = errors.New("event already processed")
)

// Email delivery errors.
var (
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrInvalidEmail              = errors.New("email address invalid")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
)

// Substitution and refund errors.
var (
	ErrSubstitutionNotPending = errors.New("order item has no pending substitution")
	ErrRefundManualProcessing = errors.New("refund requires manual processing")
)
