package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/freshbasket/freshbasket/internal/config"
	"github.com/freshbasket/freshbasket/internal/models"
	"github.com/freshbasket/freshbasket/internal/payment/stripe"
)

// AuthorizeRequest carries the fields the gateway needs to authorize a charge.
type AuthorizeRequest struct {
	OrderNo      string
	Amount       models.Money
	Currency     string
	Description  string
	ReceiptEmail string
}

// AuthorizeReceipt identifies a successful authorization at the gateway.
type AuthorizeReceipt struct {
	PaymentRef string
	Status     string
}

// RefundRequest carries the fields for a partial or full refund.
type RefundRequest struct {
	PaymentRef string
	Amount     models.Money
	Currency   string
	Reason     string
}

// RefundReceipt identifies a refund accepted by the gateway.
type RefundReceipt struct {
	RefundID string
	Status   string
}

// WebhookEvent is a verified payment event received from the gateway.
type WebhookEvent struct {
	EventID    string
	EventType  string
	OrderNo    string
	PaymentRef string
	Status     string
	Amount     string
	Currency   string
	PaidAt     *time.Time
}

// PaymentGateway abstracts the payment provider so order flows and tests
// do not depend on provider wire formats.
type PaymentGateway interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeReceipt, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundReceipt, error)
	VerifyWebhook(headers map[string]string, body []byte, now time.Time) (*WebhookEvent, error)
}

// StripeGateway implements PaymentGateway on top of the Stripe adapter.
type StripeGateway struct {
	cfg *stripe.Config
}

// NewStripeGateway builds the gateway from application payment config.
func NewStripeGateway(paymentCfg config.PaymentConfig) *StripeGateway {
	cfg := &stripe.Config{
		SecretKey:               paymentCfg.SecretKey,
		WebhookSecret:           paymentCfg.WebhookSecret,
		APIBaseURL:              paymentCfg.APIBaseURL,
		TimeoutMS:               paymentCfg.TimeoutMS,
		WebhookToleranceSeconds: paymentCfg.ToleranceSeconds,
	}
	cfg.Normalize()
	return &StripeGateway{cfg: cfg}
}

// Authorize charges the customer and maps provider errors to service errors.
func (g *StripeGateway) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeReceipt, error) {
	result, err := stripe.Authorize(ctx, g.cfg, stripe.AuthorizeInput{
		OrderNo:      req.OrderNo,
		Amount:       req.Amount.String(),
		Currency:     req.Currency,
		Description:  req.Description,
		ReceiptEmail: req.ReceiptEmail,
	})
	if err != nil {
		if errors.Is(err, stripe.ErrPaymentDeclined) {
			return nil, fmt.Errorf("%w: %v", ErrPaymentDeclined, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	return &AuthorizeReceipt{
		PaymentRef: result.PaymentIntentID,
		Status:     result.Status,
	}, nil
}

// Refund refunds part of a captured charge.
func (g *StripeGateway) Refund(ctx context.Context, req RefundRequest) (*RefundReceipt, error) {
	result, err := stripe.Refund(ctx, g.cfg, stripe.RefundInput{
		PaymentIntentID: req.PaymentRef,
		Amount:          req.Amount.String(),
		Currency:        req.Currency,
		Reason:          req.Reason,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	return &RefundReceipt{
		RefundID: result.RefundID,
		Status:   result.Status,
	}, nil
}

// VerifyWebhook checks the event signature and parses the payload.
func (g *StripeGateway) VerifyWebhook(headers map[string]string, body []byte, now time.Time) (*WebhookEvent, error) {
	result, err := stripe.VerifyAndParseWebhook(g.cfg, headers, body, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWebhookInvalid, err)
	}
	return &WebhookEvent{
		EventID:    result.EventID,
		EventType:  result.EventType,
		OrderNo:    result.OrderNo,
		PaymentRef: result.PaymentIntentID,
		Status:     result.Status,
		Amount:     result.Amount,
		Currency:   result.Currency,
		PaidAt:     result.PaidAt,
	}, nil
}
