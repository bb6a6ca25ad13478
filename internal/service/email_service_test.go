package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/freshbasket/freshbasket/internal/config"
	"github.com/freshbasket/freshbasket/internal/constants"
	"github.com/freshbasket/freshbasket/internal/models"
)

func TestSendTextEmailGuards(t *testing.T) {
	svc := NewEmailService(nil)
	if err := svc.sendTextEmail("a@example.com", "subject", "body"); !errors.Is(err, ErrEmailServiceDisabled) {
		t.Fatalf("nil config want ErrEmailServiceDisabled got %v", err)
	}

	svc = NewEmailService(&config.EmailConfig{Enabled: false})
	if err := svc.sendTextEmail("a@example.com", "subject", "body"); !errors.Is(err, ErrEmailServiceDisabled) {
		t.Fatalf("disabled want ErrEmailServiceDisabled got %v", err)
	}

	svc = NewEmailService(&config.EmailConfig{Enabled: true, Host: "smtp.example.com"})
	if err := svc.sendTextEmail("a@example.com", "subject", "body"); !errors.Is(err, ErrEmailServiceNotConfigured) {
		t.Fatalf("missing port/from want ErrEmailServiceNotConfigured got %v", err)
	}

	svc = NewEmailService(&config.EmailConfig{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "orders@example.com",
	})
	if err := svc.sendTextEmail("not-an-address", "subject", "body"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("bad recipient want ErrInvalidEmail got %v", err)
	}
}

func TestBuildFromAddress(t *testing.T) {
	if got := buildFromAddress("orders@example.com", ""); got != "orders@example.com" {
		t.Fatalf("bare address want orders@example.com got %q", got)
	}
	got := buildFromAddress("orders@example.com", "FreshBasket")
	if !strings.Contains(got, "FreshBasket") || !strings.Contains(got, "<orders@example.com>") {
		t.Fatalf("named address malformed: %q", got)
	}
}

func TestBuildEmailMessage(t *testing.T) {
	msg := buildEmailMessage("orders@example.com", "shopper@example.com", "Order FB1 received", "hello")
	wantLines := []string{
		"From: orders@example.com",
		"To: shopper@example.com",
		"Subject: Order FB1 received",
		"Content-Type: text/plain; charset=UTF-8",
	}
	for _, line := range wantLines {
		if !strings.Contains(msg, line+"\r\n") {
			t.Fatalf("message missing header %q:\n%s", line, msg)
		}
	}
	if !strings.HasSuffix(msg, "\r\n\r\nhello") {
		t.Fatalf("body should follow a blank line:\n%s", msg)
	}
}

func TestStatusLabel(t *testing.T) {
	cases := map[string]string{
		constants.OrderStatusConfirmed:      "confirmed",
		constants.OrderStatusOutForDelivery: "out for delivery",
		constants.OrderStatusCancelled:      "cancelled",
		"SOMETHING_ELSE":                    "something_else",
	}
	for status, want := range cases {
		if got := statusLabel(status); got != want {
			t.Fatalf("statusLabel(%s) want %q got %q", status, want, got)
		}
	}
}

func TestNormalizeEmailSendError(t *testing.T) {
	if err := normalizeEmailSendError(nil); err != nil {
		t.Fatalf("nil should stay nil, got %v", err)
	}

	rejected := []error{
		errors.New("550 5.1.1 Recipient address rejected: User unknown"),
		errors.New("no such recipient here"),
		errors.New("550 requested action not taken: mailbox unavailable"),
	}
	for _, cause := range rejected {
		if err := normalizeEmailSendError(cause); !errors.Is(err, ErrEmailRecipientRejected) {
			t.Fatalf("%v want ErrEmailRecipientRejected got %v", cause, err)
		}
	}

	transient := errors.New("421 service not available")
	if err := normalizeEmailSendError(transient); !errors.Is(err, transient) {
		t.Fatalf("transient error should pass through, got %v", err)
	}
}

func TestOrderConfirmationDisabledService(t *testing.T) {
	order := &models.Order{
		OrderNo:        "FB20260901000000000020",
		Currency:       "GBP",
		VoucherCode:    "SAVE10",
		SubtotalAmount: mustMoney(t, "70.00"),
		DiscountAmount: mustMoney(t, "7.00"),
		DeliveryFee:    mustMoney(t, "5.99"),
		TotalAmount:    mustMoney(t, "68.99"),
		Items: []models.OrderItem{
			{ProductName: "Apples", Quantity: 2, TotalPrice: mustMoney(t, "5.00")},
		},
	}

	svc := NewEmailService(&config.EmailConfig{Enabled: false})
	if err := svc.SendOrderConfirmation("shopper@example.com", order); !errors.Is(err, ErrEmailServiceDisabled) {
		t.Fatalf("want ErrEmailServiceDisabled got %v", err)
	}
}
