package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/freshbasket/freshbasket/internal/config"
	"github.com/freshbasket/freshbasket/internal/constants"
	"github.com/freshbasket/freshbasket/internal/models"
)

// EmailService sends transactional customer emails over SMTP.
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService creates an email service.
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendOrderConfirmation sends the intake confirmation for a new order.
func (s *EmailService) SendOrderConfirmation(toEmail string, order *models.Order) error {
	subject := fmt.Sprintf("Order %s received", order.OrderNo)
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Thanks for your order %s.\n\n", order.OrderNo)
	for _, item := range order.Items {
		fmt.Fprintf(&buf, "  %d x %s  %s %s\n", item.Quantity, item.ProductName, item.TotalPrice.String(), order.Currency)
	}
	fmt.Fprintf(&buf, "\nSubtotal: %s %s\n", order.SubtotalAmount.String(), order.Currency)
	if order.VoucherCode != "" {
		fmt.Fprintf(&buf, "Voucher %s: -%s %s\n", order.VoucherCode, order.DiscountAmount.String(), order.Currency)
	}
	fmt.Fprintf(&buf, "Delivery: %s %s\n", order.DeliveryFee.String(), order.Currency)
	fmt.Fprintf(&buf, "Total: %s %s\n", order.TotalAmount.String(), order.Currency)
	if order.DeliverySlot != nil {
		fmt.Fprintf(&buf, "\nDelivery window: %s %s-%s\n",
			order.DeliverySlot.SlotDate.Format("2006-01-02"),
			order.DeliverySlot.StartTime,
			order.DeliverySlot.EndTime,
		)
	}
	return s.sendTextEmail(toEmail, subject, buf.String())
}

// SendOrderStatusEmail notifies the customer of a lifecycle change.
func (s *EmailService) SendOrderStatusEmail(toEmail string, order *models.Order, status string) error {
	label := statusLabel(status)
	subject := fmt.Sprintf("Order %s %s", order.OrderNo, label)
	body := fmt.Sprintf("Your order %s is now %s.\n\nOrder total: %s %s\n",
		order.OrderNo, label, order.TotalAmount.String(), order.Currency)
	return s.sendTextEmail(toEmail, subject, body)
}

// SendSubstitutionOffer asks the customer to accept or refuse a replacement.
func (s *EmailService) SendSubstitutionOffer(toEmail string, order *models.Order, item *models.OrderItem) error {
	subject := fmt.Sprintf("Order %s: substitution needed", order.OrderNo)
	body := fmt.Sprintf(
		"%s is out of stock for order %s.\n\nWe suggest: %s at %s %s per unit.\n\nPlease accept or refuse the substitution from your order page. If you refuse we will refund %s %s.\n",
		item.ProductName, order.OrderNo,
		item.SubstituteName, item.SubstituteUnitPrice.String(), order.Currency,
		item.TotalPrice.String(), order.Currency,
	)
	return s.sendTextEmail(toEmail, subject, body)
}

// SendSubstitutionResult confirms the customer decision on a substitution.
func (s *EmailService) SendSubstitutionResult(toEmail string, order *models.Order, item *models.OrderItem, decision string) error {
	subject := fmt.Sprintf("Order %s: substitution %sed", order.OrderNo, decision)
	var body string
	if decision == SubstituteDecisionAccept {
		body = fmt.Sprintf("You accepted %s as a replacement for %s on order %s.\n\nUpdated order total: %s %s\n",
			item.SubstituteName, item.ProductName, order.OrderNo, order.TotalAmount.String(), order.Currency)
	} else {
		body = fmt.Sprintf("You refused the replacement for %s on order %s.\n\nWe refunded %s %s. Updated order total: %s %s\n",
			item.ProductName, order.OrderNo, item.RefundAmount.String(), order.Currency,
			order.TotalAmount.String(), order.Currency)
	}
	return s.sendTextEmail(toEmail, subject, body)
}

// SendOperatorRefundAlert escalates a failed refund to the operations inbox.
func (s *EmailService) SendOperatorRefundAlert(toEmail string, orderID, itemID uint, amount, reason string) error {
	subject := "Manual refund required"
	body := fmt.Sprintf("A gateway refund failed and needs manual processing.\n\nOrder ID: %d\nItem ID: %d\nAmount: %s\nReason: %s\n",
		orderID, itemID, amount, reason)
	return s.sendTextEmail(toEmail, subject, body)
}

func statusLabel(status string) string {
	switch status {
	case constants.OrderStatusConfirmed:
		return "confirmed"
	case constants.OrderStatusPacked:
		return "packed"
	case constants.OrderStatusOutForDelivery:
		return "out for delivery"
	case constants.OrderStatusDelivered:
		return "delivered"
	case constants.OrderStatusCancelled:
		return "cancelled"
	default:
		return strings.ToLower(status)
	}
}

func (s *EmailService) sendTextEmail(toEmail, subject, body string) error {
	if s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailServiceNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrInvalidEmail
	}

	from := buildFromAddress(s.cfg.From, s.cfg.FromName)
	msg := buildEmailMessage(from, toEmail, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" || s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.UseSSL {
		return normalizeEmailSendError(sendMailWithSSL(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
	}
	if s.cfg.UseTLS {
		return normalizeEmailSendError(sendMailWithStartTLS(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
	}
	return normalizeEmailSendError(sendMailPlain(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.String()
}

func sendMailWithSSL(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}
	return sendSMTPData(client, from, to, msg)
}

func sendMailWithStartTLS(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}
	return sendSMTPData(client, from, to, msg)
}

func sendMailPlain(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}
	return sendSMTPData(client, from, to, msg)
}

func sendSMTPData(client *smtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func normalizeEmailSendError(err error) error {
	if err == nil {
		return nil
	}
	if isEmailRecipientRejected(err) {
		return ErrEmailRecipientRejected
	}
	return err
}

func isEmailRecipientRejected(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	if message == "" {
		return false
	}
	directKeywords := []string{
		"no such recipient",
		"no such user",
		"recipient not found",
		"recipient address rejected",
		"invalid recipient",
		"user unknown",
		"unknown user",
		"unknown mailbox",
		"mailbox unavailable",
	}
	for _, keyword := range directKeywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	if strings.Contains(message, "550") {
		hints := []string{"recipient", "user", "mailbox", "address", "rcpt"}
		for _, hint := range hints {
			if strings.Contains(message, hint) {
				return true
			}
		}
	}
	return false
}
