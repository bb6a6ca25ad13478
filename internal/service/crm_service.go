package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/freshbasket/freshbasket/internal/logger"
	"github.com/freshbasket/freshbasket/internal/models"
)

// CRMService pushes order events to the marketing CRM. The sync is
// fire-and-forget from the caller's point of view; the worker retries on
// transport failures.
type CRMService struct {
	baseURL    string
	httpClient *http.Client
}

// NewCRMService creates a CRM sync service. An empty base URL disables it.
func NewCRMService(baseURL string) *CRMService {
	return &CRMService{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a CRM endpoint is configured.
func (s *CRMService) Enabled() bool {
	return s != nil && s.baseURL != ""
}

type crmOrderEvent struct {
	Event         string `json:"event"`
	OrderNo       string `json:"order_no"`
	UserID        uint   `json:"user_id,omitempty"`
	GuestEmail    string `json:"guest_email,omitempty"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	Currency      string `json:"currency"`
	TotalAmount   string `json:"total_amount"`
	ItemCount     int    `json:"item_count"`
	Postcode      string `json:"postcode"`
	OccurredAt    string `json:"occurred_at"`
}

// SyncOrder posts one order event to the CRM.
func (s *CRMService) SyncOrder(ctx context.Context, order *models.Order, event string) error {
	if !s.Enabled() {
		logger.Debugw("crm_sync_skipped_disabled", "order_no", order.OrderNo, "event", event)
		return nil
	}

	payload := crmOrderEvent{
		Event:         event,
		OrderNo:       order.OrderNo,
		UserID:        order.UserID,
		GuestEmail:    order.GuestEmail,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Currency:      order.Currency,
		TotalAmount:   order.TotalAmount.String(),
		ItemCount:     len(order.Items),
		Postcode:      order.Postcode,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/orders/sync", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("crm sync returned status %d", resp.StatusCode)
	}
	logger.Debugw("crm_sync_sent", "order_no", order.OrderNo, "event", event)
	return nil
}
