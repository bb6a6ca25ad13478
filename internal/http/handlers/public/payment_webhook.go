package public

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/freshbasket/freshbasket/internal/http/handlers/shared"
	"github.com/freshbasket/freshbasket/internal/http/response"
	"github.com/freshbasket/freshbasket/internal/service"

	"github.com/gin-gonic/gin"
)

// PaymentWebhook reconciles a gateway event against the referenced order.
// Only a signature failure answers 400; every verified delivery gets
// 200 {received: true}, replays and internal failures included.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, "webhook body unreadable", err)
		return
	}

	headers := make(map[string]string, len(c.Request.Header))
	for key := range c.Request.Header {
		headers[key] = c.GetHeader(key)
	}

	_, err = h.OrderService.HandlePaymentWebhook(c.Request.Context(), headers, body, time.Now())
	if errors.Is(err, service.ErrWebhookInvalid) {
		respondError(c, http.StatusBadRequest, "webhook verification failed", nil)
		return
	}
	// A verified event is always acknowledged so the gateway stops retrying.
	// Internal failures are logged and reconciled out of band.
	if err != nil && !errors.Is(err, service.ErrAlreadyProcessed) {
		shared.RequestLog(c).Errorw("payment_webhook_failed", "error", err)
	}
	response.Success(c, gin.H{"received": true})
}
