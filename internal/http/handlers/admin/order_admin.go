package admin

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/freshbasket/freshbasket/internal/http/handlers/shared"
	"github.com/freshbasket/freshbasket/internal/http/response"
	"github.com/freshbasket/freshbasket/internal/repository"
	"github.com/freshbasket/freshbasket/internal/service"

	"github.com/gin-gonic/gin"
)

// ListOrders pages orders with the console filters.
func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		Page:          page,
		PageSize:      pageSize,
		Status:        strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("payment_status")),
		OrderNo:       strings.TrimSpace(c.Query("order_no")),
		GuestEmail:    strings.TrimSpace(c.Query("guest_email")),
		Postcode:      strings.TrimSpace(c.Query("postcode")),
	}
	if userID, err := strconv.ParseUint(strings.TrimSpace(c.Query("user_id")), 10, 64); err == nil {
		filter.UserID = uint(userID)
	}
	if slotID, err := strconv.ParseUint(strings.TrimSpace(c.Query("slot_id")), 10, 64); err == nil {
		filter.SlotID = uint(slotID)
	}
	if from, ok := parseTimeQuery(c, "created_from"); ok {
		filter.CreatedFrom = &from
	}
	if to, ok := parseTimeQuery(c, "created_to"); ok {
		filter.CreatedTo = &to
	}

	orders, total, err := h.OrderService.ListOrders(filter)
	if err != nil {
		shared.RespondError(c, http.StatusInternalServerError, "order listing failed", err)
		return
	}
	response.SuccessWithPage(c, orders, shared.BuildPagination(page, pageSize, total))
}

// GetOrder returns one order by number.
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.OrderService.GetOrderByNo(c.Param("order_no"))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			shared.RespondError(c, http.StatusNotFound, "order not found", nil)
			return
		}
		shared.RespondError(c, http.StatusInternalServerError, "order lookup failed", err)
		return
	}
	response.Success(c, order)
}

// UpdateOrderStatusRequest carries the target status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus moves an order along the fulfilment lifecycle.
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	order, err := h.OrderService.GetOrderByNo(c.Param("order_no"))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			shared.RespondError(c, http.StatusNotFound, "order not found", nil)
			return
		}
		shared.RespondError(c, http.StatusInternalServerError, "order lookup failed", err)
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, http.StatusBadRequest, "request body invalid", err)
		return
	}

	updated, err := h.OrderService.UpdateStatus(order.ID, strings.ToUpper(strings.TrimSpace(req.Status)))
	if err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			shared.RespondError(c, http.StatusConflict, "status transition not allowed", nil)
			return
		}
		shared.RespondError(c, http.StatusInternalServerError, "status update failed", err)
		return
	}
	response.Success(c, updated)
}

// OfferSubstituteRequest names the replacement product.
type OfferSubstituteRequest struct {
	SubstituteProductID uint `json:"substitute_product_id" binding:"required"`
}

// OfferSubstitute proposes a replacement on one order line.
func (h *Handler) OfferSubstitute(c *gin.Context) {
	order, err := h.OrderService.GetOrderByNo(c.Param("order_no"))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			shared.RespondError(c, http.StatusNotFound, "order not found", nil)
			return
		}
		shared.RespondError(c, http.StatusInternalServerError, "order lookup failed", err)
		return
	}

	itemID, err := strconv.ParseUint(c.Param("item_id"), 10, 64)
	if err != nil || itemID == 0 {
		shared.RespondError(c, http.StatusBadRequest, "item_id invalid", nil)
		return
	}

	var req OfferSubstituteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, http.StatusBadRequest, "request body invalid", err)
		return
	}

	item, err := h.OrderService.OfferSubstitute(service.OfferSubstituteInput{
		OrderID:             order.ID,
		ItemID:              uint(itemID),
		SubstituteProductID: req.SubstituteProductID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderItemNotFound):
			shared.RespondError(c, http.StatusNotFound, "order item not found", nil)
		case errors.Is(err, service.ErrInvalidTransition):
			shared.RespondError(c, http.StatusConflict, "order not in a substitutable status", nil)
		case errors.Is(err, service.ErrSubstitutionNotPending):
			shared.RespondError(c, http.StatusConflict, "item substitution already resolved", nil)
		case errors.Is(err, service.ErrProductUnavailable):
			shared.RespondError(c, http.StatusBadRequest, "substitute product unavailable", nil)
		default:
			shared.RespondError(c, http.StatusInternalServerError, "substitution offer failed", err)
		}
		return
	}
	response.Success(c, item)
}

func parseTimeQuery(c *gin.Context, key string) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return time.Time{}, false
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, true
	}
	if parsed, err := time.Parse("2006-01-02", raw); err == nil {
		return parsed, true
	}
	return time.Time{}, false
}
