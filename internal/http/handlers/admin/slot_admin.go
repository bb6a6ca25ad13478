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

// SlotWindowRequest is one recurring window in a generation run.
type SlotWindowRequest struct {
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

// GenerateSlotsRequest describes a run of slots to create.
type GenerateSlotsRequest struct {
	FromDate  string              `json:"from_date" binding:"required"`
	Days      int                 `json:"days" binding:"required"`
	Windows   []SlotWindowRequest `json:"windows" binding:"required"`
	MaxOrders int                 `json:"max_orders" binding:"required"`
}

// GenerateSlots bulk creates delivery slots. Existing windows are skipped.
func (h *Handler) GenerateSlots(c *gin.Context) {
	var req GenerateSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, http.StatusBadRequest, "request body invalid", err)
		return
	}

	fromDate, err := time.Parse("2006-01-02", strings.TrimSpace(req.FromDate))
	if err != nil {
		shared.RespondError(c, http.StatusBadRequest, "from_date must be YYYY-MM-DD", nil)
		return
	}

	windows := make([]service.SlotWindow, 0, len(req.Windows))
	for _, window := range req.Windows {
		windows = append(windows, service.SlotWindow{
			StartTime: strings.TrimSpace(window.StartTime),
			EndTime:   strings.TrimSpace(window.EndTime),
		})
	}

	created, err := h.DeliveryService.GenerateSlots(service.SlotGenerateInput{
		FromDate:  fromDate,
		Days:      req.Days,
		Windows:   windows,
		MaxOrders: req.MaxOrders,
	})
	if err != nil {
		if errors.Is(err, service.ErrSlotUnavailable) {
			shared.RespondError(c, http.StatusBadRequest, "generation parameters invalid", nil)
			return
		}
		shared.RespondError(c, http.StatusInternalServerError, "slot generation failed", err)
		return
	}
	response.Created(c, gin.H{"created": created})
}

// ListSlots pages all slots, full or not.
func (h *Handler) ListSlots(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	filter := repository.SlotListFilter{Page: page, PageSize: pageSize}
	if raw := strings.TrimSpace(c.Query("date_from")); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			filter.DateFrom = &parsed
		}
	}
	if raw := strings.TrimSpace(c.Query("date_to")); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			filter.DateTo = &parsed
		}
	}

	slots, total, err := h.DeliveryService.ListSlots(filter)
	if err != nil {
		shared.RespondError(c, http.StatusInternalServerError, "slot listing failed", err)
		return
	}
	response.SuccessWithPage(c, slots, shared.BuildPagination(page, pageSize, total))
}

// UpdateSlotRequest edits capacity or availability.
type UpdateSlotRequest struct {
	MaxOrders   *int  `json:"max_orders"`
	IsAvailable *bool `json:"is_available"`
}

// UpdateSlot edits one slot.
func (h *Handler) UpdateSlot(c *gin.Context) {
	slotID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || slotID == 0 {
		shared.RespondError(c, http.StatusBadRequest, "slot id invalid", nil)
		return
	}

	var req UpdateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, http.StatusBadRequest, "request body invalid", err)
		return
	}

	slot, err := h.DeliveryService.UpdateSlot(uint(slotID), service.SlotUpdateInput{
		MaxOrders:   req.MaxOrders,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSlotNotFound):
			shared.RespondError(c, http.StatusNotFound, "slot not found", nil)
		case errors.Is(err, service.ErrSlotUnavailable):
			shared.RespondError(c, http.StatusBadRequest, "slot parameters invalid", nil)
		default:
			shared.RespondError(c, http.StatusInternalServerError, "slot update failed", err)
		}
		return
	}
	response.Success(c, slot)
}
