package admin

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/freshbasket/freshbasket/internal/http/handlers/shared"
	"github.com/freshbasket/freshbasket/internal/http/response"
	"github.com/freshbasket/freshbasket/internal/models"
	"github.com/freshbasket/freshbasket/internal/repository"
	"github.com/freshbasket/freshbasket/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateVoucherRequest is the voucher creation payload.
type CreateVoucherRequest struct {
	Code           string       `json:"code" binding:"required"`
	Type           string       `json:"type" binding:"required"`
	Value          models.Money `json:"value" binding:"required"`
	MinOrderValue  models.Money `json:"min_order_value"`
	MaxUses        *int         `json:"max_uses"`
	OneTimePerUser bool         `json:"one_time_per_user"`
	ValidFrom      *time.Time   `json:"valid_from"`
	ExpiresAt      *time.Time   `json:"expires_at"`
	IsActive       *bool        `json:"is_active"`
}

// CreateVoucher stores a new voucher.
func (h *Handler) CreateVoucher(c *gin.Context) {
	var req CreateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, http.StatusBadRequest, "request body invalid", err)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	voucher, err := h.VoucherService.Create(service.VoucherCreateInput{
		Code:           req.Code,
		Type:           strings.ToUpper(strings.TrimSpace(req.Type)),
		Value:          req.Value,
		MinOrderValue:  req.MinOrderValue,
		MaxUses:        req.MaxUses,
		OneTimePerUser: req.OneTimePerUser,
		ValidFrom:      req.ValidFrom,
		ExpiresAt:      req.ExpiresAt,
		IsActive:       isActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVoucherInvalid):
			shared.RespondError(c, http.StatusBadRequest, "voucher parameters invalid", nil)
		case errors.Is(err, service.ErrVoucherCodeTaken):
			shared.RespondError(c, http.StatusConflict, "voucher code already exists", nil)
		default:
			shared.RespondError(c, http.StatusInternalServerError, "voucher creation failed", err)
		}
		return
	}
	response.Created(c, voucher)
}

// ListVouchers pages vouchers.
func (h *Handler) ListVouchers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	filter := repository.VoucherListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     strings.TrimSpace(c.Query("code")),
	}
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		active := raw == "true" || raw == "1"
		filter.IsActive = &active
	}

	vouchers, total, err := h.VoucherService.List(filter)
	if err != nil {
		shared.RespondError(c, http.StatusInternalServerError, "voucher listing failed", err)
		return
	}
	response.SuccessWithPage(c, vouchers, shared.BuildPagination(page, pageSize, total))
}

// GetVoucher returns one voucher.
func (h *Handler) GetVoucher(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	voucher, err := h.VoucherService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrVoucherNotFound) {
			shared.RespondError(c, http.StatusNotFound, "voucher not found", nil)
			return
		}
		shared.RespondError(c, http.StatusInternalServerError, "voucher lookup failed", err)
		return
	}
	response.Success(c, voucher)
}

// UpdateVoucherRequest edits a voucher. Nil fields stay unchanged.
type UpdateVoucherRequest struct {
	Value          *models.Money `json:"value"`
	MinOrderValue  *models.Money `json:"min_order_value"`
	MaxUses        *int          `json:"max_uses"`
	ClearMaxUses   bool          `json:"clear_max_uses"`
	OneTimePerUser *bool         `json:"one_time_per_user"`
	ValidFrom      *time.Time    `json:"valid_from"`
	ClearValidFrom bool          `json:"clear_valid_from"`
	ExpiresAt      *time.Time    `json:"expires_at"`
	ClearExpiresAt bool          `json:"clear_expires_at"`
	IsActive       *bool         `json:"is_active"`
}

// UpdateVoucher edits one voucher.
func (h *Handler) UpdateVoucher(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, http.StatusBadRequest, "request body invalid", err)
		return
	}

	voucher, err := h.VoucherService.Update(id, service.VoucherUpdateInput{
		Value:          req.Value,
		MinOrderValue:  req.MinOrderValue,
		MaxUses:        req.MaxUses,
		ClearMaxUses:   req.ClearMaxUses,
		OneTimePerUser: req.OneTimePerUser,
		ValidFrom:      req.ValidFrom,
		ClearValidFrom: req.ClearValidFrom,
		ExpiresAt:      req.ExpiresAt,
		ClearExpiresAt: req.ClearExpiresAt,
		IsActive:       req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVoucherNotFound):
			shared.RespondError(c, http.StatusNotFound, "voucher not found", nil)
		case errors.Is(err, service.ErrVoucherInvalid):
			shared.RespondError(c, http.StatusBadRequest, "voucher parameters invalid", nil)
		default:
			shared.RespondError(c, http.StatusInternalServerError, "voucher update failed", err)
		}
		return
	}
	response.Success(c, voucher)
}

// DeleteVoucher removes one voucher.
func (h *Handler) DeleteVoucher(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.VoucherService.Delete(id); err != nil {
		if errors.Is(err, service.ErrVoucherNotFound) {
			shared.RespondError(c, http.StatusNotFound, "voucher not found", nil)
			return
		}
		shared.RespondError(c, http.StatusInternalServerError, "voucher deletion failed", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		shared.RespondError(c, http.StatusBadRequest, "id invalid", nil)
		return 0, false
	}
	return uint(id), true
}
