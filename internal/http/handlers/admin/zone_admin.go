package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/freshbasket/freshbasket/internal/http/handlers/shared"
	"github.com/freshbasket/freshbasket/internal/http/response"
	"github.com/freshbasket/freshbasket/internal/models"
	"github.com/freshbasket/freshbasket/internal/repository"
	"github.com/freshbasket/freshbasket/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateZoneRequest is the delivery zone creation payload.
type CreateZoneRequest struct {
	Name              string       `json:"name" binding:"required"`
	PostcodePrefixes  []string     `json:"postcode_prefixes" binding:"required"`
	DeliveryFee       models.Money `json:"delivery_fee"`
	MinimumOrderValue models.Money `json:"minimum_order_value"`
	IsActive          *bool        `json:"is_active"`
}

// CreateZone stores a new delivery zone.
func (h *Handler) CreateZone(c *gin.Context) {
	var req CreateZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, http.StatusBadRequest, "request body invalid", err)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	zone, err := h.DeliveryService.CreateZone(service.ZoneCreateInput{
		Name:              req.Name,
		PostcodePrefixes:  req.PostcodePrefixes,
		DeliveryFee:       req.DeliveryFee,
		MinimumOrderValue: req.MinimumOrderValue,
		IsActive:          isActive,
	})
	if err != nil {
		if errors.Is(err, service.ErrZoneNotFound) {
			shared.RespondError(c, http.StatusBadRequest, "zone parameters invalid", nil)
			return
		}
		shared.RespondError(c, http.StatusInternalServerError, "zone creation failed", err)
		return
	}
	response.Created(c, zone)
}

// ListZones pages delivery zones.
func (h *Handler) ListZones(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	filter := repository.ZoneListFilter{
		Page:       page,
		PageSize:   pageSize,
		OnlyActive: c.Query("is_active") == "true",
	}

	zones, total, err := h.DeliveryService.ListZones(filter)
	if err != nil {
		shared.RespondError(c, http.StatusInternalServerError, "zone listing failed", err)
		return
	}
	response.SuccessWithPage(c, zones, shared.BuildPagination(page, pageSize, total))
}

// GetZone returns one delivery zone.
func (h *Handler) GetZone(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	zone, err := h.DeliveryService.GetZone(id)
	if err != nil {
		if errors.Is(err, service.ErrZoneNotFound) {
			shared.RespondError(c, http.StatusNotFound, "zone not found", nil)
			return
		}
		shared.RespondError(c, http.StatusInternalServerError, "zone lookup failed", err)
		return
	}
	response.Success(c, zone)
}

// UpdateZoneRequest edits a zone. Nil fields stay unchanged.
type UpdateZoneRequest struct {
	Name              *string       `json:"name"`
	PostcodePrefixes  []string      `json:"postcode_prefixes"`
	DeliveryFee       *models.Money `json:"delivery_fee"`
	MinimumOrderValue *models.Money `json:"minimum_order_value"`
	IsActive          *bool         `json:"is_active"`
}

// UpdateZone edits one delivery zone.
func (h *Handler) UpdateZone(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, http.StatusBadRequest, "request body invalid", err)
		return
	}

	zone, err := h.DeliveryService.UpdateZone(id, service.ZoneUpdateInput{
		Name:              req.Name,
		PostcodePrefixes:  req.PostcodePrefixes,
		DeliveryFee:       req.DeliveryFee,
		MinimumOrderValue: req.MinimumOrderValue,
		IsActive:          req.IsActive,
	})
	if err != nil {
		if errors.Is(err, service.ErrZoneNotFound) {
			shared.RespondError(c, http.StatusNotFound, "zone not found", nil)
			return
		}
		shared.RespondError(c, http.StatusInternalServerError, "zone update failed", err)
		return
	}
	response.Success(c, zone)
}

// DeleteZone removes one delivery zone.
func (h *Handler) DeleteZone(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.DeliveryService.DeleteZone(id); err != nil {
		if errors.Is(err, service.ErrZoneNotFound) {
			shared.RespondError(c, http.StatusNotFound, "zone not found", nil)
			return
		}
		shared.RespondError(c, http.StatusInternalServerError, "zone deletion failed", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
