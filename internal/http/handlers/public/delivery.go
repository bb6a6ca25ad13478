package public

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/freshbasket/freshbasket/internal/http/handlers/shared"
	"github.com/freshbasket/freshbasket/internal/http/response"
	"github.com/freshbasket/freshbasket/internal/repository"
	"github.com/freshbasket/freshbasket/internal/service"

	"github.com/gin-gonic/gin"
)

// ListDeliverySlots lists bookable slots, optionally bounded by date.
func (h *Handler) ListDeliverySlots(c *gin.Context) {
	page, _ := parseUintQuery(c, "page")
	pageSize, _ := parseUintQuery(c, "page_size")
	normPage, normSize := shared.NormalizePagination(int(page), int(pageSize))

	filter := repository.SlotListFilter{
		Page:          normPage,
		PageSize:      normSize,
		OnlyAvailable: true,
	}
	if from, ok := parseDateQuery(c, "date_from"); ok {
		filter.DateFrom = &from
	}
	if to, ok := parseDateQuery(c, "date_to"); ok {
		filter.DateTo = &to
	}

	slots, total, err := h.DeliveryService.ListSlots(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "slot listing failed", err)
		return
	}
	response.SuccessWithPage(c, slots, shared.BuildPagination(normPage, normSize, total))
}

// MatchDeliveryZone resolves the zone servicing a postcode.
func (h *Handler) MatchDeliveryZone(c *gin.Context) {
	postcode := strings.TrimSpace(c.Query("postcode"))
	if postcode == "" {
		respondError(c, http.StatusBadRequest, "postcode is required", nil)
		return
	}
	zone, err := h.DeliveryService.MatchZone(postcode)
	if err != nil {
		if errors.Is(err, service.ErrZoneNotServiced) {
			respondError(c, http.StatusNotFound, "postcode not serviced", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "zone lookup failed", err)
		return
	}
	response.Success(c, zone)
}

func parseDateQuery(c *gin.Context, key string) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
