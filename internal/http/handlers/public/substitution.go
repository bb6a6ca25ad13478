package public

import (
	"net/http"
	"strings"

	"github.com/freshbasket/freshbasket/internal/constants"
	"github.com/freshbasket/freshbasket/internal/http/response"
	"github.com/freshbasket/freshbasket/internal/service"

	"github.com/gin-gonic/gin"
)

// SubstitutionRespondRequest carries the customer decision as the target
// line status: ACCEPTED keeps the replacement, REFUNDED refuses it.
type SubstitutionRespondRequest struct {
	Status     string `json:"status" binding:"required"`
	UserID     uint   `json:"user_id"`
	GuestEmail string `json:"guest_email"`
}

// substitutionDecision maps the requested line status onto the internal
// decision verbs.
func substitutionDecision(status string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case constants.SubstitutionStatusAccepted:
		return service.SubstituteDecisionAccept, true
	case constants.SubstitutionStatusRefunded:
		return service.SubstituteDecisionRefuse, true
	}
	return "", false
}

// RespondSubstitution records an accept or refuse decision on a pending
// substitution and returns the repriced order.
func (h *Handler) RespondSubstitution(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("order_no"))
	itemID, ok := parseUintParam(c, "item_id")
	if !ok {
		respondError(c, http.StatusBadRequest, "item_id invalid", nil)
		return
	}

	var req SubstitutionRespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "request body invalid", err)
		return
	}

	decision, ok := substitutionDecision(req.Status)
	if !ok {
		respondError(c, http.StatusBadRequest, "status must be ACCEPTED or REFUNDED", nil)
		return
	}

	order, err := h.OrderService.RespondSubstitution(
		c.Request.Context(),
		orderNo,
		itemID,
		decision,
		req.UserID,
		req.GuestEmail,
	)
	if err != nil {
		respondWithMappedError(c, err, substitutionErrorRules, http.StatusInternalServerError, "substitution response failed")
		return
	}
	response.Success(c, order)
}
