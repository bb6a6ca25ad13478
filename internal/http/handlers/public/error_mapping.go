package public

import (
	"errors"
	"net/http"

	"github.com/freshbasket/freshbasket/internal/http/handlers/shared"
	"github.com/freshbasket/freshbasket/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError binds one service error to its HTTP response.
type mappedHandlerError struct {
	target error
	status int
	msg    string
}

func respondError(c *gin.Context, status int, msg string, err error) {
	shared.RespondError(c, status, msg, err)
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackStatus int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.status, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackStatus, fallbackMsg, err)
}

var orderIntakeErrorRules = []mappedHandlerError{
	{target: service.ErrIdentityRequired, status: http.StatusBadRequest, msg: "exactly one of user_id and guest_email is required"},
	{target: service.ErrUserNotFound, status: http.StatusBadRequest, msg: "customer account not found"},
	{target: service.ErrAddressIncomplete, status: http.StatusBadRequest, msg: "delivery address incomplete"},
	{target: service.ErrInvalidOrderItem, status: http.StatusBadRequest, msg: "order items invalid"},
	{target: service.ErrTooManyItems, status: http.StatusBadRequest, msg: "too many order items"},
	{target: service.ErrProductUnavailable, status: http.StatusBadRequest, msg: "product unavailable"},
	{target: service.ErrZoneNotServiced, status: http.StatusBadRequest, msg: "postcode not serviced"},
	{target: service.ErrBelowMinimumOrder, status: http.StatusBadRequest, msg: "order below zone minimum"},
	{target: service.ErrSlotNotFound, status: http.StatusNotFound, msg: "delivery slot not found"},
	{target: service.ErrSlotUnavailable, status: http.StatusConflict, msg: "delivery slot full"},
	{target: service.ErrVoucherInvalid, status: http.StatusBadRequest, msg: "voucher invalid"},
	{target: service.ErrVoucherNotFound, status: http.StatusBadRequest, msg: "voucher not found"},
	{target: service.ErrVoucherInactive, status: http.StatusBadRequest, msg: "voucher inactive"},
	{target: service.ErrVoucherNotYetValid, status: http.StatusBadRequest, msg: "voucher not yet valid"},
	{target: service.ErrVoucherExpired, status: http.StatusBadRequest, msg: "voucher expired"},
	{target: service.ErrVoucherMinOrder, status: http.StatusBadRequest, msg: "order below voucher minimum"},
	{target: service.ErrVoucherUsageLimit, status: http.StatusConflict, msg: "voucher usage limit reached"},
	{target: service.ErrVoucherAlreadyUsed, status: http.StatusConflict, msg: "voucher already used"},
	{target: service.ErrPaymentDeclined, status: http.StatusPaymentRequired, msg: "payment declined"},
	{target: service.ErrPaymentFailed, status: http.StatusBadGateway, msg: "payment gateway unavailable"},
}

var orderLookupErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, status: http.StatusNotFound, msg: "order not found"},
}

var substitutionErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, status: http.StatusNotFound, msg: "order not found"},
	{target: service.ErrOrderItemNotFound, status: http.StatusNotFound, msg: "order item not found"},
	{target: service.ErrInvalidOrderItem, status: http.StatusBadRequest, msg: "status must be ACCEPTED or REFUNDED"},
	{target: service.ErrSubstitutionNotPending, status: http.StatusConflict, msg: "no pending substitution on this item"},
	{target: service.ErrPaymentNotCompleted, status: http.StatusConflict, msg: "order payment not completed"},
	{target: service.ErrRefundManualProcessing, status: http.StatusBadGateway, msg: "refund queued for manual processing"},
}
