package public

import (
	"net/http"
	"strings"

	"github.com/freshbasket/freshbasket/internal/http/response"
	"github.com/freshbasket/freshbasket/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderItemRequest is one requested line.
type OrderItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// DeliveryAddressRequest is the structured drop-off address.
type DeliveryAddressRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
	Line1 string `json:"line1" binding:"required"`
	Line2 string `json:"line2"`
	City  string `json:"city" binding:"required"`
}

// CreateOrderRequest is the intake payload.
type CreateOrderRequest struct {
	UserID           uint                   `json:"user_id"`
	GuestEmail       string                 `json:"guest_email"`
	Items            []OrderItemRequest     `json:"items" binding:"required"`
	VoucherCode      string                 `json:"voucher_code"`
	DeliverySlotID   uint                   `json:"delivery_slot_id" binding:"required"`
	DeliveryAddress  DeliveryAddressRequest `json:"delivery_address" binding:"required"`
	Postcode         string                 `json:"postcode" binding:"required"`
	VATNumber        string                 `json:"vat_number"`
	PurchaseOrderRef string                 `json:"purchase_order_ref"`
}

// CreateOrder places a new order.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "request body invalid", err)
		return
	}

	items := make([]service.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.OrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	order, err := h.OrderService.CreateOrder(c.Request.Context(), service.CreateOrderInput{
		UserID:         req.UserID,
		GuestEmail:     req.GuestEmail,
		Items:          items,
		VoucherCode:    req.VoucherCode,
		DeliverySlotID: req.DeliverySlotID,
		DeliveryAddress: service.DeliveryAddressInput{
			Name:  req.DeliveryAddress.Name,
			Phone: req.DeliveryAddress.Phone,
			Line1: req.DeliveryAddress.Line1,
			Line2: req.DeliveryAddress.Line2,
			City:  req.DeliveryAddress.City,
		},
		Postcode:         req.Postcode,
		VATNumber:        req.VATNumber,
		PurchaseOrderRef: req.PurchaseOrderRef,
		ClientIP:         c.ClientIP(),
	})
	if err != nil {
		respondWithMappedError(c, err, orderIntakeErrorRules, http.StatusInternalServerError, "order creation failed")
		return
	}

	response.Created(c, gin.H{
		"order": order,
		"payment_authorization": gin.H{
			"payment_ref": order.PaymentRef,
			"status":      "authorized",
		},
	})
}

// GetOrder returns one order scoped to its owner: registered orders need
// the matching user_id, guest orders the matching email.
func (h *Handler) GetOrder(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("order_no"))
	email := strings.TrimSpace(c.Query("email"))
	userID, hasUserID := parseUintQuery(c, "user_id")
	if !hasUserID && email == "" {
		respondError(c, http.StatusBadRequest, "user_id or email is required", nil)
		return
	}

	var (
		order interface{}
		err   error
	)
	if hasUserID && userID != 0 {
		order, err = h.OrderService.GetOrderForUser(orderNo, userID)
	} else {
		order, err = h.OrderService.GetOrderForGuest(orderNo, email)
	}
	if err != nil {
		respondWithMappedError(c, err, orderLookupErrorRules, http.StatusInternalServerError, "order lookup failed")
		return
	}
	response.Success(c, order)
}
