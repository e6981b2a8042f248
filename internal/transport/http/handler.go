package http

import (
	"errors"
	"net/http"

	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler adapts the services to the storefront's JSON API. Authentication
// happens upstream; the gateway passes the resolved identity in the
// X-User-ID / X-Session-ID headers.
type Handler struct {
	carts  service.CartService
	orders service.OrderService
	admin  service.AdminService
	log    *zap.Logger
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// fail maps business errors to 4xx with a machine-readable code so the UI
// can render the right message; anything unexpected is an opaque 500.
func (h *Handler) fail(c *gin.Context, err error) {
	var (
		status int
		code   string
	)
	switch {
	case errors.Is(err, service.ErrQuantityInvalid),
		errors.Is(err, service.ErrCartIdentityRequired),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrBlockedProduct),
		errors.Is(err, service.ErrInvalidRefundAmount),
		errors.Is(err, service.ErrDiscountExceedsPrice):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrCartItemNotFound),
		errors.Is(err, service.ErrVariantNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrOrderNotPending),
		errors.Is(err, service.ErrOrderNotPaid),
		errors.Is(err, service.ErrIllegalTransition):
		status = http.StatusConflict
	default:
		h.log.Error("internal error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorBody{Code: "INTERNAL", Message: "internal error"})
		return
	}

	switch {
	case errors.Is(err, service.ErrEmptyCart):
		code = "EMPTY_CART"
	case errors.Is(err, service.ErrBlockedProduct):
		code = "BLOCKED_PRODUCT"
	case errors.Is(err, service.ErrInsufficientStock):
		code = "INSUFFICIENT_STOCK"
	case errors.Is(err, service.ErrInvalidRefundAmount):
		code = "INVALID_REFUND_AMOUNT"
	case errors.Is(err, service.ErrOrderNotFound):
		code = "ORDER_NOT_FOUND"
	case errors.Is(err, service.ErrOrderNotPending):
		code = "ORDER_NOT_PENDING"
	case errors.Is(err, service.ErrOrderNotPaid):
		code = "ORDER_NOT_PAID"
	case errors.Is(err, service.ErrIllegalTransition):
		code = "ILLEGAL_STATUS_TRANSITION"
	case errors.Is(err, service.ErrForbidden):
		code = "FORBIDDEN"
	case errors.Is(err, service.ErrCartItemNotFound):
		code = "CART_ITEM_NOT_FOUND"
	case errors.Is(err, service.ErrVariantNotFound), errors.Is(err, service.ErrProductNotFound):
		code = "PRODUCT_NOT_FOUND"
	case errors.Is(err, service.ErrDiscountExceedsPrice):
		code = "DISCOUNT_EXCEEDS_PRICE"
	default:
		code = "BAD_REQUEST"
	}

	c.JSON(status, errorBody{Code: code, Message: err.Error()})
}

func (h *Handler) identity(c *gin.Context) (service.CartIdentity, bool) {
	var id service.CartIdentity
	if raw := c.GetHeader("X-User-ID"); raw != "" {
		uid, err := uuid.Parse(raw)
		if err != nil {
			h.fail(c, service.ErrCartIdentityRequired)
			return id, false
		}
		id.UserID = &uid
		return id, true
	}
	if sid := c.GetHeader("X-Session-ID"); sid != "" {
		id.SessionID = &sid
		return id, true
	}
	h.fail(c, service.ErrCartIdentityRequired)
	return id, false
}

func (h *Handler) userID(c *gin.Context) (uuid.UUID, bool) {
	uid, err := uuid.Parse(c.GetHeader("X-User-ID"))
	if err != nil {
		h.fail(c, service.ErrCartIdentityRequired)
		return uuid.Nil, false
	}
	return uid, true
}

func (h *Handler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Code: "BAD_REQUEST", Message: "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) GetCart(c *gin.Context) {
	id, ok := h.identity(c)
	if !ok {
		return
	}
	cart, err := h.carts.GetCart(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

type addItemReq struct {
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int64     `json:"quantity" binding:"required"`
}

func (h *Handler) AddCartItem(c *gin.Context) {
	id, ok := h.identity(c)
	if !ok {
		return
	}
	var req addItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Code: "BAD_REQUEST", Message: err.Error()})
		return
	}
	item, err := h.carts.AddItem(c.Request.Context(), id, req.VariantID, req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

type updateQuantityReq struct {
	Quantity int64 `json:"quantity"`
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	id, ok := h.identity(c)
	if !ok {
		return
	}
	itemID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req updateQuantityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Code: "BAD_REQUEST", Message: err.Error()})
		return
	}
	item, err := h.carts.UpdateQuantity(c.Request.Context(), id, itemID, req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	if item == nil {
		c.JSON(http.StatusOK, gin.H{"removed": true})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	id, ok := h.identity(c)
	if !ok {
		return
	}
	itemID, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.carts.RemoveItem(c.Request.Context(), id, itemID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// MergeCart stands in for the auth callback. A failed merge is logged and
// still answered with success: a stale guest cart must never block a login.
func (h *Handler) MergeCart(c *gin.Context) {
	uid, ok := h.userID(c)
	if !ok {
		return
	}
	sid := c.GetHeader("X-Session-ID")
	if sid == "" {
		c.JSON(http.StatusOK, gin.H{"merged": false})
		return
	}
	if err := h.carts.MergeGuestCart(c.Request.Context(), sid, uid); err != nil {
		h.log.Error("guest cart merge failed",
			zap.String("session_id", sid),
			zap.String("user_id", uid.String()),
			zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"merged": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"merged": true})
}

type createOrderReq struct {
	AddressID   uuid.UUID `json:"address_id" binding:"required"`
	ShippingFee int64     `json:"shipping_fee"`
}

func (h *Handler) CreateOrder(c *gin.Context) {
	uid, ok := h.userID(c)
	if !ok {
		return
	}
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Code: "BAD_REQUEST", Message: err.Error()})
		return
	}
	ord, err := h.orders.CreateOrder(c.Request.Context(), uid, req.AddressID, req.ShippingFee)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, ord)
}

func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := h.userID(c)
	if !ok {
		return
	}
	f := service.ListFilter{UserID: &uid}
	orders, total, err := h.orders.ListOrders(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": total})
}

func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := h.userID(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c)
	if !ok {
		return
	}
	ord, err := h.orders.GetOrder(c.Request.Context(), orderID, uid)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ord)
}

func (h *Handler) CancelOrder(c *gin.Context) {
	uid, ok := h.userID(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c)
	if !ok {
		return
	}
	if _, err := h.orders.CancelOrder(c.Request.Context(), orderID, uid); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type verifyPaymentReq struct {
	RefID string `json:"ref_id" binding:"required"`
}

func (h *Handler) VerifyPayment(c *gin.Context) {
	orderID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req verifyPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Code: "BAD_REQUEST", Message: err.Error()})
		return
	}
	ord, err := h.orders.VerifyPayment(c.Request.Context(), orderID, req.RefID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ord)
}

type refundReq struct {
	Amount  int64  `json:"amount" binding:"required"`
	Reason  string `json:"reason"`
	Restock bool   `json:"restock"`
}

func (h *Handler) RefundOrder(c *gin.Context) {
	orderID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req refundReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Code: "BAD_REQUEST", Message: err.Error()})
		return
	}
	res, err := h.admin.RefundOrder(c.Request.Context(), orderID, req.Amount, req.Reason, req.Restock)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"refunded_amount": res.RefundedAmount,
		"refund_status":   res.RefundStatus,
		"is_full_refund":  res.IsFullRefund,
	})
}

type updateStatusReq struct {
	Status    models.OrderStatus `json:"status" binding:"required"`
	AdminNote *string            `json:"admin_note"`
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Code: "BAD_REQUEST", Message: err.Error()})
		return
	}
	ord, err := h.admin.UpdateOrderStatus(c.Request.Context(), orderID, req.Status, req.AdminNote)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ord)
}

func (h *Handler) AdminListOrders(c *gin.Context) {
	var f service.ListFilter
	if raw := c.Query("status"); raw != "" {
		st := models.OrderStatus(raw)
		f.Status = &st
	}
	orders, total, err := h.orders.ListOrders(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": total})
}

type updateVariantReq struct {
	Name          *string `json:"name"`
	Price         *int64  `json:"price"`
	DiscountPrice *int64  `json:"discount_price"`
	Stock         *int64  `json:"stock"`
}

func (h *Handler) UpdateVariant(c *gin.Context) {
	variantID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req updateVariantReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Code: "BAD_REQUEST", Message: err.Error()})
		return
	}
	v, err := h.admin.UpdateVariant(c.Request.Context(), variantID, service.VariantPatch{
		Name:          req.Name,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		Stock:         req.Stock,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
