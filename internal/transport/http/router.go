package http

import (
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(carts service.CartService, orders service.OrderService, admin service.AdminService, log *zap.Logger) *gin.Engine {
	h := &Handler{
		carts:  carts,
		orders: orders,
		admin:  admin,
		log:    log,
	}

	r := gin.New()
	r.Use(gin.Recovery())

	cart := r.Group("/cart")
	{
		cart.GET("", h.GetCart)
		cart.POST("/items", h.AddCartItem)
		cart.PUT("/items/:id", h.UpdateCartItem)
		cart.DELETE("/items/:id", h.RemoveCartItem)
		cart.POST("/merge", h.MergeCart)
	}

	ord := r.Group("/orders")
	{
		ord.POST("", h.CreateOrder)
		ord.GET("", h.ListOrders)
		ord.GET("/:id", h.GetOrder)
		ord.POST("/:id/cancel", h.CancelOrder)
		ord.POST("/:id/payment/verify", h.VerifyPayment)
	}

	adm := r.Group("/admin")
	{
		adm.POST("/orders/:id/refund", h.RefundOrder)
		adm.PATCH("/orders/:id/status", h.UpdateOrderStatus)
		adm.GET("/orders", h.AdminListOrders)
		adm.PATCH("/variants/:id", h.UpdateVariant)
	}

	return r
}
