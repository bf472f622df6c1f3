package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/MikeMC777/ordenes-ecom/internal/httpx"
	"github.com/MikeMC777/ordenes-ecom/internal/metrics"
	"github.com/MikeMC777/ordenes-ecom/internal/order"
	"github.com/MikeMC777/ordenes-ecom/internal/payment"
)

type orderService interface {
	InitiateCheckout(ctx context.Context, cartID string, addr payment.Address) (*order.CheckoutResult, error)
	CreatePendingOrder(ctx context.Context, cartID string, addr payment.Address) (*order.CheckoutResult, error)
	ConfirmPayment(ctx context.Context, gatewayOrderID, eventType string) (*order.ConfirmResult, error)
	GetOrder(ctx context.Context, userID string) (*order.Order, error)
	ListOrders(ctx context.Context, limit, offset int) ([]order.Order, error)
}

func newRouter(svc orderService, log *zap.Logger, m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(log), httpx.Logger(log), m.Middleware(), httpx.Identity())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(m.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	orders := r.Group("/orders")
	orders.POST("/webhook", webhookHandler(svc, log))
	orders.POST("/checkOut/:cartId", httpx.RequireRole(), checkoutHandler(svc, log))
	orders.POST("/:cartId", httpx.RequireRole(), createOrderHandler(svc, log))
	orders.GET("/mine", httpx.RequireRole(), getMyOrderHandler(svc, log))
	orders.GET("", httpx.RequireRole(httpx.RoleAdmin), listOrdersHandler(svc, log))
	return r
}

// @Summary      Create checkout session
// @Description  Opens a payment session for the cart and records a pending order.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        cartId  path      string                 true  "cart id"
// @Param        body    body      order.CheckoutRequest  true  "shipping address"
// @Success      200     {object}  order.CheckoutResponse
// @Failure      400     {object}  order.MessageResponse
// @Failure      404     {object}  order.MessageResponse
// @Failure      502     {object}  order.MessageResponse
// @Router       /orders/checkOut/{cartId} [post]
func checkoutHandler(svc orderService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in order.CheckoutRequest
		if err := httpx.BindJSON(c, &in); err != nil {
			httpx.Fail(c, log, err)
			return
		}
		res, err := svc.InitiateCheckout(c.Request.Context(), c.Param("cartId"), in.ShippingAddress)
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, order.CheckoutResponse{
			Message:     "Checkout session created",
			RedirectURL: res.Session.RedirectURL,
		})
	}
}

// @Summary      Create order
// @Description  Opens a payment session for the cart and returns the pending order.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        cartId  path      string                 true  "cart id"
// @Param        body    body      order.CheckoutRequest  true  "shipping address"
// @Success      201     {object}  order.CreateOrderResponse
// @Failure      400     {object}  order.MessageResponse
// @Failure      404     {object}  order.MessageResponse
// @Failure      502     {object}  order.MessageResponse
// @Router       /orders/{cartId} [post]
func createOrderHandler(svc orderService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in order.CheckoutRequest
		if err := httpx.BindJSON(c, &in); err != nil {
			httpx.Fail(c, log, err)
			return
		}
		res, err := svc.CreatePendingOrder(c.Request.Context(), c.Param("cartId"), in.ShippingAddress)
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, order.CreateOrderResponse{
			Message:      "Order created successfully with Klarna",
			Order:        res.Order,
			GatewayOrder: res.Session,
		})
	}
}

// @Summary      Payment webhook
// @Description  Payment provider notification. Only checkout_order_completion changes state.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        body  body      order.WebhookRequest  true  "notification"
// @Success      200   {object}  order.MessageResponse
// @Failure      400   {object}  order.MessageResponse
// @Failure      404   {object}  order.MessageResponse
// @Router       /orders/webhook [post]
func webhookHandler(svc orderService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in order.WebhookRequest
		if err := httpx.BindJSON(c, &in); err != nil {
			httpx.Fail(c, log, err)
			return
		}
		res, err := svc.ConfirmPayment(c.Request.Context(), in.OrderID, in.EventType)
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		msg := "Order confirmed and updated as paid"
		if res.AlreadyPaid {
			msg = "Order already paid"
		}
		c.JSON(http.StatusOK, order.MessageResponse{Message: msg})
	}
}

// @Summary      Latest order of the caller
// @Tags         orders
// @Produce      json
// @Success      200  {object}  order.OrderResponse
// @Failure      404  {object}  order.MessageResponse
// @Router       /orders/mine [get]
func getMyOrderHandler(svc orderService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := httpx.CurrentPrincipal(c)
		o, err := svc.GetOrder(c.Request.Context(), p.UserID)
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, order.OrderResponse{Message: "success", Order: o})
	}
}

// @Summary      List orders
// @Description  All orders, newest first. Admin only.
// @Tags         orders
// @Produce      json
// @Param        limit   query     int  false  "page size"
// @Param        offset  query     int  false  "offset"
// @Success      200     {object}  order.OrdersResponse
// @Failure      401     {object}  order.MessageResponse
// @Failure      403     {object}  order.MessageResponse
// @Router       /orders [get]
func listOrdersHandler(svc orderService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset, err := httpx.Page(c)
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		orders, err := svc.ListOrders(c.Request.Context(), limit, offset)
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, order.OrdersResponse{Message: "success", Orders: orders})
	}
}
