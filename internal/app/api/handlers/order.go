package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/bottlemart/backend/internal/app/api/middleware"
	"github.com/bottlemart/backend/internal/app/service/order"
	"github.com/bottlemart/backend/internal/models"
	"github.com/bottlemart/backend/pkg/response"
	"github.com/bottlemart/backend/pkg/types"
)

type createOrderRequest struct {
	Items           []order.ItemInput       `json:"items" binding:"required,min=1,dive"`
	ShippingAddress *models.ShippingAddress `json:"shipping_address"`
	PaymentMethod   types.PaymentMethod     `json:"payment_method"`
	Currency        string                  `json:"currency"`
}

// @Summary      Create Order
// @Description  Reserves stock and creates an order with immutable totals.
// @Tags         Order
// @Accept       json
// @Produce      json
// @Param        request body handlers.createOrderRequest true "Create order request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/orders [post]
func ApiCreateOrder(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		principal, _ := mw.GetPrincipal(c)

		o, err := svc.CreateOrder(c.Request.Context(), order.CreateOrderInput{
			Items:           req.Items,
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   req.PaymentMethod,
			Currency:        req.Currency,
			Requester:       principal,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(o))
	}
}

// @Summary      Get Order
// @Tags         Order
// @Produce      json
// @Param        orderId path string true "Order ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/orders/{orderId} [get]
func ApiGetOrder(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := mw.GetPrincipal(c)
		o, err := svc.GetOrder(c.Request.Context(), c.Param("orderId"), principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(o))
	}
}

// @Summary      List My Orders
// @Description  Returns the caller's orders. Orders whose payment state is inconsistent are hidden pending reconciliation.
// @Tags         Order
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/orders [get]
func ApiListMyOrders(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := mw.GetPrincipal(c)
		orders, err := svc.ListUserOrders(c.Request.Context(), principal.UserID, principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(orders))
	}
}

// @Summary      List All Orders
// @Description  Returns every order annotated with its order/payment consistency check.
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/orders [get]
func ApiListAllOrders(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := mw.GetPrincipal(c)
		annotated, err := svc.ListAllOrders(c.Request.Context(), principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(annotated))
	}
}

// @Summary      Mark Order Delivered
// @Tags         Admin
// @Produce      json
// @Param        orderId path string true "Order ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/orders/{orderId}/deliver [put]
func ApiMarkDelivered(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := mw.GetPrincipal(c)
		o, err := svc.MarkDelivered(c.Request.Context(), c.Param("orderId"), principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(o))
	}
}

// @Summary      Cancel Order
// @Description  Cancels an unpaid order and restocks its items.
// @Tags         Order
// @Produce      json
// @Param        orderId path string true "Order ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/orders/{orderId}/cancel [put]
func ApiCancelOrder(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := mw.GetPrincipal(c)
		o, err := svc.CancelOrder(c.Request.Context(), c.Param("orderId"), principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(o))
	}
}

func RegisterOrderRoutes(r gin.IRouter, svc *order.Service) {
	r.POST("/orders", ApiCreateOrder(svc))
	r.GET("/orders", ApiListMyOrders(svc))
	r.GET("/orders/:orderId", ApiGetOrder(svc))
	r.PUT("/orders/:orderId/cancel", ApiCancelOrder(svc))
}
