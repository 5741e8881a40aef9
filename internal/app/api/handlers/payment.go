package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/bottlemart/backend/internal/app/api/middleware"
	"github.com/bottlemart/backend/internal/app/service/payment"
	"github.com/bottlemart/backend/pkg/response"
	"github.com/bottlemart/backend/pkg/types"
)

type createIntentRequest struct {
	OrderID  string  `json:"order_id" binding:"required"`
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	Currency string  `json:"currency"`
}

// @Summary      Create Payment Intent
// @Description  Creates a gateway payment intent for an order and records a pending payment attempt.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        request body handlers.createIntentRequest true "Create intent request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/payments/stripe/create-intent [post]
func ApiCreateIntent(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createIntentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		principal, _ := mw.GetPrincipal(c)

		res, err := svc.CreateIntent(c.Request.Context(), payment.CreateIntentInput{
			OrderID:   req.OrderID,
			Amount:    req.Amount,
			Currency:  req.Currency,
			Requester: principal,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

type confirmIntentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
	OrderID         string `json:"order_id" binding:"required"`
}

// @Summary      Confirm Payment Intent
// @Description  Retrieves the intent's current state from the gateway and applies the resulting status transition.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        request body handlers.confirmIntentRequest true "Confirm intent request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/payments/stripe/confirm [post]
func ApiConfirmIntent(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req confirmIntentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		principal, _ := mw.GetPrincipal(c)

		res, err := svc.ConfirmIntent(c.Request.Context(), payment.ConfirmIntentInput{
			PaymentIntentID: req.PaymentIntentID,
			OrderID:         req.OrderID,
			Requester:       principal,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(gin.H{
			"payment":        res.Payment,
			"order":          res.Order,
			"payment_status": res.Payment.Status,
		}))
	}
}

type confirmCashRequest struct {
	OrderID string  `json:"order_id" binding:"required"`
	Amount  float64 `json:"amount" binding:"required,gt=0"`
}

// @Summary      Record Cash Payment
// @Description  Records a cash payment attempt and confirms the order for fulfillment; the payment stays pending until collected.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        request body handlers.confirmCashRequest true "Cash payment request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/payments/cash [post]
func ApiConfirmCash(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req confirmCashRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		principal, _ := mw.GetPrincipal(c)

		res, err := svc.ConfirmCash(c.Request.Context(), payment.ConfirmCashInput{
			OrderID:   req.OrderID,
			Amount:    req.Amount,
			Requester: principal,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get Order Payment
// @Description  Returns the current payment attempt for an order. Owner or admin only.
// @Tags         Payment
// @Produce      json
// @Param        orderId path string true "Order ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/payments/order/{orderId} [get]
func ApiGetOrderPayment(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := mw.GetPrincipal(c)
		p, err := svc.GetOrderPayment(c.Request.Context(), c.Param("orderId"), principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(p))
	}
}

// @Summary      List User Payments
// @Description  Returns all payment attempts made by a user. Owner or admin only.
// @Tags         Payment
// @Produce      json
// @Param        userId path string true "User ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/payments/user/{userId} [get]
func ApiGetUserPayments(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := mw.GetPrincipal(c)
		items, err := svc.GetUserPayments(c.Request.Context(), c.Param("userId"), principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(items))
	}
}

type updatePaymentStatusRequest struct {
	Status types.PaymentStatus `json:"status" binding:"required"`
}

// @Summary      Update Payment Status
// @Description  Administrative status override for manual reconciliation (cash collection, refunds). Rank-gated like every transition.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        paymentId path string true "Payment ID"
// @Param        request body handlers.updatePaymentStatusRequest true "New status"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/payments/{paymentId}/status [put]
func ApiUpdatePaymentStatus(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updatePaymentStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		principal, _ := mw.GetPrincipal(c)

		res, err := svc.UpdateStatus(c.Request.Context(), c.Param("paymentId"), req.Status, principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Scan Payments
// @Description  Paginated, filterable payment listing for the admin console.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body payment.ScanPaymentsRequest true "Scan request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/payments/scan [post]
func ApiScanPayments(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payment.ScanPaymentsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		res, err := svc.ScanPayments(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterPaymentRoutes(r gin.IRouter, svc *payment.Service) {
	r.POST("/payments/stripe/create-intent", ApiCreateIntent(svc))
	r.POST("/payments/stripe/confirm", ApiConfirmIntent(svc))
	r.POST("/payments/cash", ApiConfirmCash(svc))
	r.GET("/payments/order/:orderId", ApiGetOrderPayment(svc))
	r.GET("/payments/user/:userId", ApiGetUserPayments(svc))
	r.PUT("/payments/:paymentId/status", ApiUpdatePaymentStatus(svc))
}
