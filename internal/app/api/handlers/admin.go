package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bottlemart/backend/internal/app/service/order"
	"github.com/bottlemart/backend/internal/app/service/payment"
	"github.com/bottlemart/backend/internal/app/service/statistics"
	"github.com/bottlemart/backend/internal/app/service/supplier"
	"github.com/bottlemart/backend/internal/app/service/user"
	"github.com/bottlemart/backend/pkg/response"
)

// @Summary      Sales Statistics
// @Description  Computes the requested dashboard data items (daily orders, revenue, payment status breakdown, stale pendings).
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body statistics.SalesStatisticRequest true "Statistic request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/statistics [post]
func ApiGetSalesStatistic(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.SalesStatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		res, err := svc.GetSalesStatistic(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// RegisterAdminRoutes mounts the admin console endpoints. The group must
// already carry auth + admin-only middleware.
func RegisterAdminRoutes(r gin.IRouter, userSvc *user.Service, orderSvc *order.Service, paySvc *payment.Service, supSvc *supplier.Service, stats *statistics.Service) {
	r.GET("/users", ApiListUsers(userSvc))
	r.DELETE("/users/:userId", ApiDeleteUser(userSvc))
	r.PUT("/users/:userId/role", ApiUpdateUserRole(userSvc))

	r.GET("/orders", ApiListAllOrders(orderSvc))
	r.PUT("/orders/:orderId/deliver", ApiMarkDelivered(orderSvc))

	r.POST("/payments/scan", ApiScanPayments(paySvc))

	r.GET("/suppliers", ApiListSuppliers(supSvc))
	r.DELETE("/suppliers/:supplierId", ApiDeleteSupplier(supSvc))

	r.POST("/statistics", ApiGetSalesStatistic(stats))
}
