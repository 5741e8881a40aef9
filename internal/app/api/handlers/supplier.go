package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/bottlemart/backend/internal/app/api/middleware"
	"github.com/bottlemart/backend/internal/app/service/supplier"
	"github.com/bottlemart/backend/pkg/response"
)

type registerSupplierRequest struct {
	Name        string  `json:"name" binding:"required"`
	BottleNo    int     `json:"bottle_no" binding:"required,gt=0"`
	ContactNo   string  `json:"contact_no" binding:"required"`
	BottlePrice float64 `json:"bottle_price"`
}

// @Summary      Register Supplier
// @Description  Creates a supplier profile for the caller and promotes the account to the supplier role.
// @Tags         Supplier
// @Accept       json
// @Produce      json
// @Param        request body handlers.registerSupplierRequest true "Supplier registration request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/suppliers [post]
func ApiRegisterSupplier(svc *supplier.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerSupplierRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		principal, _ := mw.GetPrincipal(c)
		sup, err := svc.Register(c.Request.Context(), supplier.RegisterInput{
			Name:        req.Name,
			BottleNo:    req.BottleNo,
			ContactNo:   req.ContactNo,
			BottlePrice: req.BottlePrice,
		}, principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(sup))
	}
}

// @Summary      Get Supplier
// @Tags         Supplier
// @Produce      json
// @Param        supplierId path string true "Supplier ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/suppliers/{supplierId} [get]
func ApiGetSupplier(svc *supplier.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := mw.GetPrincipal(c)
		sup, err := svc.Get(c.Request.Context(), c.Param("supplierId"), principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(sup))
	}
}

// @Summary      List Suppliers
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/suppliers [get]
func ApiListSuppliers(svc *supplier.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := mw.GetPrincipal(c)
		items, err := svc.List(c.Request.Context(), principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(items))
	}
}

type updateSupplierRequest struct {
	Name        *string  `json:"name"`
	BottleNo    *int     `json:"bottle_no"`
	ContactNo   *string  `json:"contact_no"`
	BottlePrice *float64 `json:"bottle_price"`
}

// @Summary      Update Supplier
// @Tags         Supplier
// @Accept       json
// @Produce      json
// @Param        supplierId path string true "Supplier ID"
// @Param        request body handlers.updateSupplierRequest true "Update supplier request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/suppliers/{supplierId} [put]
func ApiUpdateSupplier(svc *supplier.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateSupplierRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		principal, _ := mw.GetPrincipal(c)
		sup, err := svc.Update(c.Request.Context(), c.Param("supplierId"), supplier.UpdateInput{
			Name:        req.Name,
			BottleNo:    req.BottleNo,
			ContactNo:   req.ContactNo,
			BottlePrice: req.BottlePrice,
		}, principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(sup))
	}
}

// @Summary      Delete Supplier
// @Tags         Admin
// @Produce      json
// @Param        supplierId path string true "Supplier ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/suppliers/{supplierId} [delete]
func ApiDeleteSupplier(svc *supplier.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := mw.GetPrincipal(c)
		if err := svc.Delete(c.Request.Context(), c.Param("supplierId"), principal); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(gin.H{"deleted": true}))
	}
}

func RegisterSupplierRoutes(r gin.IRouter, svc *supplier.Service) {
	r.POST("/suppliers", ApiRegisterSupplier(svc))
	r.GET("/suppliers/:supplierId", ApiGetSupplier(svc))
	r.PUT("/suppliers/:supplierId", ApiUpdateSupplier(svc))
}
