package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/bottlemart/backend/internal/app/api/middleware"
	"github.com/bottlemart/backend/internal/app/service/product"
	"github.com/bottlemart/backend/pkg/response"
)

type createProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Stock       int     `json:"stock" binding:"gte=0"`
	SupplierID  *string `json:"supplier_id"`
}

// @Summary      Create Product
// @Tags         Product
// @Accept       json
// @Produce      json
// @Param        request body handlers.createProductRequest true "Create product request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/products [post]
func ApiCreateProduct(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		principal, _ := mw.GetPrincipal(c)
		p, err := svc.Create(c.Request.Context(), product.CreateProductInput{
			Name:        req.Name,
			Description: req.Description,
			Image:       req.Image,
			Price:       req.Price,
			Stock:       req.Stock,
			SupplierID:  req.SupplierID,
		}, principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(p))
	}
}

// @Summary      List Products
// @Tags         Product
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/products [get]
func ApiListProducts(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(items))
	}
}

// @Summary      Get Product
// @Tags         Product
// @Produce      json
// @Param        productId path string true "Product ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/products/{productId} [get]
func ApiGetProduct(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), c.Param("productId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(p))
	}
}

type updateProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Image       *string  `json:"image"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
}

// @Summary      Update Product
// @Tags         Product
// @Accept       json
// @Produce      json
// @Param        productId path string true "Product ID"
// @Param        request body handlers.updateProductRequest true "Update product request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/products/{productId} [put]
func ApiUpdateProduct(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		principal, _ := mw.GetPrincipal(c)
		p, err := svc.Update(c.Request.Context(), c.Param("productId"), product.UpdateProductInput{
			Name:        req.Name,
			Description: req.Description,
			Image:       req.Image,
			Price:       req.Price,
			Stock:       req.Stock,
		}, principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(p))
	}
}

// @Summary      Delete Product
// @Tags         Admin
// @Produce      json
// @Param        productId path string true "Product ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/products/{productId} [delete]
func ApiDeleteProduct(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := mw.GetPrincipal(c)
		if err := svc.Delete(c.Request.Context(), c.Param("productId"), principal); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(gin.H{"deleted": true}))
	}
}

func RegisterProductRoutes(public, authed gin.IRouter, svc *product.Service) {
	public.GET("/products", ApiListProducts(svc))
	public.GET("/products/:productId", ApiGetProduct(svc))
	authed.POST("/products", ApiCreateProduct(svc))
	authed.PUT("/products/:productId", ApiUpdateProduct(svc))
	authed.DELETE("/products/:productId", ApiDeleteProduct(svc))
}
