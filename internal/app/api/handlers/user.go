package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/bottlemart/backend/internal/app/api/middleware"
	"github.com/bottlemart/backend/internal/app/service/user"
	"github.com/bottlemart/backend/pkg/response"
	"github.com/bottlemart/backend/pkg/types"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// @Summary      Register
// @Description  Creates a buyer account and returns a bearer token.
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        request body handlers.registerRequest true "Registration request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/users/register [post]
func ApiRegister(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		res, err := svc.Register(c.Request.Context(), user.RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// @Summary      Login
// @Description  Exchanges credentials for a bearer token.
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        request body handlers.loginRequest true "Login request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/users/login [post]
func ApiLogin(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		res, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Current User
// @Tags         User
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/users/me [get]
func ApiMe(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := mw.GetPrincipal(c)
		u, err := svc.GetUser(c.Request.Context(), principal.UserID, principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(u))
	}
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// @Summary      Forgot Password
// @Description  Sends a single-use reset link. Always reports success so account existence cannot be probed.
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        request body handlers.forgotPasswordRequest true "Forgot password request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/users/forgot-password [post]
func ApiForgotPassword(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req forgotPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		if err := svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(gin.H{"sent": true}))
	}
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// @Summary      Reset Password
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        request body handlers.resetPasswordRequest true "Reset password request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/users/reset-password [post]
func ApiResetPassword(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req resetPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		if err := svc.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(gin.H{"reset": true}))
	}
}

// @Summary      List Users
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/users [get]
func ApiListUsers(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := mw.GetPrincipal(c)
		users, err := svc.ListUsers(c.Request.Context(), principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(users))
	}
}

// @Summary      Delete User
// @Tags         Admin
// @Produce      json
// @Param        userId path string true "User ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/users/{userId} [delete]
func ApiDeleteUser(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := mw.GetPrincipal(c)
		if err := svc.DeleteUser(c.Request.Context(), c.Param("userId"), principal); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(gin.H{"deleted": true}))
	}
}

type updateRoleRequest struct {
	Role types.UserRole `json:"role" binding:"required"`
}

// @Summary      Update User Role
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        userId path string true "User ID"
// @Param        request body handlers.updateRoleRequest true "New role"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/users/{userId}/role [put]
func ApiUpdateUserRole(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		principal, _ := mw.GetPrincipal(c)
		u, err := svc.UpdateRole(c.Request.Context(), c.Param("userId"), req.Role, principal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(u))
	}
}

func RegisterUserRoutes(public, authed gin.IRouter, svc *user.Service) {
	public.POST("/users/register", ApiRegister(svc))
	public.POST("/users/login", ApiLogin(svc))
	public.POST("/users/forgot-password", ApiForgotPassword(svc))
	public.POST("/users/reset-password", ApiResetPassword(svc))
	authed.GET("/users/me", ApiMe(svc))
}
