package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bottlemart/backend/internal/app/service/order"
	"github.com/bottlemart/backend/internal/app/service/payment"
	"github.com/bottlemart/backend/internal/app/service/product"
	"github.com/bottlemart/backend/internal/app/service/supplier"
	"github.com/bottlemart/backend/internal/app/service/user"
	"github.com/bottlemart/backend/pkg/response"
)

var notFoundErrs = []error{
	payment.ErrOrderNotFound,
	payment.ErrPaymentNotFound,
	order.ErrOrderNotFound,
	order.ErrProductNotFound,
	user.ErrUserNotFound,
	product.ErrProductNotFound,
	supplier.ErrSupplierNotFound,
}

var forbiddenErrs = []error{
	payment.ErrForbidden,
	order.ErrForbidden,
	user.ErrForbidden,
	product.ErrForbidden,
	supplier.ErrForbidden,
}

var badRequestErrs = []error{
	payment.ErrAmountMismatch,
	payment.ErrSessionExpired,
	payment.ErrAlreadyProcessed,
	payment.ErrInvalidStatus,
	order.ErrEmptyOrder,
	order.ErrInsufficientStock,
	order.ErrAlreadyPaid,
	user.ErrEmailTaken,
	user.ErrInvalidToken,
	supplier.ErrAlreadySupplier,
}

func matchAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// respondError translates service errors into HTTP statuses. Unknown errors
// become 500 with a generic message so internals never leak.
func respondError(c *gin.Context, err error) {
	switch {
	case matchAny(err, notFoundErrs):
		c.JSON(http.StatusNotFound, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
	case matchAny(err, forbiddenErrs):
		c.JSON(http.StatusForbidden, response.ErrorT[any](response.APIResponseCodeForbidden, err.Error()))
	case errors.Is(err, user.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, err.Error()))
	case matchAny(err, badRequestErrs):
		c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, "internal error"))
	}
}

func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, msg))
}
