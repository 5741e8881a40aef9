package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/bottlemart/backend/internal/app/service/order"
	"github.com/bottlemart/backend/internal/app/service/payment"
	"github.com/bottlemart/backend/internal/app/service/user"
)

func renderStatus(t *testing.T, err error) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, err)
	return w.Code
}

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{payment.ErrOrderNotFound, http.StatusNotFound},
		{payment.ErrPaymentNotFound, http.StatusNotFound},
		{order.ErrOrderNotFound, http.StatusNotFound},
		{payment.ErrForbidden, http.StatusForbidden},
		{user.ErrForbidden, http.StatusForbidden},
		{user.ErrInvalidCredentials, http.StatusUnauthorized},
		{payment.ErrAmountMismatch, http.StatusBadRequest},
		{payment.ErrSessionExpired, http.StatusBadRequest},
		{payment.ErrAlreadyProcessed, http.StatusBadRequest},
		{order.ErrInsufficientStock, http.StatusBadRequest},
		{user.ErrEmailTaken, http.StatusBadRequest},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, renderStatus(t, tc.err), "error %v", tc.err)
	}
}

func TestRespondErrorMatchesWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("confirm intent: %w", payment.ErrSessionExpired)
	require.Equal(t, http.StatusBadRequest, renderStatus(t, wrapped))
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, errors.New("pq: relation payment does not exist"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "relation payment")
	require.Contains(t, w.Body.String(), "internal error")
}
