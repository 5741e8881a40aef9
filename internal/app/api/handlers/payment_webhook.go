package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bottlemart/backend/internal/app/service/webhook"
	"github.com/bottlemart/backend/internal/platform/gateway"
	"github.com/bottlemart/backend/pkg/logctx"
	"github.com/bottlemart/backend/pkg/metrics"
	"github.com/bottlemart/backend/pkg/response"

	"go.uber.org/zap"
)

// @Summary      Gateway Webhook
// @Description  Ingests payment gateway events. The raw body must be signed with the pre-shared webhook secret.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature header string true "Webhook signature"
// @Success      200  {object}  map[string]bool
// @Router       /api/v1/payments/stripe/webhook [post]
func ApiGatewayWebhook(svc *webhook.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			respondBadRequest(c, "unreadable body")
			return
		}

		traceID := c.GetString("traceID")
		start := time.Now()
		err = svc.Process(c.Request.Context(), c.GetHeader("Stripe-Signature"), body, traceID)
		metrics.ObserveBusinessProcess("webhook", "gateway_event", start)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"received": true})
		case errors.Is(err, gateway.ErrInvalidSignature):
			c.JSON(http.StatusBadRequest,
				response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid signature"))
		default:
			// Transient local failure: 5xx so the gateway redelivers.
			logctx.FromGin(c, log).Errorw("webhook_processing_failed", "error", err)
			c.JSON(http.StatusInternalServerError,
				response.ErrorT[any](response.APIResponseCodeError, "processing failed"))
		}
	}
}

func RegisterPaymentWebhookRoutes(r gin.IRouter, svc *webhook.Service, log *zap.SugaredLogger) {
	r.POST("/payments/stripe/webhook", ApiGatewayWebhook(svc, log))
}
