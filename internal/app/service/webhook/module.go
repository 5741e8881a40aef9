package webhook

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bottlemart/backend/internal/app/service/eventlog"
	"github.com/bottlemart/backend/internal/app/service/payment"
)

// Module exposes the webhook ingestion pipeline via Fx.
var Module = fx.Options(
	fx.Provide(func(log *zap.SugaredLogger, payments *payment.Service, events *eventlog.Service) *Service {
		return NewService(log, payments, events)
	}),
)
