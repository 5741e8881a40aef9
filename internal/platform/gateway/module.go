package gateway

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bottlemart/backend/pkg/config"
)

func NewClient(cfg *config.Config, log *zap.SugaredLogger) Client {
	if cfg.Gateway.UseMock {
		log.Infow("using mock payment gateway")
		return NewMockClient(cfg)
	}
	return NewStripeClient(cfg)
}

var Module = fx.Options(
	fx.Provide(NewClient),
)
