package payment

import "go.uber.org/fx"

// Module exposes the payment lifecycle service via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
)
