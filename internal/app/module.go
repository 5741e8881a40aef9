package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/bottlemart/backend/internal/app/api/server"
	"github.com/bottlemart/backend/internal/app/service/eventlog"
	"github.com/bottlemart/backend/internal/app/service/order"
	"github.com/bottlemart/backend/internal/app/service/payment"
	"github.com/bottlemart/backend/internal/app/service/product"
	"github.com/bottlemart/backend/internal/app/service/reconcile"
	"github.com/bottlemart/backend/internal/app/service/statistics"
	"github.com/bottlemart/backend/internal/app/service/supplier"
	"github.com/bottlemart/backend/internal/app/service/user"
	"github.com/bottlemart/backend/internal/app/service/webhook"
	"github.com/bottlemart/backend/internal/platform/db"
	"github.com/bottlemart/backend/internal/platform/gateway"
	"github.com/bottlemart/backend/internal/platform/mail"
	"github.com/bottlemart/backend/pkg/config"
	"github.com/bottlemart/backend/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	gateway.Module,
	mail.Module,
	server.Module,
	payment.Module,
	eventlog.Module,
	webhook.Module,
	reconcile.Module,
	order.Module,
	user.Module,
	product.Module,
	supplier.Module,
	statistics.Module,
)
