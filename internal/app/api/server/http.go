package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bottlemart/backend/docs"
	"github.com/bottlemart/backend/internal/app/api/handlers"
	mw "github.com/bottlemart/backend/internal/app/api/middleware"
	"github.com/bottlemart/backend/internal/app/service/order"
	"github.com/bottlemart/backend/internal/app/service/payment"
	"github.com/bottlemart/backend/internal/app/service/product"
	"github.com/bottlemart/backend/internal/app/service/statistics"
	"github.com/bottlemart/backend/internal/app/service/supplier"
	"github.com/bottlemart/backend/internal/app/service/user"
	"github.com/bottlemart/backend/internal/app/service/webhook"
	cfgpkg "github.com/bottlemart/backend/pkg/config"
	metrics "github.com/bottlemart/backend/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Add request tracing middleware only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

type routeDeps struct {
	fx.In

	Log      *zap.SugaredLogger
	Cfg      *cfgpkg.Config
	Payments *payment.Service
	Webhooks *webhook.Service
	Orders   *order.Service
	Users    *user.Service
	Products *product.Service
	Supplier *supplier.Service
	Stats    *statistics.Service
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	// Prometheus metrics
	if d.Cfg != nil && d.Cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			MetricsList: []*metrics.Metric{metrics.MetricsBusinessProcess},
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return c.Request.URL.Path
			},
			Logger: d.Log,
		})
		p.SetListenAddress(d.Cfg.MetricsAddr)
		p.Use(r)

		d.Log.Infow("metrics started", "addr", d.Cfg.MetricsAddr)
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware())

	// Webhook and account endpoints carry no bearer token.
	handlers.RegisterPaymentWebhookRoutes(apiV1, d.Webhooks, d.Log)

	authed := apiV1.Group("/")
	authed.Use(mw.AuthMiddleware(d.Users))

	handlers.RegisterUserRoutes(apiV1, authed, d.Users)
	handlers.RegisterProductRoutes(apiV1, authed, d.Products)
	handlers.RegisterOrderRoutes(authed, d.Orders)
	handlers.RegisterPaymentRoutes(authed, d.Payments)
	handlers.RegisterSupplierRoutes(authed, d.Supplier)

	admin := apiV1.Group("/admin")
	admin.Use(mw.AuthMiddleware(d.Users), mw.AdminOnlyMiddleware())
	handlers.RegisterAdminRoutes(admin, d.Users, d.Orders, d.Payments, d.Supplier, d.Stats)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
