package main

import (
	"context"
	"time"

	"github.com/academyhub/paycore/internal/api"
	"github.com/academyhub/paycore/internal/api/cron"
	v1 "github.com/academyhub/paycore/internal/api/v1"
	"github.com/academyhub/paycore/internal/cache"
	"github.com/academyhub/paycore/internal/config"
	"github.com/academyhub/paycore/internal/httpclient"
	"github.com/academyhub/paycore/internal/integration"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/notification"
	"github.com/academyhub/paycore/internal/pdf"
	"github.com/academyhub/paycore/internal/postgres"
	repository "github.com/academyhub/paycore/internal/repository/postgres"
	"github.com/academyhub/paycore/internal/s3"
	"github.com/academyhub/paycore/internal/security"
	"github.com/academyhub/paycore/internal/sentry"
	"github.com/academyhub/paycore/internal/service"
	"github.com/academyhub/paycore/internal/types"
	"github.com/academyhub/paycore/internal/typst"
	"github.com/academyhub/paycore/internal/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Monitoring
			sentry.NewSentryService,

			// Cache
			cache.NewInMemoryCache,

			// Postgres
			provideDB,
			provideDBClient,

			// HTTP Client
			httpclient.NewDefaultClient,

			// Security
			security.NewEncryptionService,

			// Documents and storage
			provideTypstCompiler,
			pdf.NewGenerator,
			s3.NewBlobStore,

			// Notifications
			notification.NewSink,

			// Gateways
			integration.NewRegistry,

			// Repositories
			repository.NewPaymentRepository,
			repository.NewPaymentMethodRepository,
			repository.NewWebhookEventRepository,
			repository.NewTenantRepository,
			repository.NewSubscriptionRepository,
			repository.NewUserRepository,
		),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewGatewayResolver,
			service.NewPaymentResultProcessor,
			service.NewInvoiceNumberService,
			service.NewPaymentMethodService,
			service.NewCheckoutService,
			service.NewRenewalService,
			service.NewRefundService,
			service.NewWebhookService,
			service.NewInvoiceService,
			service.NewPaymentService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			registerValidator,
			sentry.RegisterHooks,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideDB(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) (*postgres.DB, error) {
	db, err := postgres.NewDB(cfg, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("closing postgres connection")
			db.Close()
			return nil
		},
	})
	return db, nil
}

// registerValidator installs the request validator before any handler runs
func registerValidator() {
	validator.NewValidator()
}

func provideDBClient(db *postgres.DB) postgres.IClient {
	return db
}

func provideTypstCompiler(log *logger.Logger) typst.Compiler {
	return typst.DefaultCompiler(log)
}

func provideHandlers(
	logger *logger.Logger,
	db *postgres.DB,
	resolver service.GatewayResolver,
	paymentService service.PaymentService,
	checkoutService service.CheckoutService,
	refundService service.RefundService,
	invoiceService service.InvoiceService,
	paymentMethodService service.PaymentMethodService,
	renewalService service.RenewalService,
	webhookService service.WebhookService,
) api.Handlers {
	return api.Handlers{
		Health:        v1.NewHealthHandler(db, logger),
		Webhook:       v1.NewWebhookHandler(webhookService, logger),
		Payment:       v1.NewPaymentHandler(paymentService, checkoutService, refundService, invoiceService, logger),
		PaymentMethod: v1.NewPaymentMethodHandler(paymentMethodService),
		Gateway:       v1.NewGatewayHandler(resolver),
		Subscription:  v1.NewSubscriptionHandler(renewalService),
		CronPayment:   cron.NewPaymentHandler(paymentService, paymentMethodService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting API server...")
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}
