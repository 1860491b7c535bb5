package api

import (
	"github.com/academyhub/paycore/internal/api/cron"
	v1 "github.com/academyhub/paycore/internal/api/v1"
	"github.com/academyhub/paycore/internal/config"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/rest/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health        *v1.HealthHandler
	Webhook       *v1.WebhookHandler
	Payment       *v1.PaymentHandler
	PaymentMethod *v1.PaymentMethodHandler
	Gateway       *v1.GatewayHandler
	Subscription  *v1.SubscriptionHandler
	CronPayment   *cron.PaymentHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	router := gin.Default()
	router.Use(
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.ErrorHandler(logger),
	)

	router.GET("/health", handlers.Health.Health)

	public := router.Group("/v1")

	// Gateways call back without tenant headers, the tenant is part of the path
	public.POST("/webhooks/:gateway/:tenant_id", handlers.Webhook.HandleWebhook)
	public.GET("/webhooks/:gateway/:tenant_id", handlers.Webhook.HandleWebhook)

	v1Private := router.Group("/v1")
	v1Private.Use(middleware.TenantMiddleware, middleware.SentryScopeMiddleware)
	{
		v1Private.GET("/gateways", handlers.Gateway.ListGateways)

		payments := v1Private.Group("/payments")
		{
			payments.POST("", handlers.Payment.InitiatePayment)
			payments.GET("", handlers.Payment.ListPayments)
			payments.GET("/:id", handlers.Payment.GetPayment)
			payments.POST("/:id/refund", handlers.Payment.RefundPayment)
			payments.POST("/:id/invoice", handlers.Payment.GenerateInvoice)
			payments.POST("/:id/retry", handlers.Payment.RetryPayment)
		}

		methods := v1Private.Group("/users/:user_id/payment-methods")
		{
			methods.GET("", handlers.PaymentMethod.ListPaymentMethods)
			methods.POST("/:id/default", handlers.PaymentMethod.MarkAsDefault)
			methods.DELETE("/:id", handlers.PaymentMethod.DeletePaymentMethod)
		}

		subscriptions := v1Private.Group("/subscriptions")
		{
			subscriptions.POST("/:id/renew", handlers.Subscription.Renew)
		}
	}

	// Cron routes are cross tenant and do not require tenant headers
	cronGroup := router.Group("/v1/cron")
	{
		payments := cronGroup.Group("/payments")
		{
			payments.POST("/expire-stale", handlers.CronPayment.ExpireStalePayments)
		}
		methods := cronGroup.Group("/payment-methods")
		{
			methods.POST("/cleanup-expired", handlers.CronPayment.CleanupExpiredPaymentMethods)
		}
	}

	return router
}
