package service

import (
	"github.com/academyhub/paycore/internal/cache"
	"github.com/academyhub/paycore/internal/config"
	"github.com/academyhub/paycore/internal/domain/payment"
	"github.com/academyhub/paycore/internal/domain/paymentmethod"
	"github.com/academyhub/paycore/internal/domain/subscription"
	"github.com/academyhub/paycore/internal/domain/tenant"
	"github.com/academyhub/paycore/internal/domain/user"
	"github.com/academyhub/paycore/internal/domain/webhookevent"
	"github.com/academyhub/paycore/internal/integration"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/notification"
	"github.com/academyhub/paycore/internal/pdf"
	"github.com/academyhub/paycore/internal/postgres"
	"github.com/academyhub/paycore/internal/s3"
	"github.com/academyhub/paycore/internal/security"
	"github.com/academyhub/paycore/internal/sentry"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger        *logger.Logger
	Config        *config.Configuration
	DB            postgres.IClient
	Cache         cache.Cache
	Sentry        *sentry.Service
	Encryption    security.EncryptionService
	PDFGenerator  pdf.Generator
	BlobStore     s3.BlobStore
	Notifications notification.Sink
	Gateways      *integration.Registry

	// Repositories
	PaymentRepo       payment.Repository
	PaymentMethodRepo paymentmethod.Repository
	WebhookEventRepo  webhookevent.Repository
	TenantRepo        tenant.Repository
	SubscriptionRepo  subscription.Repository
	UserRepo          user.Repository
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	cache cache.Cache,
	sentry *sentry.Service,
	encryption security.EncryptionService,
	pdfGenerator pdf.Generator,
	blobStore s3.BlobStore,
	notifications notification.Sink,
	gateways *integration.Registry,
	paymentRepo payment.Repository,
	paymentMethodRepo paymentmethod.Repository,
	webhookEventRepo webhookevent.Repository,
	tenantRepo tenant.Repository,
	subscriptionRepo subscription.Repository,
	userRepo user.Repository,
) ServiceParams {
	return ServiceParams{
		Logger:            logger,
		Config:            config,
		DB:                db,
		Cache:             cache,
		Sentry:            sentry,
		Encryption:        encryption,
		PDFGenerator:      pdfGenerator,
		BlobStore:         blobStore,
		Notifications:     notifications,
		Gateways:          gateways,
		PaymentRepo:       paymentRepo,
		PaymentMethodRepo: paymentMethodRepo,
		WebhookEventRepo:  webhookEventRepo,
		TenantRepo:        tenantRepo,
		SubscriptionRepo:  subscriptionRepo,
		UserRepo:          userRepo,
	}
}
