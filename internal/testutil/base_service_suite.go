package testutil

import (
	"context"
	"time"

	"github.com/academyhub/paycore/internal/cache"
	"github.com/academyhub/paycore/internal/config"
	"github.com/academyhub/paycore/internal/domain/subscription"
	"github.com/academyhub/paycore/internal/domain/tenant"
	"github.com/academyhub/paycore/internal/domain/user"
	"github.com/academyhub/paycore/internal/integration"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/security"
	"github.com/academyhub/paycore/internal/sentry"
	"github.com/academyhub/paycore/internal/types"
	"github.com/academyhub/paycore/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository fakes for testing
type Stores struct {
	PaymentRepo       *InMemoryPaymentStore
	PaymentMethodRepo *InMemoryPaymentMethodStore
	WebhookEventRepo  *InMemoryWebhookEventStore
	TenantRepo        *InMemoryTenantStore
	SubscriptionRepo  *InMemorySubscriptionStore
	UserRepo          *InMemoryUserStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx           context.Context
	stores        Stores
	db            *MockPostgresClient
	logger        *logger.Logger
	config        *config.Configuration
	cache         *cache.InMemoryCache
	encryption    security.EncryptionService
	sentry        *sentry.Service
	http          *MockHTTPClient
	registry      *integration.Registry
	notifications *MockNotificationSink
	blobs         *MockBlobStore
	pdfGenerator  *MockPDFGenerator
	now           time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	// Initialize validator
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelInfo
	cfg.Secrets.EncryptionKey = "test-encryption-key-for-unit-tests-only"
	cfg.Payments.WebhookBaseURL = "https://api.paycore.test"
	s.config = cfg

	s.logger = logger.NewNopLogger()
	s.sentry = sentry.NewSentryService(cfg, s.logger)

	encryption, err := security.NewEncryptionService(cfg, s.logger)
	if err != nil {
		s.T().Fatalf("failed to create encryption service: %v", err)
	}
	s.encryption = encryption
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.now = time.Now().UTC()
	s.setupStores()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		PaymentRepo:       NewInMemoryPaymentStore(),
		PaymentMethodRepo: NewInMemoryPaymentMethodStore(),
		WebhookEventRepo:  NewInMemoryWebhookEventStore(),
		TenantRepo:        NewInMemoryTenantStore(),
		SubscriptionRepo:  NewInMemorySubscriptionStore(),
		UserRepo:          NewInMemoryUserStore(),
	}

	s.db = NewMockPostgresClient(s.logger)
	s.db.Track(
		s.stores.PaymentRepo,
		s.stores.PaymentMethodRepo,
		s.stores.WebhookEventRepo,
		s.stores.TenantRepo,
		s.stores.SubscriptionRepo,
		s.stores.UserRepo,
	)
	s.cache = cache.NewEnabledInMemoryCache()
	s.http = NewMockHTTPClient()
	s.registry = integration.NewRegistry(s.config, s.http, s.logger)
	s.notifications = NewMockNotificationSink()
	s.blobs = NewMockBlobStore()
	s.pdfGenerator = NewMockPDFGenerator()
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.PaymentRepo.Clear()
	s.stores.PaymentMethodRepo.Clear()
	s.stores.WebhookEventRepo.Clear()
	s.stores.TenantRepo.Clear()
	s.stores.SubscriptionRepo.Clear()
	s.stores.UserRepo.Clear()
	s.cache.Flush(context.Background())
	s.notifications.Clear()
	s.http.Clear()
}

// UseGateway makes the registry build gw whenever its name is resolved
func (s *BaseServiceTestSuite) UseGateway(gw gateway.Client) {
	s.registry.Register(gw.Name(), func(types.GatewayConfig) (gateway.Client, error) {
		return gw, nil
	})
}

// EnableGateways stores tenant settings enabling gateways, the first one becomes the default
func (s *BaseServiceTestSuite) EnableGateways(tenantID string, gateways ...types.PaymentGatewayType) *tenant.PaymentSettings {
	settings := &tenant.PaymentSettings{
		TenantID:     tenantID,
		AcademyName:  "Test Academy",
		ContactEmail: lo.ToPtr("billing@academy.test"),
		EnabledGateways: lo.Map(gateways, func(g types.PaymentGatewayType, _ int) string {
			return string(g)
		}),
	}
	if len(gateways) > 0 {
		settings.DefaultGateway = lo.ToPtr(string(gateways[0]))
	}
	s.stores.TenantRepo.SetPaymentSettings(settings)
	s.cache.Flush(context.Background())
	return settings
}

// CreateUser seeds a student
func (s *BaseServiceTestSuite) CreateUser(id string) *user.User {
	u := &user.User{
		ID:        id,
		Name:      "Student " + id,
		Email:     id + "@students.test",
		Phone:     lo.ToPtr("+201000000000"),
		BaseModel: types.GetDefaultBaseModel(s.ctx),
	}
	s.stores.UserRepo.Seed(u)
	return u
}

// CreateSubscription seeds a subscription of studentID renewing at price
func (s *BaseServiceTestSuite) CreateSubscription(id string, studentID *string, price decimal.Decimal) *subscription.Subscription {
	sub := &subscription.Subscription{
		ID:           id,
		StudentID:    studentID,
		PlanName:     "Monthly",
		Currency:     "EGP",
		RenewalPrice: price,
		BaseModel:    types.GetDefaultBaseModel(s.ctx),
	}
	s.stores.SubscriptionRepo.Seed(sub)
	return sub
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() *MockPostgresClient {
	return s.db
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetCache() *cache.InMemoryCache {
	return s.cache
}

func (s *BaseServiceTestSuite) GetEncryption() security.EncryptionService {
	return s.encryption
}

func (s *BaseServiceTestSuite) GetSentry() *sentry.Service {
	return s.sentry
}

func (s *BaseServiceTestSuite) GetHTTPClient() *MockHTTPClient {
	return s.http
}

func (s *BaseServiceTestSuite) GetRegistry() *integration.Registry {
	return s.registry
}

func (s *BaseServiceTestSuite) GetNotifications() *MockNotificationSink {
	return s.notifications
}

func (s *BaseServiceTestSuite) GetBlobStore() *MockBlobStore {
	return s.blobs
}

func (s *BaseServiceTestSuite) GetPDFGenerator() *MockPDFGenerator {
	return s.pdfGenerator
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}

// GetUUID returns a new UUID string
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}
