package service

import (
	"context"
	"time"

	"github.com/academyhub/paycore/internal/cache"
	"github.com/academyhub/paycore/internal/domain/tenant"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/security"
	"github.com/academyhub/paycore/internal/types"
)

const tenantSettingsTTL = 5 * time.Minute

// AvailableGateway is a gateway a tenant can use together with what it can do
type AvailableGateway struct {
	Name         types.PaymentGatewayType                        `json:"name"`
	IsDefault    bool                                            `json:"is_default"`
	Capabilities map[gateway.Capability]gateway.CapabilityStatus `json:"capabilities"`
}

// GatewayResolver picks and configures the gateway client for a tenant
type GatewayResolver interface {
	// Resolve returns a client for the explicit gateway, the tenant default or the platform default
	Resolve(ctx context.Context, tenantID string, name *string) (gateway.Client, error)
	// ResolveConfig returns the gateway name and its merged configuration
	ResolveConfig(ctx context.Context, tenantID string, name *string) (types.PaymentGatewayType, types.GatewayConfig, error)
	// AvailableGateways lists enabled gateways, skipping those that cannot be built
	AvailableGateways(ctx context.Context, tenantID string) ([]*AvailableGateway, error)
	// InvalidateTenant drops cached settings after a tenant changes its configuration
	InvalidateTenant(ctx context.Context, tenantID string)
}

type gatewayResolver struct {
	ServiceParams
}

func NewGatewayResolver(params ServiceParams) GatewayResolver {
	return &gatewayResolver{ServiceParams: params}
}

func (s *gatewayResolver) Resolve(ctx context.Context, tenantID string, name *string) (gateway.Client, error) {
	gatewayName, cfg, err := s.ResolveConfig(ctx, tenantID, name)
	if err != nil {
		return nil, err
	}
	return s.Gateways.Build(gatewayName, cfg)
}

func (s *gatewayResolver) ResolveConfig(ctx context.Context, tenantID string, name *string) (types.PaymentGatewayType, types.GatewayConfig, error) {
	settings, err := s.settings(ctx, tenantID)
	if err != nil {
		return "", nil, err
	}

	gatewayName := s.gatewayName(settings, name)
	if gatewayName == "" {
		return "", nil, ierr.NewError("no payment gateway configured").
			WithHint("No payment gateway is configured for this academy").
			Mark(ierr.ErrConfiguration)
	}
	if !settings.IsEnabled(gatewayName) {
		return "", nil, ierr.NewErrorf("gateway %s not enabled for tenant", gatewayName).
			WithHintf("Payment gateway %s is not enabled for this academy", gatewayName).
			WithReportableDetails(map[string]any{
				"tenant_id": tenantID,
				"gateway":   gatewayName,
			}).
			Mark(ierr.ErrGatewayNotEnabled)
	}

	cfg, err := s.mergedConfig(settings, gatewayName)
	if err != nil {
		return "", nil, err
	}
	return gatewayName, cfg, nil
}

func (s *gatewayResolver) AvailableGateways(ctx context.Context, tenantID string) ([]*AvailableGateway, error) {
	settings, err := s.settings(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defaultName := s.gatewayName(settings, nil)

	available := make([]*AvailableGateway, 0, len(settings.EnabledGateways))
	for _, enabled := range settings.EnabledGateways {
		name := types.PaymentGatewayType(enabled)

		cfg, err := s.mergedConfig(settings, name)
		if err != nil {
			s.Logger.Warnw("skipping gateway with unreadable configuration",
				"tenant_id", tenantID,
				"gateway", name,
				"error", err,
			)
			continue
		}
		client, err := s.Gateways.Build(name, cfg)
		if err != nil {
			s.Logger.Warnw("skipping gateway that failed to build",
				"tenant_id", tenantID,
				"gateway", name,
				"error", err,
			)
			continue
		}

		available = append(available, &AvailableGateway{
			Name:         name,
			IsDefault:    name == defaultName,
			Capabilities: gateway.Capabilities(client),
		})
	}
	return available, nil
}

func (s *gatewayResolver) InvalidateTenant(ctx context.Context, tenantID string) {
	if s.Cache == nil {
		return
	}
	s.Cache.Delete(ctx, settingsKey(tenantID))
}

func (s *gatewayResolver) gatewayName(settings *tenant.PaymentSettings, explicit *string) types.PaymentGatewayType {
	switch {
	case explicit != nil && *explicit != "":
		return types.PaymentGatewayType(*explicit)
	case settings.DefaultGateway != nil && *settings.DefaultGateway != "":
		return types.PaymentGatewayType(*settings.DefaultGateway)
	}
	return types.PaymentGatewayType(s.Config.Payments.DefaultGateway)
}

// mergedConfig lays decrypted tenant overrides over the platform configuration
func (s *gatewayResolver) mergedConfig(settings *tenant.PaymentSettings, name types.PaymentGatewayType) (types.GatewayConfig, error) {
	overrides := settings.Overrides(name)
	decrypted := make(map[string]string, len(overrides))
	for key, value := range overrides {
		plain, err := security.DecryptConfigValue(s.Encryption, value)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHintf("Could not read %s setting for gateway %s", key, name).
				Mark(ierr.ErrConfiguration)
		}
		decrypted[key] = plain
	}
	return s.Gateways.StaticConfig(name).Merge(decrypted), nil
}

func settingsKey(tenantID string) string {
	return cache.GenerateKey(cache.PrefixTenantPaymentSettings, tenantID)
}

func (s *gatewayResolver) settings(ctx context.Context, tenantID string) (*tenant.PaymentSettings, error) {
	key := settingsKey(tenantID)
	if s.Cache != nil {
		if cached, ok := s.Cache.Get(ctx, key); ok {
			if settings, ok := cached.(*tenant.PaymentSettings); ok {
				return settings, nil
			}
		}
	}

	settings, err := s.TenantRepo.GetPaymentSettings(ctx, tenantID)
	if err != nil {
		if !ierr.IsNotFound(err) {
			return nil, err
		}
		// a tenant without a settings row has nothing enabled
		settings = &tenant.PaymentSettings{TenantID: tenantID}
	}

	if s.Cache != nil {
		s.Cache.Set(ctx, key, settings, tenantSettingsTTL)
	}
	return settings, nil
}
