package tenant

import (
	"context"

	"github.com/academyhub/paycore/internal/types"
	"github.com/samber/lo"
)

// PaymentSettings is the per academy gateway configuration
type PaymentSettings struct {
	TenantID        string   `json:"tenant_id"`
	AcademyName     string   `json:"academy_name"`
	ContactEmail    *string  `json:"contact_email,omitempty"`
	DefaultGateway  *string  `json:"default_gateway,omitempty"`
	EnabledGateways []string `json:"enabled_gateways"`
	// GatewayOverrides holds per gateway keys that win over platform defaults.
	// Secret values may be stored encrypted with the "enc:" prefix.
	GatewayOverrides map[string]map[string]string `json:"-"`
}

// IsEnabled reports whether the academy turned the gateway on
func (s *PaymentSettings) IsEnabled(gateway types.PaymentGatewayType) bool {
	if s == nil {
		return false
	}
	return lo.Contains(s.EnabledGateways, string(gateway))
}

// Overrides returns the override map for gateway, never nil
func (s *PaymentSettings) Overrides(gateway types.PaymentGatewayType) map[string]string {
	if s == nil || s.GatewayOverrides == nil {
		return map[string]string{}
	}
	if o, ok := s.GatewayOverrides[string(gateway)]; ok && o != nil {
		return o
	}
	return map[string]string{}
}

// Repository reads academy payment settings
type Repository interface {
	GetPaymentSettings(ctx context.Context, tenantID string) (*PaymentSettings, error)
}
