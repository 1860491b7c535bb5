package types

import (
	"strings"

	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/samber/lo"
)

// PaymentGatewayType represents the type of payment gateway
type PaymentGatewayType string

const (
	PaymentGatewayTypePaymob   PaymentGatewayType = "paymob"
	PaymentGatewayTypeEasyKash PaymentGatewayType = "easykash"
	PaymentGatewayTypeTap      PaymentGatewayType = "tap"
)

// SupportedGateways lists every gateway known to the registry
var SupportedGateways = []PaymentGatewayType{
	PaymentGatewayTypePaymob,
	PaymentGatewayTypeEasyKash,
	PaymentGatewayTypeTap,
}

// Validate validates the payment gateway type
func (p PaymentGatewayType) Validate() error {
	if lo.Contains(SupportedGateways, p) {
		return nil
	}
	return ierr.NewError("invalid payment gateway type").
		WithHint("Please provide a valid payment gateway type").
		WithReportableDetails(map[string]any{
			"allowed": SupportedGateways,
			"gateway": p,
		}).
		Mark(ierr.ErrValidation)
}

// String returns the string representation of the payment gateway type
func (p PaymentGatewayType) String() string {
	return string(p)
}

// ParsePaymentGatewayType normalizes a user supplied gateway name
func ParsePaymentGatewayType(name string) PaymentGatewayType {
	return PaymentGatewayType(strings.ToLower(strings.TrimSpace(name)))
}

// Well known gateway configuration keys
const (
	GatewayConfigAPIKey            = "api_key"
	GatewayConfigSecretKey         = "secret_key"
	GatewayConfigPublicKey         = "public_key"
	GatewayConfigHMACSecret        = "hmac_secret"
	GatewayConfigBaseURL           = "base_url"
	GatewayConfigIntegrationID     = "integration_id"
	GatewayConfigWalletIntegration = "wallet_integration_id"
	GatewayConfigMotoIntegration   = "moto_integration_id"
	GatewayConfigIframeID          = "iframe_id"
	GatewayConfigMerchantID        = "merchant_id"
	GatewayConfigRedirectURL       = "redirect_url"
	GatewayConfigWebhookURL        = "webhook_url"
)

// GatewayConfig is an immutable view over merged gateway settings.
// Always build new values through Merge instead of mutating a shared instance.
type GatewayConfig map[string]string

// Get returns the value for key or an empty string
func (c GatewayConfig) Get(key string) string {
	if c == nil {
		return ""
	}
	return c[key]
}

// Has reports whether key is set to a non-empty value
func (c GatewayConfig) Has(key string) bool {
	return strings.TrimSpace(c.Get(key)) != ""
}

// Merge returns a new config where values from overrides win.
// Empty override values do not clear base values.
func (c GatewayConfig) Merge(overrides map[string]string) GatewayConfig {
	clean := lo.PickBy(overrides, func(_ string, v string) bool {
		return strings.TrimSpace(v) != ""
	})
	return GatewayConfig(lo.Assign(map[string]string(c), clean))
}

// With returns a new config with key set to value
func (c GatewayConfig) With(key, value string) GatewayConfig {
	return c.Merge(map[string]string{key: value})
}
