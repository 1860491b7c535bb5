package gateway

import (
	"context"

	"github.com/academyhub/paycore/internal/types"
)

// Client is the minimal surface every payment gateway implements.
// Everything else is an optional capability discovered with CheckCapability.
type Client interface {
	Name() types.PaymentGatewayType
}

// Charger starts a new payment
type Charger interface {
	Client
	Charge(ctx context.Context, req *ChargeRequest) (*PaymentResult, error)
}

// Verifier fetches the authoritative status of a transaction
type Verifier interface {
	Client
	VerifyPayment(ctx context.Context, transactionID string, data map[string]string) (*PaymentResult, error)
}

// Refunder returns money for a captured transaction
type Refunder interface {
	Client
	Refund(ctx context.Context, req *RefundRequest) (*PaymentResult, error)
}

// Tokenizer manages reusable card tokens
type Tokenizer interface {
	Client
	SupportsTokenization() bool
	DeleteToken(ctx context.Context, token string) error
}

// RecurringCharger charges a saved token without the customer present
type RecurringCharger interface {
	Client
	SupportsRecurring() bool
	ChargeSavedMethod(ctx context.Context, req *SavedMethodChargeRequest) (*PaymentResult, error)
}

// SignatureVerifier proves that a webhook came from the gateway
type SignatureVerifier interface {
	Verify(ctx context.Context, req *WebhookRequest) (bool, error)
}

// WebhookParser normalizes a gateway webhook body
type WebhookParser interface {
	ParseWebhook(body []byte) (*WebhookPayload, error)
}

// WebhookHandler is implemented by gateways that accept inbound webhooks
type WebhookHandler interface {
	Client
	SignatureVerifier
	WebhookParser
}

// ConfigAware lets a gateway report that a capability it implements lacks credentials
type ConfigAware interface {
	IsConfigured(capability Capability) bool
}

// Capability names an optional gateway feature
type Capability string

const (
	CapabilityCharge    Capability = "charge"
	CapabilityVerify    Capability = "verify"
	CapabilityRefund    Capability = "refund"
	CapabilityTokenize  Capability = "tokenize"
	CapabilityRecurring Capability = "recurring"
	CapabilityWebhook   Capability = "webhook"
)

// AllCapabilities is the order capabilities are reported in
var AllCapabilities = []Capability{
	CapabilityCharge,
	CapabilityVerify,
	CapabilityRefund,
	CapabilityTokenize,
	CapabilityRecurring,
	CapabilityWebhook,
}

// CapabilityStatus is the typed answer to "can this gateway do X"
type CapabilityStatus string

const (
	CapabilitySupported     CapabilityStatus = "supported"
	CapabilityUnsupported   CapabilityStatus = "unsupported"
	CapabilityNotConfigured CapabilityStatus = "not_configured"
)

// CheckCapability reports whether c implements capability and is configured for it
func CheckCapability(c Client, capability Capability) CapabilityStatus {
	implemented := false
	switch capability {
	case CapabilityCharge:
		_, implemented = c.(Charger)
	case CapabilityVerify:
		_, implemented = c.(Verifier)
	case CapabilityRefund:
		_, implemented = c.(Refunder)
	case CapabilityWebhook:
		_, implemented = c.(WebhookHandler)
	case CapabilityTokenize:
		t, ok := c.(Tokenizer)
		if !ok {
			return CapabilityUnsupported
		}
		if !t.SupportsTokenization() {
			return CapabilityNotConfigured
		}
		implemented = true
	case CapabilityRecurring:
		r, ok := c.(RecurringCharger)
		if !ok {
			return CapabilityUnsupported
		}
		if !r.SupportsRecurring() {
			return CapabilityNotConfigured
		}
		implemented = true
	}

	if !implemented {
		return CapabilityUnsupported
	}
	if aware, ok := c.(ConfigAware); ok && !aware.IsConfigured(capability) {
		return CapabilityNotConfigured
	}
	return CapabilitySupported
}

// Capabilities returns the status of every known capability
func Capabilities(c Client) map[Capability]CapabilityStatus {
	out := make(map[Capability]CapabilityStatus, len(AllCapabilities))
	for _, capability := range AllCapabilities {
		out[capability] = CheckCapability(c, capability)
	}
	return out
}
