package integration

import (
	"sort"

	"github.com/academyhub/paycore/internal/config"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/httpclient"
	"github.com/academyhub/paycore/internal/integration/easykash"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/integration/paymob"
	"github.com/academyhub/paycore/internal/integration/tap"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/types"
)

// Constructor builds a gateway client from merged configuration
type Constructor func(cfg types.GatewayConfig) (gateway.Client, error)

// Registry maps gateway names to their constructors
type Registry struct {
	config       *config.Configuration
	logger       *logger.Logger
	http         httpclient.Client
	constructors map[types.PaymentGatewayType]Constructor
}

// NewRegistry registers the built-in gateways
func NewRegistry(config *config.Configuration, http httpclient.Client, logger *logger.Logger) *Registry {
	r := &Registry{
		config:       config,
		logger:       logger,
		http:         http,
		constructors: make(map[types.PaymentGatewayType]Constructor),
	}

	r.Register(types.PaymentGatewayTypePaymob, func(cfg types.GatewayConfig) (gateway.Client, error) {
		return paymob.NewClient(cfg, r.http, r.logger)
	})
	r.Register(types.PaymentGatewayTypeEasyKash, func(cfg types.GatewayConfig) (gateway.Client, error) {
		return easykash.NewClient(cfg, r.http, r.logger)
	})
	r.Register(types.PaymentGatewayTypeTap, func(cfg types.GatewayConfig) (gateway.Client, error) {
		return tap.NewClient(cfg, r.http, r.logger, tap.WithFallbackTimeout(r.config.Payments.TapFallbackTimeout))
	})
	return r
}

// Register adds or replaces the constructor for a gateway
func (r *Registry) Register(name types.PaymentGatewayType, ctor Constructor) {
	r.constructors[name] = ctor
}

// Build constructs a client for name with cfg
func (r *Registry) Build(name types.PaymentGatewayType, cfg types.GatewayConfig) (gateway.Client, error) {
	ctor, ok := r.constructors[name]
	if !ok {
		return nil, ierr.NewErrorf("unknown payment gateway %q", name).
			WithHintf("Payment gateway %s is not supported", name).
			WithReportableDetails(map[string]any{"gateway": name}).
			Mark(ierr.ErrConfiguration)
	}
	return ctor(cfg)
}

// StaticConfig returns the platform configuration of a gateway without tenant overrides
func (r *Registry) StaticConfig(name types.PaymentGatewayType) types.GatewayConfig {
	return types.GatewayConfig(r.config.Payments.GatewayConfig(string(name)))
}

// Names lists registered gateways in a stable order
func (r *Registry) Names() []types.PaymentGatewayType {
	names := make([]types.PaymentGatewayType, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
