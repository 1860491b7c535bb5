package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/types"
)

var (
	_ gateway.Charger          = (*MockGateway)(nil)
	_ gateway.Verifier         = (*MockGateway)(nil)
	_ gateway.Refunder         = (*MockGateway)(nil)
	_ gateway.Tokenizer        = (*MockGateway)(nil)
	_ gateway.RecurringCharger = (*MockGateway)(nil)
	_ gateway.WebhookHandler   = (*MockGateway)(nil)
	_ gateway.ConfigAware      = (*MockGateway)(nil)
	_ gateway.Charger          = (*MockChargeOnlyGateway)(nil)
)

// MockGateway implements every gateway capability with scripted answers.
// Unset hooks fall back to a successful response.
type MockGateway struct {
	mu sync.Mutex

	GatewayName types.PaymentGatewayType
	// Unconfigured lists capabilities reported as lacking credentials
	Unconfigured map[gateway.Capability]bool
	Recurring    bool
	Tokenization bool

	ChargeFn      func(ctx context.Context, req *gateway.ChargeRequest) (*gateway.PaymentResult, error)
	VerifyFn      func(ctx context.Context, transactionID string) (*gateway.PaymentResult, error)
	RefundFn      func(ctx context.Context, req *gateway.RefundRequest) (*gateway.PaymentResult, error)
	SavedChargeFn func(ctx context.Context, req *gateway.SavedMethodChargeRequest) (*gateway.PaymentResult, error)
	DeleteTokenFn func(ctx context.Context, token string) error
	// SignatureValid is what Verify answers
	SignatureValid bool
	// ParseFn decodes webhook bodies, the default expects a JSON encoded MockWebhookBody
	ParseFn func(body []byte) (*gateway.WebhookPayload, error)

	Charges       []*gateway.ChargeRequest
	Refunds       []*gateway.RefundRequest
	SavedCharges  []*gateway.SavedMethodChargeRequest
	DeletedTokens []string
}

// NewMockGateway returns a fully capable gateway named name
func NewMockGateway(name types.PaymentGatewayType) *MockGateway {
	return &MockGateway{
		GatewayName:    name,
		Unconfigured:   map[gateway.Capability]bool{},
		Recurring:      true,
		Tokenization:   true,
		SignatureValid: true,
	}
}

func (g *MockGateway) Name() types.PaymentGatewayType {
	return g.GatewayName
}

func (g *MockGateway) IsConfigured(capability gateway.Capability) bool {
	return !g.Unconfigured[capability]
}

func (g *MockGateway) Charge(ctx context.Context, req *gateway.ChargeRequest) (*gateway.PaymentResult, error) {
	g.mu.Lock()
	g.Charges = append(g.Charges, req)
	g.mu.Unlock()
	if g.ChargeFn != nil {
		return g.ChargeFn(ctx, req)
	}
	return &gateway.PaymentResult{
		Status:         gateway.ResultStatusPending,
		GatewayOrderID: "order_" + req.PaymentID,
		RedirectURL:    "https://pay.test/checkout/" + req.PaymentID,
	}, nil
}

func (g *MockGateway) VerifyPayment(ctx context.Context, transactionID string, data map[string]string) (*gateway.PaymentResult, error) {
	if g.VerifyFn != nil {
		return g.VerifyFn(ctx, transactionID)
	}
	return &gateway.PaymentResult{Status: gateway.ResultStatusSuccess, TransactionID: transactionID}, nil
}

func (g *MockGateway) Refund(ctx context.Context, req *gateway.RefundRequest) (*gateway.PaymentResult, error) {
	g.mu.Lock()
	g.Refunds = append(g.Refunds, req)
	g.mu.Unlock()
	if g.RefundFn != nil {
		return g.RefundFn(ctx, req)
	}
	return &gateway.PaymentResult{Status: gateway.ResultStatusSuccess, TransactionID: "refund_" + req.TransactionID}, nil
}

func (g *MockGateway) SupportsTokenization() bool {
	return g.Tokenization
}

func (g *MockGateway) DeleteToken(ctx context.Context, token string) error {
	g.mu.Lock()
	g.DeletedTokens = append(g.DeletedTokens, token)
	g.mu.Unlock()
	if g.DeleteTokenFn != nil {
		return g.DeleteTokenFn(ctx, token)
	}
	return nil
}

func (g *MockGateway) SupportsRecurring() bool {
	return g.Recurring
}

func (g *MockGateway) ChargeSavedMethod(ctx context.Context, req *gateway.SavedMethodChargeRequest) (*gateway.PaymentResult, error) {
	g.mu.Lock()
	g.SavedCharges = append(g.SavedCharges, req)
	g.mu.Unlock()
	if g.SavedChargeFn != nil {
		return g.SavedChargeFn(ctx, req)
	}
	return &gateway.PaymentResult{Status: gateway.ResultStatusSuccess, TransactionID: "txn_" + req.PaymentID}, nil
}

func (g *MockGateway) Verify(ctx context.Context, req *gateway.WebhookRequest) (bool, error) {
	return g.SignatureValid, nil
}

// MockWebhookBody is the JSON body the default parser understands
type MockWebhookBody struct {
	TransactionID string              `json:"transaction_id"`
	OrderID       string              `json:"order_id"`
	Reference     string              `json:"reference"`
	Status        types.PaymentStatus `json:"status"`
	AmountCents   *int64              `json:"amount_cents,omitempty"`
	CardToken     string              `json:"card_token,omitempty"`
	SaveCard      bool                `json:"save_card,omitempty"`
}

func (g *MockGateway) ParseWebhook(body []byte) (*gateway.WebhookPayload, error) {
	if g.ParseFn != nil {
		return g.ParseFn(body)
	}
	var b MockWebhookBody
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, err
	}
	payload := &gateway.WebhookPayload{
		EventID:           b.TransactionID + "-" + string(b.Status),
		EventType:         "transaction",
		TransactionID:     b.TransactionID,
		OrderID:           b.OrderID,
		Reference:         gateway.ParseMerchantReference(b.Reference),
		RawReference:      b.Reference,
		AmountCents:       b.AmountCents,
		GatewayStatus:     string(b.Status),
		Status:            b.Status,
		SaveCardRequested: b.SaveCard,
		Raw:               map[string]any{"transaction_id": b.TransactionID, "status": string(b.Status)},
	}
	if b.CardToken != "" {
		payload.Card = &gateway.CardDetails{
			Token:    b.CardToken,
			Brand:    "Visa",
			LastFour: "4242",
			Type:     types.SavedPaymentMethodTypeCard,
		}
	}
	return payload, nil
}

// MockChargeOnlyGateway can only start payments
type MockChargeOnlyGateway struct {
	GatewayName types.PaymentGatewayType
}

func (g *MockChargeOnlyGateway) Name() types.PaymentGatewayType {
	return g.GatewayName
}

func (g *MockChargeOnlyGateway) Charge(ctx context.Context, req *gateway.ChargeRequest) (*gateway.PaymentResult, error) {
	return &gateway.PaymentResult{Status: gateway.ResultStatusPending}, nil
}
