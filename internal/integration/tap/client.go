package tap

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/httpclient"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/types"
	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL = "https://api.tap.company/v2"

	DefaultFallbackTimeout = 10 * time.Second
)

// Client is the Tap charges API integration
type Client struct {
	cfg             types.GatewayConfig
	baseURL         string
	http            httpclient.Client
	logger          *logger.Logger
	fallbackTimeout time.Duration
}

// Option customizes a Client
type Option func(*Client)

// WithFallbackTimeout bounds the live status lookup used for unsigned webhooks
func WithFallbackTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.fallbackTimeout = d
		}
	}
}

var (
	_ gateway.Charger        = (*Client)(nil)
	_ gateway.Verifier       = (*Client)(nil)
	_ gateway.Refunder       = (*Client)(nil)
	_ gateway.WebhookHandler = (*Client)(nil)
	_ gateway.ConfigAware    = (*Client)(nil)
)

func NewClient(cfg types.GatewayConfig, http httpclient.Client, logger *logger.Logger, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(cfg.Get(types.GatewayConfigBaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Tap base url is invalid").
			Mark(ierr.ErrConfiguration)
	}

	c := &Client{
		cfg:             cfg,
		baseURL:         baseURL,
		http:            http,
		logger:          logger,
		fallbackTimeout: DefaultFallbackTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Name() types.PaymentGatewayType {
	return types.PaymentGatewayTypeTap
}

// IsConfigured: every Tap capability needs the secret key, webhooks use it as the hmac key too
func (c *Client) IsConfigured(gateway.Capability) bool {
	return c.cfg.Has(types.GatewayConfigSecretKey)
}

// Charge creates a charge against the hosted src_all source
func (c *Client) Charge(ctx context.Context, req *gateway.ChargeRequest) (*gateway.PaymentResult, error) {
	currency := strings.ToUpper(req.Currency)
	description := req.Description
	if description == "" {
		description = "Academy payment"
	}

	customer := map[string]any{
		"first_name": firstName(req.Customer.Name),
		"email":      req.Customer.Email,
	}
	if req.Customer.Phone != "" {
		customer["phone"] = map[string]any{"number": req.Customer.Phone}
	}

	body := map[string]any{
		"amount":       MinorToMajor(req.AmountCents, currency).InexactFloat64(),
		"currency":     currency,
		"threeDSecure": true,
		"save_card":    false,
		"description":  description,
		"reference": map[string]any{
			"transaction": req.MerchantReference,
			"order":       req.PaymentID,
		},
		"customer": customer,
		"source":   map[string]any{"id": "src_all"},
		"metadata": map[string]any{
			"payment_id": req.PaymentID,
			"tenant_id":  req.TenantID,
		},
	}
	if req.WebhookURL != "" {
		body["post"] = map[string]any{"url": req.WebhookURL}
	}
	redirect := req.SuccessURL
	if redirect == "" {
		redirect = c.cfg.Get(types.GatewayConfigRedirectURL)
	}
	if redirect != "" {
		body["redirect"] = map[string]any{"url": redirect}
	}

	c.logger.Infow("creating tap charge",
		"payment_id", req.PaymentID,
		"amount_cents", req.AmountCents,
		"currency", currency,
	)

	data, rejection, err := c.send(ctx, http.MethodPost, "/charges", body)
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		return rejection.Result("CHARGE_FAILED"), nil
	}

	result := chargeResult(data, "")
	result.RedirectURL = gateway.FieldString(data, "transaction.url")
	result.Metadata = map[string]any{"merchant_reference": req.MerchantReference}
	return result, nil
}

// VerifyPayment retrieves the live charge
func (c *Client) VerifyPayment(ctx context.Context, chargeID string, _ map[string]string) (*gateway.PaymentResult, error) {
	data, rejection, err := c.send(ctx, http.MethodGet, "/charges/"+url.PathEscape(chargeID), nil)
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		result := rejection.Result("VERIFICATION_FAILED")
		result.TransactionID = chargeID
		return result, nil
	}
	return chargeResult(data, chargeID), nil
}

// Refund refunds all or part of a captured charge
func (c *Client) Refund(ctx context.Context, req *gateway.RefundRequest) (*gateway.PaymentResult, error) {
	currency := strings.ToUpper(req.Currency)
	reason := req.Reason
	if reason == "" {
		reason = "requested_by_customer"
	}

	data, rejection, err := c.send(ctx, http.MethodPost, "/refunds", map[string]any{
		"charge_id": req.TransactionID,
		"amount":    MinorToMajor(req.AmountCents, currency).InexactFloat64(),
		"currency":  currency,
		"reason":    reason,
	})
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		result := rejection.Result("REFUND_FAILED")
		result.TransactionID = req.TransactionID
		return result, nil
	}

	result := &gateway.PaymentResult{
		TransactionID: gateway.FieldString(data, "id"),
		RawResponse:   data,
		Metadata:      map[string]any{"charge_id": req.TransactionID},
	}
	switch status := strings.ToUpper(gateway.FieldString(data, "status")); status {
	case "REFUNDED":
		result.Status = gateway.ResultStatusSuccess
	case "PENDING", "IN_PROGRESS", "INITIATED":
		result.Status = gateway.ResultStatusPending
	default:
		result.Status = gateway.ResultStatusFailed
		result.ErrorCode = "REFUND_" + status
		result.ErrorMessage = gateway.FieldString(data, "response.message")
	}
	return result, nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (map[string]any, *gateway.Rejection, error) {
	req := &httpclient.Request{
		Method: method,
		URL:    c.baseURL + path,
		Headers: map[string]string{
			"Authorization": "Bearer " + c.cfg.Get(types.GatewayConfigSecretKey),
			"Accept":        "application/json",
		},
		Retryable: method == http.MethodGet,
	}
	if body != nil {
		payload, err := gateway.EncodeJSON(body)
		if err != nil {
			return nil, nil, err
		}
		req.Body = payload
	}
	return gateway.CallJSON(ctx, c.http, req)
}

func chargeResult(data map[string]any, fallbackID string) *gateway.PaymentResult {
	id := gateway.FieldString(data, "id")
	if id == "" {
		id = fallbackID
	}
	result := &gateway.PaymentResult{
		TransactionID:  id,
		IntentID:       id,
		GatewayOrderID: gateway.FieldString(data, "reference.order"),
		RawResponse:    data,
	}

	status := strings.ToUpper(gateway.FieldString(data, "status"))
	switch MapStatus(status) {
	case types.PaymentStatusSuccess:
		result.Status = gateway.ResultStatusSuccess
	case types.PaymentStatusPending:
		result.Status = gateway.ResultStatusPending
	default:
		result.Status = gateway.ResultStatusFailed
		result.ErrorCode = status
		result.ErrorMessage = gateway.FieldString(data, "response.message")
	}
	return result
}

// CurrencyDecimals is the number of minor digits Tap uses for a currency
func CurrencyDecimals(currency string) int32 {
	switch strings.ToUpper(currency) {
	case "KWD", "BHD", "OMR", "JOD":
		return 3
	default:
		return 2
	}
}

// MinorToMajor converts stored cents to the major unit amount Tap expects.
// Amounts are stored with two minor digits regardless of currency.
func MinorToMajor(cents int64, currency string) decimal.Decimal {
	return decimal.NewFromInt(cents).Shift(-2).Round(CurrencyDecimals(currency))
}

func firstName(name string) string {
	if name == "" {
		return "Customer"
	}
	first, _, _ := strings.Cut(name, " ")
	return first
}
