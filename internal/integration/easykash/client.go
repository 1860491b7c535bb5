package easykash

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/httpclient"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/types"
	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL = "https://back.easykash.net"

	// cash vouchers stay payable for three days
	defaultCashExpiryHours = 72

	defaultPhone = "01000000000"
	defaultName  = "Customer"

	configCashExpiryHours = "cash_expiry_hours"
	configPaymentOptions  = "payment_options"
)

var egyptianMobile = regexp.MustCompile(`^01[0125][0-9]{8}$`)

// Client is the EasyKash hosted direct-pay integration
type Client struct {
	cfg     types.GatewayConfig
	baseURL string
	http    httpclient.Client
	logger  *logger.Logger
}

var (
	_ gateway.Charger        = (*Client)(nil)
	_ gateway.Verifier       = (*Client)(nil)
	_ gateway.WebhookHandler = (*Client)(nil)
	_ gateway.ConfigAware    = (*Client)(nil)
)

func NewClient(cfg types.GatewayConfig, http httpclient.Client, logger *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(cfg.Get(types.GatewayConfigBaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, ierr.WithError(err).
			WithHint("EasyKash base url is invalid").
			Mark(ierr.ErrConfiguration)
	}
	return &Client{cfg: cfg, baseURL: baseURL, http: http, logger: logger}, nil
}

func (c *Client) Name() types.PaymentGatewayType {
	return types.PaymentGatewayTypeEasyKash
}

func (c *Client) IsConfigured(capability gateway.Capability) bool {
	switch capability {
	case gateway.CapabilityCharge, gateway.CapabilityVerify:
		return c.cfg.Has(types.GatewayConfigAPIKey)
	case gateway.CapabilityWebhook:
		return c.webhookSecret() != ""
	}
	return true
}

// Charge creates a hosted payment page and returns its redirect url
func (c *Client) Charge(ctx context.Context, req *gateway.ChargeRequest) (*gateway.PaymentResult, error) {
	if req.Customer.Email == "" {
		return gateway.Failed("INVALID_ARGUMENT", "customer email is required for EasyKash payments", nil), nil
	}

	name := req.Customer.Name
	if name == "" {
		name = defaultName
	}
	redirectURL := req.SuccessURL
	if redirectURL == "" {
		redirectURL = c.cfg.Get(types.GatewayConfigRedirectURL)
	}

	body := map[string]any{
		"amount":            decimal.NewFromInt(req.AmountCents).Shift(-2).InexactFloat64(),
		"currency":          strings.ToUpper(req.Currency),
		"cashExpiry":        c.cashExpiryHours(),
		"name":              name,
		"email":             req.Customer.Email,
		"mobile":            FormatPhone(req.Customer.Phone),
		"redirectUrl":       redirectURL,
		"customerReference": req.MerchantReference,
	}
	if options := c.paymentOptions(); len(options) > 0 {
		body["paymentOptions"] = options
	}

	c.logger.Infow("creating easykash payment",
		"payment_id", req.PaymentID,
		"customer_reference", req.MerchantReference,
		"currency", body["currency"],
	)

	data, rejection, err := c.post(ctx, "/api/directpayv1/pay", body)
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		return rejection.Result("PAYMENT_CREATION_FAILED"), nil
	}

	// errors come back as 200 with an error or bare message field
	redirect := gateway.FieldString(data, "redirectUrl")
	if msg := gateway.FieldString(data, "error"); msg != "" {
		return gateway.Failed("PAYMENT_CREATION_FAILED", msg, data), nil
	}
	if msg := gateway.FieldString(data, "message"); msg != "" && redirect == "" {
		return gateway.Failed("PAYMENT_CREATION_FAILED", msg, data), nil
	}
	if redirect == "" {
		return gateway.Failed("NO_REDIRECT_URL", "EasyKash did not return a redirect URL", data), nil
	}

	return &gateway.PaymentResult{
		Status:        gateway.ResultStatusPending,
		TransactionID: req.MerchantReference,
		RedirectURL:   redirect,
		RawResponse:   data,
		Metadata: map[string]any{
			"customer_reference": req.MerchantReference,
		},
	}, nil
}

// VerifyPayment inquires by customer reference, falling back to the transaction id
func (c *Client) VerifyPayment(ctx context.Context, transactionID string, data map[string]string) (*gateway.PaymentResult, error) {
	reference := data["customerReference"]
	if reference == "" {
		reference = transactionID
	}

	txn, rejection, err := c.post(ctx, "/api/cash-api/inquire", map[string]any{"customerReference": reference})
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		result := rejection.Result("VERIFICATION_FAILED")
		result.TransactionID = transactionID
		return result, nil
	}

	status := gateway.FieldString(txn, "status")
	ref := gateway.FieldString(txn, "easykashRef")
	if ref == "" {
		ref = transactionID
	}

	result := &gateway.PaymentResult{
		TransactionID:  ref,
		GatewayOrderID: gateway.FieldString(txn, "voucher"),
		RawResponse:    txn,
		Metadata: map[string]any{
			"payment_method": gateway.FieldString(txn, "PaymentMethod"),
		},
	}
	switch MapStatus(status) {
	case types.PaymentStatusSuccess:
		result.Status = gateway.ResultStatusSuccess
	case types.PaymentStatusPending:
		result.Status = gateway.ResultStatusPending
	default:
		result.Status = gateway.ResultStatusFailed
		result.ErrorCode = strings.ToUpper(status)
		result.ErrorMessage = "EasyKash reported payment as " + strings.ToLower(status)
	}
	return result, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (map[string]any, *gateway.Rejection, error) {
	payload, err := gateway.EncodeJSON(body)
	if err != nil {
		return nil, nil, err
	}
	return gateway.CallJSON(ctx, c.http, &httpclient.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + path,
		Headers: map[string]string{
			"Authorization": c.cfg.Get(types.GatewayConfigAPIKey),
			"Accept":        "application/json",
		},
		Body: payload,
	})
}

func (c *Client) cashExpiryHours() int {
	if hours, err := strconv.Atoi(c.cfg.Get(configCashExpiryHours)); err == nil && hours > 0 {
		return hours
	}
	return defaultCashExpiryHours
}

// paymentOptions restricts the hosted page only when explicitly configured as "2,4,5"
func (c *Client) paymentOptions() []int {
	raw := c.cfg.Get(configPaymentOptions)
	if raw == "" {
		return nil
	}
	var options []int
	for _, part := range strings.Split(raw, ",") {
		if opt, err := strconv.Atoi(strings.TrimSpace(part)); err == nil && opt > 0 {
			options = append(options, opt)
		}
	}
	return options
}

func (c *Client) webhookSecret() string {
	if secret := c.cfg.Get(types.GatewayConfigHMACSecret); secret != "" {
		return secret
	}
	return c.cfg.Get(types.GatewayConfigSecretKey)
}

// FormatPhone normalizes a phone number to the 11 digit Egyptian mobile format
// EasyKash accepts, substituting a placeholder for anything else.
func FormatPhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	switch {
	case digits == "":
		return defaultPhone
	case strings.HasPrefix(digits, "0020") && len(digits) > 12:
		digits = digits[4:]
	case strings.HasPrefix(digits, "20") && len(digits) > 10:
		digits = digits[2:]
	case strings.HasPrefix(digits, "966"):
		return defaultPhone
	case len(digits) > 11 && !strings.HasPrefix(digits, "0"):
		return defaultPhone
	}

	if !strings.HasPrefix(digits, "0") {
		digits = "0" + digits
	}
	if egyptianMobile.MatchString(digits) {
		return digits
	}
	return defaultPhone
}
