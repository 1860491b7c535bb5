package paymob

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/httpclient"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/types"
)

const (
	DefaultBaseURL = "https://accept.paymob.com"

	// payment keys issued for token charges stay valid for an hour
	paymentKeyExpirySeconds = 3600
)

// Client talks to the Paymob Accept APIs
type Client struct {
	cfg     types.GatewayConfig
	baseURL string
	http    httpclient.Client
	logger  *logger.Logger
}

var (
	_ gateway.Charger          = (*Client)(nil)
	_ gateway.Verifier         = (*Client)(nil)
	_ gateway.Tokenizer        = (*Client)(nil)
	_ gateway.RecurringCharger = (*Client)(nil)
	_ gateway.WebhookHandler   = (*Client)(nil)
	_ gateway.ConfigAware      = (*Client)(nil)
)

// NewClient binds a Paymob client to merged gateway configuration
func NewClient(cfg types.GatewayConfig, http httpclient.Client, logger *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(cfg.Get(types.GatewayConfigBaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Paymob base url is invalid").
			Mark(ierr.ErrConfiguration)
	}

	return &Client{
		cfg:     cfg,
		baseURL: baseURL,
		http:    http,
		logger:  logger,
	}, nil
}

func (c *Client) Name() types.PaymentGatewayType {
	return types.PaymentGatewayTypePaymob
}

func (c *Client) IsConfigured(capability gateway.Capability) bool {
	switch capability {
	case gateway.CapabilityCharge:
		return c.cfg.Has(types.GatewayConfigSecretKey) && c.cfg.Has(types.GatewayConfigIntegrationID)
	case gateway.CapabilityVerify:
		return c.cfg.Has(types.GatewayConfigAPIKey)
	case gateway.CapabilityWebhook:
		return c.cfg.Has(types.GatewayConfigHMACSecret)
	}
	return true
}

// Charge creates a unified checkout intention and returns the hosted iframe url
func (c *Client) Charge(ctx context.Context, req *gateway.ChargeRequest) (*gateway.PaymentResult, error) {
	integrations := c.integrationIDs(req.PaymentMethod)
	if len(integrations) == 0 {
		return gateway.Failed("NO_INTEGRATION_ID",
			fmt.Sprintf("no Paymob integration configured for payment method %s", req.PaymentMethod), nil), nil
	}

	description := req.Description
	if description == "" {
		description = "Academy payment"
	}

	body := map[string]any{
		"amount":          req.AmountCents,
		"currency":        req.Currency,
		"payment_methods": integrations,
		"items": []map[string]any{{
			"name":     description,
			"amount":   req.AmountCents,
			"quantity": 1,
		}},
		"billing_data": billingData(req.Customer, nil),
		"extras": map[string]any{
			"payment_id": req.PaymentID,
			"tenant_id":  req.TenantID,
			"save_card":  req.SaveCard,
		},
		"special_reference": req.MerchantReference,
	}
	if req.SaveCard {
		body["save_card"] = true
	}
	if req.SuccessURL != "" {
		body["redirection_url"] = req.SuccessURL
	}
	if req.WebhookURL != "" {
		body["notification_url"] = req.WebhookURL
	}

	c.logger.Infow("creating paymob intention",
		"payment_id", req.PaymentID,
		"amount_cents", req.AmountCents,
		"currency", req.Currency,
		"payment_methods", integrations,
	)

	data, rejection, err := c.post(ctx, "/v1/intention/", body, map[string]string{
		"Authorization": "Token " + c.cfg.Get(types.GatewayConfigSecretKey),
	})
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		c.logger.Warnw("paymob intention rejected",
			"payment_id", req.PaymentID,
			"status_code", rejection.StatusCode,
		)
		return rejection.Result("INTENTION_FAILED"), nil
	}

	clientSecret := gateway.FieldString(data, "client_secret")
	result := &gateway.PaymentResult{
		Status:         gateway.ResultStatusPending,
		IntentID:       gateway.FieldString(data, "id"),
		GatewayOrderID: gateway.FieldString(data, "intention_order_id"),
		ClientSecret:   clientSecret,
		RawResponse:    data,
		Metadata: map[string]any{
			"merchant_order_id":   req.MerchantReference,
			"save_card_requested": req.SaveCard,
		},
	}
	if publicKey := c.cfg.Get(types.GatewayConfigPublicKey); clientSecret != "" && publicKey != "" {
		result.IframeURL = fmt.Sprintf("%s/unifiedcheckout/?publicKey=%s&clientSecret=%s",
			c.baseURL, url.QueryEscape(publicKey), url.QueryEscape(clientSecret))
	}
	return result, nil
}

// VerifyPayment reads the transaction from Paymob with a fresh auth token
func (c *Client) VerifyPayment(ctx context.Context, transactionID string, _ map[string]string) (*gateway.PaymentResult, error) {
	token, rejection, err := c.authToken(ctx)
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		result := rejection.Result("AUTH_FAILED")
		result.TransactionID = transactionID
		return result, nil
	}

	data, rejection, err := gateway.CallJSON(ctx, c.http, &httpclient.Request{
		Method:    http.MethodGet,
		URL:       c.baseURL + "/api/acceptance/transactions/" + url.PathEscape(transactionID),
		Headers:   map[string]string{"Authorization": "Bearer " + token},
		Retryable: true,
	})
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		result := rejection.Result("VERIFICATION_FAILED")
		result.TransactionID = transactionID
		return result, nil
	}

	return transactionResult(data, transactionID), nil
}

func (c *Client) SupportsTokenization() bool {
	return c.cfg.Has(types.GatewayConfigAPIKey) && c.cardIntegrationID() != 0
}

func (c *Client) SupportsRecurring() bool {
	return c.SupportsTokenization()
}

// DeleteToken only records the request, Paymob has no token revocation endpoint
func (c *Client) DeleteToken(_ context.Context, token string) error {
	c.logger.Infow("paymob token marked for deletion", "token_prefix", logger.Truncate(token))
	return nil
}

// ChargeSavedMethod charges a saved card token: order, payment key, then pay with TOKEN
func (c *Client) ChargeSavedMethod(ctx context.Context, req *gateway.SavedMethodChargeRequest) (*gateway.PaymentResult, error) {
	token, rejection, err := c.authToken(ctx)
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		return rejection.Result("AUTH_FAILED"), nil
	}

	order, rejection, err := c.post(ctx, "/api/ecommerce/orders", map[string]any{
		"auth_token":        token,
		"delivery_needed":   false,
		"amount_cents":      req.AmountCents,
		"currency":          req.Currency,
		"merchant_order_id": req.MerchantReference,
		"items":             []any{},
	}, nil)
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		return rejection.Result("ORDER_FAILED"), nil
	}
	orderID := gateway.FieldString(order, "id")

	integrationID := c.cardIntegrationID()
	if moto := c.cfg.Get(types.GatewayConfigMotoIntegration); moto != "" {
		if id, err := strconv.Atoi(moto); err == nil && id > 0 {
			integrationID = id
		}
	}

	key, rejection, err := c.post(ctx, "/api/acceptance/payment_keys", map[string]any{
		"auth_token":     token,
		"amount_cents":   req.AmountCents,
		"expiration":     paymentKeyExpirySeconds,
		"order_id":       orderID,
		"billing_data":   billingData(req.Customer, req.BillingData),
		"currency":       req.Currency,
		"integration_id": integrationID,
	}, nil)
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		result := rejection.Result("PAYMENT_KEY_FAILED")
		result.GatewayOrderID = orderID
		return result, nil
	}

	txn, rejection, err := c.post(ctx, "/api/acceptance/payments/pay", map[string]any{
		"source": map[string]any{
			"identifier": req.Token,
			"subtype":    "TOKEN",
		},
		"payment_token": gateway.FieldString(key, "token"),
	}, nil)
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		result := rejection.Result("PAYMENT_FAILED")
		result.GatewayOrderID = orderID
		return result, nil
	}

	result := transactionResult(txn, gateway.FieldString(txn, "id"))
	if result.GatewayOrderID == "" {
		result.GatewayOrderID = orderID
	}
	result.Metadata = map[string]any{
		"is_token_payment":  true,
		"merchant_order_id": req.MerchantReference,
	}
	return result, nil
}

func (c *Client) authToken(ctx context.Context) (string, *gateway.Rejection, error) {
	apiKey := c.cfg.Get(types.GatewayConfigAPIKey)
	if apiKey == "" {
		return "", nil, ierr.NewError("paymob api key missing").
			WithHint("Configure the Paymob api key").
			Mark(ierr.ErrConfiguration)
	}

	data, rejection, err := c.post(ctx, "/api/auth/tokens", map[string]any{"api_key": apiKey}, nil)
	if err != nil || rejection != nil {
		return "", rejection, err
	}
	token := gateway.FieldString(data, "token")
	if token == "" {
		return "", &gateway.Rejection{StatusCode: http.StatusOK, Body: data}, nil
	}
	return token, nil, nil
}

func (c *Client) post(ctx context.Context, path string, body any, headers map[string]string) (map[string]any, *gateway.Rejection, error) {
	payload, err := gateway.EncodeJSON(body)
	if err != nil {
		return nil, nil, err
	}
	return gateway.CallJSON(ctx, c.http, &httpclient.Request{
		Method:  http.MethodPost,
		URL:     c.baseURL + path,
		Headers: headers,
		Body:    payload,
	})
}

func (c *Client) cardIntegrationID() int {
	id, err := strconv.Atoi(c.cfg.Get(types.GatewayConfigIntegrationID))
	if err != nil {
		return 0
	}
	return id
}

func (c *Client) integrationIDs(method types.PaymentMethodType) []int {
	parse := func(key string) []int {
		id, err := strconv.Atoi(c.cfg.Get(key))
		if err != nil || id <= 0 {
			return nil
		}
		return []int{id}
	}
	if method == types.PaymentMethodTypeWallet {
		return parse(types.GatewayConfigWalletIntegration)
	}
	return parse(types.GatewayConfigIntegrationID)
}

func billingData(customer gateway.Customer, overrides map[string]any) map[string]any {
	data := map[string]any{
		"first_name":   "NA",
		"last_name":    "NA",
		"email":        "na@na.com",
		"phone_number": "NA",
		"country":      "EG",
		"city":         "NA",
		"street":       "NA",
		"building":     "NA",
		"floor":        "NA",
		"apartment":    "NA",
	}
	for k, v := range overrides {
		data[k] = v
	}
	if customer.Name != "" {
		first, last, found := strings.Cut(customer.Name, " ")
		data["first_name"] = first
		data["last_name"] = first
		if found && last != "" {
			data["last_name"] = last
		}
	}
	if customer.Email != "" {
		data["email"] = customer.Email
	}
	if customer.Phone != "" {
		data["phone_number"] = customer.Phone
	}
	return data
}

// transactionResult maps a Paymob transaction object to a result
func transactionResult(txn map[string]any, transactionID string) *gateway.PaymentResult {
	result := &gateway.PaymentResult{
		TransactionID:  transactionID,
		GatewayOrderID: gateway.FieldString(txn, "order.id"),
		RawResponse:    txn,
	}

	switch MapStatus(transactionStatus(txn)) {
	case types.PaymentStatusSuccess:
		result.Status = gateway.ResultStatusSuccess
		result.Card = cardFromTransaction(txn)
	case types.PaymentStatusPending, types.PaymentStatusProcessing:
		result.Status = gateway.ResultStatusPending
	default:
		result.Status = gateway.ResultStatusFailed
		result.ErrorCode = gateway.FieldString(txn, "data.txn_response_code")
		if result.ErrorCode == "" {
			result.ErrorCode = "DECLINED"
		}
		result.ErrorMessage = gateway.FieldString(txn, "data.message")
		if result.ErrorMessage == "" {
			result.ErrorMessage = "Payment was declined"
		}
	}
	return result
}
