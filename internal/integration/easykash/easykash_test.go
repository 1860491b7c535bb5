package easykash

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/academyhub/paycore/internal/httpclient"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "easykash_secret"

func newTestClient(t *testing.T, settings map[string]string) *Client {
	t.Helper()
	log := logger.NewNopLogger()
	client, err := NewClient(types.GatewayConfig(settings), httpclient.NewClient(httpclient.ClientConfig{Timeout: 2 * time.Second}, log), log)
	require.NoError(t, err)
	return client
}

func callbackBody(t *testing.T, status, signature string) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"ProductCode":       "EDV4471",
		"Amount":            "500.00",
		"ProductType":       "Direct Pay",
		"PaymentMethod":     "Cash Through Fawry",
		"status":            status,
		"easykashRef":       "2911105009",
		"customerReference": "tenant_a-pay_1-1760000000",
		"voucher":           "32423432",
		"signatureHash":     signature,
	})
	require.NoError(t, err)
	return b
}

func sign(status string) string {
	mac := hmac.New(sha512.New, []byte(testSecret))
	mac.Write([]byte("EDV4471500.00Direct PayCash Through Fawry" + status + "2911105009tenant_a-pay_1-1760000000"))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, map[string]string{types.GatewayConfigHMACSecret: testSecret})

	ok, err := client.Verify(ctx, &gateway.WebhookRequest{Body: callbackBody(t, "PAID", sign("PAID"))})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.Verify(ctx, &gateway.WebhookRequest{Body: callbackBody(t, "PAID", sign("FAILED"))})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = client.Verify(ctx, &gateway.WebhookRequest{Body: callbackBody(t, "PAID", "")})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyRejectsSingleFieldTamper(t *testing.T) {
	client := newTestClient(t, map[string]string{types.GatewayConfigHMACSecret: testSecret})
	tampered := map[string]string{
		"ProductCode":       "EDV4472",
		"Amount":            "500.01",
		"ProductType":       "Direct Pax",
		"PaymentMethod":     "Cash Through Fawrz",
		"status":            "PAIE",
		"easykashRef":       "2911105008",
		"customerReference": "tenant_a-pay_2-1760000000",
	}

	for field, value := range tampered {
		t.Run(field, func(t *testing.T) {
			var body map[string]any
			require.NoError(t, json.Unmarshal(callbackBody(t, "PAID", sign("PAID")), &body))
			body[field] = value
			raw, err := json.Marshal(body)
			require.NoError(t, err)

			ok, err := client.Verify(context.Background(), &gateway.WebhookRequest{Body: raw})
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestVerifyFallsBackToSecretKey(t *testing.T) {
	client := newTestClient(t, map[string]string{types.GatewayConfigSecretKey: testSecret})
	assert.True(t, client.IsConfigured(gateway.CapabilityWebhook))
	assert.False(t, client.IsConfigured(gateway.CapabilityCharge))

	ok, err := client.Verify(context.Background(), &gateway.WebhookRequest{Body: callbackBody(t, "PAID", sign("PAID"))})
	require.NoError(t, err)
	assert.True(t, ok)

	unconfigured := newTestClient(t, nil)
	ok, err = unconfigured.Verify(context.Background(), &gateway.WebhookRequest{Body: callbackBody(t, "PAID", sign("PAID"))})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseWebhook(t *testing.T) {
	client := newTestClient(t, nil)

	payload, err := client.ParseWebhook(callbackBody(t, "PAID", ""))
	require.NoError(t, err)
	assert.Equal(t, "2911105009-success", payload.EventID)
	assert.Equal(t, "2911105009", payload.TransactionID)
	assert.Equal(t, "32423432", payload.OrderID)
	assert.Equal(t, types.PaymentStatusSuccess, payload.Status)
	require.NotNil(t, payload.AmountCents)
	assert.Equal(t, int64(50000), *payload.AmountCents)
	require.True(t, payload.Reference.IsValid())
	assert.Equal(t, "pay_1", *payload.Reference.PaymentID)
	assert.Empty(t, payload.ErrorMessage)

	payload, err = client.ParseWebhook(callbackBody(t, "EXPIRED", ""))
	require.NoError(t, err)
	assert.Equal(t, types.PaymentStatusExpired, payload.Status)
	assert.Equal(t, "EasyKash reported payment as expired", payload.ErrorMessage)
	assert.Equal(t, types.PaymentStatusExpired, payload.ToResult().CanonicalStatus)
}

func TestMapStatus(t *testing.T) {
	assert.Equal(t, types.PaymentStatusSuccess, MapStatus("PAID"))
	assert.Equal(t, types.PaymentStatusSuccess, MapStatus("delivered"))
	assert.Equal(t, types.PaymentStatusPending, MapStatus("NEW"))
	assert.Equal(t, types.PaymentStatusFailed, MapStatus("FAILED"))
	assert.Equal(t, types.PaymentStatusExpired, MapStatus("EXPIRED"))
	assert.Equal(t, types.PaymentStatusCancelled, MapStatus("CANCELED"))
	assert.Equal(t, types.PaymentStatusRefunded, MapStatus("REFUNDED"))
	assert.Equal(t, types.PaymentStatusPending, MapStatus(""))
}

func TestFormatPhone(t *testing.T) {
	tests := map[string]string{
		"":                 "01000000000",
		"01012345678":      "01012345678",
		"+20 101 234 5678": "01012345678",
		"00201012345678":   "01012345678",
		"1012345678":       "01012345678",
		"+966501234567":    "01000000000",
		"02123456789":      "01000000000",
		"123":              "01000000000",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatPhone(in), in)
	}
}

func TestCharge(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/directpayv1/pay", r.URL.Path)
		assert.Equal(t, "ek_api_key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"redirectUrl":"https://easykash.test/pay/abc"}`))
	}))
	defer server.Close()

	client := newTestClient(t, map[string]string{
		types.GatewayConfigAPIKey:  "ek_api_key",
		types.GatewayConfigBaseURL: server.URL,
		configPaymentOptions:       "2, 4,x",
	})
	result, err := client.Charge(context.Background(), &gateway.ChargeRequest{
		PaymentID:         "pay_1",
		AmountCents:       50000,
		Currency:          "egp",
		Customer:          gateway.Customer{Email: "student@academy.test", Phone: "+201012345678"},
		MerchantReference: "tenant_a-pay_1-1760000000",
	})
	require.NoError(t, err)

	assert.True(t, result.IsPending())
	assert.Equal(t, "https://easykash.test/pay/abc", result.RedirectURL)
	assert.Equal(t, "tenant_a-pay_1-1760000000", result.TransactionID)

	assert.Equal(t, float64(500), received["amount"])
	assert.Equal(t, "EGP", received["currency"])
	assert.Equal(t, "Customer", received["name"])
	assert.Equal(t, "01012345678", received["mobile"])
	assert.Equal(t, float64(72), received["cashExpiry"])
	assert.Equal(t, []any{float64(2), float64(4)}, received["paymentOptions"])
	assert.Equal(t, "tenant_a-pay_1-1760000000", received["customerReference"])
}

func TestChargeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"error field", `{"error":"invalid amount"}`, "PAYMENT_CREATION_FAILED"},
		{"bare message", `{"message":"merchant disabled"}`, "PAYMENT_CREATION_FAILED"},
		{"no redirect", `{}`, "NO_REDIRECT_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(t, map[string]string{
				types.GatewayConfigAPIKey:  "ek_api_key",
				types.GatewayConfigBaseURL: server.URL,
			})
			result, err := client.Charge(context.Background(), &gateway.ChargeRequest{
				AmountCents: 100,
				Customer:    gateway.Customer{Email: "student@academy.test"},
			})
			require.NoError(t, err)
			assert.True(t, result.IsFailed())
			assert.Equal(t, tt.code, result.ErrorCode)
		})
	}
}

func TestChargeRequiresEmail(t *testing.T) {
	client := newTestClient(t, map[string]string{types.GatewayConfigAPIKey: "ek_api_key"})

	result, err := client.Charge(context.Background(), &gateway.ChargeRequest{AmountCents: 100})
	require.NoError(t, err)
	assert.Equal(t, "INVALID_ARGUMENT", result.ErrorCode)
}

func TestVerifyPayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tenant_a-pay_1-1760000000", body["customerReference"])
		_, _ = w.Write([]byte(`{"status":"PAID","easykashRef":"2911105009","voucher":"32423432","PaymentMethod":"Fawry"}`))
	}))
	defer server.Close()

	client := newTestClient(t, map[string]string{
		types.GatewayConfigAPIKey:  "ek_api_key",
		types.GatewayConfigBaseURL: server.URL,
	})
	result, err := client.VerifyPayment(context.Background(), "ignored", map[string]string{
		"customerReference": "tenant_a-pay_1-1760000000",
	})
	require.NoError(t, err)
	assert.True(t, result.IsSuccess())
	assert.Equal(t, "2911105009", result.TransactionID)
	assert.Equal(t, "32423432", result.GatewayOrderID)
}
