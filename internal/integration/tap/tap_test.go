package tap

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/academyhub/paycore/internal/httpclient"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "sk_test_tap"

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	log := logger.NewNopLogger()
	client, err := NewClient(
		types.GatewayConfig{
			types.GatewayConfigSecretKey: testSecret,
			types.GatewayConfigBaseURL:   baseURL,
		},
		httpclient.NewClient(httpclient.ClientConfig{Timeout: 2 * time.Second}, log),
		log,
		WithFallbackTimeout(time.Second),
	)
	require.NoError(t, err)
	return client
}

func sign(message string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func chargeBody(t *testing.T, fields map[string]any) []byte {
	t.Helper()
	body := map[string]any{
		"id":       "chg_TS01",
		"amount":   500,
		"currency": "EGP",
		"status":   "CAPTURED",
		"reference": map[string]any{
			"transaction": "tenant_a-pay_1-1760000000",
			"order":       "pay_1",
		},
		"card": map[string]any{
			"brand":     "VISA",
			"last_four": "4242",
		},
	}
	for k, v := range fields {
		body[k] = v
	}
	b, err := json.Marshal(body)
	require.NoError(t, err)
	return b
}

func TestComputeHashString(t *testing.T) {
	payload := map[string]any{"id": "chg_1", "amount": json.Number("10.5"), "currency": "KWD", "status": "CAPTURED"}
	assert.Equal(t, sign("x_idchg_1x_amount10.500x_currencyKWDx_statusCAPTURED"), ComputeHashString(testSecret, payload))

	payload = map[string]any{"id": "chg_1", "amount": json.Number("500"), "currency": "EGP", "status": "CAPTURED"}
	assert.Equal(t, sign("x_idchg_1x_amount500.00x_currencyEGPx_statusCAPTURED"), ComputeHashString(testSecret, payload))
}

func TestVerifySigned(t *testing.T) {
	client := newTestClient(t, DefaultBaseURL)
	ctx := context.Background()
	valid := sign("x_idchg_TS01x_amount500.00x_currencyEGPx_statusCAPTURED")

	ok, err := client.Verify(ctx, &gateway.WebhookRequest{Body: chargeBody(t, map[string]any{"hashstring": valid}), Headers: http.Header{}})
	require.NoError(t, err)
	assert.True(t, ok)

	headers := http.Header{}
	headers.Set("hashstring", valid)
	ok, err = client.Verify(ctx, &gateway.WebhookRequest{Body: chargeBody(t, nil), Headers: headers})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.Verify(ctx, &gateway.WebhookRequest{Body: chargeBody(t, map[string]any{"hashstring": valid, "amount": 5000}), Headers: http.Header{}})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyRejectsSingleFieldTamper(t *testing.T) {
	client := newTestClient(t, DefaultBaseURL)
	valid := sign("x_idchg_TS01x_amount500.00x_currencyEGPx_statusCAPTURED")
	tampered := map[string]any{
		"id":       "chg_TS02",
		"amount":   501,
		"currency": "EGQ",
		"status":   "CAPTUREE",
	}

	for field, value := range tampered {
		t.Run(field, func(t *testing.T) {
			body := chargeBody(t, map[string]any{"hashstring": valid, field: value})
			ok, err := client.Verify(context.Background(), &gateway.WebhookRequest{Body: body, Headers: http.Header{}})
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestVerifyUnsignedFallsBackToLiveCharge(t *testing.T) {
	var lookups atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lookups.Add(1)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/charges/chg_TS01", r.URL.Path)
		assert.Equal(t, "Bearer "+testSecret, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"chg_TS01","status":"CAPTURED"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	ok, err := client.Verify(ctx, &gateway.WebhookRequest{Body: chargeBody(t, nil), Headers: http.Header{}})
	require.NoError(t, err)
	assert.True(t, ok)

	// a claim that disagrees with the live charge is rejected
	ok, err = client.Verify(ctx, &gateway.WebhookRequest{Body: chargeBody(t, map[string]any{"status": "FAILED"}), Headers: http.Header{}})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int32(2), lookups.Load())
}

func TestVerifyUnsignedRejectedWhenLookupFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":[{"description":"Charge not found"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ok, err := client.Verify(context.Background(), &gateway.WebhookRequest{Body: chargeBody(t, nil), Headers: http.Header{}})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyWithoutSecret(t *testing.T) {
	log := logger.NewNopLogger()
	client, err := NewClient(types.GatewayConfig{}, httpclient.NewClient(httpclient.ClientConfig{}, log), log)
	require.NoError(t, err)

	ok, err := client.Verify(context.Background(), &gateway.WebhookRequest{Body: chargeBody(t, nil), Headers: http.Header{}})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, client.IsConfigured(gateway.CapabilityCharge))
}

func TestParseWebhook(t *testing.T) {
	client := newTestClient(t, DefaultBaseURL)

	payload, err := client.ParseWebhook(chargeBody(t, nil))
	require.NoError(t, err)
	assert.Equal(t, "chg_TS01-success", payload.EventID)
	assert.Equal(t, "charge.captured", payload.EventType)
	assert.Equal(t, "chg_TS01", payload.TransactionID)
	assert.Equal(t, "pay_1", payload.OrderID)
	assert.Equal(t, types.PaymentStatusSuccess, payload.Status)
	require.NotNil(t, payload.AmountCents)
	assert.Equal(t, int64(50000), *payload.AmountCents)
	require.True(t, payload.Reference.IsValid())
	assert.Equal(t, "tenant_a", *payload.Reference.TenantID)
	require.NotNil(t, payload.Card)
	assert.Equal(t, "visa", payload.Card.Brand)
	assert.Equal(t, "4242", payload.Card.LastFour)
}

func TestParseWebhookMetadataReference(t *testing.T) {
	client := newTestClient(t, DefaultBaseURL)

	payload, err := client.ParseWebhook(chargeBody(t, map[string]any{
		"status":    "DECLINED",
		"reference": map[string]any{"transaction": "external"},
		"metadata":  map[string]any{"tenant_id": "tenant_b", "payment_id": "pay_9"},
		"response":  map[string]any{"message": "Do not honor"},
	}))
	require.NoError(t, err)
	assert.Equal(t, types.PaymentStatusFailed, payload.Status)
	assert.Equal(t, "Do not honor", payload.ErrorMessage)
	require.NotNil(t, payload.Reference.TenantID)
	assert.Equal(t, "tenant_b", *payload.Reference.TenantID)
	assert.Equal(t, "pay_9", *payload.Reference.PaymentID)
}

func TestMapStatus(t *testing.T) {
	tests := map[string]types.PaymentStatus{
		"CAPTURED":    types.PaymentStatusSuccess,
		"initiated":   types.PaymentStatusPending,
		"IN_PROGRESS": types.PaymentStatusPending,
		"DECLINED":    types.PaymentStatusFailed,
		"ABANDONED":   types.PaymentStatusFailed,
		"TIMEDOUT":    types.PaymentStatusFailed,
		"VOID":        types.PaymentStatusCancelled,
		"CANCELLED":   types.PaymentStatusCancelled,
		"UNKNOWN":     types.PaymentStatusPending,
	}
	for status, want := range tests {
		assert.Equal(t, want, MapStatus(status), status)
	}
}

func TestMinorToMajor(t *testing.T) {
	assert.Equal(t, "500", MinorToMajor(50000, "EGP").String())
	assert.Equal(t, "10.5", MinorToMajor(1050, "KWD").String())
	assert.Equal(t, "500.000", FormatAmount("500", "KWD"))
	assert.Equal(t, "abc", FormatAmount("abc", "EGP"))
}

func TestCharge(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/charges", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"id":"chg_new","status":"INITIATED","transaction":{"url":"https://tap.test/pay/chg_new"},"reference":{"order":"pay_1"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	result, err := client.Charge(context.Background(), &gateway.ChargeRequest{
		TenantID:          "tenant_a",
		PaymentID:         "pay_1",
		AmountCents:       49999,
		Currency:          "egp",
		Customer:          gateway.Customer{Name: "Omar Khaled", Email: "omar@academy.test"},
		MerchantReference: "tenant_a-pay_1-1760000000",
		SuccessURL:        "https://academy.test/done",
		WebhookURL:        "https://api.test/v1/webhooks/tap/tenant_a",
	})
	require.NoError(t, err)

	assert.True(t, result.IsPending())
	assert.Equal(t, "chg_new", result.TransactionID)
	assert.Equal(t, "https://tap.test/pay/chg_new", result.RedirectURL)

	assert.Equal(t, 499.99, received["amount"])
	assert.Equal(t, "EGP", received["currency"])
	assert.Equal(t, map[string]any{"url": "https://api.test/v1/webhooks/tap/tenant_a"}, received["post"])
	assert.Equal(t, map[string]any{"url": "https://academy.test/done"}, received["redirect"])
	assert.Equal(t, "Omar", received["customer"].(map[string]any)["first_name"])
}

func TestRefund(t *testing.T) {
	tests := []struct {
		name   string
		status string
		want   gateway.ResultStatus
	}{
		{"refunded", "REFUNDED", gateway.ResultStatusSuccess},
		{"pending", "PENDING", gateway.ResultStatusPending},
		{"in progress", "IN_PROGRESS", gateway.ResultStatusPending},
		{"failed", "FAILED", gateway.ResultStatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/refunds", r.URL.Path)
				_ = json.NewEncoder(w).Encode(map[string]any{"id": "re_1", "status": tt.status})
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			result, err := client.Refund(context.Background(), &gateway.RefundRequest{
				TransactionID: "chg_TS01",
				AmountCents:   12050,
				Currency:      "EGP",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Status)
			assert.Equal(t, "re_1", result.TransactionID)
			if tt.want == gateway.ResultStatusFailed {
				assert.Equal(t, "REFUND_FAILED", result.ErrorCode)
			}
		})
	}
}
