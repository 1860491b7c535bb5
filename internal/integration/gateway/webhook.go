package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/types"
)

// WebhookRequest is the raw inbound callback, consumed once by a SignatureVerifier
type WebhookRequest struct {
	Body    []byte
	Query   url.Values
	Headers http.Header
}

// WebhookPayload is a gateway callback normalized to our vocabulary
type WebhookPayload struct {
	// EventID is the idempotency key of the callback within its gateway
	EventID       string
	EventType     string
	TransactionID string
	OrderID       string
	Reference     MerchantReference
	RawReference  string
	AmountCents   *int64
	Currency      string
	GatewayStatus string
	Status        types.PaymentStatus
	ErrorMessage  string
	// SaveCardRequested is true when the payer opted in to keep the card
	SaveCardRequested bool
	Card              *CardDetails
	Raw               map[string]any
}

// ToResult converts the callback into the result shape the processor applies
func (p *WebhookPayload) ToResult() *PaymentResult {
	result := &PaymentResult{
		TransactionID:  p.TransactionID,
		GatewayOrderID: p.OrderID,
		ErrorMessage:   p.ErrorMessage,
		RawResponse:    Sanitize(p.Raw),
		Card:           p.Card,
	}
	switch p.Status {
	case types.PaymentStatusSuccess:
		result.Status = ResultStatusSuccess
	case types.PaymentStatusFailed, types.PaymentStatusCancelled, types.PaymentStatusExpired:
		result.Status = ResultStatusFailed
		result.CanonicalStatus = p.Status
		if result.ErrorCode == "" {
			result.ErrorCode = strings.ToUpper(p.GatewayStatus)
		}
	default:
		result.Status = ResultStatusPending
	}
	return result
}

// DecodeJSON decodes a webhook body keeping numbers as their literal text
func DecodeJSON(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	out := make(map[string]any)
	if err := dec.Decode(&out); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Webhook body is not valid JSON").
			Mark(ierr.ErrValidation)
	}
	return out, nil
}

// Lookup walks a dotted path such as "order.id" through nested objects
func Lookup(obj map[string]any, path string) (any, bool) {
	var current any = obj
	for _, key := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// FieldString renders a payload value the way gateways sign it.
// Booleans become "true" or "false" and missing values become "".
func FieldString(obj map[string]any, path string) string {
	v, ok := Lookup(obj, path)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// FieldBool reads a boolean that may also be encoded as a string
func FieldBool(obj map[string]any, path string) bool {
	return strings.EqualFold(FieldString(obj, path), "true")
}

// Sanitize returns a copy of a payload without signatures and card data.
// Sensitive keys are removed at every nesting level.
func Sanitize(raw map[string]any) map[string]any {
	if raw == nil {
		return nil
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if nested, ok := v.(map[string]any); ok {
			out[k] = Sanitize(nested)
			continue
		}
		out[k] = v
	}
	for _, key := range types.WebhookSensitiveKeys {
		deletePath(out, key)
	}
	return out
}

func deletePath(obj map[string]any, path string) {
	keys := strings.Split(path, ".")
	current := obj
	for _, key := range keys[:len(keys)-1] {
		next, ok := current[key].(map[string]any)
		if !ok {
			return
		}
		current = next
	}
	delete(current, keys[len(keys)-1])
}
