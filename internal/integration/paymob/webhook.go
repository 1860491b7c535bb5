package paymob

import (
	"fmt"
	"strconv"
	"strings"

	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/types"
	"github.com/samber/lo"
)

// MapStatus converts a Paymob status word to a payment status
func MapStatus(status string) types.PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success", "captured":
		return types.PaymentStatusSuccess
	case "pending":
		return types.PaymentStatusPending
	case "failed", "declined":
		return types.PaymentStatusFailed
	case "voided", "cancelled":
		return types.PaymentStatusCancelled
	case "expired":
		return types.PaymentStatusExpired
	default:
		return types.PaymentStatusPending
	}
}

// transactionStatus derives a status word from the transaction flags
func transactionStatus(obj map[string]any) string {
	switch {
	case gateway.FieldBool(obj, "success"):
		return "SUCCESS"
	case gateway.FieldBool(obj, "pending"):
		return "PENDING"
	case gateway.FieldBool(obj, "is_voided"):
		return "VOIDED"
	case gateway.FieldBool(obj, "error_occured"):
		return "FAILED"
	default:
		return "DECLINED"
	}
}

// ParseWebhook normalizes a TRANSACTION or TOKEN callback
func (c *Client) ParseWebhook(body []byte) (*gateway.WebhookPayload, error) {
	raw, err := gateway.DecodeJSON(body)
	if err != nil {
		return nil, err
	}
	obj, ok := raw["obj"].(map[string]any)
	if !ok {
		return nil, ierr.NewError("paymob webhook missing obj").
			WithHint("Webhook payload is malformed").
			Mark(ierr.ErrValidation)
	}

	eventType := strings.ToUpper(gateway.FieldString(raw, "type"))
	if eventType == EventTypeToken {
		return parseTokenCallback(obj, raw), nil
	}

	gatewayStatus := transactionStatus(obj)
	status := MapStatus(gatewayStatus)
	transactionID := gateway.FieldString(obj, "id")
	rawReference := gateway.FieldString(obj, "order.merchant_order_id")
	if rawReference == "" {
		rawReference = gateway.FieldString(obj, "special_reference")
	}

	payload := &gateway.WebhookPayload{
		EventID:           fmt.Sprintf("%s-%s", transactionID, status),
		EventType:         lo.Ternary(eventType == "", EventTypeTransaction, eventType),
		TransactionID:     transactionID,
		OrderID:           gateway.FieldString(obj, "order.id"),
		Reference:         gateway.ParseMerchantReference(rawReference),
		RawReference:      rawReference,
		Currency:          gateway.FieldString(obj, "currency"),
		GatewayStatus:     gatewayStatus,
		Status:            status,
		SaveCardRequested: saveCardRequested(obj),
		Raw:               raw,
	}
	if cents, err := strconv.ParseInt(gateway.FieldString(obj, "amount_cents"), 10, 64); err == nil {
		payload.AmountCents = &cents
	}
	if status != types.PaymentStatusSuccess {
		payload.ErrorMessage = gateway.FieldString(obj, "data.message")
	}
	if status == types.PaymentStatusSuccess {
		payload.Card = cardFromTransaction(obj)
	}
	return payload, nil
}

func parseTokenCallback(obj, raw map[string]any) *gateway.WebhookPayload {
	orderID := gateway.FieldString(obj, "order_id")
	card := &gateway.CardDetails{
		Token:    gateway.FieldString(obj, "token"),
		Brand:    strings.ToLower(gateway.FieldString(obj, "card_subtype")),
		LastFour: lastFour(gateway.FieldString(obj, "masked_pan")),
		Type:     types.SavedPaymentMethodTypeCard,
	}
	if card.Brand == "" {
		card.Brand = DetectCardBrand(gateway.FieldString(obj, "masked_pan"))
	}

	return &gateway.WebhookPayload{
		EventID:       fmt.Sprintf("token-%s", gateway.FieldString(obj, "id")),
		EventType:     EventTypeToken,
		OrderID:       orderID,
		GatewayStatus: "TOKEN",
		Status:        types.PaymentStatusPending,
		Card:          card,
		Raw:           raw,
	}
}

func saveCardRequested(obj map[string]any) bool {
	for _, path := range []string{
		"payment_key_claims.extra.save_card",
		"order.data.save_card",
		"data.save_card",
	} {
		if gateway.FieldBool(obj, path) {
			return true
		}
	}
	return false
}

func cardFromTransaction(obj map[string]any) *gateway.CardDetails {
	if !strings.EqualFold(gateway.FieldString(obj, "source_data.type"), "card") {
		return nil
	}
	pan := gateway.FieldString(obj, "source_data.pan")
	brand := strings.ToLower(gateway.FieldString(obj, "source_data.sub_type"))
	if brand == "" {
		brand = DetectCardBrand(pan)
	}
	return &gateway.CardDetails{
		Token:    gateway.FieldString(obj, "source_data.token"),
		Brand:    brand,
		LastFour: lastFour(pan),
		Type:     types.SavedPaymentMethodTypeCard,
	}
}

// DetectCardBrand guesses the scheme from the leading digits of a (possibly masked) pan
func DetectCardBrand(pan string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, pan)
	if len(pan) > 0 && (pan[0] < '0' || pan[0] > '9') {
		return "unknown"
	}

	switch {
	case strings.HasPrefix(digits, "4"):
		return "visa"
	case strings.HasPrefix(digits, "50"):
		return "meeza"
	case len(digits) >= 2 && digits[0] == '5' && digits[1] >= '1' && digits[1] <= '5':
		return "mastercard"
	case strings.HasPrefix(digits, "34"), strings.HasPrefix(digits, "37"):
		return "amex"
	default:
		return "unknown"
	}
}

func lastFour(pan string) string {
	if len(pan) < 4 {
		return pan
	}
	return pan[len(pan)-4:]
}
