package easykash

import (
	"fmt"
	"strings"

	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/types"
	"github.com/shopspring/decimal"
)

func MapStatus(status string) types.PaymentStatus {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "PAID", "DELIVERED":
		return types.PaymentStatusSuccess
	case "NEW", "PENDING":
		return types.PaymentStatusPending
	case "FAILED":
		return types.PaymentStatusFailed
	case "EXPIRED":
		return types.PaymentStatusExpired
	case "CANCELED", "CANCELLED":
		return types.PaymentStatusCancelled
	case "REFUNDED":
		return types.PaymentStatusRefunded
	default:
		return types.PaymentStatusPending
	}
}

// ParseWebhook normalizes an EasyKash callback, amounts arrive in major units
func (c *Client) ParseWebhook(body []byte) (*gateway.WebhookPayload, error) {
	raw, err := gateway.DecodeJSON(body)
	if err != nil {
		return nil, err
	}

	gatewayStatus := strings.ToUpper(gateway.FieldString(raw, "status"))
	status := MapStatus(gatewayStatus)
	ref := gateway.FieldString(raw, "easykashRef")
	rawReference := gateway.FieldString(raw, "customerReference")

	eventKey := ref
	if eventKey == "" {
		eventKey = rawReference
	}

	payload := &gateway.WebhookPayload{
		EventID:       fmt.Sprintf("%s-%s", eventKey, status),
		EventType:     gatewayStatus,
		TransactionID: ref,
		OrderID:       gateway.FieldString(raw, "voucher"),
		Reference:     gateway.ParseMerchantReference(rawReference),
		RawReference:  rawReference,
		Currency:      gateway.FieldString(raw, "currency"),
		GatewayStatus: gatewayStatus,
		Status:        status,
		Raw:           raw,
	}
	if amount, err := decimal.NewFromString(gateway.FieldString(raw, "Amount")); err == nil {
		cents := amount.Shift(2).Round(0).IntPart()
		payload.AmountCents = &cents
	}
	if status == types.PaymentStatusFailed || status == types.PaymentStatusExpired || status == types.PaymentStatusCancelled {
		payload.ErrorMessage = "EasyKash reported payment as " + strings.ToLower(gatewayStatus)
	}
	return payload, nil
}
