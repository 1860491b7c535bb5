package tap

import (
	"fmt"
	"strings"

	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/types"
	"github.com/shopspring/decimal"
)

func MapStatus(status string) types.PaymentStatus {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "CAPTURED":
		return types.PaymentStatusSuccess
	case "INITIATED", "IN_PROGRESS":
		return types.PaymentStatusPending
	case "FAILED", "DECLINED", "ABANDONED", "RESTRICTED", "TIMEDOUT":
		return types.PaymentStatusFailed
	case "CANCELLED", "VOID":
		return types.PaymentStatusCancelled
	default:
		return types.PaymentStatusPending
	}
}

// ParseWebhook normalizes a Tap charge callback
func (c *Client) ParseWebhook(body []byte) (*gateway.WebhookPayload, error) {
	raw, err := gateway.DecodeJSON(body)
	if err != nil {
		return nil, err
	}

	chargeID := gateway.FieldString(raw, "id")
	gatewayStatus := strings.ToUpper(gateway.FieldString(raw, "status"))
	status := MapStatus(gatewayStatus)
	currency := strings.ToUpper(gateway.FieldString(raw, "currency"))
	rawReference := gateway.FieldString(raw, "reference.transaction")

	reference := gateway.ParseMerchantReference(rawReference)
	if !reference.IsValid() {
		// charges created outside checkout still carry our ids in metadata
		if tenantID := gateway.FieldString(raw, "metadata.tenant_id"); tenantID != "" {
			reference.TenantID = &tenantID
			if paymentID := gateway.FieldString(raw, "metadata.payment_id"); paymentID != "" {
				reference.PaymentID = &paymentID
			}
		}
	}

	payload := &gateway.WebhookPayload{
		EventID:       fmt.Sprintf("%s-%s", chargeID, status),
		EventType:     "charge." + strings.ToLower(gatewayStatus),
		TransactionID: chargeID,
		OrderID:       gateway.FieldString(raw, "reference.order"),
		Reference:     reference,
		RawReference:  rawReference,
		Currency:      currency,
		GatewayStatus: gatewayStatus,
		Status:        status,
		Raw:           raw,
	}
	if amount, err := decimal.NewFromString(gateway.FieldString(raw, "amount")); err == nil {
		cents := amount.Shift(2).Round(0).IntPart()
		payload.AmountCents = &cents
	}
	if status != types.PaymentStatusSuccess && status != types.PaymentStatusPending {
		payload.ErrorMessage = gateway.FieldString(raw, "response.message")
	}
	if brand := gateway.FieldString(raw, "card.brand"); brand != "" {
		payload.Card = &gateway.CardDetails{
			Brand:    strings.ToLower(brand),
			LastFour: gateway.FieldString(raw, "card.last_four"),
			Type:     types.SavedPaymentMethodTypeCard,
		}
	}
	return payload, nil
}
