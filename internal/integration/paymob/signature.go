package paymob

import (
	"context"
	"strings"

	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/security"
	"github.com/academyhub/paycore/internal/types"
)

// transactionFields is the ordered list Paymob concatenates for TRANSACTION callbacks
var transactionFields = []string{
	"amount_cents",
	"created_at",
	"currency",
	"error_occured",
	"has_parent_transaction",
	"id",
	"integration_id",
	"is_3d_secure",
	"is_auth",
	"is_capture",
	"is_refunded",
	"is_standalone_payment",
	"is_voided",
	"order.id",
	"owner",
	"pending",
	"source_data.pan",
	"source_data.sub_type",
	"source_data.type",
	"success",
}

// tokenFields is the ordered list for TOKEN callbacks sent after a card is saved
var tokenFields = []string{
	"card_subtype",
	"created_at",
	"email",
	"id",
	"masked_pan",
	"merchant_id",
	"order_id",
	"token",
}

const (
	EventTypeTransaction = "TRANSACTION"
	EventTypeToken       = "TOKEN"
)

// ComputeHMAC builds the Paymob signature of a callback object
func ComputeHMAC(secret, eventType string, obj map[string]any) string {
	fields := transactionFields
	if strings.EqualFold(eventType, EventTypeToken) {
		fields = tokenFields
	}

	var sb strings.Builder
	for _, field := range fields {
		sb.WriteString(gateway.FieldString(obj, field))
	}
	return security.HMACSHA512Hex(secret, sb.String())
}

// Verify checks the hmac query parameter (or Hmac header) of a callback
func (c *Client) Verify(_ context.Context, req *gateway.WebhookRequest) (bool, error) {
	secret := c.cfg.Get(types.GatewayConfigHMACSecret)
	if secret == "" {
		c.logger.Errorw("paymob hmac secret missing, rejecting webhook")
		return false, nil
	}

	received := req.Query.Get("hmac")
	if received == "" {
		received = req.Headers.Get("Hmac")
	}
	if received == "" {
		c.logger.Warnw("paymob webhook without hmac")
		return false, nil
	}

	body, err := gateway.DecodeJSON(req.Body)
	if err != nil {
		return false, err
	}
	obj, ok := body["obj"].(map[string]any)
	if !ok {
		return false, ierr.NewError("paymob webhook missing obj").
			WithHint("Webhook payload is malformed").
			Mark(ierr.ErrValidation)
	}

	expected := ComputeHMAC(secret, gateway.FieldString(body, "type"), obj)
	valid := security.EqualHexSignatures(expected, received)
	if !valid {
		c.logger.Warnw("paymob webhook signature mismatch",
			"received", logger.Truncate(received),
			"expected", logger.Truncate(expected),
			"transaction_id", gateway.FieldString(obj, "id"),
		)
	}
	return valid, nil
}

// VerifyAmount reports whether the callback amount equals the expected minor units
func VerifyAmount(payload *gateway.WebhookPayload, expectedCents int64) bool {
	if payload == nil || payload.AmountCents == nil {
		return false
	}
	return *payload.AmountCents == expectedCents
}
