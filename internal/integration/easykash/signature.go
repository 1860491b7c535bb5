package easykash

import (
	"context"
	"strings"

	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/security"
)

var signedFields = []string{
	"ProductCode",
	"Amount",
	"ProductType",
	"PaymentMethod",
	"status",
	"easykashRef",
	"customerReference",
}

// ComputeSignature concatenates the signed fields without separators and signs them
func ComputeSignature(secret string, payload map[string]any) string {
	var sb strings.Builder
	for _, field := range signedFields {
		sb.WriteString(gateway.FieldString(payload, field))
	}
	return security.HMACSHA512Hex(secret, sb.String())
}

func (c *Client) Verify(_ context.Context, req *gateway.WebhookRequest) (bool, error) {
	secret := c.webhookSecret()
	if secret == "" {
		c.logger.Errorw("easykash secret missing, rejecting webhook")
		return false, nil
	}

	payload, err := gateway.DecodeJSON(req.Body)
	if err != nil {
		return false, err
	}
	received := gateway.FieldString(payload, "signatureHash")
	if received == "" {
		c.logger.Warnw("easykash webhook without signatureHash")
		return false, nil
	}

	expected := ComputeSignature(secret, payload)
	valid := security.EqualHexSignatures(expected, received)
	if !valid {
		c.logger.Warnw("easykash webhook signature mismatch",
			"received", logger.Truncate(received),
			"expected", logger.Truncate(expected),
			"easykash_ref", gateway.FieldString(payload, "easykashRef"),
		)
	}
	return valid, nil
}
