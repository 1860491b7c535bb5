package tap

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/security"
	"github.com/academyhub/paycore/internal/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
)

// ComputeHashString signs the x_id/x_amount/x_currency/x_status template
func ComputeHashString(secret string, payload map[string]any) string {
	currency := gateway.FieldString(payload, "currency")
	return security.HMACSHA256Hex(secret, fmt.Sprintf("x_id%sx_amount%sx_currency%sx_status%s",
		gateway.FieldString(payload, "id"),
		FormatAmount(gateway.FieldString(payload, "amount"), currency),
		currency,
		gateway.FieldString(payload, "status"),
	))
}

// FormatAmount renders an amount with the currency's fixed number of decimals
func FormatAmount(amount, currency string) string {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return amount
	}
	return d.StringFixed(CurrencyDecimals(currency))
}

// Verify checks hashstring, or when Tap omitted it, cross checks the claimed
// status against the live charge.
func (c *Client) Verify(ctx context.Context, req *gateway.WebhookRequest) (bool, error) {
	secret := c.cfg.Get(types.GatewayConfigSecretKey)
	if secret == "" {
		c.logger.Errorw("tap secret key missing, rejecting webhook")
		return false, nil
	}

	payload, err := gateway.DecodeJSON(req.Body)
	if err != nil {
		return false, err
	}

	received := gateway.FieldString(payload, "hashstring")
	if received == "" {
		received = req.Headers.Get("hashstring")
	}
	if received == "" {
		return c.verifyLive(ctx, payload)
	}

	expected := ComputeHashString(secret, payload)
	valid := security.EqualHexSignatures(expected, received)
	if !valid {
		c.logger.Warnw("tap webhook signature mismatch",
			"received", logger.Truncate(received),
			"expected", logger.Truncate(expected),
			"charge_id", gateway.FieldString(payload, "id"),
		)
	}
	return valid, nil
}

func (c *Client) verifyLive(ctx context.Context, payload map[string]any) (bool, error) {
	chargeID := gateway.FieldString(payload, "id")
	claimed := strings.ToUpper(gateway.FieldString(payload, "status"))
	if chargeID == "" || claimed == "" {
		c.logger.Warnw("unsigned tap webhook without charge id or status")
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.fallbackTimeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.fallbackTimeout

	var live string
	operation := func() error {
		data, rejection, err := c.send(ctx, http.MethodGet, "/charges/"+url.PathEscape(chargeID), nil)
		if err != nil {
			return err
		}
		if rejection != nil {
			return backoff.Permanent(ierr.NewErrorf("tap charge lookup rejected with %d", rejection.StatusCode).
				Mark(ierr.ErrHTTPClient))
		}
		live = strings.ToUpper(gateway.FieldString(data, "status"))
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		c.logger.Warnw("tap live verification failed, rejecting unsigned webhook",
			"charge_id", chargeID,
			"error", err,
		)
		return false, nil
	}

	if live != claimed {
		c.logger.Warnw("tap webhook status does not match live charge",
			"charge_id", chargeID,
			"claimed", claimed,
			"live", live,
		)
		return false, nil
	}
	c.logger.Infow("unsigned tap webhook accepted after live verification",
		"charge_id", chargeID,
		"status", live,
	)
	return true, nil
}
