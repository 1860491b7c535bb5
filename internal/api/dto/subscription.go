package dto

import (
	"github.com/shopspring/decimal"
)

// RenewSubscriptionRequest triggers an unattended renewal charge.
// Amount defaults to the subscription renewal price.
type RenewSubscriptionRequest struct {
	Amount  *decimal.Decimal `json:"amount,omitempty"`
	Gateway *string          `json:"gateway,omitempty"`
}
