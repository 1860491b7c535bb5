package subscription

import (
	"context"

	"github.com/academyhub/paycore/internal/types"
	"github.com/shopspring/decimal"
)

// Subscription is the slice of a student subscription that renewals need
type Subscription struct {
	ID               string          `db:"id" json:"id"`
	StudentID        *string         `db:"student_id" json:"student_id,omitempty"`
	PlanName         string          `db:"plan_name" json:"plan_name"`
	Currency         string          `db:"currency" json:"currency"`
	RenewalPrice     decimal.Decimal `db:"renewal_price" json:"renewal_price"`
	DiscountAmount   decimal.Decimal `db:"discount_amount" json:"discount_amount"`
	PreferredGateway *string         `db:"preferred_gateway" json:"preferred_gateway,omitempty"`

	types.BaseModel
}

// CalculateRenewalPrice returns the price to charge for the next period, never negative
func (s *Subscription) CalculateRenewalPrice() decimal.Decimal {
	price := s.RenewalPrice.Sub(s.DiscountAmount)
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// HasStudent reports whether the subscription is linked to a student
func (s *Subscription) HasStudent() bool {
	return s.StudentID != nil && *s.StudentID != ""
}

// Repository reads subscriptions
type Repository interface {
	Get(ctx context.Context, id string) (*Subscription, error)
}
