package paymentmethod

import (
	"fmt"
	"time"

	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/types"
)

// SavedPaymentMethod is a tokenized instrument a student allowed us to charge again
type SavedPaymentMethod struct {
	ID                string                       `db:"id" json:"id"`
	UserID            string                       `db:"user_id" json:"user_id"`
	Gateway           string                       `db:"gateway" json:"gateway"`
	Token             string                       `db:"token" json:"-"`
	GatewayCustomerID *string                      `db:"gateway_customer_id" json:"gateway_customer_id,omitempty"`
	Type              types.SavedPaymentMethodType `db:"type" json:"type"`
	Brand             *string                      `db:"brand" json:"brand,omitempty"`
	LastFour          *string                      `db:"last_four" json:"last_four,omitempty"`
	ExpiryMonth       *int                         `db:"expiry_month" json:"expiry_month,omitempty"`
	ExpiryYear        *int                         `db:"expiry_year" json:"expiry_year,omitempty"`
	HolderName        *string                      `db:"holder_name" json:"holder_name,omitempty"`
	DisplayName       *string                      `db:"display_name" json:"display_name,omitempty"`
	IsDefault         bool                         `db:"is_default" json:"is_default"`
	IsActive          bool                         `db:"is_active" json:"is_active"`
	LastUsedAt        *time.Time                   `db:"last_used_at" json:"last_used_at,omitempty"`
	ExpiresAt         *time.Time                   `db:"expires_at" json:"expires_at,omitempty"`
	BillingAddress    types.JSONMap                `db:"billing_address" json:"billing_address,omitempty"`
	Metadata          types.JSONMap                `db:"metadata" json:"metadata,omitempty"`
	DeletedAt         *time.Time                   `db:"deleted_at" json:"-"`

	types.BaseModel
}

// Validate validates the saved method before it is persisted
func (m *SavedPaymentMethod) Validate() error {
	if m.UserID == "" {
		return ierr.NewError("user id is required").
			WithHint("Payment method must belong to a user").
			Mark(ierr.ErrValidation)
	}
	if m.Token == "" {
		return ierr.NewError("token is required").
			WithHint("Payment method token is missing").
			Mark(ierr.ErrValidation)
	}
	if err := types.PaymentGatewayType(m.Gateway).Validate(); err != nil {
		return err
	}
	if m.ExpiryMonth != nil && (*m.ExpiryMonth < 1 || *m.ExpiryMonth > 12) {
		return ierr.NewError("invalid expiry month").
			WithHint("Expiry month must be between 1 and 12").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsExpired reports whether the method can no longer be charged at now.
// Either an explicit expiry timestamp or a card month/year in the past expires it.
func (m *SavedPaymentMethod) IsExpired(now time.Time) bool {
	if m.ExpiresAt != nil && !m.ExpiresAt.After(now) {
		return true
	}
	if m.ExpiryMonth != nil && m.ExpiryYear != nil {
		year := *m.ExpiryYear
		if year < 100 {
			year += 2000
		}
		// cards stay valid through the last day of their expiry month
		firstOfNext := time.Date(year, time.Month(*m.ExpiryMonth), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		return !now.Before(firstOfNext)
	}
	return false
}

// IsDeleted reports whether the method carries a deletion tombstone
func (m *SavedPaymentMethod) IsDeleted() bool {
	return m.DeletedAt != nil
}

// IsUsable reports whether the method may be charged at now
func (m *SavedPaymentMethod) IsUsable(now time.Time) bool {
	return m.IsActive && !m.IsDeleted() && !m.IsExpired(now)
}

// Label returns a human readable name such as "Visa •••• 4242"
func (m *SavedPaymentMethod) Label() string {
	if m.DisplayName != nil && *m.DisplayName != "" {
		return *m.DisplayName
	}
	brand := "Card"
	if m.Brand != nil && *m.Brand != "" {
		brand = *m.Brand
	}
	if m.LastFour != nil {
		return fmt.Sprintf("%s •••• %s", brand, *m.LastFour)
	}
	return brand
}
