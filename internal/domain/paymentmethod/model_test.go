package paymentmethod

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestIsExpired(t *testing.T) {
	now := time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		method SavedPaymentMethod
		want   bool
	}{
		{"no expiry", SavedPaymentMethod{}, false},
		{"valid through end of month", SavedPaymentMethod{ExpiryMonth: lo.ToPtr(10), ExpiryYear: lo.ToPtr(2026)}, false},
		{"previous month", SavedPaymentMethod{ExpiryMonth: lo.ToPtr(9), ExpiryYear: lo.ToPtr(2026)}, true},
		{"two digit year", SavedPaymentMethod{ExpiryMonth: lo.ToPtr(12), ExpiryYear: lo.ToPtr(28)}, false},
		{"two digit year past", SavedPaymentMethod{ExpiryMonth: lo.ToPtr(1), ExpiryYear: lo.ToPtr(25)}, true},
		{"explicit expiry passed", SavedPaymentMethod{ExpiresAt: lo.ToPtr(now.Add(-time.Minute))}, true},
		{"explicit expiry ahead", SavedPaymentMethod{ExpiresAt: lo.ToPtr(now.Add(time.Hour))}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.method.IsExpired(now))
		})
	}

	endOfMonth := time.Date(2026, time.October, 31, 23, 59, 59, 0, time.UTC)
	m := SavedPaymentMethod{ExpiryMonth: lo.ToPtr(10), ExpiryYear: lo.ToPtr(2026)}
	assert.False(t, m.IsExpired(endOfMonth))
	assert.True(t, m.IsExpired(endOfMonth.Add(time.Second)))
}

func TestIsUsable(t *testing.T) {
	now := time.Now().UTC()
	m := SavedPaymentMethod{IsActive: true}
	assert.True(t, m.IsUsable(now))

	m.IsActive = false
	assert.False(t, m.IsUsable(now))

	m.IsActive = true
	m.DeletedAt = &now
	assert.False(t, m.IsUsable(now))
}

func TestLabel(t *testing.T) {
	m := SavedPaymentMethod{}
	assert.Equal(t, "Card", m.Label())

	m.Brand = lo.ToPtr("Visa")
	m.LastFour = lo.ToPtr("4242")
	assert.Equal(t, "Visa •••• 4242", m.Label())

	m.DisplayName = lo.ToPtr("Work card")
	assert.Equal(t, "Work card", m.Label())
}

func TestValidate(t *testing.T) {
	m := SavedPaymentMethod{UserID: "user_1", Token: "tok", Gateway: "tap"}
	assert.NoError(t, m.Validate())

	m.ExpiryMonth = lo.ToPtr(13)
	assert.Error(t, m.Validate())

	m.ExpiryMonth = nil
	m.Gateway = "stripe"
	assert.Error(t, m.Validate())

	m.Gateway = "tap"
	m.Token = ""
	assert.Error(t, m.Validate())
}
