package dto

import (
	"time"

	"github.com/academyhub/paycore/internal/domain/paymentmethod"
	"github.com/academyhub/paycore/internal/types"
)

// PaymentMethodResponse is a saved payment method without its token
type PaymentMethodResponse struct {
	ID          string                       `json:"id"`
	UserID      string                       `json:"user_id"`
	Gateway     string                       `json:"gateway"`
	Type        types.SavedPaymentMethodType `json:"type"`
	Label       string                       `json:"label"`
	Brand       *string                      `json:"brand,omitempty"`
	LastFour    *string                      `json:"last_four,omitempty"`
	ExpiryMonth *int                         `json:"expiry_month,omitempty"`
	ExpiryYear  *int                         `json:"expiry_year,omitempty"`
	IsDefault   bool                         `json:"is_default"`
	IsActive    bool                         `json:"is_active"`
	IsExpired   bool                         `json:"is_expired"`
	LastUsedAt  *time.Time                   `json:"last_used_at,omitempty"`
	CreatedAt   time.Time                    `json:"created_at"`
}

func NewPaymentMethodResponse(m *paymentmethod.SavedPaymentMethod, now time.Time) *PaymentMethodResponse {
	return &PaymentMethodResponse{
		ID:          m.ID,
		UserID:      m.UserID,
		Gateway:     m.Gateway,
		Type:        m.Type,
		Label:       m.Label(),
		Brand:       m.Brand,
		LastFour:    m.LastFour,
		ExpiryMonth: m.ExpiryMonth,
		ExpiryYear:  m.ExpiryYear,
		IsDefault:   m.IsDefault,
		IsActive:    m.IsActive,
		IsExpired:   m.IsExpired(now),
		LastUsedAt:  m.LastUsedAt,
		CreatedAt:   m.CreatedAt,
	}
}

// ListPaymentMethodsResponse lists the saved methods of a user
type ListPaymentMethodsResponse struct {
	Items []*PaymentMethodResponse `json:"items"`
}
