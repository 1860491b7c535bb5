package service

import (
	"testing"

	"github.com/academyhub/paycore/internal/config"
	"github.com/academyhub/paycore/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculateFees(t *testing.T) {
	fees := config.FeesConfig{
		CardPercent:         2.5,
		WalletPercent:       2.0,
		BankTransferPercent: 1.0,
	}

	tests := []struct {
		name   string
		amount string
		method types.PaymentMethodType
		want   string
	}{
		{"card", "500", types.PaymentMethodTypeCard, "12.5"},
		{"wallet", "250", types.PaymentMethodTypeWallet, "5"},
		{"bank transfer", "1000", types.PaymentMethodTypeBankTransfer, "10"},
		{"rounds to cents", "99.99", types.PaymentMethodTypeCard, "2.5"},
		{"no rate for cash", "500", types.PaymentMethodTypeCash, "0"},
		{"zero amount", "0", types.PaymentMethodTypeCard, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateFees(fees, decimal.RequireFromString(tt.amount), tt.method)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestCalculateFeesDisabledRate(t *testing.T) {
	got := CalculateFees(config.FeesConfig{}, decimal.NewFromInt(500), types.PaymentMethodTypeCard)
	assert.True(t, got.IsZero())
}
