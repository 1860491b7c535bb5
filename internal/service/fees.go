package service

import (
	"github.com/academyhub/paycore/internal/config"
	"github.com/academyhub/paycore/internal/types"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CalculateFees returns the processing fee for amount paid with method, rounded to cents.
// Methods without a configured rate carry no fee.
func CalculateFees(fees config.FeesConfig, amount decimal.Decimal, method types.PaymentMethodType) decimal.Decimal {
	var percent float64
	switch method {
	case types.PaymentMethodTypeCard:
		percent = fees.CardPercent
	case types.PaymentMethodTypeWallet:
		percent = fees.WalletPercent
	case types.PaymentMethodTypeBankTransfer:
		percent = fees.BankTransferPercent
	default:
		return decimal.Zero
	}
	if percent <= 0 || !amount.IsPositive() {
		return decimal.Zero
	}
	return amount.Mul(decimal.NewFromFloat(percent)).Div(hundred).Round(2)
}
