package payment

import (
	"testing"

	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToCents(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"500", 50000},
		{"149.99", 14999},
		{"0.005", 1},
		{"10.004", 1000},
		{"0", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToCents(decimal.RequireFromString(tt.amount)), tt.amount)
	}
	assert.Equal(t, "149.99", FromCents(14999).String())
}

func TestValidate(t *testing.T) {
	valid := func() *Payment {
		return &Payment{
			UserID:      "user_1",
			Amount:      decimal.NewFromInt(100),
			Currency:    "EGP",
			Status:      types.PaymentStatusPending,
			PayableType: types.PayableTypeCourse,
		}
	}
	assert.NoError(t, valid().Validate())

	tests := map[string]func(p *Payment){
		"negative amount":  func(p *Payment) { p.Amount = decimal.NewFromInt(-1) },
		"missing user":     func(p *Payment) { p.UserID = "" },
		"missing currency": func(p *Payment) { p.Currency = "" },
		"unknown status":   func(p *Payment) { p.Status = "lost" },
		"unknown payable":  func(p *Payment) { p.PayableType = "furniture" },
	}
	for name, mutate := range tests {
		p := valid()
		mutate(p)
		err := p.Validate()
		assert.Error(t, err, name)
		assert.True(t, ierr.IsValidation(err), name)
	}
}

func TestTransactionID(t *testing.T) {
	p := &Payment{}
	assert.Empty(t, p.TransactionID())
	assert.False(t, p.IsPaid())
	assert.False(t, p.NotificationSent())

	p.GatewayTransactionID = lo.ToPtr("txn_1")
	p.Status = types.PaymentStatusSuccess
	assert.Equal(t, "txn_1", p.TransactionID())
	assert.True(t, p.IsPaid())
}
