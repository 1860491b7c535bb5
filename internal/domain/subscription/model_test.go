package subscription

import (
	"testing"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculateRenewalPrice(t *testing.T) {
	s := &Subscription{RenewalPrice: decimal.NewFromInt(300), DiscountAmount: decimal.RequireFromString("49.5")}
	assert.Equal(t, "250.5", s.CalculateRenewalPrice().String())

	s.DiscountAmount = decimal.NewFromInt(400)
	assert.True(t, s.CalculateRenewalPrice().IsZero())
}

func TestHasStudent(t *testing.T) {
	assert.False(t, (&Subscription{}).HasStudent())
	assert.False(t, (&Subscription{StudentID: lo.ToPtr("")}).HasStudent())
	assert.True(t, (&Subscription{StudentID: lo.ToPtr("student_1")}).HasStudent())
}
