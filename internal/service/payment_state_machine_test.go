package service

import (
	"testing"

	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from types.PaymentStatus
		to   types.PaymentStatus
		want bool
	}{
		{"pending to processing", types.PaymentStatusPending, types.PaymentStatusProcessing, true},
		{"pending to failed", types.PaymentStatusPending, types.PaymentStatusFailed, true},
		{"pending to cancelled", types.PaymentStatusPending, types.PaymentStatusCancelled, true},
		{"pending to expired", types.PaymentStatusPending, types.PaymentStatusExpired, true},
		{"pending to success skips processing", types.PaymentStatusPending, types.PaymentStatusSuccess, false},
		{"processing to success", types.PaymentStatusProcessing, types.PaymentStatusSuccess, true},
		{"processing to failed", types.PaymentStatusProcessing, types.PaymentStatusFailed, true},
		{"processing to cancelled", types.PaymentStatusProcessing, types.PaymentStatusCancelled, true},
		{"processing to expired", types.PaymentStatusProcessing, types.PaymentStatusExpired, false},
		{"processing back to pending", types.PaymentStatusProcessing, types.PaymentStatusPending, false},
		{"failed to pending for retry", types.PaymentStatusFailed, types.PaymentStatusPending, true},
		{"failed to success", types.PaymentStatusFailed, types.PaymentStatusSuccess, false},
		{"expired to pending for retry", types.PaymentStatusExpired, types.PaymentStatusPending, true},
		{"success to failed", types.PaymentStatusSuccess, types.PaymentStatusFailed, false},
		{"success to pending", types.PaymentStatusSuccess, types.PaymentStatusPending, false},
		{"cancelled to pending", types.PaymentStatusCancelled, types.PaymentStatusPending, false},
		{"same status success", types.PaymentStatusSuccess, types.PaymentStatusSuccess, true},
		{"same status pending", types.PaymentStatusPending, types.PaymentStatusPending, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestValidateTransition(t *testing.T) {
	require.NoError(t, ValidateTransition(types.PaymentStatusPending, types.PaymentStatusProcessing))

	err := ValidateTransition(types.PaymentStatusSuccess, types.PaymentStatusFailed)
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidTransition(err))
	assert.Contains(t, err.Error(), "success")
	assert.Contains(t, err.Error(), "failed")
}

func TestTransitionPath(t *testing.T) {
	path, ok := transitionPath(types.PaymentStatusPending, types.PaymentStatusSuccess)
	require.True(t, ok)
	assert.Equal(t, []types.PaymentStatus{types.PaymentStatusProcessing, types.PaymentStatusSuccess}, path)

	path, ok = transitionPath(types.PaymentStatusProcessing, types.PaymentStatusFailed)
	require.True(t, ok)
	assert.Equal(t, []types.PaymentStatus{types.PaymentStatusFailed}, path)

	_, ok = transitionPath(types.PaymentStatusSuccess, types.PaymentStatusFailed)
	assert.False(t, ok)

	_, ok = transitionPath(types.PaymentStatusFailed, types.PaymentStatusSuccess)
	assert.False(t, ok)
}

func TestIsTerminalStatus(t *testing.T) {
	assert.True(t, IsTerminalStatus(types.PaymentStatusSuccess))
	assert.True(t, IsTerminalStatus(types.PaymentStatusCancelled))
	assert.True(t, IsTerminalStatus(types.PaymentStatusRefunded))
	assert.False(t, IsTerminalStatus(types.PaymentStatusPending))
	assert.False(t, IsTerminalStatus(types.PaymentStatusProcessing))
	assert.False(t, IsTerminalStatus(types.PaymentStatusFailed))
	assert.False(t, IsTerminalStatus(types.PaymentStatusExpired))
}

func TestAllowedTransitionsReturnsCopy(t *testing.T) {
	allowed := AllowedTransitions(types.PaymentStatusFailed)
	require.Equal(t, []types.PaymentStatus{types.PaymentStatusPending}, allowed)

	allowed[0] = types.PaymentStatusSuccess
	assert.False(t, CanTransition(types.PaymentStatusFailed, types.PaymentStatusSuccess))
}

func TestCanRefund(t *testing.T) {
	assert.True(t, CanRefund(types.PaymentStatusSuccess))
	for _, s := range []types.PaymentStatus{
		types.PaymentStatusPending,
		types.PaymentStatusProcessing,
		types.PaymentStatusFailed,
		types.PaymentStatusCancelled,
		types.PaymentStatusExpired,
		types.PaymentStatusRefunded,
	} {
		assert.False(t, CanRefund(s), s)
	}
}

func TestMapGatewayStatus(t *testing.T) {
	tests := []struct {
		gateway types.PaymentGatewayType
		raw     string
		want    types.PaymentStatus
	}{
		{types.PaymentGatewayTypePaymob, "SUCCESS", types.PaymentStatusSuccess},
		{types.PaymentGatewayTypePaymob, "DECLINED", types.PaymentStatusFailed},
		{types.PaymentGatewayTypePaymob, "VOIDED", types.PaymentStatusCancelled},
		{types.PaymentGatewayTypePaymob, "SOMETHING", types.PaymentStatusPending},
		{types.PaymentGatewayTypeEasyKash, "PAID", types.PaymentStatusSuccess},
		{types.PaymentGatewayTypeEasyKash, "EXPIRED", types.PaymentStatusExpired},
		{types.PaymentGatewayTypeEasyKash, "REFUNDED", types.PaymentStatusRefunded},
		{types.PaymentGatewayTypeTap, "CAPTURED", types.PaymentStatusSuccess},
		{types.PaymentGatewayTypeTap, "ABANDONED", types.PaymentStatusFailed},
		{types.PaymentGatewayTypeTap, "INITIATED", types.PaymentStatusPending},
		{types.PaymentGatewayType("unknown"), "success", types.PaymentStatusSuccess},
		{types.PaymentGatewayType("unknown"), "whatever", types.PaymentStatusPending},
	}

	for _, tt := range tests {
		t.Run(string(tt.gateway)+"/"+tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, MapGatewayStatus(tt.gateway, tt.raw))
		})
	}
}
