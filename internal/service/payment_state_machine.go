package service

import (
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/integration/easykash"
	"github.com/academyhub/paycore/internal/integration/paymob"
	"github.com/academyhub/paycore/internal/integration/tap"
	"github.com/academyhub/paycore/internal/types"
	"github.com/samber/lo"
)

// paymentTransitions lists the legal outbound moves of each status.
// success and cancelled are terminal.
var paymentTransitions = map[types.PaymentStatus][]types.PaymentStatus{
	types.PaymentStatusPending: {
		types.PaymentStatusProcessing,
		types.PaymentStatusFailed,
		types.PaymentStatusCancelled,
		types.PaymentStatusExpired,
	},
	types.PaymentStatusProcessing: {
		types.PaymentStatusSuccess,
		types.PaymentStatusFailed,
		types.PaymentStatusCancelled,
	},
	types.PaymentStatusFailed: {
		types.PaymentStatusPending,
	},
	types.PaymentStatusExpired: {
		types.PaymentStatusPending,
	},
}

// CanTransition reports whether a payment may move from one status to another.
// Staying in the same status is always allowed so redelivered webhooks are harmless.
func CanTransition(from, to types.PaymentStatus) bool {
	if from == to {
		return true
	}
	return lo.Contains(paymentTransitions[from], to)
}

// ValidateTransition returns ErrInvalidTransition carrying the rejected pair
func ValidateTransition(from, to types.PaymentStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return ierr.NewErrorf("cannot transition payment from %s to %s", from, to).
		WithHintf("Payment cannot move from %s to %s", from, to).
		WithReportableDetails(map[string]any{
			"from": from,
			"to":   to,
		}).
		Mark(ierr.ErrInvalidTransition)
}

// transitionPath returns the statuses to pass through to reach to from from.
// A gateway confirming success for a payment still marked pending implies it was processed.
func transitionPath(from, to types.PaymentStatus) ([]types.PaymentStatus, bool) {
	if CanTransition(from, to) {
		return []types.PaymentStatus{to}, true
	}
	if from == types.PaymentStatusPending && to == types.PaymentStatusSuccess {
		return []types.PaymentStatus{types.PaymentStatusProcessing, types.PaymentStatusSuccess}, true
	}
	return nil, false
}

// IsTerminalStatus reports whether no further transition leaves s
func IsTerminalStatus(s types.PaymentStatus) bool {
	return len(AllowedTransitions(s)) == 0
}

// AllowedTransitions returns the statuses reachable from s in one step
func AllowedTransitions(s types.PaymentStatus) []types.PaymentStatus {
	return append([]types.PaymentStatus(nil), paymentTransitions[s]...)
}

// CanRefund reports whether money can be returned for a payment in s
func CanRefund(s types.PaymentStatus) bool {
	return s == types.PaymentStatusSuccess
}

// MapGatewayStatus converts a gateway specific status word to a payment status.
// Unknown words and gateways map to pending.
func MapGatewayStatus(gateway types.PaymentGatewayType, raw string) types.PaymentStatus {
	switch gateway {
	case types.PaymentGatewayTypePaymob:
		return paymob.MapStatus(raw)
	case types.PaymentGatewayTypeEasyKash:
		return easykash.MapStatus(raw)
	case types.PaymentGatewayTypeTap:
		return tap.MapStatus(raw)
	}

	status := types.PaymentStatus(types.NormalizeStatusString(raw))
	if status.Validate() != nil {
		return types.PaymentStatusPending
	}
	return status
}
