package notification

import (
	"context"

	"github.com/academyhub/paycore/internal/types"
)

// Recipient is the user a notification is addressed to
type Recipient struct {
	UserID string
	Name   string
	Email  string
}

// Notification is a single user facing message about a payment
type Notification struct {
	Recipient Recipient
	Kind      types.NotificationKind
	// Payload carries the values rendered into the message
	Payload  map[string]any
	LinkPath string
	// Context is attached to logs and delivery metadata
	Context   map[string]string
	Important bool
}

// Sink delivers notifications. Callers log delivery errors and never propagate them.
type Sink interface {
	Send(ctx context.Context, n *Notification) error
}
