package webhookevent

import (
	"context"
	"time"

	"github.com/academyhub/paycore/internal/types"
)

// WebhookEvent is the durable log of an inbound gateway callback.
// (Gateway, EventID) is unique so a redelivered callback is processed once.
type WebhookEvent struct {
	ID          string                   `db:"id" json:"id"`
	TenantID    string                   `db:"tenant_id" json:"tenant_id"`
	Gateway     string                   `db:"gateway" json:"gateway"`
	EventID     string                   `db:"event_id" json:"event_id"`
	EventType   string                   `db:"event_type" json:"event_type"`
	PaymentID   *string                  `db:"payment_id" json:"payment_id,omitempty"`
	Payload     types.JSONMap            `db:"payload" json:"payload,omitempty"`
	Status      types.WebhookEventStatus `db:"status" json:"status"`
	Error       *string                  `db:"error" json:"error,omitempty"`
	ReceivedAt  time.Time                `db:"received_at" json:"received_at"`
	ProcessedAt *time.Time               `db:"processed_at" json:"processed_at,omitempty"`
}

// Repository defines the interface for webhook event persistence
type Repository interface {
	// Create returns ErrAlreadyExists when (gateway, event_id) was already recorded
	Create(ctx context.Context, event *WebhookEvent) error
	Update(ctx context.Context, event *WebhookEvent) error
	GetByEventID(ctx context.Context, gateway, eventID string) (*WebhookEvent, error)
}
