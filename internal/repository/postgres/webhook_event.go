package postgres

import (
	"context"

	"github.com/academyhub/paycore/internal/domain/webhookevent"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/postgres"
)

type webhookEventRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewWebhookEventRepository(db *postgres.DB, logger *logger.Logger) webhookevent.Repository {
	return &webhookEventRepository{db: db, logger: logger}
}

func (r *webhookEventRepository) Create(ctx context.Context, e *webhookevent.WebhookEvent) error {
	query := `
		INSERT INTO payment_webhook_events (
			id, tenant_id, gateway, event_id, event_type, payment_id,
			payload, status, error, received_at, processed_at
		) VALUES (
			:id, :tenant_id, :gateway, :event_id, :event_type, :payment_id,
			:payload, :status, :error, :received_at, :processed_at
		)`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, e); err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("Webhook event already received").
				WithReportableDetails(map[string]any{"gateway": e.Gateway, "event_id": e.EventID}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to record webhook event").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *webhookEventRepository) Update(ctx context.Context, e *webhookevent.WebhookEvent) error {
	query := `
		UPDATE payment_webhook_events SET
			payment_id = :payment_id,
			status = :status,
			error = :error,
			processed_at = :processed_at
		WHERE id = :id`

	result, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, e)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update webhook event").
			Mark(ierr.ErrDatabase)
	}
	return requireAffected(result, "Webhook event not found", map[string]any{"webhook_event_id": e.ID})
}

func (r *webhookEventRepository) GetByEventID(ctx context.Context, gateway, eventID string) (*webhookevent.WebhookEvent, error) {
	query := `SELECT id, tenant_id, gateway, event_id, event_type, payment_id,
			payload, status, error, received_at, processed_at
		FROM payment_webhook_events WHERE gateway = $1 AND event_id = $2`

	var e webhookevent.WebhookEvent
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &e, query, gateway, eventID); err != nil {
		return nil, notFoundOr(err, "Webhook event not found", map[string]any{"gateway": gateway, "event_id": eventID})
	}
	return &e, nil
}
