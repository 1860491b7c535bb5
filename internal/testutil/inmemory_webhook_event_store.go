package testutil

import (
	"context"

	"github.com/academyhub/paycore/internal/domain/webhookevent"
	ierr "github.com/academyhub/paycore/internal/errors"
)

var _ webhookevent.Repository = (*InMemoryWebhookEventStore)(nil)

// InMemoryWebhookEventStore keys events by (gateway, event id) like the unique index
type InMemoryWebhookEventStore struct {
	*InMemoryStore[*webhookevent.WebhookEvent]
}

func NewInMemoryWebhookEventStore() *InMemoryWebhookEventStore {
	return &InMemoryWebhookEventStore{
		InMemoryStore: NewInMemoryStore[*webhookevent.WebhookEvent](),
	}
}

func webhookEventKey(gateway, eventID string) string {
	return gateway + "|" + eventID
}

func (s *InMemoryWebhookEventStore) Create(ctx context.Context, event *webhookevent.WebhookEvent) error {
	c := *event
	if err := s.InMemoryStore.Create(ctx, webhookEventKey(event.Gateway, event.EventID), &c); err != nil {
		return ierr.WithError(err).
			WithHint("Webhook event already recorded").
			Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryWebhookEventStore) Update(ctx context.Context, event *webhookevent.WebhookEvent) error {
	c := *event
	return s.InMemoryStore.Update(ctx, webhookEventKey(event.Gateway, event.EventID), &c)
}

func (s *InMemoryWebhookEventStore) GetByEventID(ctx context.Context, gateway, eventID string) (*webhookevent.WebhookEvent, error) {
	event, err := s.InMemoryStore.Get(ctx, webhookEventKey(gateway, eventID))
	if err != nil {
		return nil, err
	}
	c := *event
	return &c, nil
}
