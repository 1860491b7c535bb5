package testutil

import (
	"context"

	"github.com/academyhub/paycore/internal/domain/subscription"
	ierr "github.com/academyhub/paycore/internal/errors"
)

var _ subscription.Repository = (*InMemorySubscriptionStore)(nil)

type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
	}
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !CheckTenantFilter(ctx, sub.TenantID) {
		return nil, ierr.NewError("subscription not found").
			WithHint("Subscription not found").
			Mark(ierr.ErrNotFound)
	}
	return sub, nil
}

// Seed stores a subscription
func (s *InMemorySubscriptionStore) Seed(sub *subscription.Subscription) {
	_ = s.InMemoryStore.Create(context.Background(), sub.ID, sub)
}
