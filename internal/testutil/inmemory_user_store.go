package testutil

import (
	"context"

	"github.com/academyhub/paycore/internal/domain/user"
	ierr "github.com/academyhub/paycore/internal/errors"
)

var _ user.Repository = (*InMemoryUserStore)(nil)

type InMemoryUserStore struct {
	*InMemoryStore[*user.User]
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		InMemoryStore: NewInMemoryStore[*user.User](),
	}
}

func (s *InMemoryUserStore) Get(ctx context.Context, id string) (*user.User, error) {
	u, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("user not found").
			WithHint("User not found").
			Mark(ierr.ErrNotFound)
	}
	return u, nil
}

// Seed stores a user
func (s *InMemoryUserStore) Seed(u *user.User) {
	_ = s.InMemoryStore.Create(context.Background(), u.ID, u)
}
