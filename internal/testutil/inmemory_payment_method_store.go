package testutil

import (
	"context"
	"time"

	"github.com/academyhub/paycore/internal/domain/paymentmethod"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/types"
	"github.com/samber/lo"
)

var _ paymentmethod.Repository = (*InMemoryPaymentMethodStore)(nil)

// InMemoryPaymentMethodStore implements paymentmethod.Repository.
// Tombstoned methods stay stored but are invisible to every read.
type InMemoryPaymentMethodStore struct {
	*InMemoryStore[*paymentmethod.SavedPaymentMethod]
}

func NewInMemoryPaymentMethodStore() *InMemoryPaymentMethodStore {
	return &InMemoryPaymentMethodStore{
		InMemoryStore: NewInMemoryStore[*paymentmethod.SavedPaymentMethod](),
	}
}

func copyMethod(m *paymentmethod.SavedPaymentMethod) *paymentmethod.SavedPaymentMethod {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

func methodNotFound(id string) error {
	return ierr.NewError("payment method not found").
		WithHint("Payment method not found").
		WithReportableDetails(map[string]any{"payment_method_id": id}).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryPaymentMethodStore) visible(ctx context.Context, m *paymentmethod.SavedPaymentMethod) bool {
	return CheckTenantFilter(ctx, m.TenantID) && !m.IsDeleted()
}

func (s *InMemoryPaymentMethodStore) Create(ctx context.Context, m *paymentmethod.SavedPaymentMethod) error {
	if m.TenantID == "" {
		m.TenantID = types.GetTenantID(ctx)
	}
	return s.InMemoryStore.Create(ctx, m.ID, copyMethod(m))
}

func (s *InMemoryPaymentMethodStore) Get(ctx context.Context, id string) (*paymentmethod.SavedPaymentMethod, error) {
	m, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !s.visible(ctx, m) {
		return nil, methodNotFound(id)
	}
	return copyMethod(m), nil
}

func (s *InMemoryPaymentMethodStore) Update(ctx context.Context, m *paymentmethod.SavedPaymentMethod) error {
	existing, err := s.InMemoryStore.Get(ctx, m.ID)
	if err != nil || !s.visible(ctx, existing) {
		return methodNotFound(m.ID)
	}
	m.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, m.ID, copyMethod(m))
}

func (s *InMemoryPaymentMethodStore) FindByToken(ctx context.Context, userID, gateway, token string) (*paymentmethod.SavedPaymentMethod, error) {
	items, err := s.InMemoryStore.List(ctx, nil, func(ctx context.Context, m *paymentmethod.SavedPaymentMethod, _ interface{}) bool {
		return s.visible(ctx, m) && m.UserID == userID && m.Gateway == gateway && m.Token == token
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, methodNotFound("")
	}
	return copyMethod(items[0]), nil
}

// List orders default first, then most recently used, then newest
func (s *InMemoryPaymentMethodStore) List(ctx context.Context, filter *types.PaymentMethodFilter) ([]*paymentmethod.SavedPaymentMethod, error) {
	now := time.Now().UTC()
	items, err := s.InMemoryStore.List(ctx, nil, func(ctx context.Context, m *paymentmethod.SavedPaymentMethod, _ interface{}) bool {
		if !s.visible(ctx, m) || m.UserID != filter.UserID {
			return false
		}
		if filter.Gateway != nil && m.Gateway != string(*filter.Gateway) {
			return false
		}
		if !filter.IncludeInactive && !m.IsActive {
			return false
		}
		if !filter.IncludeExpired && m.ExpiresAt != nil && !m.ExpiresAt.After(now) {
			return false
		}
		return true
	}, func(a, b *paymentmethod.SavedPaymentMethod) bool {
		if a.IsDefault != b.IsDefault {
			return a.IsDefault
		}
		switch {
		case a.LastUsedAt != nil && b.LastUsedAt == nil:
			return true
		case a.LastUsedAt == nil && b.LastUsedAt != nil:
			return false
		case a.LastUsedAt != nil && b.LastUsedAt != nil && !a.LastUsedAt.Equal(*b.LastUsedAt):
			return a.LastUsedAt.After(*b.LastUsedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(m *paymentmethod.SavedPaymentMethod, _ int) *paymentmethod.SavedPaymentMethod {
		return copyMethod(m)
	}), nil
}

func (s *InMemoryPaymentMethodStore) ClearDefault(ctx context.Context, userID, exceptID string) error {
	items, err := s.InMemoryStore.List(ctx, nil, func(ctx context.Context, m *paymentmethod.SavedPaymentMethod, _ interface{}) bool {
		return CheckTenantFilter(ctx, m.TenantID) && m.UserID == userID && m.ID != exceptID && m.IsDefault
	}, nil)
	if err != nil {
		return err
	}
	for _, m := range items {
		c := copyMethod(m)
		c.IsDefault = false
		c.UpdatedAt = time.Now().UTC()
		if err := s.InMemoryStore.Update(ctx, c.ID, c); err != nil {
			return err
		}
	}
	return nil
}

func (s *InMemoryPaymentMethodStore) SoftDelete(ctx context.Context, id string, at time.Time) error {
	m, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !s.visible(ctx, m) {
		return methodNotFound(id)
	}
	c := copyMethod(m)
	c.DeletedAt = &at
	c.IsActive = false
	c.IsDefault = false
	c.UpdatedAt = at
	return s.InMemoryStore.Update(ctx, id, c)
}

func (s *InMemoryPaymentMethodStore) ListExpirable(ctx context.Context, userID string) ([]*paymentmethod.SavedPaymentMethod, error) {
	items, err := s.InMemoryStore.List(ctx, nil, func(ctx context.Context, m *paymentmethod.SavedPaymentMethod, _ interface{}) bool {
		return s.visible(ctx, m) && m.UserID == userID && m.IsActive &&
			(m.ExpiresAt != nil || (m.ExpiryMonth != nil && m.ExpiryYear != nil))
	}, nil)
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(m *paymentmethod.SavedPaymentMethod, _ int) *paymentmethod.SavedPaymentMethod {
		return copyMethod(m)
	}), nil
}

func (s *InMemoryPaymentMethodStore) ListUsersWithActiveMethods(ctx context.Context) ([]paymentmethod.TenantUser, error) {
	items, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, m *paymentmethod.SavedPaymentMethod, _ interface{}) bool {
		return !m.IsDeleted() && m.IsActive
	}, nil)
	if err != nil {
		return nil, err
	}
	users := lo.Map(items, func(m *paymentmethod.SavedPaymentMethod, _ int) paymentmethod.TenantUser {
		return paymentmethod.TenantUser{TenantID: m.TenantID, UserID: m.UserID}
	})
	return lo.Uniq(users), nil
}

// Load returns the stored method including tombstoned ones
func (s *InMemoryPaymentMethodStore) Load(id string) *paymentmethod.SavedPaymentMethod {
	m, err := s.InMemoryStore.Get(context.Background(), id)
	if err != nil {
		return nil
	}
	return copyMethod(m)
}
