package testutil

import (
	"context"

	"github.com/academyhub/paycore/internal/domain/tenant"
)

var _ tenant.Repository = (*InMemoryTenantStore)(nil)

// InMemoryTenantStore holds academy payment settings keyed by tenant id
type InMemoryTenantStore struct {
	*InMemoryStore[*tenant.PaymentSettings]
}

func NewInMemoryTenantStore() *InMemoryTenantStore {
	return &InMemoryTenantStore{
		InMemoryStore: NewInMemoryStore[*tenant.PaymentSettings](),
	}
}

func (s *InMemoryTenantStore) GetPaymentSettings(ctx context.Context, tenantID string) (*tenant.PaymentSettings, error) {
	return s.InMemoryStore.Get(ctx, tenantID)
}

// SetPaymentSettings replaces the settings of a tenant
func (s *InMemoryTenantStore) SetPaymentSettings(settings *tenant.PaymentSettings) {
	ctx := context.Background()
	if err := s.InMemoryStore.Update(ctx, settings.TenantID, settings); err != nil {
		_ = s.InMemoryStore.Create(ctx, settings.TenantID, settings)
	}
}
