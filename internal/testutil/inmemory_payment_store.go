package testutil

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/academyhub/paycore/internal/domain/payment"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/types"
	"github.com/samber/lo"
)

var _ payment.Repository = (*InMemoryPaymentStore)(nil)

// InMemoryPaymentStore implements payment.Repository.
// Payments are copied on the way in and out so callers only change stored state through Update.
type InMemoryPaymentStore struct {
	*InMemoryStore[*payment.Payment]
}

// NewInMemoryPaymentStore creates a new in-memory payment repository
func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		InMemoryStore: NewInMemoryStore[*payment.Payment](),
	}
}

func copyPayment(p *payment.Payment) *payment.Payment {
	if p == nil {
		return nil
	}
	c := *p
	if p.Metadata.Extras != nil {
		c.Metadata.Extras = lo.Assign(p.Metadata.Extras)
	}
	return &c
}

// Create stores a new payment
func (s *InMemoryPaymentStore) Create(ctx context.Context, p *payment.Payment) error {
	if p == nil {
		return ierr.NewError("payment cannot be nil").
			WithHint("Payment cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if p.TenantID == "" {
		p.TenantID = types.GetTenantID(ctx)
	}
	return s.InMemoryStore.Create(ctx, p.ID, copyPayment(p))
}

// Get retrieves a payment by ID within the context tenant
func (s *InMemoryPaymentStore) Get(ctx context.Context, id string) (*payment.Payment, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CheckTenantFilter(ctx, p.TenantID) {
		return nil, ierr.NewError("payment not found").
			WithHint("Payment not found").
			Mark(ierr.ErrNotFound)
	}
	return copyPayment(p), nil
}

// GetForUpdate behaves like Get, the mock client already serializes transactions
func (s *InMemoryPaymentStore) GetForUpdate(ctx context.Context, id string) (*payment.Payment, error) {
	return s.Get(ctx, id)
}

// GetByGatewayTransactionID matches transaction, intent and order ids like the postgres repository
func (s *InMemoryPaymentStore) GetByGatewayTransactionID(ctx context.Context, gateway, transactionID string) (*payment.Payment, error) {
	matches, err := s.InMemoryStore.List(ctx, nil, func(ctx context.Context, p *payment.Payment, _ interface{}) bool {
		if !CheckTenantFilter(ctx, p.TenantID) || p.Gateway != gateway {
			return false
		}
		return lo.FromPtr(p.GatewayTransactionID) == transactionID ||
			lo.FromPtr(p.GatewayIntentID) == transactionID ||
			lo.FromPtr(p.GatewayOrderID) == transactionID
	}, func(a, b *payment.Payment) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ierr.NewError("payment not found").
			WithHint("Payment not found").
			WithReportableDetails(map[string]any{"gateway": gateway, "transaction_id": transactionID}).
			Mark(ierr.ErrNotFound)
	}
	return copyPayment(matches[0]), nil
}

// Update updates an existing payment
func (s *InMemoryPaymentStore) Update(ctx context.Context, p *payment.Payment) error {
	if p == nil {
		return ierr.NewError("payment cannot be nil").
			WithHint("Payment cannot be nil").
			Mark(ierr.ErrValidation)
	}
	p.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, p.ID, copyPayment(p))
}

// List returns payments of the context tenant matching the filter
func (s *InMemoryPaymentStore) List(ctx context.Context, filter *types.PaymentFilter) ([]*payment.Payment, error) {
	if filter == nil {
		filter = types.NewNoLimitPaymentFilter()
	}
	items, err := s.InMemoryStore.List(ctx, filter, paymentFilterFn, paymentSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(p *payment.Payment, _ int) *payment.Payment { return copyPayment(p) }), nil
}

// Count counts payments of the context tenant matching the filter
func (s *InMemoryPaymentStore) Count(ctx context.Context, filter *types.PaymentFilter) (int, error) {
	if filter == nil {
		filter = types.NewNoLimitPaymentFilter()
	}
	return s.InMemoryStore.Count(ctx, filter, paymentFilterFn)
}

// LockInvoiceSequence is a no-op, the mock client serializes transactions
func (s *InMemoryPaymentStore) LockInvoiceSequence(ctx context.Context, tenantID, prefix string) error {
	return nil
}

// MaxInvoiceSequence scans invoice numbers starting with prefix
func (s *InMemoryPaymentStore) MaxInvoiceSequence(ctx context.Context, tenantID, prefix string) (int, error) {
	items, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, p *payment.Payment, _ interface{}) bool {
		return p.TenantID == tenantID && strings.HasPrefix(p.Metadata.InvoiceNumber, prefix)
	}, nil)
	if err != nil {
		return 0, err
	}

	max := 0
	for _, p := range items {
		n, err := strconv.Atoi(strings.TrimPrefix(p.Metadata.InvoiceNumber, prefix))
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}

// ListStale returns pending payments of every tenant created before cutoff, oldest first
func (s *InMemoryPaymentStore) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]*payment.Payment, error) {
	items, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, p *payment.Payment, _ interface{}) bool {
		return p.Status == types.PaymentStatusPending && p.CreatedAt.Before(cutoff)
	}, func(a, b *payment.Payment) bool {
		return a.CreatedAt.Before(b.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return lo.Map(items, func(p *payment.Payment, _ int) *payment.Payment { return copyPayment(p) }), nil
}

// Seed stores a payment as is, for arranging test state
func (s *InMemoryPaymentStore) Seed(p *payment.Payment) {
	_ = s.InMemoryStore.Create(context.Background(), p.ID, copyPayment(p))
}

// Load returns the stored payment regardless of tenant
func (s *InMemoryPaymentStore) Load(id string) *payment.Payment {
	p, err := s.InMemoryStore.Get(context.Background(), id)
	if err != nil {
		return nil
	}
	return copyPayment(p)
}

func paymentFilterFn(ctx context.Context, p *payment.Payment, filter interface{}) bool {
	f, ok := filter.(*types.PaymentFilter)
	if !ok {
		return true
	}
	if !CheckTenantFilter(ctx, p.TenantID) {
		return false
	}
	if len(f.PaymentIDs) > 0 && !lo.Contains(f.PaymentIDs, p.ID) {
		return false
	}
	if f.UserID != nil && p.UserID != *f.UserID {
		return false
	}
	if f.PayableType != nil && p.PayableType != *f.PayableType {
		return false
	}
	if f.PayableID != nil && p.PayableID != *f.PayableID {
		return false
	}
	if len(f.Statuses) > 0 && !lo.Contains(f.Statuses, p.Status) {
		return false
	}
	if f.Gateway != nil && p.Gateway != *f.Gateway {
		return false
	}
	if f.CreatedBefore != nil && !p.CreatedAt.Before(*f.CreatedBefore) {
		return false
	}
	return true
}

func paymentSortFn(a, b *payment.Payment) bool {
	return a.CreatedAt.After(b.CreatedAt)
}
