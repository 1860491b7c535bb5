package payment

import (
	"context"
	"time"

	"github.com/academyhub/paycore/internal/types"
)

// Repository defines the interface for payment persistence
type Repository interface {
	Create(ctx context.Context, payment *Payment) error
	Get(ctx context.Context, id string) (*Payment, error)
	// GetForUpdate reads the payment and locks its row until the surrounding transaction ends
	GetForUpdate(ctx context.Context, id string) (*Payment, error)
	GetByGatewayTransactionID(ctx context.Context, gateway, transactionID string) (*Payment, error)
	Update(ctx context.Context, payment *Payment) error
	List(ctx context.Context, filter *types.PaymentFilter) ([]*Payment, error)
	Count(ctx context.Context, filter *types.PaymentFilter) (int, error)

	// LockInvoiceSequence serializes invoice number allocation for a tenant and prefix.
	// It must be called inside a transaction.
	LockInvoiceSequence(ctx context.Context, tenantID, prefix string) error
	// MaxInvoiceSequence returns the highest numeric suffix used with prefix, zero when none
	MaxInvoiceSequence(ctx context.Context, tenantID, prefix string) (int, error)

	// ListStale returns pending payments created before cutoff across all tenants
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]*Payment, error)
}
