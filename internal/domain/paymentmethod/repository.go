package paymentmethod

import (
	"context"
	"time"

	"github.com/academyhub/paycore/internal/types"
)

// Repository defines the interface for saved payment method persistence.
// Tombstoned methods are never returned by reads.
type Repository interface {
	Create(ctx context.Context, method *SavedPaymentMethod) error
	Get(ctx context.Context, id string) (*SavedPaymentMethod, error)
	Update(ctx context.Context, method *SavedPaymentMethod) error
	// FindByToken returns the method for (user, gateway, token) or ErrNotFound
	FindByToken(ctx context.Context, userID, gateway, token string) (*SavedPaymentMethod, error)
	// List returns methods ordered default first, then last used, then newest
	List(ctx context.Context, filter *types.PaymentMethodFilter) ([]*SavedPaymentMethod, error)
	// ClearDefault unsets is_default on every method of the user except exceptID
	ClearDefault(ctx context.Context, userID, exceptID string) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	// ListExpirable returns active methods of the user whose expiry data is set
	ListExpirable(ctx context.Context, userID string) ([]*SavedPaymentMethod, error)
	// ListUsersWithActiveMethods returns (tenant, user) pairs owning active methods
	ListUsersWithActiveMethods(ctx context.Context) ([]TenantUser, error)
}

// TenantUser identifies a user within a tenant
type TenantUser struct {
	TenantID string `db:"tenant_id"`
	UserID   string `db:"user_id"`
}
