package postgres

import (
	"context"

	"github.com/academyhub/paycore/internal/domain/subscription"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/postgres"
	"github.com/academyhub/paycore/internal/types"
)

type subscriptionRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger}
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	query := `SELECT id, student_id, plan_name, currency, renewal_price, discount_amount,
			preferred_gateway, tenant_id, created_at, updated_at, created_by, updated_by
		FROM subscriptions WHERE id = $1 AND tenant_id = $2`

	var s subscription.Subscription
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &s, query, id, types.GetTenantID(ctx)); err != nil {
		return nil, notFoundOr(err, "Subscription not found", map[string]any{"subscription_id": id})
	}
	return &s, nil
}
