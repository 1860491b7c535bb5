package postgres

import (
	"context"

	"github.com/academyhub/paycore/internal/domain/user"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/postgres"
	"github.com/academyhub/paycore/internal/types"
)

type userRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewUserRepository(db *postgres.DB, logger *logger.Logger) user.Repository {
	return &userRepository{db: db, logger: logger}
}

func (r *userRepository) Get(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT id, name, email, phone, tenant_id, created_at, updated_at, created_by, updated_by
		FROM users WHERE id = $1 AND tenant_id = $2`

	var u user.User
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &u, query, id, types.GetTenantID(ctx)); err != nil {
		return nil, notFoundOr(err, "User not found", map[string]any{"user_id": id})
	}
	return &u, nil
}
