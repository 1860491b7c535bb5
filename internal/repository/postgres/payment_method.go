package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/academyhub/paycore/internal/domain/paymentmethod"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/postgres"
	"github.com/academyhub/paycore/internal/types"
)

type paymentMethodRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewPaymentMethodRepository creates a new instance of saved payment method repository
func NewPaymentMethodRepository(db *postgres.DB, logger *logger.Logger) paymentmethod.Repository {
	return &paymentMethodRepository{db: db, logger: logger}
}

const paymentMethodColumns = `
	id, user_id, gateway, token, gateway_customer_id, type,
	brand, last_four, expiry_month, expiry_year, holder_name, display_name,
	is_default, is_active, last_used_at, expires_at,
	billing_address, metadata, deleted_at,
	tenant_id, created_at, updated_at, created_by, updated_by`

func (r *paymentMethodRepository) Create(ctx context.Context, m *paymentmethod.SavedPaymentMethod) error {
	r.logger.Debugw("creating saved payment method",
		"payment_method_id", m.ID,
		"user_id", m.UserID,
		"gateway", m.Gateway,
	)

	query := fmt.Sprintf(`INSERT INTO saved_payment_methods (%s) VALUES (%s)`,
		paymentMethodColumns, namedParams(paymentMethodColumns))

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, m); err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("Payment method already saved").
				WithReportableDetails(map[string]any{"user_id": m.UserID, "gateway": m.Gateway}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to save payment method").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentMethodRepository) Get(ctx context.Context, id string) (*paymentmethod.SavedPaymentMethod, error) {
	query := `SELECT ` + paymentMethodColumns + ` FROM saved_payment_methods
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`

	var m paymentmethod.SavedPaymentMethod
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &m, query, id, types.GetTenantID(ctx)); err != nil {
		return nil, notFoundOr(err, "Payment method not found", map[string]any{"payment_method_id": id})
	}
	return &m, nil
}

func (r *paymentMethodRepository) Update(ctx context.Context, m *paymentmethod.SavedPaymentMethod) error {
	m.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE saved_payment_methods SET
			gateway_customer_id = :gateway_customer_id,
			type = :type,
			brand = :brand,
			last_four = :last_four,
			expiry_month = :expiry_month,
			expiry_year = :expiry_year,
			holder_name = :holder_name,
			display_name = :display_name,
			is_default = :is_default,
			is_active = :is_active,
			last_used_at = :last_used_at,
			expires_at = :expires_at,
			billing_address = :billing_address,
			metadata = :metadata,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND deleted_at IS NULL`

	result, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, m)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update payment method").
			WithReportableDetails(map[string]any{"payment_method_id": m.ID}).
			Mark(ierr.ErrDatabase)
	}
	return requireAffected(result, "Payment method not found", map[string]any{"payment_method_id": m.ID})
}

func (r *paymentMethodRepository) FindByToken(ctx context.Context, userID, gateway, token string) (*paymentmethod.SavedPaymentMethod, error) {
	query := `SELECT ` + paymentMethodColumns + ` FROM saved_payment_methods
		WHERE tenant_id = $1 AND user_id = $2 AND gateway = $3 AND token = $4 AND deleted_at IS NULL`

	var m paymentmethod.SavedPaymentMethod
	err := r.db.GetQuerier(ctx).GetContext(ctx, &m, query, types.GetTenantID(ctx), userID, gateway, token)
	if err != nil {
		return nil, notFoundOr(err, "Payment method not found", map[string]any{"user_id": userID, "gateway": gateway})
	}
	return &m, nil
}

func (r *paymentMethodRepository) List(ctx context.Context, filter *types.PaymentMethodFilter) ([]*paymentmethod.SavedPaymentMethod, error) {
	conds := []string{"tenant_id = $1", "user_id = $2", "deleted_at IS NULL"}
	args := []interface{}{types.GetTenantID(ctx), filter.UserID}

	if filter.Gateway != nil {
		args = append(args, string(*filter.Gateway))
		conds = append(conds, fmt.Sprintf("gateway = $%d", len(args)))
	}
	if !filter.IncludeInactive {
		conds = append(conds, "is_active = TRUE")
	}
	if !filter.IncludeExpired {
		args = append(args, time.Now().UTC())
		conds = append(conds, fmt.Sprintf("(expires_at IS NULL OR expires_at > $%d)", len(args)))
	}

	query := `SELECT ` + paymentMethodColumns + ` FROM saved_payment_methods
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY is_default DESC, last_used_at DESC NULLS LAST, created_at DESC`

	var methods []*paymentmethod.SavedPaymentMethod
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &methods, query, args...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list payment methods").
			Mark(ierr.ErrDatabase)
	}
	return methods, nil
}

func (r *paymentMethodRepository) ClearDefault(ctx context.Context, userID, exceptID string) error {
	query := `UPDATE saved_payment_methods SET is_default = FALSE, updated_at = $4
		WHERE tenant_id = $1 AND user_id = $2 AND id <> $3 AND is_default = TRUE`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, types.GetTenantID(ctx), userID, exceptID, time.Now().UTC())
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to clear default payment method").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentMethodRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE saved_payment_methods
		SET deleted_at = $3, is_active = FALSE, is_default = FALSE, updated_at = $3
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id, types.GetTenantID(ctx), at)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete payment method").
			Mark(ierr.ErrDatabase)
	}
	return requireAffected(result, "Payment method not found", map[string]any{"payment_method_id": id})
}

func (r *paymentMethodRepository) ListExpirable(ctx context.Context, userID string) ([]*paymentmethod.SavedPaymentMethod, error) {
	query := `SELECT ` + paymentMethodColumns + ` FROM saved_payment_methods
		WHERE tenant_id = $1 AND user_id = $2 AND deleted_at IS NULL AND is_active = TRUE
		AND (expires_at IS NOT NULL OR (expiry_month IS NOT NULL AND expiry_year IS NOT NULL))`

	var methods []*paymentmethod.SavedPaymentMethod
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &methods, query, types.GetTenantID(ctx), userID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list expirable payment methods").
			Mark(ierr.ErrDatabase)
	}
	return methods, nil
}

func (r *paymentMethodRepository) ListUsersWithActiveMethods(ctx context.Context) ([]paymentmethod.TenantUser, error) {
	query := `SELECT DISTINCT tenant_id, user_id FROM saved_payment_methods
		WHERE deleted_at IS NULL AND is_active = TRUE`

	var users []paymentmethod.TenantUser
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &users, query); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list payment method owners").
			Mark(ierr.ErrDatabase)
	}
	return users, nil
}
