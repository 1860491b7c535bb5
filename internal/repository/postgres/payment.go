package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/academyhub/paycore/internal/domain/payment"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/postgres"
	"github.com/academyhub/paycore/internal/types"
	"github.com/lib/pq"
	"github.com/samber/lo"
)

type paymentRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewPaymentRepository creates a new instance of payment repository
func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return &paymentRepository{db: db, logger: logger}
}

const paymentColumns = `
	id, payment_code, user_id, payable_type, payable_id,
	amount, currency, fees, net_amount, payment_method, status, payment_gateway,
	gateway_transaction_id, gateway_order_id, gateway_intent_id, client_secret,
	redirect_url, iframe_url, gateway_response, failure_reason,
	paid_at, payment_date, receipt_number,
	refund_amount, refund_reason, refunded_at,
	payment_notification_sent_at, saved_payment_method_id, metadata,
	tenant_id, created_at, updated_at, created_by, updated_by`

func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	r.logger.Debugw("creating payment",
		"payment_id", p.ID,
		"tenant_id", p.TenantID,
		"payable_type", p.PayableType,
		"amount", p.Amount,
	)

	query := fmt.Sprintf(`INSERT INTO payments (%s) VALUES (%s)`,
		paymentColumns, namedParams(paymentColumns))

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, p); err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("Payment already exists").
				WithReportableDetails(map[string]any{"payment_id": p.ID}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create payment").
			WithReportableDetails(map[string]any{"payment_id": p.ID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id string) (*payment.Payment, error) {
	return r.get(ctx, id, false)
}

func (r *paymentRepository) GetForUpdate(ctx context.Context, id string) (*payment.Payment, error) {
	if !postgres.InTx(ctx) {
		return nil, ierr.NewError("row lock requires a transaction").
			WithHint("Payment can only be locked inside a transaction").
			Mark(ierr.ErrInvalidOperation)
	}
	return r.get(ctx, id, true)
}

func (r *paymentRepository) get(ctx context.Context, id string, forUpdate bool) (*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 AND tenant_id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	r.logger.Debugw("getting payment",
		"payment_id", id,
		"tenant_id", types.GetTenantID(ctx),
		"for_update", forUpdate,
	)

	var p payment.Payment
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query, id, types.GetTenantID(ctx)); err != nil {
		return nil, notFoundOr(err, "Payment not found", map[string]any{"payment_id": id})
	}
	return &p, nil
}

func (r *paymentRepository) GetByGatewayTransactionID(ctx context.Context, gateway, transactionID string) (*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE tenant_id = $1
		AND payment_gateway = $2
		AND (gateway_transaction_id = $3 OR gateway_intent_id = $3 OR gateway_order_id = $3)
		ORDER BY created_at DESC
		LIMIT 1`

	var p payment.Payment
	err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query, types.GetTenantID(ctx), gateway, transactionID)
	if err != nil {
		return nil, notFoundOr(err, "Payment not found", map[string]any{
			"gateway":        gateway,
			"transaction_id": transactionID,
		})
	}
	return &p, nil
}

func (r *paymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	p.UpdatedAt = time.Now().UTC()
	if userID := types.GetUserID(ctx); userID != "" {
		p.UpdatedBy = userID
	}

	query := `
		UPDATE payments SET
			status = :status,
			fees = :fees,
			net_amount = :net_amount,
			gateway_transaction_id = :gateway_transaction_id,
			gateway_order_id = :gateway_order_id,
			gateway_intent_id = :gateway_intent_id,
			client_secret = :client_secret,
			redirect_url = :redirect_url,
			iframe_url = :iframe_url,
			gateway_response = :gateway_response,
			failure_reason = :failure_reason,
			paid_at = :paid_at,
			payment_date = :payment_date,
			receipt_number = :receipt_number,
			refund_amount = :refund_amount,
			refund_reason = :refund_reason,
			refunded_at = :refunded_at,
			payment_notification_sent_at = :payment_notification_sent_at,
			saved_payment_method_id = :saved_payment_method_id,
			metadata = :metadata,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id`

	r.logger.Debugw("updating payment",
		"payment_id", p.ID,
		"tenant_id", p.TenantID,
		"status", p.Status,
	)

	result, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, p)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update payment").
			WithReportableDetails(map[string]any{"payment_id": p.ID}).
			Mark(ierr.ErrDatabase)
	}
	return requireAffected(result, "Payment not found", map[string]any{"payment_id": p.ID})
}

func (r *paymentRepository) List(ctx context.Context, filter *types.PaymentFilter) ([]*payment.Payment, error) {
	if filter == nil {
		filter = types.NewPaymentFilter()
	}
	where, args := paymentWhere(ctx, filter)

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ` + where +
		fmt.Sprintf(` ORDER BY %s %s`, sortColumn(filter.GetSort()), sortOrder(filter.GetOrder()))
	if !filter.IsUnlimited() {
		args = append(args, filter.GetLimit(), filter.GetOffset())
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	var payments []*payment.Payment
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list payments").
			Mark(ierr.ErrDatabase)
	}
	return payments, nil
}

func (r *paymentRepository) Count(ctx context.Context, filter *types.PaymentFilter) (int, error) {
	if filter == nil {
		filter = types.NewNoLimitPaymentFilter()
	}
	where, args := paymentWhere(ctx, filter)

	var count int
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &count, `SELECT COUNT(*) FROM payments WHERE `+where, args...); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count payments").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *paymentRepository) LockInvoiceSequence(ctx context.Context, tenantID, prefix string) error {
	if err := r.db.LockKey(ctx, tenantID+"|"+prefix); err != nil {
		return err
	}

	// row locks on the already numbered payments of this month
	query := `SELECT id FROM payments
		WHERE tenant_id = $1
		AND left(metadata->>'invoice_number', length($2)) = $2
		FOR UPDATE`

	var ids []string
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &ids, query, tenantID, prefix); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to lock invoice sequence").
			WithReportableDetails(map[string]any{"prefix": prefix}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentRepository) MaxInvoiceSequence(ctx context.Context, tenantID, prefix string) (int, error) {
	query := `SELECT COALESCE(MAX(CAST(substr(metadata->>'invoice_number', length($2) + 1) AS INTEGER)), 0)
		FROM payments
		WHERE tenant_id = $1
		AND left(metadata->>'invoice_number', length($2)) = $2
		AND substr(metadata->>'invoice_number', length($2) + 1) ~ '^[0-9]+$'`

	var max int
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &max, query, tenantID, prefix); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to read invoice sequence").
			WithReportableDetails(map[string]any{"prefix": prefix}).
			Mark(ierr.ErrDatabase)
	}
	return max, nil
}

func (r *paymentRepository) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC
		LIMIT $3`

	var payments []*payment.Payment
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &payments, query, types.PaymentStatusPending, cutoff, limit)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list stale payments").
			Mark(ierr.ErrDatabase)
	}
	return payments, nil
}

func paymentWhere(ctx context.Context, filter *types.PaymentFilter) (string, []interface{}) {
	conds := []string{"tenant_id = $1"}
	args := []interface{}{types.GetTenantID(ctx)}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if len(filter.PaymentIDs) > 0 {
		add("id = ANY($%d)", pq.Array(filter.PaymentIDs))
	}
	if filter.UserID != nil {
		add("user_id = $%d", *filter.UserID)
	}
	if filter.PayableType != nil {
		add("payable_type = $%d", string(*filter.PayableType))
	}
	if filter.PayableID != nil {
		add("payable_id = $%d", *filter.PayableID)
	}
	if len(filter.Statuses) > 0 {
		add("status = ANY($%d)", pq.Array(lo.Map(filter.Statuses, func(s types.PaymentStatus, _ int) string {
			return string(s)
		})))
	}
	if filter.Gateway != nil {
		add("payment_gateway = $%d", *filter.Gateway)
	}
	if filter.CreatedBefore != nil {
		add("created_at < $%d", *filter.CreatedBefore)
	}
	return strings.Join(conds, " AND "), args
}
