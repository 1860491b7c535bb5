package postgres

import (
	"context"
	"encoding/json"

	"github.com/academyhub/paycore/internal/domain/tenant"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/postgres"
	"github.com/lib/pq"
)

type tenantRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewTenantRepository(db *postgres.DB, logger *logger.Logger) tenant.Repository {
	return &tenantRepository{db: db, logger: logger}
}

type paymentSettingsRow struct {
	TenantID         string         `db:"tenant_id"`
	AcademyName      string         `db:"academy_name"`
	ContactEmail     *string        `db:"contact_email"`
	DefaultGateway   *string        `db:"default_gateway"`
	EnabledGateways  pq.StringArray `db:"enabled_gateways"`
	GatewayOverrides []byte         `db:"gateway_overrides"`
}

// GetPaymentSettings returns empty settings for academies that never configured payments
func (r *tenantRepository) GetPaymentSettings(ctx context.Context, tenantID string) (*tenant.PaymentSettings, error) {
	query := `SELECT t.id AS tenant_id, t.name AS academy_name, t.contact_email,
			s.default_gateway, COALESCE(s.enabled_gateways, '{}') AS enabled_gateways,
			COALESCE(s.gateway_overrides, '{}'::jsonb) AS gateway_overrides
		FROM tenants t
		LEFT JOIN tenant_payment_settings s ON s.tenant_id = t.id
		WHERE t.id = $1`

	var row paymentSettingsRow
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &row, query, tenantID); err != nil {
		return nil, notFoundOr(err, "Academy not found", map[string]any{"tenant_id": tenantID})
	}

	overrides := make(map[string]map[string]string)
	if len(row.GatewayOverrides) > 0 {
		if err := json.Unmarshal(row.GatewayOverrides, &overrides); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Academy gateway settings are malformed").
				WithReportableDetails(map[string]any{"tenant_id": tenantID}).
				Mark(ierr.ErrConfiguration)
		}
	}

	return &tenant.PaymentSettings{
		TenantID:         row.TenantID,
		AcademyName:      row.AcademyName,
		ContactEmail:     row.ContactEmail,
		DefaultGateway:   row.DefaultGateway,
		EnabledGateways:  []string(row.EnabledGateways),
		GatewayOverrides: overrides,
	}, nil
}
