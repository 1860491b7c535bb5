package postgres

import (
	"database/sql"
	"errors"
	"strings"

	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/types"
	"github.com/lib/pq"
	"github.com/samber/lo"
)

const uniqueViolation = "23505"

// namedParams turns a column list into the matching :name placeholders
func namedParams(columns string) string {
	cols := lo.Map(strings.Split(columns, ","), func(c string, _ int) string {
		return ":" + strings.TrimSpace(c)
	})
	return strings.Join(cols, ", ")
}

func notFoundOr(err error, hint string, details map[string]any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ierr.WithError(err).
			WithHint(hint).
			WithReportableDetails(details).
			Mark(ierr.ErrNotFound)
	}
	return ierr.WithError(err).
		WithHint("Database query failed").
		WithReportableDetails(details).
		Mark(ierr.ErrDatabase)
}

func requireAffected(result sql.Result, hint string, details map[string]any) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to get rows affected").
			Mark(ierr.ErrDatabase)
	}
	if rows == 0 {
		return ierr.NewError("no rows affected").
			WithHint(hint).
			WithReportableDetails(details).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

var sortableColumns = []string{"created_at", "updated_at", "amount", "status", "paid_at"}

func sortColumn(sort string) string {
	if lo.Contains(sortableColumns, sort) {
		return sort
	}
	return types.FILTER_DEFAULT_SORT
}

func sortOrder(order string) string {
	if strings.EqualFold(order, "asc") {
		return "ASC"
	}
	return "DESC"
}
