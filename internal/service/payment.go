package service

import (
	"context"
	"time"

	"github.com/academyhub/paycore/internal/api/dto"
	"github.com/academyhub/paycore/internal/domain/payment"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/types"
	"github.com/samber/lo"
)

// staleBatchSize bounds how many payments one expiry sweep touches
const staleBatchSize = 500

type PaymentService interface {
	GetPayment(ctx context.Context, id string) (*dto.PaymentResponse, error)
	ListPayments(ctx context.Context, filter *types.PaymentFilter) (*dto.ListPaymentsResponse, error)
	// ExpireStalePayments moves pending payments created before now-olderThan to expired
	ExpireStalePayments(ctx context.Context, olderThan time.Duration) (int, error)
	// RetryPayment reopens a failed or expired payment as pending
	RetryPayment(ctx context.Context, id string) (*dto.PaymentResponse, error)
}

type paymentService struct {
	ServiceParams
	now func() time.Time
}

func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{
		ServiceParams: params,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *paymentService) GetPayment(ctx context.Context, id string) (*dto.PaymentResponse, error) {
	p, err := s.PaymentRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewPaymentResponse(p), nil
}

func (s *paymentService) ListPayments(ctx context.Context, filter *types.PaymentFilter) (*dto.ListPaymentsResponse, error) {
	if filter == nil {
		filter = types.NewPaymentFilter()
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	payments, err := s.PaymentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	count, err := s.PaymentRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &dto.ListPaymentsResponse{
		Items:      lo.Map(payments, func(p *payment.Payment, _ int) *dto.PaymentResponse { return dto.NewPaymentResponse(p) }),
		Pagination: types.NewPaginationResponse(count, filter.GetLimit(), filter.GetOffset()),
	}, nil
}

func (s *paymentService) ExpireStalePayments(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		olderThan = s.Config.Payments.StalePaymentAfter
	}
	cutoff := s.now().Add(-olderThan)

	stale, err := s.PaymentRepo.ListStale(ctx, cutoff, staleBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, candidate := range stale {
		tenantCtx := types.SetTenantID(ctx, candidate.TenantID)
		err := s.DB.WithTx(tenantCtx, func(ctx context.Context) error {
			p, err := s.PaymentRepo.GetForUpdate(ctx, candidate.ID)
			if err != nil {
				return err
			}
			// a webhook may have moved it since the listing
			if !CanTransition(p.Status, types.PaymentStatusExpired) || p.Status == types.PaymentStatusExpired {
				return nil
			}
			p.Status = types.PaymentStatusExpired
			p.FailureReason = lo.ToPtr("payment expired before completion")
			p.UpdatedAt = s.now()
			if err := s.PaymentRepo.Update(ctx, p); err != nil {
				return err
			}
			expired++
			return nil
		})
		if err != nil {
			s.Logger.Errorw("failed to expire stale payment",
				"payment_id", candidate.ID,
				"tenant_id", candidate.TenantID,
				"error", err,
			)
		}
	}

	s.Logger.Infow("expired stale payments",
		"cutoff", cutoff,
		"candidates", len(stale),
		"expired", expired,
	)
	return expired, nil
}

func (s *paymentService) RetryPayment(ctx context.Context, id string) (*dto.PaymentResponse, error) {
	var retried *payment.Payment

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		p, err := s.PaymentRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p.Status != types.PaymentStatusFailed && p.Status != types.PaymentStatusExpired {
			return ierr.NewErrorf("payment in status %s cannot be retried", p.Status).
				WithHint("Only failed or expired payments can be retried").
				Mark(ierr.ErrInvalidOperation)
		}
		if err := ValidateTransition(p.Status, types.PaymentStatusPending); err != nil {
			return err
		}

		p.Status = types.PaymentStatusPending
		p.FailureReason = nil
		// the next outcome deserves its own notification
		p.PaymentNotificationSentAt = nil
		p.UpdatedAt = s.now()
		if err := s.PaymentRepo.Update(ctx, p); err != nil {
			return err
		}
		retried = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.NewPaymentResponse(retried), nil
}
