package service

import (
	"context"
	"time"

	"github.com/academyhub/paycore/internal/api/dto"
	"github.com/academyhub/paycore/internal/domain/payment"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// RefundService returns money for paid payments
type RefundService interface {
	// RefundPayment refunds amount, or the whole payment when amount is nil.
	// Gateway refusals are reported in the response, guard violations are errors.
	RefundPayment(ctx context.Context, paymentID string, req *dto.RefundPaymentRequest) (*dto.RefundPaymentResponse, error)
}

type refundService struct {
	ServiceParams
	resolver GatewayResolver
	now      func() time.Time
}

func NewRefundService(params ServiceParams, resolver GatewayResolver) RefundService {
	return &refundService{
		ServiceParams: params,
		resolver:      resolver,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *refundService) RefundPayment(ctx context.Context, paymentID string, req *dto.RefundPaymentRequest) (*dto.RefundPaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.PaymentRepo.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !CanRefund(p.Status) {
		return nil, ierr.NewErrorf("payment in status %s cannot be refunded", p.Status).
			WithHint("Only successful payments can be refunded").
			WithReportableDetails(map[string]any{
				"payment_id": p.ID,
				"status":     p.Status,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	amount, err := refundAmount(p, req.Amount)
	if err != nil {
		return nil, err
	}

	client, err := s.resolver.Resolve(ctx, p.TenantID, lo.ToPtr(p.Gateway))
	if err != nil {
		return nil, err
	}
	refunder, ok := client.(gateway.Refunder)
	if !ok {
		return &dto.RefundPaymentResponse{
			ErrorCode:    types.ErrorCodeRefundsNotSupported,
			ErrorMessage: "gateway " + p.Gateway + " does not support refunds",
			Payment:      dto.NewPaymentResponse(p),
		}, nil
	}
	if p.TransactionID() == "" {
		return &dto.RefundPaymentResponse{
			ErrorCode:    types.ErrorCodeNoTransactionID,
			ErrorMessage: "payment has no gateway transaction to refund",
			Payment:      dto.NewPaymentResponse(p),
		}, nil
	}

	result, err := refunder.Refund(ctx, &gateway.RefundRequest{
		PaymentID:     p.ID,
		TransactionID: p.TransactionID(),
		AmountCents:   payment.ToCents(amount),
		Currency:      p.Currency,
		Reason:        req.Reason,
	})
	if err != nil {
		s.Logger.Errorw("gateway refund call failed",
			"payment_id", p.ID,
			"gateway", p.Gateway,
			"error", err,
		)
		return nil, err
	}
	if result.IsFailed() {
		s.Logger.Warnw("gateway refused refund",
			"payment_id", p.ID,
			"code", result.ErrorCode,
			"message", result.ErrorMessage,
		)
		return &dto.RefundPaymentResponse{
			ErrorCode:    types.ErrorCodeRefundFailed,
			ErrorMessage: failureReason(result),
			Payment:      dto.NewPaymentResponse(p),
		}, nil
	}

	var refunded *payment.Payment
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		locked, err := s.PaymentRepo.GetForUpdate(ctx, p.ID)
		if err != nil {
			return err
		}
		if !CanRefund(locked.Status) {
			return ierr.NewError("payment changed while refunding").
				WithHint("Payment is no longer refundable").
				Mark(ierr.ErrInvalidOperation)
		}

		now := s.now()
		locked.Status = types.PaymentStatusRefunded
		locked.RefundAmount = lo.ToPtr(amount)
		locked.RefundReason = lo.ToPtr(req.Reason)
		locked.RefundedAt = &now
		locked.UpdatedAt = now
		locked.UpdatedBy = types.GetUserID(ctx)
		if len(result.RawResponse) > 0 {
			locked.GatewayResponse = gateway.Sanitize(result.RawResponse)
		}
		if err := s.PaymentRepo.Update(ctx, locked); err != nil {
			return err
		}
		refunded = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("refunded payment",
		"payment_id", refunded.ID,
		"amount", amount.String(),
		"refund_id", result.TransactionID,
		"pending", result.IsPending(),
	)

	// the success notification guard does not apply to refunds
	dispatchPaymentNotification(ctx, s.ServiceParams, refunded, types.NotificationRefund, map[string]any{
		"refund_amount": amount.StringFixed(2),
		"reason":        req.Reason,
	})

	return &dto.RefundPaymentResponse{
		Success: true,
		Payment: dto.NewPaymentResponse(refunded),
	}, nil
}

func refundAmount(p *payment.Payment, requested *decimal.Decimal) (decimal.Decimal, error) {
	if requested == nil {
		return p.Amount, nil
	}
	if !requested.IsPositive() || requested.GreaterThan(p.Amount) {
		return decimal.Zero, ierr.NewError("invalid refund amount").
			WithHintf("Refund amount must be greater than zero and at most %s", p.Amount.StringFixed(2)).
			WithReportableDetails(map[string]any{
				"payment_id": p.ID,
				"amount":     requested.String(),
				"paid":       p.Amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return *requested, nil
}
