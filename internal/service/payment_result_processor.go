package service

import (
	"context"
	"fmt"
	"time"

	"github.com/academyhub/paycore/internal/domain/payment"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/notification"
	"github.com/academyhub/paycore/internal/types"
	"github.com/samber/lo"
)

// PaymentResultProcessor applies gateway outcomes to payments and notifies students
type PaymentResultProcessor interface {
	// ApplyResult persists the result and sends the outcome notification once.
	// An illegal status change returns the stored payment together with ErrInvalidTransition.
	ApplyResult(ctx context.Context, paymentID string, result *gateway.PaymentResult) (*payment.Payment, error)

	// Persist is ApplyResult without notifications, for callers that own the transaction
	Persist(ctx context.Context, paymentID string, result *gateway.PaymentResult) (*payment.Payment, error)

	// SendNotifications notifies the payer unless payment_notification_sent_at is already set
	SendNotifications(ctx context.Context, p *payment.Payment, kind types.NotificationKind) error
}

type paymentResultProcessor struct {
	ServiceParams
	now func() time.Time
}

func NewPaymentResultProcessor(params ServiceParams) PaymentResultProcessor {
	return &paymentResultProcessor{
		ServiceParams: params,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *paymentResultProcessor) ApplyResult(ctx context.Context, paymentID string, result *gateway.PaymentResult) (*payment.Payment, error) {
	out, err := s.persist(ctx, paymentID, result)
	if err != nil {
		return nil, err
	}
	p := out.payment
	if out.transitionErr != nil {
		return p, out.transitionErr
	}

	if out.before != p.Status {
		switch p.Status {
		case types.PaymentStatusSuccess:
			_ = s.SendNotifications(ctx, p, types.NotificationPaymentSuccess)
		case types.PaymentStatusFailed, types.PaymentStatusCancelled:
			_ = s.SendNotifications(ctx, p, types.NotificationPaymentFailed)
		}
	}
	return p, nil
}

func (s *paymentResultProcessor) Persist(ctx context.Context, paymentID string, result *gateway.PaymentResult) (*payment.Payment, error) {
	out, err := s.persist(ctx, paymentID, result)
	if err != nil {
		return nil, err
	}
	return out.payment, out.transitionErr
}

// persistOutcome keeps a rejected transition apart from failures so the audit fields still commit
type persistOutcome struct {
	before        types.PaymentStatus
	payment       *payment.Payment
	transitionErr error
}

func (s *paymentResultProcessor) persist(ctx context.Context, paymentID string, result *gateway.PaymentResult) (*persistOutcome, error) {
	if result == nil {
		return nil, ierr.NewError("payment result is required").
			WithHint("Gateway result is missing").
			Mark(ierr.ErrValidation)
	}

	var (
		before        types.PaymentStatus
		stored        *payment.Payment
		transitionErr error
	)

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		p, err := s.PaymentRepo.GetForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		before = p.Status
		stored = p

		target, decisive := resolveTarget(p.Status, result)
		if IsTerminalStatus(p.Status) && (!decisive || p.Status != target) {
			// a settled payment keeps its record untouched, only a redelivered outcome may refresh it
			if decisive {
				transitionErr = ValidateTransition(p.Status, target)
			}
			s.Logger.Warnw("ignoring result for settled payment",
				"payment_id", p.ID,
				"status", p.Status,
				"result_status", result.Status,
			)
			return nil
		}

		now := s.now()
		applyResultFields(p, result)

		if decisive {
			path, ok := transitionPath(p.Status, target)
			if !ok {
				transitionErr = ValidateTransition(p.Status, target)
				s.Logger.Warnw("result would make an illegal transition, keeping status",
					"payment_id", p.ID,
					"from", p.Status,
					"to", target,
				)
			} else {
				p.Status = path[len(path)-1]
				switch p.Status {
				case types.PaymentStatusSuccess:
					markPaid(p, result, now)
				case types.PaymentStatusFailed, types.PaymentStatusCancelled, types.PaymentStatusExpired:
					p.FailureReason = lo.ToPtr(failureReason(result))
				}
			}
		}

		p.UpdatedAt = now
		p.UpdatedBy = types.GetUserID(ctx)
		return s.PaymentRepo.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("applied gateway result",
		"payment_id", paymentID,
		"result_status", result.Status,
		"from", before,
		"to", stored.Status,
	)
	return &persistOutcome{
		before:        before,
		payment:       stored,
		transitionErr: transitionErr,
	}, nil
}

func (s *paymentResultProcessor) SendNotifications(ctx context.Context, p *payment.Payment, kind types.NotificationKind) error {
	var send *payment.Payment

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		locked, err := s.PaymentRepo.GetForUpdate(ctx, p.ID)
		if err != nil {
			return err
		}
		if locked.NotificationSent() {
			s.Logger.Infow("payment notification already sent, skipping",
				"payment_id", locked.ID,
				"sent_at", locked.PaymentNotificationSentAt,
				"kind", kind,
			)
			return nil
		}

		now := s.now()
		locked.PaymentNotificationSentAt = &now
		locked.UpdatedAt = now
		if err := s.PaymentRepo.Update(ctx, locked); err != nil {
			return err
		}
		send = locked
		return nil
	})
	if err != nil {
		s.Logger.Errorw("failed to stamp payment notification",
			"payment_id", p.ID,
			"error", err,
		)
		return err
	}
	if send == nil {
		return nil
	}

	*p = *send
	dispatchPaymentNotification(ctx, s.ServiceParams, p, kind, nil)
	return nil
}

// dispatchPaymentNotification resolves the payer and hands the message to the sink.
// Every failure is logged and swallowed.
func dispatchPaymentNotification(
	ctx context.Context,
	params ServiceParams,
	p *payment.Payment,
	kind types.NotificationKind,
	extra map[string]any,
) {
	if params.Notifications == nil {
		return
	}

	u, err := params.UserRepo.Get(ctx, p.UserID)
	if err != nil {
		params.Logger.Warnw("could not resolve notification recipient",
			"payment_id", p.ID,
			"user_id", p.UserID,
			"kind", kind,
			"error", err,
		)
		return
	}

	payload := map[string]any{
		"payment_id":   p.ID,
		"payment_code": p.PaymentCode,
		"amount":       p.Amount.StringFixed(2),
		"currency":     p.Currency,
		"gateway":      p.Gateway,
	}
	if p.FailureReason != nil {
		payload["reason"] = *p.FailureReason
	}
	for k, v := range extra {
		payload[k] = v
	}

	n := &notification.Notification{
		Recipient: notification.Recipient{
			UserID: u.ID,
			Name:   u.Name,
			Email:  u.Email,
		},
		Kind:     kind,
		Payload:  payload,
		LinkPath: fmt.Sprintf("/payments/%s", p.ID),
		Context: map[string]string{
			"tenant_id":  p.TenantID,
			"payment_id": p.ID,
		},
		Important: kind != types.NotificationPaymentSuccess,
	}
	if err := params.Notifications.Send(ctx, n); err != nil {
		params.Logger.Errorw("failed to deliver payment notification",
			"payment_id", p.ID,
			"kind", kind,
			"error", err,
		)
	}
}

// resultTargetStatus maps a result to the status it asks for; pending asks for nothing
func resultTargetStatus(result *gateway.PaymentResult) (types.PaymentStatus, bool) {
	switch result.Status {
	case gateway.ResultStatusSuccess:
		return types.PaymentStatusSuccess, true
	case gateway.ResultStatusFailed:
		return types.PaymentStatusFailed, true
	}
	return "", false
}

// resolveTarget prefers the canonical status when the payment can reach it from its current state
func resolveTarget(from types.PaymentStatus, result *gateway.PaymentResult) (types.PaymentStatus, bool) {
	target, decisive := resultTargetStatus(result)
	if !decisive {
		return "", false
	}
	if c := result.CanonicalStatus; c != "" && c != target {
		if _, ok := transitionPath(from, c); ok {
			return c, true
		}
	}
	return target, true
}

func applyResultFields(p *payment.Payment, result *gateway.PaymentResult) {
	if result.TransactionID != "" {
		p.GatewayTransactionID = lo.ToPtr(result.TransactionID)
	}
	if result.GatewayOrderID != "" {
		p.GatewayOrderID = lo.ToPtr(result.GatewayOrderID)
	}
	if result.IntentID != "" {
		p.GatewayIntentID = lo.ToPtr(result.IntentID)
	}
	if result.ClientSecret != "" {
		p.ClientSecret = lo.ToPtr(result.ClientSecret)
	}
	if result.RedirectURL != "" {
		p.RedirectURL = lo.ToPtr(result.RedirectURL)
	}
	if result.IframeURL != "" {
		p.IframeURL = lo.ToPtr(result.IframeURL)
	}
	if len(result.RawResponse) > 0 {
		p.GatewayResponse = gateway.Sanitize(result.RawResponse)
	}
}

func markPaid(p *payment.Payment, result *gateway.PaymentResult, now time.Time) {
	if p.PaidAt == nil {
		p.PaidAt = &now
	}
	if p.PaymentDate == nil {
		p.PaymentDate = &now
	}
	if p.ReceiptNumber == nil {
		p.ReceiptNumber = lo.ToPtr(fmt.Sprintf("REC-%s-%s-%d", p.TenantID, p.ID, now.Unix()))
	}
	if result.TransactionID != "" {
		p.GatewayTransactionID = lo.ToPtr(result.TransactionID)
	}
	p.FailureReason = nil
}

func failureReason(result *gateway.PaymentResult) string {
	switch {
	case result.ErrorMessage != "" && result.ErrorCode != "":
		return fmt.Sprintf("%s: %s", result.ErrorCode, result.ErrorMessage)
	case result.ErrorMessage != "":
		return result.ErrorMessage
	case result.ErrorCode != "":
		return result.ErrorCode
	}
	return "payment failed"
}
