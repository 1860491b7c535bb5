package service

import (
	"context"
	"fmt"
	"time"

	"github.com/academyhub/paycore/internal/api/dto"
	"github.com/academyhub/paycore/internal/domain/payment"
	"github.com/academyhub/paycore/internal/domain/webhookevent"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/integration/paymob"
	"github.com/academyhub/paycore/internal/types"
	"github.com/samber/lo"
)

// WebhookService ingests gateway callbacks
type WebhookService interface {
	// HandleWebhook verifies, deduplicates and applies one callback.
	// Only authenticity and configuration problems are returned as errors,
	// everything else is reported in the response so the gateway stops retrying.
	HandleWebhook(ctx context.Context, gatewayName, tenantID string, req *gateway.WebhookRequest) (*dto.WebhookResponse, error)
}

type webhookService struct {
	ServiceParams
	resolver       GatewayResolver
	processor      PaymentResultProcessor
	paymentMethods PaymentMethodService
	invoiceNumbers InvoiceNumberService
	now            func() time.Time
}

func NewWebhookService(
	params ServiceParams,
	resolver GatewayResolver,
	processor PaymentResultProcessor,
	paymentMethods PaymentMethodService,
	invoiceNumbers InvoiceNumberService,
) WebhookService {
	return &webhookService{
		ServiceParams:  params,
		resolver:       resolver,
		processor:      processor,
		paymentMethods: paymentMethods,
		invoiceNumbers: invoiceNumbers,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *webhookService) HandleWebhook(ctx context.Context, gatewayName, tenantID string, req *gateway.WebhookRequest) (resp *dto.WebhookResponse, err error) {
	ctx = types.SetTenantID(ctx, tenantID)
	name := types.ParsePaymentGatewayType(gatewayName)

	defer func() {
		if r := recover(); r != nil {
			s.Sentry.CaptureWithContext(ctx, fmt.Errorf("webhook panic: %v", r), "webhook",
				map[string]string{"tenant_id": tenantID, "gateway": string(name)}, nil)
			panic(r)
		}
	}()

	client, err := s.resolver.Resolve(ctx, tenantID, lo.ToPtr(string(name)))
	if err != nil {
		return nil, err
	}
	handler, ok := client.(gateway.WebhookHandler)
	if !ok {
		return nil, ierr.NewErrorf("gateway %s does not accept webhooks", name).
			WithHintf("Payment gateway %s does not support webhooks", name).
			Mark(ierr.ErrCapabilityUnsupported)
	}

	valid, err := handler.Verify(ctx, req)
	if err != nil {
		return nil, err
	}
	if !valid {
		s.Logger.Warnw("rejected webhook with invalid signature",
			"tenant_id", tenantID,
			"gateway", name,
		)
		return nil, ierr.NewError("webhook signature verification failed").
			WithHint("Invalid webhook signature").
			WithReportableDetails(map[string]any{"gateway": name}).
			Mark(ierr.ErrSignature)
	}

	payload, err := handler.ParseWebhook(req.Body)
	if err != nil {
		return nil, err
	}

	event := &webhookevent.WebhookEvent{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		TenantID:   tenantID,
		Gateway:    string(name),
		EventID:    payload.EventID,
		EventType:  payload.EventType,
		Payload:    gateway.Sanitize(payload.Raw),
		Status:     types.WebhookEventStatusReceived,
		ReceivedAt: s.now(),
	}
	if err := s.WebhookEventRepo.Create(ctx, event); err != nil {
		if ierr.IsAlreadyExists(err) {
			s.Logger.Infow("duplicate webhook event ignored",
				"gateway", name,
				"event_id", payload.EventID,
			)
			return ignored("duplicate event", ""), nil
		}
		return nil, err
	}

	if name == types.PaymentGatewayTypePaymob && payload.EventType == paymob.EventTypeToken {
		return s.handleTokenEvent(ctx, event, name, payload), nil
	}

	p, err := s.locatePayment(ctx, name, payload)
	if err != nil {
		if ierr.IsNotFound(err) {
			return s.fail(ctx, event, "payment not found", ""), nil
		}
		return nil, err
	}
	event.PaymentID = lo.ToPtr(p.ID)

	if payload.Reference.TenantID != nil && *payload.Reference.TenantID != tenantID {
		s.Logger.Warnw("webhook reference belongs to another tenant",
			"tenant_id", tenantID,
			"reference_tenant_id", *payload.Reference.TenantID,
			"payment_id", p.ID,
		)
		return s.fail(ctx, event, "tenant mismatch", p.ID), nil
	}

	if name == types.PaymentGatewayTypePaymob && !paymob.VerifyAmount(payload, p.AmountInCents()) {
		s.Logger.Warnw("webhook amount does not match payment",
			"payment_id", p.ID,
			"expected_cents", p.AmountInCents(),
			"received_cents", payload.AmountCents,
		)
		return s.fail(ctx, event, "amount mismatch", p.ID), nil
	}

	if payload.Status == types.PaymentStatusRefunded {
		return s.ignore(ctx, event, "refunds are recorded through the refund flow", p.ID), nil
	}
	result := payload.ToResult()
	target := payload.Status
	if t, decisive := resolveTarget(p.Status, result); decisive {
		target = t
	}
	if _, ok := transitionPath(p.Status, target); !ok {
		s.Logger.Infow("webhook would make an illegal transition, ignoring",
			"payment_id", p.ID,
			"from", p.Status,
			"to", target,
			"event_id", payload.EventID,
		)
		return s.ignore(ctx, event, fmt.Sprintf("invalid transition %s -> %s", p.Status, target), p.ID), nil
	}

	updated, err := s.processor.ApplyResult(ctx, p.ID, result)
	if err != nil {
		if ierr.IsInvalidTransition(err) {
			return s.ignore(ctx, event, err.Error(), p.ID), nil
		}
		s.Sentry.CaptureWithContext(ctx, err, "webhook",
			map[string]string{"tenant_id": tenantID, "gateway": string(name)},
			map[string]interface{}{"payment_id": p.ID, "event_id": payload.EventID},
		)
		s.fail(ctx, event, err.Error(), p.ID)
		return nil, err
	}

	if updated.IsPaid() {
		s.afterSuccess(ctx, updated, name, payload)
	}

	s.finishEvent(ctx, event, types.WebhookEventStatusProcessed, "")
	return &dto.WebhookResponse{Status: dto.WebhookStatusSuccess, PaymentID: updated.ID}, nil
}

// locatePayment finds the payment by merchant reference, then by gateway ids
func (s *webhookService) locatePayment(ctx context.Context, name types.PaymentGatewayType, payload *gateway.WebhookPayload) (*payment.Payment, error) {
	if payload.Reference.PaymentID != nil {
		p, err := s.PaymentRepo.Get(ctx, *payload.Reference.PaymentID)
		if err == nil || !ierr.IsNotFound(err) {
			return p, err
		}
	}
	for _, id := range []string{payload.TransactionID, payload.OrderID} {
		if id == "" {
			continue
		}
		p, err := s.PaymentRepo.GetByGatewayTransactionID(ctx, string(name), id)
		if err == nil || !ierr.IsNotFound(err) {
			return p, err
		}
	}
	return nil, ierr.NewError("payment not found for webhook").
		WithHint("Payment not found").
		WithReportableDetails(map[string]any{
			"gateway":        name,
			"reference":      payload.RawReference,
			"transaction_id": payload.TransactionID,
		}).
		Mark(ierr.ErrNotFound)
}

// handleTokenEvent stores the card of a Paymob TOKEN callback for the payer of its order
func (s *webhookService) handleTokenEvent(
	ctx context.Context,
	event *webhookevent.WebhookEvent,
	name types.PaymentGatewayType,
	payload *gateway.WebhookPayload,
) *dto.WebhookResponse {
	if payload.Card == nil || payload.Card.Token == "" {
		return s.ignore(ctx, event, "token callback without token", "")
	}
	p, err := s.locatePayment(ctx, name, payload)
	if err != nil {
		return s.ignore(ctx, event, "no payment for token order", "")
	}
	event.PaymentID = lo.ToPtr(p.ID)

	if _, err := s.paymentMethods.SaveFromTokenization(ctx, &SaveMethodRequest{
		UserID:  p.UserID,
		Gateway: name,
		Card:    payload.Card,
	}); err != nil {
		s.Logger.Errorw("failed to save tokenized card",
			"payment_id", p.ID,
			"error", err,
		)
		return s.fail(ctx, event, err.Error(), p.ID)
	}

	s.finishEvent(ctx, event, types.WebhookEventStatusProcessed, "")
	return &dto.WebhookResponse{Status: dto.WebhookStatusSuccess, PaymentID: p.ID}
}

// afterSuccess runs the best effort follow ups of a paid payment
func (s *webhookService) afterSuccess(ctx context.Context, p *payment.Payment, name types.PaymentGatewayType, payload *gateway.WebhookPayload) {
	if (payload.SaveCardRequested || p.Metadata.SaveCard) && payload.Card != nil && payload.Card.Token != "" {
		if _, err := s.paymentMethods.SaveFromTokenization(ctx, &SaveMethodRequest{
			UserID:  p.UserID,
			Gateway: name,
			Card:    payload.Card,
		}); err != nil {
			s.Logger.Errorw("failed to save card from webhook",
				"payment_id", p.ID,
				"error", err,
			)
		}
	}

	if _, err := s.invoiceNumbers.GenerateInvoiceNumber(ctx, p.ID); err != nil {
		s.Logger.Errorw("failed to allocate invoice number",
			"payment_id", p.ID,
			"error", err,
		)
	}
}

func (s *webhookService) ignore(ctx context.Context, event *webhookevent.WebhookEvent, reason, paymentID string) *dto.WebhookResponse {
	s.finishEvent(ctx, event, types.WebhookEventStatusIgnored, reason)
	return ignored(reason, paymentID)
}

func (s *webhookService) fail(ctx context.Context, event *webhookevent.WebhookEvent, reason, paymentID string) *dto.WebhookResponse {
	s.finishEvent(ctx, event, types.WebhookEventStatusFailed, reason)
	return &dto.WebhookResponse{Status: dto.WebhookStatusError, Message: reason, PaymentID: paymentID}
}

func (s *webhookService) finishEvent(ctx context.Context, event *webhookevent.WebhookEvent, status types.WebhookEventStatus, reason string) {
	now := s.now()
	event.Status = status
	event.ProcessedAt = &now
	if reason != "" {
		event.Error = lo.ToPtr(reason)
	}
	if err := s.WebhookEventRepo.Update(ctx, event); err != nil {
		s.Logger.Errorw("failed to update webhook event",
			"event_id", event.EventID,
			"status", status,
			"error", err,
		)
	}
}

func ignored(reason, paymentID string) *dto.WebhookResponse {
	return &dto.WebhookResponse{Status: dto.WebhookStatusIgnored, Message: reason, PaymentID: paymentID}
}
