package service

import (
	"context"
	"fmt"
	"time"

	"github.com/academyhub/paycore/internal/domain/payment"
	"github.com/academyhub/paycore/internal/domain/paymentmethod"
	"github.com/academyhub/paycore/internal/domain/subscription"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// RenewalRequest asks for one unattended renewal charge
type RenewalRequest struct {
	SubscriptionID string
	// Amount overrides the subscription renewal price
	Amount *decimal.Decimal
	// Gateway overrides the subscription preferred gateway
	Gateway *string
}

// RenewalResult is the outcome of a renewal attempt.
// Expected refusals such as a missing saved card are results, not errors.
type RenewalResult struct {
	Success      bool
	ErrorCode    types.PaymentErrorCode
	ErrorMessage string
	Payment      *payment.Payment
}

func renewalFailure(code types.PaymentErrorCode, message string) *RenewalResult {
	return &RenewalResult{ErrorCode: code, ErrorMessage: message}
}

// RenewalService charges saved payment methods for subscription renewals
type RenewalService interface {
	ProcessAutoRenewal(ctx context.Context, req *RenewalRequest) (*RenewalResult, error)
}

type renewalService struct {
	ServiceParams
	resolver       GatewayResolver
	processor      PaymentResultProcessor
	paymentMethods PaymentMethodService
	now            func() time.Time
}

func NewRenewalService(
	params ServiceParams,
	resolver GatewayResolver,
	processor PaymentResultProcessor,
	paymentMethods PaymentMethodService,
) RenewalService {
	return &renewalService{
		ServiceParams:  params,
		resolver:       resolver,
		processor:      processor,
		paymentMethods: paymentMethods,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *renewalService) ProcessAutoRenewal(ctx context.Context, req *RenewalRequest) (*RenewalResult, error) {
	tenantID := types.GetTenantID(ctx)

	sub, err := s.SubscriptionRepo.Get(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}

	amount := sub.CalculateRenewalPrice()
	if req.Amount != nil {
		amount = *req.Amount
	}
	if !amount.IsPositive() {
		s.Logger.Warnw("renewal amount is not positive",
			"subscription_id", sub.ID,
			"amount", amount.String(),
		)
		return renewalFailure(types.ErrorCodeInvalidRenewalAmount,
			fmt.Sprintf("renewal amount %s must be greater than zero", amount.String())), nil
	}

	if !sub.HasStudent() {
		return renewalFailure(types.ErrorCodeNoStudent, "subscription has no linked student"), nil
	}
	studentID := *sub.StudentID

	client, err := s.resolver.Resolve(ctx, tenantID, lo.CoalesceOrEmpty(req.Gateway, sub.PreferredGateway))
	if err != nil {
		return nil, err
	}
	gatewayName := client.Name()

	method, err := s.paymentMethods.GetUsable(ctx, studentID, &gatewayName)
	if err != nil {
		return nil, err
	}
	if method == nil {
		return renewalFailure(types.ErrorCodeNoSavedPaymentMethod,
			"student has no usable saved payment method"), nil
	}

	switch gateway.CheckCapability(client, gateway.CapabilityRecurring) {
	case gateway.CapabilityUnsupported:
		return renewalFailure(types.ErrorCodeGatewayNoRecurring,
			fmt.Sprintf("gateway %s does not support recurring charges", gatewayName)), nil
	case gateway.CapabilityNotConfigured:
		return renewalFailure(types.ErrorCodeRecurringNotConfigured,
			fmt.Sprintf("gateway %s recurring charges are not configured", gatewayName)), nil
	}
	recurring := client.(gateway.RecurringCharger)

	payer, err := s.UserRepo.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}

	var (
		p      *payment.Payment
		result *gateway.PaymentResult
	)
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		p = s.newRenewalPayment(ctx, sub, studentID, amount, gatewayName, method)
		if err := p.Validate(); err != nil {
			return err
		}
		if err := s.PaymentRepo.Create(ctx, p); err != nil {
			return err
		}
		p.Status = types.PaymentStatusProcessing
		if err := s.PaymentRepo.Update(ctx, p); err != nil {
			return err
		}

		var err error
		result, err = recurring.ChargeSavedMethod(ctx, &gateway.SavedMethodChargeRequest{
			TenantID:          tenantID,
			PaymentID:         p.ID,
			Token:             method.Token,
			CustomerID:        lo.FromPtr(method.GatewayCustomerID),
			AmountCents:       p.AmountInCents(),
			Currency:          p.Currency,
			MerchantReference: p.Metadata.MerchantReference,
			Customer: gateway.Customer{
				ID:    payer.ID,
				Name:  payer.Name,
				Email: payer.Email,
				Phone: lo.FromPtr(payer.Phone),
			},
			BillingData: method.BillingAddress,
		})
		if err != nil {
			return err
		}

		p, err = s.processor.Persist(ctx, p.ID, result)
		if err != nil {
			return err
		}
		if result.IsSuccess() {
			return s.paymentMethods.TouchLastUsed(ctx, method.ID)
		}
		return nil
	})
	if err != nil {
		s.captureRenewalFailure(ctx, sub, method, err)
		return nil, err
	}

	kind := types.NotificationRenewalFailed
	if p.IsPaid() {
		kind = types.NotificationRenewalSuccess
	}
	if !result.IsPending() {
		_ = s.processor.SendNotifications(ctx, p, kind)
	}

	s.Logger.Infow("processed auto renewal",
		"subscription_id", sub.ID,
		"payment_id", p.ID,
		"status", p.Status,
		"gateway", gatewayName,
	)

	if result.IsFailed() {
		return &RenewalResult{
			ErrorCode:    types.ErrorCodeChargeFailed,
			ErrorMessage: failureReason(result),
			Payment:      p,
		}, nil
	}
	return &RenewalResult{Success: true, Payment: p}, nil
}

func (s *renewalService) newRenewalPayment(
	ctx context.Context,
	sub *subscription.Subscription,
	studentID string,
	amount decimal.Decimal,
	gatewayName types.PaymentGatewayType,
	method *paymentmethod.SavedPaymentMethod,
) *payment.Payment {
	id := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT)
	fees := CalculateFees(s.Config.Payments.Fees, amount, types.PaymentMethodTypeCard)
	return &payment.Payment{
		ID:                   id,
		PaymentCode:          types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_PAYMENT),
		UserID:               studentID,
		PayableType:          types.PayableTypeSubscription,
		PayableID:            sub.ID,
		Amount:               amount,
		Currency:             lo.CoalesceOrEmpty(sub.Currency, s.Config.Payments.Currency),
		Fees:                 fees,
		NetAmount:            amount.Sub(fees),
		PaymentMethod:        types.PaymentMethodTypeCard,
		Status:               types.PaymentStatusPending,
		Gateway:              string(gatewayName),
		SavedPaymentMethodID: lo.ToPtr(method.ID),
		Metadata: types.PaymentMetadata{
			IsAutoRenewal:     true,
			PurchaseSource:    types.PurchaseSourceAutoRenewal,
			MerchantReference: gateway.BuildMerchantReference(types.GetTenantID(ctx), id, s.now()),
		},
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
}

func (s *renewalService) captureRenewalFailure(
	ctx context.Context,
	sub *subscription.Subscription,
	method *paymentmethod.SavedPaymentMethod,
	err error,
) {
	failures, countErr := s.PaymentRepo.Count(ctx, &types.PaymentFilter{
		QueryFilter: types.NewNoLimitQueryFilter(),
		PayableType: lo.ToPtr(types.PayableTypeSubscription),
		PayableID:   lo.ToPtr(sub.ID),
		Statuses:    []types.PaymentStatus{types.PaymentStatusFailed},
	})
	if countErr != nil {
		failures = -1
	}

	s.Logger.Errorw("auto renewal failed",
		"subscription_id", sub.ID,
		"payment_method_id", method.ID,
		"error", err,
	)
	s.Sentry.CaptureWithContext(ctx, err, "auto_renewal",
		map[string]string{
			"tenant_id":       types.GetTenantID(ctx),
			"subscription_id": sub.ID,
			"gateway":         method.Gateway,
		},
		map[string]interface{}{
			"failure_count":          failures,
			"has_saved_method":       true,
			"saved_method_expired":   method.IsExpired(s.now()),
			"saved_method_id":        method.ID,
			"saved_method_last_used": method.LastUsedAt,
		},
	)
}
