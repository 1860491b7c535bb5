package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/academyhub/paycore/internal/api/dto"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/types"
	"github.com/samber/lo"
)

// CheckoutService starts customer present payments
type CheckoutService interface {
	// InitiatePayment creates the payment and asks the gateway where the payer should go next.
	// A transport failure leaves the payment in processing and returns the error.
	InitiatePayment(ctx context.Context, req *dto.InitiatePaymentRequest) (*dto.InitiatePaymentResponse, error)
}

type checkoutService struct {
	ServiceParams
	resolver  GatewayResolver
	processor PaymentResultProcessor
	now       func() time.Time
}

func NewCheckoutService(params ServiceParams, resolver GatewayResolver, processor PaymentResultProcessor) CheckoutService {
	return &checkoutService{
		ServiceParams: params,
		resolver:      resolver,
		processor:     processor,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *checkoutService) InitiatePayment(ctx context.Context, req *dto.InitiatePaymentRequest) (*dto.InitiatePaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	tenantID := types.GetTenantID(ctx)

	client, err := s.resolver.Resolve(ctx, tenantID, req.Gateway)
	if err != nil {
		return nil, err
	}
	charger, err := requireCharger(client)
	if err != nil {
		return nil, err
	}

	payer, err := s.UserRepo.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	p := req.ToPayment(ctx, s.Config.Payments.Currency)
	p.Gateway = string(client.Name())
	p.Fees = CalculateFees(s.Config.Payments.Fees, p.Amount, p.PaymentMethod)
	p.NetAmount = p.Amount.Sub(p.Fees)
	p.Metadata.MerchantReference = gateway.BuildMerchantReference(tenantID, p.ID, s.now())
	if err := p.Validate(); err != nil {
		return nil, err
	}

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.PaymentRepo.Create(ctx, p); err != nil {
			return err
		}
		if err := ValidateTransition(p.Status, types.PaymentStatusProcessing); err != nil {
			return err
		}
		p.Status = types.PaymentStatusProcessing
		return s.PaymentRepo.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("initiating payment",
		"payment_id", p.ID,
		"gateway", p.Gateway,
		"amount", p.Amount.String(),
		"currency", p.Currency,
	)

	// no transaction is open while the gateway is called
	result, err := charger.Charge(ctx, &gateway.ChargeRequest{
		TenantID:      tenantID,
		PaymentID:     p.ID,
		AmountCents:   p.AmountInCents(),
		Currency:      p.Currency,
		PaymentMethod: p.PaymentMethod,
		Description:   lo.Ternary(req.Description != "", req.Description, fmt.Sprintf("Payment %s", p.PaymentCode)),
		Customer: gateway.Customer{
			ID:    payer.ID,
			Name:  payer.Name,
			Email: payer.Email,
			Phone: lo.FromPtr(payer.Phone),
		},
		MerchantReference: p.Metadata.MerchantReference,
		SuccessURL:        req.SuccessURL,
		WebhookURL:        WebhookURL(s.Config.Payments.WebhookBaseURL, client.Name(), tenantID),
		SaveCard:          req.SaveCard,
		Metadata: map[string]string{
			"payment_code": p.PaymentCode,
			"payable_type": string(p.PayableType),
			"payable_id":   p.PayableID,
		},
	})
	if err != nil {
		s.Logger.Errorw("gateway charge call failed, payment left processing",
			"payment_id", p.ID,
			"gateway", p.Gateway,
			"error", err,
		)
		return nil, err
	}

	updated, err := s.processor.ApplyResult(ctx, p.ID, result)
	if err != nil && !ierr.IsInvalidTransition(err) {
		return nil, err
	}

	return &dto.InitiatePaymentResponse{
		Payment:      dto.NewPaymentResponse(updated),
		RedirectURL:  updated.RedirectURL,
		IframeURL:    updated.IframeURL,
		ClientSecret: updated.ClientSecret,
	}, nil
}

// WebhookURL is the callback address registered with the gateway for a tenant
func WebhookURL(base string, name types.PaymentGatewayType, tenantID string) string {
	if base == "" {
		return ""
	}
	return fmt.Sprintf("%s/v1/webhooks/%s/%s", strings.TrimRight(base, "/"), name, tenantID)
}

func requireCharger(client gateway.Client) (gateway.Charger, error) {
	switch gateway.CheckCapability(client, gateway.CapabilityCharge) {
	case gateway.CapabilityUnsupported:
		return nil, ierr.NewErrorf("gateway %s cannot start payments", client.Name()).
			WithHintf("Payment gateway %s does not support checkout", client.Name()).
			Mark(ierr.ErrCapabilityUnsupported)
	case gateway.CapabilityNotConfigured:
		return nil, ierr.NewErrorf("gateway %s charge credentials missing", client.Name()).
			WithHintf("Payment gateway %s is not fully configured", client.Name()).
			Mark(ierr.ErrConfiguration)
	}
	return client.(gateway.Charger), nil
}
