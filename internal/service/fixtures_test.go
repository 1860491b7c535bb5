package service

import (
	"time"

	"github.com/academyhub/paycore/internal/domain/payment"
	"github.com/academyhub/paycore/internal/domain/paymentmethod"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/testutil"
	"github.com/academyhub/paycore/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// newTestParams wires ServiceParams from the base suite fakes
func newTestParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	stores := s.GetStores()
	return NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		s.GetDB(),
		s.GetCache(),
		s.GetSentry(),
		s.GetEncryption(),
		s.GetPDFGenerator(),
		s.GetBlobStore(),
		s.GetNotifications(),
		s.GetRegistry(),
		stores.PaymentRepo,
		stores.PaymentMethodRepo,
		stores.WebhookEventRepo,
		stores.TenantRepo,
		stores.SubscriptionRepo,
		stores.UserRepo,
	)
}

// seedPayment stores a payment of the test tenant for userID in status
func seedPayment(s *testutil.BaseServiceTestSuite, userID string, status types.PaymentStatus, gw types.PaymentGatewayType) *payment.Payment {
	id := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT)
	p := &payment.Payment{
		ID:            id,
		PaymentCode:   types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_PAYMENT),
		UserID:        userID,
		PayableType:   types.PayableTypeCourse,
		PayableID:     "course_golang101",
		Amount:        decimal.NewFromInt(500),
		Currency:      "EGP",
		Fees:          decimal.RequireFromString("12.50"),
		NetAmount:     decimal.RequireFromString("487.50"),
		PaymentMethod: types.PaymentMethodTypeCard,
		Status:        status,
		Gateway:       string(gw),
		Metadata: types.PaymentMetadata{
			MerchantReference: gateway.BuildMerchantReference(testutil.TestTenantID, id, time.Now()),
		},
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	if status == types.PaymentStatusSuccess {
		now := time.Now().UTC()
		p.PaidAt = &now
		p.GatewayTransactionID = lo.ToPtr("txn_" + id)
	}
	s.GetStores().PaymentRepo.Seed(p)
	return p
}

// seedMethod stores an active saved card of userID on gw
func seedMethod(s *testutil.BaseServiceTestSuite, userID string, gw types.PaymentGatewayType, token string, isDefault bool) *paymentmethod.SavedPaymentMethod {
	m := &paymentmethod.SavedPaymentMethod{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_METHOD),
		UserID:      userID,
		Gateway:     string(gw),
		Token:       token,
		Type:        types.SavedPaymentMethodTypeCard,
		Brand:       lo.ToPtr("Visa"),
		LastFour:    lo.ToPtr("4242"),
		ExpiryMonth: lo.ToPtr(12),
		ExpiryYear:  lo.ToPtr(time.Now().Year() + 3),
		IsActive:    true,
		IsDefault:   isDefault,
		BaseModel:   types.GetDefaultBaseModel(s.GetContext()),
	}
	if err := s.GetStores().PaymentMethodRepo.Create(s.GetContext(), m); err != nil {
		s.T().Fatalf("failed to seed payment method: %v", err)
	}
	return m
}

func successResult(txnID string) *gateway.PaymentResult {
	return &gateway.PaymentResult{
		Status:        gateway.ResultStatusSuccess,
		TransactionID: txnID,
		RawResponse:   map[string]any{"id": txnID, "success": true},
	}
}

func failedResult(code, message string) *gateway.PaymentResult {
	return gateway.Failed(code, message, map[string]any{"code": code})
}
