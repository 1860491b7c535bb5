package service

import (
	"context"
	"testing"
	"time"

	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/testutil"
	"github.com/academyhub/paycore/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type RenewalServiceSuite struct {
	testutil.BaseServiceTestSuite
	service RenewalService
	tap     *testutil.MockGateway
}

func TestRenewalService(t *testing.T) {
	suite.Run(t, new(RenewalServiceSuite))
}

func (s *RenewalServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestParams(&s.BaseServiceTestSuite)
	resolver := NewGatewayResolver(params)
	s.service = NewRenewalService(params, resolver, NewPaymentResultProcessor(params), NewPaymentMethodService(params, resolver))

	s.tap = testutil.NewMockGateway(types.PaymentGatewayTypeTap)
	s.UseGateway(s.tap)
	s.EnableGateways(testutil.TestTenantID, types.PaymentGatewayTypeTap)
	s.CreateUser("student_1")
	s.CreateSubscription("subs_1", lo.ToPtr("student_1"), decimal.NewFromInt(300))
}

func (s *RenewalServiceSuite) renew() *RenewalResult {
	result, err := s.service.ProcessAutoRenewal(s.GetContext(), &RenewalRequest{SubscriptionID: "subs_1"})
	s.Require().NoError(err)
	s.Require().NotNil(result)
	return result
}

func (s *RenewalServiceSuite) TestSuccessfulRenewal() {
	method := seedMethod(&s.BaseServiceTestSuite, "student_1", types.PaymentGatewayTypeTap, "tok_visa", true)

	result := s.renew()
	s.True(result.Success)
	s.Empty(result.ErrorCode)
	s.Require().NotNil(result.Payment)

	p := result.Payment
	s.Equal(types.PaymentStatusSuccess, p.Status)
	s.Equal(types.PayableTypeSubscription, p.PayableType)
	s.Equal("subs_1", p.PayableID)
	s.Equal("student_1", p.UserID)
	s.True(p.Amount.Equal(decimal.NewFromInt(300)))
	s.True(p.Metadata.IsAutoRenewal)
	s.Equal(types.PurchaseSourceAutoRenewal, p.Metadata.PurchaseSource)
	s.Equal(method.ID, lo.FromPtr(p.SavedPaymentMethodID))
	s.Equal("txn_"+p.ID, p.TransactionID())

	s.Require().Len(s.tap.SavedCharges, 1)
	charge := s.tap.SavedCharges[0]
	s.Equal("tok_visa", charge.Token)
	s.Equal(int64(30000), charge.AmountCents)
	s.Equal(p.Metadata.MerchantReference, charge.MerchantReference)

	touched := s.GetStores().PaymentMethodRepo.Load(method.ID)
	s.NotNil(touched.LastUsedAt)

	s.Len(s.GetNotifications().SentOfKind(types.NotificationRenewalSuccess), 1)
	s.Empty(s.GetNotifications().SentOfKind(types.NotificationPaymentSuccess))
}

func (s *RenewalServiceSuite) TestAmountOverride() {
	seedMethod(&s.BaseServiceTestSuite, "student_1", types.PaymentGatewayTypeTap, "tok_visa", true)

	result, err := s.service.ProcessAutoRenewal(s.GetContext(), &RenewalRequest{
		SubscriptionID: "subs_1",
		Amount:         lo.ToPtr(decimal.RequireFromString("149.99")),
	})
	s.Require().NoError(err)
	s.True(result.Success)
	s.Equal(int64(14999), s.tap.SavedCharges[0].AmountCents)
}

func (s *RenewalServiceSuite) TestNonPositiveAmount() {
	sub := s.CreateSubscription("subs_free", lo.ToPtr("student_1"), decimal.NewFromInt(100))
	sub.DiscountAmount = decimal.NewFromInt(150)

	result, err := s.service.ProcessAutoRenewal(s.GetContext(), &RenewalRequest{SubscriptionID: "subs_free"})
	s.Require().NoError(err)
	s.False(result.Success)
	s.Equal(types.ErrorCodeInvalidRenewalAmount, result.ErrorCode)
	s.Nil(result.Payment)
}

func (s *RenewalServiceSuite) TestNoStudent() {
	s.CreateSubscription("subs_orphan", nil, decimal.NewFromInt(300))

	result, err := s.service.ProcessAutoRenewal(s.GetContext(), &RenewalRequest{SubscriptionID: "subs_orphan"})
	s.Require().NoError(err)
	s.Equal(types.ErrorCodeNoStudent, result.ErrorCode)
}

func (s *RenewalServiceSuite) TestNoSavedPaymentMethod() {
	result := s.renew()
	s.False(result.Success)
	s.Equal(types.ErrorCodeNoSavedPaymentMethod, result.ErrorCode)
	s.Empty(s.tap.SavedCharges)
}

func (s *RenewalServiceSuite) TestExpiredMethodIsNotUsable() {
	m := seedMethod(&s.BaseServiceTestSuite, "student_1", types.PaymentGatewayTypeTap, "tok_old", true)
	m.ExpiryYear = lo.ToPtr(time.Now().Year() - 1)
	s.Require().NoError(s.GetStores().PaymentMethodRepo.Update(s.GetContext(), m))

	result := s.renew()
	s.Equal(types.ErrorCodeNoSavedPaymentMethod, result.ErrorCode)
}

func (s *RenewalServiceSuite) TestMethodOfAnotherGatewayIsNotUsed() {
	seedMethod(&s.BaseServiceTestSuite, "student_1", types.PaymentGatewayTypePaymob, "tok_paymob", true)

	result := s.renew()
	s.Equal(types.ErrorCodeNoSavedPaymentMethod, result.ErrorCode)
}

func (s *RenewalServiceSuite) TestGatewayWithoutRecurring() {
	s.GetRegistry().Register(types.PaymentGatewayTypeEasyKash, func(types.GatewayConfig) (gateway.Client, error) {
		return &testutil.MockChargeOnlyGateway{GatewayName: types.PaymentGatewayTypeEasyKash}, nil
	})
	s.EnableGateways(testutil.TestTenantID, types.PaymentGatewayTypeEasyKash)
	seedMethod(&s.BaseServiceTestSuite, "student_1", types.PaymentGatewayTypeEasyKash, "tok_ek", true)

	result := s.renew()
	s.Equal(types.ErrorCodeGatewayNoRecurring, result.ErrorCode)
}

func (s *RenewalServiceSuite) TestRecurringNotConfigured() {
	s.tap.Recurring = false
	seedMethod(&s.BaseServiceTestSuite, "student_1", types.PaymentGatewayTypeTap, "tok_visa", true)

	result := s.renew()
	s.Equal(types.ErrorCodeRecurringNotConfigured, result.ErrorCode)
	s.Empty(s.tap.SavedCharges)
}

func (s *RenewalServiceSuite) TestChargeDeclined() {
	method := seedMethod(&s.BaseServiceTestSuite, "student_1", types.PaymentGatewayTypeTap, "tok_visa", true)
	s.tap.SavedChargeFn = func(ctx context.Context, req *gateway.SavedMethodChargeRequest) (*gateway.PaymentResult, error) {
		return failedResult("51", "insufficient funds"), nil
	}

	result := s.renew()
	s.False(result.Success)
	s.Equal(types.ErrorCodeChargeFailed, result.ErrorCode)
	s.Equal("51: insufficient funds", result.ErrorMessage)
	s.Require().NotNil(result.Payment)
	s.Equal(types.PaymentStatusFailed, result.Payment.Status)

	s.Nil(s.GetStores().PaymentMethodRepo.Load(method.ID).LastUsedAt)
	s.Len(s.GetNotifications().SentOfKind(types.NotificationRenewalFailed), 1)
}

func (s *RenewalServiceSuite) TestPendingChargeDoesNotNotify() {
	seedMethod(&s.BaseServiceTestSuite, "student_1", types.PaymentGatewayTypeTap, "tok_visa", true)
	s.tap.SavedChargeFn = func(ctx context.Context, req *gateway.SavedMethodChargeRequest) (*gateway.PaymentResult, error) {
		return &gateway.PaymentResult{Status: gateway.ResultStatusPending, TransactionID: "chg_3ds"}, nil
	}

	result := s.renew()
	s.True(result.Success)
	s.Equal(types.PaymentStatusProcessing, result.Payment.Status)
	s.Empty(s.GetNotifications().Sent())
}

func (s *RenewalServiceSuite) TestTransportErrorIsReturned() {
	seedMethod(&s.BaseServiceTestSuite, "student_1", types.PaymentGatewayTypeTap, "tok_visa", true)
	s.tap.SavedChargeFn = func(ctx context.Context, req *gateway.SavedMethodChargeRequest) (*gateway.PaymentResult, error) {
		return nil, ierr.NewError("timeout").Mark(ierr.ErrHTTPClient)
	}

	_, err := s.service.ProcessAutoRenewal(s.GetContext(), &RenewalRequest{SubscriptionID: "subs_1"})
	s.Require().Error(err)
	s.True(ierr.IsHTTPClient(err))
	s.Equal(1, s.GetDB().Rollbacks)
	s.Empty(s.GetNotifications().Sent())

	// the pending renewal payment is rolled back with the transaction
	payments, err := s.GetStores().PaymentRepo.List(s.GetContext(), types.NewPaymentFilter())
	s.Require().NoError(err)
	s.Empty(payments)
}

func (s *RenewalServiceSuite) TestUnknownSubscription() {
	_, err := s.service.ProcessAutoRenewal(s.GetContext(), &RenewalRequest{SubscriptionID: "subs_missing"})
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *RenewalServiceSuite) TestPreferredGatewayMustBeEnabled() {
	sub := s.CreateSubscription("subs_pref", lo.ToPtr("student_1"), decimal.NewFromInt(300))
	sub.PreferredGateway = lo.ToPtr("paymob")

	_, err := s.service.ProcessAutoRenewal(s.GetContext(), &RenewalRequest{SubscriptionID: "subs_pref"})
	s.Require().Error(err)
	s.True(ierr.IsGatewayNotEnabled(err))
}
