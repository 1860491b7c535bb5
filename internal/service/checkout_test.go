package service

import (
	"context"
	"testing"

	"github.com/academyhub/paycore/internal/api/dto"
	"github.com/academyhub/paycore/internal/domain/payment"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/testutil"
	"github.com/academyhub/paycore/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

// nameOnlyGateway implements no capability at all
type nameOnlyGateway struct {
	name types.PaymentGatewayType
}

func (g *nameOnlyGateway) Name() types.PaymentGatewayType {
	return g.name
}

type CheckoutServiceSuite struct {
	testutil.BaseServiceTestSuite
	service CheckoutService
	tap     *testutil.MockGateway
}

func TestCheckoutService(t *testing.T) {
	suite.Run(t, new(CheckoutServiceSuite))
}

func (s *CheckoutServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestParams(&s.BaseServiceTestSuite)
	resolver := NewGatewayResolver(params)
	s.service = NewCheckoutService(params, resolver, NewPaymentResultProcessor(params))

	s.tap = testutil.NewMockGateway(types.PaymentGatewayTypeTap)
	s.UseGateway(s.tap)
	s.EnableGateways(testutil.TestTenantID, types.PaymentGatewayTypeTap)
	s.CreateUser("user_1")
}

func (s *CheckoutServiceSuite) request() *dto.InitiatePaymentRequest {
	return &dto.InitiatePaymentRequest{
		UserID:      "user_1",
		PayableType: types.PayableTypeCourse,
		PayableID:   "course_golang101",
		Amount:      decimal.NewFromInt(500),
		SuccessURL:  "https://academy.test/thanks",
	}
}

func (s *CheckoutServiceSuite) onlyPayment() *payment.Payment {
	payments, err := s.GetStores().PaymentRepo.List(s.GetContext(), &types.PaymentFilter{
		QueryFilter: types.NewNoLimitQueryFilter(),
	})
	s.Require().NoError(err)
	s.Require().Len(payments, 1)
	return payments[0]
}

func (s *CheckoutServiceSuite) TestInitiatePaymentPendingRedirect() {
	resp, err := s.service.InitiatePayment(s.GetContext(), s.request())
	s.Require().NoError(err)

	s.Require().NotNil(resp.Payment)
	s.Equal(types.PaymentStatusProcessing, resp.Payment.Status)
	s.Equal("tap", resp.Payment.Gateway)
	s.Equal("EGP", resp.Payment.Currency)
	s.True(resp.Payment.Fees.Equal(decimal.RequireFromString("12.5")))
	s.True(resp.Payment.NetAmount.Equal(decimal.RequireFromString("487.5")))
	s.Require().NotNil(resp.RedirectURL)
	s.Equal("https://pay.test/checkout/"+resp.Payment.ID, *resp.RedirectURL)

	s.Require().Len(s.tap.Charges, 1)
	charge := s.tap.Charges[0]
	s.Equal(int64(50000), charge.AmountCents)
	s.Equal("https://api.paycore.test/v1/webhooks/tap/"+testutil.TestTenantID, charge.WebhookURL)
	s.Equal("user_1@students.test", charge.Customer.Email)

	ref := gateway.ParseMerchantReference(charge.MerchantReference)
	s.Require().True(ref.IsValid())
	s.Equal(testutil.TestTenantID, *ref.TenantID)
	s.Equal(resp.Payment.ID, *ref.PaymentID)

	stored := s.GetStores().PaymentRepo.Load(resp.Payment.ID)
	s.Equal(testutil.TestTenantID, stored.TenantID)
	s.Equal("order_"+stored.ID, lo.FromPtr(stored.GatewayOrderID))
	s.Empty(s.GetNotifications().Sent())
}

func (s *CheckoutServiceSuite) TestInitiatePaymentImmediateSuccess() {
	s.tap.ChargeFn = func(ctx context.Context, req *gateway.ChargeRequest) (*gateway.PaymentResult, error) {
		return successResult("chg_" + req.PaymentID), nil
	}

	resp, err := s.service.InitiatePayment(s.GetContext(), s.request())
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusSuccess, resp.Payment.Status)
	s.NotNil(resp.Payment.ReceiptNumber)
	s.Len(s.GetNotifications().SentOfKind(types.NotificationPaymentSuccess), 1)
}

func (s *CheckoutServiceSuite) TestInitiatePaymentDeclined() {
	s.tap.ChargeFn = func(ctx context.Context, req *gateway.ChargeRequest) (*gateway.PaymentResult, error) {
		return failedResult("DECLINED", "card declined"), nil
	}

	resp, err := s.service.InitiatePayment(s.GetContext(), s.request())
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusFailed, resp.Payment.Status)
	s.Require().NotNil(resp.Payment.FailureReason)
	s.Equal("DECLINED: card declined", *resp.Payment.FailureReason)
}

func (s *CheckoutServiceSuite) TestTransportErrorLeavesPaymentProcessing() {
	s.tap.ChargeFn = func(ctx context.Context, req *gateway.ChargeRequest) (*gateway.PaymentResult, error) {
		return nil, ierr.NewError("connection reset").Mark(ierr.ErrHTTPClient)
	}

	_, err := s.service.InitiatePayment(s.GetContext(), s.request())
	s.Require().Error(err)
	s.True(ierr.IsHTTPClient(err))

	p := s.onlyPayment()
	s.Equal(types.PaymentStatusProcessing, p.Status)
}

func (s *CheckoutServiceSuite) TestExplicitGatewayMustBeEnabled() {
	req := s.request()
	req.Gateway = lo.ToPtr("paymob")

	_, err := s.service.InitiatePayment(s.GetContext(), req)
	s.Require().Error(err)
	s.True(ierr.IsGatewayNotEnabled(err))
	s.Empty(s.tap.Charges)
}

func (s *CheckoutServiceSuite) TestGatewayWithoutChargeCapability() {
	s.GetRegistry().Register(types.PaymentGatewayTypeEasyKash, func(types.GatewayConfig) (gateway.Client, error) {
		return &nameOnlyGateway{name: types.PaymentGatewayTypeEasyKash}, nil
	})
	s.EnableGateways(testutil.TestTenantID, types.PaymentGatewayTypeEasyKash)

	_, err := s.service.InitiatePayment(s.GetContext(), s.request())
	s.Require().Error(err)
	s.True(ierr.IsCapabilityUnsupported(err))
}

func (s *CheckoutServiceSuite) TestChargeNotConfigured() {
	s.tap.Unconfigured[gateway.CapabilityCharge] = true

	_, err := s.service.InitiatePayment(s.GetContext(), s.request())
	s.Require().Error(err)
	s.True(ierr.IsConfiguration(err))
	s.Empty(s.tap.Charges)
}

func (s *CheckoutServiceSuite) TestValidation() {
	req := s.request()
	req.Amount = decimal.Zero

	_, err := s.service.InitiatePayment(s.GetContext(), req)
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))

	req = s.request()
	req.PayableType = "furniture"
	_, err = s.service.InitiatePayment(s.GetContext(), req)
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *CheckoutServiceSuite) TestUnknownUser() {
	req := s.request()
	req.UserID = "user_missing"

	_, err := s.service.InitiatePayment(s.GetContext(), req)
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
	s.Empty(s.tap.Charges)
}

func TestWebhookURL(t *testing.T) {
	assert.Equal(t, "https://api.test/v1/webhooks/paymob/tenant_a", WebhookURL("https://api.test/", types.PaymentGatewayTypePaymob, "tenant_a"))
	assert.Empty(t, WebhookURL("", types.PaymentGatewayTypePaymob, "tenant_a"))
}
