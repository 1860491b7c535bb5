package service

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/academyhub/paycore/internal/api/dto"
	"github.com/academyhub/paycore/internal/domain/payment"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/testutil"
	"github.com/academyhub/paycore/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type WebhookServiceSuite struct {
	testutil.BaseServiceTestSuite
	service WebhookService
	tap     *testutil.MockGateway
}

func TestWebhookService(t *testing.T) {
	suite.Run(t, new(WebhookServiceSuite))
}

func (s *WebhookServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestParams(&s.BaseServiceTestSuite)
	resolver := NewGatewayResolver(params)
	s.service = NewWebhookService(
		params,
		resolver,
		NewPaymentResultProcessor(params),
		NewPaymentMethodService(params, resolver),
		NewInvoiceNumberService(params),
	)

	s.tap = testutil.NewMockGateway(types.PaymentGatewayTypeTap)
	s.UseGateway(s.tap)
	s.EnableGateways(testutil.TestTenantID, types.PaymentGatewayTypeTap)
	s.CreateUser("user_1")
}

func (s *WebhookServiceSuite) request(body testutil.MockWebhookBody) *gateway.WebhookRequest {
	raw, err := json.Marshal(body)
	s.Require().NoError(err)
	return &gateway.WebhookRequest{Body: raw}
}

func (s *WebhookServiceSuite) bodyFor(p *payment.Payment, status types.PaymentStatus) testutil.MockWebhookBody {
	return testutil.MockWebhookBody{
		TransactionID: "chg_" + p.ID,
		Reference:     p.Metadata.MerchantReference,
		Status:        status,
	}
}

func (s *WebhookServiceSuite) handle(body testutil.MockWebhookBody) *dto.WebhookResponse {
	resp, err := s.service.HandleWebhook(s.GetContext(), "tap", testutil.TestTenantID, s.request(body))
	s.Require().NoError(err)
	s.Require().NotNil(resp)
	return resp
}

func (s *WebhookServiceSuite) eventStatus(body testutil.MockWebhookBody) types.WebhookEventStatus {
	event, err := s.GetStores().WebhookEventRepo.GetByEventID(s.GetContext(), "tap", body.TransactionID+"-"+string(body.Status))
	s.Require().NoError(err)
	return event.Status
}

func (s *WebhookServiceSuite) TestSuccessWebhook() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusProcessing, types.PaymentGatewayTypeTap)
	body := s.bodyFor(p, types.PaymentStatusSuccess)

	resp := s.handle(body)
	s.Equal(dto.WebhookStatusSuccess, resp.Status)
	s.Equal(p.ID, resp.PaymentID)

	stored := s.GetStores().PaymentRepo.Load(p.ID)
	s.Equal(types.PaymentStatusSuccess, stored.Status)
	s.Equal("chg_"+p.ID, stored.TransactionID())
	s.NotNil(stored.PaidAt)
	s.True(stored.Metadata.HasInvoiceNumber())
	s.Equal(InvoiceNumberPrefix(testutil.TestTenantID, time.Now())+"0001", stored.Metadata.InvoiceNumber)

	s.Equal(types.WebhookEventStatusProcessed, s.eventStatus(body))
	s.Len(s.GetNotifications().SentOfKind(types.NotificationPaymentSuccess), 1)
}

func (s *WebhookServiceSuite) TestDuplicateEventIsIgnored() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusProcessing, types.PaymentGatewayTypeTap)
	body := s.bodyFor(p, types.PaymentStatusSuccess)

	s.Equal(dto.WebhookStatusSuccess, s.handle(body).Status)

	resp := s.handle(body)
	s.Equal(dto.WebhookStatusIgnored, resp.Status)
	s.Equal("duplicate event", resp.Message)
	s.Len(s.GetNotifications().Sent(), 1)
}

func (s *WebhookServiceSuite) TestLateFailureAfterSuccessIsIgnored() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusProcessing, types.PaymentGatewayTypeTap)
	s.handle(s.bodyFor(p, types.PaymentStatusSuccess))

	failed := s.bodyFor(p, types.PaymentStatusFailed)
	resp := s.handle(failed)
	s.Equal(dto.WebhookStatusIgnored, resp.Status)
	s.Equal("invalid transition success -> failed", resp.Message)

	stored := s.GetStores().PaymentRepo.Load(p.ID)
	s.Equal(types.PaymentStatusSuccess, stored.Status)
	s.Equal(types.WebhookEventStatusIgnored, s.eventStatus(failed))
}

func (s *WebhookServiceSuite) TestPendingPaymentSucceeds() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusPending, types.PaymentGatewayTypeTap)

	resp := s.handle(s.bodyFor(p, types.PaymentStatusSuccess))
	s.Equal(dto.WebhookStatusSuccess, resp.Status)
	s.Equal(types.PaymentStatusSuccess, s.GetStores().PaymentRepo.Load(p.ID).Status)
}

func (s *WebhookServiceSuite) TestFailureWebhook() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusProcessing, types.PaymentGatewayTypeTap)

	resp := s.handle(s.bodyFor(p, types.PaymentStatusFailed))
	s.Equal(dto.WebhookStatusSuccess, resp.Status)

	stored := s.GetStores().PaymentRepo.Load(p.ID)
	s.Equal(types.PaymentStatusFailed, stored.Status)
	s.False(stored.Metadata.HasInvoiceNumber())
	s.Len(s.GetNotifications().SentOfKind(types.NotificationPaymentFailed), 1)
}

func (s *WebhookServiceSuite) TestExpiredWebhookKeepsCanonicalStatus() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusPending, types.PaymentGatewayTypeTap)

	resp := s.handle(s.bodyFor(p, types.PaymentStatusExpired))
	s.Equal(dto.WebhookStatusSuccess, resp.Status)
	s.Equal(types.PaymentStatusExpired, s.GetStores().PaymentRepo.Load(p.ID).Status)
}

func (s *WebhookServiceSuite) TestPendingWebhookChangesNothing() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusProcessing, types.PaymentGatewayTypeTap)

	resp := s.handle(s.bodyFor(p, types.PaymentStatusPending))
	s.Equal(dto.WebhookStatusSuccess, resp.Status)
	s.Equal(types.PaymentStatusProcessing, s.GetStores().PaymentRepo.Load(p.ID).Status)
	s.Empty(s.GetNotifications().Sent())
}

func (s *WebhookServiceSuite) TestInvalidSignature() {
	s.tap.SignatureValid = false
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusProcessing, types.PaymentGatewayTypeTap)

	_, err := s.service.HandleWebhook(s.GetContext(), "tap", testutil.TestTenantID, s.request(s.bodyFor(p, types.PaymentStatusSuccess)))
	s.Require().Error(err)
	s.True(ierr.IsSignature(err))

	s.Equal(types.PaymentStatusProcessing, s.GetStores().PaymentRepo.Load(p.ID).Status)
	_, err = s.GetStores().WebhookEventRepo.GetByEventID(s.GetContext(), "tap", "chg_"+p.ID+"-success")
	s.True(ierr.IsNotFound(err))
}

func (s *WebhookServiceSuite) TestGatewayNotEnabledForTenant() {
	s.UseGateway(testutil.NewMockGateway(types.PaymentGatewayTypePaymob))

	_, err := s.service.HandleWebhook(s.GetContext(), "paymob", testutil.TestTenantID, s.request(testutil.MockWebhookBody{
		TransactionID: "123",
		Status:        types.PaymentStatusSuccess,
	}))
	s.Require().Error(err)
	s.True(ierr.IsGatewayNotEnabled(err))
}

func (s *WebhookServiceSuite) TestPaymentNotFound() {
	body := testutil.MockWebhookBody{
		TransactionID: "chg_unknown",
		Reference:     fmt.Sprintf("%s-pay_unknown-%d", testutil.TestTenantID, time.Now().Unix()),
		Status:        types.PaymentStatusSuccess,
	}

	resp := s.handle(body)
	s.Equal(dto.WebhookStatusError, resp.Status)
	s.Equal("payment not found", resp.Message)
	s.Equal(types.WebhookEventStatusFailed, s.eventStatus(body))
}

func (s *WebhookServiceSuite) TestPaymentLocatedByTransactionID() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusProcessing, types.PaymentGatewayTypeTap)
	p.GatewayTransactionID = lo.ToPtr("chg_known")
	s.Require().NoError(s.GetStores().PaymentRepo.Update(s.GetContext(), p))

	resp := s.handle(testutil.MockWebhookBody{
		TransactionID: "chg_known",
		Status:        types.PaymentStatusSuccess,
	})
	s.Equal(dto.WebhookStatusSuccess, resp.Status)
	s.Equal(p.ID, resp.PaymentID)
}

func (s *WebhookServiceSuite) TestPaymentLocatedByOrderID() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusProcessing, types.PaymentGatewayTypeTap)
	p.GatewayOrderID = lo.ToPtr("order_77")
	s.Require().NoError(s.GetStores().PaymentRepo.Update(s.GetContext(), p))

	resp := s.handle(testutil.MockWebhookBody{
		TransactionID: "chg_new",
		OrderID:       "order_77",
		Status:        types.PaymentStatusSuccess,
	})
	s.Equal(dto.WebhookStatusSuccess, resp.Status)
	s.Equal(p.ID, resp.PaymentID)
}

func (s *WebhookServiceSuite) TestTenantMismatch() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusProcessing, types.PaymentGatewayTypeTap)
	body := s.bodyFor(p, types.PaymentStatusSuccess)
	body.Reference = fmt.Sprintf("tenant_other-%s-%d", p.ID, time.Now().Unix())

	resp := s.handle(body)
	s.Equal(dto.WebhookStatusError, resp.Status)
	s.Equal("tenant mismatch", resp.Message)
	s.Equal(types.PaymentStatusProcessing, s.GetStores().PaymentRepo.Load(p.ID).Status)
}

func (s *WebhookServiceSuite) TestPaymentOfAnotherTenantIsInvisible() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusProcessing, types.PaymentGatewayTypeTap)
	s.EnableGateways("tenant_other", types.PaymentGatewayTypeTap)

	resp, err := s.service.HandleWebhook(s.GetContext(), "tap", "tenant_other", s.request(s.bodyFor(p, types.PaymentStatusSuccess)))
	s.Require().NoError(err)
	s.Equal(dto.WebhookStatusError, resp.Status)
	s.Equal(types.PaymentStatusProcessing, s.GetStores().PaymentRepo.Load(p.ID).Status)
}

func (s *WebhookServiceSuite) TestRefundedWebhookIsIgnored() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusSuccess, types.PaymentGatewayTypeTap)

	resp := s.handle(s.bodyFor(p, types.PaymentStatusRefunded))
	s.Equal(dto.WebhookStatusIgnored, resp.Status)
	s.Equal(types.PaymentStatusSuccess, s.GetStores().PaymentRepo.Load(p.ID).Status)
}

func (s *WebhookServiceSuite) TestSavesCardWhenRequested() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusProcessing, types.PaymentGatewayTypeTap)
	body := s.bodyFor(p, types.PaymentStatusSuccess)
	body.CardToken = "card_tok_1"
	body.SaveCard = true

	s.Equal(dto.WebhookStatusSuccess, s.handle(body).Status)

	methods, err := s.GetStores().PaymentMethodRepo.List(s.GetContext(), &types.PaymentMethodFilter{UserID: "user_1"})
	s.Require().NoError(err)
	s.Require().Len(methods, 1)
	s.Equal("card_tok_1", methods[0].Token)
	s.Equal("tap", methods[0].Gateway)
	s.True(methods[0].IsDefault)
	s.Equal("Visa •••• 4242", methods[0].Label())
}

func (s *WebhookServiceSuite) TestCardNotSavedWithoutConsent() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusProcessing, types.PaymentGatewayTypeTap)
	body := s.bodyFor(p, types.PaymentStatusSuccess)
	body.CardToken = "card_tok_1"

	s.Equal(dto.WebhookStatusSuccess, s.handle(body).Status)

	methods, err := s.GetStores().PaymentMethodRepo.List(s.GetContext(), &types.PaymentMethodFilter{UserID: "user_1"})
	s.Require().NoError(err)
	s.Empty(methods)
}

func (s *WebhookServiceSuite) TestCheckoutConsentSavesCard() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusProcessing, types.PaymentGatewayTypeTap)
	p.Metadata.SaveCard = true
	s.Require().NoError(s.GetStores().PaymentRepo.Update(s.GetContext(), p))

	body := s.bodyFor(p, types.PaymentStatusSuccess)
	body.CardToken = "card_tok_2"
	s.Equal(dto.WebhookStatusSuccess, s.handle(body).Status)

	methods, err := s.GetStores().PaymentMethodRepo.List(s.GetContext(), &types.PaymentMethodFilter{UserID: "user_1"})
	s.Require().NoError(err)
	s.Len(methods, 1)
}

func (s *WebhookServiceSuite) TestParseFailureIsReturned() {
	_, err := s.service.HandleWebhook(s.GetContext(), "tap", testutil.TestTenantID, &gateway.WebhookRequest{Body: []byte("not json")})
	s.Require().Error(err)
}
