package service

import (
	"testing"

	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/integration/gateway"
	"github.com/academyhub/paycore/internal/testutil"
	"github.com/academyhub/paycore/internal/types"
	"github.com/stretchr/testify/suite"
)

type PaymentResultProcessorSuite struct {
	testutil.BaseServiceTestSuite
	processor PaymentResultProcessor
}

func TestPaymentResultProcessor(t *testing.T) {
	suite.Run(t, new(PaymentResultProcessorSuite))
}

func (s *PaymentResultProcessorSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.processor = NewPaymentResultProcessor(newTestParams(&s.BaseServiceTestSuite))
	s.CreateUser("user_1")
}

func (s *PaymentResultProcessorSuite) TestSuccessFromProcessing() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusProcessing, types.PaymentGatewayTypeTap)

	updated, err := s.processor.ApplyResult(s.GetContext(), p.ID, successResult("chg_123"))
	s.Require().NoError(err)

	s.Equal(types.PaymentStatusSuccess, updated.Status)
	s.Require().NotNil(updated.PaidAt)
	s.Require().NotNil(updated.PaymentDate)
	s.Require().NotNil(updated.ReceiptNumber)
	s.Contains(*updated.ReceiptNumber, "REC-"+testutil.TestTenantID+"-"+p.ID+"-")
	s.Equal("chg_123", updated.TransactionID())
	s.Nil(updated.FailureReason)

	stored := s.GetStores().PaymentRepo.Load(p.ID)
	s.Equal(types.PaymentStatusSuccess, stored.Status)
	s.NotNil(stored.PaymentNotificationSentAt)

	sent := s.GetNotifications().SentOfKind(types.NotificationPaymentSuccess)
	s.Require().Len(sent, 1)
	s.Equal("user_1@students.test", sent[0].Recipient.Email)
	s.Equal(p.ID, sent[0].Payload["payment_id"])
}

func (s *PaymentResultProcessorSuite) TestSuccessFromPendingPassesThroughProcessing() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusPending, types.PaymentGatewayTypeTap)

	updated, err := s.processor.ApplyResult(s.GetContext(), p.ID, successResult("chg_123"))
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusSuccess, updated.Status)
}

func (s *PaymentResultProcessorSuite) TestFailureRecordsReason() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusProcessing, types.PaymentGatewayTypeTap)

	updated, err := s.processor.ApplyResult(s.GetContext(), p.ID, failedResult("51", "insufficient funds"))
	s.Require().NoError(err)

	s.Equal(types.PaymentStatusFailed, updated.Status)
	s.Require().NotNil(updated.FailureReason)
	s.Equal("51: insufficient funds", *updated.FailureReason)
	s.Nil(updated.PaidAt)
	s.Len(s.GetNotifications().SentOfKind(types.NotificationPaymentFailed), 1)
}

func (s *PaymentResultProcessorSuite) TestCanonicalCancelled() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusPending, types.PaymentGatewayTypeTap)

	result := failedResult("", "voided by payer")
	result.CanonicalStatus = types.PaymentStatusCancelled

	updated, err := s.processor.ApplyResult(s.GetContext(), p.ID, result)
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusCancelled, updated.Status)
	s.Len(s.GetNotifications().SentOfKind(types.NotificationPaymentFailed), 1)
}

func (s *PaymentResultProcessorSuite) TestPendingResultKeepsStatus() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusProcessing, types.PaymentGatewayTypePaymob)

	updated, err := s.processor.ApplyResult(s.GetContext(), p.ID, &gateway.PaymentResult{
		Status:         gateway.ResultStatusPending,
		GatewayOrderID: "order_987",
		IframeURL:      "https://accept.paymob.test/iframe/1?payment_token=abc",
	})
	s.Require().NoError(err)

	s.Equal(types.PaymentStatusProcessing, updated.Status)
	s.Require().NotNil(updated.GatewayOrderID)
	s.Equal("order_987", *updated.GatewayOrderID)
	s.Require().NotNil(updated.IframeURL)
	s.Empty(s.GetNotifications().Sent())
}

func (s *PaymentResultProcessorSuite) TestTerminalPaymentRejectsDifferentOutcome() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusSuccess, types.PaymentGatewayTypeTap)
	before := s.GetStores().PaymentRepo.Load(p.ID)

	updated, err := s.processor.ApplyResult(s.GetContext(), p.ID, failedResult("05", "late decline"))
	s.Require().Error(err)
	s.True(ierr.IsInvalidTransition(err))
	s.Require().NotNil(updated)
	s.Equal(types.PaymentStatusSuccess, updated.Status)

	after := s.GetStores().PaymentRepo.Load(p.ID)
	s.Equal(before.UpdatedAt, after.UpdatedAt)
	s.Equal(types.PaymentStatusSuccess, after.Status)
	s.Nil(after.FailureReason)
	s.Empty(s.GetNotifications().Sent())
}

func (s *PaymentResultProcessorSuite) TestLatePendingResultLeavesSettledPaymentUntouched() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusSuccess, types.PaymentGatewayTypeTap)
	before := s.GetStores().PaymentRepo.Load(p.ID)

	updated, err := s.processor.ApplyResult(s.GetContext(), p.ID, &gateway.PaymentResult{
		Status:        gateway.ResultStatusPending,
		TransactionID: "chg_late",
		RedirectURL:   "https://tap.test/pay/chg_late",
		RawResponse:   map[string]any{"late": true},
	})
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusSuccess, updated.Status)

	after := s.GetStores().PaymentRepo.Load(p.ID)
	s.Equal(types.PaymentStatusSuccess, after.Status)
	s.Equal(before.TransactionID(), after.TransactionID())
	s.Nil(after.RedirectURL)
	s.NotContains(after.GatewayResponse, "late")
	s.Equal(before.UpdatedAt, after.UpdatedAt)
	s.Empty(s.GetNotifications().Sent())
}

func (s *PaymentResultProcessorSuite) TestInvalidTransitionKeepsStatusButStoresAuditFields() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusFailed, types.PaymentGatewayTypeTap)

	result := successResult("chg_late")
	updated, err := s.processor.ApplyResult(s.GetContext(), p.ID, result)
	s.Require().Error(err)
	s.True(ierr.IsInvalidTransition(err))
	s.Equal(types.PaymentStatusFailed, updated.Status)

	stored := s.GetStores().PaymentRepo.Load(p.ID)
	s.Equal(types.PaymentStatusFailed, stored.Status)
	s.Equal("chg_late", stored.TransactionID())
	s.Equal("chg_late", stored.GatewayResponse["id"])
	s.Nil(stored.PaidAt)
}

func (s *PaymentResultProcessorSuite) TestRedeliveredSuccessNotifiesOnce() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusProcessing, types.PaymentGatewayTypeTap)

	_, err := s.processor.ApplyResult(s.GetContext(), p.ID, successResult("chg_123"))
	s.Require().NoError(err)
	first := s.GetStores().PaymentRepo.Load(p.ID)

	updated, err := s.processor.ApplyResult(s.GetContext(), p.ID, successResult("chg_123"))
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusSuccess, updated.Status)
	s.Equal(*first.ReceiptNumber, *updated.ReceiptNumber)
	s.Equal(*first.PaidAt, *updated.PaidAt)

	s.Len(s.GetNotifications().Sent(), 1)
}

func (s *PaymentResultProcessorSuite) TestSendNotificationsIsGuarded() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusSuccess, types.PaymentGatewayTypeTap)

	s.Require().NoError(s.processor.SendNotifications(s.GetContext(), p, types.NotificationPaymentSuccess))
	s.Require().NoError(s.processor.SendNotifications(s.GetContext(), p, types.NotificationPaymentSuccess))

	s.Len(s.GetNotifications().Sent(), 1)
	s.NotNil(p.PaymentNotificationSentAt)
}

func (s *PaymentResultProcessorSuite) TestNotificationFailureDoesNotFailResult() {
	s.GetNotifications().Err = ierr.NewError("smtp down").Mark(ierr.ErrHTTPClient)
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusProcessing, types.PaymentGatewayTypeTap)

	updated, err := s.processor.ApplyResult(s.GetContext(), p.ID, successResult("chg_123"))
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusSuccess, updated.Status)
}

func (s *PaymentResultProcessorSuite) TestPersistDoesNotNotify() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusProcessing, types.PaymentGatewayTypeTap)

	updated, err := s.processor.Persist(s.GetContext(), p.ID, successResult("chg_123"))
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusSuccess, updated.Status)
	s.Empty(s.GetNotifications().Sent())
}

func (s *PaymentResultProcessorSuite) TestNilResult() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusProcessing, types.PaymentGatewayTypeTap)

	_, err := s.processor.ApplyResult(s.GetContext(), p.ID, nil)
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *PaymentResultProcessorSuite) TestUnknownPayment() {
	_, err := s.processor.ApplyResult(s.GetContext(), "pay_missing", successResult("chg_1"))
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}
