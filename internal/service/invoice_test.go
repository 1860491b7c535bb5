package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/testutil"
	"github.com/academyhub/paycore/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

func TestFormatInvoiceNumber(t *testing.T) {
	at := time.Date(2026, time.March, 31, 23, 59, 0, 0, time.UTC)
	prefix := InvoiceNumberPrefix("tenant_a", at)

	assert.Equal(t, "INV-tenant_a-202603-", prefix)
	assert.Equal(t, "INV-tenant_a-202603-0001", FormatInvoiceNumber(prefix, 1))
	assert.Equal(t, "INV-tenant_a-202603-0420", FormatInvoiceNumber(prefix, 420))
	assert.Equal(t, "INV-tenant_a-202603-12345", FormatInvoiceNumber(prefix, 12345))
}

func TestInvoicePath(t *testing.T) {
	assert.Equal(t, "invoices/tenant_a/INV-tenant_a-202603-0001.pdf", InvoicePath("tenant_a", "INV-tenant_a-202603-0001"))
}

type InvoiceServiceSuite struct {
	testutil.BaseServiceTestSuite
	params   ServiceParams
	numbers  InvoiceNumberService
	invoices InvoiceService
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.params = newTestParams(&s.BaseServiceTestSuite)
	s.numbers = NewInvoiceNumberService(s.params)
	s.invoices = NewInvoiceService(s.params, s.numbers)

	s.EnableGateways(testutil.TestTenantID, types.PaymentGatewayTypeTap)
	s.CreateUser("user_1")
}

func (s *InvoiceServiceSuite) TestNumbersAreSequentialWithinTenant() {
	first := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusSuccess, types.PaymentGatewayTypeTap)
	second := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusSuccess, types.PaymentGatewayTypeTap)
	prefix := InvoiceNumberPrefix(testutil.TestTenantID, time.Now())

	n1, err := s.numbers.GenerateInvoiceNumber(s.GetContext(), first.ID)
	s.Require().NoError(err)
	n2, err := s.numbers.GenerateInvoiceNumber(s.GetContext(), second.ID)
	s.Require().NoError(err)

	s.Equal(prefix+"0001", n1)
	s.Equal(prefix+"0002", n2)

	stored := s.GetStores().PaymentRepo.Load(first.ID)
	s.Equal(n1, stored.Metadata.InvoiceNumber)
	s.NotNil(stored.Metadata.InvoiceGeneratedAt)
}

func (s *InvoiceServiceSuite) TestConcurrentAllocationIsGapFreeAndUnique() {
	const n = 20
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusSuccess, types.PaymentGatewayTypeTap).ID)
	}

	var (
		mu      sync.Mutex
		numbers = make(map[string]string, n)
		wg      = conc.NewWaitGroup()
	)
	for _, id := range ids {
		wg.Go(func() {
			number, err := s.numbers.GenerateInvoiceNumber(s.GetContext(), id)
			s.NoError(err)

			mu.Lock()
			defer mu.Unlock()
			numbers[id] = number
		})
	}
	wg.Wait()

	prefix := InvoiceNumberPrefix(testutil.TestTenantID, time.Now())
	want := make(map[string]bool, n)
	for i := 1; i <= n; i++ {
		want[fmt.Sprintf("%s%04d", prefix, i)] = true
	}

	got := make(map[string]bool, n)
	for id, number := range numbers {
		got[number] = true
		s.Equal(number, s.GetStores().PaymentRepo.Load(id).Metadata.InvoiceNumber)
	}
	s.Len(numbers, n)
	s.Equal(want, got)
}

func (s *InvoiceServiceSuite) TestNumberIsStablePerPayment() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusSuccess, types.PaymentGatewayTypeTap)

	n1, err := s.numbers.GenerateInvoiceNumber(s.GetContext(), p.ID)
	s.Require().NoError(err)
	n2, err := s.numbers.GenerateInvoiceNumber(s.GetContext(), p.ID)
	s.Require().NoError(err)

	s.Equal(n1, n2)
}

func (s *InvoiceServiceSuite) TestUnknownPayment() {
	_, err := s.numbers.GenerateInvoiceNumber(s.GetContext(), "pay_missing")
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceServiceSuite) TestInvoiceRequiresPaidPayment() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusPending, types.PaymentGatewayTypeTap)

	_, err := s.invoices.GenerateInvoice(s.GetContext(), p.ID)
	s.Require().Error(err)
	s.True(ierr.IsInvalidOperation(err))
	s.Empty(s.GetStores().PaymentRepo.Load(p.ID).Metadata.InvoiceNumber)
}

func (s *InvoiceServiceSuite) TestRendersAndStoresOnce() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusSuccess, types.PaymentGatewayTypeTap)
	s.GetPDFGenerator().On("RenderInvoicePdf", mock.Anything, mock.Anything).Return([]byte("%PDF-1.7"), nil).Once()

	first, err := s.invoices.GenerateInvoice(s.GetContext(), p.ID)
	s.Require().NoError(err)
	second, err := s.invoices.GenerateInvoice(s.GetContext(), p.ID)
	s.Require().NoError(err)

	path := InvoicePath(testutil.TestTenantID, first.InvoiceNumber)
	s.Equal("https://blobs.test/"+path, first.URL)
	s.Equal(first.URL, second.URL)
	s.Equal(first.InvoiceNumber, second.InvoiceNumber)
	s.Equal(1, s.GetBlobStore().Puts)

	doc, ok := s.GetBlobStore().Object(path)
	s.Require().True(ok)
	s.Equal([]byte("%PDF-1.7"), doc)
	s.GetPDFGenerator().AssertExpectations(s.T())
}

func (s *InvoiceServiceSuite) TestRenderFailureIsReturned() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusSuccess, types.PaymentGatewayTypeTap)
	s.GetPDFGenerator().On("RenderInvoicePdf", mock.Anything, mock.Anything).
		Return(nil, errors.New("typst exited with status 1"))

	_, err := s.invoices.GenerateInvoice(s.GetContext(), p.ID)
	s.Require().Error(err)
	s.Zero(s.GetBlobStore().Puts)
}

func (s *InvoiceServiceSuite) TestNumberOnlyWithoutRenderer() {
	params := s.params
	params.PDFGenerator = nil
	params.BlobStore = nil
	invoices := NewInvoiceService(params, NewInvoiceNumberService(params))
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusSuccess, types.PaymentGatewayTypeTap)

	resp, err := invoices.GenerateInvoice(s.GetContext(), p.ID)
	s.Require().NoError(err)
	s.Equal(p.ID, resp.PaymentID)
	s.NotEmpty(resp.InvoiceNumber)
	s.Empty(resp.URL)
	s.Zero(s.GetBlobStore().Puts)
}

func (s *InvoiceServiceSuite) TestInvoiceData() {
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusSuccess, types.PaymentGatewayTypeTap)

	data, err := s.invoices.GetInvoiceData(s.GetContext(), p.ID)
	s.Require().NoError(err)

	s.Equal(testutil.TestTenantID, data.Academy.ID)
	s.Equal("Test Academy", data.Academy.Name)
	s.Equal("billing@academy.test", data.Academy.Email)
	s.Equal("user_1", data.Student.ID)
	s.Equal("Student user_1", data.Student.Name)
	s.Equal("user_1@students.test", data.Student.Email)
	s.Equal("500.00", data.Amount)
	s.Equal("12.50", data.Fees)
	s.Equal("EGP", data.Currency)
	s.Equal("course course_golang101", data.Description)
	s.Equal(time.Now().UTC().Format(time.DateOnly), data.IssuedAt)
	s.Require().NotNil(data.PaymentMethodLabel)
	s.Equal("card", *data.PaymentMethodLabel)
}

func (s *InvoiceServiceSuite) TestInvoiceDataUsesSavedMethodLabel() {
	m := seedMethod(&s.BaseServiceTestSuite, "user_1", types.PaymentGatewayTypeTap, "tok_visa", true)
	p := seedPayment(&s.BaseServiceTestSuite, "user_1", types.PaymentStatusSuccess, types.PaymentGatewayTypeTap)
	p.SavedPaymentMethodID = &m.ID
	p.Metadata.IsAutoRenewal = true
	p.PayableType = types.PayableTypeSubscription
	p.PayableID = "subs_1"
	s.Require().NoError(s.GetStores().PaymentRepo.Update(s.GetContext(), p))

	data, err := s.invoices.GetInvoiceData(s.GetContext(), p.ID)
	s.Require().NoError(err)
	s.Equal("Visa •••• 4242", *data.PaymentMethodLabel)
	s.Equal("Subscription renewal subs_1", data.Description)
}
