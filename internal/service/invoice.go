package service

import (
	"context"
	"fmt"
	"time"

	"github.com/academyhub/paycore/internal/api/dto"
	"github.com/academyhub/paycore/internal/domain/payment"
	"github.com/academyhub/paycore/internal/domain/pdf"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/s3"
	"github.com/samber/lo"
)

// InvoiceService produces invoice documents for paid payments
type InvoiceService interface {
	// GenerateInvoice allocates the invoice number, renders the PDF and stores it.
	// Without a renderer or blob store only the number is returned.
	GenerateInvoice(ctx context.Context, paymentID string) (*dto.InvoiceResponse, error)
	// GetInvoiceData builds the document content without rendering it
	GetInvoiceData(ctx context.Context, paymentID string) (*pdf.InvoiceData, error)
}

type invoiceService struct {
	ServiceParams
	invoiceNumbers InvoiceNumberService
}

func NewInvoiceService(params ServiceParams, invoiceNumbers InvoiceNumberService) InvoiceService {
	return &invoiceService{
		ServiceParams:  params,
		invoiceNumbers: invoiceNumbers,
	}
}

// InvoicePath is where the rendered document of an invoice is stored
func InvoicePath(tenantID, invoiceNumber string) string {
	return fmt.Sprintf("invoices/%s/%s.pdf", tenantID, invoiceNumber)
}

func (s *invoiceService) GenerateInvoice(ctx context.Context, paymentID string) (*dto.InvoiceResponse, error) {
	data, err := s.GetInvoiceData(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	resp := &dto.InvoiceResponse{
		PaymentID:     paymentID,
		InvoiceNumber: data.InvoiceNumber,
	}

	if s.PDFGenerator == nil || s.BlobStore == nil {
		return resp, nil
	}

	path := InvoicePath(data.Academy.ID, data.InvoiceNumber)
	exists, err := s.BlobStore.Exists(ctx, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		doc, err := s.PDFGenerator.RenderInvoicePdf(ctx, data)
		if err != nil {
			return nil, err
		}
		if err := s.BlobStore.Put(ctx, path, doc, s3.ContentTypePDF); err != nil {
			return nil, err
		}
		s.Logger.Infow("stored invoice document",
			"payment_id", paymentID,
			"invoice_number", data.InvoiceNumber,
			"path", path,
		)
	}

	url, err := s.BlobStore.URL(ctx, path)
	if err != nil {
		return nil, err
	}
	resp.URL = url
	return resp, nil
}

func (s *invoiceService) GetInvoiceData(ctx context.Context, paymentID string) (*pdf.InvoiceData, error) {
	p, err := s.PaymentRepo.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !p.IsPaid() && p.PaidAt == nil {
		return nil, ierr.NewError("payment is not paid").
			WithHint("Invoices are only available for paid payments").
			WithReportableDetails(map[string]any{
				"payment_id": p.ID,
				"status":     p.Status,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	number, err := s.invoiceNumbers.GenerateInvoiceNumber(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	// reload for invoice_generated_at
	if p, err = s.PaymentRepo.Get(ctx, p.ID); err != nil {
		return nil, err
	}

	payer, err := s.UserRepo.Get(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	academy := pdf.AcademyInfo{ID: p.TenantID}
	if settings, err := s.TenantRepo.GetPaymentSettings(ctx, p.TenantID); err == nil {
		academy.Name = settings.AcademyName
		academy.Email = lo.FromPtr(settings.ContactEmail)
	} else if !ierr.IsNotFound(err) {
		return nil, err
	}

	issuedAt := lo.FromPtr(p.Metadata.InvoiceGeneratedAt)
	if issuedAt.IsZero() {
		issuedAt = lo.FromPtr(p.PaidAt)
	}

	return &pdf.InvoiceData{
		PaymentID:          p.ID,
		PaymentCode:        p.PaymentCode,
		InvoiceNumber:      number,
		IssuedAt:           issuedAt.UTC().Format(time.DateOnly),
		Description:        invoiceDescription(p),
		Amount:             p.Amount.StringFixed(2),
		Fees:               p.Fees.StringFixed(2),
		Currency:           p.Currency,
		Gateway:            p.Gateway,
		TransactionID:      p.GatewayTransactionID,
		PaymentMethodLabel: s.paymentMethodLabel(ctx, p),
		Academy:            academy,
		Student: pdf.RecipientInfo{
			ID:    payer.ID,
			Name:  payer.Name,
			Email: payer.Email,
		},
	}, nil
}

func (s *invoiceService) paymentMethodLabel(ctx context.Context, p *payment.Payment) *string {
	if p.SavedPaymentMethodID == nil {
		return lo.ToPtr(string(p.PaymentMethod))
	}
	m, err := s.PaymentMethodRepo.Get(ctx, *p.SavedPaymentMethodID)
	if err != nil {
		return lo.ToPtr(string(p.PaymentMethod))
	}
	return lo.ToPtr(m.Label())
}

func invoiceDescription(p *payment.Payment) string {
	if p.Metadata.IsAutoRenewal {
		return fmt.Sprintf("Subscription renewal %s", p.PayableID)
	}
	return fmt.Sprintf("%s %s", p.PayableType, p.PayableID)
}
