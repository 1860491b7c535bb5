package service

import (
	"context"
	"fmt"
	"time"

	"github.com/academyhub/paycore/internal/types"
)

const invoiceNumberPrefix = "INV"

// InvoiceNumberService allocates per tenant, per month invoice numbers
type InvoiceNumberService interface {
	// GenerateInvoiceNumber returns the payment's invoice number, allocating one on first call
	GenerateInvoiceNumber(ctx context.Context, paymentID string) (string, error)
}

type invoiceNumberService struct {
	ServiceParams
	now func() time.Time
}

func NewInvoiceNumberService(params ServiceParams) InvoiceNumberService {
	return &invoiceNumberService{
		ServiceParams: params,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// InvoiceNumberPrefix is the part of an invoice number shared by a tenant within a month
func InvoiceNumberPrefix(tenantID string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%s-", invoiceNumberPrefix, tenantID, at.UTC().Format("200601"))
}

// FormatInvoiceNumber pads seq to four digits, wider sequences keep all their digits
func FormatInvoiceNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s%04d", prefix, seq)
}

func (s *invoiceNumberService) GenerateInvoiceNumber(ctx context.Context, paymentID string) (string, error) {
	var number string

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		p, err := s.PaymentRepo.GetForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}

		if p.Metadata.HasInvoiceNumber() {
			number = p.Metadata.InvoiceNumber
			return nil
		}

		now := s.now()
		prefix := InvoiceNumberPrefix(p.TenantID, now)

		// serializes allocation for the tenant and month until commit
		if err := s.PaymentRepo.LockInvoiceSequence(ctx, p.TenantID, prefix); err != nil {
			return err
		}

		last, err := s.PaymentRepo.MaxInvoiceSequence(ctx, p.TenantID, prefix)
		if err != nil {
			return err
		}

		number = FormatInvoiceNumber(prefix, last+1)
		p.Metadata.InvoiceNumber = number
		p.Metadata.InvoiceGeneratedAt = &now
		p.UpdatedAt = now
		p.UpdatedBy = types.GetUserID(ctx)

		return s.PaymentRepo.Update(ctx, p)
	})
	if err != nil {
		return "", err
	}

	s.Logger.Infow("invoice number ready",
		"payment_id", paymentID,
		"invoice_number", number,
	)
	return number, nil
}
