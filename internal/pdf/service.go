package pdf

import (
	"context"
	"encoding/json"

	"github.com/academyhub/paycore/internal/domain/pdf"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/typst"
)

const invoiceTemplate = "invoice.typ"

// Generator defines the interface for PDF generation operations
type Generator interface {
	RenderInvoicePdf(ctx context.Context, data *pdf.InvoiceData) ([]byte, error)
}

type service struct {
	typst typst.Compiler
}

// NewGenerator creates a new PDF service
func NewGenerator(typst typst.Compiler) Generator {
	return &service{typst: typst}
}

func (s *service) RenderInvoicePdf(ctx context.Context, data *pdf.InvoiceData) ([]byte, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to marshal invoice data").
			Mark(ierr.ErrSystem)
	}

	out, err := s.typst.CompileTemplate(ctx, invoiceTemplate, jsonData)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to compile invoice template").
			Mark(ierr.ErrSystem)
	}
	return out, nil
}
