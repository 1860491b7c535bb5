package dto

import (
	"context"
	"strings"
	"time"

	"github.com/academyhub/paycore/internal/domain/payment"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/types"
	"github.com/academyhub/paycore/internal/validator"
	"github.com/shopspring/decimal"
)

// InitiatePaymentRequest starts a checkout for a payable item
type InitiatePaymentRequest struct {
	UserID        string                  `json:"user_id" validate:"required"`
	PayableType   types.PayableType       `json:"payable_type" validate:"required"`
	PayableID     string                  `json:"payable_id" validate:"required"`
	Amount        decimal.Decimal         `json:"amount"`
	Currency      string                  `json:"currency,omitempty" validate:"omitempty,len=3"`
	PaymentMethod types.PaymentMethodType `json:"payment_method,omitempty"`
	Gateway       *string                 `json:"gateway,omitempty"`
	Description   string                  `json:"description,omitempty" validate:"omitempty,max=255"`
	SuccessURL    string                  `json:"success_url,omitempty" validate:"omitempty,url"`
	SaveCard      bool                    `json:"save_card,omitempty"`
	CouponCode    string                  `json:"coupon_code,omitempty"`
	Metadata      map[string]any          `json:"metadata,omitempty"`

	// set from the request by the handler
	UserAgent string `json:"-"`
	IPAddress string `json:"-"`
}

func (r *InitiatePaymentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if !r.Amount.IsPositive() {
		return ierr.NewError("invalid amount").
			WithHint("Amount must be greater than zero").
			WithReportableDetails(map[string]any{
				"amount": r.Amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	if err := r.PayableType.Validate(); err != nil {
		return err
	}
	if r.PaymentMethod != "" {
		if err := r.PaymentMethod.Validate(); err != nil {
			return err
		}
	}
	if r.Gateway != nil && *r.Gateway != "" {
		if err := types.PaymentGatewayType(*r.Gateway).Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ToPayment builds the pending payment for this request, fees are set by the caller
func (r *InitiatePaymentRequest) ToPayment(ctx context.Context, defaultCurrency string) *payment.Payment {
	currency := r.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	method := r.PaymentMethod
	if method == "" {
		method = types.PaymentMethodTypeCard
	}

	p := &payment.Payment{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		PaymentCode:   types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_PAYMENT),
		UserID:        r.UserID,
		PayableType:   r.PayableType,
		PayableID:     r.PayableID,
		Amount:        r.Amount,
		Currency:      strings.ToUpper(currency),
		Fees:          decimal.Zero,
		NetAmount:     r.Amount,
		PaymentMethod: method,
		Status:        types.PaymentStatusPending,
		Metadata: types.PaymentMetadata{
			PurchaseSource: types.PurchaseSourceCheckout,
			UserAgent:      r.UserAgent,
			IPAddress:      r.IPAddress,
			SaveCard:       r.SaveCard,
			CouponCode:     r.CouponCode,
			Extras:         r.Metadata,
		},
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	return p
}

// InitiatePaymentResponse tells the client where to complete the payment
type InitiatePaymentResponse struct {
	Payment      *PaymentResponse `json:"payment"`
	RedirectURL  *string          `json:"redirect_url,omitempty"`
	IframeURL    *string          `json:"iframe_url,omitempty"`
	ClientSecret *string          `json:"client_secret,omitempty"`
}

// PaymentResponse represents a payment response
type PaymentResponse struct {
	ID                   string                  `json:"id"`
	PaymentCode          string                  `json:"payment_code"`
	UserID               string                  `json:"user_id"`
	PayableType          types.PayableType       `json:"payable_type"`
	PayableID            string                  `json:"payable_id"`
	Amount               decimal.Decimal         `json:"amount"`
	Fees                 decimal.Decimal         `json:"fees"`
	NetAmount            decimal.Decimal         `json:"net_amount"`
	Currency             string                  `json:"currency"`
	PaymentMethod        types.PaymentMethodType `json:"payment_method"`
	Status               types.PaymentStatus     `json:"status"`
	Gateway              string                  `json:"gateway"`
	GatewayTransactionID *string                 `json:"gateway_transaction_id,omitempty"`
	RedirectURL          *string                 `json:"redirect_url,omitempty"`
	IframeURL            *string                 `json:"iframe_url,omitempty"`
	FailureReason        *string                 `json:"failure_reason,omitempty"`
	PaidAt               *time.Time              `json:"paid_at,omitempty"`
	ReceiptNumber        *string                 `json:"receipt_number,omitempty"`
	InvoiceNumber        *string                 `json:"invoice_number,omitempty"`
	RefundAmount         *decimal.Decimal        `json:"refund_amount,omitempty"`
	RefundReason         *string                 `json:"refund_reason,omitempty"`
	RefundedAt           *time.Time              `json:"refunded_at,omitempty"`
	IsAutoRenewal        bool                    `json:"is_auto_renewal"`
	TenantID             string                  `json:"tenant_id"`
	CreatedAt            time.Time               `json:"created_at"`
	UpdatedAt            time.Time               `json:"updated_at"`
}

// ListPaymentsResponse represents a paginated list of payments
type ListPaymentsResponse = types.ListResponse[*PaymentResponse]

// NewPaymentResponse creates a new payment response from a payment
func NewPaymentResponse(p *payment.Payment) *PaymentResponse {
	if p == nil {
		return nil
	}
	resp := &PaymentResponse{
		ID:                   p.ID,
		PaymentCode:          p.PaymentCode,
		UserID:               p.UserID,
		PayableType:          p.PayableType,
		PayableID:            p.PayableID,
		Amount:               p.Amount,
		Fees:                 p.Fees,
		NetAmount:            p.NetAmount,
		Currency:             p.Currency,
		PaymentMethod:        p.PaymentMethod,
		Status:               p.Status,
		Gateway:              p.Gateway,
		GatewayTransactionID: p.GatewayTransactionID,
		RedirectURL:          p.RedirectURL,
		IframeURL:            p.IframeURL,
		FailureReason:        p.FailureReason,
		PaidAt:               p.PaidAt,
		ReceiptNumber:        p.ReceiptNumber,
		RefundAmount:         p.RefundAmount,
		RefundReason:         p.RefundReason,
		RefundedAt:           p.RefundedAt,
		IsAutoRenewal:        p.Metadata.IsAutoRenewal,
		TenantID:             p.TenantID,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
	if p.Metadata.HasInvoiceNumber() {
		resp.InvoiceNumber = &p.Metadata.InvoiceNumber
	}
	return resp
}

// RefundPaymentRequest refunds a paid payment, the full amount when Amount is nil
type RefundPaymentRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Reason string           `json:"reason" validate:"required,max=500"`
}

func (r *RefundPaymentRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// RefundPaymentResponse reports the outcome of a refund attempt.
// A refused refund is a response with success false, not an error.
type RefundPaymentResponse struct {
	Success      bool                   `json:"success"`
	ErrorCode    types.PaymentErrorCode `json:"error_code,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Payment      *PaymentResponse       `json:"payment,omitempty"`
}

// InvoiceResponse is a generated payment invoice
type InvoiceResponse struct {
	PaymentID     string `json:"payment_id"`
	InvoiceNumber string `json:"invoice_number"`
	// URL is empty when document storage is disabled
	URL string `json:"url,omitempty"`
}
