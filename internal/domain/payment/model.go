package payment

import (
	"time"

	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/types"
	"github.com/shopspring/decimal"
)

// Payment is a single attempt by a student to pay for a payable item
type Payment struct {
	ID          string            `db:"id" json:"id"`
	PaymentCode string            `db:"payment_code" json:"payment_code"`
	UserID      string            `db:"user_id" json:"user_id"`
	PayableType types.PayableType `db:"payable_type" json:"payable_type"`
	PayableID   string            `db:"payable_id" json:"payable_id"`

	Amount        decimal.Decimal         `db:"amount" json:"amount"`
	Currency      string                  `db:"currency" json:"currency"`
	Fees          decimal.Decimal         `db:"fees" json:"fees"`
	NetAmount     decimal.Decimal         `db:"net_amount" json:"net_amount"`
	PaymentMethod types.PaymentMethodType `db:"payment_method" json:"payment_method"`
	Status        types.PaymentStatus     `db:"status" json:"status"`
	Gateway       string                  `db:"payment_gateway" json:"payment_gateway"`

	GatewayTransactionID *string       `db:"gateway_transaction_id" json:"gateway_transaction_id,omitempty"`
	GatewayOrderID       *string       `db:"gateway_order_id" json:"gateway_order_id,omitempty"`
	GatewayIntentID      *string       `db:"gateway_intent_id" json:"gateway_intent_id,omitempty"`
	ClientSecret         *string       `db:"client_secret" json:"-"`
	RedirectURL          *string       `db:"redirect_url" json:"redirect_url,omitempty"`
	IframeURL            *string       `db:"iframe_url" json:"iframe_url,omitempty"`
	GatewayResponse      types.JSONMap `db:"gateway_response" json:"-"`
	FailureReason        *string       `db:"failure_reason" json:"failure_reason,omitempty"`

	PaidAt        *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	PaymentDate   *time.Time `db:"payment_date" json:"payment_date,omitempty"`
	ReceiptNumber *string    `db:"receipt_number" json:"receipt_number,omitempty"`

	RefundAmount *decimal.Decimal `db:"refund_amount" json:"refund_amount,omitempty"`
	RefundReason *string          `db:"refund_reason" json:"refund_reason,omitempty"`
	RefundedAt   *time.Time       `db:"refunded_at" json:"refunded_at,omitempty"`

	// PaymentNotificationSentAt guards against notifying the student twice
	PaymentNotificationSentAt *time.Time `db:"payment_notification_sent_at" json:"payment_notification_sent_at,omitempty"`
	SavedPaymentMethodID      *string    `db:"saved_payment_method_id" json:"saved_payment_method_id,omitempty"`

	Metadata types.PaymentMetadata `db:"metadata" json:"metadata"`

	types.BaseModel
}

// Validate validates the payment before it is persisted
func (p *Payment) Validate() error {
	if p.Amount.IsNegative() {
		return ierr.NewError("invalid amount").
			WithHint("Amount cannot be negative").
			Mark(ierr.ErrValidation)
	}
	if p.UserID == "" {
		return ierr.NewError("user id is required").
			WithHint("Payment must belong to a user").
			Mark(ierr.ErrValidation)
	}
	if p.Currency == "" {
		return ierr.NewError("invalid currency").
			WithHint("Currency is required").
			Mark(ierr.ErrValidation)
	}
	if err := p.Status.Validate(); err != nil {
		return err
	}
	if p.PayableType != "" {
		if err := p.PayableType.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// AmountInCents converts the decimal amount to the minor unit integer gateways expect
func (p *Payment) AmountInCents() int64 {
	return ToCents(p.Amount)
}

// IsPaid reports whether the payment reached success
func (p *Payment) IsPaid() bool {
	return p.Status == types.PaymentStatusSuccess
}

// NotificationSent reports whether the student was already notified
func (p *Payment) NotificationSent() bool {
	return p.PaymentNotificationSentAt != nil
}

// TransactionID returns the gateway transaction id or an empty string
func (p *Payment) TransactionID() string {
	if p.GatewayTransactionID == nil {
		return ""
	}
	return *p.GatewayTransactionID
}

// ToCents converts a major unit amount to minor units, rounding half away from zero
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromCents converts minor units back to a decimal amount
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
