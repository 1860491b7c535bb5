package gateway

import (
	"github.com/academyhub/paycore/internal/types"
)

// ResultStatus is the outcome of a gateway call
type ResultStatus string

const (
	ResultStatusSuccess ResultStatus = "success"
	ResultStatusPending ResultStatus = "pending"
	ResultStatusFailed  ResultStatus = "failed"
)

// PaymentResult is what a gateway reported about a charge, verify, refund or recurring call.
// A declined or rejected call is a failed result, never an error.
type PaymentResult struct {
	Status ResultStatus
	// CanonicalStatus is set when the gateway reported something more specific
	// than Status, such as cancelled or expired
	CanonicalStatus types.PaymentStatus
	TransactionID  string
	GatewayOrderID string
	IntentID       string
	ClientSecret   string
	RedirectURL    string
	IframeURL      string
	ErrorCode      string
	ErrorMessage   string
	RawResponse    map[string]any
	Metadata       map[string]any
	// Card is set when the gateway tokenized the instrument used
	Card *CardDetails
}

// CardDetails describes a tokenized card returned by a gateway
type CardDetails struct {
	Token       string
	CustomerID  string
	Brand       string
	LastFour    string
	ExpiryMonth *int
	ExpiryYear  *int
	HolderName  string
	Type        types.SavedPaymentMethodType
}

func (r *PaymentResult) IsSuccess() bool {
	return r != nil && r.Status == ResultStatusSuccess
}

func (r *PaymentResult) IsPending() bool {
	return r != nil && r.Status == ResultStatusPending
}

func (r *PaymentResult) IsFailed() bool {
	return r != nil && r.Status == ResultStatusFailed
}

// Failed builds a failed result carrying the gateway message
func Failed(code, message string, raw map[string]any) *PaymentResult {
	return &PaymentResult{
		Status:       ResultStatusFailed,
		ErrorCode:    code,
		ErrorMessage: message,
		RawResponse:  raw,
	}
}

// ChargeRequest starts a customer present payment
type ChargeRequest struct {
	TenantID          string
	PaymentID         string
	AmountCents       int64
	Currency          string
	PaymentMethod     types.PaymentMethodType
	Description       string
	Customer          Customer
	MerchantReference string
	SuccessURL        string
	WebhookURL        string
	SaveCard          bool
	Metadata          map[string]string
}

// Customer is the payer as gateways need it for billing data
type Customer struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// RefundRequest returns part or all of a captured charge
type RefundRequest struct {
	PaymentID     string
	TransactionID string
	AmountCents   int64
	Currency      string
	Reason        string
}

// SavedMethodChargeRequest charges a stored token without the customer present
type SavedMethodChargeRequest struct {
	TenantID          string
	PaymentID         string
	Token             string
	CustomerID        string
	AmountCents       int64
	Currency          string
	MerchantReference string
	Customer          Customer
	BillingData       map[string]any
}
