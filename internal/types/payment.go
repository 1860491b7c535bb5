package types

import (
	"strings"
	"time"

	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/samber/lo"
)

// PaymentStatus represents the lifecycle state of a payment
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSuccess    PaymentStatus = "success"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
	PaymentStatusExpired    PaymentStatus = "expired"
	// PaymentStatusRefunded is reached only through the refund flow
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) Validate() error {
	allowed := []PaymentStatus{
		PaymentStatusPending,
		PaymentStatusProcessing,
		PaymentStatusSuccess,
		PaymentStatusFailed,
		PaymentStatusCancelled,
		PaymentStatusExpired,
		PaymentStatusRefunded,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid payment status").
			WithHint("Please provide a valid payment status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
				"status":  s,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PaymentMethodType is the instrument family used to pay
type PaymentMethodType string

const (
	PaymentMethodTypeCard         PaymentMethodType = "card"
	PaymentMethodTypeWallet       PaymentMethodType = "wallet"
	PaymentMethodTypeBankTransfer PaymentMethodType = "bank_transfer"
	PaymentMethodTypeFawry        PaymentMethodType = "fawry"
	PaymentMethodTypeCash         PaymentMethodType = "cash"
)

func (s PaymentMethodType) String() string {
	return string(s)
}

func (s PaymentMethodType) Validate() error {
	allowed := []PaymentMethodType{
		PaymentMethodTypeCard,
		PaymentMethodTypeWallet,
		PaymentMethodTypeBankTransfer,
		PaymentMethodTypeFawry,
		PaymentMethodTypeCash,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid payment method type").
			WithHint("Please provide a valid payment method type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PayableType is the kind of entity a payment pays for
type PayableType string

const (
	PayableTypeCourse       PayableType = "course"
	PayableTypeSubscription PayableType = "subscription"
	PayableTypeBundle       PayableType = "bundle"
)

func (p PayableType) Validate() error {
	allowed := []PayableType{PayableTypeCourse, PayableTypeSubscription, PayableTypeBundle}
	if !lo.Contains(allowed, p) {
		return ierr.NewError("invalid payable type").
			WithHint("Please provide a valid payable type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PurchaseSource records which flow created a payment
type PurchaseSource string

const (
	PurchaseSourceCheckout    PurchaseSource = "checkout"
	PurchaseSourceAutoRenewal PurchaseSource = "auto_renewal"
	PurchaseSourceAdmin       PurchaseSource = "admin"
)

// PaymentErrorCode is a machine readable reason attached to a failed operation result
type PaymentErrorCode string

const (
	ErrorCodeInvalidRenewalAmount   PaymentErrorCode = "INVALID_RENEWAL_AMOUNT"
	ErrorCodeNoStudent              PaymentErrorCode = "NO_STUDENT"
	ErrorCodeNoSavedPaymentMethod   PaymentErrorCode = "NO_SAVED_PAYMENT_METHOD"
	ErrorCodeGatewayNoRecurring     PaymentErrorCode = "GATEWAY_NO_RECURRING"
	ErrorCodeRecurringNotConfigured PaymentErrorCode = "RECURRING_NOT_CONFIGURED"
	ErrorCodeChargeFailed           PaymentErrorCode = "CHARGE_FAILED"
	ErrorCodeRefundsNotSupported    PaymentErrorCode = "REFUNDS_NOT_SUPPORTED"
	ErrorCodeNoTransactionID        PaymentErrorCode = "NO_TRANSACTION_ID"
	ErrorCodeRefundFailed           PaymentErrorCode = "REFUND_FAILED"
)

func (c PaymentErrorCode) String() string {
	return string(c)
}

// NormalizeStatusString lowercases and trims a raw gateway status
func NormalizeStatusString(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// PaymentFilter represents filters for payment queries
type PaymentFilter struct {
	*QueryFilter

	PaymentIDs    []string        `json:"payment_ids,omitempty" form:"payment_ids"`
	UserID        *string         `json:"user_id,omitempty" form:"user_id"`
	PayableType   *PayableType    `json:"payable_type,omitempty" form:"payable_type"`
	PayableID     *string         `json:"payable_id,omitempty" form:"payable_id"`
	Statuses      []PaymentStatus `json:"statuses,omitempty" form:"statuses"`
	Gateway       *string         `json:"gateway,omitempty" form:"gateway"`
	CreatedBefore *time.Time      `json:"created_before,omitempty" form:"created_before"`
}

// NewPaymentFilter creates a new payment filter with default values
func NewPaymentFilter() *PaymentFilter {
	return &PaymentFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

// NewNoLimitPaymentFilter creates a new payment filter without pagination
func NewNoLimitPaymentFilter() *PaymentFilter {
	return &PaymentFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

// Validate validates the filter fields
func (f PaymentFilter) Validate() error {
	if f.QueryFilter != nil {
		if err := f.QueryFilter.Validate(); err != nil {
			return err
		}
	}
	for _, s := range f.Statuses {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// GetLimit implements BaseFilter interface
func (f *PaymentFilter) GetLimit() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetLimit()
	}
	return f.QueryFilter.GetLimit()
}

// GetOffset implements BaseFilter interface
func (f *PaymentFilter) GetOffset() int {
	if f.QueryFilter == nil {
		return 0
	}
	return f.QueryFilter.GetOffset()
}

// GetSort implements BaseFilter interface
func (f *PaymentFilter) GetSort() string {
	if f.QueryFilter == nil {
		return FILTER_DEFAULT_SORT
	}
	return f.QueryFilter.GetSort()
}

// GetOrder implements BaseFilter interface
func (f *PaymentFilter) GetOrder() string {
	if f.QueryFilter == nil {
		return FILTER_DEFAULT_ORDER
	}
	return f.QueryFilter.GetOrder()
}

// IsUnlimited implements BaseFilter interface
func (f *PaymentFilter) IsUnlimited() bool {
	if f.QueryFilter == nil {
		return false
	}
	return f.QueryFilter.IsUnlimited()
}
