package types

// SavedPaymentMethodType is the instrument kind stored in the vault
type SavedPaymentMethodType string

const (
	SavedPaymentMethodTypeCard   SavedPaymentMethodType = "card"
	SavedPaymentMethodTypeWallet SavedPaymentMethodType = "wallet"
)

// PaymentMethodFilter represents filters for saved payment method queries
type PaymentMethodFilter struct {
	UserID  string
	Gateway *PaymentGatewayType
	// IncludeInactive returns deactivated methods too
	IncludeInactive bool
	// IncludeExpired returns methods past their expiry too
	IncludeExpired bool
}
