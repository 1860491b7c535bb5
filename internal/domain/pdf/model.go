package pdf

// InvoiceData represents the data model for payment invoice PDF generation.
// Amounts are preformatted decimal strings so the template never does arithmetic.
type InvoiceData struct {
	PaymentID          string        `json:"payment_id"`
	PaymentCode        string        `json:"payment_code"`
	InvoiceNumber      string        `json:"invoice_number"`
	IssuedAt           string        `json:"issued_at"`
	Description        string        `json:"description"`
	Amount             string        `json:"amount"`
	Fees               string        `json:"fees"`
	Currency           string        `json:"currency"`
	Gateway            string        `json:"gateway"`
	TransactionID      *string       `json:"transaction_id,omitempty"`
	PaymentMethodLabel *string       `json:"payment_method_label,omitempty"`
	Academy            AcademyInfo   `json:"academy"`
	Student            RecipientInfo `json:"student"`
}

// AcademyInfo contains information about the issuing academy
type AcademyInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// RecipientInfo contains information about the paying student
type RecipientInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}
