package dto

// WebhookStatus is the coarse outcome reported back to the gateway
type WebhookStatus string

const (
	WebhookStatusSuccess WebhookStatus = "success"
	WebhookStatusIgnored WebhookStatus = "ignored"
	WebhookStatusError   WebhookStatus = "error"
)

// WebhookResponse is returned to the gateway for every callback
type WebhookResponse struct {
	Status    WebhookStatus `json:"status"`
	Message   string        `json:"message,omitempty"`
	PaymentID string        `json:"payment_id,omitempty"`
}
