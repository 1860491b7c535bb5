package types

import (
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/samber/lo"
)

// WebhookEventStatus tracks the processing outcome of an inbound gateway callback
type WebhookEventStatus string

const (
	WebhookEventStatusReceived  WebhookEventStatus = "received"
	WebhookEventStatusProcessed WebhookEventStatus = "processed"
	WebhookEventStatusFailed    WebhookEventStatus = "failed"
	WebhookEventStatusIgnored   WebhookEventStatus = "ignored"
)

func (s WebhookEventStatus) Validate() error {
	allowed := []WebhookEventStatus{
		WebhookEventStatusReceived,
		WebhookEventStatusProcessed,
		WebhookEventStatusFailed,
		WebhookEventStatusIgnored,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid webhook event status").
			WithHint("Please provide a valid webhook event status").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// WebhookSensitiveKeys are stripped from payloads before they are persisted
var WebhookSensitiveKeys = []string{
	"hmac",
	"hashstring",
	"signatureHash",
	"card",
	"source",
	"source_data.pan",
	"token",
}

// NotificationKind identifies the message sent to a student about a payment
type NotificationKind string

const (
	NotificationPaymentSuccess NotificationKind = "payment_success"
	NotificationPaymentFailed  NotificationKind = "payment_failed"
	NotificationRenewalSuccess NotificationKind = "renewal_success"
	NotificationRenewalFailed  NotificationKind = "renewal_failed"
	NotificationRefund         NotificationKind = "payment_refunded"
)
