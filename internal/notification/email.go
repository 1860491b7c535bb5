package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/academyhub/paycore/internal/config"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/resend/resend-go/v2"
)

const (
	maxSendElapsed = 15 * time.Second
)

// EmailSink delivers notifications through Resend
type EmailSink struct {
	client      *resend.Client
	fromAddress string
	replyTo     string
	logger      *logger.Logger
}

// NewSink returns an email sink when email is configured, otherwise a log only sink
func NewSink(cfg *config.Configuration, log *logger.Logger) Sink {
	if !cfg.Email.Enabled || cfg.Email.APIKey == "" {
		log.Infow("email notifications disabled, using log sink")
		return NewLogSink(log)
	}
	return NewEmailSink(resend.NewClient(cfg.Email.APIKey), cfg.Email.FromAddress, cfg.Email.ReplyTo, log)
}

func NewEmailSink(client *resend.Client, fromAddress, replyTo string, log *logger.Logger) *EmailSink {
	return &EmailSink{
		client:      client,
		fromAddress: fromAddress,
		replyTo:     replyTo,
		logger:      log,
	}
}

func (s *EmailSink) Send(ctx context.Context, n *Notification) error {
	if n.Recipient.Email == "" {
		return ierr.NewError("recipient has no email address").
			WithHint("Notification recipient could not be resolved").
			WithReportableDetails(map[string]any{"user_id": n.Recipient.UserID}).
			Mark(ierr.ErrValidation)
	}

	subject, text := render(n)
	params := &resend.SendEmailRequest{
		From:    s.fromAddress,
		To:      []string{n.Recipient.Email},
		Subject: subject,
		Text:    text,
		Tags:    []resend.Tag{{Name: "kind", Value: string(n.Kind)}},
	}
	if s.replyTo != "" {
		params.ReplyTo = s.replyTo
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxSendElapsed

	var messageID string
	err := backoff.Retry(func() error {
		sent, err := s.client.Emails.SendWithContext(ctx, params)
		if err != nil {
			return err
		}
		messageID = sent.Id
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		s.logger.Errorw("failed to send notification email",
			"error", err,
			"user_id", n.Recipient.UserID,
			"kind", n.Kind,
		)
		return ierr.WithError(err).
			WithHint("Failed to send notification email").
			Mark(ierr.ErrHTTPClient)
	}

	s.logger.Infow("notification email sent",
		"message_id", messageID,
		"user_id", n.Recipient.UserID,
		"kind", n.Kind,
	)
	return nil
}

func render(n *Notification) (string, string) {
	var subject string
	switch n.Kind {
	case types.NotificationPaymentSuccess:
		subject = "Your payment was successful"
	case types.NotificationPaymentFailed:
		subject = "Your payment could not be completed"
	case types.NotificationRenewalSuccess:
		subject = "Your subscription was renewed"
	case types.NotificationRenewalFailed:
		subject = "We could not renew your subscription"
	case types.NotificationRefund:
		subject = "Your payment was refunded"
	default:
		subject = "Payment update"
	}

	var b strings.Builder
	if n.Recipient.Name != "" {
		fmt.Fprintf(&b, "Hello %s,\n\n", n.Recipient.Name)
	}
	b.WriteString(subject)
	b.WriteString(".\n")
	for _, key := range []string{"amount", "currency", "payment_code", "reason"} {
		if v, ok := n.Payload[key]; ok && v != nil && fmt.Sprint(v) != "" {
			fmt.Fprintf(&b, "%s: %v\n", strings.ReplaceAll(key, "_", " "), v)
		}
	}
	if n.LinkPath != "" {
		fmt.Fprintf(&b, "\nDetails: %s\n", n.LinkPath)
	}
	return subject, b.String()
}
