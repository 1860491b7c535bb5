package notification

import (
	"context"

	"github.com/academyhub/paycore/internal/logger"
)

// LogSink writes notifications to the log, used when email delivery is off
type LogSink struct {
	logger *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{logger: log}
}

func (s *LogSink) Send(_ context.Context, n *Notification) error {
	s.logger.Infow("notification",
		"user_id", n.Recipient.UserID,
		"kind", n.Kind,
		"link", n.LinkPath,
		"important", n.Important,
		"context", n.Context,
	)
	return nil
}
