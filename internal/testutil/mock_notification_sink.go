package testutil

import (
	"context"
	"sync"

	"github.com/academyhub/paycore/internal/notification"
	"github.com/academyhub/paycore/internal/types"
	"github.com/samber/lo"
)

var _ notification.Sink = (*MockNotificationSink)(nil)

// MockNotificationSink records every notification it receives
type MockNotificationSink struct {
	mu   sync.Mutex
	sent []*notification.Notification
	// Err is returned by Send after recording, to simulate delivery failures
	Err error
}

func NewMockNotificationSink() *MockNotificationSink {
	return &MockNotificationSink{}
}

func (m *MockNotificationSink) Send(ctx context.Context, n *notification.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
	return m.Err
}

// Sent returns the notifications received so far
func (m *MockNotificationSink) Sent() []*notification.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*notification.Notification(nil), m.sent...)
}

// SentOfKind returns the notifications of one kind
func (m *MockNotificationSink) SentOfKind(kind types.NotificationKind) []*notification.Notification {
	return lo.Filter(m.Sent(), func(n *notification.Notification, _ int) bool {
		return n.Kind == kind
	})
}

func (m *MockNotificationSink) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
	m.Err = nil
}
