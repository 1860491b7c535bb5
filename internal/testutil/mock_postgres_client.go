package testutil

import (
	"context"
	"sync"

	"github.com/academyhub/paycore/internal/logger"
	"github.com/academyhub/paycore/internal/postgres"
)

var _ postgres.IClient = (*MockPostgresClient)(nil) // Ensure MockPostgresClient implements IClient

type mockTxKey struct{}

// Snapshotter is a store whose state can be rolled back
type Snapshotter interface {
	Snapshot() func()
}

// MockPostgresClient is a mock implementation of postgres client for testing.
// Top level transactions are serialized so row locks behave like one writer at a time,
// and a failed transaction restores every tracked store.
type MockPostgresClient struct {
	mu     sync.Mutex
	logger *logger.Logger
	stores []Snapshotter

	// Commits counts finished top level transactions
	Commits int
	// Rollbacks counts top level transactions whose function failed
	Rollbacks int
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger) *MockPostgresClient {
	return &MockPostgresClient{
		logger: logger,
	}
}

// Track registers stores that are restored when a transaction rolls back
func (c *MockPostgresClient) Track(stores ...Snapshotter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stores = append(c.stores, stores...)
}

// WithTx executes the given function within a transaction
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	// If we're already in a transaction, reuse it
	if _, ok := ctx.Value(mockTxKey{}).(bool); ok {
		return fn(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	restores := make([]func(), 0, len(c.stores))
	for _, store := range c.stores {
		restores = append(restores, store.Snapshot())
	}

	if err := fn(context.WithValue(ctx, mockTxKey{}, true)); err != nil {
		for _, restore := range restores {
			restore()
		}
		c.Rollbacks++
		c.logger.Debugw("rolled back mock transaction", "error", err)
		return err
	}
	c.Commits++
	return nil
}
