package testutil

import (
	"context"
	"sync"

	"github.com/academyhub/paycore/internal/s3"
)

var _ s3.BlobStore = (*MockBlobStore)(nil)

// MockBlobStore keeps uploaded objects in memory
type MockBlobStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	Puts    int
}

func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{objects: make(map[string][]byte)}
}

func (m *MockBlobStore) Put(ctx context.Context, path string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = data
	m.Puts++
	return nil
}

func (m *MockBlobStore) URL(ctx context.Context, path string) (string, error) {
	return "https://blobs.test/" + path, nil
}

func (m *MockBlobStore) Exists(ctx context.Context, path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[path]
	return ok, nil
}

// Object returns the stored bytes of path
func (m *MockBlobStore) Object(path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[path]
	return data, ok
}
