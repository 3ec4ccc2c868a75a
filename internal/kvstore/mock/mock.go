package mock

import (
	"context"
	"sync"
)

// MockBackend is an in-memory key-value backend for testing.
type MockBackend struct {
	mu sync.RWMutex

	data   map[string]string
	writes map[string]int
	closed bool

	// Error simulation
	GetError    error
	SetError    error
	DeleteError error
	CloseError  error
}

// NewMockBackend creates a new MockBackend instance.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		data:   make(map[string]string),
		writes: make(map[string]int),
	}
}

// Reset clears all data and errors from the mock backend.
func (m *MockBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string]string)
	m.writes = make(map[string]int)
	m.closed = false

	m.GetError = nil
	m.SetError = nil
	m.DeleteError = nil
	m.CloseError = nil
}

func (m *MockBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetError != nil {
		return "", false, m.GetError
	}
	value, ok := m.data[key]
	return value, ok, nil
}

func (m *MockBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SetError != nil {
		return m.SetError
	}
	m.data[key] = value
	m.writes[key]++
	return nil
}

func (m *MockBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeleteError != nil {
		return m.DeleteError
	}
	delete(m.data, key)
	m.writes[key]++
	return nil
}

func (m *MockBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return m.CloseError
}

// Put stores a raw value without counting it as a write.
func (m *MockBackend) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
}

// Raw returns the raw stored value.
func (m *MockBackend) Raw(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.data[key]
	return value, ok
}

// Writes returns how often key was set or deleted.
func (m *MockBackend) Writes(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.writes[key]
}

// Closed reports whether Close was called.
func (m *MockBackend) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.closed
}
