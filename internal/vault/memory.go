package vault

import (
	"context"
	"sync"
)

// MemoryBackend is a concurrency-safe in-process secret store. It backs the
// process-wide fallback but can also be constructed directly in tests.
type MemoryBackend struct {
	mu      sync.RWMutex
	secrets map[memoryKey]string
}

type memoryKey struct {
	service string
	account string
}

// Compile-time check to ensure MemoryBackend implements Backend
var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates an empty in-process store.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		secrets: make(map[memoryKey]string),
	}
}

// Set stores a secret, overwriting any existing value.
func (m *MemoryBackend) Set(ctx context.Context, service, account, secret string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[memoryKey{service, account}] = secret
	return nil
}

// Get returns the stored secret. Returns ErrNotFound if absent.
func (m *MemoryBackend) Get(ctx context.Context, service, account string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	secret, ok := m.secrets[memoryKey{service, account}]
	if !ok {
		return "", ErrNotFound
	}
	return secret, nil
}

// Delete removes the secret. Returns ErrNotFound if absent.
func (m *MemoryBackend) Delete(ctx context.Context, service, account string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := memoryKey{service, account}
	if _, ok := m.secrets[key]; !ok {
		return ErrNotFound
	}
	delete(m.secrets, key)
	return nil
}

// sharedFallback is the process-wide fallback store. Every vault that falls
// back must observe the same data, so independently constructed vaults share
// this instance rather than holding per-instance state.
var (
	sharedFallbackMu sync.Mutex
	sharedFallback   *MemoryBackend
)

// SharedFallback returns the process-wide fallback store, creating it on first
// use.
func SharedFallback() *MemoryBackend {
	sharedFallbackMu.Lock()
	defer sharedFallbackMu.Unlock()
	if sharedFallback == nil {
		sharedFallback = NewMemoryBackend()
	}
	return sharedFallback
}

// ResetSharedFallback discards the process-wide fallback store. Test hook;
// vaults constructed before the reset keep their reference.
func ResetSharedFallback() {
	sharedFallbackMu.Lock()
	defer sharedFallbackMu.Unlock()
	sharedFallback = nil
}
