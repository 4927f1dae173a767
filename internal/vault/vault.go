package vault

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Names used for the one-time capability probe of the secure backend.
const (
	probeService = "envgate-probe"
	probeAccount = "capability_check"
)

// Vault stores secrets in a secure backend, falling back to a shared
// in-process store when the secure backend is unavailable.
//
// Backend selection happens lazily on the first operation and is cached for
// the vault's lifetime; the secure backend is never re-probed per call.
type Vault struct {
	secure   Backend
	fallback Backend

	probeOnce sync.Once
	active    Backend
	degraded  atomic.Bool
}

// Option configures a Vault.
type Option func(*Vault)

// WithSecureBackend replaces the OS keyring backend. Test hook.
func WithSecureBackend(b Backend) Option {
	return func(v *Vault) {
		v.secure = b
	}
}

// WithFallback replaces the shared process-wide fallback store with a private
// one. Test hook.
func WithFallback(b Backend) Option {
	return func(v *Vault) {
		v.fallback = b
	}
}

// New creates a Vault backed by the OS keyring with the process-wide
// in-memory fallback. No I/O is performed until the first operation.
func New(opts ...Option) *Vault {
	v := &Vault{
		secure:   &KeyringBackend{},
		fallback: SharedFallback(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// backend resolves the active backend, probing the secure one exactly once.
// A failed probe permanently activates the fallback for this vault and logs a
// warning; the caller's operation proceeds against the fallback.
func (v *Vault) backend(ctx context.Context) Backend {
	v.probeOnce.Do(func() {
		if err := v.probe(ctx); err != nil {
			slog.WarnContext(ctx, "secure credential store unavailable, using in-memory fallback; credentials will not survive process exit",
				"error", err)
			v.active = v.fallback
			v.degraded.Store(true)
			return
		}
		v.active = v.secure
	})
	return v.active
}

// probe verifies the secure backend can round-trip a value.
func (v *Vault) probe(ctx context.Context) error {
	if err := v.secure.Set(ctx, probeService, probeAccount, "ok"); err != nil {
		return err
	}
	if err := v.secure.Delete(ctx, probeService, probeAccount); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// Store persists a secret keyed by (service, account).
func (v *Vault) Store(ctx context.Context, service, account, secret string) error {
	return v.backend(ctx).Set(ctx, service, account, secret)
}

// Retrieve returns the stored secret. Returns ErrNotFound if absent.
func (v *Vault) Retrieve(ctx context.Context, service, account string) (string, error) {
	return v.backend(ctx).Get(ctx, service, account)
}

// Delete removes the secret. Reports whether an entry existed.
func (v *Vault) Delete(ctx context.Context, service, account string) (bool, error) {
	err := v.backend(ctx).Delete(ctx, service, account)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UsingFallback reports whether the vault degraded to the in-memory store.
// False until the first operation triggers the capability probe.
func (v *Vault) UsingFallback() bool {
	return v.degraded.Load()
}
