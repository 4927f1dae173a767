package vault

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Retrieve when no secret exists for the
// (service, account) pair.
var ErrNotFound = errors.New("secret not found")

// ErrStoreInaccessible is the user-facing translation of secure-backend
// failures. Callers match it with errors.Is.
var ErrStoreInaccessible = errors.New("credential store inaccessible")

// Backend persists secrets keyed by (service, account).
type Backend interface {
	// Set stores a secret, overwriting any existing value.
	Set(ctx context.Context, service, account, secret string) error

	// Get returns the stored secret. Returns ErrNotFound if absent.
	Get(ctx context.Context, service, account string) (string, error)

	// Delete removes the secret. Returns ErrNotFound if absent.
	Delete(ctx context.Context, service, account string) error
}
