package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringBackend stores secrets in the OS-native credential store.
// Uses macOS Keychain, Windows Credential Manager, or Linux Secret Service.
type KeyringBackend struct{}

// Compile-time check to ensure KeyringBackend implements Backend
var _ Backend = (*KeyringBackend)(nil)

// Set persists the secret to the system keyring, overwriting any existing value.
func (k *KeyringBackend) Set(ctx context.Context, service, account, secret string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return translateKeyringError(keyring.Set(service, account, secret))
}

// Get returns the secret from the system keyring. Returns ErrNotFound if absent.
func (k *KeyringBackend) Get(ctx context.Context, service, account string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	secret, err := keyring.Get(service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", translateKeyringError(err)
	}

	return secret, nil
}

// Delete removes the secret from the system keyring. Returns ErrNotFound if absent.
func (k *KeyringBackend) Delete(ctx context.Context, service, account string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := keyring.Delete(service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return translateKeyringError(err)
}

// secureStoreMarkers identify error messages originating in the OS credential
// store itself rather than in our usage of it.
var secureStoreMarkers = []string{"keyring", "keychain", "secret service", "wincred", "dbus"}

// translateKeyringError rewrites backend errors that name the secure store
// into the user-facing ErrStoreInaccessible. All other errors pass unchanged.
func translateKeyringError(err error) error {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range secureStoreMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %w", ErrStoreInaccessible, err)
		}
	}
	return err
}
