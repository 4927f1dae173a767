// Package vault provides durable key-value secret storage for credentials.
//
// Two backends with different durability guarantees:
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential
//     Manager, Linux Secret Service)
//   - Memory: process-lifetime fallback, shared by every vault instance in the
//     process
//
// The keyring backend is probed once per vault lifetime on first use. If the
// probe fails (headless hosts, locked keyrings, unsupported platforms), the
// vault permanently switches to the shared in-memory fallback and surfaces a
// warning instead of an error: degraded durability, not a failed operation.
// Callers can detect the degraded mode via UsingFallback and warn that
// credentials will not survive process exit.
package vault
