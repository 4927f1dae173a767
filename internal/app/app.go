// Package app wires configuration into the vault, the token lifecycle manager
// and the API client.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/envgate/envgate/internal/api"
	"github.com/envgate/envgate/internal/auth"
	"github.com/envgate/envgate/internal/tokensource"
	"github.com/envgate/envgate/internal/vault"
)

// App holds the assembled components for one CLI invocation.
type App struct {
	cfg *Config

	Vault *vault.Vault
	Auth  *auth.Manager
	API   *api.Client
}

// New creates an App instance. No credential or network I/O is performed;
// the vault probes its backend on first use.
func New(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	environment, err := auth.ParseEnvironment(cfg.Environment)
	if err != nil {
		return nil, err
	}

	credentialVault := vault.New()
	manager := auth.New(credentialVault, cfg.API.BaseURL,
		auth.WithEnvironment(environment),
		auth.WithServicePrefix(cfg.Vault.ServicePrefix),
	)
	client := api.New(cfg.API.BaseURL, tokensource.New(manager))

	return &App{
		cfg:   cfg,
		Vault: credentialVault,
		Auth:  manager,
		API:   client,
	}, nil
}

// Config returns the configuration the app was built from.
func (a *App) Config() *Config {
	return a.cfg
}

// WarnIfDegraded logs the degraded-durability warning when the vault fell
// back to in-memory storage. Call after any operation that touched the vault.
func (a *App) WarnIfDegraded(ctx context.Context) {
	if a.Vault.UsingFallback() {
		slog.WarnContext(ctx, "credentials stored in memory only; they will be lost when this process exits")
	}
}
