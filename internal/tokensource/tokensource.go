// Package tokensource adapts the auth manager to oauth2.TokenSource so API
// clients can attach bearer credentials with oauth2.Transport and have expired
// tokens refreshed transparently.
package tokensource

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/envgate/envgate/internal/auth"
)

// TokenSource yields the stored access token for the manager's active
// environment, refreshing through the manager when it is expired.
type TokenSource struct {
	manager *auth.Manager
}

// Compile-time check to ensure TokenSource implements oauth2.TokenSource
var _ oauth2.TokenSource = (*TokenSource)(nil)

// New creates a TokenSource over the given manager. No I/O is performed until
// the first Token call.
func New(manager *auth.Manager) *TokenSource {
	return &TokenSource{manager: manager}
}

// Token returns a valid access token, refreshing if necessary.
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	// oauth2.TokenSource.Token() has no context parameter (legacy interface
	// limitation); use background context like the transport it feeds.
	record, err := ts.manager.FreshToken(context.Background())
	if err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken: record.AccessToken,
		TokenType:   "Bearer",
		Expiry:      record.ExpiresAt,
	}, nil
}
