package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/envgate/envgate/internal/vault"
)

// accountTokenData is the constant vault account name; the service name
// carries the environment scope.
const accountTokenData = "token_data"

// Default timing. Poll interval is overridden by the server-provided interval
// when the device-code response carries one.
const (
	defaultPollInterval   = 5 * time.Second
	defaultPollCeiling    = 600 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 1 * time.Second

	// expirySafetyMargin treats tokens expiring within this window as already
	// expired so in-flight requests don't race the real expiry.
	expirySafetyMargin = 5 * time.Minute
)

// Authorization service endpoints, relative to the configured base URL.
// All request and response bodies are JSON-encoded.
const (
	deviceCodePath    = "/oauth/device/code"
	deviceTokenPath   = "/oauth/device/token"
	passwordGrantPath = "/oauth/token"
	refreshPath       = "/oauth/refresh"
)

// Device-token polling outcomes from the service.
const (
	pollErrorPending = "authorization_pending"
	pollErrorExpired = "expired_token"
	pollErrorDenied  = "access_denied"
)

// Manager drives grant flows, refresh and expiry for one environment at a
// time, persisting records through the credential vault.
type Manager struct {
	vault         *vault.Vault
	baseURL       string
	client        *http.Client
	servicePrefix string
	env           Environment

	pollInterval   time.Duration
	pollCeiling    time.Duration
	retryAttempts  int
	retryBaseDelay time.Duration

	// Injectable for tests; never nil after New.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient sets the HTTP client used for all authorization calls.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) {
		m.client = c
	}
}

// WithEnvironment sets the initial environment scope (default development).
func WithEnvironment(env Environment) Option {
	return func(m *Manager) {
		m.env = env
	}
}

// WithServicePrefix sets the vault service-key prefix (default "envgate").
func WithServicePrefix(prefix string) Option {
	return func(m *Manager) {
		m.servicePrefix = prefix
	}
}

// WithPollInterval overrides the default device-grant polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(m *Manager) {
		m.pollInterval = d
	}
}

// WithPollCeiling overrides the wall-clock ceiling on device-grant polling.
func WithPollCeiling(d time.Duration) Option {
	return func(m *Manager) {
		m.pollCeiling = d
	}
}

// New creates a Manager storing records in v and talking to the authorization
// service at baseURL.
func New(v *vault.Vault, baseURL string, opts ...Option) *Manager {
	m := &Manager{
		vault:          v,
		baseURL:        strings.TrimRight(baseURL, "/"),
		client:         &http.Client{Timeout: 30 * time.Second},
		servicePrefix:  "envgate",
		env:            EnvironmentDevelopment,
		pollInterval:   defaultPollInterval,
		pollCeiling:    defaultPollCeiling,
		retryAttempts:  defaultRetryAttempts,
		retryBaseDelay: defaultRetryBaseDelay,
		now:            time.Now,
		sleep:          sleepContext,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetEnvironment switches the environment scope for all subsequent operations.
func (m *Manager) SetEnvironment(env Environment) {
	m.env = env
}

// Environment returns the active environment scope.
func (m *Manager) Environment() Environment {
	return m.env
}

// serviceKey derives the vault service name for the active environment.
func (m *Manager) serviceKey() string {
	return fmt.Sprintf("%s-%s", m.servicePrefix, m.env)
}

// tokenResponse is the wire shape shared by the token, refresh and polling
// endpoints. Error fields are set instead of token fields on failure.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int    `json:"expires_in"`
	UserID           string `json:"user_id"`
	UserEmail        string `json:"user_email"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// message returns the most specific human-readable failure text available.
func (t *tokenResponse) message(fallback string) string {
	if t.ErrorDescription != "" {
		return t.ErrorDescription
	}
	if t.Error != "" {
		return t.Error
	}
	return fallback
}

// BeginDeviceGrant requests a device code for out-of-band approval.
//
// Fails with KindNetwork on connectivity failure, KindProtocol if the response
// body is not parseable, KindServer for a non-2xx status.
func (m *Manager) BeginDeviceGrant(ctx context.Context) (*DeviceGrantSession, error) {
	resp, body, err := m.postJSON(ctx, deviceCodePath, struct{}{})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindServer, Status: resp.StatusCode,
			Message: fmt.Sprintf("device code request failed with status %d", resp.StatusCode)}
	}

	var session DeviceGrantSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, &Error{Kind: KindProtocol, Message: "unparseable device code response", Err: err}
	}
	return &session, nil
}

// PollForToken polls the device-token endpoint until a terminal outcome or the
// wall-clock ceiling elapses. The wait between polls is cancellable through
// ctx without waiting for the next scheduled tick.
//
// Terminal outcomes: a token (stored and returned), KindExpiredGrant,
// KindAccessDenied, KindServer with the server-supplied description, or
// KindExpiredGrant("Authentication timed out") once the ceiling passes.
func (m *Manager) PollForToken(ctx context.Context, session *DeviceGrantSession) (*TokenRecord, error) {
	interval := m.pollInterval
	if session.Interval > 0 {
		interval = time.Duration(session.Interval) * time.Second
	}
	deadline := m.now().Add(m.pollCeiling)

	for {
		resp, body, err := m.postJSON(ctx, deviceTokenPath, map[string]string{
			"device_code": session.DeviceCode,
		})
		if err != nil {
			return nil, err
		}

		var tr tokenResponse
		if err := json.Unmarshal(body, &tr); err != nil {
			return nil, &Error{Kind: KindProtocol, Message: "unparseable token response", Err: err}
		}

		switch tr.Error {
		case "":
			if tr.AccessToken == "" {
				return nil, &Error{Kind: KindProtocol, Status: resp.StatusCode,
					Message: "token response missing access_token"}
			}
			return m.persistToken(ctx, &tr, "")
		case pollErrorPending:
			// fall through to the wait below
		case pollErrorExpired:
			return nil, &Error{Kind: KindExpiredGrant, Message: tr.message("device code expired")}
		case pollErrorDenied:
			return nil, &Error{Kind: KindAccessDenied, Message: tr.message("authorization denied")}
		default:
			return nil, &Error{Kind: KindServer, Status: resp.StatusCode,
				Message: tr.message(fmt.Sprintf("unexpected polling error %q", tr.Error))}
		}

		if !m.now().Before(deadline) {
			return nil, newError(KindExpiredGrant, "Authentication timed out")
		}
		if err := m.sleep(ctx, interval); err != nil {
			return nil, err
		}
	}
}

// AuthenticateWithPassword performs the password grant.
//
// Transient network-class failures are retried up to 3 total attempts with
// exponential backoff (1s, 2s). Non-network failures are classified
// immediately from the response and never retried: 400 with "invalid" in the
// message is KindInvalidCredentials, 429 is KindRateLimited, 5xx is
// KindServer, anything else KindUnknown. Exhausted retries yield KindNetwork.
func (m *Manager) AuthenticateWithPassword(ctx context.Context, email, password string) (*TokenRecord, error) {
	var lastErr error

	for attempt := 1; attempt <= m.retryAttempts; attempt++ {
		if attempt > 1 {
			// delay = 2^(attempt-2) x base: 1s before attempt 2, 2s before attempt 3
			delay := m.retryBaseDelay << (attempt - 2)
			if err := m.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		resp, body, err := m.postJSON(ctx, passwordGrantPath, map[string]string{
			"email":    email,
			"password": password,
		})
		if err != nil {
			lastErr = err
			continue
		}

		var tr tokenResponse
		if unmarshalErr := json.Unmarshal(body, &tr); unmarshalErr != nil && resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return nil, &Error{Kind: KindProtocol, Message: "unparseable token response", Err: unmarshalErr}
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			if tr.AccessToken == "" {
				return nil, &Error{Kind: KindProtocol, Status: resp.StatusCode,
					Message: "token response missing access_token"}
			}
			return m.persistToken(ctx, &tr, email)
		}

		return nil, classifyPasswordFailure(resp.StatusCode, tr.message(strings.TrimSpace(string(body))))
	}

	return nil, &Error{Kind: KindNetwork, Message: "authorization service unreachable", Err: lastErr}
}

// classifyPasswordFailure maps a non-2xx password-grant response onto the
// failure taxonomy. Never retried by the caller.
func classifyPasswordFailure(status int, msg string) *Error {
	switch {
	case status == http.StatusBadRequest && strings.Contains(strings.ToLower(msg), "invalid"):
		return &Error{Kind: KindInvalidCredentials, Status: status, Message: msg}
	case status == http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, Status: status, Message: msg}
	case status >= 500:
		return &Error{Kind: KindServer, Status: status, Message: msg}
	default:
		return &Error{Kind: KindUnknown, Status: status, Message: msg}
	}
}

// RefreshToken replaces the stored record using its refresh token.
//
// Returns (nil, nil) when no refresh token exists or the refresh call fails
// for any reason; callers must treat nil as "unavailable", never as fatal.
func (m *Manager) RefreshToken(ctx context.Context) (*TokenRecord, error) {
	current, err := m.Current(ctx)
	if err != nil || current == nil || current.RefreshToken == "" {
		return nil, nil
	}

	resp, body, err := m.postJSON(ctx, refreshPath, map[string]string{
		"refresh_token": current.RefreshToken,
	})
	if err != nil || resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil || tr.AccessToken == "" {
		return nil, nil
	}

	// Rotation is optional server-side: keep the previous refresh token and
	// identity when the response omits them.
	if tr.RefreshToken == "" {
		tr.RefreshToken = current.RefreshToken
	}
	if tr.UserID == "" {
		tr.UserID = current.UserID
	}
	if tr.UserEmail == "" {
		tr.UserEmail = current.UserEmail
	}

	record, err := m.persistToken(ctx, &tr, tr.UserEmail)
	if err != nil {
		return nil, nil
	}
	return record, nil
}

// IsTokenExpired reports whether no record exists or the stored record expires
// within the safety margin.
func (m *Manager) IsTokenExpired(ctx context.Context) bool {
	record, err := m.Current(ctx)
	if err != nil || record == nil {
		return true
	}
	return !record.ExpiresAt.After(m.now().Add(expirySafetyMargin))
}

// IsAuthenticated reports whether a usable session exists, refreshing an
// expired record when a refresh token is available. Never fails: internal
// errors are swallowed and reported as false.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	record, err := m.Current(ctx)
	if err != nil || record == nil {
		return false
	}
	if record.ExpiresAt.After(m.now().Add(expirySafetyMargin)) {
		return true
	}
	if record.RefreshToken == "" {
		return false
	}
	refreshed, err := m.RefreshToken(ctx)
	return err == nil && refreshed != nil
}

// Current returns the stored record for the active environment, or nil when
// none exists.
func (m *Manager) Current(ctx context.Context) (*TokenRecord, error) {
	raw, err := m.vault.Retrieve(ctx, m.serviceKey(), accountTokenData)
	if errors.Is(err, vault.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Kind: KindStorageUnavailable, Message: "reading stored credentials", Err: err}
	}

	var record TokenRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, &Error{Kind: KindProtocol, Message: "corrupt stored token record", Err: err}
	}
	return &record, nil
}

// FreshToken returns a non-expired record, refreshing if possible. Fails with
// KindExpiredGrant when no usable session remains.
func (m *Manager) FreshToken(ctx context.Context) (*TokenRecord, error) {
	record, err := m.Current(ctx)
	if err != nil {
		return nil, err
	}
	if record != nil && record.ExpiresAt.After(m.now().Add(expirySafetyMargin)) {
		return record, nil
	}

	if refreshed, err := m.RefreshToken(ctx); err == nil && refreshed != nil {
		return refreshed, nil
	}
	return nil, newError(KindExpiredGrant, "session expired, run login again")
}

// Logout deletes the active environment's record. Reports whether one existed.
func (m *Manager) Logout(ctx context.Context) (bool, error) {
	existed, err := m.vault.Delete(ctx, m.serviceKey(), accountTokenData)
	if err != nil {
		return false, &Error{Kind: KindStorageUnavailable, Message: "deleting stored credentials", Err: err}
	}
	return existed, nil
}

// persistToken builds a record from a successful token response and replaces
// the stored record for the active environment.
func (m *Manager) persistToken(ctx context.Context, tr *tokenResponse, email string) (*TokenRecord, error) {
	if tr.UserEmail == "" {
		tr.UserEmail = email
	}
	record := &TokenRecord{
		AccessToken:  tr.AccessToken,
		ExpiresAt:    m.now().Add(time.Duration(tr.ExpiresIn) * time.Second),
		Environment:  m.env,
		RefreshToken: tr.RefreshToken,
		UserID:       tr.UserID,
		UserEmail:    tr.UserEmail,
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return nil, &Error{Kind: KindProtocol, Message: "serializing token record", Err: err}
	}
	if err := m.vault.Store(ctx, m.serviceKey(), accountTokenData, string(raw)); err != nil {
		return nil, &Error{Kind: KindStorageUnavailable, Message: "persisting token record", Err: err}
	}
	return record, nil
}

// postJSON sends a JSON body and returns the response with its fully read
// body. Transport-level failures come back as KindNetwork.
func (m *Manager) postJSON(ctx context.Context, path string, payload any) (*http.Response, []byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, &Error{Kind: KindProtocol, Message: "encoding request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, nil, &Error{Kind: KindProtocol, Message: "building request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, nil, &Error{Kind: KindNetwork, Message: "authorization service unreachable", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &Error{Kind: KindNetwork, Message: "reading response", Err: err}
	}
	return resp, body, nil
}

// sleepContext waits for d or until ctx is cancelled, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
