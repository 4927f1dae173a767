package auth

import (
	"fmt"
	"time"
)

// Environment scopes every token operation. Tokens for different environments
// never share a vault entry.
type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentStaging     Environment = "staging"
	EnvironmentProduction  Environment = "production"
)

// ParseEnvironment validates and returns the environment named by s.
func ParseEnvironment(s string) (Environment, error) {
	switch Environment(s) {
	case EnvironmentDevelopment, EnvironmentStaging, EnvironmentProduction:
		return Environment(s), nil
	default:
		return "", fmt.Errorf("unknown environment %q (expected development, staging or production)", s)
	}
}

// TokenRecord is the persisted credential for one environment. At most one
// record exists per environment; AccessToken is non-empty whenever a record
// exists.
type TokenRecord struct {
	AccessToken  string      `json:"access_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
	Environment  Environment `json:"environment"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	UserID       string      `json:"user_id,omitempty"`
	UserEmail    string      `json:"user_email,omitempty"`
}

// DeviceGrantSession holds the parameters of one device-code login attempt.
// Ephemeral: created at login start, never persisted, discarded at any
// terminal outcome.
type DeviceGrantSession struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete"`
	ExpiresIn               int    `json:"expires_in"`
	Interval                int    `json:"interval"`
}
