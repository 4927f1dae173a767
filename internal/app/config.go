package app

import (
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// TelemetryExporter selects where structured logs are exported.
type TelemetryExporter string

const (
	TelemetryExporterNone   TelemetryExporter = "none"
	TelemetryExporterStdout TelemetryExporter = "stdout"
	TelemetryExporterOTLP   TelemetryExporter = "otlp"
)

// Default configuration values
const (
	DefaultConfigLogFormat         = LogFormatText
	DefaultConfigAPIBaseURL        = "https://api.envgate.dev/v1"
	DefaultConfigEnvironment       = "development"
	DefaultConfigEnvFile           = ".env"
	DefaultConfigVaultService      = "envgate"
	DefaultConfigTelemetryExporter = TelemetryExporterNone
	DefaultConfigTelemetryProtocol = "http"
)

// APIConfig holds the authorization/resource service endpoint.
type APIConfig struct {
	BaseURL string `json:"base_url" validate:"required,url"`
}

// VaultConfig holds credential storage settings.
type VaultConfig struct {
	// ServicePrefix prefixes the environment-scoped keyring service name.
	ServicePrefix string `json:"service_prefix" validate:"required"`
}

// TelemetryConfig holds log export settings.
type TelemetryConfig struct {
	Exporter TelemetryExporter `json:"exporter" validate:"oneof=none stdout otlp"`
	Protocol string            `json:"protocol" validate:"omitempty,oneof=http grpc"`
	Endpoint string            `json:"endpoint,omitempty"`
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel    slog.Level      `json:"log_level"`
	LogFormat   LogFormat       `json:"log_format" validate:"oneof=text json"`
	Telemetry   TelemetryConfig `json:"telemetry"`
	API         APIConfig       `json:"api"`
	Project     string          `json:"project"`
	Environment string          `json:"environment" validate:"required,oneof=development staging production"`
	EnvFile     string          `json:"env_file" validate:"required"`
	Vault       VaultConfig     `json:"vault"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultConfigAPIBaseURL
	}
	if c.Environment == "" {
		c.Environment = DefaultConfigEnvironment
	}
	if c.EnvFile == "" {
		c.EnvFile = DefaultConfigEnvFile
	}
	if c.Vault.ServicePrefix == "" {
		c.Vault.ServicePrefix = DefaultConfigVaultService
	}
	if c.Telemetry.Exporter == "" {
		c.Telemetry.Exporter = DefaultConfigTelemetryExporter
	}
	if c.Telemetry.Protocol == "" {
		c.Telemetry.Protocol = DefaultConfigTelemetryProtocol
	}
	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Telemetry.Exporter == TelemetryExporterOTLP && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint required for the otlp exporter")
	}

	return nil
}
