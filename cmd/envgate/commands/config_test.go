package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/envgate/envgate/internal/app"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("", nil, func() []string { return nil })
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != app.DefaultConfigAPIBaseURL {
		t.Errorf("base URL = %q", cfg.API.BaseURL)
	}
	if cfg.Environment != app.DefaultConfigEnvironment {
		t.Errorf("environment = %q", cfg.Environment)
	}
	if cfg.EnvFile != app.DefaultConfigEnvFile {
		t.Errorf("env file = %q", cfg.EnvFile)
	}
	if cfg.Vault.ServicePrefix != app.DefaultConfigVaultService {
		t.Errorf("service prefix = %q", cfg.Vault.ServicePrefix)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "envgate.toml")
	content := "environment = \"staging\"\nproject = \"from-file\"\n\n[api]\nbase_url = \"https://file.test/v1\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	environ := func() []string {
		return []string{
			"ENVGATE_API__BASE_URL=https://env.test/v1",
			"ENVGATE_ENVIRONMENT=production",
		}
	}

	cfg, err := loadConfig(configPath, nil, environ)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "https://env.test/v1" {
		t.Errorf("base URL = %q, env should override file", cfg.API.BaseURL)
	}
	if cfg.Environment != "production" {
		t.Errorf("environment = %q, env should override file", cfg.Environment)
	}
	if cfg.Project != "from-file" {
		t.Errorf("project = %q, file value should survive", cfg.Project)
	}
}

func TestLoadConfigRejectsInvalidEnvironment(t *testing.T) {
	environ := func() []string {
		return []string{"ENVGATE_ENVIRONMENT=qa"}
	}
	if _, err := loadConfig("", nil, environ); err == nil {
		t.Fatal("expected validation error for unknown environment")
	}
}
