// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, defaults and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:9090"
  allowed_origins:
    - "http://localhost:5173"
    - "https://desk.example.com"

database:
  path: "./test.db"

anthropic:
  api_key: "sk-test-key"
  model: "claude-sonnet-4-20250514"
  max_tokens: 2048
  max_iterations: 5
  system_prompt: "You are the desk assistant."

uploads:
  dir: "./uploads"
  max_size: 1048576

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:9090" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:9090")
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Errorf("Server.AllowedOrigins len = %d, want 2", len(cfg.Server.AllowedOrigins))
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.Anthropic.APIKey != "sk-test-key" {
		t.Errorf("Anthropic.APIKey = %q, want %q", cfg.Anthropic.APIKey, "sk-test-key")
	}
	if cfg.Anthropic.MaxTokens != 2048 {
		t.Errorf("Anthropic.MaxTokens = %d, want 2048", cfg.Anthropic.MaxTokens)
	}
	if cfg.Anthropic.MaxIterations != 5 {
		t.Errorf("Anthropic.MaxIterations = %d, want 5", cfg.Anthropic.MaxIterations)
	}
	if cfg.Anthropic.SystemPrompt != "You are the desk assistant." {
		t.Errorf("Anthropic.SystemPrompt = %q", cfg.Anthropic.SystemPrompt)
	}
	if cfg.Uploads.Dir != "./uploads" {
		t.Errorf("Uploads.Dir = %q, want %q", cfg.Uploads.Dir, "./uploads")
	}
	if cfg.Uploads.MaxSize != 1048576 {
		t.Errorf("Uploads.MaxSize = %d, want 1048576", cfg.Uploads.MaxSize)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	configPath := writeConfig(t, `
anthropic:
  api_key: "sk-test-key"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != DefaultHTTPAddr {
		t.Errorf("Server.HTTPAddr = %q, want default %q", cfg.Server.HTTPAddr, DefaultHTTPAddr)
	}
	if cfg.Database.Path != DefaultDatabasePath {
		t.Errorf("Database.Path = %q, want default %q", cfg.Database.Path, DefaultDatabasePath)
	}
	if cfg.Anthropic.Model != DefaultModel {
		t.Errorf("Anthropic.Model = %q, want default %q", cfg.Anthropic.Model, DefaultModel)
	}
	if cfg.Anthropic.MaxTokens != DefaultMaxTokens {
		t.Errorf("Anthropic.MaxTokens = %d, want default %d", cfg.Anthropic.MaxTokens, DefaultMaxTokens)
	}
	if cfg.Anthropic.MaxIterations != DefaultMaxIterations {
		t.Errorf("Anthropic.MaxIterations = %d, want default %d", cfg.Anthropic.MaxIterations, DefaultMaxIterations)
	}
	if cfg.Uploads.Dir != DefaultUploadDir {
		t.Errorf("Uploads.Dir = %q, want default %q", cfg.Uploads.Dir, DefaultUploadDir)
	}
	if cfg.Uploads.MaxSize != DefaultUploadMaxSize {
		t.Errorf("Uploads.MaxSize = %d, want default %d", cfg.Uploads.MaxSize, DefaultUploadMaxSize)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_ANTHROPIC_KEY", "sk-from-env")

	configPath := writeConfig(t, `
anthropic:
  api_key: "${TEST_ANTHROPIC_KEY}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Anthropic.APIKey != "sk-from-env" {
		t.Errorf("Anthropic.APIKey = %q, want %q", cfg.Anthropic.APIKey, "sk-from-env")
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	os.Unsetenv("UNSET_VAR_FOR_TEST")

	configPath := writeConfig(t, `
anthropic:
  api_key: "${UNSET_VAR_FOR_TEST}"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for missing api_key, got nil")
	}
	if !strings.Contains(err.Error(), "anthropic.api_key is required") {
		t.Errorf("Load() error = %q, want api_key requirement", err.Error())
	}
}

func TestLoad_InvalidLoggingFormat(t *testing.T) {
	configPath := writeConfig(t, `
anthropic:
  api_key: "sk-test-key"
logging:
  format: "xml"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for bad logging format, got nil")
	}
	if !strings.Contains(err.Error(), "logging.format") {
		t.Errorf("Load() error = %q, want logging.format complaint", err.Error())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr "missing colon"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FOO", "bar")
	t.Setenv("BAZ", "qux")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single env var",
			input:    "${FOO}",
			expected: "bar",
		},
		{
			name:     "env var with surrounding text",
			input:    "prefix-${FOO}-suffix",
			expected: "prefix-bar-suffix",
		},
		{
			name:     "multiple env vars",
			input:    "${FOO}/${BAZ}",
			expected: "bar/qux",
		},
		{
			name:     "no env vars",
			input:    "no-vars-here",
			expected: "no-vars-here",
		},
		{
			name:     "unset env var",
			input:    "${UNSET_VAR}",
			expected: "",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandEnvVars(tt.input)
			if result != tt.expected {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
