package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoadValidConfig(t *testing.T) {
	_ = os.Setenv("PORT", "8002")
	_ = os.Setenv("ADDRESS", "127.0.0.1")
	_ = os.Setenv("ENV", "dev")
	_ = os.Setenv("LOG_LEVEL", "info")
	_ = os.Setenv("API_URL", "http://10.0.0.5:8002")
	_ = os.Setenv("PAGE_SIZE", "50")
	_ = os.Setenv("SEARCH_DEBOUNCE_MS", "150")
	defer cleanupEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8002" {
		t.Errorf("Expected port 8002, got %s", cfg.Port)
	}
	if cfg.Address != "127.0.0.1" {
		t.Errorf("Expected address 127.0.0.1, got %s", cfg.Address)
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Expected env dev, got %s", cfg.Env)
	}
	if cfg.APIURL != "http://10.0.0.5:8002" {
		t.Errorf("Expected API_URL to be read, got %s", cfg.APIURL)
	}
	if cfg.PageSize != 50 {
		t.Errorf("Expected page size 50, got %d", cfg.PageSize)
	}
	if cfg.SearchDebounce != 150*time.Millisecond {
		t.Errorf("Expected debounce 150ms, got %v", cfg.SearchDebounce)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Env != EnvDevelopment || !cfg.IsDevelopment() {
		t.Errorf("Expected default env dev, got %s", cfg.Env)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.LogLevel)
	}
	if cfg.CatalogSource != "data/medicines.csv" {
		t.Errorf("Expected default catalog source, got %s", cfg.CatalogSource)
	}
	if cfg.ReloadAt != "06:00;18:00" {
		t.Errorf("Expected default reload times, got %s", cfg.ReloadAt)
	}
	if cfg.PageSize != 20 {
		t.Errorf("Expected default page size 20, got %d", cfg.PageSize)
	}
	if cfg.SearchDebounce != 300*time.Millisecond {
		t.Errorf("Expected default debounce 300ms, got %v", cfg.SearchDebounce)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Errorf("Expected default request timeout 15s, got %v", cfg.RequestTimeout)
	}
}

func TestInvalidValues(t *testing.T) {
	testCases := []struct {
		key      string
		value    string
		expected string
	}{
		{"PORT", "abc", "PORT must be a valid number"},
		{"PORT", "0", "PORT must be between 1 and 65535"},
		{"PORT", "65536", "PORT must be between 1 and 65535"},
		{"PORT", "80", "PORT 80 is privileged"},
		{"ADDRESS", "invalid", "ADDRESS must be a valid IP address"},
		{"ADDRESS", "8.8.8.8", "is a public IP"},
		{"ENV", "invalid", "ENV must be one of"},
		{"LOG_LEVEL", "invalid", "LOG_LEVEL must be one of"},
		{"MAX_REQUEST_BODY", "-1", "MAX_REQUEST_BODY must be positive"},
		{"LOG_RETENTION_WEEKS", "60", "LOG_RETENTION_WEEKS is too large"},
		{"MAX_LOG_FILE_SIZE", "1024", "MAX_LOG_FILE_SIZE is too small"},
		{"RELOAD_AT", "6am", "invalid RELOAD_AT"},
		{"RELOAD_AT", "06:00;25:00", "invalid RELOAD_AT"},
		{"API_URL", "ftp://example.org", "API_URL must use http or https"},
		{"API_URL", "http://", "API_URL must include a host"},
		{"PAGE_SIZE", "0", "invalid PAGE_SIZE"},
		{"PAGE_SIZE", "101", "invalid PAGE_SIZE"},
		{"SEARCH_DEBOUNCE_MS", "9000", "invalid SEARCH_DEBOUNCE_MS"},
		{"REQUEST_TIMEOUT_SECONDS", "-3", "invalid REQUEST_TIMEOUT_SECONDS"},
		{"GEMINI_MODEL", "   ", "invalid GEMINI_MODEL"},
		{"MAX_IMAGE_SIZE", "0", "MAX_IMAGE_SIZE must be positive"},
		{"ASSISTANT_TIMEOUT_SECONDS", "600", "invalid ASSISTANT_TIMEOUT_SECONDS"},
	}

	for _, tc := range testCases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			cleanupEnv()
			defer cleanupEnv()
			_ = os.Setenv(tc.key, tc.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("Expected error for %s=%s, got nil", tc.key, tc.value)
			}
			if !strings.Contains(err.Error(), tc.expected) {
				t.Errorf("Expected error containing %q, got %q", tc.expected, err.Error())
			}
		})
	}
}

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		input    string
		expected Environment
		hasError bool
	}{
		{"dev", EnvDevelopment, false},
		{"development", EnvDevelopment, false},
		{"staging", EnvStaging, false},
		{"prod", EnvProduction, false},
		{"production", EnvProduction, false},
		{"TEST", EnvTest, false},
		{"invalid", EnvDevelopment, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			env, err := ParseEnvironment(tt.input)
			if tt.hasError {
				if err == nil {
					t.Errorf("Expected error for %s, got none", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error for %s: %v", tt.input, err)
			}
			if env != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, env)
			}
		})
	}
}

func TestEnvironmentString(t *testing.T) {
	tests := []struct {
		env      Environment
		expected string
	}{
		{EnvDevelopment, "dev"},
		{EnvStaging, "staging"},
		{EnvProduction, "prod"},
		{EnvTest, "test"},
	}

	for _, tt := range tests {
		if got := tt.env.String(); got != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, got)
		}
	}
}

func TestGetEnvVarsListsEveryKnob(t *testing.T) {
	vars := GetEnvVars()
	for _, want := range []string{"PORT", "CATALOG_SOURCE", "API_URL", "SEARCH_DEBOUNCE_MS", "EXPORT_DIR"} {
		found := false
		for _, v := range vars {
			if v == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected %s in GetEnvVars()", want)
		}
	}
}

func cleanupEnv() {
	for _, key := range GetEnvVars() {
		_ = os.Unsetenv(key)
	}
}

func TestLoadRequireProxy(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.RequireProxy {
		t.Error("Expected REQUIRE_PROXY to default to false")
	}

	_ = os.Setenv("REQUIRE_PROXY", "true")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !cfg.RequireProxy {
		t.Error("Expected REQUIRE_PROXY=true to be read")
	}
}

func TestLoadAssistant(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.AssistantEnabled() {
		t.Error("Expected the assistant to be off without GOOGLE_API_KEY")
	}
	if cfg.GeminiModel != "gemini-2.5-flash" || cfg.MaxImageSize != 10485760 || cfg.AssistantTimeout != 45*time.Second {
		t.Errorf("Unexpected assistant defaults: %q %d %v", cfg.GeminiModel, cfg.MaxImageSize, cfg.AssistantTimeout)
	}

	_ = os.Setenv("GOOGLE_API_KEY", "test-key")
	_ = os.Setenv("GEMINI_MODEL", "gemini-2.5-pro")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !cfg.AssistantEnabled() || cfg.GeminiModel != "gemini-2.5-pro" {
		t.Errorf("Expected the assistant on with gemini-2.5-pro, got %v %q", cfg.AssistantEnabled(), cfg.GeminiModel)
	}
}
