// Package config has the configuration for the catalog server and the inventory viewer
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Environment is the deployment environment the app runs in
type Environment string

const (
	EnvDevelopment Environment = "dev"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
)

func (e Environment) String() string {
	return string(e)
}

// ParseEnvironment maps an ENV value, including the long aliases, to an Environment
func ParseEnvironment(value string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "staging":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	case "test":
		return EnvTest, nil
	}
	return EnvDevelopment, fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", value)
}

// Config holds all application configuration
type Config struct {
	// Catalog server
	Port           string
	Address        string
	Env            Environment
	MaxRequestBody int64 // Maximum request body size in bytes
	MaxHeaderSize  int64 // Maximum header size in bytes
	CatalogSource  string
	ReloadAt       string // gocron At() expression, e.g. "06:00;18:00"
	RequireProxy   bool   // reject non-loopback clients that bypass the reverse proxy

	// Logging
	LogLevel          string
	LogDir            string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes

	// Inventory viewer
	APIURL         string
	PageSize       int
	SearchDebounce time.Duration
	ExportDir      string
	RequestTimeout time.Duration

	// Assistant, enabled when GoogleAPIKey is set
	GoogleAPIKey     string
	GeminiModel      string
	MaxImageSize     int64 // Maximum prescription image upload in bytes
	AssistantTimeout time.Duration
}

var reloadAtRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(;([01]\d|2[0-3]):[0-5]\d)*$`)

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnvWithDefault("PORT", "8000"),
		Address:        getEnvWithDefault("ADDRESS", "127.0.0.1"),
		MaxRequestBody: getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576), // 1MB default
		MaxHeaderSize:  getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),  // 1MB default
		CatalogSource:  getEnvWithDefault("CATALOG_SOURCE", "data/medicines.csv"),
		ReloadAt:       getEnvWithDefault("RELOAD_AT", "06:00;18:00"),
		RequireProxy:   getBoolEnvWithDefault("REQUIRE_PROXY", false),

		LogLevel:          strings.ToLower(getEnvWithDefault("LOG_LEVEL", "info")),
		LogDir:            getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default

		APIURL:         getEnvWithDefault("API_URL", "http://127.0.0.1:8000"),
		PageSize:       getIntEnvWithDefault("PAGE_SIZE", 20),
		SearchDebounce: time.Duration(getIntEnvWithDefault("SEARCH_DEBOUNCE_MS", 300)) * time.Millisecond,
		ExportDir:      getEnvWithDefault("EXPORT_DIR", "."),
		RequestTimeout: time.Duration(getIntEnvWithDefault("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,

		GoogleAPIKey:     os.Getenv("GOOGLE_API_KEY"),
		GeminiModel:      getEnvWithDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		MaxImageSize:     getInt64EnvWithDefault("MAX_IMAGE_SIZE", 10485760), // 10MB default
		AssistantTimeout: time.Duration(getIntEnvWithDefault("ASSISTANT_TIMEOUT_SECONDS", 45)) * time.Second,
	}

	env, err := ParseEnvironment(getEnvWithDefault("ENV", EnvDevelopment.String()))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid ENV: %w", err)
	}
	cfg.Env = env

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// AssistantEnabled reports whether the chat and prescription endpoints are served
func (c *Config) AssistantEnabled() bool {
	return c.GoogleAPIKey != ""
}

// IsDevelopment reports whether the app runs in the dev environment
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if cfg.CatalogSource == "" {
		return fmt.Errorf("invalid CATALOG_SOURCE: cannot be empty")
	}

	if !reloadAtRegex.MatchString(cfg.ReloadAt) {
		return fmt.Errorf("invalid RELOAD_AT: expected HH:MM[;HH:MM...], got: %s", cfg.ReloadAt)
	}

	if err := validateAPIURL(cfg.APIURL); err != nil {
		return fmt.Errorf("invalid API_URL: %w", err)
	}

	if cfg.PageSize < 1 || cfg.PageSize > 100 {
		return fmt.Errorf("invalid PAGE_SIZE: must be between 1 and 100, got: %d", cfg.PageSize)
	}

	if cfg.SearchDebounce < 0 || cfg.SearchDebounce > 5*time.Second {
		return fmt.Errorf("invalid SEARCH_DEBOUNCE_MS: must be between 0 and 5000, got: %d", cfg.SearchDebounce.Milliseconds())
	}

	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("invalid REQUEST_TIMEOUT_SECONDS: must be positive")
	}

	if strings.TrimSpace(cfg.GeminiModel) == "" {
		return fmt.Errorf("invalid GEMINI_MODEL: cannot be empty")
	}

	if err := validateSizeLimit(cfg.MaxImageSize, "MAX_IMAGE_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_IMAGE_SIZE: %w", err)
	}

	if cfg.AssistantTimeout <= 0 || cfg.AssistantTimeout > 5*time.Minute {
		return fmt.Errorf("invalid ASSISTANT_TIMEOUT_SECONDS: must be between 1 and 300, got: %d", int(cfg.AssistantTimeout.Seconds()))
	}

	return nil
}

func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "127.0.0.1" || address == "::1" || address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	if !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 {
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

func validateMaxLogFileSize(size int64) error {
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

func validateAPIURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("API_URL must be a valid URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API_URL must use http or https, got: %q", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("API_URL must include a host")
	}

	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnvWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"CATALOG_SOURCE",
		"RELOAD_AT",
		"REQUIRE_PROXY",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"API_URL",
		"PAGE_SIZE",
		"SEARCH_DEBOUNCE_MS",
		"EXPORT_DIR",
		"REQUEST_TIMEOUT_SECONDS",
		"GOOGLE_API_KEY",
		"GEMINI_MODEL",
		"MAX_IMAGE_SIZE",
		"ASSISTANT_TIMEOUT_SECONDS",
	}
}
