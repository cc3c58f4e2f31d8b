// Package config provides environment-driven configuration for the
// negotiation engine.
package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	DatabaseURL        Secret
	Port               string
	ListenHost         string
	CORSOrigins        []string
	ComparatorURL      string
	AnalyzerURL        string
	VersionsURL        string
	LogLevel           string
	EncryptionProvider string
	EncryptionKey      Secret
	VaultAddr          string
	VaultToken         Secret
	AnalysisWorkers    int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:        Secret(envOrDefault("DATABASE_URL", "")),
		Port:               envOrDefault("PORT", "4040"),
		ListenHost:         envOrDefault("LISTEN_HOST", "127.0.0.1"),
		ComparatorURL:      envOrDefault("COMPARATOR_URL", "http://localhost:8090"),
		AnalyzerURL:        envOrDefault("ANALYZER_URL", ""),
		VersionsURL:        envOrDefault("VERSIONS_URL", ""),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		EncryptionProvider: envOrDefault("ENCRYPTION_PROVIDER", "static"),
		EncryptionKey:      Secret(envOrDefault("ENCRYPTION_KEY", "")),
		VaultAddr:          envOrDefault("VAULT_ADDR", "http://127.0.0.1:8200"),
		VaultToken:         Secret(envOrDefault("VAULT_TOKEN", "")),
	}

	workers, err := strconv.Atoi(envOrDefault("ANALYSIS_WORKERS", "4"))
	if err != nil || workers < 1 || workers > 16 {
		return nil, fmt.Errorf("ANALYSIS_WORKERS must be an integer between 1 and 16")
	}
	cfg.AnalysisWorkers = workers

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3000")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

func (c *Config) validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateNetwork(); err != nil {
		return err
	}

	if err := c.validateCollaborators(); err != nil {
		return err
	}

	if err := c.validateCORS(); err != nil {
		return err
	}

	if err := c.validateEncryption(); err != nil {
		return err
	}

	return nil
}

func (c *Config) validateDatabase() error {
	if c.DatabaseURL.Value() == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	dbURL, err := url.Parse(c.DatabaseURL.Value())
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	if dbURL.Scheme != "postgres" && dbURL.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL scheme must be postgres:// or postgresql://")
	}

	if dbURL.Hostname() == "" {
		return fmt.Errorf("DATABASE_URL must include a host")
	}

	dbHost := dbURL.Hostname()
	if dbHost != "localhost" && dbHost != "127.0.0.1" && dbHost != "::1" {
		sslmode := dbURL.Query().Get("sslmode")
		if sslmode == "disable" {
			return fmt.Errorf("DATABASE_URL sslmode=disable is not allowed for non-local host %q", dbHost)
		}
	}

	return nil
}

func (c *Config) validateNetwork() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid integer: %w", err)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	return nil
}

// validateCollaborators checks the URLs of the external analysis services.
// COMPARATOR_URL is required; the analyzer and version bridge are optional
// and disabled when unset.
func (c *Config) validateCollaborators() error {
	if c.ComparatorURL == "" {
		return fmt.Errorf("COMPARATOR_URL is required")
	}

	for name, value := range map[string]string{
		"COMPARATOR_URL": c.ComparatorURL,
		"ANALYZER_URL":   c.AnalyzerURL,
		"VERSIONS_URL":   c.VersionsURL,
	} {
		if value == "" {
			continue
		}

		u, err := url.ParseRequestURI(value)
		if err != nil {
			return fmt.Errorf("%s is not a valid URL: %w", name, err)
		}

		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%s scheme must be http:// or https://", name)
		}

		if !isLocalhost(value) && u.Scheme != "https" {
			return fmt.Errorf("%s must use HTTPS for non-localhost connections", name)
		}
	}

	return nil
}

func (c *Config) validateCORS() error {
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return fmt.Errorf("CORS_ORIGINS must not contain wildcard '*'")
		}
		if strings.ContainsAny(origin, "*?[]") {
			return fmt.Errorf("CORS_ORIGINS must not contain glob characters (*?[]), got %q", origin)
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS contains invalid origin %q (must have scheme and host)", origin)
		}
	}

	return nil
}

func (c *Config) validateEncryption() error {
	switch c.EncryptionProvider {
	case "static":
		if c.EncryptionKey.Value() == "" {
			return fmt.Errorf("ENCRYPTION_KEY is required when ENCRYPTION_PROVIDER is static")
		}

		keyBytes, err := hex.DecodeString(c.EncryptionKey.Value())
		if err != nil {
			return fmt.Errorf("ENCRYPTION_KEY must be valid hex: %w", err)
		}

		if len(keyBytes) != 32 {
			return fmt.Errorf("ENCRYPTION_KEY must be 64 hex characters (32 bytes), got %d chars", len(c.EncryptionKey.Value()))
		}
	case "vault":
		if c.VaultToken.Value() == "" {
			return fmt.Errorf("VAULT_TOKEN is required when ENCRYPTION_PROVIDER is vault")
		}

		if !isLocalhost(c.VaultAddr) && !strings.HasPrefix(c.VaultAddr, "https://") {
			return fmt.Errorf("VAULT_ADDR must use HTTPS for non-localhost connections")
		}
	default:
		return fmt.Errorf("ENCRYPTION_PROVIDER must be 'static' or 'vault', got %q", c.EncryptionProvider)
	}

	return nil
}

// isLocalhost returns true if the given address points to a loopback address.
func isLocalhost(addr string) bool {
	u, err := url.Parse(addr)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
