// Package config is the configuration loader described in SPEC_FULL.md
// §4.9: a TOML file at $XDG_CONFIG_HOME/gateway/config.toml, parsed with
// BurntSushi/toml the way mazori-ai-modelgate's internal/config/config.go
// parses its own, overridden by the doubled-underscore environment
// convention (APP__SERVER__PORT == [server] port), plus a handful of flat
// legacy env vars in the teacher's internal/app/config.go getEnv/getEnvBool/
// getEnvInt style for operators migrating from that convention.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvPrefix is the doubled-underscore override convention's root token:
// APP__<SECTION>__<FIELD>.
const EnvPrefix = "APP"

// Config is the root configuration structure.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Database    DatabaseConfig    `toml:"database"`
	Logging     LoggingConfig     `toml:"logging"`
	RateLimit   RateLimitConfig   `toml:"rate_limit"`
	Idempotency IdempotencyConfig `toml:"idempotency"`
	Tracing     TracingConfig     `toml:"tracing"`
	Providers   ProvidersConfig   `toml:"providers"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	ListenAddr          string `toml:"listen_addr"`
	ProviderTimeoutSecs int    `toml:"provider_timeout_secs"`
}

// DatabaseConfig controls the SQLite persistence layer.
type DatabaseConfig struct {
	DSN string `toml:"dsn"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// RateLimitConfig controls the per-IP token bucket in front of
// POST /api/v1/generate.
type RateLimitConfig struct {
	PerSecond int `toml:"per_second"`
	Burst     int `toml:"burst"`
}

// IdempotencyConfig controls the Idempotency-Key response cache.
type IdempotencyConfig struct {
	TTLSeconds int `toml:"ttl_seconds"`
}

// TracingConfig controls opt-in OpenTelemetry export.
type TracingConfig struct {
	Enabled     bool   `toml:"enabled"`
	Endpoint    string `toml:"endpoint"`
	ServiceName string `toml:"service_name"`
}

// ProvidersConfig carries the config-file tier of each provider's base URL
// override, the middle tier of credentials.Store.ResolveBaseURL's
// precedence (per-credential override beats this, this beats the vendor
// package's compiled-in default).
type ProvidersConfig struct {
	BaseURLs map[string]string `toml:"base_urls"`
}

// Default returns the compiled-in defaults applied before the file and
// environment are consulted.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:          ":8080",
			ProviderTimeoutSecs: 60,
		},
		Database: DatabaseConfig{
			DSN: defaultDatabaseDSN(),
		},
		Logging: LoggingConfig{Level: "info"},
		RateLimit: RateLimitConfig{
			PerSecond: 10,
			Burst:     20,
		},
		Idempotency: IdempotencyConfig{TTLSeconds: 300},
		Tracing: TracingConfig{
			Enabled:     false,
			Endpoint:    "localhost:4318",
			ServiceName: "gateway",
		},
		Providers: ProvidersConfig{BaseURLs: map[string]string{}},
	}
}

// Load builds a Config from the bundled defaults, the TOML file at path (if
// it exists), the doubled-underscore environment convention, and finally
// the legacy flat env vars, in that ascending precedence order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyDoubledUnderscoreEnv(cfg)
	applyLegacyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that would make the rest of the gateway
// misbehave silently.
func (c *Config) Validate() error {
	if c.Server.ProviderTimeoutSecs <= 0 {
		return fmt.Errorf("config: server.provider_timeout_secs must be > 0, got %d", c.Server.ProviderTimeoutSecs)
	}
	if c.RateLimit.PerSecond <= 0 {
		return fmt.Errorf("config: rate_limit.per_second must be > 0, got %d", c.RateLimit.PerSecond)
	}
	if c.RateLimit.Burst <= 0 {
		return fmt.Errorf("config: rate_limit.burst must be > 0, got %d", c.RateLimit.Burst)
	}
	if c.Idempotency.TTLSeconds <= 0 {
		return fmt.Errorf("config: idempotency.ttl_seconds must be > 0, got %d", c.Idempotency.TTLSeconds)
	}
	return nil
}

// ProviderTimeout returns the configured per-attempt timeout as a Duration.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Server.ProviderTimeoutSecs) * time.Second
}

// IdempotencyTTL returns the configured idempotency cache TTL as a Duration.
func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.Idempotency.TTLSeconds) * time.Second
}

// applyDoubledUnderscoreEnv walks each top-level section and its scalar
// fields, applying APP__<SECTION>__<FIELD> overrides from the toml tags.
// Nested maps (Providers.BaseURLs) are not addressable this way and are left
// to the file alone.
func applyDoubledUnderscoreEnv(cfg *Config) {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sectionField := t.Field(i)
		sectionTag := sectionField.Tag.Get("toml")
		sectionValue := v.Field(i)
		if sectionValue.Kind() != reflect.Struct {
			continue
		}
		applySection(sectionValue, sectionTag)
	}
}

func applySection(section reflect.Value, sectionTag string) {
	t := section.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldTag := field.Tag.Get("toml")
		if fieldTag == "" {
			continue
		}
		key := EnvPrefix + "__" + strings.ToUpper(sectionTag) + "__" + strings.ToUpper(fieldTag)
		raw, ok := os.LookupEnv(key)
		if !ok || raw == "" {
			continue
		}
		setScalar(section.Field(i), raw)
	}
}

func setScalar(field reflect.Value, raw string) {
	if !field.CanSet() {
		return
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		if b, err := strconv.ParseBool(raw); err == nil {
			field.SetBool(b)
		}
	case reflect.Int, reflect.Int64:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			field.SetInt(n)
		}
	}
}

// applyLegacyEnv retains the teacher's flat GATEWAY_* scalar overrides for
// the handful of settings its own internal/app/config.go exposed this way,
// so operators who scripted against that convention aren't broken.
func applyLegacyEnv(cfg *Config) {
	cfg.Server.ListenAddr = getEnv("GATEWAY_LISTEN_ADDR", cfg.Server.ListenAddr)
	cfg.Logging.Level = getEnv("GATEWAY_LOG_LEVEL", cfg.Logging.Level)
	cfg.Database.DSN = getEnv("GATEWAY_DB_DSN", cfg.Database.DSN)
	cfg.Server.ProviderTimeoutSecs = getEnvInt("GATEWAY_PROVIDER_TIMEOUT_SECS", cfg.Server.ProviderTimeoutSecs)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// xdgPath resolves envVar, falling back to $HOME/fallback when unset, the
// same precedence the XDG Base Directory spec defines.
func xdgPath(envVar, fallbackUnderHome string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fallbackUnderHome
	}
	return filepath.Join(home, fallbackUnderHome)
}

// ConfigDir returns $XDG_CONFIG_HOME/gateway (or ~/.config/gateway).
func ConfigDir() string {
	return filepath.Join(xdgPath("XDG_CONFIG_HOME", ".config"), "gateway")
}

// DataDir returns $XDG_DATA_HOME/gateway (or ~/.local/share/gateway).
func DataDir() string {
	return filepath.Join(xdgPath("XDG_DATA_HOME", filepath.Join(".local", "share")), "gateway")
}

// StateDir returns $XDG_STATE_HOME/gateway (or ~/.local/state/gateway).
func StateDir() string {
	return filepath.Join(xdgPath("XDG_STATE_HOME", filepath.Join(".local", "state")), "gateway")
}

// DefaultConfigPath returns the config file Load consults by default.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultCredentialsKeyPath returns the installation key path vault.LoadOrCreate consults by default.
func DefaultCredentialsKeyPath() string {
	return filepath.Join(StateDir(), "credentials.key")
}

func defaultDatabaseDSN() string {
	return filepath.Join(DataDir(), "gateway.db")
}
