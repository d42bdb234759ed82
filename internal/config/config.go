// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App          AppConfig          `koanf:"app"`
	Server       ServerConfig       `koanf:"server"`
	Database     DatabaseConfig     `koanf:"database"`
	Redis        RedisConfig        `koanf:"redis"`
	JWT          JWTConfig          `koanf:"jwt"`
	CORS         CORSConfig         `koanf:"cors"`
	Log          LogConfig          `koanf:"log"`
	Otel         OtelConfig         `koanf:"otel"`
	Verification VerificationConfig `koanf:"verification"`
	Mail         MailConfig         `koanf:"mail"`
	Suggest      SuggestConfig      `koanf:"suggest"`
	Cleanup      CleanupConfig      `koanf:"cleanup"`
	Metrics      MetricsConfig      `koanf:"metrics"`
	Admin        AdminConfig        `koanf:"admin"`
	Security     SecurityConfig     `koanf:"security"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	PublicURL   string `koanf:"public_url"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	MigrateOnStart  bool          `koanf:"migrate_on_start"`
}

type RedisConfig struct {
	URL           string        `koanf:"url"`
	PoolSize      int           `koanf:"pool_size"`
	MinIdleConns  int           `koanf:"min_idle_conns"`
	SlowThreshold time.Duration `koanf:"slow_threshold"`
}

type JWTConfig struct {
	PrivateKeyPath     string        `koanf:"private_key_path"`
	PublicKeyPath      string        `koanf:"public_key_path"`
	AccessTokenExpire  time.Duration `koanf:"access_token_expire"`
	RefreshTokenExpire time.Duration `koanf:"refresh_token_expire"`
	Issuer             string        `koanf:"issuer"`
	Audience           string        `koanf:"audience"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// VerificationConfig controls the sign-up email codes kept in Redis.
type VerificationConfig struct {
	CodeTTL     time.Duration `koanf:"code_ttl"`
	MaxAttempts int           `koanf:"max_attempts"`
	KeyPrefix   string        `koanf:"key_prefix"`
}

type MailConfig struct {
	Provider string `koanf:"provider"`
	APIKey   string `koanf:"api_key"`
	From     string `koanf:"from"`
}

type SuggestConfig struct {
	APIKey          string        `koanf:"api_key"`
	Model           string        `koanf:"model"`
	Temperature     float32       `koanf:"temperature"`
	TopK            float32       `koanf:"top_k"`
	TopP            float32       `koanf:"top_p"`
	MaxOutputTokens int32         `koanf:"max_output_tokens"`
	Timeout         time.Duration `koanf:"timeout"`
}

type CleanupConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Schedule      string        `koanf:"schedule"`
	UnverifiedTTL time.Duration `koanf:"unverified_ttl"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

type AdminConfig struct {
	Token string `koanf:"token"`
}

// SecurityConfig holds the argon2id cost for password hashes. Memory is in
// KiB. Raising any value rehashes each password on its next sign-in.
type SecurityConfig struct {
	Argon2Memory     uint32 `koanf:"argon2_memory"`
	Argon2Time       uint32 `koanf:"argon2_time"`
	Argon2Threads    uint8  `koanf:"argon2_threads"`
	Argon2KeyLength  uint32 `koanf:"argon2_key_length"`
	Argon2SaltLength uint32 `koanf:"argon2_salt_length"`
}

func (s SecurityConfig) Validate() error {
	if s.Argon2Time < 1 {
		return fmt.Errorf("security.argon2_time must be at least 1")
	}
	if s.Argon2Threads < 1 {
		return fmt.Errorf("security.argon2_threads must be at least 1")
	}
	if s.Argon2Memory < 8*uint32(s.Argon2Threads) {
		return fmt.Errorf("security.argon2_memory must be at least 8 KiB per thread")
	}
	if s.Argon2KeyLength < 16 {
		return fmt.Errorf("security.argon2_key_length must be at least 16")
	}
	if s.Argon2SaltLength < 8 {
		return fmt.Errorf("security.argon2_salt_length must be at least 8")
	}
	return nil
}

// Load merges defaults, the optional YAML file and mapped environment
// variables, in that order, and validates the result.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.App.PublicURL = strings.TrimRight(cfg.App.PublicURL, "/")

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Mystery Message",
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.public_url":  "http://localhost:3000",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.migrate_on_start":   true,

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,
		"redis.slow_threshold": "50ms",

		"jwt.access_token_expire":  "15m",
		"jwt.refresh_token_expire": "168h",
		"jwt.issuer":               "mystery-message",
		"jwt.audience":             "mystery-message-api",
		"jwt.private_key_path":     "keys/private.pem",
		"jwt.public_key_path":      "keys/public.pem",

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "mystery-message",

		"verification.code_ttl":     "1h",
		"verification.max_attempts": 5,
		"verification.key_prefix":   "verify",

		"mail.provider": "log",
		"mail.from":     "Mystery Message <onboarding@resend.dev>",

		"suggest.model":             "gemini-2.0-flash",
		"suggest.temperature":       1.2,
		"suggest.top_k":             40,
		"suggest.top_p":             1,
		"suggest.max_output_tokens": 256,
		"suggest.timeout":           "20s",

		"cleanup.enabled":        true,
		"cleanup.schedule":       "@every 1h",
		"cleanup.unverified_ttl": "24h",

		"metrics.enabled": true,
		"metrics.path":    "/metrics",

		"security.argon2_memory":      64 * 1024,
		"security.argon2_time":        1,
		"security.argon2_threads":     4,
		"security.argon2_key_length":  32,
		"security.argon2_salt_length": 16,
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"DATABASE_MIGRATE_ON_START":   "database.migrate_on_start",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"PUBLIC_URL":                  "app.public_url",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"JWT_PRIVATE_KEY_PATH":        "jwt.private_key_path",
	"JWT_PUBLIC_KEY_PATH":         "jwt.public_key_path",
	"JWT_ACCESS_TOKEN_EXPIRE":     "jwt.access_token_expire",
	"JWT_REFRESH_TOKEN_EXPIRE":    "jwt.refresh_token_expire",
	"JWT_ISSUER":                  "jwt.issuer",
	"JWT_AUDIENCE":                "jwt.audience",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"VERIFY_CODE_TTL":             "verification.code_ttl",
	"VERIFY_MAX_ATTEMPTS":         "verification.max_attempts",
	"MAIL_PROVIDER":               "mail.provider",
	"RESEND_API_KEY":              "mail.api_key",
	"MAIL_FROM":                   "mail.from",
	"GEMINI_API_KEY":              "suggest.api_key",
	"GEMINI_MODEL":                "suggest.model",
	"CLEANUP_ENABLED":             "cleanup.enabled",
	"CLEANUP_SCHEDULE":            "cleanup.schedule",
	"CLEANUP_UNVERIFIED_TTL":      "cleanup.unverified_ttl",
	"METRICS_ENABLED":             "metrics.enabled",
	"ADMIN_TOKEN":                 "admin.token",
	"ARGON2_MEMORY_KIB":           "security.argon2_memory",
	"ARGON2_TIME":                 "security.argon2_time",
	"ARGON2_THREADS":              "security.argon2_threads",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.JWT.PrivateKeyPath == "" {
		return fmt.Errorf("JWT_PRIVATE_KEY_PATH is required")
	}

	if c.JWT.PublicKeyPath == "" {
		return fmt.Errorf("JWT_PUBLIC_KEY_PATH is required")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
		if c.Mail.Provider == MailProviderLog {
			return fmt.Errorf("MAIL_PROVIDER=log is not allowed in production")
		}
	}

	switch c.Mail.Provider {
	case MailProviderLog:
	case MailProviderResend:
		if c.Mail.APIKey == "" {
			return fmt.Errorf("RESEND_API_KEY is required for the resend provider")
		}
	default:
		return fmt.Errorf("unknown mail provider %q", c.Mail.Provider)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	if c.Verification.CodeTTL <= 0 {
		return fmt.Errorf("verification.code_ttl must be positive")
	}

	if c.Verification.MaxAttempts < 1 {
		return fmt.Errorf("verification.max_attempts must be at least 1")
	}

	if c.Cleanup.Enabled && c.Cleanup.UnverifiedTTL <= 0 {
		return fmt.Errorf("cleanup.unverified_ttl must be positive")
	}

	if err := c.Security.Validate(); err != nil {
		return err
	}

	return nil
}

const (
	MailProviderLog    = "log"
	MailProviderResend = "resend"
)

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ProfileURL is the public link anonymous senders use to reach username.
func (a *AppConfig) ProfileURL(username string) string {
	return a.PublicURL + "/u/" + username
}

// SuggestionsEnabled reports whether a Gemini API key is configured.
func (s *SuggestConfig) SuggestionsEnabled() bool {
	return s.APIKey != ""
}
