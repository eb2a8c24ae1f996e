package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/charlesng35/sessionkit/pkg/validator"
)

// Config represents the runtime configuration for the sessionkit server.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Auth       AuthConfig       `mapstructure:"auth"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int             `mapstructure:"port" validate:"min=1,max=65535"`
	LogLevel        string          `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat       string          `mapstructure:"log_format" validate:"omitempty,oneof=json console"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout" validate:"gte=0"`
	LoginRateLimit  RateLimitConfig `mapstructure:"login_rate_limit"`
}

// RateLimitConfig bounds requests per client within a fixed window. Zero
// requests disables the limit.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests" validate:"gte=0"`
	Window   time.Duration `mapstructure:"window" validate:"gte=0"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,startswith=/"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// AuthConfig captures all authentication-related settings.
type AuthConfig struct {
	Session SessionSettings   `mapstructure:"session"`
	Local   LocalAuthSettings `mapstructure:"local"`
	Users   []UserEntry       `mapstructure:"users" validate:"dive"`
}

// SessionSettings configures token lifetimes, the sweep cadence and the
// per-user session limit. Zero values fall back to the manager defaults.
type SessionSettings struct {
	AccessTTL          time.Duration `mapstructure:"access_token_ttl" validate:"gte=0"`
	RefreshTTL         time.Duration `mapstructure:"refresh_token_ttl" validate:"gte=0"`
	CleanupInterval    time.Duration `mapstructure:"cleanup_interval" validate:"gte=0"`
	MaxSessionsPerUser int           `mapstructure:"max_sessions_per_user" validate:"gte=0"`
}

// LocalAuthSettings defines lockout controls for directory logins.
type LocalAuthSettings struct {
	LockoutThreshold int           `mapstructure:"lockout_threshold" validate:"gte=0"`
	LockoutDuration  time.Duration `mapstructure:"lockout_duration" validate:"gte=0"`
}

// UserEntry is one account of the static user directory.
type UserEntry struct {
	ID           string   `mapstructure:"id" validate:"required"`
	Username     string   `mapstructure:"username" validate:"required"`
	Email        string   `mapstructure:"email" validate:"omitempty,email"`
	PasswordHash string   `mapstructure:"password_hash" validate:"required"`
	Role         string   `mapstructure:"role"`
	Permissions  []string `mapstructure:"permissions" validate:"dive,permission"`
	FirstName    string   `mapstructure:"first_name"`
	LastName     string   `mapstructure:"last_name"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("SESSIONKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

// Validate checks field rules and the cross-field constraints between
// sections. Every problem found is reported, not just the first.
func (c *Config) Validate() error {
	var errs error
	if err := validator.ValidateStruct(c); err != nil {
		errs = multierr.Append(errs, err)
	}

	s := c.Auth.Session
	if s.AccessTTL > 0 && s.RefreshTTL > 0 && s.RefreshTTL < s.AccessTTL {
		errs = multierr.Append(errs, fmt.Errorf("auth.session: refresh_token_ttl %s is shorter than access_token_ttl %s", s.RefreshTTL, s.AccessTTL))
	}

	ids := make(map[string]struct{}, len(c.Auth.Users))
	names := make(map[string]struct{}, len(c.Auth.Users))
	for _, u := range c.Auth.Users {
		if _, dup := ids[u.ID]; dup && u.ID != "" {
			errs = multierr.Append(errs, fmt.Errorf("auth.users: duplicate id %q", u.ID))
		}
		key := strings.ToLower(u.Username)
		if _, dup := names[key]; dup && key != "" {
			errs = multierr.Append(errs, fmt.Errorf("auth.users: duplicate username %q", u.Username))
		}
		ids[u.ID] = struct{}{}
		names[key] = struct{}{}
	}

	if errs != nil {
		return fmt.Errorf("config: invalid: %w", errs)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.login_rate_limit.requests", 10)
	v.SetDefault("server.login_rate_limit.window", "1m")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)

	v.SetDefault("auth.session.access_token_ttl", "15m")
	v.SetDefault("auth.session.refresh_token_ttl", "168h") // 7 days
	v.SetDefault("auth.session.cleanup_interval", "1m")
	v.SetDefault("auth.session.max_sessions_per_user", 5)
	v.SetDefault("auth.local.lockout_threshold", 5)
	v.SetDefault("auth.local.lockout_duration", "15m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
