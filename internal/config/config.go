// Package config loads service settings for the gogate command from a YAML
// file and GOGATE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. GOGATE_STORAGE_BACKEND.
const EnvPrefix = "GOGATE"

// Storage backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config holds all settings of the gogate service and CLI.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Device   DeviceConfig   `mapstructure:"device" yaml:"device"`
	Gate     GateConfig     `mapstructure:"gate" yaml:"gate"`
	Throttle ThrottleConfig `mapstructure:"throttle" yaml:"throttle"`
	Audit    AuditConfig    `mapstructure:"audit" yaml:"audit"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Listen          string        `mapstructure:"listen" yaml:"listen"`
	TrustProxy      bool          `mapstructure:"trust_proxy" yaml:"trust_proxy"` // take client IP from X-Forwarded-For
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// StorageConfig selects where gate state lives.
type StorageConfig struct {
	Backend       string `mapstructure:"backend" yaml:"backend"` // memory, redis or sqlite
	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" yaml:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix" yaml:"redis_prefix"`
	SQLitePath    string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

// DeviceConfig configures device tokens for HTTP clients.
type DeviceConfig struct {
	Secret       string        `mapstructure:"secret" yaml:"secret"` // empty: random per process
	Issuer       string        `mapstructure:"issuer" yaml:"issuer"`
	TTL          time.Duration `mapstructure:"ttl" yaml:"ttl"`
	SecureCookie bool          `mapstructure:"secure_cookie" yaml:"secure_cookie"`
	// CLI is the device id used by local commands. Empty means the bare,
	// un-namespaced keys.
	CLI string `mapstructure:"cli" yaml:"cli"`
}

// GateConfig mirrors goGate.GateConfig.
type GateConfig struct {
	MaxAttempts       int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	ProtectedLockout  time.Duration `mapstructure:"protected_lockout" yaml:"protected_lockout"`
	GeneralLockout    time.Duration `mapstructure:"general_lockout" yaml:"general_lockout"`
	FreeUsageLimit    int           `mapstructure:"free_usage_limit" yaml:"free_usage_limit"`
	InactivityTimeout time.Duration `mapstructure:"inactivity_timeout" yaml:"inactivity_timeout"`
	CountdownInterval time.Duration `mapstructure:"countdown_interval" yaml:"countdown_interval"`
}

// ThrottleConfig mirrors goGate.ThrottleConfig. It requires the redis backend
// or a redis_addr.
type ThrottleConfig struct {
	Enabled        bool          `mapstructure:"enabled" yaml:"enabled"`
	MaxSubmissions int           `mapstructure:"max_submissions" yaml:"max_submissions"`
	Window         time.Duration `mapstructure:"window" yaml:"window"`
}

// AuditConfig controls the JSON-lines audit log.
type AuditConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Path       string `mapstructure:"path" yaml:"path"` // empty: stderr
	BufferSize int    `mapstructure:"buffer_size" yaml:"buffer_size"`
}

// MetricsConfig controls counters and the /metrics route.
type MetricsConfig struct {
	Enabled           bool `mapstructure:"enabled" yaml:"enabled"`
	LatencyHistograms bool `mapstructure:"latency_histograms" yaml:"latency_histograms"`
}

// LoggingConfig controls logrus output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text or json
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	gate := goGate.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Listen:          "127.0.0.1:8088",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Storage: StorageConfig{
			Backend:     BackendSQLite,
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: "gogate",
			SQLitePath:  defaultSQLitePath(),
		},
		Device: DeviceConfig{
			Issuer: "gogate",
			TTL:    400 * 24 * time.Hour,
		},
		Gate: GateConfig{
			MaxAttempts:       gate.Gate.MaxAttempts,
			ProtectedLockout:  gate.Gate.ProtectedLockout,
			GeneralLockout:    gate.Gate.GeneralLockout,
			FreeUsageLimit:    gate.Gate.FreeUsageLimit,
			InactivityTimeout: gate.Gate.InactivityTimeout,
			CountdownInterval: gate.Gate.CountdownInterval,
		},
		Throttle: ThrottleConfig{
			MaxSubmissions: gate.Throttle.MaxSubmissions,
			Window:         gate.Throttle.Window,
		},
		Audit: AuditConfig{
			BufferSize: gate.Audit.BufferSize,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func defaultSQLitePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "gogate", "gate.db")
	}
	return "gate.db"
}

// Load reads path (or gogate.yaml from the usual locations when path is
// empty), then applies GOGATE_* environment overrides. A missing default file
// is fine; a missing explicit file is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("gogate")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "gogate"))
		}
		v.AddConfigPath("/etc/gogate/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides apply even when
// the file does not mention them.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("server.trust_proxy", d.Server.TrustProxy)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.redis_addr", d.Storage.RedisAddr)
	v.SetDefault("storage.redis_password", d.Storage.RedisPassword)
	v.SetDefault("storage.redis_db", d.Storage.RedisDB)
	v.SetDefault("storage.redis_prefix", d.Storage.RedisPrefix)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)

	v.SetDefault("device.secret", d.Device.Secret)
	v.SetDefault("device.issuer", d.Device.Issuer)
	v.SetDefault("device.ttl", d.Device.TTL)
	v.SetDefault("device.secure_cookie", d.Device.SecureCookie)
	v.SetDefault("device.cli", d.Device.CLI)

	v.SetDefault("gate.max_attempts", d.Gate.MaxAttempts)
	v.SetDefault("gate.protected_lockout", d.Gate.ProtectedLockout)
	v.SetDefault("gate.general_lockout", d.Gate.GeneralLockout)
	v.SetDefault("gate.free_usage_limit", d.Gate.FreeUsageLimit)
	v.SetDefault("gate.inactivity_timeout", d.Gate.InactivityTimeout)
	v.SetDefault("gate.countdown_interval", d.Gate.CountdownInterval)

	v.SetDefault("throttle.enabled", d.Throttle.Enabled)
	v.SetDefault("throttle.max_submissions", d.Throttle.MaxSubmissions)
	v.SetDefault("throttle.window", d.Throttle.Window)

	v.SetDefault("audit.enabled", d.Audit.Enabled)
	v.SetDefault("audit.path", d.Audit.Path)
	v.SetDefault("audit.buffer_size", d.Audit.BufferSize)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.latency_histograms", d.Metrics.LatencyHistograms)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Validate checks settings the engine config does not cover, then the engine
// config itself.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Storage.RedisAddr == "" {
			return errors.New("storage.redis_addr required for redis backend")
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path required for sqlite backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Throttle.Enabled && c.Storage.RedisAddr == "" {
		return errors.New("throttle requires storage.redis_addr")
	}
	if c.Device.Secret != "" && len(c.Device.Secret) < 32 {
		return errors.New("device.secret must be at least 32 bytes")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}

	engineCfg := c.EngineConfig()
	return engineCfg.Validate()
}

// EngineConfig converts the file settings to a goGate.Config.
func (c *Config) EngineConfig() goGate.Config {
	cfg := goGate.DefaultConfig()
	cfg.Gate = goGate.GateConfig{
		MaxAttempts:       c.Gate.MaxAttempts,
		ProtectedLockout:  c.Gate.ProtectedLockout,
		GeneralLockout:    c.Gate.GeneralLockout,
		FreeUsageLimit:    c.Gate.FreeUsageLimit,
		InactivityTimeout: c.Gate.InactivityTimeout,
		CountdownInterval: c.Gate.CountdownInterval,
	}
	cfg.Throttle = goGate.ThrottleConfig{
		Enabled:        c.Throttle.Enabled,
		MaxSubmissions: c.Throttle.MaxSubmissions,
		Window:         c.Throttle.Window,
	}
	cfg.Audit.Enabled = c.Audit.Enabled
	cfg.Audit.BufferSize = c.Audit.BufferSize
	cfg.Metrics = goGate.MetricsConfig{
		Enabled:                 c.Metrics.Enabled,
		EnableLatencyHistograms: c.Metrics.LatencyHistograms,
	}
	return cfg
}

// WriteDefault writes the default configuration as YAML to path. An existing
// file is left alone unless overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}
	return nil
}
