package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/dittodav/internal/bytesize"
	"github.com/marmos91/dittodav/pkg/api"
	"github.com/marmos91/dittodav/pkg/compat"
	"github.com/marmos91/dittodav/pkg/gateway"
	"github.com/marmos91/dittodav/pkg/metrics"
)

// Config represents the dittodav configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (DITTODAV_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Metrics contains Prometheus metrics server configuration
	Metrics metrics.Config `mapstructure:"metrics" yaml:"metrics"`

	// Server configures the WebDAV listener
	Server gateway.Config `mapstructure:"server" yaml:"server"`

	// Identity configures the upstream identity service
	Identity IdentityConfig `mapstructure:"identity" yaml:"identity"`

	// Auth configures the credential cache
	Auth AuthConfig `mapstructure:"auth" yaml:"auth"`

	// Compat configures the documents served to client probes
	Compat CompatConfig `mapstructure:"compat" yaml:"compat"`

	// Audit configures per-request audit records
	Audit AuditConfig `mapstructure:"audit" yaml:"audit"`

	// Mounts lists the virtual roots. Empty mounts the default roots in memory.
	Mounts []MountConfig `mapstructure:"mounts" validate:"dive" yaml:"mounts"`

	// Admin configures the admin API listener
	Admin api.APIConfig `mapstructure:"admin" yaml:"admin"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use insecure (non-TLS) connection
	// Default: true
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL)
	// Default: "http://localhost:4040"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	// Default: ["cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"]
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// IdentityConfig configures the identity service client.
type IdentityConfig struct {
	// BaseURL is the identity service root, e.g. "https://api.example.org".
	// Default: "http://localhost:3030"
	BaseURL string `mapstructure:"base_url" validate:"required,url" yaml:"base_url"`

	// Timeout bounds every identity service call.
	// Default: 30s
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0" yaml:"timeout"`

	// RoleRetries is how often a failed role lookup is retried. -1 disables
	// retries. The authentication call itself is never retried.
	// Default: 2
	RoleRetries int `mapstructure:"role_retries" validate:"gte=-1,lte=10" yaml:"role_retries"`

	// RetryWaitMin and RetryWaitMax bound the backoff between role retries.
	// Default: 100ms and 2s
	RetryWaitMin time.Duration `mapstructure:"retry_wait_min" yaml:"retry_wait_min"`
	RetryWaitMax time.Duration `mapstructure:"retry_wait_max" yaml:"retry_wait_max"`
}

// AuthConfig configures the credential cache.
type AuthConfig struct {
	// TTL bounds how long a cached login is trusted. 0 trusts it until the
	// process exits or an admin evicts it.
	// Default: 0
	TTL time.Duration `mapstructure:"ttl" validate:"gte=0" yaml:"ttl"`

	// MaxEntries bounds the cache with LRU eviction. 0 is unbounded.
	// Default: 0
	MaxEntries int `mapstructure:"max_entries" validate:"gte=0" yaml:"max_entries"`

	// BcryptCost is the cost of cached password digests.
	// Default: 10
	BcryptCost int `mapstructure:"bcrypt_cost" validate:"omitempty,min=4,max=31" yaml:"bcrypt_cost"`

	// DedupeInflight collapses concurrent first logins for the same
	// credentials into one identity service call.
	// Default: false
	DedupeInflight bool `mapstructure:"dedupe_inflight" yaml:"dedupe_inflight"`
}

// CompatConfig configures the client probe documents.
//
// Capabilities and config documents come either inline or from a JSON file.
// File-backed documents are reloaded when the file changes. Viper lowercases
// inline map keys, so documents with mixed-case keys belong in a file.
type CompatConfig struct {
	// Status is the status.php document.
	Status compat.Status `mapstructure:"status" yaml:"status"`

	// Capabilities is the inline OCS capabilities document.
	Capabilities map[string]any `mapstructure:"capabilities" yaml:"capabilities,omitempty"`

	// CapabilitiesFile is a JSON file with the capabilities document.
	// Takes precedence over Capabilities.
	CapabilitiesFile string `mapstructure:"capabilities_file" yaml:"capabilities_file,omitempty"`

	// Config is the inline OCS config document.
	Config map[string]any `mapstructure:"config" yaml:"config,omitempty"`

	// ConfigFile is a JSON file with the config document.
	// Takes precedence over Config.
	ConfigFile string `mapstructure:"config_file" yaml:"config_file,omitempty"`

	// AvatarUser is the account whose avatar probe is forwarded.
	// Default: "lehrer@schul-cloud.org"
	AvatarUser string `mapstructure:"avatar_user" yaml:"avatar_user"`

	// Watch reloads file-backed documents on change.
	// Default: true
	Watch *bool `mapstructure:"watch" yaml:"watch"`
}

// WatchEnabled reports whether file-backed documents are watched.
func (c *CompatConfig) WatchEnabled() bool {
	return c.Watch == nil || *c.Watch
}

// AuditConfig configures per-request audit records.
type AuditConfig struct {
	// Enabled turns audit records on.
	// Default: true
	Enabled *bool `mapstructure:"enabled" yaml:"enabled"`

	// MaxBodySize bounds how much of each body is logged. 0 logs bodies in full.
	// Supports human-readable formats: "64KiB", "1MB"
	// Default: 0
	MaxBodySize bytesize.ByteSize `mapstructure:"max_body_size" yaml:"max_body_size"`
}

// IsEnabled reports whether auditing is on.
func (c *AuditConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// MountConfig describes one virtual root.
type MountConfig struct {
	// Name is the top-level directory clients see.
	Name string `mapstructure:"name" validate:"required,excludesall=/" yaml:"name"`

	// Type selects the backend: memory, local or readonly.
	// Default: memory
	Type string `mapstructure:"type" validate:"omitempty,oneof=memory local readonly" yaml:"type"`

	// Path is the host directory for local and readonly mounts.
	Path string `mapstructure:"path" yaml:"path,omitempty"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DITTODAV_*)
//  2. Configuration file
//  3. Default values
//
// A missing config file is not an error: defaults plus environment apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Decoding only overwrites keys present in the input, so a partial
	// compat.status keeps the remaining default fields.
	cfg := Config{Compat: CompatConfig{Status: compat.DefaultStatus()}}
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration, failing with instructions when an explicit
// config file does not exist.
func MustLoad(configPath string) (*Config, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  dittodav config init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML to path.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file may hold the admin token.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: DITTODAV_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DITTODAV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// bindEnvKeys registers every scalar key so AutomaticEnv sees variables for
// keys absent from the config file.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
}

var envKeys = []string{
	"logging.level", "logging.format", "logging.output",
	"telemetry.enabled", "telemetry.endpoint", "telemetry.insecure", "telemetry.sample_rate",
	"telemetry.profiling.enabled", "telemetry.profiling.endpoint",
	"shutdown_timeout",
	"metrics.enabled", "metrics.port",
	"server.port", "server.root", "server.realm",
	"server.read_timeout", "server.write_timeout", "server.idle_timeout",
	"identity.base_url", "identity.timeout", "identity.role_retries",
	"identity.retry_wait_min", "identity.retry_wait_max",
	"auth.ttl", "auth.max_entries", "auth.bcrypt_cost", "auth.dedupe_inflight",
	"compat.avatar_user", "compat.capabilities_file", "compat.config_file", "compat.watch",
	"audit.enabled", "audit.max_body_size",
	"admin.enabled", "admin.port", "admin.token",
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		bytesize.DecodeHook(),
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// durationDecodeHook converts strings like "30s" and raw nanosecond
// numbers to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/dittodav, ~/.config/dittodav, or
// "." when no home directory is known.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dittodav")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "dittodav")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
