package config

import (
	"strings"
	"time"

	"github.com/marmos91/dittodav/pkg/auth"
	"github.com/marmos91/dittodav/pkg/compat"
	"github.com/marmos91/dittodav/pkg/gateway"
	"github.com/marmos91/dittodav/pkg/identity"
	"github.com/marmos91/dittodav/pkg/metrics"
	"github.com/marmos91/dittodav/pkg/mount"
)

// DefaultIdentityURL is the identity service of a local development stack.
const DefaultIdentityURL = "http://localhost:3030"

// DefaultAvatarUser is the account whose avatar probe clients send first.
const DefaultAvatarUser = "lehrer@schul-cloud.org"

// ApplyDefaults sets default values for any unspecified configuration fields.
// Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applyMetricsDefaults(&cfg.Metrics)
	applyServerDefaults(&cfg.Server)
	applyIdentityDefaults(&cfg.Identity)
	applyAuthDefaults(&cfg.Auth)
	applyCompatDefaults(&cfg.Compat)
	applyAuditDefaults(&cfg.Audit)
	applyMountDefaults(cfg)
	applyAdminDefaults(cfg)
}

func enabled() *bool {
	b := true
	return &b
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyMetricsDefaults sets the port only when metrics are on.
func applyMetricsDefaults(cfg *metrics.Config) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyServerDefaults fills the listener defaults. An empty root means the
// legacy WebDAV path; "/" serves the mounts at the top level.
func applyServerDefaults(cfg *gateway.Config) {
	if cfg.Root == "" {
		cfg.Root = gateway.DefaultRoot
	}
	cfg.ApplyDefaults()
}

func applyIdentityDefaults(cfg *IdentityConfig) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultIdentityURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = identity.DefaultTimeout
	}
	if cfg.RoleRetries == 0 {
		cfg.RoleRetries = identity.DefaultRoleRetries
	}
	if cfg.RetryWaitMin == 0 {
		cfg.RetryWaitMin = 100 * time.Millisecond
	}
	if cfg.RetryWaitMax == 0 {
		cfg.RetryWaitMax = 2 * time.Second
	}
}

func applyAuthDefaults(cfg *AuthConfig) {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = auth.DefaultBcryptCost
	}
}

func applyCompatDefaults(cfg *CompatConfig) {
	if cfg.Status == (compat.Status{}) {
		cfg.Status = compat.DefaultStatus()
	}
	if cfg.AvatarUser == "" {
		cfg.AvatarUser = DefaultAvatarUser
	}
	if cfg.Watch == nil {
		cfg.Watch = enabled()
	}
}

func applyAuditDefaults(cfg *AuditConfig) {
	if cfg.Enabled == nil {
		cfg.Enabled = enabled()
	}
}

func applyAdminDefaults(cfg *Config) {
	if cfg.Admin.Enabled == nil {
		cfg.Admin.Enabled = enabled()
	}
	cfg.Admin.ApplyDefaults()
}

func applyMountDefaults(cfg *Config) {
	if len(cfg.Mounts) == 0 {
		for _, name := range mount.DefaultNames {
			cfg.Mounts = append(cfg.Mounts, MountConfig{Name: name, Type: mount.KindMemory})
		}
	}
	for i := range cfg.Mounts {
		if cfg.Mounts[i].Type == "" {
			cfg.Mounts[i].Type = mount.KindMemory
		}
		cfg.Mounts[i].Type = strings.ToLower(cfg.Mounts[i].Type)
	}
}

// GetDefaultConfig returns a configuration with all defaults applied.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
