package config

import (
	"fmt"

	"github.com/marmos91/dittodav/internal/telemetry"
	"github.com/marmos91/dittodav/pkg/audit"
	"github.com/marmos91/dittodav/pkg/auth"
	"github.com/marmos91/dittodav/pkg/compat"
	"github.com/marmos91/dittodav/pkg/identity"
	"github.com/marmos91/dittodav/pkg/mount"
)

// TracingConfig converts the telemetry section for telemetry.Init.
func (c *Config) TracingConfig(version string) telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.Enabled = c.Telemetry.Enabled
	tc.Endpoint = c.Telemetry.Endpoint
	tc.Insecure = c.Telemetry.Insecure
	tc.SampleRate = c.Telemetry.SampleRate
	if version != "" {
		tc.ServiceVersion = version
	}
	return tc
}

// ProfilingConfig converts the profiling section for telemetry.InitProfiling.
func (c *Config) ProfilingConfig(version string) telemetry.ProfilingConfig {
	return telemetry.ProfilingConfig{
		Enabled:        c.Telemetry.Profiling.Enabled,
		ServiceName:    "dittodav",
		ServiceVersion: version,
		Endpoint:       c.Telemetry.Profiling.Endpoint,
		ProfileTypes:   c.Telemetry.Profiling.ProfileTypes,
	}
}

// IdentityClient builds the identity service client.
func (c *Config) IdentityClient() *identity.Client {
	retries := c.Identity.RoleRetries
	if retries < 0 {
		retries = 0
	}
	return identity.New(c.Identity.BaseURL,
		identity.WithTimeout(c.Identity.Timeout),
		identity.WithRoleRetries(retries),
		identity.WithRoleRetryWait(c.Identity.RetryWaitMin, c.Identity.RetryWaitMax),
	)
}

// AuthConfig converts the auth section. Clock and Metrics are left for
// the caller.
func (c *Config) AuthConfig() auth.Config {
	return auth.Config{
		TTL:            c.Auth.TTL,
		MaxEntries:     c.Auth.MaxEntries,
		BcryptCost:     c.Auth.BcryptCost,
		DedupeInflight: c.Auth.DedupeInflight,
	}
}

// AuditConfig converts the audit section.
func (c *Config) AuditConfig() audit.Config {
	return audit.Config{
		Enabled:     c.Audit.IsEnabled(),
		MaxBodySize: c.Audit.MaxBodySize.Int64(),
	}
}

// MountSpecs converts the mounts section for mount.Build.
func (c *Config) MountSpecs() []mount.Spec {
	specs := make([]mount.Spec, 0, len(c.Mounts))
	for _, m := range c.Mounts {
		specs = append(specs, mount.Spec{Name: m.Name, Kind: m.Type, Path: m.Path})
	}
	return specs
}

// Documents builds the probe documents. root is the WebDAV root advertised
// in the default capabilities document.
func (c *CompatConfig) Documents(root string) (compat.Documents, error) {
	status, err := compat.NewDocument(c.Status)
	if err != nil {
		return compat.Documents{}, fmt.Errorf("compat.status: %w", err)
	}

	capabilities, err := document(c.CapabilitiesFile, c.Capabilities, compat.DefaultCapabilities(root))
	if err != nil {
		return compat.Documents{}, fmt.Errorf("compat.capabilities: %w", err)
	}

	cfgDoc, err := document(c.ConfigFile, c.Config, compat.DefaultConfig())
	if err != nil {
		return compat.Documents{}, fmt.Errorf("compat.config: %w", err)
	}

	return compat.Documents{Status: status, Capabilities: capabilities, Config: cfgDoc}, nil
}

func document(path string, inline, fallback map[string]any) (*compat.Document, error) {
	switch {
	case path != "":
		return compat.LoadDocument(path)
	case len(inline) > 0:
		return compat.NewDocument(inline)
	default:
		return compat.NewDocument(fallback)
	}
}
