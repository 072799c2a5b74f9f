package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittodav/internal/bytesize"
	"github.com/marmos91/dittodav/pkg/compat"
	"github.com/marmos91/dittodav/pkg/gateway"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, 1900, cfg.Server.Port)
	assert.Equal(t, gateway.DefaultRoot, cfg.Server.Root)
	assert.Equal(t, "dittodav", cfg.Server.Realm)

	assert.Equal(t, DefaultIdentityURL, cfg.Identity.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Identity.Timeout)
	assert.Equal(t, 2, cfg.Identity.RoleRetries)

	assert.Zero(t, cfg.Auth.TTL)
	assert.Zero(t, cfg.Auth.MaxEntries)
	assert.Equal(t, 4, cfg.Auth.BcryptCost)
	assert.False(t, cfg.Auth.DedupeInflight)

	assert.Equal(t, compat.DefaultStatus(), cfg.Compat.Status)
	assert.Equal(t, DefaultAvatarUser, cfg.Compat.AvatarUser)
	assert.True(t, cfg.Compat.WatchEnabled())

	assert.True(t, cfg.Audit.IsEnabled())
	assert.Zero(t, cfg.Audit.MaxBodySize)

	names := make([]string, 0, len(cfg.Mounts))
	for _, m := range cfg.Mounts {
		names = append(names, m.Name)
		assert.Equal(t, "memory", m.Type)
	}
	assert.Equal(t, []string{"courses", "my", "teams", "shared"}, names)

	assert.True(t, cfg.Admin.IsEnabled())
	assert.Equal(t, 8080, cfg.Admin.Port)
	assert.False(t, cfg.Metrics.Enabled)

	require.NoError(t, Validate(cfg))
}

func TestLoad(t *testing.T) {
	t.Run("MissingFileUsesDefaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, GetDefaultConfig(), cfg)
	})

	t.Run("FileOverrides", func(t *testing.T) {
		shared := t.TempDir()
		path := writeConfig(t, `
logging:
  level: debug
server:
  port: 8443
  root: /dav
identity:
  base_url: https://api.example.org/
  role_retries: -1
auth:
  ttl: 15m
  max_entries: 500
  dedupe_inflight: true
audit:
  enabled: false
  max_body_size: 64KiB
compat:
  avatar_user: teacher@example.org
  status:
    productname: Example Cloud
mounts:
  - name: shared
    type: readonly
    path: `+shared+`
  - name: scratch
metrics:
  enabled: true
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "DEBUG", cfg.Logging.Level)
		assert.Equal(t, 8443, cfg.Server.Port)
		assert.Equal(t, "/dav", cfg.Server.Root)
		assert.Equal(t, "https://api.example.org/", cfg.Identity.BaseURL)
		assert.Equal(t, -1, cfg.Identity.RoleRetries)
		assert.Equal(t, 15*time.Minute, cfg.Auth.TTL)
		assert.Equal(t, 500, cfg.Auth.MaxEntries)
		assert.True(t, cfg.Auth.DedupeInflight)
		assert.False(t, cfg.Audit.IsEnabled())
		assert.Equal(t, 64*bytesize.KiB, cfg.Audit.MaxBodySize)
		assert.Equal(t, "teacher@example.org", cfg.Compat.AvatarUser)
		assert.Equal(t, "Example Cloud", cfg.Compat.Status.ProductName)
		assert.Equal(t, "10.0.3.3", cfg.Compat.Status.Version)
		assert.True(t, cfg.Compat.Status.Installed)
		assert.Equal(t, 9090, cfg.Metrics.Port)

		require.Len(t, cfg.Mounts, 2)
		assert.Equal(t, MountConfig{Name: "shared", Type: "readonly", Path: shared}, cfg.Mounts[0])
		assert.Equal(t, MountConfig{Name: "scratch", Type: "memory"}, cfg.Mounts[1])
	})

	t.Run("EnvironmentOverridesFile", func(t *testing.T) {
		path := writeConfig(t, "server:\n  port: 8443\n")
		t.Setenv("DITTODAV_SERVER_PORT", "2000")
		t.Setenv("DITTODAV_AUTH_TTL", "1h")
		t.Setenv("DITTODAV_ADMIN_TOKEN", "from-env")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 2000, cfg.Server.Port)
		assert.Equal(t, time.Hour, cfg.Auth.TTL)
		assert.Equal(t, "from-env", cfg.Admin.Token)
	})

	t.Run("EnvironmentWithoutFile", func(t *testing.T) {
		t.Setenv("DITTODAV_IDENTITY_BASE_URL", "https://id.example.org")

		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "https://id.example.org", cfg.Identity.BaseURL)
	})

	t.Run("InvalidFile", func(t *testing.T) {
		_, err := Load(writeConfig(t, "logging:\n  level: LOUD\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "oneof")
	})

	t.Run("MalformedYAML", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server: [unclosed\n"))
		assert.Error(t, err)
	})

	t.Run("BadDuration", func(t *testing.T) {
		_, err := Load(writeConfig(t, "auth:\n  ttl: soon\n"))
		assert.Error(t, err)
	})
}

func TestMustLoadMissingExplicitFile(t *testing.T) {
	_, err := MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config init")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.Port = 1901
	cfg.Audit.MaxBodySize = 2 * bytesize.MiB

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDefaultConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.Equal(t, filepath.Join(dir, "dittodav", "config.yaml"), GetDefaultConfigPath())
	assert.False(t, DefaultConfigExists())
}
