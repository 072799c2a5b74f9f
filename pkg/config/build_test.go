package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittodav/internal/bytesize"
	"github.com/marmos91/dittodav/pkg/mount"
)

func TestDocuments(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg := GetDefaultConfig()
		docs, err := cfg.Compat.Documents(cfg.Server.Root)
		require.NoError(t, err)

		assert.Equal(t,
			`{"installed":true,"maintenance":false,"needsDbUpgrade":false,"version":"10.0.3.3","versionstring":"10.0.3","edition":"Community","productname":"HPI Schul-Cloud"}`,
			string(docs.Status.Bytes()))

		var caps map[string]any
		require.NoError(t, json.Unmarshal(docs.Capabilities.Bytes(), &caps))
		core := caps["ocs"].(map[string]any)["data"].(map[string]any)["capabilities"].(map[string]any)["core"].(map[string]any)
		assert.Equal(t, "remote.php/webdav", core["webdav-root"])

		assert.True(t, json.Valid(docs.Config.Bytes()))
		assert.Empty(t, docs.Config.Path())
	})

	t.Run("InlineAndFile", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(file, []byte(`{ "ocs": { "data": {} } }`), 0600))

		cc := CompatConfig{
			Capabilities: map[string]any{"ocs": map[string]any{"data": "inline"}},
			ConfigFile:   file,
		}
		docs, err := cc.Documents("/dav")
		require.NoError(t, err)

		assert.JSONEq(t, `{"ocs":{"data":"inline"}}`, string(docs.Capabilities.Bytes()))
		assert.Equal(t, `{"ocs":{"data":{}}}`, string(docs.Config.Bytes()))
		assert.Equal(t, file, docs.Config.Path())
	})

	t.Run("MissingFile", func(t *testing.T) {
		cc := CompatConfig{CapabilitiesFile: filepath.Join(t.TempDir(), "missing.json")}
		_, err := cc.Documents("/dav")
		assert.ErrorContains(t, err, "compat.capabilities")
	})
}

func TestComponentConfigs(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Auth.TTL = time.Minute
	cfg.Auth.MaxEntries = 10
	cfg.Audit.MaxBodySize = 4 * bytesize.KiB
	cfg.Identity.BaseURL = "https://id.example.org/"

	ac := cfg.AuthConfig()
	assert.Equal(t, time.Minute, ac.TTL)
	assert.Equal(t, 10, ac.MaxEntries)
	assert.Equal(t, 4, ac.BcryptCost)

	auditCfg := cfg.AuditConfig()
	assert.True(t, auditCfg.Enabled)
	assert.Equal(t, int64(4096), auditCfg.MaxBodySize)

	assert.Equal(t, "https://id.example.org", cfg.IdentityClient().BaseURL())

	tc := cfg.TracingConfig("1.2.3")
	assert.Equal(t, "1.2.3", tc.ServiceVersion)
	assert.Equal(t, "dittodav", tc.ServiceName)

	pc := cfg.ProfilingConfig("1.2.3")
	assert.Equal(t, "http://localhost:4040", pc.Endpoint)

	specs := cfg.MountSpecs()
	require.Len(t, specs, len(mount.DefaultNames))
	tbl, err := mount.Build(specs)
	require.NoError(t, err)
	assert.Equal(t, mount.DefaultNames, tbl.Names())
}
