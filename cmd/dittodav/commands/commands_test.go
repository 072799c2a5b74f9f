package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := GetRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	Version = "1.2.3"
	defer func() { Version = "dev" }()

	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", out)

	out, err = execute(t, "version", "--short=false")
	require.NoError(t, err)
	assert.Contains(t, out, "dittodav 1.2.3")
	assert.Contains(t, out, "OS/Arch:")
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = execute(t, "config", "init", "--config", path, "--force=false")
	assert.ErrorContains(t, err, "already exists")

	out, err = execute(t, "config", "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Validation: OK")
	assert.Contains(t, out, "admin.token not set")

	out, err = execute(t, "config", "show", "--config", path, "-o", "json")
	require.NoError(t, err)
	var shown map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Contains(t, shown, "Identity")

	_, err = execute(t, "config", "validate", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "dittodav config init --config")
}

func TestConfigValidateRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mounts:\n  - name: shared\n    type: local\n"), 0o600))

	_, err := execute(t, "config", "validate", "--config", path)
	assert.ErrorContains(t, err, "needs a path")
}

func TestUsersCommands(t *testing.T) {
	idp := identityStub(t)
	cfg := testConfig(t, idp.URL)

	svc, stop := startServices(t, cfg)
	defer stop()

	gw := fmt.Sprintf("http://127.0.0.1:%d", svc.gateway.Port())
	admin := fmt.Sprintf("http://127.0.0.1:%d", svc.admin.Port())

	req, _ := http.NewRequest("PROPFIND", gw+cfg.Server.Root+"/", nil)
	req.Header.Set("Depth", "0")
	req.SetBasicAuth("alice", "secret")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMultiStatus, resp.StatusCode)

	flags := []string{"--server", admin, "--token", "admin-secret"}

	out, err := execute(t, append([]string{"users", "list", "-o", "json"}, flags...)...)
	require.NoError(t, err)
	var users []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0]["name"])

	out, err = execute(t, append([]string{"users", "list", "-o", "table"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "teacher")

	out, err = execute(t, append([]string{"users", "stats", "-o", "json"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `"size": 1`)

	_, err = execute(t, append([]string{"users", "evict", "bob", "--all=false"}, flags...)...)
	assert.ErrorContains(t, err, `"bob" is not cached`)

	_, err = execute(t, append([]string{"users", "evict", "alice", "--all=false"}, flags...)...)
	require.NoError(t, err)
	assert.Equal(t, 0, svc.provider.Stats().Size)

	_, err = execute(t, append([]string{"users", "list"}, "--server", admin, "--token", "wrong", "-o", "json")...)
	assert.Error(t, err)

	out, err = execute(t, "status", "--server", admin)
	require.NoError(t, err)
	assert.Contains(t, out, "Gateway is ready")
}
