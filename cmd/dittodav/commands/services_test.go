package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittodav/pkg/compat"
	"github.com/marmos91/dittodav/pkg/config"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

// identityStub accepts alice/secret and reports one role for her.
func identityStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /authentication", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Username != "alice" || req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"name":"NotAuthenticated"}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"accessToken":"tok","account":{"userId":"u-1"}}`)
	})
	mux.HandleFunc("GET /users/u-1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"roles":[{"_id":"r1","name":"teacher"}]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, identityURL string) *config.Config {
	t.Helper()
	cfg := config.GetDefaultConfig()
	cfg.Identity.BaseURL = identityURL
	cfg.Auth.BcryptCost = 4
	cfg.Server.Port = freePort(t)
	cfg.Admin.Port = freePort(t)
	cfg.Admin.Token = "admin-secret"
	return cfg
}

func startServices(t *testing.T, cfg *config.Config) (*services, func()) {
	t.Helper()
	svc, err := buildServices(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.serve(ctx) }()

	select {
	case <-svc.gateway.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("gateway did not start")
	}
	if svc.admin != nil {
		select {
		case <-svc.admin.Ready():
		case <-time.After(5 * time.Second):
			t.Fatal("admin API did not start")
		}
	}

	return svc, func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(15 * time.Second):
			t.Error("services did not stop")
		}
	}
}

func TestServicesEndToEnd(t *testing.T) {
	idp := identityStub(t)
	cfg := testConfig(t, idp.URL)

	svc, stop := startServices(t, cfg)
	defer stop()

	gw := fmt.Sprintf("http://127.0.0.1:%d", svc.gateway.Port())
	admin := fmt.Sprintf("http://127.0.0.1:%d", svc.admin.Port())

	t.Run("StatusProbe", func(t *testing.T) {
		resp, err := http.Get(gw + "/status.php")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var st compat.Status
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
		assert.Equal(t, compat.DefaultStatus(), st)
	})

	t.Run("PropfindRequiresCredentials", func(t *testing.T) {
		req, _ := http.NewRequest("PROPFIND", gw+cfg.Server.Root+"/", nil)
		req.Header.Set("Depth", "1")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("PropfindListsMounts", func(t *testing.T) {
		req, _ := http.NewRequest("PROPFIND", gw+cfg.Server.Root+"/", nil)
		req.Header.Set("Depth", "1")
		req.SetBasicAuth("alice", "secret")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusMultiStatus, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		for _, name := range svc.mounts.Names() {
			assert.Contains(t, string(body), "/"+name+"/")
		}
	})

	t.Run("AdminSeesCachedUser", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, admin+"/api/v1/users", nil)
		req.Header.Set("Authorization", "Bearer admin-secret")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), `"name":"alice"`)
		assert.Contains(t, string(body), `"teacher"`)
	})

	t.Run("AdminRequiresToken", func(t *testing.T) {
		resp, err := http.Get(admin + "/api/v1/users")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestBuildServicesOptionalParts(t *testing.T) {
	idp := identityStub(t)

	t.Run("Disabled", func(t *testing.T) {
		cfg := testConfig(t, idp.URL)
		off := false
		cfg.Admin.Enabled = &off
		cfg.Audit.Enabled = &off

		svc, err := buildServices(cfg)
		require.NoError(t, err)
		assert.Nil(t, svc.admin)
		assert.Nil(t, svc.metrics)
		assert.Nil(t, svc.watcher)
	})

	t.Run("FileBackedDocumentsAreWatched", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "capabilities.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"ocs":{}}`), 0o644))

		cfg := testConfig(t, idp.URL)
		cfg.Compat.CapabilitiesFile = path

		svc, err := buildServices(cfg)
		require.NoError(t, err)
		require.NotNil(t, svc.watcher)
		assert.Equal(t, 1, svc.watcher.Len())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		svc.watcher.Run(ctx)
	})

	t.Run("BrokenDocument", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

		cfg := testConfig(t, idp.URL)
		cfg.Compat.ConfigFile = path

		_, err := buildServices(cfg)
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "compat.config"))
	})

	t.Run("BadMount", func(t *testing.T) {
		cfg := testConfig(t, idp.URL)
		cfg.Mounts = []config.MountConfig{{Name: "shared", Type: "local", Path: filepath.Join(t.TempDir(), "missing")}}

		_, err := buildServices(cfg)
		assert.ErrorContains(t, err, "failed to build mounts")
	})
}

func TestAwaitShutdown(t *testing.T) {
	done := make(chan error, 1)
	done <- nil
	assert.NoError(t, awaitShutdown(done, time.Second))

	assert.ErrorContains(t, awaitShutdown(make(chan error), 10*time.Millisecond), "did not finish")
}
