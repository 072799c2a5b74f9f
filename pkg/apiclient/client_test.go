package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittodav/pkg/api"
	"github.com/marmos91/dittodav/pkg/auth"
)

type mounts []string

func (m mounts) Names() []string { return m }

type cache struct {
	users []*auth.User
}

func (c *cache) ListUsers() []*auth.User { return c.users }

func (c *cache) Invalidate(name string) bool {
	for i, u := range c.users {
		if u.Name == name {
			c.users = append(c.users[:i], c.users[i+1:]...)
			return true
		}
	}
	return false
}

func (c *cache) InvalidateAll() int {
	n := len(c.users)
	c.users = nil
	return n
}

func (c *cache) Stats() auth.Stats { return auth.Stats{Hits: 2, Size: len(c.users)} }

func newAdmin(t *testing.T, token string, m mounts) (*Client, *cache) {
	t.Helper()
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	c := &cache{users: []*auth.User{
		{Name: "alice", ID: "a1", Roles: []string{"teacher"}, AuthenticatedAt: at},
		{Name: "bob", ID: "b2", AuthenticatedAt: at},
	}}
	srv := httptest.NewServer(api.NewRouter(api.APIConfig{Token: token}, api.Deps{Users: c, Mounts: m}))
	t.Cleanup(srv.Close)
	return New(srv.URL + "/"), c
}

func TestListUsers(t *testing.T) {
	client, _ := newAdmin(t, "", mounts{"my"})

	users, err := client.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Name)
	assert.Equal(t, []string{"teacher"}, users[0].Roles)
	assert.Equal(t, 2024, users[0].AuthenticatedAt.Year())
}

func TestEvict(t *testing.T) {
	client, c := newAdmin(t, "", mounts{"my"})
	ctx := context.Background()

	require.NoError(t, client.EvictUser(ctx, "alice"))
	assert.Len(t, c.users, 1)

	err := client.EvictUser(ctx, "alice")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	n, err := client.EvictAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStatsAndHealth(t *testing.T) {
	client, _ := newAdmin(t, "", mounts{"my"})
	ctx := context.Background()

	stats, err := client.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, 2, stats.Size)

	assert.NoError(t, client.Health(ctx))

	notReady, _ := newAdmin(t, "", mounts{})
	err = notReady.Health(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "no mounts configured", apiErr.Message)
}

func TestToken(t *testing.T) {
	client, _ := newAdmin(t, "admin-token", mounts{"my"})
	ctx := context.Background()

	_, err := client.ListUsers(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsAuthError())

	users, err := client.WithToken("admin-token").ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Stats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}
