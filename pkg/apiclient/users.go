package apiclient

import (
	"context"
	"time"
)

// User is a cached gateway user as reported by the admin API.
type User struct {
	Name            string    `json:"name"`
	ID              string    `json:"id"`
	Roles           []string  `json:"roles"`
	AuthenticatedAt time.Time `json:"authenticated_at"`
}

// Stats are the credential cache counters.
type Stats struct {
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Rejections  uint64 `json:"rejections"`
	RemoteCalls uint64 `json:"remote_calls"`
	Evictions   uint64 `json:"evictions"`
	Expirations uint64 `json:"expirations"`
	Size        int    `json:"size"`
}

type evictResponse struct {
	Evicted int `json:"evicted"`
}

// ListUsers returns the cached users.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.get(ctx, "/api/v1/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// EvictUser drops one user from the gateway cache.
func (c *Client) EvictUser(ctx context.Context, name string) error {
	return c.delete(ctx, "/api/v1/users/"+escape(name), nil)
}

// EvictAll empties the gateway cache and returns how many users were dropped.
func (c *Client) EvictAll(ctx context.Context) (int, error) {
	var resp evictResponse
	if err := c.delete(ctx, "/api/v1/users", &resp); err != nil {
		return 0, err
	}
	return resp.Evicted, nil
}

// Stats returns the credential cache counters.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.get(ctx, "/api/v1/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health returns nil if the gateway reports itself ready.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health/ready", nil)
}
