package auth

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func cachedUser(name string, at time.Time) *User {
	return &User{ID: "id-" + name, Name: name, AuthenticatedAt: at}
}

func TestUserCacheUnbounded(t *testing.T) {
	clock := newFakeClock()
	c, err := NewUserCache(0, 0, clock)
	require.NoError(t, err)

	c.Put(cachedUser("bob", clock.Now()))
	c.Put(cachedUser("alice", clock.Now()))

	u, ok := c.Get("alice")
	require.True(t, ok)
	assert.Equal(t, "id-alice", u.ID)

	_, ok = c.Get("carol")
	assert.False(t, ok)

	clock.Advance(365 * 24 * time.Hour)
	_, ok = c.Get("bob")
	assert.True(t, ok, "zero TTL never expires")

	names := []string{}
	for _, u := range c.List() {
		names = append(names, u.Name)
	}
	assert.Equal(t, []string{"alice", "bob"}, names)
}

func TestUserCacheLastWriteWins(t *testing.T) {
	c, err := NewUserCache(0, 0, nil)
	require.NoError(t, err)

	c.Put(&User{Name: "alice", ID: "first"})
	c.Put(&User{Name: "alice", ID: "second"})

	u, ok := c.Get("alice")
	require.True(t, ok)
	assert.Equal(t, "second", u.ID)
	assert.Equal(t, 1, c.Len())
}

func TestUserCacheTTL(t *testing.T) {
	clock := newFakeClock()
	c, err := NewUserCache(10*time.Minute, 0, clock)
	require.NoError(t, err)

	c.Put(cachedUser("alice", clock.Now()))

	clock.Advance(9 * time.Minute)
	_, ok := c.Get("alice")
	assert.True(t, ok)
	assert.Len(t, c.List(), 1)

	clock.Advance(time.Minute)
	assert.Empty(t, c.List(), "expired entries are hidden from listings")

	_, ok = c.Get("alice")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry is dropped on lookup")
	assert.Equal(t, uint64(1), c.Expirations())
}

func TestUserCacheBounded(t *testing.T) {
	clock := newFakeClock()
	c, err := NewUserCache(0, 2, clock)
	require.NoError(t, err)

	c.Put(cachedUser("alice", clock.Now()))
	c.Put(cachedUser("bob", clock.Now()))

	_, ok := c.Get("alice")
	require.True(t, ok)

	c.Put(cachedUser("carol", clock.Now()))

	_, ok = c.Get("bob")
	assert.False(t, ok, "least recently used entry is evicted")
	_, ok = c.Get("alice")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, uint64(1), c.Evictions())
}

func TestUserCacheRemoveAndClear(t *testing.T) {
	for _, bound := range []int{0, 8} {
		c, err := NewUserCache(0, bound, nil)
		require.NoError(t, err)

		c.Put(&User{Name: "alice"})
		c.Put(&User{Name: "bob"})

		assert.True(t, c.Remove("alice"))
		assert.False(t, c.Remove("alice"))
		assert.Equal(t, 1, c.Len())

		assert.Equal(t, 1, c.Clear())
		assert.Equal(t, 0, c.Len())
		assert.Equal(t, 0, c.Clear())
	}
}
