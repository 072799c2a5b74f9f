package auth

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// UserCache stores authenticated users keyed by name.
//
// With maxEntries > 0 the cache is an LRU bounded to that many users,
// otherwise it grows without bound. With ttl > 0 an entry older than ttl is
// treated as absent and dropped on lookup.
type UserCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	clock Clock

	users   map[string]*User
	bounded *lru.Cache[string, *User]

	evictions atomic.Uint64
	expired   atomic.Uint64
}

// NewUserCache creates a cache. A nil clock means SystemClock.
func NewUserCache(ttl time.Duration, maxEntries int, clock Clock) (*UserCache, error) {
	if clock == nil {
		clock = SystemClock{}
	}
	c := &UserCache{ttl: ttl, clock: clock}

	if maxEntries > 0 {
		l, err := lru.New[string, *User](maxEntries)
		if err != nil {
			return nil, err
		}
		c.bounded = l
	} else {
		c.users = make(map[string]*User)
	}
	return c, nil
}

// Now returns the cache clock's current time.
func (c *UserCache) Now() time.Time {
	return c.clock.Now()
}

// Get returns the live entry for name.
func (c *UserCache) Get(name string) (*User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, ok := c.lookup(name)
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.clock.Now().Sub(u.AuthenticatedAt) >= c.ttl {
		c.remove(name)
		c.expired.Add(1)
		return nil, false
	}
	return u, true
}

// Put inserts u, replacing any entry with the same name.
func (c *UserCache) Put(u *User) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bounded != nil {
		if evicted := c.bounded.Add(u.Name, u); evicted {
			c.evictions.Add(1)
		}
		return
	}
	c.users[u.Name] = u
}

// Remove drops the entry for name and reports whether one existed.
func (c *UserCache) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.lookup(name); !ok {
		return false
	}
	c.remove(name)
	return true
}

// Clear drops every entry and returns how many there were.
func (c *UserCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bounded != nil {
		n := c.bounded.Len()
		c.bounded.Purge()
		return n
	}
	n := len(c.users)
	clear(c.users)
	return n
}

// Len returns the number of entries, including expired ones not yet dropped.
func (c *UserCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bounded != nil {
		return c.bounded.Len()
	}
	return len(c.users)
}

// List returns the live entries sorted by name.
func (c *UserCache) List() []*User {
	c.mu.Lock()
	defer c.mu.Unlock()

	var all []*User
	if c.bounded != nil {
		all = c.bounded.Values()
	} else {
		all = make([]*User, 0, len(c.users))
		for _, u := range c.users {
			all = append(all, u)
		}
	}

	now := c.clock.Now()
	out := all[:0]
	for _, u := range all {
		if c.ttl > 0 && now.Sub(u.AuthenticatedAt) >= c.ttl {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Evictions returns how many entries were pushed out by the size bound.
func (c *UserCache) Evictions() uint64 {
	return c.evictions.Load()
}

// Expirations returns how many entries were dropped for exceeding the TTL.
func (c *UserCache) Expirations() uint64 {
	return c.expired.Load()
}

// lookup must be called with mu held.
func (c *UserCache) lookup(name string) (*User, bool) {
	if c.bounded != nil {
		return c.bounded.Get(name)
	}
	u, ok := c.users[name]
	return u, ok
}

// remove must be called with mu held.
func (c *UserCache) remove(name string) {
	if c.bounded != nil {
		c.bounded.Remove(name)
		return
	}
	delete(c.users, name)
}
