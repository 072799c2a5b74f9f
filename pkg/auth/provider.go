package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"

	"github.com/marmos91/dittodav/internal/logger"
	"github.com/marmos91/dittodav/internal/telemetry"
	"github.com/marmos91/dittodav/pkg/identity"
)

// DefaultBcryptCost is the cost used for cached password digests. Every
// request from a cached user pays one comparison, so it stays at the minimum.
const DefaultBcryptCost = bcrypt.MinCost

// IdentityService is the remote side of a login.
type IdentityService interface {
	Authenticate(ctx context.Context, username, password string) (*identity.AuthResult, error)
	LoadRoles(ctx context.Context, res *identity.AuthResult) ([]string, error)
}

// Metrics receives credential cache events. A nil Metrics disables recording.
type Metrics interface {
	// RecordLookup counts a password lookup: "hit", "miss" or "rejected".
	RecordLookup(outcome string)

	// RecordRemoteCall observes an identity service login: "success",
	// "declined" or "error".
	RecordRemoteCall(outcome string, d time.Duration)

	// SetCachedUsers reports the current cache size.
	SetCachedUsers(n int)
}

// Config configures a Provider.
type Config struct {
	// TTL bounds how long an entry is trusted. Zero keeps entries for the
	// process lifetime.
	TTL time.Duration

	// MaxEntries bounds the cache with LRU eviction. Zero is unbounded.
	MaxEntries int

	// BcryptCost is the digest cost. Zero means DefaultBcryptCost.
	BcryptCost int

	// DedupeInflight collapses concurrent first logins that present the
	// same name and password into one identity service call.
	DedupeInflight bool

	// Clock overrides the time source. Nil means SystemClock.
	Clock Clock

	// Metrics receives cache events. Optional.
	Metrics Metrics
}

// Stats is a snapshot of provider counters.
type Stats struct {
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Rejections  uint64 `json:"rejections"`
	RemoteCalls uint64 `json:"remote_calls"`
	Evictions   uint64 `json:"evictions"`
	Expirations uint64 `json:"expirations"`
	Size        int    `json:"size"`
}

// Provider resolves gateway users against the cache and the identity service.
type Provider struct {
	idp     IdentityService
	cache   *UserCache
	cost    int
	dedupe  bool
	metrics Metrics

	inflight singleflight.Group

	hits        atomic.Uint64
	misses      atomic.Uint64
	rejections  atomic.Uint64
	remoteCalls atomic.Uint64
}

// NewProvider creates a Provider backed by idp.
func NewProvider(idp IdentityService, cfg Config) (*Provider, error) {
	if idp == nil {
		return nil, errors.New("auth: identity service is required")
	}

	cost := cfg.BcryptCost
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("auth: bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	cache, err := NewUserCache(cfg.TTL, cfg.MaxEntries, cfg.Clock)
	if err != nil {
		return nil, fmt.Errorf("auth: create cache: %w", err)
	}

	return &Provider{
		idp:     idp,
		cache:   cache,
		cost:    cost,
		dedupe:  cfg.DedupeInflight,
		metrics: cfg.Metrics,
	}, nil
}

// ResolveDefaultUser always reports no default user: every request must
// present credentials.
func (p *Provider) ResolveDefaultUser(ctx context.Context) (*User, bool) {
	logger.DebugCtx(ctx, "Retrieving default user")
	return nil, false
}

// ResolveByName returns the cached user for name, or ErrUserNotFound.
// It never contacts the identity service.
func (p *Provider) ResolveByName(ctx context.Context, name string) (*User, error) {
	if u, ok := p.cache.Get(name); ok {
		return u, nil
	}
	logger.DebugCtx(ctx, "User not cached", logger.Username(name))
	return nil, ErrUserNotFound
}

// ResolveByNameAndPassword authenticates name with password.
//
// A cached user is verified against its digest; a mismatch fails without
// contacting the identity service. An uncached user is logged in remotely
// and, on success, has its roles loaded and is cached before returning.
func (p *Provider) ResolveByNameAndPassword(ctx context.Context, name, password string) (*User, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanResolveByPass,
		trace.WithAttributes(telemetry.Username(name)))
	defer span.End()

	logger.DebugCtx(ctx, "Retrieving user", logger.Username(name))

	if u, ok := p.cache.Get(name); ok {
		span.SetAttributes(telemetry.CacheHit(true))
		if err := bcrypt.CompareHashAndPassword(u.PasswordDigest, []byte(password)); err != nil {
			p.rejections.Add(1)
			p.recordLookup("rejected")
			logger.InfoCtx(ctx, "Access denied, password does not match cached user", logger.Username(name))
			return nil, ErrAuthenticationFailed
		}
		p.hits.Add(1)
		p.recordLookup("hit")
		return u, nil
	}

	span.SetAttributes(telemetry.CacheHit(false))
	p.misses.Add(1)
	p.recordLookup("miss")

	if !p.dedupe {
		return p.login(ctx, name, password)
	}

	v, err, shared := p.inflight.Do(flightKey(name, password), func() (any, error) {
		return p.login(ctx, name, password)
	})
	if shared {
		logger.DebugCtx(ctx, "Joined in-flight login", logger.Username(name))
	}
	if err != nil {
		return nil, err
	}
	return v.(*User), nil
}

// login performs the remote half of ResolveByNameAndPassword.
func (p *Provider) login(ctx context.Context, name, password string) (*User, error) {
	p.remoteCalls.Add(1)
	start := time.Now()

	res, err := p.idp.Authenticate(ctx, name, password)
	if err != nil {
		p.recordRemoteCall("error", time.Since(start))
		telemetry.RecordError(ctx, err)
		logger.ErrorCtx(ctx, "Identity service unavailable", logger.Username(name), logger.Err(err))
		return nil, fmt.Errorf("%w: %w", ErrRemoteService, err)
	}
	if !res.OK {
		p.rejections.Add(1)
		p.recordRemoteCall("declined", time.Since(start))
		logger.WarnCtx(ctx, "Access denied by identity service", logger.Username(name))
		return nil, ErrAuthenticationFailed
	}
	p.recordRemoteCall("success", time.Since(start))

	roles, err := p.idp.LoadRoles(ctx, res)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to load roles, caching user without roles",
			logger.Username(name), logger.KeyUserID, res.UserID, logger.Err(err))
		roles = nil
	}

	u := &User{
		ID:          res.UserID,
		Name:        name,
		AccessToken: res.AccessToken,
		Roles:       roles,
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		// bcrypt refuses passwords over 72 bytes; such users are served
		// but re-authenticated remotely on every request.
		logger.WarnCtx(ctx, "Cannot digest password, user will not be cached",
			logger.Username(name), logger.Err(err))
		u.AuthenticatedAt = p.cache.Now()
		return u, nil
	}
	u.PasswordDigest = digest
	u.AuthenticatedAt = p.cache.Now()

	p.cache.Put(u)
	p.setCachedUsers()

	logger.InfoCtx(ctx, "User authenticated",
		logger.Username(name), logger.KeyUserID, u.ID, logger.KeyRoles, u.Roles)
	return u, nil
}

// ListUsers returns the cached users sorted by name.
func (p *Provider) ListUsers() []*User {
	return p.cache.List()
}

// Invalidate drops name from the cache so its next login goes remote.
func (p *Provider) Invalidate(name string) bool {
	removed := p.cache.Remove(name)
	if removed {
		p.setCachedUsers()
		logger.Info("Evicted cached user", logger.Username(name))
	}
	return removed
}

// InvalidateAll empties the cache and returns how many users were dropped.
func (p *Provider) InvalidateAll() int {
	n := p.cache.Clear()
	p.setCachedUsers()
	logger.Info("Evicted all cached users", logger.KeyEvicted, n)
	return n
}

// Stats returns a snapshot of the provider counters.
func (p *Provider) Stats() Stats {
	return Stats{
		Hits:        p.hits.Load(),
		Misses:      p.misses.Load(),
		Rejections:  p.rejections.Load(),
		RemoteCalls: p.remoteCalls.Load(),
		Evictions:   p.cache.Evictions(),
		Expirations: p.cache.Expirations(),
		Size:        p.cache.Len(),
	}
}

func (p *Provider) recordLookup(outcome string) {
	if p.metrics != nil {
		p.metrics.RecordLookup(outcome)
	}
}

func (p *Provider) recordRemoteCall(outcome string, d time.Duration) {
	if p.metrics != nil {
		p.metrics.RecordRemoteCall(outcome, d)
	}
}

func (p *Provider) setCachedUsers() {
	if p.metrics != nil {
		p.metrics.SetCachedUsers(p.cache.Len())
	}
}

// flightKey identifies a login attempt without keeping the password around.
func flightKey(name, password string) string {
	sum := sha256.Sum256([]byte(name + "\x00" + password))
	return hex.EncodeToString(sum[:])
}
