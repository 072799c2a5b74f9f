// Package identity is the client for the remote identity service that
// authenticates gateway users and owns their role assignments.
//
// Only two calls are made: a password login (POST /authentication) and a
// role lookup for the authenticated account (GET /users/{id}). The login is
// sent exactly once per call; the role lookup is an idempotent GET and is
// retried with backoff.
package identity

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/marmos91/dittodav/internal/logger"
)

const (
	// DefaultTimeout bounds every request to the identity service.
	DefaultTimeout = 30 * time.Second

	// DefaultRoleRetries is the number of retries for role lookups.
	DefaultRoleRetries = 2

	defaultRetryWaitMin = 200 * time.Millisecond
	defaultRetryWaitMax = 2 * time.Second

	// maxResponseSize caps how much of a response body is read.
	maxResponseSize = 1 << 20
)

// Client is the identity service client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	roleClient *retryablehttp.Client

	timeout      time.Duration
	roleRetries  int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	log          *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for authentication and as the
// transport of the role lookup client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRoleRetries sets how many times a failed role lookup is retried.
func WithRoleRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.roleRetries = n
		}
	}
}

// WithRoleRetryWait sets the backoff bounds between role lookup retries.
func WithRoleRetryWait(minWait, maxWait time.Duration) Option {
	return func(c *Client) {
		c.retryWaitMin = minWait
		c.retryWaitMax = maxWait
	}
}

// New creates a client for the identity service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		timeout:      DefaultTimeout,
		roleRetries:  DefaultRoleRetries,
		retryWaitMin: defaultRetryWaitMin,
		retryWaitMax: defaultRetryWaitMax,
		log:          logger.With("component", "identity"),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = c.httpClient
	rc.RetryMax = c.roleRetries
	rc.RetryWaitMin = c.retryWaitMin
	rc.RetryWaitMax = c.retryWaitMax
	rc.Logger = c.log
	rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			logger.WarnCtx(req.Context(), "Retrying role lookup",
				logger.KeyEndpoint, req.URL.Path, logger.KeyAttempt, attempt)
		}
	}
	c.roleClient = rc

	return c
}

// BaseURL returns the identity service base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}
