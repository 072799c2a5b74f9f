// Package middleware holds the gateway's request-scoped HTTP middleware:
// correlation numbering, the per-request log line and the Basic
// authentication gate.
package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/dittodav/internal/logger"
)

type contextKey string

const (
	requestInfoKey contextKey = "request_info"
	userKey        contextKey = "user"
)

// RequestInfo is the per-request state shared by the gateway middleware.
type RequestInfo struct {
	// Number is the correlation number, assigned in arrival order from 0.
	Number uint64

	// Start is when the request entered the gateway.
	Start time.Time

	// OriginalURI is the request target as received.
	OriginalURI string

	mu         sync.Mutex
	dispatched string
}

// SetDispatchedPath records the path handed to the protocol engine after
// the mount prefix was stripped.
func (ri *RequestInfo) SetDispatchedPath(p string) {
	ri.mu.Lock()
	ri.dispatched = p
	ri.mu.Unlock()
}

// DispatchedPath returns the path recorded by SetDispatchedPath, or the
// original URI if the request was never dispatched.
func (ri *RequestInfo) DispatchedPath() string {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	if ri.dispatched == "" {
		return ri.OriginalURI
	}
	return ri.dispatched
}

// Correlator numbers requests. The counter starts at 0 and is never reset.
type Correlator struct {
	next atomic.Uint64
}

// NewCorrelator creates a Correlator whose first request gets number 0.
func NewCorrelator() *Correlator {
	return &Correlator{}
}

// Next reserves and returns the next correlation number.
func (c *Correlator) Next() uint64 {
	return c.next.Add(1) - 1
}

// Issued returns how many numbers have been handed out.
func (c *Correlator) Issued() uint64 {
	return c.next.Load()
}

// Middleware attaches a RequestInfo and a logger.LogContext to the request.
func (c *Correlator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		info := &RequestInfo{
			Number:      c.Next(),
			Start:       now,
			OriginalURI: r.RequestURI,
		}
		if info.OriginalURI == "" {
			info.OriginalURI = r.URL.RequestURI()
		}

		lc := &logger.LogContext{
			RequestNumber: info.Number,
			Method:        r.Method,
			Path:          r.URL.Path,
			ClientIP:      ClientIP(r),
			StartTime:     now,
		}

		ctx := context.WithValue(r.Context(), requestInfoKey, info)
		ctx = logger.WithContext(ctx, lc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// InfoFromContext returns the RequestInfo set by the Correlator, or nil.
func InfoFromContext(ctx context.Context) *RequestInfo {
	info, _ := ctx.Value(requestInfoKey).(*RequestInfo)
	return info
}

// RequestNumber returns the correlation number of the request in ctx.
func RequestNumber(ctx context.Context) (uint64, bool) {
	info := InfoFromContext(ctx)
	if info == nil {
		return 0, false
	}
	return info.Number, true
}

// ClientIP returns the first X-Forwarded-For entry, or the remote address
// without its port.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
