package logger

import (
	"context"
	"time"
)

type contextKey struct{}

var logContextKey = contextKey{}

// LogContext holds request-scoped logging fields for the gateway.
type LogContext struct {
	RequestNumber uint64    // correlation number assigned on arrival
	TraceID       string    // OpenTelemetry trace ID
	Method        string    // HTTP/WebDAV method
	Path          string    // original request path
	ClientIP      string    // client address, forwarded-for aware
	Username      string    // authenticated principal, once known
	Root          string    // virtual root the request was dispatched to
	StartTime     time.Time // for duration calculation
}

// WithContext returns a new context carrying lc.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext returns the LogContext stored in ctx, or nil.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// Clone returns a shallow copy of lc.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	c := *lc
	return &c
}

// WithUsername returns a copy with the authenticated user set.
func (lc *LogContext) WithUsername(name string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.Username = name
	}
	return c
}

// WithRoot returns a copy with the dispatched root set.
func (lc *LogContext) WithRoot(root string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.Root = root
	}
	return c
}

// WithTrace returns a copy with the trace ID set.
func (lc *LogContext) WithTrace(traceID string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.TraceID = traceID
	}
	return c
}

// DurationMs returns the time since StartTime in milliseconds.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return Duration(lc.StartTime)
}
