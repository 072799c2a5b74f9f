package logger

import "log/slog"

// Standard field keys. Use these consistently so log lines can be joined and queried.
const (
	// Correlation
	KeyRequestNumber = "number"   // per-process request sequence number
	KeyTraceID       = "trace_id" // OpenTelemetry trace ID
	KeyInstance      = "instance" // process instance ID, disambiguates restarts

	// HTTP / WebDAV
	KeyMethod      = "method"
	KeyPath        = "path"
	KeyLaterPath   = "later_uri"
	KeyStatus      = "status"
	KeyBytes       = "bytes"
	KeyContentType = "content_type"
	KeyUserAgent   = "ua"
	KeyReferer     = "referer"

	// Client identification
	KeyClientIP = "client_ip"
	KeyUsername = "username"
	KeyUserID   = "user_id"
	KeyRoles    = "roles"

	// Mounts
	KeyRoot    = "root"
	KeyBackend = "backend"

	// Identity service
	KeyEndpoint = "endpoint"
	KeyAttempt  = "attempt"

	// Cache
	KeyCacheHit  = "cache_hit"
	KeyCacheSize = "cache_size"
	KeyEvicted   = "evicted"

	// Operation metadata
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyReason     = "reason"
)

// Err returns a slog.Attr for an error. A nil error yields an empty attr, which handlers drop.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Username returns a slog.Attr for a principal name.
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// Root returns a slog.Attr for a virtual root name.
func Root(name string) slog.Attr {
	return slog.String(KeyRoot, name)
}

// RequestNumber returns a slog.Attr for the correlation number.
func RequestNumber(n uint64) slog.Attr {
	return slog.Uint64(KeyRequestNumber, n)
}

// DurationMs returns a slog.Attr for a duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}
