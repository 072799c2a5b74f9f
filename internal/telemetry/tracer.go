package telemetry

import "go.opentelemetry.io/otel/attribute"

// Attribute keys. Gateway-specific keys use the "dav." and "identity." prefixes.
const (
	AttrClientIP      = "client.ip"
	AttrHTTPMethod    = "http.request.method"
	AttrHTTPPath      = "url.path"
	AttrHTTPStatus    = "http.response.status_code"
	AttrRequestNumber = "dav.request_number"
	AttrRoot          = "dav.root"
	AttrShimRoute     = "dav.shim_route"
	AttrUsername      = "user.name"
	AttrUserID        = "user.id"
	AttrCacheHit      = "cache.hit"
	AttrRoleCount     = "identity.role_count"
)

// Span names: <component>.<operation>
const (
	SpanRequest       = "dav.request"
	SpanAuthenticate  = "identity.authenticate"
	SpanLoadRoles     = "identity.load_roles"
	SpanResolveByPass = "auth.resolve_by_password"
)

// ClientIP returns an attribute for the client address.
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// Username returns an attribute for the principal name.
func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

// UserID returns an attribute for the identity-service user id.
func UserID(id string) attribute.KeyValue {
	return attribute.String(AttrUserID, id)
}

// CacheHit returns an attribute recording a credential cache hit.
func CacheHit(hit bool) attribute.KeyValue {
	return attribute.Bool(AttrCacheHit, hit)
}

// RequestNumber returns an attribute for the correlation number.
func RequestNumber(n uint64) attribute.KeyValue {
	return attribute.Int64(AttrRequestNumber, int64(n))
}

// Root returns an attribute for the dispatched virtual root.
func Root(name string) attribute.KeyValue {
	return attribute.String(AttrRoot, name)
}

// RoleCount returns an attribute for the number of loaded roles.
func RoleCount(n int) attribute.KeyValue {
	return attribute.Int(AttrRoleCount, n)
}
