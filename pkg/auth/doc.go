// Package auth is the gateway's credential cache.
//
// A Provider answers the three lookups the WebDAV gate needs: a default user
// (there is none), a user by name (cache only) and a user by name and
// password. The last one consults the remote identity service on a cache
// miss and remembers the result, so a returning client is verified locally
// against a bcrypt digest without a network round trip.
//
// Entries are created only after a successful remote login and are never
// modified. They leave the cache through TTL expiry, explicit invalidation,
// LRU eviction when a bound is configured, or process exit.
//
// Concurrent first logins for the same name are not serialized by default:
// each one reaches the identity service and the last insert wins. Enable
// Config.DedupeInflight to collapse them into one remote call.
package auth
