package auth

import (
	"slices"
	"time"
)

// User is an authenticated principal held in the credential cache.
// Values are immutable once cached; callers must not modify them.
type User struct {
	// ID is the identity service account id.
	ID string

	// Name is the login name and the cache key.
	Name string

	// PasswordDigest is the bcrypt digest of the password that succeeded
	// against the identity service.
	PasswordDigest []byte

	// AccessToken is the token issued at login. It is never refreshed.
	AccessToken string

	// Roles are loaded once, right after the first successful login.
	Roles []string

	// AuthenticatedAt is when the entry was inserted, by the cache clock.
	AuthenticatedAt time.Time
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// Username returns the login name.
func (u *User) Username() string {
	return u.Name
}

// IsDefaultUser reports whether u is the anonymous default user. The
// gateway has none, so this is always false.
func (u *User) IsDefaultUser() bool {
	return false
}
