package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// claimKeys are checked in order for the account id.
var claimKeys = []string{"userId", "accountId", "sub"}

// userIDFromToken reads the account id from the access token's claims
// without verifying the signature. Returns "" if no id claim is present.
func userIDFromToken(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	for _, key := range claimKeys {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
