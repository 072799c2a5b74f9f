package identity

import (
	"fmt"
	"net/http"
)

// ServiceError reports that the identity service could not be reached or
// answered with something other than a login decision (5xx, a 4xx other
// than 401/403, garbage body).
// A declined login is not a ServiceError.
type ServiceError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("identity %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("identity %s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("identity %s: status %d: %s", e.Op, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("identity %s: status %d", e.Op, e.StatusCode)
	}
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// isDecline reports whether an HTTP status is the service refusing the
// credentials. Any other 4xx points at the gateway or its configuration.
func isDecline(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// snippet trims a response body for inclusion in an error message.
func snippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
