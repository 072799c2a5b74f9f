package middleware

import (
	"fmt"
	"net/http"

	"github.com/marmos91/dittodav/internal/logger"
)

// RequestLog writes one line per request before it is handled:
//
//	Calling PROPFIND /remote.php/webdav/ --> new URL: /remote.php/webdav/ - Number: 8
func RequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if info := InfoFromContext(r.Context()); info != nil {
			logger.InfoCtx(r.Context(), fmt.Sprintf("Calling %s %s --> new URL: %s - Number: %d",
				r.Method, info.OriginalURI, r.URL.RequestURI(), info.Number))
		}
		next.ServeHTTP(w, r)
	})
}
