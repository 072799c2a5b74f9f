package compat

import (
	"net/http"
	"strconv"

	"github.com/marmos91/dittodav/internal/logger"
)

// ContentTypeJSON is sent with every Respond document.
const ContentTypeJSON = "application/json; charset=utf-8"

// Metrics receives shim events. A nil Metrics disables recording.
type Metrics interface {
	RecordProbe(path string, action string)
}

// Shim is HTTP middleware that answers client probes from a Table.
type Shim struct {
	table   Table
	metrics Metrics
}

// New creates a Shim. metrics may be nil.
func New(table Table, metrics Metrics) *Shim {
	return &Shim{table: table, metrics: metrics}
}

// Table returns the routes in match order.
func (s *Shim) Table() Table {
	return s.table
}

// Middleware short-circuits matched probes and forwards everything else.
func (s *Shim) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, ok := s.table.Match(r.Method, r.URL.EscapedPath())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		if route.Message != "" {
			logger.InfoCtx(r.Context(), route.Message)
		}
		if s.metrics != nil {
			s.metrics.RecordProbe(route.Path, route.Action.Kind.String())
		}

		switch route.Action.Kind {
		case Respond:
			body := route.Action.Document.Bytes()
			w.Header().Set("Content-Type", ContentTypeJSON)
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			w.WriteHeader(http.StatusOK)
			if r.Method != http.MethodHead {
				_, _ = w.Write(body)
			}
		case Empty:
			w.Header().Set("Content-Length", "0")
			w.WriteHeader(http.StatusOK)
		default:
			next.ServeHTTP(w, r)
		}
	})
}
