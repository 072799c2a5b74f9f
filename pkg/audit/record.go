package audit

import (
	"log/slog"

	"github.com/marmos91/dittodav/internal/logger"
)

// Record is one audited request/response exchange.
type Record struct {
	Number       uint64  `json:"number"`
	Time         string  `json:"time"`
	FromIP       string  `json:"from_ip"`
	Method       string  `json:"method"`
	OriginalURI  string  `json:"original_uri"`
	LaterURI     string  `json:"later_uri"`
	URI          string  `json:"uri"`
	RequestData  string  `json:"request_data"`
	ResponseData string  `json:"response_data"`
	Referer      string  `json:"referer"`
	UserAgent    string  `json:"ua"`
	ContentType  string  `json:"content_type"`
	Status       int     `json:"status"`
	Bytes        int     `json:"bytes"`
	DurationMs   float64 `json:"duration_ms"`
	Instance     string  `json:"instance"`
	Truncated    bool    `json:"truncated,omitempty"`
}

// Attrs renders the record as structured log attributes in field order.
func (r *Record) Attrs() []any {
	attrs := []any{
		slog.Uint64(logger.KeyRequestNumber, r.Number),
		slog.String("time", r.Time),
		slog.String("from_ip", r.FromIP),
		slog.String(logger.KeyMethod, r.Method),
		slog.String("original_uri", r.OriginalURI),
		slog.String(logger.KeyLaterPath, r.LaterURI),
		slog.String("uri", r.URI),
		slog.String("request_data", r.RequestData),
		slog.String("response_data", r.ResponseData),
		slog.String(logger.KeyReferer, r.Referer),
		slog.String(logger.KeyUserAgent, r.UserAgent),
		slog.String(logger.KeyContentType, r.ContentType),
		slog.Int(logger.KeyStatus, r.Status),
		slog.Int(logger.KeyBytes, r.Bytes),
		logger.DurationMs(r.DurationMs),
		slog.String(logger.KeyInstance, r.Instance),
	}
	if r.Truncated {
		attrs = append(attrs, slog.Bool("truncated", true))
	}
	return attrs
}
