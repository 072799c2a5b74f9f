// Package audit records every request that reaches the protocol layer,
// together with the exact bytes exchanged, as one structured log record.
//
// The wrapper is transparent: the client receives the same status, headers
// and body bytes, in the same order, as without it. Failures while building
// or emitting a record are swallowed.
package audit

import (
	"context"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/marmos91/dittodav/internal/logger"
	gwmiddleware "github.com/marmos91/dittodav/pkg/gateway/middleware"
)

// Config configures the audit wrapper.
type Config struct {
	// Enabled turns auditing on.
	Enabled bool

	// MaxBodySize bounds how many bytes of each body are logged. Zero logs
	// bodies in full. The client always receives the full body.
	MaxBodySize int64
}

// Metrics receives audited request observations. A nil Metrics disables
// recording.
type Metrics interface {
	ObserveRequest(method string, status int, bytes int, d time.Duration)
}

// Sink consumes finished records.
type Sink func(ctx context.Context, rec *Record)

// LogSink writes records through the process logger at WARN.
func LogSink(_ context.Context, rec *Record) {
	logger.Warn("Request audit", rec.Attrs()...)
}

// Auditor wraps handlers with request/response capture.
type Auditor struct {
	cfg      Config
	instance string
	sink     Sink
	metrics  Metrics
	now      func() time.Time
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithSink replaces LogSink.
func WithSink(s Sink) Option {
	return func(a *Auditor) {
		a.sink = s
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(a *Auditor) {
		a.metrics = m
	}
}

// WithInstance overrides the generated process instance id.
func WithInstance(id string) Option {
	return func(a *Auditor) {
		a.instance = id
	}
}

// New creates an Auditor.
func New(cfg Config, opts ...Option) *Auditor {
	a := &Auditor{
		cfg:      cfg,
		instance: uuid.NewString(),
		sink:     LogSink,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Instance returns the process instance id stamped on every record.
func (a *Auditor) Instance() string {
	return a.instance
}

// Middleware captures the exchange and emits one record per request.
func (a *Auditor) Middleware(next http.Handler) http.Handler {
	if !a.cfg.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := a.now()

		reqCapture := newCaptureBuffer(a.cfg.MaxBodySize)
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = newTeeBody(r.Body, reqCapture)
		}

		respCapture := newCaptureBuffer(a.cfg.MaxBodySize)
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Tee(respCapture)

		defer func() {
			if v := recover(); v != nil {
				a.emit(r, ww, reqCapture, respCapture, start, http.StatusInternalServerError)
				panic(v)
			}
			a.emit(r, ww, reqCapture, respCapture, start, http.StatusOK)
		}()

		next.ServeHTTP(ww, r)
	})
}

// emit builds and sinks the record. unwritten is the status reported when the
// handler never wrote a header: 200 for a normal return, 500 when it
// panicked and the recoverer will answer instead.
func (a *Auditor) emit(r *http.Request, ww chimiddleware.WrapResponseWriter, req, resp *captureBuffer, start time.Time, unwritten int) {
	defer func() {
		if v := recover(); v != nil {
			logger.Debug("Audit record dropped", "panic", v)
		}
	}()

	ctx := r.Context()
	elapsed := a.now().Sub(start)

	rec := &Record{
		Time:         a.now().UTC().Format(http.TimeFormat),
		FromIP:       gwmiddleware.ClientIP(r),
		Method:       r.Method,
		OriginalURI:  r.RequestURI,
		LaterURI:     r.URL.RequestURI(),
		RequestData:  req.String(),
		ResponseData: resp.String(),
		Referer:      r.Header.Get("Referer"),
		UserAgent:    r.Header.Get("User-Agent"),
		ContentType:  ww.Header().Get("Content-Type"),
		Status:       ww.Status(),
		Bytes:        ww.BytesWritten(),
		DurationMs:   float64(elapsed.Microseconds()) / 1000.0,
		Instance:     a.instance,
		Truncated:    req.truncated || resp.truncated,
	}
	if rec.Status == 0 {
		rec.Status = unwritten
	}
	if info := gwmiddleware.InfoFromContext(ctx); info != nil {
		rec.Number = info.Number
		rec.OriginalURI = info.OriginalURI
		rec.LaterURI = info.DispatchedPath()
	}
	rec.URI = rec.LaterURI

	if a.metrics != nil {
		a.metrics.ObserveRequest(rec.Method, rec.Status, rec.Bytes, elapsed)
	}
	a.sink(ctx, rec)
}
