package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "dittodav", cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Init(ctx, DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(ctx))
	assert.False(t, IsEnabled())
}

func TestStartSpanWithoutInit(t *testing.T) {
	stateMu.Lock()
	tracer = nil
	stateMu.Unlock()

	ctx, span := StartSpan(context.Background(), SpanAuthenticate)
	require.NotNil(t, ctx)
	require.NotNil(t, span)
	span.End()

	assert.Empty(t, TraceID(ctx))
	assert.NotPanics(t, func() {
		RecordError(ctx, errors.New("boom"))
		RecordError(ctx, nil)
		SetAttributes(ctx, Username("alice"))
	})
}

func TestRecordErrorMarksSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	stateMu.Lock()
	prev := tracer
	tracer = provider.Tracer("test")
	stateMu.Unlock()
	t.Cleanup(func() {
		stateMu.Lock()
		tracer = prev
		stateMu.Unlock()
	})

	ctx, span := StartSpan(context.Background(), SpanLoadRoles)
	assert.NotEmpty(t, TraceID(ctx))
	SetAttributes(ctx, UserID("u-1"), RoleCount(2), CacheHit(false))
	RecordError(ctx, errors.New("identity service unavailable"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, SpanLoadRoles, spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Len(t, spans[0].Attributes(), 3)
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1.5).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestProfiling(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		shutdown, err := InitProfiling(ProfilingConfig{Enabled: false})
		require.NoError(t, err)
		assert.NoError(t, shutdown())
		assert.False(t, IsProfilingEnabled())
	})

	t.Run("RejectsUnknownType", func(t *testing.T) {
		_, err := InitProfiling(ProfilingConfig{Enabled: true, ProfileTypes: []string{"cpu", "heat"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "heat")
	})

	t.Run("ValidProfileType", func(t *testing.T) {
		assert.True(t, ValidProfileType("cpu"))
		assert.True(t, ValidProfileType("Mutex_Count"))
		assert.False(t, ValidProfileType("wall"))
	})
}
