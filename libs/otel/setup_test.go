package otelx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.25")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")

	cfg := ConfigFromEnv("booking-service")
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 0.25, cfg.SampleRatio)
	assert.Equal(t, "collector:4317", cfg.OTLPEndpoint)
	assert.Equal(t, "booking-service", cfg.ServiceName)

	t.Setenv("OTEL_SAMPLING_RATIO", "7")
	assert.Equal(t, 1.0, ConfigFromEnv("booking-service").SampleRatio)
}

func TestTraceContextRoundTrip(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	defer func() { _ = shutdown(context.Background()) }()

	const traceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	ctx := TraceContext{Traceparent: traceparent, Tracestate: "salon=1"}.Into(context.Background())
	sc := trace.SpanContextFromContext(ctx)
	require.True(t, sc.IsValid())
	assert.True(t, sc.IsRemote())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", sc.TraceID().String())

	got := CaptureTraceContext(ctx)
	assert.Equal(t, traceparent, got.Traceparent)
	assert.Equal(t, "salon=1", got.Tracestate)

	assert.Equal(t, context.Background(), TraceContext{}.Into(context.Background()))
	assert.True(t, CaptureTraceContext(context.Background()).Empty())
}
