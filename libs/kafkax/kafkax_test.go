package kafkax

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, SplitBrokers(" kafka-1:9092,, kafka-2:9092 "))
	assert.Empty(t, SplitBrokers(""))
}

func TestEventHeaders(t *testing.T) {
	headers := EventHeaders("evt-1", "booking.appointment.created.v1")
	assert.Equal(t, "evt-1", HeaderValue(headers, HeaderEventID))
	assert.Equal(t, "booking.appointment.created.v1", HeaderValue(headers, HeaderEventType))
	assert.Empty(t, HeaderValue(headers, "missing"))
}

func TestInjectTraceHeaders(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	ctx := trace.ContextWithRemoteSpanContext(context.Background(), sc)

	headers := InjectTraceHeaders(ctx, EventHeaders("evt-1", "topic"))
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", HeaderValue(headers, "traceparent"))
	assert.Equal(t, "evt-1", HeaderValue(headers, HeaderEventID))
}

func TestReadyCheck(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, ReadyCheck("", false)(ctx))
	assert.ErrorIs(t, ReadyCheck(" , ", true)(ctx), ErrNoBrokers)

	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	err := ReadyCheck("127.0.0.1:1", false)(ctx)
	assert.ErrorContains(t, err, "127.0.0.1:1")
}
