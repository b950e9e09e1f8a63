package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/gamesops/gamesdb-go/gamesdb/oteladapters"
)

func Test_TracingCollector_StartAndFinishSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := provider.Tracer("test")

	collector := oteladapters.NewTracingCollector(tracer)

	ctx, span := collector.StartSpan(context.Background(), "book", map[string]string{
		"operation": "book",
	})
	require.NotNil(t, span, "StartSpan should return a span context")
	require.NotNil(t, ctx, "StartSpan should return a context")

	collector.FinishSpan(span, "success", map[string]string{"duration_ms": "1.50"})

	spans := recorder.Ended()
	require.Len(t, spans, 1, "Exactly one span should have ended")

	ended := spans[0]
	assert.Equal(t, "book", ended.Name(), "Span name should match the operation")
	assert.Equal(t, codes.Ok, ended.Status().Code, "Success status should map to codes.Ok")

	attrs := ended.Attributes()
	assert.Contains(t, attrs, attribute.String("operation", "book"))
	assert.Contains(t, attrs, attribute.String("duration_ms", "1.50"))
}

func Test_TracingCollector_ErrorStatus(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := provider.Tracer("test")

	collector := oteladapters.NewTracingCollector(tracer)

	_, span := collector.StartSpan(context.Background(), "book", nil)
	collector.FinishSpan(span, "error", map[string]string{"error_type": "capacity_exceeded"})

	spans := recorder.Ended()
	require.Len(t, spans, 1, "Exactly one span should have ended")

	ended := spans[0]
	assert.Equal(t, codes.Error, ended.Status().Code, "Error status should map to codes.Error")
	assert.Contains(t, ended.Attributes(), attribute.String("error_type", "capacity_exceeded"))
}

func Test_SpanContext_AddAttribute(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := provider.Tracer("test")

	collector := oteladapters.NewTracingCollector(tracer)

	_, span := collector.StartSpan(context.Background(), "find_journeys", nil)
	span.AddAttribute("row_count", "3")
	collector.FinishSpan(span, "success", nil)

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	assert.Contains(t, spans[0].Attributes(), attribute.String("row_count", "3"))
}
