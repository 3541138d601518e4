package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestTraceOperation(t *testing.T) {
	attributes := map[string]interface{}{
		"string_attr":  "value",
		"int_attr":     42,
		"int64_attr":   int64(123),
		"bool_attr":    true,
		"float64_attr": 3.14,
		"unknown_attr": struct{}{},
	}

	spanCtx, span, cleanup := TraceOperation(context.Background(), "test_operation", attributes)

	require.NotNil(t, spanCtx)
	require.NotNil(t, span)
	require.NotNil(t, cleanup)
	cleanup()
}

func TestToAttributes(t *testing.T) {
	attrs := toAttributes(map[string]interface{}{"a": "x", "b": 1, "c": struct{}{}})
	assert.Len(t, attrs, 3)
	for _, kv := range attrs {
		if kv.Key == "c" {
			assert.Equal(t, "unknown_type", kv.Value.AsString())
		}
	}
}

func TestTraceDatabaseOperation(t *testing.T) {
	ctx, span, cleanup := TraceDatabaseOperation(context.Background(), "find", "leads", map[string]string{"status": "new"})
	defer cleanup()

	assert.NotNil(t, ctx)
	assert.NotNil(t, span)
}

func TestTraceDeliveryAndWebhookChange(t *testing.T) {
	_, span, cleanup := TraceDelivery(context.Background(), "whatsapp")
	assert.NotNil(t, span)
	cleanup()

	_, span, cleanup = TraceWebhookChange(context.Background(), "meta", 2)
	assert.NotNil(t, span)
	cleanup()
}

func TestRecordError(t *testing.T) {
	_, span, cleanup := TraceOperation(context.Background(), "op", nil)
	defer cleanup()

	assert.NotPanics(t, func() {
		RecordError(span, errors.New("boom"))
		RecordError(span, nil)
		RecordError(nil, errors.New("boom"))
	})
}

func TestAddSpanAttribute(t *testing.T) {
	_, span, cleanup := TraceOperation(context.Background(), "op", nil)
	defer cleanup()

	assert.NotPanics(t, func() {
		AddSpanAttribute(span, "lead.id", "abc")
		AddSpanAttribute(nil, "lead.id", "abc")
	})

	var noop trace.Span = trace.SpanFromContext(context.Background())
	AddSpanAttribute(noop, "k", 1)
}
