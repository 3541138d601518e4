package utils

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "app-leads"

func toAttributes(attributes map[string]interface{}) []attribute.KeyValue {
	otelAttrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			otelAttrs = append(otelAttrs, attribute.String(k, val))
		case int:
			otelAttrs = append(otelAttrs, attribute.Int(k, val))
		case int64:
			otelAttrs = append(otelAttrs, attribute.Int64(k, val))
		case bool:
			otelAttrs = append(otelAttrs, attribute.Bool(k, val))
		case float64:
			otelAttrs = append(otelAttrs, attribute.Float64(k, val))
		default:
			otelAttrs = append(otelAttrs, attribute.String(k, "unknown_type"))
		}
	}
	return otelAttrs
}

// TraceOperation traces an operation with timing and attributes
func TraceOperation(ctx context.Context, operationName string, attributes map[string]interface{}) (context.Context, trace.Span, func()) {
	start := time.Now()

	spanCtx, span := otel.Tracer(tracerName).Start(ctx, operationName, trace.WithAttributes(toAttributes(attributes)...))

	cleanup := func() {
		duration := time.Since(start)
		span.SetAttributes(
			attribute.Int64("duration_ms", duration.Milliseconds()),
			attribute.String("duration", duration.String()),
		)
		span.End()
	}

	return spanCtx, span, cleanup
}

// TraceDatabaseOperation traces a database operation
func TraceDatabaseOperation(ctx context.Context, operation, collection string, filter interface{}) (context.Context, trace.Span, func()) {
	attributes := map[string]interface{}{
		"db.operation":  operation,
		"db.collection": collection,
		"db.system":     "mongodb",
	}

	if filter != nil {
		attributes["db.filter"] = "present"
	}

	return TraceOperation(ctx, "db."+operation, attributes)
}

// TraceDelivery traces one verification code delivery attempt
func TraceDelivery(ctx context.Context, channel string) (context.Context, trace.Span, func()) {
	return TraceOperation(ctx, "delivery."+channel, map[string]interface{}{
		"delivery.channel": channel,
	})
}

// TraceWebhookChange traces the processing of one webhook change
func TraceWebhookChange(ctx context.Context, kind string, index int) (context.Context, trace.Span, func()) {
	return TraceOperation(ctx, "webhook.change", map[string]interface{}{
		"webhook.kind":  kind,
		"webhook.index": index,
	})
}

// RecordError records an error on the span and marks it failed
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddSpanAttribute adds a single attribute to the span
func AddSpanAttribute(span trace.Span, key string, value interface{}) {
	if span == nil {
		return
	}
	span.SetAttributes(toAttributes(map[string]interface{}{key: value})...)
}
