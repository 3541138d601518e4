package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/agencia-digital/app-leads/internal/config"
	"github.com/agencia-digital/app-leads/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	serviceName    = "app-leads"
	serviceVersion = "v1.0.0"
)

var tracerProvider *sdktrace.TracerProvider

// TracingSettings is what the lead pipeline exports spans with
type TracingSettings struct {
	Endpoint    string
	Environment string
	SampleRatio float64
}

func tracingSettings(cfg *config.Config) TracingSettings {
	return TracingSettings{
		Endpoint:    cfg.TracingEndpoint,
		Environment: cfg.Environment,
		SampleRatio: cfg.TracingSampleRatio,
	}
}

// rootSampler honours the caller's decision and samples new traces by ratio
func rootSampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

// NewTracerProvider builds a batching provider that ships spans over OTLP
// gRPC. The exporter dials lazily, so an unreachable collector is not an
// error here.
func NewTracerProvider(ctx context.Context, settings TracingSettings) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(
		otlptracegrpc.WithEndpoint(settings.Endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	))
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
			semconv.DeploymentEnvironmentKey.String(settings.Environment),
		),
	)
	if err != nil {
		_ = exporter.Shutdown(ctx)
		return nil, fmt.Errorf("tracing resource: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter,
			sdktrace.WithMaxExportBatchSize(512),
			sdktrace.WithBatchTimeout(10*time.Second),
		),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(rootSampler(settings.SampleRatio)),
	), nil
}

// InitTracer installs the global tracer provider when TRACING_ENABLED is set.
// Failures are logged and leave the no-op provider in place.
func InitTracer() {
	if config.AppConfig == nil || !config.AppConfig.TracingEnabled {
		logging.Logger.Info("tracing is disabled")
		return
	}

	settings := tracingSettings(config.AppConfig)
	provider, err := NewTracerProvider(context.Background(), settings)
	if err != nil {
		logging.Logger.Error("failed to initialize tracing", zap.Error(err))
		return
	}

	tracerProvider = provider
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logging.Logger.Info("tracer initialized",
		zap.String("endpoint", settings.Endpoint),
		zap.Float64("sample_ratio", settings.SampleRatio))
}

// ShutdownTracer flushes pending spans
func ShutdownTracer() {
	if tracerProvider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := tracerProvider.Shutdown(ctx); err != nil {
		logging.Logger.Error("failed to shutdown tracer provider", zap.Error(err))
	}
	tracerProvider = nil
}
