// Пакет telemetry — трейсинг OpenTelemetry: входящие HTTP-запросы (otelgin)
// и исходящие вызовы маркетплейса (otelhttp) в одном трейсе.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// DefaultEndpoint — OTLP/HTTP коллектор по умолчанию.
const DefaultEndpoint = "localhost:4318"

// Shutdown — остановка провайдера с выгрузкой накопленных спанов.
type Shutdown func(context.Context) error

// SetupTracing — OTLP/HTTP экспорт без TLS, ParentBased(ratio) семплинг,
// глобальные провайдер и пропагаторы (TraceContext + Baggage).
func SetupTracing(
	ctx context.Context,
	serviceName, endpoint string,
	sampleRatio float64,
) (Shutdown, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(Sampler(sampleRatio)),
		sdktrace.WithResource(Resource(serviceName)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

// Sampler — доля трейсов в [0..1]; решение родителя (входящий traceparent) сохраняется.
func Sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

// Resource — атрибуты сервиса для всех спанов.
func Resource(serviceName string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceNamespace("marketplace-sync"),
		attribute.String("telemetry.sdk", "opentelemetry"),
	)
}
