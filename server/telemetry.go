package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// telemetry is the per server metrics and tracing pipeline
type telemetry struct {
	registry    *prometheus.Registry
	meters      *sdkmetric.MeterProvider
	tracers     *sdktrace.TracerProvider
	propagators propagation.TextMapPropagator
	latency     metric.Int64Histogram
}

func newTelemetry(ctx context.Context, c *Config) (*telemetry, error) {
	res := resource.NewSchemaless(attribute.String("service.name", c.Name))

	reg := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	err = runtime.Start(runtime.WithMeterProvider(mp))
	if err != nil {
		return nil, fmt.Errorf("start runtime metrics: %w", err)
	}
	latency, err := mp.Meter(c.Name).Int64Histogram(
		"request_latency",
		metric.WithDescription("http and grpc request serve latency"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 50, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("create latency histogram: %w", err)
	}

	topts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if c.TraceEndpoint != "" {
		exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(c.TraceEndpoint))
		if err != nil {
			return nil, fmt.Errorf("create trace exporter: %w", err)
		}
		topts = append(topts, sdktrace.WithBatcher(exp))
	}

	return &telemetry{
		registry: reg,
		meters:   mp,
		tracers:  sdktrace.NewTracerProvider(topts...),
		propagators: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
			b3.New(),
		),
		latency: latency,
	}, nil
}

// shutdown flushes pending spans and stops the providers
func (t *telemetry) shutdown(ctx context.Context) error {
	return errors.Join(
		t.tracers.Shutdown(ctx),
		t.meters.Shutdown(ctx),
	)
}
