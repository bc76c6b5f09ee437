package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type exporterConfig struct {
	// Protocol is either "grpc" or "http", it defaults to "http".
	Protocol string            `json:"protocol"`
	Endpoint string            `json:"endpoint"`
	Headers  map[string]string `json:"headers"`
}

type config struct {
	Traces  exporterConfig `json:"traces"`
	Metrics exporterConfig `json:"metrics"`
	// MetricInterval is the export period in seconds.
	MetricInterval int `json:"metric_interval"`
}

func (c exporterConfig) grpc() (bool, error) {
	switch c.Protocol {
	case "grpc":
		return true, nil
	case "", "http":
		return false, nil
	}
	return false, fmt.Errorf("unknown otlp protocol %q", c.Protocol)
}

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}

func newTraceProvider(ctx context.Context, r *resource.Resource, c config) (*trace.TracerProvider, error) {
	exporter, err := newSpanExporter(ctx, c.Traces)
	if err != nil {
		return nil, err
	}
	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(r),
	), nil
}

func newSpanExporter(ctx context.Context, c exporterConfig) (trace.SpanExporter, error) {
	useGrpc, err := c.grpc()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	slog.Info(
		"span exporter initialized",
		"protocol", c.Protocol,
		"endpoint", c.Endpoint,
		"headers", len(c.Headers) > 0,
	)
	if useGrpc {
		return otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithEndpointURL(c.Endpoint),
			otlptracegrpc.WithHeaders(c.Headers),
		)
	}
	return otlptracehttp.New(
		ctx,
		otlptracehttp.WithEndpointURL(c.Endpoint),
		otlptracehttp.WithHeaders(c.Headers),
	)
}

func newMetricProvider(ctx context.Context, r *resource.Resource, c config) (*metric.MeterProvider, error) {
	exporter, err := newMetricExporter(ctx, c.Metrics)
	if err != nil {
		return nil, err
	}

	interval := time.Duration(c.MetricInterval) * time.Second
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(interval))),
		metric.WithResource(r),
	), nil
}

func newMetricExporter(ctx context.Context, c exporterConfig) (metric.Exporter, error) {
	useGrpc, err := c.grpc()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	slog.Info(
		"metric exporter initialized",
		"protocol", c.Protocol,
		"endpoint", c.Endpoint,
		"headers", len(c.Headers) > 0,
	)
	if useGrpc {
		return otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithEndpointURL(c.Endpoint),
			otlpmetricgrpc.WithHeaders(c.Headers),
		)
	}
	return otlpmetrichttp.New(
		ctx,
		otlpmetrichttp.WithEndpointURL(c.Endpoint),
		otlpmetrichttp.WithHeaders(c.Headers),
	)
}
