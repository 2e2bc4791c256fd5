// Package telemetry wires OpenTelemetry tracing and metrics into pm.
//
// It is off unless telemetry.enabled is set (PM_TELEMETRY_ENABLED=true).
// With telemetry.stdout, spans and metrics are printed to stderr; with
// telemetry.endpoint (host:port), metrics are pushed over OTLP/HTTP. When
// enabled with neither, spans still go to stderr so that something is
// visible.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationScope = "github.com/nootmuskaat/pm"

const (
	stdoutMetricInterval = 15 * time.Second
	otlpMetricInterval   = 30 * time.Second
)

// Config selects exporters.
type Config struct {
	Enabled  bool
	Stdout   bool
	Endpoint string
}

// providers are the SDK providers installed by Init.
type providers struct {
	traces  *sdktrace.TracerProvider
	metrics *sdkmetric.MeterProvider
}

var active atomic.Pointer[providers]

// Enabled reports whether Init installed SDK providers.
func Enabled() bool {
	return active.Load() != nil
}

// Init installs the global tracer and meter providers. A disabled config
// installs the no-op providers.
func Init(ctx context.Context, cfg Config, serviceName, version string) error {
	if !cfg.Enabled {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		return nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version),
		),
		resource.WithHost(),
		resource.WithProcess(),
	)
	if err != nil {
		return fmt.Errorf("telemetry: resource: %w", err)
	}

	p := &providers{}
	if p.traces, err = newTracerProvider(cfg, res); err != nil {
		return fmt.Errorf("telemetry: tracer provider: %w", err)
	}
	if p.metrics, err = newMeterProvider(ctx, cfg, res); err != nil {
		_ = p.traces.Shutdown(ctx)
		return fmt.Errorf("telemetry: meter provider: %w", err)
	}

	otel.SetTracerProvider(p.traces)
	otel.SetMeterProvider(p.metrics)
	active.Store(p)
	return nil
}

func newTracerProvider(cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if cfg.Stdout || cfg.Endpoint == "" {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint(), stdouttrace.WithWriter(os.Stderr))
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	return sdktrace.NewTracerProvider(opts...), nil
}

func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if cfg.Stdout {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr))
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp,
			sdkmetric.WithInterval(stdoutMetricInterval))))
	}
	if cfg.Endpoint != "" {
		exp, err := buildOTLPMetricExporter(ctx, cfg.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("otlp metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp,
			sdkmetric.WithInterval(otlpMetricInterval))))
	}
	return sdkmetric.NewMeterProvider(opts...), nil
}

// Tracer returns a tracer for name, or for the pm scope when name is empty.
func Tracer(name string) trace.Tracer {
	if name == "" {
		name = instrumentationScope
	}
	return otel.Tracer(name)
}

// Meter returns a meter for name, or for the pm scope when name is empty.
func Meter(name string) metric.Meter {
	if name == "" {
		name = instrumentationScope
	}
	return otel.Meter(name)
}

// Shutdown flushes pending spans and metrics and uninstalls the providers.
// It is safe to call when Init was never called.
func Shutdown(ctx context.Context) error {
	p := active.Swap(nil)
	if p == nil {
		return nil
	}
	return errors.Join(p.traces.Shutdown(ctx), p.metrics.Shutdown(ctx))
}
