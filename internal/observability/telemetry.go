// Package observability wires OpenTelemetry trace and metric providers from
// configuration and registers them globally for the process lifetime.
package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bazaar/internal/config"
)

const (
	serviceVersion  = "0.1.0"
	shutdownTimeout = 10 * time.Second
)

// Module exposes the telemetry providers to Fx.
var Module = fx.Provide(NewTelemetry)

// Telemetry bundles the tracer and meter providers plus the scrape handler
// for the prometheus exporter.
type Telemetry struct {
	traces  *sdktrace.TracerProvider
	metrics *sdkmetric.MeterProvider
	scrape  http.Handler
}

// TracingEnabled reports whether a tracer provider is installed.
func (t *Telemetry) TracingEnabled() bool { return t.traces != nil }

// MetricsHandler returns the prometheus scrape handler, or nil when the
// prometheus exporter is not in use.
func (t *Telemetry) MetricsHandler() http.Handler { return t.scrape }

// NewTelemetry builds providers per the observability config and installs
// them as the global otel providers on start.
func NewTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Telemetry, error) {
	obs := cfg.Observability

	res, err := sdkresource.New(context.Background(),
		sdkresource.WithFromEnv(),
		sdkresource.WithHost(),
		sdkresource.WithAttributes(
			semconv.ServiceName(obs.ServiceName),
			semconv.ServiceVersion(serviceVersion),
			attribute.String("service.environment", obs.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	tel := &Telemetry{}

	if obs.EnableTracing {
		exporter, err := newTraceExporter(obs, logger)
		if err != nil {
			return nil, err
		}
		if exporter != nil {
			tel.traces = sdktrace.NewTracerProvider(
				sdktrace.WithBatcher(exporter),
				sdktrace.WithResource(res),
			)
		}
	}

	if obs.EnableMetrics {
		if err := tel.initMetrics(obs, res, logger); err != nil {
			return nil, err
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			tel.install()
			return nil
		},
		OnStop: tel.shutdown,
	})

	return tel, nil
}

func (t *Telemetry) install() {
	if t.traces != nil {
		otel.SetTracerProvider(t.traces)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}
	if t.metrics != nil {
		otel.SetMeterProvider(t.metrics)
	}
}

func (t *Telemetry) shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs error
	if t.traces != nil {
		errs = errors.Join(errs, t.traces.Shutdown(ctx))
	}
	if t.metrics != nil {
		errs = errors.Join(errs, t.metrics.Shutdown(ctx))
	}
	return errs
}

func newTraceExporter(obs config.Observability, logger *zap.Logger) (sdktrace.SpanExporter, error) {
	switch obs.TraceExporter {
	case "stdout":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		if obs.TraceEndpoint == "" {
			return nil, fmt.Errorf("OBS_OTLP_ENDPOINT must be set for otlp exporter")
		}
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(obs.TraceEndpoint)}
		if obs.TraceInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return otlptracegrpc.New(ctx, opts...)
	default:
		logger.Warn("unsupported trace exporter; tracing disabled",
			zap.String("exporter", obs.TraceExporter))
		return nil, nil
	}
}

func (t *Telemetry) initMetrics(obs config.Observability, res *sdkresource.Resource, logger *zap.Logger) error {
	switch obs.MetricsExporter {
	case "prometheus":
		exporter, err := promexporter.New(promexporter.WithRegisterer(prometheus.DefaultRegisterer))
		if err != nil {
			return err
		}
		t.metrics = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(exporter),
			sdkmetric.WithResource(res),
		)
		t.scrape = promhttp.Handler()
	case "stdout":
		exporter, err := stdoutmetric.New(stdoutmetric.WithPrettyPrint(), stdoutmetric.WithWriter(os.Stdout))
		if err != nil {
			return err
		}
		t.metrics = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(30*time.Second))),
			sdkmetric.WithResource(res),
		)
	default:
		logger.Warn("unsupported metrics exporter; metrics disabled",
			zap.String("exporter", obs.MetricsExporter))
	}
	return nil
}
