package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/kbukum/cachekit/logger"
)

// ExportConfig configures OTLP/HTTP export of spans and metrics. Nothing is
// exported while Endpoint is empty.
type ExportConfig struct {
	// Endpoint is the collector host:port, e.g. "localhost:4318".
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
	// ServiceVersion and Environment are resource attributes, normally
	// copied from the service config.
	ServiceVersion string `yaml:"-" mapstructure:"-"`
	Environment    string `yaml:"-" mapstructure:"-"`
	// SampleRate is the fraction of traces kept, clamped to [0, 1].
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	// Interval is the metric export period.
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
}

// ApplyDefaults samples every trace and exports metrics every 15s.
func (c *ExportConfig) ApplyDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = 1
	}
	if c.Interval == 0 {
		c.Interval = 15 * time.Second
	}
}

// Enabled reports whether an endpoint is configured.
func (c ExportConfig) Enabled() bool { return c.Endpoint != "" }

// Exporter owns the providers installed by Export.
type Exporter struct {
	traces  *sdktrace.TracerProvider
	metrics *sdkmetric.MeterProvider
}

// Export installs global tracer and/or meter providers that send to
// cfg.Endpoint. Instruments and tracers obtained from the global providers
// before the call start exporting too. Call Shutdown to flush.
func Export(ctx context.Context, serviceName string, cfg ExportConfig, traces, metrics bool) (*Exporter, error) {
	cfg.ApplyDefaults()
	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	e := &Exporter{}
	if traces {
		if e.traces, err = tracerProvider(ctx, cfg, res); err != nil {
			return nil, err
		}
		otel.SetTracerProvider(e.traces)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}
	if metrics {
		if e.metrics, err = meterProvider(ctx, cfg, res); err != nil {
			if e.traces != nil {
				_ = e.traces.Shutdown(ctx)
			}
			return nil, err
		}
		otel.SetMeterProvider(e.metrics)
	}

	logger.Info("telemetry export started", logger.Fields(
		logger.FieldService, serviceName,
		"endpoint", cfg.Endpoint,
		"traces", traces,
		"metrics", metrics,
	))
	return e, nil
}

func tracerProvider(ctx context.Context, cfg ExportConfig, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}

	sampler := sdktrace.TraceIDRatioBased(cfg.SampleRate)
	switch {
	case cfg.SampleRate >= 1:
		sampler = sdktrace.AlwaysSample()
	case cfg.SampleRate <= 0:
		sampler = sdktrace.NeverSample()
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
	), nil
}

func meterProvider(ctx context.Context, cfg ExportConfig, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.Interval))),
		sdkmetric.WithResource(res),
	), nil
}

// Shutdown flushes pending spans and metrics and stops both providers.
func (e *Exporter) Shutdown(ctx context.Context) error {
	if e == nil {
		return nil
	}
	var result error
	if e.traces != nil {
		if err := e.traces.Shutdown(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("traces: %w", err))
		}
	}
	if e.metrics != nil {
		if err := e.metrics.Shutdown(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("metrics: %w", err))
		}
	}
	return result
}
