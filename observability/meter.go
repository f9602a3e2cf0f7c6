package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Instrument names.
const (
	MetricSelectionTotal    = "cachekit.selection.total"
	MetricSelectionDuration = "cachekit.selection.duration"
	MetricRankCalls         = "cachekit.selection.rank_calls"
	MetricStoresActive      = "cachekit.store.active"
	MetricErrorTotal        = "cachekit.error.total"
)

// Metrics holds the instruments cachekit records.
type Metrics struct {
	selectionTotal    metric.Int64Counter
	selectionDuration metric.Float64Histogram
	rankCalls         metric.Int64Counter
	storesActive      metric.Int64UpDownCounter
	errorTotal        metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	selectionTotal, err := meter.Int64Counter(MetricSelectionTotal,
		metric.WithDescription("Provider selections by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricSelectionTotal, err)
	}

	selectionDuration, err := meter.Float64Histogram(MetricSelectionDuration,
		metric.WithDescription("Duration of provider selection in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricSelectionDuration, err)
	}

	rankCalls, err := meter.Int64Counter(MetricRankCalls,
		metric.WithDescription("Candidates ranked during selection"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRankCalls, err)
	}

	storesActive, err := meter.Int64UpDownCounter(MetricStoresActive,
		metric.WithDescription("Stores created and not yet released, by provider"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricStoresActive, err)
	}

	errorTotal, err := meter.Int64Counter(MetricErrorTotal,
		metric.WithDescription("Errors by type and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricErrorTotal, err)
	}

	return &Metrics{
		selectionTotal:    selectionTotal,
		selectionDuration: selectionDuration,
		rankCalls:         rankCalls,
		storesActive:      storesActive,
		errorTotal:        errorTotal,
	}, nil
}

// RecordSelection records one selection call. provider is empty unless a
// provider won.
func (m *Metrics) RecordSelection(ctx context.Context, outcome, provider string, candidates int, duration time.Duration) {
	attrs := []attribute.KeyValue{attribute.String("outcome", outcome)}
	if provider != "" {
		attrs = append(attrs, attribute.String("provider", provider))
	}
	m.selectionTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.selectionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
	m.rankCalls.Add(ctx, int64(candidates))
}

// RecordStoreCreated increments the live store count for provider.
func (m *Metrics) RecordStoreCreated(ctx context.Context, provider string) {
	m.storesActive.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}

// RecordStoreReleased decrements the live store count for provider.
func (m *Metrics) RecordStoreReleased(ctx context.Context, provider string) {
	m.storesActive.Add(ctx, -1, metric.WithAttributes(attribute.String("provider", provider)))
}

// RecordError records an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}
