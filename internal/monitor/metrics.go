package monitor

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsObserver records tick telemetry as OpenTelemetry instruments.
type MetricsObserver struct {
	ticks         metric.Int64Counter
	suspicious    metric.Int64Counter
	persistFailed metric.Int64Counter
	sensorFailed  metric.Int64Counter
	tickDuration  metric.Float64Histogram
}

// NewMetricsObserver creates the instruments on meter.
func NewMetricsObserver(meter metric.Meter) (*MetricsObserver, error) {
	ticks, err := meter.Int64Counter(
		"vigil_ticks_total",
		metric.WithDescription("Ticks processed, by resulting state"),
		metric.WithUnit("{tick}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}

	suspicious, err := meter.Int64Counter(
		"vigil_suspicious_seconds_total",
		metric.WithDescription("Work seconds flagged as suspicious"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating suspicious counter: %w", err)
	}

	persistFailed, err := meter.Int64Counter(
		"vigil_persist_failures_total",
		metric.WithDescription("Ticks whose daily log could not be written"),
		metric.WithUnit("{tick}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating persist failure counter: %w", err)
	}

	sensorFailed, err := meter.Int64Counter(
		"vigil_sensor_unavailable_total",
		metric.WithDescription("Ticks with an unreadable input channel"),
		metric.WithUnit("{tick}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sensor failure counter: %w", err)
	}

	tickDuration, err := meter.Float64Histogram(
		"vigil_tick_duration_seconds",
		metric.WithDescription("Wall time spent processing one tick"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick duration histogram: %w", err)
	}

	return &MetricsObserver{
		ticks:         ticks,
		suspicious:    suspicious,
		persistFailed: persistFailed,
		sensorFailed:  sensorFailed,
		tickDuration:  tickDuration,
	}, nil
}

func (m *MetricsObserver) ObserveTick(ctx context.Context, event TickEvent) {
	out := event.Outcome
	if out.Skipped {
		return
	}
	m.ticks.Add(ctx, 1, metric.WithAttributes(attribute.String("state", string(out.State))))
	if out.SuspiciousApplied > 0 {
		m.suspicious.Add(ctx, out.SuspiciousApplied)
	}
	if out.SensorErr != nil {
		m.sensorFailed.Add(ctx, 1)
	}
	if out.Mutated && !event.Persisted {
		m.persistFailed.Add(ctx, 1)
	}
	m.tickDuration.Record(ctx, event.Duration.Seconds())
}
