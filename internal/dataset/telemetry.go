package dataset

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "stflow/internal/dataset"

type instruments struct {
	buildDuration metric.Float64Histogram
	samplesServed metric.Int64Counter
	modeSwitches  metric.Int64Counter
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}

	buildDuration, err := meter.Float64Histogram(
		"dataset_build_duration_seconds",
		metric.WithDescription("Time spent materializing a dataset representation"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create build duration histogram: %w", err)
	}

	samplesServed, err := meter.Int64Counter(
		"dataset_samples_served_total",
		metric.WithDescription("Samples returned by Get"),
	)
	if err != nil {
		return nil, fmt.Errorf("create samples counter: %w", err)
	}

	modeSwitches, err := meter.Int64Counter(
		"dataset_mode_switches_total",
		metric.WithDescription("Sample access mode changes"),
	)
	if err != nil {
		return nil, fmt.Errorf("create mode switch counter: %w", err)
	}

	return &instruments{
		buildDuration: buildDuration,
		samplesServed: samplesServed,
		modeSwitches:  modeSwitches,
	}, nil
}

func (m *instruments) recordBuild(ctx context.Context, mode Mode, elapsed time.Duration) {
	m.buildDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("mode", mode.String())))
}

func (m *instruments) recordSwitch(ctx context.Context, mode Mode) {
	m.modeSwitches.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode.String())))
}

func (m *instruments) recordSample(ctx context.Context, mode Mode) {
	m.samplesServed.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode.String())))
}
