package livemap

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/arbadacarbaYK/sociostr/internal/domain"
)

type livemapMetricsCollection struct {
	cycleCount    metric.Int64Counter
	mergedRecords metric.Int64Counter
	trackedUsers  metric.Int64Gauge
	locatedUsers  metric.Int64Gauge
}

var metrics livemapMetricsCollection

func init() {
	const name = "sociostr/livemap"
	meter := otel.Meter(name)

	cycleCount, err := meter.Int64Counter(
		"livemap/cycle_count",
		metric.WithDescription("Total number of completed fetch cycles"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create cycle count metric: %w", err))
	}

	mergedRecords, err := meter.Int64Counter(
		"livemap/merged_records",
		metric.WithDescription("Total number of records merged into the store"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create merged records metric: %w", err))
	}

	trackedUsers, err := meter.Int64Gauge(
		"livemap/tracked_users",
		metric.WithDescription("Number of users currently in the store"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create tracked users metric: %w", err))
	}

	locatedUsers, err := meter.Int64Gauge(
		"livemap/located_users",
		metric.WithDescription("Number of users in the store with a valid location"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create located users metric: %w", err))
	}

	metrics = livemapMetricsCollection{
		cycleCount:    cycleCount,
		mergedRecords: mergedRecords,
		trackedUsers:  trackedUsers,
		locatedUsers:  locatedUsers,
	}
}

func recordCycleMetrics(ctx context.Context, mode cycleMode, merged int, stats domain.Stats) {
	attrs := metric.WithAttributes(attribute.String("mode", string(mode)))

	metrics.cycleCount.Add(ctx, 1, attrs)
	metrics.mergedRecords.Add(ctx, int64(merged), attrs)
	metrics.trackedUsers.Record(ctx, int64(stats.TotalUsers))
	metrics.locatedUsers.Record(ctx, int64(stats.UsersWithLocation))
}
