package lifecycle

import (
	"context"
	"sync"

	"github.com/z5labs/otelpipe/health"
	"github.com/z5labs/otelpipe/metricreader"
	"github.com/z5labs/otelpipe/model"
	"github.com/z5labs/otelpipe/processor"
)

// consecutiveFailureThreshold is how many export failures in a row
// flip a signal's health monitor unhealthy; a single success resets it.
const consecutiveFailureThreshold = 3

// HealthTrackingExporter wraps a processor.Exporter[T], reporting
// consecutive export failures to a health.Binary.
type HealthTrackingExporter[T any] struct {
	exporter processor.Exporter[T]
	monitor  *health.Binary

	mu       sync.Mutex
	failures int
}

// NewHealthTrackingExporter wraps exporter, marking monitor healthy
// up-front.
func NewHealthTrackingExporter[T any](exporter processor.Exporter[T], monitor *health.Binary) *HealthTrackingExporter[T] {
	monitor.MarkHealthy()
	return &HealthTrackingExporter[T]{exporter: exporter, monitor: monitor}
}

func (e *HealthTrackingExporter[T]) Export(ctx context.Context, items []T) error {
	err := e.exporter.Export(ctx, items)
	e.record(err == nil)
	return err
}

func (e *HealthTrackingExporter[T]) ForceFlush(ctx context.Context) error {
	return e.exporter.ForceFlush(ctx)
}

func (e *HealthTrackingExporter[T]) Shutdown(ctx context.Context) error {
	return e.exporter.Shutdown(ctx)
}

func (e *HealthTrackingExporter[T]) record(success bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if success {
		e.failures = 0
		e.monitor.MarkHealthy()
		return
	}

	e.failures++
	if e.failures >= consecutiveFailureThreshold {
		e.monitor.MarkUnhealthy()
	}
}

// HealthTrackingMetricExporter is HealthTrackingExporter's
// single-snapshot counterpart for metricreader.Exporter.
type HealthTrackingMetricExporter struct {
	exporter metricreader.Exporter
	monitor  *health.Binary

	mu       sync.Mutex
	failures int
}

// NewHealthTrackingMetricExporter wraps exporter, marking monitor
// healthy up-front.
func NewHealthTrackingMetricExporter(exporter metricreader.Exporter, monitor *health.Binary) *HealthTrackingMetricExporter {
	monitor.MarkHealthy()
	return &HealthTrackingMetricExporter{exporter: exporter, monitor: monitor}
}

func (e *HealthTrackingMetricExporter) Export(ctx context.Context, rm model.ResourceMetrics) error {
	err := e.exporter.Export(ctx, rm)
	e.record(err == nil)
	return err
}

func (e *HealthTrackingMetricExporter) ForceFlush(ctx context.Context) error {
	return e.exporter.ForceFlush(ctx)
}

func (e *HealthTrackingMetricExporter) Shutdown(ctx context.Context) error {
	return e.exporter.Shutdown(ctx)
}

func (e *HealthTrackingMetricExporter) record(success bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if success {
		e.failures = 0
		e.monitor.MarkHealthy()
		return
	}

	e.failures++
	if e.failures >= consecutiveFailureThreshold {
		e.monitor.MarkUnhealthy()
	}
}
