// Package metricreader implements the periodic metrics reader: a
// timer-driven pull from a producer, wrapped in a single resource- and
// scope-tagged snapshot and handed to an exporter once per tick.
package metricreader

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/z5labs/otelpipe/internal/clock"
	"github.com/z5labs/otelpipe/internal/timeout"
	"github.com/z5labs/otelpipe/model"
	"github.com/z5labs/otelpipe/noop"
)

// Producer supplies the current snapshot of metric points. Unlike the
// batch processors, the reader has no internal buffer of its own — the
// producer IS the buffer.
type Producer interface {
	Produce(ctx context.Context) ([]model.Metric, error)
}

// Exporter ships one collection cycle's worth of resource metrics.
type Exporter interface {
	Export(ctx context.Context, rm model.ResourceMetrics) error
	ForceFlush(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Config tunes a Reader's collection interval and export timeout.
type Config struct {
	ExportInterval time.Duration
	ExportTimeout  time.Duration
	Resource       *model.Resource
}

// Reader pulls metrics from a Producer on a fixed interval and submits
// them to an Exporter.
type Reader struct {
	cfg      Config
	producer Producer
	exporter Exporter
	clock    clock.Clock
	logger   *slog.Logger

	shutdownOnce sync.Once
	shutdownErr  error
}

// Option configures a Reader at construction.
type Option func(*options)

type options struct {
	clock  clock.Clock
	logger *slog.Logger
}

// WithClock overrides the clock used for scheduling and export
// timeouts, primarily for deterministic tests.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger overrides the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New constructs a Reader pulling from producer and exporting through
// exporter according to cfg.
func New(cfg Config, producer Producer, exporter Exporter, opts ...Option) *Reader {
	o := options{clock: clock.Real}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(noop.LogHandler{})
	}

	return &Reader{
		cfg:      cfg,
		producer: producer,
		exporter: exporter,
		clock:    o.clock,
		logger:   o.logger,
	}
}

// Run loops until ctx is done: on every ExportInterval boundary it
// pulls a snapshot from the producer, wraps it in a ResourceMetrics
// tagged with the configured resource and the fixed library scope, and
// submits it to the exporter under ExportTimeout. After cancellation it
// performs one final collection, then force-flushes and shuts the
// exporter down.
func (r *Reader) Run(ctx context.Context) error {
	ticker := r.clock.NewTicker(r.cfg.ExportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			r.collectAndExport(ctx)
		case <-ctx.Done():
			r.collectAndExport(context.Background())
			return r.shutdown(context.Background())
		}
	}
}

func (r *Reader) collectAndExport(ctx context.Context) {
	metrics, err := r.producer.Produce(ctx)
	if err != nil {
		r.logger.Warn("failed to produce metrics", slog.String("error", err.Error()))
		return
	}

	rm := model.ResourceMetrics{
		Resource: r.cfg.Resource,
		ScopeMetrics: []model.ScopeMetrics{
			{Scope: model.Scope, Metrics: metrics},
		},
	}

	err = timeout.Await(ctx, r.clock, r.cfg.ExportTimeout, func(ctx context.Context) error {
		return r.exporter.Export(ctx, rm)
	})
	if errors.Is(err, timeout.ErrExceeded) {
		r.logger.Warn("timed out exporting metrics")
		return
	}
	if err != nil {
		r.logger.Warn("failed to export metrics", slog.String("error", err.Error()))
	}
}

// ForceFlush force-flushes the exporter. The reader has no buffer of
// its own to drain.
func (r *Reader) ForceFlush(ctx context.Context) error {
	return r.exporter.ForceFlush(ctx)
}

// shutdown force-flushes and shuts the exporter down. Safe to call more
// than once.
func (r *Reader) shutdown(ctx context.Context) error {
	r.shutdownOnce.Do(func() {
		flushErr := r.ForceFlush(ctx)
		shutdownErr := r.exporter.Shutdown(ctx)
		r.shutdownErr = errors.Join(flushErr, shutdownErr)
	})
	return r.shutdownErr
}

// Shutdown is exposed for callers (e.g. the lifecycle package) that
// need to shut the reader down outside of Run's own cancellation path.
func (r *Reader) Shutdown(ctx context.Context) error {
	return r.shutdown(ctx)
}
