package processor

import (
	"context"
	"log/slog"

	"github.com/z5labs/otelpipe/internal/clock"
	"github.com/z5labs/otelpipe/model"
)

// BatchSpanProcessor buffers sampled finished spans in a bounded FIFO
// and hands fixed-size batches to an exporter on a schedule-delay timer
// or immediately when the buffer fills.
type BatchSpanProcessor struct {
	engine *batchEngine[model.FinishedSpan]
}

// SpanOption configures a BatchSpanProcessor at construction.
type SpanOption func(*spanOptions)

type spanOptions struct {
	clock  clock.Clock
	logger *slog.Logger
}

// WithSpanClock overrides the clock used for scheduling and export
// timeouts, primarily for deterministic tests.
func WithSpanClock(c clock.Clock) SpanOption {
	return func(o *spanOptions) { o.clock = c }
}

// WithSpanLogger overrides the diagnostic logger.
func WithSpanLogger(l *slog.Logger) SpanOption {
	return func(o *spanOptions) { o.logger = l }
}

// NewBatchSpanProcessor constructs a BatchSpanProcessor exporting
// through exporter according to cfg. The buffer is signaled to flush
// immediately whenever it fills to cfg.MaxQueueSize, in addition to the
// regular cfg.ScheduleDelay timer.
func NewBatchSpanProcessor(cfg BatchConfig, exporter Exporter[model.FinishedSpan], opts ...SpanOption) *BatchSpanProcessor {
	cfg.SignalOnQueueFull = true

	o := spanOptions{clock: clock.Real}
	for _, opt := range opts {
		opt(&o)
	}

	return &BatchSpanProcessor{
		engine: newBatchEngine(cfg, exporter, o.clock, o.logger),
	}
}

// OnEnd is the non-blocking producer entrypoint called once a span has
// ended. Spans without the sampled bit set are discarded immediately;
// never fails, never blocks.
func (p *BatchSpanProcessor) OnEnd(span model.FinishedSpan) {
	if !span.SpanContext.IsSampled() {
		return
	}
	p.engine.enqueue(span)
}

// Run drives the scheduler loop until ctx is done, then shuts down.
func (p *BatchSpanProcessor) Run(ctx context.Context) error {
	return p.engine.run(ctx)
}

// ForceFlush drains the buffer through the exporter. See
// [batchEngine.forceFlush] for the exact semantics.
func (p *BatchSpanProcessor) ForceFlush(ctx context.Context) error {
	return p.engine.forceFlush(ctx)
}

// Shutdown force-flushes and shuts the exporter down. Safe to call more
// than once.
func (p *BatchSpanProcessor) Shutdown(ctx context.Context) error {
	return p.engine.shutdown(ctx)
}
