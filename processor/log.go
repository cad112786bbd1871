package processor

import (
	"context"
	"log/slog"

	"github.com/z5labs/otelpipe/internal/clock"
	"github.com/z5labs/otelpipe/model"
)

// BatchLogRecordProcessor buffers log records in a bounded FIFO and
// hands fixed-size batches to an exporter on a schedule-delay timer.
// Unlike BatchSpanProcessor, filling the buffer does not wake the
// scheduler early: overflow simply drops, and the drop is reported on
// the next scheduled tick.
type BatchLogRecordProcessor struct {
	engine *batchEngine[model.LogRecord]
}

// LogOption configures a BatchLogRecordProcessor at construction.
type LogOption func(*logOptions)

type logOptions struct {
	clock  clock.Clock
	logger *slog.Logger
}

// WithLogClock overrides the clock used for scheduling and export
// timeouts, primarily for deterministic tests.
func WithLogClock(c clock.Clock) LogOption {
	return func(o *logOptions) { o.clock = c }
}

// WithLogLogger overrides the diagnostic logger.
func WithLogLogger(l *slog.Logger) LogOption {
	return func(o *logOptions) { o.logger = l }
}

// NewBatchLogRecordProcessor constructs a BatchLogRecordProcessor
// exporting through exporter according to cfg.
func NewBatchLogRecordProcessor(cfg BatchConfig, exporter Exporter[model.LogRecord], opts ...LogOption) *BatchLogRecordProcessor {
	cfg.SignalOnQueueFull = false

	o := logOptions{clock: clock.Real}
	for _, opt := range opts {
		opt(&o)
	}

	return &BatchLogRecordProcessor{
		engine: newBatchEngine(cfg, exporter, o.clock, o.logger),
	}
}

// Emit is the non-blocking producer entrypoint. Every record is
// enqueued; there is no sampling filter for logs.
func (p *BatchLogRecordProcessor) Emit(record model.LogRecord) {
	p.engine.enqueue(record)
}

// Run drives the scheduler loop until ctx is done, then shuts down.
func (p *BatchLogRecordProcessor) Run(ctx context.Context) error {
	return p.engine.run(ctx)
}

// ForceFlush drains the buffer through the exporter.
func (p *BatchLogRecordProcessor) ForceFlush(ctx context.Context) error {
	return p.engine.forceFlush(ctx)
}

// Shutdown force-flushes and shuts the exporter down. Safe to call more
// than once.
func (p *BatchLogRecordProcessor) Shutdown(ctx context.Context) error {
	return p.engine.shutdown(ctx)
}
