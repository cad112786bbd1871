package processor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/z5labs/otelpipe/internal/clock"
	"github.com/z5labs/otelpipe/internal/timeout"
	"github.com/z5labs/otelpipe/noop"
	"golang.org/x/sync/errgroup"
)

// BatchConfig tunes a batchEngine's scheduling and sizing behavior.
type BatchConfig struct {
	// ScheduleDelay is the interval between timer-triggered ticks.
	ScheduleDelay time.Duration
	// MaxQueueSize bounds the number of items buffered at once; beyond
	// this, new items are dropped.
	MaxQueueSize int
	// MaxExportBatchSize bounds the number of items handed to the
	// exporter in one Export call.
	MaxExportBatchSize int
	// ExportTimeout bounds each export attempt (and, for ForceFlush,
	// the aggregate of all concurrent sub-batch exports).
	ExportTimeout time.Duration
	// SignalOnQueueFull, when true, wakes the scheduler immediately
	// when enqueue fills the buffer to MaxQueueSize, rather than
	// waiting for the next timer tick. The batch span processor sets
	// this; the batch log record processor does not.
	SignalOnQueueFull bool
}

// batchEngine is the scheduler shared by BatchSpanProcessor and
// BatchLogRecordProcessor: a bounded channel acting as the FIFO buffer,
// drained by a single goroutine on a timer or an explicit wake signal.
type batchEngine[T any] struct {
	cfg      BatchConfig
	exporter Exporter[T]
	clock    clock.Clock
	logger   *slog.Logger

	intake chan T
	wake   chan struct{}

	dropped atomic.Uint64
	batchID atomic.Uint64

	shutdownOnce sync.Once
	shutdownErr  error
}

func newBatchEngine[T any](cfg BatchConfig, exporter Exporter[T], clk clock.Clock, logger *slog.Logger) *batchEngine[T] {
	if logger == nil {
		logger = slog.New(noop.LogHandler{})
	}
	return &batchEngine[T]{
		cfg:      cfg,
		exporter: exporter,
		clock:    clk,
		logger:   logger,
		intake:   make(chan T, cfg.MaxQueueSize),
		wake:     make(chan struct{}, 1),
	}
}

// enqueue is the non-blocking producer path shared by onEnd/emit.
func (e *batchEngine[T]) enqueue(item T) {
	select {
	case e.intake <- item:
		if e.cfg.SignalOnQueueFull && len(e.intake) == cap(e.intake) {
			e.signalWake()
		}
	default:
		e.dropped.Add(1)
	}
}

func (e *batchEngine[T]) signalWake() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// run is the scheduler loop: it merges the timer, the explicit wake
// channel, and ctx cancellation, ticking on each and shutting down once
// ctx is done.
func (e *batchEngine[T]) run(ctx context.Context) error {
	ticker := e.clock.NewTicker(e.cfg.ScheduleDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			e.tick(ctx)
		case <-e.wake:
			e.tick(ctx)
		case <-ctx.Done():
			return e.shutdown(context.Background())
		}
	}
}

func (e *batchEngine[T]) tick(ctx context.Context) {
	if dropped := e.dropped.Swap(0); dropped > 0 {
		e.logger.Warn("dropped items because the buffer was full", slog.Uint64("dropped_count", dropped))
	}

	batch := e.drainOne()
	if len(batch) == 0 {
		return
	}

	id := e.batchID.Add(1)
	e.exportBatch(ctx, id, batch)
}

// drainOne removes up to MaxExportBatchSize items from the front of the
// buffer, preserving arrival order.
func (e *batchEngine[T]) drainOne() []T {
	batch := make([]T, 0, e.cfg.MaxExportBatchSize)
	for len(batch) < e.cfg.MaxExportBatchSize {
		select {
		case item := <-e.intake:
			batch = append(batch, item)
		default:
			return batch
		}
	}
	return batch
}

func (e *batchEngine[T]) exportBatch(ctx context.Context, id uint64, batch []T) {
	err := timeout.Await(ctx, e.clock, e.cfg.ExportTimeout, func(ctx context.Context) error {
		return e.exporter.Export(ctx, batch)
	})
	if err != nil {
		e.logger.Warn(
			"failed to export batch",
			slog.Uint64("batch_id", id),
			slog.Int("batch_size", len(batch)),
			slog.String("error", err.Error()),
		)
	}
}

// forceFlush drains the entire buffer into batches of at most
// MaxExportBatchSize and exports them concurrently under one aggregate
// ExportTimeout, then calls the exporter's ForceFlush. An empty buffer
// is a documented no-op that only logs at debug level.
func (e *batchEngine[T]) forceFlush(ctx context.Context) error {
	var batches [][]T
	for {
		b := e.drainOne()
		if len(b) == 0 {
			break
		}
		batches = append(batches, b)
	}

	if len(batches) == 0 {
		e.logger.Debug("force flush requested with empty buffer")
		return nil
	}

	err := timeout.Await(ctx, e.clock, e.cfg.ExportTimeout, func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		for _, b := range batches {
			b := b
			id := e.batchID.Add(1)
			g.Go(func() error {
				if err := e.exporter.Export(gctx, b); err != nil {
					e.logger.Warn(
						"failed to export batch during force flush",
						slog.Uint64("batch_id", id),
						slog.Int("batch_size", len(b)),
						slog.String("error", err.Error()),
					)
				}
				return nil
			})
		}
		return g.Wait()
	})
	if err != nil {
		e.logger.Warn("force flush exceeded its timeout", slog.String("error", err.Error()))
	}

	return e.exporter.ForceFlush(ctx)
}

// shutdown force-flushes the buffer and then shuts the exporter down.
// Safe to call more than once; only the first call has effect.
func (e *batchEngine[T]) shutdown(ctx context.Context) error {
	e.shutdownOnce.Do(func() {
		flushErr := e.forceFlush(ctx)
		shutdownErr := e.exporter.Shutdown(ctx)
		e.shutdownErr = errors.Join(flushErr, shutdownErr)
	})
	return e.shutdownErr
}
