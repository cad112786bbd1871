package processor

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/z5labs/otelpipe/model"
	"github.com/z5labs/otelpipe/noop"
)

// simpleStreamSize bounds the single-producer stream a
// SimpleLogRecordProcessor forwards records through. The spec leaves
// the overflow policy for this path unspecified (it exists for
// console/none exporters, not production load); records beyond this
// depth are dropped silently rather than blocking the caller, keeping
// Emit's non-blocking contract.
const simpleStreamSize = 256

// SimpleLogRecordProcessor passes log records straight through to an
// exporter one at a time, with no batching, retry, or drop accounting.
// Used when the configured exporter is console or none.
type SimpleLogRecordProcessor struct {
	exporter Exporter[model.LogRecord]
	logger   *slog.Logger

	stream chan model.LogRecord

	shutdownOnce sync.Once
	shutdownErr  error
}

// SimpleOption configures a SimpleLogRecordProcessor at construction.
type SimpleOption func(*simpleOptions)

type simpleOptions struct {
	logger *slog.Logger
}

// WithSimpleLogger overrides the diagnostic logger.
func WithSimpleLogger(l *slog.Logger) SimpleOption {
	return func(o *simpleOptions) { o.logger = l }
}

// NewSimpleLogRecordProcessor constructs a SimpleLogRecordProcessor
// exporting through exporter.
func NewSimpleLogRecordProcessor(exporter Exporter[model.LogRecord], opts ...SimpleOption) *SimpleLogRecordProcessor {
	o := simpleOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(noop.LogHandler{})
	}

	return &SimpleLogRecordProcessor{
		exporter: exporter,
		logger:   o.logger,
		stream:   make(chan model.LogRecord, simpleStreamSize),
	}
}

// Emit forwards record into the export stream without blocking.
func (p *SimpleLogRecordProcessor) Emit(record model.LogRecord) {
	select {
	case p.stream <- record:
	default:
	}
}

// Run exports one record at a time as it arrives, until ctx is done,
// then shuts down.
func (p *SimpleLogRecordProcessor) Run(ctx context.Context) error {
	for {
		select {
		case record := <-p.stream:
			if err := p.exporter.Export(ctx, []model.LogRecord{record}); err != nil {
				p.logger.Warn("failed to export log record", slog.String("error", err.Error()))
			}
		case <-ctx.Done():
			return p.Shutdown(context.Background())
		}
	}
}

// ForceFlush drains any records currently buffered in the stream
// synchronously, then force-flushes the exporter.
func (p *SimpleLogRecordProcessor) ForceFlush(ctx context.Context) error {
	for {
		select {
		case record := <-p.stream:
			if err := p.exporter.Export(ctx, []model.LogRecord{record}); err != nil {
				p.logger.Warn("failed to export log record during force flush", slog.String("error", err.Error()))
			}
		default:
			return p.exporter.ForceFlush(ctx)
		}
	}
}

// Shutdown force-flushes the stream and shuts the exporter down. Safe
// to call more than once.
func (p *SimpleLogRecordProcessor) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() {
		flushErr := p.ForceFlush(ctx)
		shutdownErr := p.exporter.Shutdown(ctx)
		p.shutdownErr = errors.Join(flushErr, shutdownErr)
	})
	return p.shutdownErr
}
