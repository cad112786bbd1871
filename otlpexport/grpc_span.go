package otlpexport

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"

	"github.com/z5labs/otelpipe/internal/clock"
	"github.com/z5labs/otelpipe/model"
	"github.com/z5labs/otelpipe/noop"
	"github.com/z5labs/otelpipe/otlpconv"
)

// SpanGRPCExporter ships finished spans to an OTLP/gRPC collector
// endpoint. It implements processor.Exporter[model.FinishedSpan].
type SpanGRPCExporter struct {
	cfg      GRPCConfig
	conn     *grpc.ClientConn
	client   coltracepb.TraceServiceClient
	resource *model.Resource
	clock    clock.Clock
	logger   *slog.Logger
}

// NewSpanGRPCExporter dials (or reuses a cached connection for) cfg.Target
// and constructs a SpanGRPCExporter against it.
func NewSpanGRPCExporter(cfg GRPCConfig, resource *model.Resource, opts ...Option) (*SpanGRPCExporter, error) {
	o := resolveOptions(opts)
	conn, err := dialGRPC(cfg)
	if err != nil {
		return nil, err
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(noop.LogHandler{})
	}
	return &SpanGRPCExporter{
		cfg:      cfg,
		conn:     conn,
		client:   coltracepb.NewTraceServiceClient(conn),
		resource: resource,
		clock:    o.clock,
		logger:   logger,
	}, nil
}

func (e *SpanGRPCExporter) Export(ctx context.Context, spans []model.FinishedSpan) error {
	req := &coltracepb.ExportTraceServiceRequest{
		ResourceSpans: []*tracepb.ResourceSpans{otlpconv.Spans(e.resource, spans)},
	}

	var resp *coltracepb.ExportTraceServiceResponse
	err := grpcExport(ctx, e.cfg, e.clock, func(ctx context.Context, opts ...grpc.CallOption) error {
		r, err := e.client.Export(ctx, req, opts...)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return err
	}

	if ps := resp.GetPartialSuccess(); ps != nil && (ps.GetRejectedSpans() > 0 || ps.GetErrorMessage() != "") {
		e.logger.Warn("partial success exporting spans",
			slog.Int64("rejected_spans", ps.GetRejectedSpans()),
			slog.String("message", ps.GetErrorMessage()))
	}

	return nil
}

// Run watches the underlying connection and returns an error if it
// shuts down before ctx is done, so the pipeline can treat that the
// same way it would a crashed processor.
func (e *SpanGRPCExporter) Run(ctx context.Context) error {
	return grpcConnRun(ctx, e.cfg.Target, e.conn)
}

// ForceFlush is a no-op: spans are sent synchronously, there is no
// internal buffer to drain.
func (e *SpanGRPCExporter) ForceFlush(ctx context.Context) error {
	return nil
}

// Shutdown closes the underlying gRPC connection, bounded by
// cfg.ShutdownTimeout.
func (e *SpanGRPCExporter) Shutdown(ctx context.Context) error {
	return closeGRPC(e.cfg, e.conn)
}
