package otlpexport

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"

	"github.com/z5labs/otelpipe/internal/clock"
	"github.com/z5labs/otelpipe/model"
	"github.com/z5labs/otelpipe/noop"
	"github.com/z5labs/otelpipe/otlpconv"
)

// LogGRPCExporter ships log records to an OTLP/gRPC collector
// endpoint. It implements processor.Exporter[model.LogRecord].
type LogGRPCExporter struct {
	cfg      GRPCConfig
	conn     *grpc.ClientConn
	client   collogspb.LogsServiceClient
	resource *model.Resource
	clock    clock.Clock
	logger   *slog.Logger
}

// NewLogGRPCExporter dials (or reuses a cached connection for)
// cfg.Target and constructs a LogGRPCExporter against it.
func NewLogGRPCExporter(cfg GRPCConfig, resource *model.Resource, opts ...Option) (*LogGRPCExporter, error) {
	o := resolveOptions(opts)
	conn, err := dialGRPC(cfg)
	if err != nil {
		return nil, err
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(noop.LogHandler{})
	}
	return &LogGRPCExporter{
		cfg:      cfg,
		conn:     conn,
		client:   collogspb.NewLogsServiceClient(conn),
		resource: resource,
		clock:    o.clock,
		logger:   logger,
	}, nil
}

func (e *LogGRPCExporter) Export(ctx context.Context, records []model.LogRecord) error {
	req := &collogspb.ExportLogsServiceRequest{
		ResourceLogs: []*logspb.ResourceLogs{otlpconv.Logs(e.resource, records)},
	}

	var resp *collogspb.ExportLogsServiceResponse
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

	if ps := resp.GetPartialSuccess(); ps != nil && (ps.GetRejectedLogRecords() > 0 || ps.GetErrorMessage() != "") {
		e.logger.Warn("partial success exporting log records",
			slog.Int64("rejected_log_records", ps.GetRejectedLogRecords()),
			slog.String("message", ps.GetErrorMessage()))
	}

	return nil
}

// Run watches the underlying connection and returns an error if it
// shuts down before ctx is done, so the pipeline can treat that the
// same way it would a crashed processor.
func (e *LogGRPCExporter) Run(ctx context.Context) error {
	return grpcConnRun(ctx, e.cfg.Target, e.conn)
}

// ForceFlush is a no-op: records are sent synchronously, there is no
// internal buffer to drain.
func (e *LogGRPCExporter) ForceFlush(ctx context.Context) error {
	return nil
}

// Shutdown closes the underlying gRPC connection, bounded by
// cfg.ShutdownTimeout.
func (e *LogGRPCExporter) Shutdown(ctx context.Context) error {
	return closeGRPC(e.cfg, e.conn)
}
