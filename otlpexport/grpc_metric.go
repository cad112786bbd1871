package otlpexport

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	colmetricspb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	metricspb "go.opentelemetry.io/proto/otlp/metrics/v1"

	"github.com/z5labs/otelpipe/internal/clock"
	"github.com/z5labs/otelpipe/model"
	"github.com/z5labs/otelpipe/noop"
	"github.com/z5labs/otelpipe/otlpconv"
)

// MetricGRPCExporter ships a resource metrics snapshot to an
// OTLP/gRPC collector endpoint. It implements metricreader.Exporter.
type MetricGRPCExporter struct {
	cfg    GRPCConfig
	conn   *grpc.ClientConn
	client colmetricspb.MetricsServiceClient
	clock  clock.Clock
	logger *slog.Logger
}

// NewMetricGRPCExporter dials (or reuses a cached connection for)
// cfg.Target and constructs a MetricGRPCExporter against it.
func NewMetricGRPCExporter(cfg GRPCConfig, opts ...Option) (*MetricGRPCExporter, error) {
	o := resolveOptions(opts)
	conn, err := dialGRPC(cfg)
	if err != nil {
		return nil, err
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(noop.LogHandler{})
	}
	return &MetricGRPCExporter{
		cfg:    cfg,
		conn:   conn,
		client: colmetricspb.NewMetricsServiceClient(conn),
		clock:  o.clock,
		logger: logger,
	}, nil
}

func (e *MetricGRPCExporter) Export(ctx context.Context, rm model.ResourceMetrics) error {
	req := &colmetricspb.ExportMetricsServiceRequest{
		ResourceMetrics: []*metricspb.ResourceMetrics{otlpconv.ResourceMetrics(rm)},
	}

	var resp *colmetricspb.ExportMetricsServiceResponse
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

	if ps := resp.GetPartialSuccess(); ps != nil && (ps.GetRejectedDataPoints() > 0 || ps.GetErrorMessage() != "") {
		e.logger.Warn("partial success exporting metrics",
			slog.Int64("rejected_data_points", ps.GetRejectedDataPoints()),
			slog.String("message", ps.GetErrorMessage()))
	}

	return nil
}

// Run watches the underlying connection and returns an error if it
// shuts down before ctx is done, so the pipeline can treat that the
// same way it would a crashed processor.
func (e *MetricGRPCExporter) Run(ctx context.Context) error {
	return grpcConnRun(ctx, e.cfg.Target, e.conn)
}

// ForceFlush is a no-op: the snapshot is sent synchronously, there is
// no internal buffer to drain.
func (e *MetricGRPCExporter) ForceFlush(ctx context.Context) error {
	return nil
}

// Shutdown closes the underlying gRPC connection, bounded by
// cfg.ShutdownTimeout.
func (e *MetricGRPCExporter) Shutdown(ctx context.Context) error {
	return closeGRPC(e.cfg, e.conn)
}
