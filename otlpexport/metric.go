package otlpexport

import (
	"context"
	"log/slog"

	colmetricspb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	metricspb "go.opentelemetry.io/proto/otlp/metrics/v1"

	"github.com/z5labs/otelpipe/model"
	"github.com/z5labs/otelpipe/otlpconv"
)

// MetricHTTPExporter ships a resource metrics snapshot to an
// OTLP/HTTP collector endpoint. It implements metricreader.Exporter.
type MetricHTTPExporter struct {
	sender *httpSender
	logger *slog.Logger
}

// NewMetricHTTPExporter constructs a MetricHTTPExporter against cfg.
func NewMetricHTTPExporter(cfg HTTPConfig, opts ...Option) (*MetricHTTPExporter, error) {
	o := resolveOptions(opts)
	sender, err := newHTTPSender(cfg, o.clock, o.logger)
	if err != nil {
		return nil, err
	}
	return &MetricHTTPExporter{sender: sender, logger: o.logger}, nil
}

// Export converts rm to its OTLP wire form and POSTs it, logging a
// warning if the collector reports a partial success.
func (e *MetricHTTPExporter) Export(ctx context.Context, rm model.ResourceMetrics) error {
	req := &colmetricspb.ExportMetricsServiceRequest{
		ResourceMetrics: []*metricspb.ResourceMetrics{otlpconv.ResourceMetrics(rm)},
	}

	respBody, err := e.sender.send(ctx, req)
	if err != nil {
		return err
	}

	resp := &colmetricspb.ExportMetricsServiceResponse{}
	if err := unmarshalResponse(e.sender.cfg.Protocol, respBody, resp); err != nil {
		return err
	}

	if ps := resp.GetPartialSuccess(); ps != nil && (ps.GetRejectedDataPoints() > 0 || ps.GetErrorMessage() != "") {
		e.logger.Warn("partial success exporting metrics",
			slog.Int64("rejected_data_points", ps.GetRejectedDataPoints()),
			slog.String("message", ps.GetErrorMessage()))
	}

	return nil
}

// Run blocks until ctx is done, so the exporter can be registered as a
// lifecycle sibling alongside its reader.
func (e *MetricHTTPExporter) Run(ctx context.Context) error {
	return e.sender.run(ctx)
}

// ForceFlush is a no-op: the HTTP exporter buffers nothing of its own.
func (e *MetricHTTPExporter) ForceFlush(ctx context.Context) error {
	return e.sender.forceFlush(ctx)
}

// Shutdown releases the exporter's idle HTTP connections.
func (e *MetricHTTPExporter) Shutdown(ctx context.Context) error {
	return e.sender.shutdown(ctx)
}
