package otlpexport

import (
	"context"
	"log/slog"

	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"

	"github.com/z5labs/otelpipe/model"
	"github.com/z5labs/otelpipe/otlpconv"
)

// LogHTTPExporter ships log records to an OTLP/HTTP collector
// endpoint. It implements processor.Exporter[model.LogRecord].
type LogHTTPExporter struct {
	sender   *httpSender
	resource *model.Resource
	logger   *slog.Logger
}

// NewLogHTTPExporter constructs a LogHTTPExporter against cfg.
func NewLogHTTPExporter(cfg HTTPConfig, resource *model.Resource, opts ...Option) (*LogHTTPExporter, error) {
	o := resolveOptions(opts)
	sender, err := newHTTPSender(cfg, o.clock, o.logger)
	if err != nil {
		return nil, err
	}
	return &LogHTTPExporter{sender: sender, resource: resource, logger: o.logger}, nil
}

// Export converts records to their OTLP wire form and POSTs them,
// logging a warning if the collector reports a partial success.
func (e *LogHTTPExporter) Export(ctx context.Context, records []model.LogRecord) error {
	req := &collogspb.ExportLogsServiceRequest{
		ResourceLogs: []*logspb.ResourceLogs{otlpconv.Logs(e.resource, records)},
	}

	respBody, err := e.sender.send(ctx, req)
	if err != nil {
		return err
	}

	resp := &collogspb.ExportLogsServiceResponse{}
	if err := unmarshalResponse(e.sender.cfg.Protocol, respBody, resp); err != nil {
		return err
	}

	if ps := resp.GetPartialSuccess(); ps != nil && (ps.GetRejectedLogRecords() > 0 || ps.GetErrorMessage() != "") {
		e.logger.Warn("partial success exporting log records",
			slog.Int64("rejected_log_records", ps.GetRejectedLogRecords()),
			slog.String("message", ps.GetErrorMessage()))
	}

	return nil
}

// Run blocks until ctx is done, so the exporter can be registered as a
// lifecycle sibling alongside its processor.
func (e *LogHTTPExporter) Run(ctx context.Context) error {
	return e.sender.run(ctx)
}

// ForceFlush is a no-op: the HTTP exporter buffers nothing of its own.
func (e *LogHTTPExporter) ForceFlush(ctx context.Context) error {
	return e.sender.forceFlush(ctx)
}

// Shutdown releases the exporter's idle HTTP connections.
func (e *LogHTTPExporter) Shutdown(ctx context.Context) error {
	return e.sender.shutdown(ctx)
}
