package otlpexport

import (
	"context"
	"log/slog"

	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"

	"github.com/z5labs/otelpipe/model"
	"github.com/z5labs/otelpipe/otlpconv"
)

// SpanHTTPExporter ships finished spans to an OTLP/HTTP collector
// endpoint. It implements processor.Exporter[model.FinishedSpan].
type SpanHTTPExporter struct {
	sender   *httpSender
	resource *model.Resource
	logger   *slog.Logger
}

// NewSpanHTTPExporter constructs a SpanHTTPExporter against cfg.
func NewSpanHTTPExporter(cfg HTTPConfig, resource *model.Resource, opts ...Option) (*SpanHTTPExporter, error) {
	o := resolveOptions(opts)
	sender, err := newHTTPSender(cfg, o.clock, o.logger)
	if err != nil {
		return nil, err
	}
	return &SpanHTTPExporter{sender: sender, resource: resource, logger: o.logger}, nil
}

// Export converts spans to their OTLP wire form and POSTs them,
// logging a warning if the collector reports a partial success.
func (e *SpanHTTPExporter) Export(ctx context.Context, spans []model.FinishedSpan) error {
	req := &coltracepb.ExportTraceServiceRequest{
		ResourceSpans: []*tracepb.ResourceSpans{otlpconv.Spans(e.resource, spans)},
	}

	respBody, err := e.sender.send(ctx, req)
	if err != nil {
		return err
	}

	resp := &coltracepb.ExportTraceServiceResponse{}
	if err := unmarshalResponse(e.sender.cfg.Protocol, respBody, resp); err != nil {
		return err
	}

	if ps := resp.GetPartialSuccess(); ps != nil && (ps.GetRejectedSpans() > 0 || ps.GetErrorMessage() != "") {
		e.logger.Warn("partial success exporting spans",
			slog.Int64("rejected_spans", ps.GetRejectedSpans()),
			slog.String("message", ps.GetErrorMessage()))
	}

	return nil
}

// Run blocks until ctx is done, so the exporter can be registered as a
// lifecycle sibling alongside its processor.
func (e *SpanHTTPExporter) Run(ctx context.Context) error {
	return e.sender.run(ctx)
}

// ForceFlush is a no-op: the HTTP exporter buffers nothing of its own.
func (e *SpanHTTPExporter) ForceFlush(ctx context.Context) error {
	return e.sender.forceFlush(ctx)
}

// Shutdown releases the exporter's idle HTTP connections.
func (e *SpanHTTPExporter) Shutdown(ctx context.Context) error {
	return e.sender.shutdown(ctx)
}
