package model

import (
	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"
)

// LogRecord is a single structured log entry ready for processing and
// export. TimeUnixNano is also used as the observed time per the
// pipeline's invariant that it never ingests externally-observed
// records with a distinct observation time.
type LogRecord struct {
	Body          otellog.Value
	Severity      otellog.Severity
	SeverityText  string
	TimeUnixNano  uint64
	Attrs         attribute.Set
	Scope         InstrumentationScope
	Resource      *Resource
	SpanContext   *trace.SpanContext
	DroppedAttrs  int
}

// ObservedTimeUnixNano returns the time the pipeline observed this
// record, which is always the same instant it was timestamped at.
func (r LogRecord) ObservedTimeUnixNano() uint64 {
	return r.TimeUnixNano
}
