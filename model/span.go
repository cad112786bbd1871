package model

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Status is the final status a span completed with.
type Status struct {
	Code    codes.Code
	Message string
}

// Event is a timestamped annotation recorded on a span during its
// lifetime.
type Event struct {
	Name         string
	TimeUnixNano uint64
	Attrs        attribute.Set
}

// Link references another span, recorded at span-start time.
type Link struct {
	SpanContext trace.SpanContext
	Attrs       attribute.Set
}

// FinishedSpan is a span that has ended and is ready for processing and
// export. It is immutable: no field changes after construction.
type FinishedSpan struct {
	SpanContext    trace.SpanContext
	ParentSpanID   trace.SpanID
	Name           string
	Kind           trace.SpanKind
	StartUnixNano  uint64
	EndUnixNano    uint64
	Attrs          attribute.Set
	Events         []Event
	Links          []Link
	Status         Status
	Scope          InstrumentationScope
	Resource       *Resource
	DroppedAttrs   int
	DroppedEvents  int
	DroppedLinks   int
}
