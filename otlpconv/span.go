package otlpconv

import (
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"

	"github.com/z5labs/otelpipe/model"
)

var spanKind = map[trace.SpanKind]tracepb.Span_SpanKind{
	trace.SpanKindUnspecified: tracepb.Span_SPAN_KIND_UNSPECIFIED,
	trace.SpanKindInternal:    tracepb.Span_SPAN_KIND_INTERNAL,
	trace.SpanKindServer:      tracepb.Span_SPAN_KIND_SERVER,
	trace.SpanKindClient:      tracepb.Span_SPAN_KIND_CLIENT,
	trace.SpanKindProducer:    tracepb.Span_SPAN_KIND_PRODUCER,
	trace.SpanKindConsumer:    tracepb.Span_SPAN_KIND_CONSUMER,
}

var statusCode = map[codes.Code]tracepb.Status_StatusCode{
	codes.Unset: tracepb.Status_STATUS_CODE_UNSET,
	codes.Ok:    tracepb.Status_STATUS_CODE_OK,
	codes.Error: tracepb.Status_STATUS_CODE_ERROR,
}

// Spans groups a set of FinishedSpans sharing one resource into a
// single OTLP ResourceSpans wrapper, tagged with the fixed library
// scope.
func Spans(resource *model.Resource, spans []model.FinishedSpan) *tracepb.ResourceSpans {
	pbSpans := make([]*tracepb.Span, len(spans))
	for i, s := range spans {
		pbSpans[i] = Span(s)
	}

	return &tracepb.ResourceSpans{
		Resource: Resource(resource),
		ScopeSpans: []*tracepb.ScopeSpans{
			{
				Scope: Scope(model.Scope),
				Spans: pbSpans,
			},
		},
	}
}

// Span converts a single FinishedSpan into its OTLP wire
// representation.
func Span(s model.FinishedSpan) *tracepb.Span {
	traceID := s.SpanContext.TraceID()
	spanID := s.SpanContext.SpanID()
	parentID := s.ParentSpanID

	pb := &tracepb.Span{
		TraceId:                traceID[:],
		SpanId:                 spanID[:],
		TraceState:             s.SpanContext.TraceState().String(),
		Name:                   s.Name,
		Kind:                   spanKind[s.Kind],
		StartTimeUnixNano:      s.StartUnixNano,
		EndTimeUnixNano:        s.EndUnixNano,
		Attributes:             KeyValues(s.Attrs),
		DroppedAttributesCount: uint32(s.DroppedAttrs),
		DroppedEventsCount:     uint32(s.DroppedEvents),
		DroppedLinksCount:      uint32(s.DroppedLinks),
		Status: &tracepb.Status{
			Code:    statusCode[s.Status.Code],
			Message: s.Status.Message,
		},
	}
	if !parentID.IsValid() {
		pb.ParentSpanId = nil
	} else {
		pb.ParentSpanId = parentID[:]
	}

	pb.Events = make([]*tracepb.Span_Event, len(s.Events))
	for i, e := range s.Events {
		pb.Events[i] = &tracepb.Span_Event{
			TimeUnixNano: e.TimeUnixNano,
			Name:         e.Name,
			Attributes:   KeyValues(e.Attrs),
		}
	}

	pb.Links = make([]*tracepb.Span_Link, len(s.Links))
	for i, l := range s.Links {
		linkTraceID := l.SpanContext.TraceID()
		linkSpanID := l.SpanContext.SpanID()
		pb.Links[i] = &tracepb.Span_Link{
			TraceId:    linkTraceID[:],
			SpanId:     linkSpanID[:],
			TraceState: l.SpanContext.TraceState().String(),
			Attributes: KeyValues(l.Attrs),
		}
	}

	return pb
}
