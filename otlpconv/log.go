package otlpconv

import (
	otellog "go.opentelemetry.io/otel/log"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"

	"github.com/z5labs/otelpipe/model"
)

// Logs groups a set of LogRecords sharing one resource into a single
// OTLP ResourceLogs wrapper, tagged with the fixed library scope.
func Logs(resource *model.Resource, records []model.LogRecord) *logspb.ResourceLogs {
	pbRecords := make([]*logspb.LogRecord, len(records))
	for i, r := range records {
		pbRecords[i] = LogRecord(r)
	}

	return &logspb.ResourceLogs{
		Resource: Resource(resource),
		ScopeLogs: []*logspb.ScopeLogs{
			{
				Scope:      Scope(model.Scope),
				LogRecords: pbRecords,
			},
		},
	}
}

// LogRecord converts a single model.LogRecord into its OTLP wire
// representation.
func LogRecord(r model.LogRecord) *logspb.LogRecord {
	pb := &logspb.LogRecord{
		TimeUnixNano:           r.TimeUnixNano,
		ObservedTimeUnixNano:   r.ObservedTimeUnixNano(),
		SeverityNumber:         logspb.SeverityNumber(r.Severity),
		SeverityText:           r.SeverityText,
		Body:                   LogValue(r.Body),
		Attributes:             KeyValues(r.Attrs),
		DroppedAttributesCount: uint32(r.DroppedAttrs),
	}

	if r.SpanContext != nil {
		traceID := r.SpanContext.TraceID()
		spanID := r.SpanContext.SpanID()
		pb.TraceId = traceID[:]
		pb.SpanId = spanID[:]
		if r.SpanContext.IsSampled() {
			pb.Flags = 1 // LOG_RECORD_FLAGS_TRACE_FLAGS_MASK bit 0: sampled
		}
	}

	return pb
}

// LogValue converts an otel/log.Value into its OTLP AnyValue
// representation.
func LogValue(v otellog.Value) *commonpb.AnyValue {
	switch v.Kind() {
	case otellog.KindBool:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_BoolValue{BoolValue: v.AsBool()}}
	case otellog.KindInt64:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_IntValue{IntValue: v.AsInt64()}}
	case otellog.KindFloat64:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_DoubleValue{DoubleValue: v.AsFloat64()}}
	case otellog.KindString:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: v.AsString()}}
	case otellog.KindBytes:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_BytesValue{BytesValue: v.AsBytes()}}
	case otellog.KindSlice:
		vals := v.AsSlice()
		items := make([]*commonpb.AnyValue, len(vals))
		for i, item := range vals {
			items[i] = LogValue(item)
		}
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_ArrayValue{ArrayValue: &commonpb.ArrayValue{Values: items}}}
	case otellog.KindMap:
		vals := v.AsMap()
		kvs := make([]*commonpb.KeyValue, len(vals))
		for i, kv := range vals {
			kvs[i] = &commonpb.KeyValue{Key: kv.Key, Value: LogValue(kv.Value)}
		}
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_KvlistValue{KvlistValue: &commonpb.KeyValueList{Values: kvs}}}
	default:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: v.String()}}
	}
}
