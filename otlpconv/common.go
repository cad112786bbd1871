// Package otlpconv adapts this module's domain types (model.FinishedSpan,
// model.LogRecord, model.ResourceMetrics) into the OTLP ResourceSpans,
// ResourceLogs and ResourceMetrics messages that the exporters place in
// collector requests, and the resource/instrumentation-scope metadata
// shared by every signal.
package otlpconv

import (
	"go.opentelemetry.io/otel/attribute"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"

	"github.com/z5labs/otelpipe/model"
)

// Resource converts a model.Resource into its OTLP wire representation.
func Resource(r *model.Resource) *resourcepb.Resource {
	if r == nil {
		return &resourcepb.Resource{}
	}
	return &resourcepb.Resource{
		Attributes: KeyValues(r.Attributes()),
	}
}

// Scope converts a model.InstrumentationScope into its OTLP wire
// representation.
func Scope(s model.InstrumentationScope) *commonpb.InstrumentationScope {
	return &commonpb.InstrumentationScope{
		Name:    s.Name,
		Version: s.Version,
	}
}

// KeyValues converts an attribute.Set into an OTLP key-value slice.
func KeyValues(set attribute.Set) []*commonpb.KeyValue {
	iter := set.Iter()
	out := make([]*commonpb.KeyValue, 0, iter.Len())
	for iter.Next() {
		kv := iter.Attribute()
		out = append(out, KeyValue(kv))
	}
	return out
}

// KeyValue converts a single attribute.KeyValue into its OTLP wire
// representation.
func KeyValue(kv attribute.KeyValue) *commonpb.KeyValue {
	return &commonpb.KeyValue{
		Key:   string(kv.Key),
		Value: AnyValue(kv.Value),
	}
}

// AnyValue converts an attribute.Value into an OTLP AnyValue, covering
// every kind the attribute package defines.
func AnyValue(v attribute.Value) *commonpb.AnyValue {
	switch v.Type() {
	case attribute.BOOL:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_BoolValue{BoolValue: v.AsBool()}}
	case attribute.INT64:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_IntValue{IntValue: v.AsInt64()}}
	case attribute.FLOAT64:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_DoubleValue{DoubleValue: v.AsFloat64()}}
	case attribute.STRING:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: v.AsString()}}
	case attribute.BOOLSLICE:
		vals := v.AsBoolSlice()
		items := make([]*commonpb.AnyValue, len(vals))
		for i, b := range vals {
			items[i] = &commonpb.AnyValue{Value: &commonpb.AnyValue_BoolValue{BoolValue: b}}
		}
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_ArrayValue{ArrayValue: &commonpb.ArrayValue{Values: items}}}
	case attribute.INT64SLICE:
		vals := v.AsInt64Slice()
		items := make([]*commonpb.AnyValue, len(vals))
		for i, n := range vals {
			items[i] = &commonpb.AnyValue{Value: &commonpb.AnyValue_IntValue{IntValue: n}}
		}
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_ArrayValue{ArrayValue: &commonpb.ArrayValue{Values: items}}}
	case attribute.FLOAT64SLICE:
		vals := v.AsFloat64Slice()
		items := make([]*commonpb.AnyValue, len(vals))
		for i, f := range vals {
			items[i] = &commonpb.AnyValue{Value: &commonpb.AnyValue_DoubleValue{DoubleValue: f}}
		}
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_ArrayValue{ArrayValue: &commonpb.ArrayValue{Values: items}}}
	case attribute.STRINGSLICE:
		vals := v.AsStringSlice()
		items := make([]*commonpb.AnyValue, len(vals))
		for i, s := range vals {
			items[i] = &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: s}}
		}
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_ArrayValue{ArrayValue: &commonpb.ArrayValue{Values: items}}}
	default:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: v.Emit()}}
	}
}
