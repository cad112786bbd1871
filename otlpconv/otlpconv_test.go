package otlpconv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	metricspb "go.opentelemetry.io/proto/otlp/metrics/v1"

	"github.com/z5labs/otelpipe/model"
)

func TestResource(t *testing.T) {
	t.Run("nil resource yields an empty wire resource", func(t *testing.T) {
		pb := Resource(nil)
		assert.Empty(t, pb.Attributes)
	})

	t.Run("service name is carried as an attribute", func(t *testing.T) {
		r := model.NewResource("checkout", attribute.String("region", "us-east-1"))
		pb := Resource(&r)

		var names []string
		for _, kv := range pb.Attributes {
			names = append(names, kv.Key)
		}
		assert.Contains(t, names, "service.name")
		assert.Contains(t, names, "region")
	})
}

func TestKeyValue(t *testing.T) {
	cases := []struct {
		name string
		kv   attribute.KeyValue
		want *commonpb.AnyValue
	}{
		{"bool", attribute.Bool("k", true), &commonpb.AnyValue{Value: &commonpb.AnyValue_BoolValue{BoolValue: true}}},
		{"int64", attribute.Int64("k", 42), &commonpb.AnyValue{Value: &commonpb.AnyValue_IntValue{IntValue: 42}}},
		{"float64", attribute.Float64("k", 3.5), &commonpb.AnyValue{Value: &commonpb.AnyValue_DoubleValue{DoubleValue: 3.5}}},
		{"string", attribute.String("k", "v"), &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: "v"}}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			pb := KeyValue(c.kv)
			assert.Equal(t, "k", pb.Key)
			assert.Equal(t, c.want.Value, pb.Value)
		})
	}

	t.Run("string slice becomes an array value", func(t *testing.T) {
		pb := KeyValue(attribute.StringSlice("k", []string{"a", "b"}))
		arr, ok := pb.Value.Value.(*commonpb.AnyValue_ArrayValue)
		require.True(t, ok)
		require.Len(t, arr.ArrayValue.Values, 2)
		assert.Equal(t, "a", arr.ArrayValue.Values[0].GetStringValue())
		assert.Equal(t, "b", arr.ArrayValue.Values[1].GetStringValue())
	})
}

func TestSpan(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})

	span := model.FinishedSpan{
		SpanContext:   sc,
		Name:          "do-thing",
		Kind:          trace.SpanKindServer,
		StartUnixNano: 100,
		EndUnixNano:   200,
		Status:        model.Status{Code: codes.Ok, Message: "done"},
		Attrs:         attribute.NewSet(attribute.String("k", "v")),
	}

	t.Run("converts core fields", func(t *testing.T) {
		pb := Span(span)
		assert.Equal(t, "do-thing", pb.Name)
		assert.Equal(t, uint64(100), pb.StartTimeUnixNano)
		assert.Equal(t, uint64(200), pb.EndTimeUnixNano)
		assert.Equal(t, spanKind[trace.SpanKindServer], pb.Kind)
		assert.Equal(t, "done", pb.Status.Message)
		assert.Nil(t, pb.ParentSpanId)
	})

	t.Run("parent span id is set when valid", func(t *testing.T) {
		parentID, _ := trace.SpanIDFromHex("1112131415161718")
		span.ParentSpanID = parentID

		pb := Span(span)
		assert.Equal(t, parentID[:], pb.ParentSpanId)
	})
}

func TestLogRecord(t *testing.T) {
	rec := model.LogRecord{
		Body:         otellog.StringValue("hello"),
		Severity:     otellog.SeverityInfo,
		SeverityText: "INFO",
		TimeUnixNano: 123,
	}

	t.Run("maps body and severity", func(t *testing.T) {
		pb := LogRecord(rec)
		assert.Equal(t, "hello", pb.Body.GetStringValue())
		assert.Equal(t, "INFO", pb.SeverityText)
		assert.Equal(t, uint64(123), pb.TimeUnixNano)
		assert.Equal(t, uint64(123), pb.ObservedTimeUnixNano)
		assert.Nil(t, pb.TraceId)
	})

	t.Run("attaches trace context when present", func(t *testing.T) {
		traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
		spanID, _ := trace.SpanIDFromHex("0102030405060708")
		sc := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: trace.FlagsSampled,
		})
		rec.SpanContext = &sc

		pb := LogRecord(rec)
		assert.Equal(t, traceID[:], pb.TraceId)
		assert.Equal(t, spanID[:], pb.SpanId)
		assert.Equal(t, uint32(1), pb.Flags)
	})
}

func TestMetric(t *testing.T) {
	t.Run("gauge", func(t *testing.T) {
		m := model.Metric{
			Name: "queue.depth",
			Kind: model.MetricKindGauge,
			DataPoints: []model.DataPoint{
				{TimeUnixNano: 1, Value: 5},
			},
		}
		pb := Metric(m)
		gauge, ok := pb.Data.(*metricspb.Metric_Gauge)
		require.True(t, ok)
		require.Len(t, gauge.Gauge.DataPoints, 1)
		assert.Equal(t, 5.0, gauge.Gauge.DataPoints[0].GetAsDouble())
	})

	t.Run("sum is monotonic and cumulative", func(t *testing.T) {
		m := model.Metric{
			Name:      "requests.total",
			Kind:      model.MetricKindSum,
			Monotonic: true,
			DataPoints: []model.DataPoint{
				{TimeUnixNano: 1, Value: 10},
			},
		}
		pb := Metric(m)
		sum, ok := pb.Data.(*metricspb.Metric_Sum)
		require.True(t, ok)
		assert.True(t, sum.Sum.IsMonotonic)
		assert.Equal(t, aggregationTemporalityCumulative, sum.Sum.AggregationTemporality)
	})

	t.Run("histogram carries bounds and bucket counts", func(t *testing.T) {
		m := model.Metric{
			Name: "latency",
			Kind: model.MetricKindHistogram,
			DataPoints: []model.DataPoint{
				{
					TimeUnixNano: 1,
					Count:        3,
					Sum:          6,
					Bounds:       []float64{1, 2},
					BucketCounts: []uint64{1, 1, 1},
				},
			},
		}
		pb := Metric(m)
		hist, ok := pb.Data.(*metricspb.Metric_Histogram)
		require.True(t, ok)
		require.Len(t, hist.Histogram.DataPoints, 1)
		assert.Equal(t, uint64(3), hist.Histogram.DataPoints[0].Count)
		assert.Equal(t, []float64{1, 2}, hist.Histogram.DataPoints[0].ExplicitBounds)
	})
}
