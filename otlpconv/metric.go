package otlpconv

import (
	metricspb "go.opentelemetry.io/proto/otlp/metrics/v1"

	"github.com/z5labs/otelpipe/model"
)

const aggregationTemporalityCumulative = metricspb.AggregationTemporality_AGGREGATION_TEMPORALITY_CUMULATIVE

// ResourceMetrics converts a model.ResourceMetrics snapshot into its
// OTLP wire representation.
func ResourceMetrics(rm model.ResourceMetrics) *metricspb.ResourceMetrics {
	pbScopeMetrics := make([]*metricspb.ScopeMetrics, len(rm.ScopeMetrics))
	for i, sm := range rm.ScopeMetrics {
		pbMetrics := make([]*metricspb.Metric, len(sm.Metrics))
		for j, m := range sm.Metrics {
			pbMetrics[j] = Metric(m)
		}
		pbScopeMetrics[i] = &metricspb.ScopeMetrics{
			Scope:   Scope(sm.Scope),
			Metrics: pbMetrics,
		}
	}

	return &metricspb.ResourceMetrics{
		Resource:     Resource(rm.Resource),
		ScopeMetrics: pbScopeMetrics,
	}
}

// Metric converts a single model.Metric into its OTLP wire
// representation, selecting the Gauge/Sum/Histogram oneof variant by
// the metric's kind.
func Metric(m model.Metric) *metricspb.Metric {
	pb := &metricspb.Metric{
		Name:        m.Name,
		Description: m.Description,
		Unit:        m.Unit,
	}

	switch m.Kind {
	case model.MetricKindGauge:
		pb.Data = &metricspb.Metric_Gauge{
			Gauge: &metricspb.Gauge{
				DataPoints: numberDataPoints(m.DataPoints),
			},
		}
	case model.MetricKindSum:
		pb.Data = &metricspb.Metric_Sum{
			Sum: &metricspb.Sum{
				DataPoints:             numberDataPoints(m.DataPoints),
				AggregationTemporality: aggregationTemporalityCumulative,
				IsMonotonic:            m.Monotonic,
			},
		}
	case model.MetricKindHistogram:
		pb.Data = &metricspb.Metric_Histogram{
			Histogram: &metricspb.Histogram{
				DataPoints:             histogramDataPoints(m.DataPoints),
				AggregationTemporality: aggregationTemporalityCumulative,
			},
		}
	}

	return pb
}

func numberDataPoints(dps []model.DataPoint) []*metricspb.NumberDataPoint {
	out := make([]*metricspb.NumberDataPoint, len(dps))
	for i, dp := range dps {
		out[i] = &metricspb.NumberDataPoint{
			Attributes:   KeyValues(dp.Attrs),
			TimeUnixNano: dp.TimeUnixNano,
			Value:        &metricspb.NumberDataPoint_AsDouble{AsDouble: dp.Value},
		}
	}
	return out
}

func histogramDataPoints(dps []model.DataPoint) []*metricspb.HistogramDataPoint {
	out := make([]*metricspb.HistogramDataPoint, len(dps))
	for i, dp := range dps {
		out[i] = &metricspb.HistogramDataPoint{
			Attributes:     KeyValues(dp.Attrs),
			TimeUnixNano:   dp.TimeUnixNano,
			Count:          dp.Count,
			Sum:            &dp.Sum,
			ExplicitBounds: dp.Bounds,
			BucketCounts:   dp.BucketCounts,
		}
	}
	return out
}
