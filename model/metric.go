package model

import (
	"go.opentelemetry.io/otel/attribute"
)

// MetricKind distinguishes the aggregation temporality/shape of a
// collected metric.
type MetricKind int

const (
	MetricKindGauge MetricKind = iota
	MetricKindSum
	MetricKindHistogram
)

// DataPoint is a single measurement recorded at a point in time.
type DataPoint struct {
	Attrs          attribute.Set
	TimeUnixNano   uint64
	Value          float64
	Count          uint64 // histogram sample count; unused for gauge/sum
	Sum            float64
	Bounds         []float64
	BucketCounts   []uint64
}

// Metric is one named instrument's collected data points.
type Metric struct {
	Name        string
	Description string
	Unit        string
	Kind        MetricKind
	Monotonic   bool
	DataPoints  []DataPoint
}

// ScopeMetrics groups metrics collected under one instrumentation
// scope.
type ScopeMetrics struct {
	Scope   InstrumentationScope
	Metrics []Metric
}

// ResourceMetrics is a resource-scoped collection of metrics gathered
// during a single periodic-reader collection cycle.
type ResourceMetrics struct {
	Resource     *Resource
	ScopeMetrics []ScopeMetrics
}
