// Package model defines the in-memory representations of telemetry
// data as it moves through the pipeline: finished spans, log records,
// and collected metrics, along with the resource and instrumentation
// scope metadata attached to them before export.
package model

import (
	"go.opentelemetry.io/otel/attribute"
)

// ServiceNameKey is the resource attribute key carrying the logical
// name of the service producing telemetry.
const ServiceNameKey = attribute.Key("service.name")

// Scope is the fixed instrumentation scope identifying this pipeline as
// the producer of every signal it exports.
var Scope = InstrumentationScope{
	Name:    "swift-otel",
	Version: Version,
}

// InstrumentationScope identifies the library that produced a span,
// log record, or metric.
type InstrumentationScope struct {
	Name    string
	Version string
}

// Resource is the immutable set of attributes describing the entity
// producing telemetry. ServiceName always takes precedence over any
// "service.name" entry present in Attrs: it is resolved once, here, at
// construction time rather than re-resolved by every exporter.
type Resource struct {
	attrs       attribute.Set
	ServiceName string
}

// NewResource builds a Resource from a base attribute set and an
// explicit service name. The explicit name overrides any "service.name"
// key already present in attrs.
func NewResource(serviceName string, attrs ...attribute.KeyValue) Resource {
	filtered := make([]attribute.KeyValue, 0, len(attrs)+1)
	for _, kv := range attrs {
		if kv.Key == ServiceNameKey {
			continue
		}
		filtered = append(filtered, kv)
	}
	filtered = append(filtered, ServiceNameKey.String(serviceName))

	return Resource{
		attrs:       attribute.NewSet(filtered...),
		ServiceName: serviceName,
	}
}

// Attributes returns the fully resolved attribute set, including the
// "service.name" entry derived from ServiceName.
func (r Resource) Attributes() attribute.Set {
	return r.attrs
}

// Equivalent reports whether two resources carry the same attributes,
// ignoring attribute order.
func (r Resource) Equivalent(o Resource) bool {
	return r.attrs.Equivalent(o.attrs)
}
