// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otel bootstraps one pipeline per signal (traces, logs,
// metrics) from configuration: selecting the HTTP or gRPC exporter,
// wrapping it for health tracking, and handing it to the matching
// processor or periodic reader. [Bootstrap] composes the three signals'
// components into a single supervised [lifecycle.Pipeline].
//
// Building the observability API facade itself — the tracer/meter/
// logger types application code calls into — is out of scope here;
// this package produces the backend the facade's bootstrap would wire
// the per-signal intake methods (OnEnd, Emit, a metric Producer) into.
package otel

import (
	"context"
	"log/slog"
	"time"

	"github.com/z5labs/otelpipe/config"
	"github.com/z5labs/otelpipe/health"
	"github.com/z5labs/otelpipe/lifecycle"
	"github.com/z5labs/otelpipe/metricreader"
	"github.com/z5labs/otelpipe/model"
	"github.com/z5labs/otelpipe/noop"
	"github.com/z5labs/otelpipe/otlpexport"
	"github.com/z5labs/otelpipe/processor"
)

func httpProtocol(t config.Transport) otlpexport.Protocol {
	if t == config.TransportHTTPJSON {
		return otlpexport.ProtocolJSON
	}
	return otlpexport.ProtocolProtobuf
}

func defaultLogger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.New(noop.LogHandler{})
}

// runOnly narrows a component down to its Run method, hiding any
// Shutdowner it also implements. Used to register an exporter's Run as
// a lifecycle sibling without the pipeline shutting it down a second
// time — its owning processor or reader already does that through its
// own Shutdown, after force-flushing.
type runOnly struct {
	lifecycle.Component
}

// exporterRunner returns a Component running exp's Run method, or nil
// if exp doesn't implement one.
func exporterRunner(exp any) lifecycle.Component {
	r, ok := exp.(lifecycle.Component)
	if !ok {
		return nil
	}
	return runOnly{r}
}

// TraceBackend pairs a running BatchSpanProcessor with the health
// monitor tracking its exporter, so a facade's span-end hook
// (OnEnd) and the pipeline's health check both have somewhere to attach.
type TraceBackend struct {
	*processor.BatchSpanProcessor
	Health *health.Binary

	// exporter is the raw exporter's own Run, registered as a lifecycle
	// sibling alongside the processor so an unexpected exporter failure
	// (e.g. a gRPC connection dropping) aborts the pipeline the same way
	// a crashed processor would, rather than going unnoticed until the
	// next export call fails. Nil if the exporter has nothing to run.
	exporter lifecycle.Component
}

// TraceBackendConfig resolves a [TraceBackend] from configuration. A
// disabled signal (Enabled resolves false) yields a nil backend and no
// error — the caller's facade is expected to reject calls into a
// disabled signal's API itself.
type TraceBackendConfig struct {
	Enabled   config.Reader[bool]
	Transport config.Reader[config.Transport]
	HTTP      config.Reader[otlpexport.HTTPConfig]
	GRPC      config.Reader[otlpexport.GRPCConfig]
	Batch     config.Reader[processor.BatchConfig]
	Resource  *model.Resource
	Logger    *slog.Logger
}

// Read implements config.Reader[*TraceBackend].
func (cfg TraceBackendConfig) Read(ctx context.Context) (config.Value[*TraceBackend], error) {
	enabled := config.MustOr(ctx, cfg.Enabled, true)
	if !enabled {
		return config.ValueOf[*TraceBackend](nil), nil
	}

	logger := defaultLogger(cfg.Logger)
	transport := config.MustOr(ctx, cfg.Transport, config.TransportHTTPProtobuf)

	var exporter processor.Exporter[model.FinishedSpan]
	switch transport {
	case config.TransportGRPC:
		grpcCfg := config.Must(ctx, cfg.GRPC)
		exp, err := otlpexport.NewSpanGRPCExporter(grpcCfg, cfg.Resource, otlpexport.WithLogger(logger))
		if err != nil {
			return config.Value[*TraceBackend]{}, err
		}
		exporter = exp
	default:
		httpCfg := config.Must(ctx, cfg.HTTP)
		httpCfg.Protocol = httpProtocol(transport)
		exp, err := otlpexport.NewSpanHTTPExporter(httpCfg, cfg.Resource, otlpexport.WithLogger(logger))
		if err != nil {
			return config.Value[*TraceBackend]{}, err
		}
		exporter = exp
	}

	runner := exporterRunner(exporter)

	monitor := &health.Binary{}
	tracked := lifecycle.NewHealthTrackingExporter[model.FinishedSpan](exporter, monitor)

	batchCfg := config.Must(ctx, cfg.Batch)
	bsp := processor.NewBatchSpanProcessor(batchCfg, tracked, processor.WithSpanLogger(logger))

	return config.ValueOf(&TraceBackend{BatchSpanProcessor: bsp, Health: monitor, exporter: runner}), nil
}

// logProcessor is the capability set both the batch and simple log
// record processors expose; LogBackend is built from whichever one
// configuration selects.
type logProcessor interface {
	Emit(model.LogRecord)
	Run(ctx context.Context) error
	ForceFlush(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// LogBackend pairs a running log record processor (batch or simple,
// per configuration) with its exporter's health monitor.
type LogBackend struct {
	logProcessor
	Health *health.Binary

	// exporter is the raw exporter's own Run, registered as a lifecycle
	// sibling alongside the processor. Nil if the exporter has nothing
	// to run.
	exporter lifecycle.Component
}

// Emit forwards record to the underlying processor. Exposed explicitly
// (rather than relying on the embedded interface alone) so LogBackend's
// godoc surfaces the one method a facade's log bridge actually calls.
func (b *LogBackend) Emit(record model.LogRecord) {
	b.logProcessor.Emit(record)
}

// LogBackendConfig resolves a [LogBackend]. Simple, when it resolves
// true, puts the non-batching [processor.SimpleLogRecordProcessor] in
// front of the configured OTLP exporter instead of the batch log record
// processor; otherwise the backend batches.
type LogBackendConfig struct {
	Enabled   config.Reader[bool]
	Transport config.Reader[config.Transport]
	HTTP      config.Reader[otlpexport.HTTPConfig]
	GRPC      config.Reader[otlpexport.GRPCConfig]
	Batch     config.Reader[processor.BatchConfig]
	Simple    config.Reader[bool]
	Resource  *model.Resource
	Logger    *slog.Logger
}

// Read implements config.Reader[*LogBackend].
func (cfg LogBackendConfig) Read(ctx context.Context) (config.Value[*LogBackend], error) {
	enabled := config.MustOr(ctx, cfg.Enabled, true)
	if !enabled {
		return config.ValueOf[*LogBackend](nil), nil
	}

	logger := defaultLogger(cfg.Logger)
	transport := config.MustOr(ctx, cfg.Transport, config.TransportHTTPProtobuf)

	var exporter processor.Exporter[model.LogRecord]
	switch transport {
	case config.TransportGRPC:
		grpcCfg := config.Must(ctx, cfg.GRPC)
		exp, err := otlpexport.NewLogGRPCExporter(grpcCfg, cfg.Resource, otlpexport.WithLogger(logger))
		if err != nil {
			return config.Value[*LogBackend]{}, err
		}
		exporter = exp
	default:
		httpCfg := config.Must(ctx, cfg.HTTP)
		httpCfg.Protocol = httpProtocol(transport)
		exp, err := otlpexport.NewLogHTTPExporter(httpCfg, cfg.Resource, otlpexport.WithLogger(logger))
		if err != nil {
			return config.Value[*LogBackend]{}, err
		}
		exporter = exp
	}

	runner := exporterRunner(exporter)

	monitor := &health.Binary{}
	tracked := lifecycle.NewHealthTrackingExporter[model.LogRecord](exporter, monitor)

	simple := config.MustOr(ctx, cfg.Simple, false)
	if simple {
		return config.ValueOf(&LogBackend{
			logProcessor: processor.NewSimpleLogRecordProcessor(tracked, processor.WithSimpleLogger(logger)),
			Health:       monitor,
			exporter:     runner,
		}), nil
	}

	batchCfg := config.Must(ctx, cfg.Batch)
	blrp := processor.NewBatchLogRecordProcessor(batchCfg, tracked, processor.WithLogLogger(logger))
	return config.ValueOf(&LogBackend{logProcessor: blrp, Health: monitor, exporter: runner}), nil
}

// MetricBackend pairs a running periodic metrics reader with its
// exporter's health monitor. The metric API facade is out of scope
// here, so the Producer pulling current instrument values is supplied
// by the caller rather than built by this package.
type MetricBackend struct {
	*metricreader.Reader
	Health *health.Binary

	// exporter is the raw exporter's own Run, registered as a lifecycle
	// sibling alongside the reader. Nil if the exporter has nothing to
	// run.
	exporter lifecycle.Component
}

// MetricBackendConfig resolves a [MetricBackend] from configuration.
type MetricBackendConfig struct {
	Enabled   config.Reader[bool]
	Transport config.Reader[config.Transport]
	HTTP      config.Reader[otlpexport.HTTPConfig]
	GRPC      config.Reader[otlpexport.GRPCConfig]
	Interval  config.Reader[time.Duration]
	Timeout   config.Reader[time.Duration]
	Resource  *model.Resource
	Producer  metricreader.Producer
	Logger    *slog.Logger
}

// Read implements config.Reader[*MetricBackend].
func (cfg MetricBackendConfig) Read(ctx context.Context) (config.Value[*MetricBackend], error) {
	enabled := config.MustOr(ctx, cfg.Enabled, true)
	if !enabled {
		return config.ValueOf[*MetricBackend](nil), nil
	}

	logger := defaultLogger(cfg.Logger)
	transport := config.MustOr(ctx, cfg.Transport, config.TransportHTTPProtobuf)

	var exporter metricreader.Exporter
	switch transport {
	case config.TransportGRPC:
		grpcCfg := config.Must(ctx, cfg.GRPC)
		exp, err := otlpexport.NewMetricGRPCExporter(grpcCfg, otlpexport.WithLogger(logger))
		if err != nil {
			return config.Value[*MetricBackend]{}, err
		}
		exporter = exp
	default:
		httpCfg := config.Must(ctx, cfg.HTTP)
		httpCfg.Protocol = httpProtocol(transport)
		exp, err := otlpexport.NewMetricHTTPExporter(httpCfg, otlpexport.WithLogger(logger))
		if err != nil {
			return config.Value[*MetricBackend]{}, err
		}
		exporter = exp
	}

	runner := exporterRunner(exporter)

	monitor := &health.Binary{}
	tracked := lifecycle.NewHealthTrackingMetricExporter(exporter, monitor)

	readerCfg := metricreader.Config{
		ExportInterval: config.MustOr(ctx, cfg.Interval, time.Minute),
		ExportTimeout:  config.MustOr(ctx, cfg.Timeout, 30*time.Second),
		Resource:       cfg.Resource,
	}
	reader := metricreader.New(readerCfg, cfg.Producer, tracked, metricreader.WithLogger(logger))

	return config.ValueOf(&MetricBackend{Reader: reader, Health: monitor, exporter: runner}), nil
}

// Pipeline is the fully assembled set of per-signal backends, supervised
// as one [lifecycle.Pipeline]. A signal whose backend was disabled is
// left nil; its health is excluded from Health rather than reported
// unhealthy.
type Pipeline struct {
	Trace  *TraceBackend
	Log    *LogBackend
	Metric *MetricBackend

	*lifecycle.Pipeline
	Health health.Monitor
}

// Bootstrap composes the three per-signal backend readers into one
// [Pipeline] reader: the outer bootstrap's group supervising the three
// per-signal groups.
type Bootstrap struct {
	Trace  config.Reader[*TraceBackend]
	Log    config.Reader[*LogBackend]
	Metric config.Reader[*MetricBackend]
}

// Read implements config.Reader[*Pipeline].
func (b Bootstrap) Read(ctx context.Context) (config.Value[*Pipeline], error) {
	trace := config.MustOr[*TraceBackend](ctx, b.Trace, nil)
	logBackend := config.MustOr[*LogBackend](ctx, b.Log, nil)
	metric := config.MustOr[*MetricBackend](ctx, b.Metric, nil)

	var components []lifecycle.Component
	var monitors []health.Monitor

	if trace != nil {
		components = append(components, trace)
		if trace.exporter != nil {
			components = append(components, trace.exporter)
		}
		monitors = append(monitors, trace.Health)
	}
	if logBackend != nil {
		components = append(components, logBackend)
		if logBackend.exporter != nil {
			components = append(components, logBackend.exporter)
		}
		monitors = append(monitors, logBackend.Health)
	}
	if metric != nil {
		components = append(components, metric)
		if metric.exporter != nil {
			components = append(components, metric.exporter)
		}
		monitors = append(monitors, metric.Health)
	}

	return config.ValueOf(&Pipeline{
		Trace:    trace,
		Log:      logBackend,
		Metric:   metric,
		Pipeline: lifecycle.New(components...),
		Health:   health.And(monitors...),
	}), nil
}
