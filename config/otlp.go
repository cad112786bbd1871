package config

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/z5labs/otelpipe/model"
	"github.com/z5labs/otelpipe/otlpexport"
	"github.com/z5labs/otelpipe/processor"
)

// Transport selects the wire transport an OTLP exporter uses, per the
// OTEL_EXPORTER_OTLP_PROTOCOL / OTEL_EXPORTER_OTLP_<SIGNAL>_PROTOCOL
// values.
type Transport string

const (
	TransportGRPC         Transport = "grpc"
	TransportHTTPProtobuf Transport = "http/protobuf"
	TransportHTTPJSON     Transport = "http/json"
)

// Signal names the three telemetry signals, used to build the
// per-signal environment variable names (OTEL_EXPORTER_OTLP_<Signal>_*).
type Signal string

const (
	SignalTraces  Signal = "TRACES"
	SignalMetrics Signal = "METRICS"
	SignalLogs    Signal = "LOGS"
)

const (
	defaultHTTPEndpoint = "http://localhost:4318"
	defaultGRPCEndpoint = "http://localhost:4317"
	defaultTimeout      = 10 * time.Second
)

// perSignalEnv resolves the OTLP environment variable precedence: the
// per-signal variable wins over the shared one.
func perSignalEnv(signal Signal, suffix string) Reader[string] {
	return Or(
		Env("OTEL_EXPORTER_OTLP_"+string(signal)+"_"+suffix),
		Env("OTEL_EXPORTER_OTLP_"+suffix),
	)
}

// EnabledFromEnv resolves a signal's enable flag. Absent any override,
// a signal is enabled.
func EnabledFromEnv(signal Signal) Reader[bool] {
	return Default(true, BoolFromString(perSignalEnv(signal, "ENABLED")))
}

// TransportFromEnv resolves a signal's wire transport.
func TransportFromEnv(signal Signal) Reader[Transport] {
	return Map(perSignalEnv(signal, "PROTOCOL"), func(ctx context.Context, v string) (Transport, error) {
		return Transport(v), nil
	})
}

// CompressionFromEnv resolves a signal's body/per-RPC compression,
// defaulting to "none".
func CompressionFromEnv(signal Signal) Reader[string] {
	return Default("none", perSignalEnv(signal, "COMPRESSION"))
}

// TimeoutFromEnv resolves a signal's export timeout, defaulting to 10s
// to match the official OTLP exporters.
func TimeoutFromEnv(signal Signal) Reader[time.Duration] {
	return Default(defaultTimeout, DurationFromString(perSignalEnv(signal, "TIMEOUT")))
}

// HeadersFromEnv resolves a signal's extra request headers from a
// comma-separated key=value list.
func HeadersFromEnv(signal Signal) Reader[map[string]string] {
	return Map(perSignalEnv(signal, "HEADERS"), func(ctx context.Context, v string) (map[string]string, error) {
		return parseKeyValueList(v), nil
	})
}

// CACertFileFromEnv, ClientCertFileFromEnv, and ClientKeyFileFromEnv
// resolve the shared (not per-signal) mTLS file paths.
func CACertFileFromEnv() Reader[string]     { return Env("OTEL_EXPORTER_OTLP_CERTIFICATE") }
func ClientCertFileFromEnv() Reader[string] { return Env("OTEL_EXPORTER_OTLP_CLIENT_CERTIFICATE") }
func ClientKeyFileFromEnv() Reader[string]  { return Env("OTEL_EXPORTER_OTLP_CLIENT_KEY") }

// TLSFromEnv builds the otlpexport.TLSConfig for a transport, deriving
// the insecure flag from the endpoint's scheme: an explicit "https"
// scheme always uses TLS, anything else (including no scheme at all,
// e.g. a bare gRPC "host:port" target) is insecure.
func TLSFromEnv(ctx context.Context, endpoint string) (otlpexport.TLSConfig, error) {
	ca, err := CACertFileFromEnv().Read(ctx)
	if err != nil {
		return otlpexport.TLSConfig{}, err
	}
	cert, err := ClientCertFileFromEnv().Read(ctx)
	if err != nil {
		return otlpexport.TLSConfig{}, err
	}
	key, err := ClientKeyFileFromEnv().Read(ctx)
	if err != nil {
		return otlpexport.TLSConfig{}, err
	}

	return otlpexport.TLSConfig{
		Insecure:       !strings.HasPrefix(endpoint, "https://"),
		CACertFile:     ca.V,
		ClientCertFile: cert.V,
		ClientKeyFile:  key.V,
	}, nil
}

// HTTPEndpoint resolves the full HTTP request URL for signal with path
// (e.g. "v1/traces") appended. The path is appended only when the
// endpoint was not explicitly set anywhere — per-signal env, shared
// env, and an in-code base all count as explicit and are used as-is;
// only the unadorned library default gets the signal path appended.
func HTTPEndpoint(signal Signal, path string, inCodeBase Reader[string]) Reader[string] {
	explicit := Or(perSignalEnv(signal, "ENDPOINT"), inCodeBase)
	return ReaderFunc[string](func(ctx context.Context) (Value[string], error) {
		v, err := explicit.Read(ctx)
		if err != nil {
			return Value[string]{}, err
		}
		if v.Set {
			return ValueOf(v.V), nil
		}
		return ValueOf(joinPath(defaultHTTPEndpoint, path)), nil
	})
}

// GRPCEndpoint resolves the gRPC dial target for signal: used as-is if
// explicitly set (per-signal env, shared env, or in-code), otherwise
// the default local collector target.
func GRPCEndpoint(signal Signal, inCodeBase Reader[string]) Reader[string] {
	return Default(defaultGRPCEndpoint, Or(perSignalEnv(signal, "ENDPOINT"), inCodeBase))
}

func joinPath(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// parseKeyValueList parses a comma-separated list of key=value pairs,
// the convention shared by OTEL_RESOURCE_ATTRIBUTES and the per-signal
// *_HEADERS variables. Malformed entries (no "=") are skipped.
func parseKeyValueList(s string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}

// ResourceConfig resolves the service name and attribute set that make
// up a pipeline's model.Resource.
type ResourceConfig struct {
	ServiceName Reader[string]
	Attributes  Reader[[]attribute.KeyValue]
}

// Resource resolves cfg into a model.Resource. The in-code attribute
// map wins over OTEL_RESOURCE_ATTRIBUTES for any key present in both;
// the env var only contributes keys the in-code map left unset.
// ServiceName resolves through its own dedicated
// precedence (OTEL_SERVICE_NAME over any in-code value), independent of
// whatever "service.name" entry the attribute maps carry.
func (cfg ResourceConfig) Resource(ctx context.Context) (*model.Resource, error) {
	name, err := Or(Env("OTEL_SERVICE_NAME"), cfg.ServiceName).Read(ctx)
	if err != nil {
		return nil, err
	}

	codeAttrs, err := cfg.Attributes.Read(ctx)
	if err != nil {
		return nil, err
	}

	envAttrsStr, err := Env("OTEL_RESOURCE_ATTRIBUTES").Read(ctx)
	if err != nil {
		return nil, err
	}

	merged := mergeAttributes(codeAttrs.V, parseAttributeList(envAttrsStr.V))
	r := model.NewResource(name.V, merged...)
	return &r, nil
}

func parseAttributeList(s string) []attribute.KeyValue {
	pairs := parseKeyValueList(s)
	out := make([]attribute.KeyValue, 0, len(pairs))
	for k, v := range pairs {
		out = append(out, attribute.String(k, v))
	}
	return out
}

func mergeAttributes(code, env []attribute.KeyValue) []attribute.KeyValue {
	seen := make(map[attribute.Key]bool, len(code))
	merged := make([]attribute.KeyValue, 0, len(code)+len(env))
	for _, kv := range code {
		seen[kv.Key] = true
		merged = append(merged, kv)
	}
	for _, kv := range env {
		if seen[kv.Key] {
			continue
		}
		merged = append(merged, kv)
	}
	return merged
}

// BatchConfig resolves a processor.BatchConfig from the OTEL_BSP_* (span)
// or OTEL_BLRP_* (log record) environment variable family, given the
// shared variable prefix ("OTEL_BSP" or "OTEL_BLRP").
func BatchConfig(prefix string) Reader[processor.BatchConfig] {
	delay := Default(5*time.Second, DurationFromString(Env(prefix+"_SCHEDULE_DELAY")))
	timeout := Default(30*time.Second, DurationFromString(Env(prefix+"_EXPORT_TIMEOUT")))
	maxQueue := Default(2048, IntFromString(Env(prefix+"_MAX_QUEUE_SIZE")))
	maxBatch := Default(512, IntFromString(Env(prefix+"_MAX_EXPORT_BATCH_SIZE")))

	return ReaderFunc[processor.BatchConfig](func(ctx context.Context) (Value[processor.BatchConfig], error) {
		d, err := delay.Read(ctx)
		if err != nil {
			return Value[processor.BatchConfig]{}, err
		}
		t, err := timeout.Read(ctx)
		if err != nil {
			return Value[processor.BatchConfig]{}, err
		}
		q, err := maxQueue.Read(ctx)
		if err != nil {
			return Value[processor.BatchConfig]{}, err
		}
		b, err := maxBatch.Read(ctx)
		if err != nil {
			return Value[processor.BatchConfig]{}, err
		}
		return ValueOf(processor.BatchConfig{
			ScheduleDelay:      d.V,
			ExportTimeout:      t.V,
			MaxQueueSize:       q.V,
			MaxExportBatchSize: b.V,
		}), nil
	})
}

// MetricExportIntervalFromEnv resolves OTEL_METRIC_EXPORT_INTERVAL,
// defaulting to 60s to match the official SDKs.
func MetricExportIntervalFromEnv() Reader[time.Duration] {
	return Default(60*time.Second, DurationFromString(Env("OTEL_METRIC_EXPORT_INTERVAL")))
}

// MetricExportTimeoutFromEnv resolves OTEL_METRIC_EXPORT_TIMEOUT,
// defaulting to 30s.
func MetricExportTimeoutFromEnv() Reader[time.Duration] {
	return Default(30*time.Second, DurationFromString(Env("OTEL_METRIC_EXPORT_TIMEOUT")))
}
