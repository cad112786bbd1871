package otlpexport

import (
	"log/slog"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/z5labs/otelpipe/internal/clock"
)

// Option configures an exporter at construction.
type Option func(*options)

type options struct {
	clock  clock.Clock
	logger *slog.Logger
}

// WithClock overrides the clock used for export timeouts, primarily for
// deterministic tests. It does not affect the HTTP exporters' waits
// between retry attempts, which always run on the real clock.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger overrides the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func resolveOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// unmarshalResponse decodes a collector response body per the
// protocol the request was encoded with. An empty body (some
// collectors reply 200 with nothing) is treated as an empty, non-error
// response.
func unmarshalResponse(p Protocol, data []byte, msg proto.Message) error {
	if len(data) == 0 {
		return nil
	}
	if p == ProtocolJSON {
		return protojson.Unmarshal(data, msg)
	}
	return proto.Unmarshal(data, msg)
}
