package otlpexport

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	_ "google.golang.org/grpc/encoding/gzip"
	"google.golang.org/grpc/metadata"

	"github.com/z5labs/otelpipe/concurrent"
	"github.com/z5labs/otelpipe/internal/clock"
	"github.com/z5labs/otelpipe/internal/retry"
	"github.com/z5labs/otelpipe/internal/timeout"
)

// GRPCConfig configures a gRPC exporter's transport.
type GRPCConfig struct {
	// Target is the dial target, e.g. "localhost:4317" or a resolver
	// scheme URI.
	Target string
	// Compression is "" (none) or "gzip".
	Compression     string
	Headers         map[string]string
	Timeout         time.Duration
	RetryPolicy     retry.Policy
	TLS             TLSConfig
	ShutdownTimeout time.Duration
}

// grpcConns caches one *grpc.ClientConn per dial target, so exporters
// constructed against the same collector reuse a single connection
// instead of repeating the TCP/TLS handshake.
var grpcConns = concurrent.NewCache[string, *grpc.ClientConn]()

// grpcServiceConfigDuration renders d the way a gRPC service config
// JSON document expects durations: a decimal number of seconds
// suffixed with "s" (see
// https://github.com/grpc/grpc/blob/master/doc/service_config.md).
func grpcServiceConfigDuration(d time.Duration) string {
	return fmt.Sprintf("%gs", d.Seconds())
}

// grpcRetryServiceConfig renders a gRPC service config JSON document
// configuring the transport's own built-in retry policy, so the
// client library retries transient RPC failures itself rather than
// this package reimplementing retry on top of it. The retryable codes
// mirror retry.RetryableGRPCCode; grpc-go caps MaxAttempts at 5
// regardless of what is requested here.
func grpcRetryServiceConfig(policy retry.Policy) string {
	initial := policy.InitialInterval
	if initial <= 0 {
		initial = retry.DefaultPolicy.InitialInterval
	}
	max := policy.MaxInterval
	if max <= 0 {
		max = retry.DefaultPolicy.MaxInterval
	}
	multiplier := policy.Multiplier
	if multiplier <= 0 {
		multiplier = retry.DefaultPolicy.Multiplier
	}
	maxAttempts := policy.MaxAttempts
	if maxAttempts <= 0 || maxAttempts > 5 {
		maxAttempts = 5
	}

	return fmt.Sprintf(`{
  "methodConfig": [{
    "name": [{}],
    "retryPolicy": {
      "MaxAttempts": %d,
      "InitialBackoff": %q,
      "MaxBackoff": %q,
      "BackoffMultiplier": %g,
      "RetryableStatusCodes": ["RESOURCE_EXHAUSTED", "UNAVAILABLE", "DEADLINE_EXCEEDED"]
    }
  }]
}`, maxAttempts, grpcServiceConfigDuration(initial), grpcServiceConfigDuration(max), multiplier)
}

func dialGRPC(cfg GRPCConfig) (*grpc.ClientConn, error) {
	if err := cfg.TLS.Validate(); err != nil {
		return nil, err
	}

	return grpcConns.GetOr(cfg.Target, func() (*grpc.ClientConn, error) {
		creds := credentials.TransportCredentials(insecure.NewCredentials())
		if !cfg.TLS.Insecure {
			tlsCfg, err := cfg.TLS.Load()
			if err != nil {
				return nil, err
			}
			creds = credentials.NewTLS(tlsCfg)
		}
		return grpc.NewClient(
			cfg.Target,
			grpc.WithTransportCredentials(creds),
			grpc.WithDefaultServiceConfig(grpcRetryServiceConfig(cfg.RetryPolicy)),
		)
	})
}

func grpcOutgoingContext(ctx context.Context, headers map[string]string) context.Context {
	if len(headers) == 0 {
		return ctx
	}
	return metadata.NewOutgoingContext(ctx, metadata.New(headers))
}

func grpcCallOptions(cfg GRPCConfig) []grpc.CallOption {
	if cfg.Compression == "gzip" {
		return []grpc.CallOption{grpc.UseCompressor("gzip")}
	}
	return nil
}

// grpcExport runs rpc under the configured timeout, with the
// configured per-RPC metadata and compression call option attached.
// Retrying a transient failure is the connection's own job: dialGRPC
// configures the client's built-in retry policy via the gRPC service
// config, so grpcExport itself makes exactly one call per invocation.
func grpcExport(ctx context.Context, cfg GRPCConfig, clk clock.Clock, rpc func(context.Context, ...grpc.CallOption) error) error {
	if clk == nil {
		clk = clock.Real
	}

	ctx = grpcOutgoingContext(ctx, cfg.Headers)
	opts := grpcCallOptions(cfg)

	return timeout.Await(ctx, clk, cfg.Timeout, func(ctx context.Context) error {
		return rpc(ctx, opts...)
	})
}

// grpcConnRun watches conn's connectivity state until ctx is done or
// the connection reaches connectivity.Shutdown on its own, i.e.
// without going through closeGRPC — which would mean the gRPC library
// gave up on the target (or something outside this package's shutdown
// path closed it) rather than the pipeline choosing to shut down. That
// is reported as a failure, the same way a crashed processor or
// reader's Run would be, so the supervising lifecycle group aborts
// instead of silently exporting into a dead connection.
func grpcConnRun(ctx context.Context, target string, conn *grpc.ClientConn) error {
	state := conn.GetState()
	for {
		if !conn.WaitForStateChange(ctx, state) {
			return nil
		}
		state = conn.GetState()
		if state == connectivity.Shutdown {
			return fmt.Errorf("grpc connection to %s shut down unexpectedly", target)
		}
	}
}

// closeGRPC closes conn, bounding the wait by cfg.ShutdownTimeout (zero
// means no bound).
func closeGRPC(cfg GRPCConfig, conn *grpc.ClientConn) error {
	if cfg.ShutdownTimeout <= 0 {
		return conn.Close()
	}

	done := make(chan error, 1)
	go func() { done <- conn.Close() }()

	select {
	case err := <-done:
		return err
	case <-time.After(cfg.ShutdownTimeout):
		return nil
	}
}
