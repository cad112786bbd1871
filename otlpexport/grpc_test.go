package otlpexport

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z5labs/otelpipe/internal/retry"
)

func TestGRPCConnRun(t *testing.T) {
	t.Run("returns nil when ctx is cancelled before the connection shuts down", func(t *testing.T) {
		conn, err := dialGRPC(GRPCConfig{Target: "collector-e:4317", TLS: TLSConfig{Insecure: true}})
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		assert.NoError(t, grpcConnRun(ctx, "collector-e:4317", conn))
	})

	t.Run("reports an error when the connection shuts down on its own", func(t *testing.T) {
		conn, err := dialGRPC(GRPCConfig{Target: "collector-f:4317", TLS: TLSConfig{Insecure: true}})
		require.NoError(t, err)

		done := make(chan error, 1)
		go func() { done <- grpcConnRun(t.Context(), "collector-f:4317", conn) }()

		conn.Close()

		select {
		case err := <-done:
			assert.Error(t, err)
			assert.ErrorContains(t, err, "shut down unexpectedly")
		case <-time.After(5 * time.Second):
			t.Fatal("grpcConnRun did not return after the connection was closed")
		}
	})
}

func TestDialGRPC_CachesConnectionByTarget(t *testing.T) {
	cfg := GRPCConfig{Target: "localhost:4317", TLS: TLSConfig{Insecure: true}}

	connA, err := dialGRPC(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { connA.Close() })

	connB, err := dialGRPC(cfg)
	require.NoError(t, err)

	assert.Same(t, connA, connB)
}

func TestDialGRPC_DifferentTargetsGetDifferentConnections(t *testing.T) {
	connA, err := dialGRPC(GRPCConfig{Target: "collector-a:4317", TLS: TLSConfig{Insecure: true}})
	require.NoError(t, err)
	t.Cleanup(func() { connA.Close() })

	connB, err := dialGRPC(GRPCConfig{Target: "collector-b:4317", TLS: TLSConfig{Insecure: true}})
	require.NoError(t, err)
	t.Cleanup(func() { connB.Close() })

	assert.NotSame(t, connA, connB)
}

func TestDialGRPC_RejectsHalfConfiguredMTLS(t *testing.T) {
	_, err := dialGRPC(GRPCConfig{
		Target: "collector-c:4317",
		TLS:    TLSConfig{ClientCertFile: "only-cert.pem"},
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "config_invalid")
}

func TestGRPCCallOptions(t *testing.T) {
	t.Run("gzip compression adds a call option", func(t *testing.T) {
		opts := grpcCallOptions(GRPCConfig{Compression: "gzip"})
		assert.Len(t, opts, 1)
	})

	t.Run("no compression adds nothing", func(t *testing.T) {
		opts := grpcCallOptions(GRPCConfig{})
		assert.Empty(t, opts)
	})
}

func TestGRPCRetryServiceConfig(t *testing.T) {
	t.Run("falls back to DefaultPolicy's values when unset", func(t *testing.T) {
		doc := grpcRetryServiceConfig(retry.Policy{})

		var parsed map[string]any
		require.NoError(t, json.Unmarshal([]byte(doc), &parsed))

		methodConfig := parsed["methodConfig"].([]any)[0].(map[string]any)
		retryPolicy := methodConfig["retryPolicy"].(map[string]any)
		assert.Equal(t, float64(5), retryPolicy["MaxAttempts"])
		assert.ElementsMatch(t,
			[]any{"RESOURCE_EXHAUSTED", "UNAVAILABLE", "DEADLINE_EXCEEDED"},
			retryPolicy["RetryableStatusCodes"],
		)
	})

	t.Run("caps MaxAttempts at 5", func(t *testing.T) {
		doc := grpcRetryServiceConfig(retry.Policy{MaxAttempts: 50})

		var parsed map[string]any
		require.NoError(t, json.Unmarshal([]byte(doc), &parsed))

		methodConfig := parsed["methodConfig"].([]any)[0].(map[string]any)
		retryPolicy := methodConfig["retryPolicy"].(map[string]any)
		assert.Equal(t, float64(5), retryPolicy["MaxAttempts"])
	})

	t.Run("renders durations in gRPC's seconds-suffixed form", func(t *testing.T) {
		assert.Equal(t, "2s", grpcServiceConfigDuration(2*time.Second))
		assert.Equal(t, "0.5s", grpcServiceConfigDuration(500*time.Millisecond))
	})
}

func TestCloseGRPC(t *testing.T) {
	conn, err := dialGRPC(GRPCConfig{Target: "collector-d:4317", TLS: TLSConfig{Insecure: true}})
	require.NoError(t, err)

	err = closeGRPC(GRPCConfig{}, conn)
	assert.NoError(t, err)
}
