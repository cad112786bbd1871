package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z5labs/otelpipe/health"
)

type fakeExporter[T any] struct {
	err error
}

func (e *fakeExporter[T]) Export(ctx context.Context, items []T) error { return e.err }
func (e *fakeExporter[T]) ForceFlush(ctx context.Context) error        { return nil }
func (e *fakeExporter[T]) Shutdown(ctx context.Context) error          { return nil }

func TestHealthTrackingExporter(t *testing.T) {
	t.Run("stays healthy below the failure threshold", func(t *testing.T) {
		exp := &fakeExporter[string]{err: errors.New("export failed")}
		monitor := &health.Binary{}
		tracked := NewHealthTrackingExporter[string](exp, monitor)

		for i := 0; i < consecutiveFailureThreshold-1; i++ {
			_ = tracked.Export(t.Context(), []string{"x"})
		}

		healthy, err := monitor.Healthy(t.Context())
		require.NoError(t, err)
		assert.True(t, healthy)
	})

	t.Run("goes unhealthy after three consecutive failures", func(t *testing.T) {
		exp := &fakeExporter[string]{err: errors.New("export failed")}
		monitor := &health.Binary{}
		tracked := NewHealthTrackingExporter[string](exp, monitor)

		for i := 0; i < consecutiveFailureThreshold; i++ {
			_ = tracked.Export(t.Context(), []string{"x"})
		}

		healthy, err := monitor.Healthy(t.Context())
		require.NoError(t, err)
		assert.False(t, healthy)
	})

	t.Run("one success resets to healthy", func(t *testing.T) {
		exp := &fakeExporter[string]{err: errors.New("export failed")}
		monitor := &health.Binary{}
		tracked := NewHealthTrackingExporter[string](exp, monitor)

		for i := 0; i < consecutiveFailureThreshold; i++ {
			_ = tracked.Export(t.Context(), []string{"x"})
		}
		healthy, _ := monitor.Healthy(t.Context())
		require.False(t, healthy)

		exp.err = nil
		_ = tracked.Export(t.Context(), []string{"x"})

		healthy, err := monitor.Healthy(t.Context())
		require.NoError(t, err)
		assert.True(t, healthy)
	})
}
