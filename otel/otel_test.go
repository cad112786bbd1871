// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z5labs/otelpipe/config"
	"github.com/z5labs/otelpipe/model"
	"github.com/z5labs/otelpipe/otlpexport"
	"github.com/z5labs/otelpipe/processor"
)

func fastBatchConfig() config.Reader[processor.BatchConfig] {
	return config.ReaderOf(processor.BatchConfig{
		ScheduleDelay:      time.Millisecond,
		MaxQueueSize:       16,
		MaxExportBatchSize: 16,
		ExportTimeout:      time.Second,
	})
}

func okCollector(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-protobuf")
		w.WriteHeader(http.StatusOK)
	}))
}

func TestTraceBackendConfig_Read(t *testing.T) {
	t.Run("resolves a nil backend", func(t *testing.T) {
		t.Run("when the signal is disabled", func(t *testing.T) {
			cfg := TraceBackendConfig{
				Enabled: config.ReaderOf(false),
			}

			v, err := cfg.Read(t.Context())
			require.NoError(t, err)
			assert.True(t, v.Set)
			assert.Nil(t, v.V)
		})
	})

	t.Run("resolves a running backend", func(t *testing.T) {
		t.Run("when the signal is enabled over HTTP", func(t *testing.T) {
			srv := okCollector(t)
			defer srv.Close()

			resource := model.NewResource("svc")
			cfg := TraceBackendConfig{
				Enabled:   config.ReaderOf(true),
				Transport: config.ReaderOf(config.TransportHTTPProtobuf),
				HTTP:      config.ReaderOf(otlpexport.HTTPConfig{Endpoint: srv.URL}),
				Batch:     fastBatchConfig(),
				Resource:  &resource,
			}

			v, err := cfg.Read(t.Context())
			require.NoError(t, err)
			require.NotNil(t, v.V)
			defer v.V.Shutdown(t.Context())

			healthy, err := v.V.Health.Healthy(t.Context())
			require.NoError(t, err)
			assert.True(t, healthy)

			require.NotNil(t, v.V.exporter)
			runErr := make(chan error, 1)
			go func() { runErr <- v.V.exporter.Run(t.Context()) }()
			select {
			case err := <-runErr:
				t.Fatalf("exporter.Run returned early: %v", err)
			case <-time.After(20 * time.Millisecond):
			}
		})
	})
}

func TestLogBackendConfig_Read(t *testing.T) {
	t.Run("selects the simple processor", func(t *testing.T) {
		t.Run("when Simple resolves true", func(t *testing.T) {
			srv := okCollector(t)
			defer srv.Close()

			resource := model.NewResource("svc")
			cfg := LogBackendConfig{
				Enabled:   config.ReaderOf(true),
				Transport: config.ReaderOf(config.TransportHTTPProtobuf),
				HTTP:      config.ReaderOf(otlpexport.HTTPConfig{Endpoint: srv.URL}),
				Simple:    config.ReaderOf(true),
				Resource:  &resource,
			}

			v, err := cfg.Read(t.Context())
			require.NoError(t, err)
			require.NotNil(t, v.V)
			defer v.V.Shutdown(t.Context())

			_, ok := v.V.logProcessor.(*processor.SimpleLogRecordProcessor)
			assert.True(t, ok)
		})
	})

	t.Run("selects the batch processor", func(t *testing.T) {
		t.Run("when Simple is unset", func(t *testing.T) {
			srv := okCollector(t)
			defer srv.Close()

			resource := model.NewResource("svc")
			cfg := LogBackendConfig{
				Enabled:   config.ReaderOf(true),
				Transport: config.ReaderOf(config.TransportHTTPProtobuf),
				HTTP:      config.ReaderOf(otlpexport.HTTPConfig{Endpoint: srv.URL}),
				Batch:     fastBatchConfig(),
				Resource:  &resource,
			}

			v, err := cfg.Read(t.Context())
			require.NoError(t, err)
			require.NotNil(t, v.V)
			defer v.V.Shutdown(t.Context())

			_, ok := v.V.logProcessor.(*processor.BatchLogRecordProcessor)
			assert.True(t, ok)
		})
	})
}

func TestBootstrap_Read(t *testing.T) {
	t.Run("omits a disabled signal from the supervised group and its health", func(t *testing.T) {
		srv := okCollector(t)
		defer srv.Close()

		resource := model.NewResource("svc")
		traceCfg := TraceBackendConfig{
			Enabled:   config.ReaderOf(true),
			Transport: config.ReaderOf(config.TransportHTTPProtobuf),
			HTTP:      config.ReaderOf(otlpexport.HTTPConfig{Endpoint: srv.URL}),
			Batch:     fastBatchConfig(),
			Resource:  &resource,
		}
		logCfg := LogBackendConfig{Enabled: config.ReaderOf(false)}
		metricCfg := MetricBackendConfig{Enabled: config.ReaderOf(false)}

		bootstrap := Bootstrap{
			Trace:  traceCfg,
			Log:    logCfg,
			Metric: metricCfg,
		}

		v, err := bootstrap.Read(t.Context())
		require.NoError(t, err)
		require.NotNil(t, v.V)
		defer v.V.Shutdown(t.Context())

		assert.NotNil(t, v.V.Trace)
		assert.Nil(t, v.V.Log)
		assert.Nil(t, v.V.Metric)

		healthy, err := v.V.Health.Healthy(t.Context())
		require.NoError(t, err)
		assert.True(t, healthy)
	})
}
