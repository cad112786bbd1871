// Package otlpexport implements the OTLP HTTP and gRPC exporters:
// transport-level concerns (retry, compression, TLS, connection
// reuse) wrapping the wire messages otlpconv builds from this module's
// domain types.
package otlpexport

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/z5labs/otelpipe/internal/clock"
	"github.com/z5labs/otelpipe/internal/retry"
	"github.com/z5labs/otelpipe/internal/timeout"
	"github.com/z5labs/otelpipe/model"
	"github.com/z5labs/otelpipe/noop"
)

// maxResponseBodyBytes bounds how much of a collector's response body
// this exporter will read, guarding against a misbehaving or malicious
// endpoint streaming an unbounded response.
const maxResponseBodyBytes = 2 << 20 // 2 MiB

var userAgent = "OTel-OTLP-Exporter-Go/" + model.Version

// Protocol selects the wire encoding used for OTLP HTTP request
// bodies.
type Protocol int

const (
	ProtocolProtobuf Protocol = iota
	ProtocolJSON
)

// HTTPConfig configures an HTTP exporter's transport.
type HTTPConfig struct {
	// Endpoint is the full request URL, including the per-signal path
	// (e.g. ".../v1/traces").
	Endpoint string
	Protocol Protocol
	// Compression is "none" (default) or "gzip".
	Compression string
	Headers     map[string]string
	Timeout     time.Duration
	RetryPolicy retry.Policy
	TLS         TLSConfig
}

type httpSender struct {
	cfg    HTTPConfig
	client *http.Client
	clock  clock.Clock
	logger *slog.Logger
}

func newHTTPSender(cfg HTTPConfig, clk clock.Clock, logger *slog.Logger) (*httpSender, error) {
	if err := cfg.TLS.Validate(); err != nil {
		return nil, err
	}
	tlsCfg, err := cfg.TLS.Load()
	if err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.Real
	}
	if logger == nil {
		logger = slog.New(noop.LogHandler{})
	}
	if cfg.RetryPolicy == (retry.Policy{}) {
		cfg.RetryPolicy = retry.DefaultPolicy
	}

	return &httpSender{
		cfg: cfg,
		client: &http.Client{
			Transport: &http.Transport{TLSClientConfig: tlsCfg},
		},
		clock:  clk,
		logger: logger,
	}, nil
}

// retryableHTTPError wraps a retryable HTTP response so retry.Do's
// classify callback can recover the server-requested delay.
type retryableHTTPError struct {
	statusCode int
	delay      time.Duration
}

func (e *retryableHTTPError) Error() string {
	return fmt.Sprintf("request_failed(%d): retryable", e.statusCode)
}

// send encodes pb per the configured protocol/compression, POSTs it
// with retries, and returns the response body bytes on a 2xx response.
func (s *httpSender) send(ctx context.Context, pb proto.Message) ([]byte, error) {
	contentType, body, err := s.encode(pb)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var respBody []byte
	classify := func(err error) (bool, time.Duration) {
		rerr, ok := err.(*retryableHTTPError)
		if !ok {
			return false, 0
		}
		return true, rerr.delay
	}

	err = retry.Do(ctx, s.cfg.RetryPolicy, classify, func(ctx context.Context) error {
		return timeout.Await(ctx, s.clock, s.cfg.Timeout, func(ctx context.Context) error {
			data, retryErr := s.do(ctx, contentType, body)
			if retryErr != nil {
				return retryErr
			}
			respBody = data
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return respBody, nil
}

func (s *httpSender) do(ctx context.Context, contentType string, body []byte) ([]byte, error) {
	req, err := s.newRequest(ctx, contentType, body)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, maxResponseBodyBytes)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("response_malformed: %w", err)
	}

	if resp.StatusCode/100 == 2 {
		if len(data) > 0 {
			if ct := stripParams(resp.Header.Get("Content-Type")); ct != "application/x-protobuf" && ct != "application/json" {
				return nil, fmt.Errorf("response_malformed: unsupported content-type %q", resp.Header.Get("Content-Type"))
			}
		}
		return data, nil
	}

	if retryable, delay := retry.ClassifyHTTP(resp.StatusCode, resp.Header.Get("Retry-After")); retryable {
		return nil, &retryableHTTPError{statusCode: resp.StatusCode, delay: delay}
	}
	return nil, fmt.Errorf("request_failed(%d): %s", resp.StatusCode, string(data))
}

func stripParams(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		return strings.TrimSpace(contentType[:i])
	}
	return strings.TrimSpace(contentType)
}

func (s *httpSender) newRequest(ctx context.Context, contentType string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Connection", "keep-alive")
	if s.cfg.Compression == "gzip" {
		req.Header.Set("Content-Encoding", "gzip")
	}
	for k, v := range s.cfg.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func (s *httpSender) encode(pb proto.Message) (string, []byte, error) {
	var body []byte
	var contentType string
	var err error

	switch s.cfg.Protocol {
	case ProtocolJSON:
		contentType = "application/json"
		body, err = protojson.Marshal(pb)
		if err != nil {
			return "", nil, err
		}
		body, err = fixInt64JSONFields(body)
		if err != nil {
			return "", nil, err
		}
	default:
		contentType = "application/x-protobuf"
		body, err = proto.Marshal(pb)
		if err != nil {
			return "", nil, err
		}
	}

	if s.cfg.Compression == "gzip" {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err := gz.Write(body); err != nil {
			return "", nil, err
		}
		if err := gz.Close(); err != nil {
			return "", nil, err
		}
		body = buf.Bytes()
	}

	return contentType, body, nil
}

// run blocks until ctx is done. The HTTP exporter has no background
// connection or goroutine of its own to supervise — each call to send
// runs and completes independently — so this only exists to give
// callers a Component to register alongside the gRPC exporters' real
// connection-monitoring Run, keeping every exporter's lifecycle shape
// uniform regardless of transport.
func (s *httpSender) run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// forceFlush is a no-op: the HTTP exporter holds no buffer of its own,
// only an idle connection pool.
func (s *httpSender) forceFlush(ctx context.Context) error {
	return nil
}

func (s *httpSender) shutdown(ctx context.Context) error {
	s.client.CloseIdleConnections()
	return nil
}
