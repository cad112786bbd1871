package retry

import (
	"net/http"
	"strconv"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RetryableHTTPStatus is the set of HTTP statuses the OTLP spec
// requires clients to retry: 429 Too Many Requests, and the 5xx codes
// that indicate a transient backend problem.
var RetryableHTTPStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// RetryableGRPCCode is the gRPC status-code equivalent of
// [RetryableHTTPStatus].
var RetryableGRPCCode = map[codes.Code]bool{
	codes.ResourceExhausted: true,
	codes.Unavailable:       true,
	codes.DeadlineExceeded:  true,
}

// ParseRetryAfter parses an HTTP Retry-After header value, which is
// either an integer number of seconds or an HTTP date. Non-numeric,
// unparseable values yield zero, meaning "no server-specified delay".
func ParseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		d := time.Until(t)
		if d < 0 {
			return 0
		}
		return d
	}
	return 0
}

// ClassifyHTTP evaluates an HTTP response status code plus any
// Retry-After header value and reports whether the request should be
// retried and after what server-requested delay.
func ClassifyHTTP(statusCode int, retryAfterHeader string) (retryable bool, serverDelay time.Duration) {
	if !RetryableHTTPStatus[statusCode] {
		return false, 0
	}
	return true, ParseRetryAfter(retryAfterHeader)
}

// ClassifyGRPC evaluates an error returned from a gRPC call and reports
// whether it should be retried and after what server-requested delay,
// honoring a RetryInfo detail if the server attached one.
func ClassifyGRPC(err error) (retryable bool, serverDelay time.Duration) {
	st, ok := status.FromError(err)
	if !ok {
		return false, 0
	}
	if !RetryableGRPCCode[st.Code()] {
		return false, 0
	}

	for _, detail := range st.Details() {
		if ri, ok := detail.(*errdetails.RetryInfo); ok && ri.GetRetryDelay() != nil {
			return true, ri.GetRetryDelay().AsDuration()
		}
	}
	return true, 0
}
