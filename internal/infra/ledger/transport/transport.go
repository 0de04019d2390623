// Package transport performs single HTTP POST exchanges with the ledger API.
//
// This package contains:
//   - Transport interface: one blocking request/response exchange
//   - HTTPTransport: net/http implementation with health tracking and an
//     optional client-side rate limit
//
// A Transport never retries and never interprets the response body; that is
// the job of the retry package.
package transport

import (
	"context"
	"net/http"
	"time"
)

// Request is one physical POST to the ledger API.
type Request struct {
	URL    string
	Header http.Header
	Body   []byte
}

// Response is the raw outcome of a completed HTTP exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport performs one blocking POST.
// An error means no HTTP response was received (network failure, timeout,
// cancellation); any received response, whatever its status, is returned
// without error.
type Transport interface {
	Post(ctx context.Context, req *Request) (*Response, error)
}

// HealthStatus represents the observed health of a transport.
type HealthStatus struct {
	Available     bool          `json:"available"`
	Latency       time.Duration `json:"latency"`
	ErrorRate     float64       `json:"error_rate"`
	Requests      int           `json:"requests"`
	LastSuccessAt time.Time     `json:"last_success_at"`
	LastFailureAt time.Time     `json:"last_failure_at"`
}

// HealthReporter is implemented by transports that track their own health.
type HealthReporter interface {
	GetHealth() HealthStatus
}

// Func adapts a function to the Transport interface.
type Func func(ctx context.Context, req *Request) (*Response, error)

// Post calls f(ctx, req).
func (f Func) Post(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
