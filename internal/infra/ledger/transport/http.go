package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single physical attempt.
const DefaultTimeout = 60 * time.Second

// HTTPTransport implements Transport over net/http.
type HTTPTransport struct {
	httpClient *http.Client
	limiter    *rate.Limiter

	mu           sync.RWMutex
	health       HealthStatus
	totalLatency time.Duration
	successCount int
	failureCount int
}

// HTTPOption configures an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(t *HTTPTransport) {
		if c != nil {
			t.httpClient = c
		}
	}
}

// WithRateLimit caps outgoing attempts at rps per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) HTTPOption {
	return func(t *HTTPTransport) {
		if rps <= 0 {
			t.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewHTTPTransport creates a transport whose attempts time out after timeout.
func NewHTTPTransport(timeout time.Duration, opts ...HTTPOption) *HTTPTransport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	t := &HTTPTransport{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		health: HealthStatus{
			Available:     true,
			LastSuccessAt: time.Now(),
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Post sends req and returns whatever response the server produced.
func (t *HTTPTransport) Post(ctx context.Context, req *Request) (*Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		t.recordFailure()
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		t.recordFailure()
		return nil, fmt.Errorf("post %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.recordFailure()
		return nil, fmt.Errorf("read response: %w", err)
	}

	// 5xx counts against health; 4xx is the caller's problem.
	if resp.StatusCode >= http.StatusInternalServerError {
		t.recordFailure()
	} else {
		t.recordSuccess(time.Since(start))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// GetHealth returns the transport's health status.
func (t *HTTPTransport) GetHealth() HealthStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.health
}

// Close cleans up resources.
func (t *HTTPTransport) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}

func (t *HTTPTransport) recordSuccess(latency time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.successCount++
	t.health.Requests++
	t.totalLatency += latency
	t.health.LastSuccessAt = time.Now()
	t.health.Available = true

	t.health.ErrorRate = float64(t.failureCount) / float64(t.health.Requests)
	t.health.Latency = t.totalLatency / time.Duration(t.successCount)
}

func (t *HTTPTransport) recordFailure() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.failureCount++
	t.health.Requests++
	t.health.LastFailureAt = time.Now()

	t.health.ErrorRate = float64(t.failureCount) / float64(t.health.Requests)
	if t.health.ErrorRate > 0.5 {
		t.health.Available = false
	}
}
