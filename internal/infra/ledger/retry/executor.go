package retry

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/ledger/internal/infra/ledger/metrics"
	"github.com/vietddude/ledger/internal/infra/ledger/transport"
)

// Request headers set by the executor on every attempt.
const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderAttemptID      = "Id"
	HeaderContentType    = "Content-Type"
)

// Request describes one logical call.
type Request struct {
	// Action names the endpoint; it labels logs and metrics.
	Action string
	// URL is the fully resolved endpoint.
	URL string
	// Body is encoded as JSON once and sent on every attempt.
	Body any
}

// Executor runs logical calls against a Transport with retries, backoff and
// a fixed idempotency key per call.
//
// An Executor holds no per-call state and is safe for concurrent use.
type Executor struct {
	transport  transport.Transport
	classifier Classifier
	backoff    *Backoff
	maxRetries int
	header     http.Header
	logger     *slog.Logger

	sleep  func(ctx context.Context, d time.Duration) error
	newKey func() string
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxRetries sets the number of retries after the first attempt.
func WithMaxRetries(n int) Option {
	return func(e *Executor) {
		if n >= 0 {
			e.maxRetries = n
		}
	}
}

// WithBackoff sets the delay schedule between attempts.
func WithBackoff(b *Backoff) Option {
	return func(e *Executor) {
		if b != nil {
			e.backoff = b
		}
	}
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithHeader adds a header sent on every attempt of every call.
func WithHeader(key, value string) Option {
	return func(e *Executor) {
		e.header.Set(key, value)
	}
}

// WithClassifier replaces the response classifier.
func WithClassifier(c Classifier) Option {
	return func(e *Executor) {
		e.classifier = c
	}
}

// NewExecutor creates an Executor over t.
// Panics if t is nil.
func NewExecutor(t transport.Transport, opts ...Option) *Executor {
	if t == nil {
		panic("transport cannot be nil")
	}
	e := &Executor{
		transport:  t,
		backoff:    NewBackoff(),
		maxRetries: DefaultMaxRetries,
		header:     make(http.Header),
		logger:     slog.Default(),
		sleep:      sleepContext,
		newKey:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxAttempts returns the number of physical attempts per logical call.
func (e *Executor) MaxAttempts() int {
	return e.maxRetries + 1
}

// retryState is owned by a single Execute call.
type retryState struct {
	attempt        int
	idempotencyKey string
	requestID      string
	sent           int
	lastErr        error
}

func (s *retryState) attemptID() string {
	return s.requestID + "/" + strconv.Itoa(s.attempt)
}

// Execute performs req and decodes a successful response body into out.
// out may be nil when the response body is not needed.
//
// Terminal outcomes: nil, a non-retriable *APIError, *MalformedResponseError,
// *DecodeError, *ExhaustedError wrapping the last retriable failure, or
// *CanceledError when ctx ends the call.
func (e *Executor) Execute(ctx context.Context, req Request, out any) error {
	err := e.execute(ctx, req, out)
	metrics.RequestsTotal.WithLabelValues(req.Action, outcomeLabel(err)).Inc()
	return err
}

func (e *Executor) execute(ctx context.Context, req Request, out any) error {
	body, err := json.Marshal(req.Body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", req.Action, err)
	}

	state := &retryState{
		idempotencyKey: e.newKey(),
		requestID:      newRequestID(),
	}
	maxAttempts := e.MaxAttempts()

	for state.attempt = 1; state.attempt <= maxAttempts; state.attempt++ {
		if state.attempt > 1 {
			delay := e.backoff.Delay(state.attempt - 1)
			e.logger.Warn("Retrying ledger request",
				"action", req.Action,
				"attempt", state.attempt,
				"delay", delay,
				"error", state.lastErr,
			)
			if err := e.sleep(ctx, delay); err != nil {
				return e.canceled(ctx, state)
			}
		}
		if ctx.Err() != nil {
			return e.canceled(ctx, state)
		}

		e.logger.Debug("Ledger request attempt",
			"action", req.Action,
			"attempt", state.attempt,
			"id", state.attemptID(),
			"idempotency_key", state.idempotencyKey,
		)

		start := time.Now()
		resp, err := e.transport.Post(ctx, &transport.Request{
			URL:    req.URL,
			Header: e.attemptHeader(state),
			Body:   body,
		})
		state.sent++
		metrics.AttemptsTotal.WithLabelValues(req.Action).Inc()
		metrics.AttemptLatency.WithLabelValues(req.Action).Observe(time.Since(start).Seconds())

		if err == nil && resp == nil {
			err = ErrNoResponse
		}
		if err != nil {
			if ctx.Err() != nil {
				return e.canceled(ctx, state)
			}
			state.lastErr = &TransportError{Err: err}
			e.recordRetriable(req.Action, state, "transport")
			continue
		}

		cls := e.classifier.Classify(resp)
		switch cls.Outcome {
		case OutcomeSuccess:
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(resp.Body, out); err != nil {
				return &DecodeError{Action: req.Action, RequestID: cls.RequestID, Err: err}
			}
			return nil

		case OutcomeMalformed:
			e.logger.Error("Malformed ledger error response",
				"action", req.Action,
				"attempt", state.attempt,
				"error", cls.Err,
			)
			return cls.Err

		case OutcomeAPIError:
			if !cls.Retriable() {
				e.logger.Error("Ledger request failed",
					"action", req.Action,
					"attempt", state.attempt,
					"error", cls.Err,
				)
				return cls.Err
			}
			state.lastErr = cls.Err
			e.recordRetriable(req.Action, state, cls.Outcome.String())

		case OutcomeConnectivityAnomaly:
			state.lastErr = cls.Err
			e.recordRetriable(req.Action, state, cls.Outcome.String())
		}
	}

	e.logger.Error("Ledger request retries exhausted",
		"action", req.Action,
		"attempts", maxAttempts,
		"error", state.lastErr,
	)
	return &ExhaustedError{Attempts: maxAttempts, Last: state.lastErr}
}

func (e *Executor) attemptHeader(state *retryState) http.Header {
	h := e.header.Clone()
	h.Set(HeaderIdempotencyKey, state.idempotencyKey)
	h.Set(HeaderAttemptID, state.attemptID())
	h.Set(HeaderContentType, "application/json")
	return h
}

func (e *Executor) recordRetriable(action string, state *retryState, reason string) {
	if state.attempt < e.MaxAttempts() {
		metrics.RetriesTotal.WithLabelValues(action, reason).Inc()
	}
}

func (e *Executor) canceled(ctx context.Context, state *retryState) error {
	return &CanceledError{Attempts: state.sent, Last: state.lastErr, Err: context.Cause(ctx)}
}

// Do executes req and returns the decoded response.
func Do[T any](ctx context.Context, e *Executor, req Request) (T, error) {
	var out T
	if err := e.Execute(ctx, req, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// newRequestID returns 10 random bytes, hex encoded.
func newRequestID() string {
	b := make([]byte, 10)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	var (
		apiErr    *APIError
		malformed *MalformedResponseError
		decodeErr *DecodeError
	)
	switch {
	case errors.Is(err, ErrCanceled):
		return "canceled"
	case errors.Is(err, ErrRetriesExhausted):
		return "exhausted"
	case errors.As(err, &apiErr):
		return "api_error"
	case errors.As(err, &malformed):
		return "malformed"
	case errors.As(err, &decodeErr):
		return "decode_error"
	default:
		return "error"
	}
}
