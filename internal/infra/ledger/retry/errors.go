package retry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRetriesExhausted is matched by errors returned after the last attempt failed.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrCanceled is matched by errors returned when the context ended the call.
	ErrCanceled = errors.New("request canceled")

	// ErrNoResponse is wrapped in a TransportError when a transport returns
	// neither a response nor an error.
	ErrNoResponse = errors.New("transport returned no response")
)

// APIError is a structured failure reported by the ledger service.
type APIError struct {
	Code      string
	Message   string
	Detail    string
	Retriable bool
	Temporary bool

	// RequestID is the value of the tracing header of the failed response.
	RequestID string
	// HTTPStatus is the status code of the failed response.
	HTTPStatus int

	// Nested holds per-action errors of a batch request, in action order.
	// Entries are nil for actions that did not fail.
	Nested []*APIError
}

func (e *APIError) Error() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString("Code: ")
		b.WriteString(e.Code)
		b.WriteString(" ")
	}
	b.WriteString("Message: ")
	b.WriteString(e.Message)
	if e.Detail != "" {
		b.WriteString(" Detail: ")
		b.WriteString(e.Detail)
	}
	if e.RequestID != "" {
		b.WriteString(" Request-ID: ")
		b.WriteString(e.RequestID)
	}
	if n := e.failedActions(); n > 0 {
		fmt.Fprintf(&b, " (%d failed actions)", n)
	}
	return b.String()
}

func (e *APIError) failedActions() int {
	n := 0
	for _, ne := range e.Nested {
		if ne != nil {
			n++
		}
	}
	return n
}

// apiErrorBody is the wire shape of an error response.
type apiErrorBody struct {
	SeqCode   string `json:"seq_code"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail"`
	Retriable bool   `json:"retriable"`
	Temporary bool   `json:"temporary"`
	Data      struct {
		Actions []*apiErrorBody `json:"actions"`
	} `json:"data"`
}

func (b *apiErrorBody) toAPIError() *APIError {
	code := b.SeqCode
	if code == "" {
		code = b.Code
	}
	e := &APIError{
		Code:      code,
		Message:   b.Message,
		Detail:    b.Detail,
		Retriable: b.Retriable,
		Temporary: b.Temporary,
	}
	if len(b.Data.Actions) > 0 {
		e.Nested = make([]*APIError, len(b.Data.Actions))
		for i, a := range b.Data.Actions {
			if a != nil {
				e.Nested[i] = a.toAPIError()
			}
		}
	}
	return e
}

// ConnectivityError reports a response without the tracing header,
// which did not come from the ledger service itself.
type ConnectivityError struct {
	StatusCode int
	Body       string
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf(
		"response header %s is unset, there may be network issues: status=%d body=%s",
		TraceHeader, e.StatusCode, truncate(e.Body, 512),
	)
}

// TransportError reports an attempt that produced no HTTP response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError reports an error response whose body is not a
// recognizable APIError.
type MalformedResponseError struct {
	StatusCode int
	RequestID  string
	Body       string
	// Message is whatever message could be recovered from the body.
	Message string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	s := fmt.Sprintf("malformed error response: status=%d request_id=%s", e.StatusCode, e.RequestID)
	if e.Message != "" {
		s += " message=" + e.Message
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	} else {
		s += " body=" + truncate(e.Body, 512)
	}
	return s
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// DecodeError reports a successful response that did not decode into the
// caller's type.
type DecodeError struct {
	Action    string
	RequestID string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response (request_id=%s): %v", e.Action, e.RequestID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ExhaustedError is returned when every attempt failed with a retriable error.
// It unwraps to ErrRetriesExhausted and to the last error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() []error {
	return []error{ErrRetriesExhausted, e.Last}
}

// CanceledError is returned when the context ends the call before a terminal
// outcome. Last is the most recent retriable failure, if any.
type CanceledError struct {
	Attempts int
	Last     error
	Err      error
}

func (e *CanceledError) Error() string {
	s := fmt.Sprintf("request canceled after %d attempts: %v", e.Attempts, e.Err)
	if e.Last != nil {
		s += fmt.Sprintf(" (last error: %v)", e.Last)
	}
	return s
}

func (e *CanceledError) Unwrap() []error {
	return []error{ErrCanceled, e.Err}
}

// IsRetriable reports whether err belongs to a retriable category.
// An ExhaustedError reports the class of its last error.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	var canceled *CanceledError
	if errors.As(err, &canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retriable
	}
	var connErr *ConnectivityError
	if errors.As(err, &connErr) {
		return true
	}
	var trErr *TransportError
	return errors.As(err, &trErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
