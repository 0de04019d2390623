package retry

import (
	"encoding/json"
	"errors"

	"github.com/vietddude/ledger/internal/infra/ledger/transport"
)

// TraceHeader is set by the ledger API server on every response it produces.
// A response without it came from an intermediary and its body is not trusted.
const TraceHeader = "Chain-Request-ID"

// Outcome is the class of a completed HTTP exchange.
type Outcome int

const (
	OutcomeSuccess             Outcome = iota // 2xx with tracing header
	OutcomeConnectivityAnomaly                // tracing header missing, always retriable
	OutcomeAPIError                           // structured error, retriable per the server
	OutcomeMalformed                          // error body is not an APIError, fatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeConnectivityAnomaly:
		return "connectivity_anomaly"
	case OutcomeAPIError:
		return "api_error"
	case OutcomeMalformed:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// Classification is the result of classifying one response.
type Classification struct {
	Outcome   Outcome
	RequestID string
	// Err is nil for OutcomeSuccess.
	Err error
}

// Retriable reports whether the exchange may be retried.
func (c Classification) Retriable() bool {
	switch c.Outcome {
	case OutcomeConnectivityAnomaly:
		return true
	case OutcomeAPIError:
		return IsRetriable(c.Err)
	default:
		return false
	}
}

// Classifier decides what a completed HTTP exchange means.
// The zero value checks TraceHeader.
type Classifier struct {
	// Header overrides the tracing header name.
	Header string
}

func (c Classifier) header() string {
	if c.Header != "" {
		return c.Header
	}
	return TraceHeader
}

// Classify inspects status, headers and body of resp. It has no side effects.
// A 2xx body is never parsed here; decoding it is the caller's concern.
func (c Classifier) Classify(resp *transport.Response) Classification {
	rid := resp.Header.Get(c.header())
	if rid == "" {
		return Classification{
			Outcome: OutcomeConnectivityAnomaly,
			Err:     &ConnectivityError{StatusCode: resp.StatusCode, Body: string(resp.Body)},
		}
	}

	if resp.StatusCode/100 == 2 {
		return Classification{Outcome: OutcomeSuccess, RequestID: rid}
	}

	malformed := &MalformedResponseError{
		StatusCode: resp.StatusCode,
		RequestID:  rid,
		Body:       string(resp.Body),
	}

	var body apiErrorBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		malformed.Err = err
		return Classification{Outcome: OutcomeMalformed, RequestID: rid, Err: malformed}
	}

	apiErr := body.toAPIError()
	if apiErr.Code == "" {
		malformed.Message = apiErr.Message
		malformed.Err = errors.New("error response has no code")
		return Classification{Outcome: OutcomeMalformed, RequestID: rid, Err: malformed}
	}

	apiErr.RequestID = rid
	apiErr.HTTPStatus = resp.StatusCode
	return Classification{Outcome: OutcomeAPIError, RequestID: rid, Err: apiErr}
}
