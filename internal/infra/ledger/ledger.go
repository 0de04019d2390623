// Package ledger is a resilient client for the ledger HTTP+JSON API.
//
// Every call is a POST to {base}/{action}. The client resolves the base URL
// once through the bootstrap "hello" endpoint, retries transient failures
// with capped exponential backoff and sends the same Idempotency-Key on every
// attempt of a logical call, so mutating actions are applied at most once.
//
// # Quick Start
//
//	import "github.com/vietddude/ledger/internal/infra/ledger"
//
//	client, err := ledger.NewClient(ledger.Config{
//	    LedgerName: "main",
//	    Credential: os.Getenv("SEQCRED"),
//	})
//
//	// One call
//	var acct domain.Account
//	err = client.Request(ctx, "create-account", body, &acct)
//
//	// Stream a list
//	it := ledger.List[domain.Account](client, "list-accounts", domain.NewQuery(domain.WithPageSize(100)))
//	for it.Next(ctx) {
//	    fmt.Println(it.Item().ID)
//	}
//	var apiErr *ledger.APIError
//	if err := it.Err(); errors.As(err, &apiErr) {
//	    fmt.Println(apiErr.Code, apiErr.RequestID)
//	}
//
// # Package Structure
//
//   - transport/ - single HTTP POST exchanges, health, rate limit
//   - retry/     - response classification, error taxonomy, backoff, executor
//   - paging/    - item and page iterators over cursor-paged actions
//   - metrics/   - prometheus collectors and the /metrics server
//
// Most types are re-exported at the root level for convenience.
package ledger

import (
	"github.com/vietddude/ledger/internal/core/domain"
	"github.com/vietddude/ledger/internal/infra/ledger/paging"
	"github.com/vietddude/ledger/internal/infra/ledger/retry"
	"github.com/vietddude/ledger/internal/infra/ledger/transport"
)

// =============================================================================
// Re-exported types from retry package
// =============================================================================

// APIError is a structured failure reported by the ledger service.
type APIError = retry.APIError

// ConnectivityError reports a response that did not come from the service.
type ConnectivityError = retry.ConnectivityError

// TransportError reports an attempt that produced no HTTP response.
type TransportError = retry.TransportError

// MalformedResponseError reports an unparseable error response.
type MalformedResponseError = retry.MalformedResponseError

// DecodeError reports a success response that did not decode.
type DecodeError = retry.DecodeError

// ExhaustedError is returned when every attempt failed.
type ExhaustedError = retry.ExhaustedError

// CanceledError is returned when the context ended a call.
type CanceledError = retry.CanceledError

// Backoff computes delays between attempts.
type Backoff = retry.Backoff

var (
	// ErrRetriesExhausted matches ExhaustedError.
	ErrRetriesExhausted = retry.ErrRetriesExhausted
	// ErrCanceled matches CanceledError.
	ErrCanceled = retry.ErrCanceled
)

// IsRetriable reports whether err belongs to a retriable category.
func IsRetriable(err error) bool {
	return retry.IsRetriable(err)
}

// NewBackoff creates a Backoff with the default schedule.
func NewBackoff(opts ...retry.BackoffOption) *Backoff {
	return retry.NewBackoff(opts...)
}

// =============================================================================
// Re-exported types from paging and domain packages
// =============================================================================

// Iterator is a lazy item sequence over a list action.
type Iterator[T any] = paging.Iterator[T]

// PageIterator is a lazy page sequence over a list action.
type PageIterator[T any] = paging.PageIterator[T]

// Page is one page of a list action.
type Page[T any] = domain.Page[T]

// QuerySpec describes a list or sum query.
type QuerySpec = domain.QuerySpec

// =============================================================================
// Re-exported types from transport package
// =============================================================================

// Transport performs one HTTP POST.
type Transport = transport.Transport

// HealthStatus is the observed health of a transport.
type HealthStatus = transport.HealthStatus
