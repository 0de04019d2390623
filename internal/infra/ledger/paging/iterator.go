// Package paging streams the items of a cursor-paged list endpoint.
//
// An Iterator fetches one page at a time, serves its items in server order
// and only requests the next page once every item of the current page has
// been handed out. The sequence ends when a page has LastPage set or when a
// fetch returns no items.
//
//	it := paging.New(fetch, domain.NewQuery(domain.WithPageSize(100)))
//	for it.Next(ctx) {
//	    process(it.Item())
//	}
//	if err := it.Err(); err != nil {
//	    // the sequence was cut short by err
//	}
//
// An Iterator is not safe for concurrent use and cannot be rewound;
// construct a new one to start again.
package paging

import (
	"context"
	"fmt"
	"iter"

	"github.com/vietddude/ledger/internal/core/domain"
	"github.com/vietddude/ledger/internal/infra/ledger/metrics"
)

// Fetcher retrieves the page described by q.
type Fetcher[T any] func(ctx context.Context, q domain.QuerySpec) (*domain.Page[T], error)

// Progress describes a page whose items have all been consumed.
type Progress struct {
	// Cursor resumes the query at the first page not yet consumed.
	Cursor string
	// Items is the number of items on the consumed page.
	Items int
	// Pages is the number of pages fetched so far.
	Pages int
	// Done is set when the sequence has ended naturally.
	Done bool
}

type options struct {
	action     string
	onConsumed func(ctx context.Context, p Progress) error
}

// Option configures an Iterator or PageIterator.
type Option func(*options)

// WithAction labels metrics with the list action name.
func WithAction(action string) Option {
	return func(o *options) {
		o.action = action
	}
}

// WithPageConsumed registers fn to run when the iterator moves past the last
// item of a page, before the next page is requested, and once more when the
// sequence ends. An error from fn stops the iterator.
func WithPageConsumed(fn func(ctx context.Context, p Progress) error) Option {
	return func(o *options) {
		o.onConsumed = fn
	}
}

func buildOptions(opts []Option) options {
	o := options{action: "list"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Iterator is a lazy, forward-only sequence over a paged query.
type Iterator[T any] struct {
	fetch Fetcher[T]
	query domain.QuerySpec
	opts  options

	state  State
	page   *domain.Page[T]
	pos    int
	cursor string
	pages  int
	item   T
	err    error
}

// New creates an Iterator that starts at q.Cursor.
func New[T any](fetch Fetcher[T], q domain.QuerySpec, opts ...Option) *Iterator[T] {
	return &Iterator[T]{
		fetch:  fetch,
		query:  q,
		opts:   buildOptions(opts),
		state:  StateNeedFetch,
		cursor: q.Cursor,
	}
}

// Next advances to the next item, fetching a page if the buffer is consumed.
// It returns false when the sequence ends or fails; Err distinguishes the two.
func (it *Iterator[T]) Next(ctx context.Context) bool {
	for {
		switch it.state {
		case StateBuffered:
			if it.pos < len(it.page.Items) {
				it.item = it.page.Items[it.pos]
				it.pos++
				metrics.ItemsYielded.WithLabelValues(it.opts.action).Inc()
				return true
			}

			last := it.page.LastPage
			if err := it.consumed(ctx, len(it.page.Items), last); err != nil {
				it.fail(err)
				return false
			}
			if last {
				it.setState(StateExhausted)
				return false
			}
			it.setState(StateNeedFetch)

		case StateNeedFetch:
			if err := it.fetchPage(ctx); err != nil {
				it.fail(err)
				return false
			}

		default:
			return false
		}
	}
}

func (it *Iterator[T]) fetchPage(ctx context.Context) error {
	page, err := it.fetch(ctx, it.query.WithCursor(it.cursor))
	if err != nil {
		return err
	}
	it.pages++
	metrics.PagesFetched.WithLabelValues(it.opts.action).Inc()

	if page == nil {
		page = &domain.Page[T]{}
	}
	it.page = page
	it.pos = 0
	it.cursor = page.Cursor

	if len(page.Items) == 0 {
		// An empty page ends the sequence even without LastPage.
		if err := it.consumed(ctx, 0, true); err != nil {
			return err
		}
		it.setState(StateExhausted)
		return nil
	}
	it.setState(StateBuffered)
	return nil
}

func (it *Iterator[T]) consumed(ctx context.Context, items int, done bool) error {
	if it.opts.onConsumed == nil {
		return nil
	}
	p := Progress{Cursor: it.cursor, Items: items, Pages: it.pages, Done: done}
	if err := it.opts.onConsumed(ctx, p); err != nil {
		return fmt.Errorf("page consumed hook: %w", err)
	}
	return nil
}

func (it *Iterator[T]) setState(to State) {
	if !CanTransition(it.state, to) {
		it.err = fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, it.state, to)
		it.state = StateFailed
		return
	}
	it.state = to
}

func (it *Iterator[T]) fail(err error) {
	it.err = err
	it.setState(StateFailed)
	var zero T
	it.item = zero
}

// Item returns the item produced by the last successful call to Next.
func (it *Iterator[T]) Item() T {
	return it.item
}

// Err returns the error that stopped the iteration, or nil if the sequence
// has not failed.
func (it *Iterator[T]) Err() error {
	return it.err
}

// Cursor returns the cursor of the next page to fetch. After the sequence
// ends it is the cursor of the final page.
func (it *Iterator[T]) Cursor() string {
	return it.cursor
}

// State returns the current protocol state.
func (it *Iterator[T]) State() State {
	return it.state
}

// Pages returns the number of pages fetched so far.
func (it *Iterator[T]) Pages() int {
	return it.pages
}

// All returns the remaining items as a sequence of (item, nil) pairs. If the
// iteration fails, the final pair carries the error and a zero item.
func (it *Iterator[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for it.Next(ctx) {
			if !yield(it.item, nil) {
				return
			}
		}
		if it.err != nil {
			var zero T
			yield(zero, it.err)
		}
	}
}

// Items returns the remaining items and stops silently on failure.
// The error is still recorded and available from Err; callers that need to
// tell a failure from a natural end must check it or use All.
func (it *Iterator[T]) Items(ctx context.Context) iter.Seq[T] {
	return func(yield func(T) bool) {
		for it.Next(ctx) {
			if !yield(it.item) {
				return
			}
		}
	}
}

// Collect drains the iterator into a slice.
func Collect[T any](ctx context.Context, it *Iterator[T]) ([]T, error) {
	var out []T
	for it.Next(ctx) {
		out = append(out, it.Item())
	}
	return out, it.Err()
}
