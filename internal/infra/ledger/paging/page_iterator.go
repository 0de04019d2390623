package paging

import (
	"context"
	"fmt"
	"iter"

	"github.com/vietddude/ledger/internal/core/domain"
	"github.com/vietddude/ledger/internal/infra/ledger/metrics"
)

// PageIterator yields whole pages instead of single items.
// Termination rules match Iterator: LastPage or an empty page ends it.
type PageIterator[T any] struct {
	fetch Fetcher[T]
	query domain.QuerySpec
	opts  options

	state  State
	page   *domain.Page[T]
	cursor string
	pages  int
	err    error
}

// NewPages creates a PageIterator that starts at q.Cursor.
func NewPages[T any](fetch Fetcher[T], q domain.QuerySpec, opts ...Option) *PageIterator[T] {
	return &PageIterator[T]{
		fetch:  fetch,
		query:  q,
		opts:   buildOptions(opts),
		state:  StateNeedFetch,
		cursor: q.Cursor,
	}
}

// Next fetches the next non-empty page. The page returned by the previous
// call counts as consumed once Next is called again.
func (p *PageIterator[T]) Next(ctx context.Context) bool {
	if p.state == StateBuffered {
		last := p.page.LastPage
		if err := p.consumed(ctx, len(p.page.Items), last); err != nil {
			p.fail(err)
			return false
		}
		if last {
			p.state = StateExhausted
			return false
		}
		p.state = StateNeedFetch
	}
	if p.state != StateNeedFetch {
		return false
	}

	page, err := p.fetch(ctx, p.query.WithCursor(p.cursor))
	if err != nil {
		p.fail(err)
		return false
	}
	p.pages++
	metrics.PagesFetched.WithLabelValues(p.opts.action).Inc()

	if page == nil {
		page = &domain.Page[T]{}
	}
	p.cursor = page.Cursor

	if len(page.Items) == 0 {
		p.page = nil
		if err := p.consumed(ctx, 0, true); err != nil {
			p.fail(err)
			return false
		}
		p.state = StateExhausted
		return false
	}

	p.page = page
	p.state = StateBuffered
	return true
}

func (p *PageIterator[T]) consumed(ctx context.Context, items int, done bool) error {
	if p.opts.onConsumed == nil {
		return nil
	}
	pr := Progress{Cursor: p.cursor, Items: items, Pages: p.pages, Done: done}
	if err := p.opts.onConsumed(ctx, pr); err != nil {
		return fmt.Errorf("page consumed hook: %w", err)
	}
	return nil
}

func (p *PageIterator[T]) fail(err error) {
	p.err = err
	p.page = nil
	p.state = StateFailed
}

// Page returns the page produced by the last successful call to Next.
func (p *PageIterator[T]) Page() *domain.Page[T] {
	return p.page
}

// Err returns the error that stopped the iteration, if any.
func (p *PageIterator[T]) Err() error {
	return p.err
}

// Cursor returns the cursor of the next page to fetch.
func (p *PageIterator[T]) Cursor() string {
	return p.cursor
}

// All returns the remaining pages. If the iteration fails, the final pair
// carries the error and a nil page.
func (p *PageIterator[T]) All(ctx context.Context) iter.Seq2[*domain.Page[T], error] {
	return func(yield func(*domain.Page[T], error) bool) {
		for p.Next(ctx) {
			if !yield(p.page, nil) {
				return
			}
		}
		if p.err != nil {
			yield(nil, p.err)
		}
	}
}
