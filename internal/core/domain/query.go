package domain

import (
	"slices"
	"time"
)

// QuerySpec describes a list or sum query against the ledger.
// It is treated as read-only once handed to a request; WithCursor returns a copy.
type QuerySpec struct {
	Filter       string     `json:"filter,omitempty"`
	FilterParams []any      `json:"filter_params,omitempty"`
	PageSize     int        `json:"page_size,omitempty"`
	Cursor       string     `json:"cursor,omitempty"`
	GroupBy      []string   `json:"group_by,omitempty"`
	SumBy        []string   `json:"sum_by,omitempty"`
	IDs          []string   `json:"ids,omitempty"`
	Timestamp    *time.Time `json:"timestamp,omitempty"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
}

// QueryOption configures a QuerySpec.
type QueryOption func(*QuerySpec)

// NewQuery builds a QuerySpec from options.
func NewQuery(opts ...QueryOption) QuerySpec {
	var q QuerySpec
	for _, opt := range opts {
		opt(&q)
	}
	return q
}

// WithFilter sets the filter expression and its positional parameters ($1, $2...).
func WithFilter(filter string, params ...any) QueryOption {
	return func(q *QuerySpec) {
		q.Filter = filter
		q.FilterParams = slices.Clone(params)
	}
}

// WithPageSize sets the advisory page size.
func WithPageSize(n int) QueryOption {
	return func(q *QuerySpec) {
		q.PageSize = n
	}
}

// WithStartCursor resumes a query from a previously returned cursor.
func WithStartCursor(cursor string) QueryOption {
	return func(q *QuerySpec) {
		q.Cursor = cursor
	}
}

// WithGroupBy sets the group-by fields for sum queries.
func WithGroupBy(fields ...string) QueryOption {
	return func(q *QuerySpec) {
		q.GroupBy = slices.Clone(fields)
	}
}

// WithSumBy sets the sum-by fields for sum queries.
func WithSumBy(fields ...string) QueryOption {
	return func(q *QuerySpec) {
		q.SumBy = slices.Clone(fields)
	}
}

// WithIDs restricts the query to the given ids.
func WithIDs(ids ...string) QueryOption {
	return func(q *QuerySpec) {
		q.IDs = slices.Clone(ids)
	}
}

// WithTimestamp pins a balance or sum query to a point in time.
func WithTimestamp(t time.Time) QueryOption {
	return func(q *QuerySpec) {
		q.Timestamp = &t
	}
}

// WithTimeRange restricts a query to [start, end].
func WithTimeRange(start, end time.Time) QueryOption {
	return func(q *QuerySpec) {
		q.StartTime = &start
		q.EndTime = &end
	}
}

// WithCursor returns a copy of q positioned at cursor.
// Slices and time pointers are cloned so the copy shares nothing with q.
func (q QuerySpec) WithCursor(cursor string) QuerySpec {
	next := q.clone()
	next.Cursor = cursor
	return next
}

// AtStart reports whether the query starts at the beginning of the result set.
func (q QuerySpec) AtStart() bool {
	return q.Cursor == ""
}

func (q QuerySpec) clone() QuerySpec {
	c := q
	c.FilterParams = slices.Clone(q.FilterParams)
	c.GroupBy = slices.Clone(q.GroupBy)
	c.SumBy = slices.Clone(q.SumBy)
	c.IDs = slices.Clone(q.IDs)
	c.Timestamp = cloneTime(q.Timestamp)
	c.StartTime = cloneTime(q.StartTime)
	c.EndTime = cloneTime(q.EndTime)
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
