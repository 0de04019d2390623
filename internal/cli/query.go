package cli

import (
	"encoding/json"

	"github.com/spf13/pflag"

	"github.com/vietddude/ledger/internal/core/domain"
)

// queryFlags are the query options shared by page and list.
type queryFlags struct {
	filter   string
	params   []string
	pageSize int
	groupBy  []string
	sumBy    []string
}

func (f *queryFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.filter, "filter", "", "filter expression, e.g. tags.type=$1")
	fs.StringArrayVar(&f.params, "param", nil, "filter parameter; JSON literals are decoded, anything else is a string (repeatable)")
	fs.IntVar(&f.pageSize, "page-size", 0, "requested page size (advisory)")
	fs.StringSliceVar(&f.groupBy, "group-by", nil, "fields to group sums by")
	fs.StringSliceVar(&f.sumBy, "sum-by", nil, "fields to sum")
}

func (f *queryFlags) query() domain.QuerySpec {
	params := make([]any, len(f.params))
	for i, p := range f.params {
		params[i] = parseParam(p)
	}
	opts := []domain.QueryOption{domain.WithPageSize(f.pageSize)}
	if f.filter != "" {
		opts = append(opts, domain.WithFilter(f.filter, params...))
	}
	if len(f.groupBy) > 0 {
		opts = append(opts, domain.WithGroupBy(f.groupBy...))
	}
	if len(f.sumBy) > 0 {
		opts = append(opts, domain.WithSumBy(f.sumBy...))
	}
	return domain.NewQuery(opts...)
}

func parseParam(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}
