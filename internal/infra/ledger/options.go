package ledger

import (
	"log/slog"
	"time"

	"github.com/vietddude/ledger/internal/infra/ledger/retry"
	"github.com/vietddude/ledger/internal/infra/ledger/transport"
)

type options struct {
	transport   transport.Transport
	logger      *slog.Logger
	maxRetries  int
	backoff     *retry.Backoff
	httpTimeout time.Duration
	rateLimit   float64
	rateBurst   int
	userAgent   string
}

// Option configures a Client.
type Option func(*options)

// WithTransport replaces the HTTP transport. WithHTTPTimeout and
// WithRateLimit have no effect when it is set.
func WithTransport(t transport.Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMaxRetries sets the number of retries after the first attempt.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		o.maxRetries = n
	}
}

// WithBackoff sets the delay schedule between attempts.
func WithBackoff(b *retry.Backoff) Option {
	return func(o *options) {
		o.backoff = b
	}
}

// WithHTTPTimeout bounds every physical attempt.
func WithHTTPTimeout(d time.Duration) Option {
	return func(o *options) {
		o.httpTimeout = d
	}
}

// WithRateLimit caps outgoing attempts per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		o.rateLimit = rps
		o.rateBurst = burst
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}
