package retry

import (
	"math/rand/v2"
	"time"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 10
	// DefaultBaseDelay is the delay ceiling of the first retry.
	DefaultBaseDelay = 40 * time.Millisecond
	// DefaultMaxDelay caps every delay; it covers a ledger leader election.
	DefaultMaxDelay = 15 * time.Second
)

// Backoff computes capped exponential delays with jitter in the upper half.
//
// For retry index i (1-based) the ceiling is min(base*2^(i-1), max) and the
// delay is drawn uniformly from [ceiling/2, ceiling].
type Backoff struct {
	baseDelay time.Duration
	maxDelay  time.Duration

	// randN returns a value in [0, n).
	randN func(n int64) int64
}

// BackoffOption is a functional option for configuring Backoff.
type BackoffOption func(*Backoff)

// WithBaseDelay sets the ceiling of the first retry.
func WithBaseDelay(d time.Duration) BackoffOption {
	return func(b *Backoff) {
		b.baseDelay = d
	}
}

// WithMaxDelay sets the cap on every delay.
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *Backoff) {
		b.maxDelay = d
	}
}

// WithJitterSource sets the random source; randN must return a value in [0, n).
func WithJitterSource(randN func(n int64) int64) BackoffOption {
	return func(b *Backoff) {
		b.randN = randN
	}
}

// NewBackoff creates a Backoff with the default 40ms base and 15s cap.
//
// Example:
//
//	b := retry.NewBackoff(
//	    retry.WithBaseDelay(100*time.Millisecond),
//	    retry.WithMaxDelay(5*time.Second),
//	)
func NewBackoff(opts ...BackoffOption) *Backoff {
	b := &Backoff{
		baseDelay: DefaultBaseDelay,
		maxDelay:  DefaultMaxDelay,
		randN:     rand.Int64N,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.baseDelay <= 0 {
		b.baseDelay = DefaultBaseDelay
	}
	if b.maxDelay < b.baseDelay {
		b.maxDelay = b.baseDelay
	}
	if b.randN == nil {
		b.randN = rand.Int64N
	}
	return b
}

// Ceiling returns the upper bound of the delay for retry index i.
// It returns 0 for i < 1, the first attempt never waits.
func (b *Backoff) Ceiling(i int) time.Duration {
	if i < 1 {
		return 0
	}
	d := b.baseDelay
	for n := 1; n < i; n++ {
		// Doubling past the cap would only overflow.
		if d >= b.maxDelay/2 {
			return b.maxDelay
		}
		d *= 2
	}
	return min(d, b.maxDelay)
}

// Delay returns the jittered delay for retry index i, in [Ceiling(i)/2, Ceiling(i)].
func (b *Backoff) Delay(i int) time.Duration {
	ceiling := b.Ceiling(i)
	if ceiling <= 0 {
		return 0
	}
	half := ceiling / 2
	span := int64(ceiling - half)
	return half + time.Duration(b.randN(span+1))
}

// BaseDelay returns the configured base delay.
func (b *Backoff) BaseDelay() time.Duration {
	return b.baseDelay
}

// MaxDelay returns the configured cap.
func (b *Backoff) MaxDelay() time.Duration {
	return b.maxDelay
}
