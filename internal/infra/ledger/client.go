package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/vietddude/ledger/internal/core/domain"
	"github.com/vietddude/ledger/internal/infra/ledger/paging"
	"github.com/vietddude/ledger/internal/infra/ledger/retry"
	"github.com/vietddude/ledger/internal/infra/ledger/transport"
)

// DefaultAPIURL is the bootstrap endpoint used for discovery.
const DefaultAPIURL = "https://api.seq.com"

// Request headers identifying the caller.
const (
	HeaderUserAgent  = "User-Agent"
	HeaderCredential = "Credential"
)

// Config identifies a ledger and how to reach it.
type Config struct {
	// APIURL is the bootstrap endpoint; "{APIURL}/hello" resolves the ledger URL.
	APIURL string
	// LedgerName is the ledger within the team.
	LedgerName string
	// Credential is sent on every request.
	Credential string
	// LedgerURL, when set, is used as the base URL and discovery is skipped.
	LedgerURL string
}

// ConfigurationError reports an unusable client configuration.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "ledger configuration: " + e.Msg
}

// BadURLError reports an endpoint URL that cannot be used.
type BadURLError struct {
	URL string
	Err error
}

func (e *BadURLError) Error() string {
	return fmt.Sprintf("bad url %q: %v", e.URL, e.Err)
}

func (e *BadURLError) Unwrap() error { return e.Err }

// Client talks to one ledger. It is safe for concurrent use.
type Client struct {
	cfg       Config
	executor  *retry.Executor
	transport transport.Transport
	logger    *slog.Logger

	mu      sync.RWMutex
	baseURL string
	hello   singleflight.Group
}

// NewClient creates a client for cfg.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.LedgerName == "" {
		return nil, &ConfigurationError{Msg: "no ledger name provided"}
	}
	if cfg.Credential == "" {
		return nil, &ConfigurationError{Msg: "no credential provided"}
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.LedgerURL = strings.TrimRight(cfg.LedgerURL, "/")

	o := options{maxRetries: retry.DefaultMaxRetries, userAgent: DefaultUserAgent}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	tr := o.transport
	if tr == nil {
		tr = transport.NewHTTPTransport(o.httpTimeout, transport.WithRateLimit(o.rateLimit, o.rateBurst))
	}

	execOpts := []retry.Option{
		retry.WithHeader(HeaderUserAgent, o.userAgent),
		retry.WithHeader(HeaderCredential, cfg.Credential),
		retry.WithMaxRetries(o.maxRetries),
		retry.WithLogger(o.logger),
	}
	if o.backoff != nil {
		execOpts = append(execOpts, retry.WithBackoff(o.backoff))
	}

	c := &Client{
		cfg:       cfg,
		executor:  retry.NewExecutor(tr, execOpts...),
		transport: tr,
		logger:    o.logger,
	}
	if cfg.LedgerURL != "" {
		if err := validateURL(cfg.LedgerURL); err != nil {
			return nil, err
		}
		c.baseURL = cfg.LedgerURL
	}
	return c, nil
}

type helloResponse struct {
	TeamName string `json:"team_name"`
	Addr     string `json:"addr"`
}

// Hello resolves the ledger base URL, calling the bootstrap endpoint on
// first use. A successful result is cached; failures are not.
//
// Concurrent callers share one bootstrap call. Each caller stops waiting
// when its own ctx ends; the shared call keeps running for the others.
func (c *Client) Hello(ctx context.Context) (string, error) {
	if base := c.cachedBaseURL(); base != "" {
		return base, nil
	}
	if ctx.Err() != nil {
		return "", &retry.CanceledError{Err: context.Cause(ctx)}
	}

	detached := context.WithoutCancel(ctx)
	ch := c.hello.DoChan("hello", func() (any, error) {
		if base := c.cachedBaseURL(); base != "" {
			return base, nil
		}
		return c.discover(detached)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", &retry.CanceledError{Err: context.Cause(ctx)}
	}
}

func (c *Client) cachedBaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

func (c *Client) discover(ctx context.Context) (string, error) {
	helloURL := c.cfg.APIURL + "/hello"
	if err := validateURL(helloURL); err != nil {
		return "", err
	}

	resp, err := retry.Do[helloResponse](ctx, c.executor, retry.Request{
		Action: "hello",
		URL:    helloURL,
		Body:   struct{}{},
	})
	if err != nil {
		return "", fmt.Errorf("hello: %w", err)
	}
	if resp.TeamName == "" || resp.Addr == "" {
		return "", fmt.Errorf("hello: incomplete response (team_name=%q addr=%q)", resp.TeamName, resp.Addr)
	}

	u, _ := url.Parse(helloURL)
	base := fmt.Sprintf("%s://%s/%s/%s", u.Scheme, resp.Addr, resp.TeamName, c.cfg.LedgerName)
	if err := validateURL(base); err != nil {
		return "", err
	}

	c.logger.Debug("Resolved ledger URL", "ledger", c.cfg.LedgerName, "url", base)
	c.mu.Lock()
	c.baseURL = base
	c.mu.Unlock()
	return base, nil
}

// Request performs action with body and decodes the response into out.
// out may be nil.
func (c *Client) Request(ctx context.Context, action string, body, out any) error {
	base, err := c.Hello(ctx)
	if err != nil {
		return err
	}

	endpoint := base + "/" + strings.TrimLeft(action, "/")
	if err := validateURL(endpoint); err != nil {
		return err
	}

	return c.executor.Execute(ctx, retry.Request{Action: action, URL: endpoint, Body: body}, out)
}

// LedgerName returns the configured ledger name.
func (c *Client) LedgerName() string {
	return c.cfg.LedgerName
}

// Health returns the transport health, if the transport tracks it.
func (c *Client) Health() (transport.HealthStatus, bool) {
	hr, ok := c.transport.(transport.HealthReporter)
	if !ok {
		return transport.HealthStatus{}, false
	}
	return hr.GetHealth(), true
}

// Close releases transport resources.
func (c *Client) Close() error {
	if closer, ok := c.transport.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &BadURLError{URL: raw, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &BadURLError{URL: raw, Err: errors.New("scheme must be http or https")}
	}
	if u.Host == "" {
		return &BadURLError{URL: raw, Err: errors.New("missing host")}
	}
	return nil
}

// GetPage fetches the single page of action described by q.
func GetPage[T any](ctx context.Context, c *Client, action string, q domain.QuerySpec) (*domain.Page[T], error) {
	var page domain.Page[T]
	if err := c.Request(ctx, action, q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Fetcher adapts a list action to a paging.Fetcher.
func Fetcher[T any](c *Client, action string) paging.Fetcher[T] {
	return func(ctx context.Context, q domain.QuerySpec) (*domain.Page[T], error) {
		return GetPage[T](ctx, c, action, q)
	}
}

// List returns an item iterator over action.
func List[T any](c *Client, action string, q domain.QuerySpec, opts ...paging.Option) *paging.Iterator[T] {
	opts = append([]paging.Option{paging.WithAction(action)}, opts...)
	return paging.New(Fetcher[T](c, action), q, opts...)
}

// ListPages returns a page iterator over action.
func ListPages[T any](c *Client, action string, q domain.QuerySpec, opts ...paging.Option) *paging.PageIterator[T] {
	opts = append([]paging.Option{paging.WithAction(action)}, opts...)
	return paging.NewPages(Fetcher[T](c, action), q, opts...)
}
