package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPTransport_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected method POST, got %s", r.Method)
		}
		if r.URL.Path != "/team/ledger/list-accounts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Credential"); got != "secret" {
			t.Errorf("expected credential header, got %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"page_size":2}` {
			t.Errorf("unexpected body %s", body)
		}

		w.Header().Set("Chain-Request-ID", "req-1")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer server.Close()

	tr := NewHTTPTransport(5 * time.Second)
	defer tr.Close()

	resp, err := tr.Post(context.Background(), &Request{
		URL:    server.URL + "/team/ledger/list-accounts",
		Header: http.Header{"Credential": []string{"secret"}},
		Body:   []byte(`{"page_size":2}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Chain-Request-ID") != "req-1" {
		t.Errorf("tracing header not propagated")
	}
	if string(resp.Body) != `{"items":[]}` {
		t.Errorf("unexpected body %s", resp.Body)
	}

	h := tr.GetHealth()
	if !h.Available || h.Requests != 1 || h.ErrorRate != 0 {
		t.Errorf("unexpected health %+v", h)
	}
}

func TestHTTPTransport_ErrorStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("down"))
	}))
	defer server.Close()

	tr := NewHTTPTransport(5 * time.Second)
	resp, err := tr.Post(context.Background(), &Request{URL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}

	h := tr.GetHealth()
	if h.Available {
		t.Errorf("expected transport to be marked unavailable after a 5xx")
	}
	if h.ErrorRate != 1 {
		t.Errorf("expected error rate 1, got %v", h.ErrorRate)
	}
}

func TestHTTPTransport_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	tr := NewHTTPTransport(time.Second)
	if _, err := tr.Post(context.Background(), &Request{URL: url}); err == nil {
		t.Fatal("expected error for closed server")
	}
}

func TestHTTPTransport_RateLimitHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tr := NewHTTPTransport(time.Second, WithRateLimit(0.001, 1))
	if _, err := tr.Post(context.Background(), &Request{URL: server.URL}); err != nil {
		t.Fatalf("first request should use the burst: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := tr.Post(ctx, &Request{URL: server.URL})
	if err == nil {
		t.Fatal("expected rate limit wait to fail")
	}
	if errors.Is(err, context.Canceled) {
		t.Errorf("did not expect plain cancellation, got %v", err)
	}
}

func TestFunc(t *testing.T) {
	var called bool
	f := Func(func(ctx context.Context, req *Request) (*Response, error) {
		called = true
		return &Response{StatusCode: 204}, nil
	})
	resp, err := f.Post(context.Background(), &Request{})
	if err != nil || !called || resp.StatusCode != 204 {
		t.Errorf("Func did not delegate: %v %v %+v", called, err, resp)
	}
}
