package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/ledger/internal/infra/ledger/retry"
)

func TestParseParam(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"alice", "alice"},
		{`"quoted"`, "quoted"},
		{"42", float64(42)},
		{"true", true},
		{`{"a":1}`, map[string]any{"a": float64(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseParam(tt.in))
		})
	}
}

func TestQueryFlags(t *testing.T) {
	f := queryFlags{
		filter:   "tags.type=$1 AND amount>$2",
		params:   []string{"checking", "10"},
		pageSize: 25,
		groupBy:  []string{"flavor_id"},
	}
	q := f.query()
	assert.Equal(t, "tags.type=$1 AND amount>$2", q.Filter)
	assert.Equal(t, []any{"checking", float64(10)}, q.FilterParams)
	assert.Equal(t, 25, q.PageSize)
	assert.Equal(t, []string{"flavor_id"}, q.GroupBy)
	assert.Empty(t, q.SumBy)
	assert.True(t, q.AtStart())
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logLevel("info", true))
	assert.Equal(t, slog.LevelDebug, logLevel("DEBUG", false))
	assert.Equal(t, slog.LevelWarn, logLevel("warn", false))
	assert.Equal(t, slog.LevelError, logLevel("error", false))
	assert.Equal(t, slog.LevelInfo, logLevel("", false))
}

func TestPrintError(t *testing.T) {
	err := fmt.Errorf("transact: %w", &retry.APIError{
		Code:      "SEQ706",
		Message:   "one or more actions failed",
		Detail:    "see nested errors",
		RequestID: "req-9",
		Nested:    []*retry.APIError{nil, {Code: "SEQ702", Message: "insufficient balance"}},
	})

	var buf bytes.Buffer
	printError(&buf, err)
	out := buf.String()
	assert.Contains(t, out, "code:       SEQ706")
	assert.Contains(t, out, "request id: req-9")
	assert.Contains(t, out, "action 1:   SEQ702 insufficient balance")
	assert.NotContains(t, out, "action 0:")

	buf.Reset()
	printError(&buf, io.EOF)
	assert.Equal(t, "Error: EOF\n", buf.String())
}

// accountServer pages through n accounts, two per page.
func accountServer(t *testing.T, n int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Cursor string `json:"cursor"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		start, _ := strconv.Atoi(body.Cursor)
		end := min(start+2, n)

		items := make([]map[string]string, 0, end-start)
		for i := start; i < end; i++ {
			items = append(items, map[string]string{"id": "acc-" + strconv.Itoa(i)})
		}
		w.Header().Set(retry.TraceHeader, "req")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items":     items,
			"last_page": end >= n,
			"cursor":    strconv.Itoa(end),
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func runCLI(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf("ledger:\n  name: main\n  credential: test\n  url: %s/team/main\nretry:\n  max_retries: 1\n", url)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// Flag values live in package variables and persist across runs.
	listLimit, listResume, listRestart, metricsPort = 0, "", false, 0
	pageCursor = ""
	listQuery, pageQuery = queryFlags{}, queryFlags{}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"--config", path, "--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestListCommand(t *testing.T) {
	srv := accountServer(t, 5)

	out, err := runCLI(t, srv.URL, "list", "list-accounts")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.JSONEq(t, `{"id":"acc-0"}`, lines[0])
	assert.JSONEq(t, `{"id":"acc-4"}`, lines[4])

	out, err = runCLI(t, srv.URL, "list", "list-accounts", "--limit", "3")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)
}

func TestPageCommand(t *testing.T) {
	srv := accountServer(t, 5)

	out, err := runCLI(t, srv.URL, "page", "list-accounts", "--cursor", "4")
	require.NoError(t, err)

	var page struct {
		Items    []map[string]string `json:"items"`
		LastPage bool                `json:"last_page"`
		Cursor   string              `json:"cursor"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "acc-4", page.Items[0]["id"])
	assert.True(t, page.LastPage)
}
