package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/ledger/internal/core/domain"
	"github.com/vietddude/ledger/internal/infra/ledger"
	"github.com/vietddude/ledger/internal/infra/ledger/paging"
	"github.com/vietddude/ledger/internal/infra/ledger/retry"
)

type recorded struct {
	action string
	body   map[string]any
}

// newTestService serves each action from responses, keyed by action name.
func newTestService(t *testing.T, responses map[string]string) (*Service, *[]recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		action := strings.TrimPrefix(r.URL.Path, "/team/main/")
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		mu.Lock()
		seen = append(seen, recorded{action: action, body: body})
		mu.Unlock()

		w.Header().Set(retry.TraceHeader, "req-1")
		resp, ok := responses[action]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"seq_code":"SEQ404","message":"unknown action"}`))
			return
		}
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(srv.Close)

	client, err := ledger.NewClient(ledger.Config{
		LedgerName: "main",
		Credential: "cred",
		LedgerURL:  srv.URL + "/team/main",
	}, ledger.WithMaxRetries(0))
	require.NoError(t, err)

	return NewService(client), &seen
}

func TestService_CreateAccount(t *testing.T) {
	svc, seen := newTestService(t, map[string]string{
		ActionCreateAccount: `{"id":"alice","key_ids":["k1"],"quorum":1,"tags":{"type":"checking"}}`,
	})

	acc, err := svc.CreateAccount(context.Background(), CreateAccountRequest{
		ID:     "alice",
		Keys:   []Key{{ID: "k1"}},
		Quorum: 1,
		Tags:   domain.Tags{"type": "checking"},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", acc.ID)
	assert.Equal(t, "checking", acc.Tags["type"])

	require.Len(t, *seen, 1)
	assert.Equal(t, ActionCreateAccount, (*seen)[0].action)
	assert.Equal(t, "alice", (*seen)[0].body["id"])
}

func TestService_UpdateTags(t *testing.T) {
	svc, seen := newTestService(t, map[string]string{
		ActionUpdateAccountTags: `{"message":"ok"}`,
		ActionUpdateFlavorTags:  `{"message":"ok"}`,
	})
	ctx := context.Background()

	require.NoError(t, svc.UpdateAccountTags(ctx, "alice", domain.Tags{"tier": "gold"}))
	require.NoError(t, svc.UpdateFlavorTags(ctx, "usd", nil))
	assert.ErrorIs(t, svc.UpdateAccountTags(ctx, "", nil), ErrMissingID)

	require.Len(t, *seen, 2)
	assert.Equal(t, map[string]any{"tier": "gold"}, (*seen)[0].body["tags"])
	// nil tags clear rather than omit.
	assert.Equal(t, map[string]any{}, (*seen)[1].body["tags"])
}

func TestService_Transact(t *testing.T) {
	svc, seen := newTestService(t, map[string]string{
		ActionTransact: `{"id":"tx1","sequence_number":7,"actions":[{"id":"a1","type":"issue","amount":100,"flavor_id":"usd"}]}`,
	})
	ctx := context.Background()

	tx, err := svc.Transact(ctx, TransactRequest{
		Actions: []domain.TransactionAction{
			domain.Issue(domain.IssueAction{FlavorID: "usd", Amount: 100, DestinationAccountID: "alice"}),
			domain.Transfer(domain.TransferAction{FlavorID: "usd", Amount: 40, SourceAccountID: "alice", DestinationAccountID: "bob"}),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "tx1", tx.ID)
	require.Len(t, tx.Actions, 1)
	assert.Equal(t, domain.ActionIssue, tx.Actions[0].Type)

	require.Len(t, *seen, 1)
	actions, ok := (*seen)[0].body["actions"].([]any)
	require.True(t, ok)
	require.Len(t, actions, 2)
	assert.Equal(t, "issue", actions[0].(map[string]any)["type"])
	assert.Equal(t, "bob", actions[1].(map[string]any)["destination_account_id"])
}

func TestService_TransactValidation(t *testing.T) {
	svc, seen := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Transact(ctx, TransactRequest{})
	assert.ErrorIs(t, err, ErrNoActions)

	_, err = svc.Transact(ctx, TransactRequest{
		Actions: []domain.TransactionAction{{Type: domain.ActionRetire}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAction)

	assert.Empty(t, *seen, "invalid transactions must not reach the ledger")
}

func TestService_ListTokens(t *testing.T) {
	svc, seen := newTestService(t, map[string]string{
		ActionListTokens: `{"items":[{"amount":5,"flavor_id":"usd","account_id":"alice"},{"amount":3,"flavor_id":"eur","account_id":"alice"}],"last_page":true,"cursor":"end"}`,
	})

	q := domain.NewQuery(domain.WithFilter("account_id=$1", "alice"), domain.WithPageSize(50))
	tokens, err := paging.Collect(context.Background(), svc.ListTokens(q))
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.EqualValues(t, 5, tokens[0].Amount)

	require.Len(t, *seen, 1)
	assert.Equal(t, "account_id=$1", (*seen)[0].body["filter"])
	assert.Equal(t, []any{"alice"}, (*seen)[0].body["filter_params"])
	assert.EqualValues(t, 50, (*seen)[0].body["page_size"])
}

func TestService_SumActionsError(t *testing.T) {
	svc, _ := newTestService(t, nil)

	q := domain.NewQuery(domain.WithGroupBy("flavor_id"))
	_, err := paging.Collect(context.Background(), svc.SumActions(q))
	require.Error(t, err)

	var apiErr *ledger.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "SEQ404", apiErr.Code)
}

func TestService_Keys(t *testing.T) {
	svc, seen := newTestService(t, map[string]string{
		ActionCreateKey: `{"id":"k1"}`,
		ActionListKeys:  `{"items":[{"id":"k1"},{"id":"k2"}],"last_page":true,"cursor":"end"}`,
	})
	ctx := context.Background()

	key, err := svc.CreateKey(ctx, CreateKeyRequest{ID: "k1"})
	require.NoError(t, err)
	assert.Equal(t, "k1", key.ID)

	keys, err := paging.Collect(ctx, svc.ListKeys(domain.NewQuery(domain.WithIDs("k1", "k2"))))
	require.NoError(t, err)
	assert.Equal(t, []domain.Key{{ID: "k1"}, {ID: "k2"}}, keys)

	require.Len(t, *seen, 2)
	assert.Equal(t, ActionCreateKey, (*seen)[0].action)
	assert.Equal(t, "k1", (*seen)[0].body["id"])
	assert.Equal(t, ActionListKeys, (*seen)[1].action)
}

func TestService_GetStats(t *testing.T) {
	svc, seen := newTestService(t, map[string]string{
		ActionStats: `{"flavor_count":2,"account_count":5,"tx_count":17,"ledger_type":"dev"}`,
	})

	st, err := svc.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{FlavorCount: 2, AccountCount: 5, TxCount: 17, LedgerType: "dev"}, *st)

	require.Len(t, *seen, 1)
	assert.Equal(t, ActionStats, (*seen)[0].action)
	assert.Nil(t, (*seen)[0].body)
}

func TestService_Feeds(t *testing.T) {
	svc, seen := newTestService(t, map[string]string{
		ActionCreateFeed: `{"id":"f1","type":"action","filter":"type=$1","filter_params":["issue"]}`,
		ActionGetFeed:    `{"id":"f1","type":"action","filter":"type=$1","filter_params":["issue"],"cursor":"c9"}`,
		ActionListFeeds:  `{"items":[{"id":"f1","type":"action"},{"id":"f2","type":"transaction"}],"last_page":true}`,
		ActionDeleteFeed: `{"message":"ok"}`,
	})
	ctx := context.Background()

	feed, err := svc.CreateFeed(ctx, CreateFeedRequest{
		ID:           "f1",
		Type:         domain.FeedTypeAction,
		Filter:       "type=$1",
		FilterParams: []any{"issue"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.FeedTypeAction, feed.Type)

	feed, err = svc.GetFeed(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "c9", feed.Cursor)

	feeds, err := paging.Collect(ctx, svc.ListFeeds(domain.NewQuery()))
	require.NoError(t, err)
	require.Len(t, feeds, 2)
	assert.Equal(t, domain.FeedTypeTransaction, feeds[1].Type)

	require.NoError(t, svc.DeleteFeed(ctx, "f1"))

	require.Len(t, *seen, 4)
	assert.Equal(t, "action", (*seen)[0].body["type"])
	assert.Equal(t, []any{"issue"}, (*seen)[0].body["filter_params"])
	assert.Equal(t, map[string]any{"id": "f1"}, (*seen)[1].body)
	assert.Equal(t, ActionDeleteFeed, (*seen)[3].action)
	assert.Equal(t, "f1", (*seen)[3].body["id"])
}

func TestService_FeedValidation(t *testing.T) {
	svc, seen := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.CreateFeed(ctx, CreateFeedRequest{Type: "block"})
	assert.ErrorIs(t, err, ErrInvalidFeedType)

	_, err = svc.GetFeed(ctx, "")
	assert.ErrorIs(t, err, ErrMissingID)
	assert.ErrorIs(t, svc.DeleteFeed(ctx, ""), ErrMissingID)

	assert.Empty(t, *seen)
}
