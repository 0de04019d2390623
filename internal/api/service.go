// Package api exposes typed calls for the ledger resources on top of the
// generic client.
package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/vietddude/ledger/internal/core/domain"
	"github.com/vietddude/ledger/internal/infra/ledger"
	"github.com/vietddude/ledger/internal/infra/ledger/paging"
)

// Action names understood by the ledger.
const (
	ActionCreateAccount     = "create-account"
	ActionListAccounts      = "list-accounts"
	ActionUpdateAccountTags = "update-account-tags"
	ActionCreateFlavor      = "create-flavor"
	ActionListFlavors       = "list-flavors"
	ActionUpdateFlavorTags  = "update-flavor-tags"
	ActionTransact          = "transact"
	ActionListTransactions  = "list-transactions"
	ActionListActions       = "list-actions"
	ActionSumActions        = "sum-actions"
	ActionListTokens        = "list-tokens"
	ActionSumTokens         = "sum-tokens"
	ActionCreateKey         = "create-key"
	ActionListKeys          = "list-keys"
	ActionStats             = "stats"
	ActionCreateFeed        = "create-feed"
	ActionGetFeed           = "get-feed"
	ActionListFeeds         = "list-feeds"
	ActionDeleteFeed        = "delete-feed"
)

var (
	ErrNoActions       = errors.New("transaction has no actions")
	ErrMissingID       = errors.New("id is required")
	ErrInvalidFeedType = errors.New("feed type must be action or transaction")
)

// Key references a signing key by id.
type Key = domain.Key

// CreateAccountRequest describes a new account.
type CreateAccountRequest struct {
	ID     string      `json:"id,omitempty"`
	Keys   []Key       `json:"keys"`
	Quorum int         `json:"quorum,omitempty"`
	Tags   domain.Tags `json:"tags,omitempty"`
}

// CreateFlavorRequest describes a new flavor.
type CreateFlavorRequest struct {
	ID     string      `json:"id,omitempty"`
	Keys   []Key       `json:"keys"`
	Quorum int         `json:"quorum,omitempty"`
	Tags   domain.Tags `json:"tags,omitempty"`
}

// TagUpdate replaces the tags of one object.
type TagUpdate struct {
	ID   string      `json:"id"`
	Tags domain.Tags `json:"tags"`
}

// TransactRequest is a set of actions committed atomically.
type TransactRequest struct {
	Actions         []domain.TransactionAction `json:"actions"`
	TransactionTags domain.Tags                `json:"transaction_tags,omitempty"`
}

// CreateKeyRequest describes a new key; the ledger assigns an id when empty.
type CreateKeyRequest struct {
	ID string `json:"id,omitempty"`
}

// CreateFeedRequest describes a new feed.
type CreateFeedRequest struct {
	ID           string          `json:"id,omitempty"`
	Type         domain.FeedType `json:"type"`
	Filter       string          `json:"filter,omitempty"`
	FilterParams []any           `json:"filter_params"`
}

type idRequest struct {
	ID string `json:"id"`
}

type successMessage struct {
	Message string `json:"message"`
}

// Service wraps a ledger client with typed resource calls.
type Service struct {
	client *ledger.Client
}

func NewService(client *ledger.Client) *Service {
	return &Service{client: client}
}

// Client returns the underlying ledger client.
func (s *Service) Client() *ledger.Client {
	return s.client
}

// CreateAccount creates an account.
func (s *Service) CreateAccount(ctx context.Context, req CreateAccountRequest) (*domain.Account, error) {
	var acc domain.Account
	if err := s.client.Request(ctx, ActionCreateAccount, req, &acc); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return &acc, nil
}

// ListAccounts iterates accounts matching q.
func (s *Service) ListAccounts(q domain.QuerySpec, opts ...paging.Option) *paging.Iterator[domain.Account] {
	return ledger.List[domain.Account](s.client, ActionListAccounts, q, opts...)
}

// UpdateAccountTags replaces the tags of an account.
func (s *Service) UpdateAccountTags(ctx context.Context, id string, tags domain.Tags) error {
	return s.updateTags(ctx, ActionUpdateAccountTags, id, tags)
}

// CreateFlavor creates a flavor.
func (s *Service) CreateFlavor(ctx context.Context, req CreateFlavorRequest) (*domain.Flavor, error) {
	var f domain.Flavor
	if err := s.client.Request(ctx, ActionCreateFlavor, req, &f); err != nil {
		return nil, fmt.Errorf("create flavor: %w", err)
	}
	return &f, nil
}

// ListFlavors iterates flavors matching q.
func (s *Service) ListFlavors(q domain.QuerySpec, opts ...paging.Option) *paging.Iterator[domain.Flavor] {
	return ledger.List[domain.Flavor](s.client, ActionListFlavors, q, opts...)
}

// UpdateFlavorTags replaces the tags of a flavor.
func (s *Service) UpdateFlavorTags(ctx context.Context, id string, tags domain.Tags) error {
	return s.updateTags(ctx, ActionUpdateFlavorTags, id, tags)
}

// Transact validates and commits actions as one transaction.
func (s *Service) Transact(ctx context.Context, req TransactRequest) (*domain.Transaction, error) {
	if len(req.Actions) == 0 {
		return nil, ErrNoActions
	}
	for i, a := range req.Actions {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
	}

	var tx domain.Transaction
	if err := s.client.Request(ctx, ActionTransact, req, &tx); err != nil {
		return nil, fmt.Errorf("transact: %w", err)
	}
	return &tx, nil
}

// ListTransactions iterates transactions matching q.
func (s *Service) ListTransactions(q domain.QuerySpec, opts ...paging.Option) *paging.Iterator[domain.Transaction] {
	return ledger.List[domain.Transaction](s.client, ActionListTransactions, q, opts...)
}

// ListActions iterates committed actions matching q.
func (s *Service) ListActions(q domain.QuerySpec, opts ...paging.Option) *paging.Iterator[domain.ActionRecord] {
	return ledger.List[domain.ActionRecord](s.client, ActionListActions, q, opts...)
}

// SumActions iterates action sums grouped by q.GroupBy.
func (s *Service) SumActions(q domain.QuerySpec, opts ...paging.Option) *paging.Iterator[domain.ActionSum] {
	return ledger.List[domain.ActionSum](s.client, ActionSumActions, q, opts...)
}

// ListTokens iterates token balances matching q.
func (s *Service) ListTokens(q domain.QuerySpec, opts ...paging.Option) *paging.Iterator[domain.Token] {
	return ledger.List[domain.Token](s.client, ActionListTokens, q, opts...)
}

// SumTokens iterates token sums grouped by q.GroupBy.
func (s *Service) SumTokens(q domain.QuerySpec, opts ...paging.Option) *paging.Iterator[domain.TokenSum] {
	return ledger.List[domain.TokenSum](s.client, ActionSumTokens, q, opts...)
}

// CreateKey creates a signing key.
func (s *Service) CreateKey(ctx context.Context, req CreateKeyRequest) (*domain.Key, error) {
	var k domain.Key
	if err := s.client.Request(ctx, ActionCreateKey, req, &k); err != nil {
		return nil, fmt.Errorf("create key: %w", err)
	}
	return &k, nil
}

// ListKeys iterates keys matching q.
func (s *Service) ListKeys(q domain.QuerySpec, opts ...paging.Option) *paging.Iterator[domain.Key] {
	return ledger.List[domain.Key](s.client, ActionListKeys, q, opts...)
}

// GetStats returns summary counts for the ledger.
func (s *Service) GetStats(ctx context.Context) (*domain.Stats, error) {
	var st domain.Stats
	if err := s.client.Request(ctx, ActionStats, nil, &st); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return &st, nil
}

// CreateFeed creates an action or transaction feed.
func (s *Service) CreateFeed(ctx context.Context, req CreateFeedRequest) (*domain.Feed, error) {
	if req.Type != domain.FeedTypeAction && req.Type != domain.FeedTypeTransaction {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFeedType, req.Type)
	}
	if req.FilterParams == nil {
		req.FilterParams = []any{}
	}
	var f domain.Feed
	if err := s.client.Request(ctx, ActionCreateFeed, req, &f); err != nil {
		return nil, fmt.Errorf("create feed: %w", err)
	}
	return &f, nil
}

// GetFeed fetches one feed by id.
func (s *Service) GetFeed(ctx context.Context, id string) (*domain.Feed, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	var f domain.Feed
	if err := s.client.Request(ctx, ActionGetFeed, idRequest{ID: id}, &f); err != nil {
		return nil, fmt.Errorf("get feed: %w", err)
	}
	return &f, nil
}

// ListFeeds iterates feeds matching q.
func (s *Service) ListFeeds(q domain.QuerySpec, opts ...paging.Option) *paging.Iterator[domain.Feed] {
	return ledger.List[domain.Feed](s.client, ActionListFeeds, q, opts...)
}

// DeleteFeed removes a feed.
func (s *Service) DeleteFeed(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	var msg successMessage
	if err := s.client.Request(ctx, ActionDeleteFeed, idRequest{ID: id}, &msg); err != nil {
		return fmt.Errorf("delete feed: %w", err)
	}
	return nil
}

func (s *Service) updateTags(ctx context.Context, action, id string, tags domain.Tags) error {
	if id == "" {
		return ErrMissingID
	}
	if tags == nil {
		tags = domain.Tags{}
	}
	var msg successMessage
	if err := s.client.Request(ctx, action, TagUpdate{ID: id, Tags: tags}, &msg); err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	return nil
}
