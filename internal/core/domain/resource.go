package domain

import "time"

// Tags is user-specified key-value data attached to ledger objects.
type Tags map[string]any

// Account is a container for token balances.
type Account struct {
	ID     string   `json:"id"`
	KeyIDs []string `json:"key_ids,omitempty"`
	Quorum int      `json:"quorum,omitempty"`
	Tags   Tags     `json:"tags,omitempty"`
}

// Flavor is a type of value that can be issued on the ledger.
type Flavor struct {
	ID     string   `json:"id"`
	KeyIDs []string `json:"key_ids,omitempty"`
	Quorum int      `json:"quorum,omitempty"`
	Tags   Tags     `json:"tags,omitempty"`
}

// Transaction is an atomic update to the ledger.
type Transaction struct {
	ID             string         `json:"id"`
	Timestamp      time.Time      `json:"timestamp"`
	SequenceNumber int64          `json:"sequence_number"`
	Actions        []ActionRecord `json:"actions"`
	Tags           Tags           `json:"transaction_tags,omitempty"`
}

// ActionRecord is an action as recorded in a committed transaction.
type ActionRecord struct {
	ID                   string     `json:"id"`
	Type                 ActionType `json:"type"`
	Amount               int64      `json:"amount"`
	TransactionID        string     `json:"transaction_id"`
	Timestamp            time.Time  `json:"timestamp"`
	FlavorID             string     `json:"flavor_id"`
	SourceAccountID      string     `json:"source_account_id,omitempty"`
	DestinationAccountID string     `json:"destination_account_id,omitempty"`
	Tags                 Tags       `json:"tags,omitempty"`
}

// ActionSum is one row of a sum-actions query; only the grouped fields are set.
type ActionSum struct {
	Amount               int64      `json:"amount"`
	Type                 ActionType `json:"type,omitempty"`
	FlavorID             string     `json:"flavor_id,omitempty"`
	SourceAccountID      string     `json:"source_account_id,omitempty"`
	DestinationAccountID string     `json:"destination_account_id,omitempty"`
	Tags                 Tags       `json:"tags,omitempty"`
}

// Token is a balance of a flavor held by an account.
type Token struct {
	Amount      int64  `json:"amount"`
	FlavorID    string `json:"flavor_id"`
	FlavorTags  Tags   `json:"flavor_tags,omitempty"`
	AccountID   string `json:"account_id"`
	AccountTags Tags   `json:"account_tags,omitempty"`
	Tags        Tags   `json:"tags,omitempty"`
}

// TokenSum is one row of a sum-tokens query.
type TokenSum struct {
	Amount    int64  `json:"amount"`
	FlavorID  string `json:"flavor_id,omitempty"`
	AccountID string `json:"account_id,omitempty"`
	Tags      Tags   `json:"tags,omitempty"`
}

// Key signs transactions on behalf of accounts and flavors.
type Key struct {
	ID string `json:"id"`
}

// Stats summarizes a ledger.
type Stats struct {
	FlavorCount  int64  `json:"flavor_count"`
	AccountCount int64  `json:"account_count"`
	TxCount      int64  `json:"tx_count"`
	LedgerType   string `json:"ledger_type"` // dev or prod
}

// FeedType selects what a feed delivers.
type FeedType string

const (
	FeedTypeAction      FeedType = "action"
	FeedTypeTransaction FeedType = "transaction"
)

// Feed is a server-side cursor over actions or transactions matching a filter.
type Feed struct {
	ID           string   `json:"id"`
	Type         FeedType `json:"type"`
	Filter       string   `json:"filter,omitempty"`
	FilterParams []any    `json:"filter_params,omitempty"`
	Cursor       string   `json:"cursor,omitempty"`
}
