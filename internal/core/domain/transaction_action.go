package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ActionType tags the variant of a TransactionAction.
type ActionType string

const (
	ActionIssue    ActionType = "issue"
	ActionTransfer ActionType = "transfer"
	ActionRetire   ActionType = "retire"
)

// ErrInvalidAction is returned when a TransactionAction's tag and payload disagree.
var ErrInvalidAction = errors.New("invalid transaction action")

// IssueAction creates new tokens in a destination account.
type IssueAction struct {
	FlavorID             string `json:"flavor_id"`
	Amount               int64  `json:"amount"`
	DestinationAccountID string `json:"destination_account_id"`
	ActionTags           Tags   `json:"action_tags,omitempty"`
	TokenTags            Tags   `json:"token_tags,omitempty"`
}

// TransferAction moves tokens between accounts.
type TransferAction struct {
	FlavorID             string `json:"flavor_id"`
	Amount               int64  `json:"amount"`
	SourceAccountID      string `json:"source_account_id"`
	DestinationAccountID string `json:"destination_account_id"`
	Filter               string `json:"filter,omitempty"`
	FilterParams         []any  `json:"filter_params,omitempty"`
	ActionTags           Tags   `json:"action_tags,omitempty"`
	TokenTags            Tags   `json:"token_tags,omitempty"`
}

// RetireAction removes tokens from a source account.
type RetireAction struct {
	FlavorID        string `json:"flavor_id"`
	Amount          int64  `json:"amount"`
	SourceAccountID string `json:"source_account_id"`
	Filter          string `json:"filter,omitempty"`
	FilterParams    []any  `json:"filter_params,omitempty"`
	ActionTags      Tags   `json:"action_tags,omitempty"`
}

// TransactionAction is one action of a transaction request.
// Exactly one of Issue, Transfer or Retire is set, matching Type.
type TransactionAction struct {
	Type     ActionType
	Issue    *IssueAction
	Transfer *TransferAction
	Retire   *RetireAction
}

// Issue wraps an IssueAction.
func Issue(a IssueAction) TransactionAction {
	return TransactionAction{Type: ActionIssue, Issue: &a}
}

// Transfer wraps a TransferAction.
func Transfer(a TransferAction) TransactionAction {
	return TransactionAction{Type: ActionTransfer, Transfer: &a}
}

// Retire wraps a RetireAction.
func Retire(a RetireAction) TransactionAction {
	return TransactionAction{Type: ActionRetire, Retire: &a}
}

// Validate checks that exactly the payload named by Type is present.
func (a TransactionAction) Validate() error {
	set := 0
	for _, ok := range []bool{a.Issue != nil, a.Transfer != nil, a.Retire != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: %d payloads set", ErrInvalidAction, set)
	}

	switch a.Type {
	case ActionIssue:
		if a.Issue == nil {
			return fmt.Errorf("%w: type issue without issue payload", ErrInvalidAction)
		}
	case ActionTransfer:
		if a.Transfer == nil {
			return fmt.Errorf("%w: type transfer without transfer payload", ErrInvalidAction)
		}
	case ActionRetire:
		if a.Retire == nil {
			return fmt.Errorf("%w: type retire without retire payload", ErrInvalidAction)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAction, a.Type)
	}
	return nil
}

// MarshalJSON flattens the payload and adds the "type" field.
func (a TransactionAction) MarshalJSON() ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	switch a.Type {
	case ActionIssue:
		return json.Marshal(struct {
			Type ActionType `json:"type"`
			*IssueAction
		}{a.Type, a.Issue})
	case ActionTransfer:
		return json.Marshal(struct {
			Type ActionType `json:"type"`
			*TransferAction
		}{a.Type, a.Transfer})
	default:
		return json.Marshal(struct {
			Type ActionType `json:"type"`
			*RetireAction
		}{a.Type, a.Retire})
	}
}

// UnmarshalJSON reads the "type" field and decodes the matching payload.
func (a *TransactionAction) UnmarshalJSON(data []byte) error {
	var head struct {
		Type ActionType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	out := TransactionAction{Type: head.Type}
	switch head.Type {
	case ActionIssue:
		out.Issue = new(IssueAction)
		if err := json.Unmarshal(data, out.Issue); err != nil {
			return err
		}
	case ActionTransfer:
		out.Transfer = new(TransferAction)
		if err := json.Unmarshal(data, out.Transfer); err != nil {
			return err
		}
	case ActionRetire:
		out.Retire = new(RetireAction)
		if err := json.Unmarshal(data, out.Retire); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAction, head.Type)
	}

	*a = out
	return nil
}
