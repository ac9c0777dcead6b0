package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types, also used as topic suffixes.
const (
	EntryCreated   = "entry.created"
	EntryUpdated   = "entry.updated"
	EntryDeleted   = "entry.deleted"
	AccountDeleted = "account.deleted"
)

// EntryChanged is published after an entry mutation commits. Deltas holds the
// net balance change per account caused by the mutation.
type EntryChanged struct {
	Type       string                     `json:"type"`
	OwnerID    string                     `json:"owner_id"`
	EntryID    string                     `json:"entry_id"`
	Kind       string                     `json:"kind"`
	Value      decimal.Decimal            `json:"value"`
	Deltas     map[string]decimal.Decimal `json:"deltas"`
	OccurredAt time.Time                  `json:"occurred_at"`
}

// AccountRemoved is published after an account and its entries are deleted.
type AccountRemoved struct {
	Type           string                     `json:"type"`
	OwnerID        string                     `json:"owner_id"`
	AccountID      string                     `json:"account_id"`
	EntriesRemoved int                        `json:"entries_removed"`
	Deltas         map[string]decimal.Decimal `json:"deltas"`
	OccurredAt     time.Time                  `json:"occurred_at"`
}
