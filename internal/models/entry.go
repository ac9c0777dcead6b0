package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind is the kind of balance-affecting event an entry records.
type EntryKind string

const (
	KindIncome   EntryKind = "income"
	KindExpense  EntryKind = "expense"
	KindTransfer EntryKind = "transfer"
)

// DefaultCategory is assigned to entries created without a category.
const DefaultCategory = "other"

// Valid reports whether k is one of the recognized kinds.
func (k EntryKind) Valid() bool {
	switch k {
	case KindIncome, KindExpense, KindTransfer:
		return true
	}
	return false
}

// Target is the account side of an entry: SingleAccount for income and
// expense, Transfer for transfers.
type Target interface {
	// Accounts lists the referenced account ids.
	Accounts() []string
	isTarget()
}

// SingleAccount targets exactly one account.
type SingleAccount struct {
	AccountID string
}

func (t SingleAccount) Accounts() []string { return []string{t.AccountID} }
func (SingleAccount) isTarget()            {}

// Transfer moves value from one account to another.
type Transfer struct {
	FromAccountID string
	ToAccountID   string
}

func (t Transfer) Accounts() []string { return []string{t.FromAccountID, t.ToAccountID} }
func (Transfer) isTarget()            {}

// NewTarget builds the target matching kind from the flat account references
// and validates it.
func NewTarget(kind EntryKind, accountID, fromAccountID, toAccountID string) (Target, error) {
	switch kind {
	case KindIncome, KindExpense:
		if strings.TrimSpace(accountID) == "" {
			return nil, NewValidationError("accountId", "account is required")
		}
		return SingleAccount{AccountID: accountID}, nil
	case KindTransfer:
		if strings.TrimSpace(fromAccountID) == "" || strings.TrimSpace(toAccountID) == "" {
			return nil, NewValidationError("fromAccountId/toAccountId", "both accounts required for transfer")
		}
		if fromAccountID == toAccountID {
			return nil, NewValidationError("toAccountId", "cannot transfer to the same account")
		}
		return Transfer{FromAccountID: fromAccountID, ToAccountID: toAccountID}, nil
	default:
		return nil, NewValidationError("kind", "unrecognized entry kind "+string(kind))
	}
}

// Entry is a single income, expense or transfer.
type Entry struct {
	ID        string
	OwnerID   string
	Kind      EntryKind
	Value     decimal.Decimal
	Target    Target
	DueDate   time.Time
	Notes     string
	Category  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccountID returns the account of an income or expense entry.
func (e Entry) AccountID() string {
	if t, ok := e.Target.(SingleAccount); ok {
		return t.AccountID
	}
	return ""
}

// FromAccountID returns the source account of a transfer.
func (e Entry) FromAccountID() string {
	if t, ok := e.Target.(Transfer); ok {
		return t.FromAccountID
	}
	return ""
}

// ToAccountID returns the destination account of a transfer.
func (e Entry) ToAccountID() string {
	if t, ok := e.Target.(Transfer); ok {
		return t.ToAccountID
	}
	return ""
}

// References reports whether the entry touches accountID in any role.
func (e Entry) References(accountID string) bool {
	if e.Target == nil {
		return false
	}
	for _, id := range e.Target.Accounts() {
		if id == accountID {
			return true
		}
	}
	return false
}

type entryJSON struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"owner"`
	Kind          EntryKind       `json:"entryType"`
	Value         decimal.Decimal `json:"value"`
	AccountID     string          `json:"account,omitempty"`
	FromAccountID string          `json:"fromAccount,omitempty"`
	ToAccountID   string          `json:"toAccount,omitempty"`
	DueDate       time.Time       `json:"dueDate"`
	Notes         string          `json:"notes"`
	Category      string          `json:"category"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// MarshalJSON flattens the target into account/fromAccount/toAccount.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		ID:            e.ID,
		OwnerID:       e.OwnerID,
		Kind:          e.Kind,
		Value:         e.Value,
		AccountID:     e.AccountID(),
		FromAccountID: e.FromAccountID(),
		ToAccountID:   e.ToAccountID(),
		DueDate:       e.DueDate,
		Notes:         e.Notes,
		Category:      e.Category,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	})
}

// UnmarshalJSON rebuilds the target from the flat references.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	target, err := NewTarget(raw.Kind, raw.AccountID, raw.FromAccountID, raw.ToAccountID)
	if err != nil {
		return err
	}
	*e = Entry{
		ID:        raw.ID,
		OwnerID:   raw.OwnerID,
		Kind:      raw.Kind,
		Value:     raw.Value,
		Target:    target,
		DueDate:   raw.DueDate,
		Notes:     raw.Notes,
		Category:  raw.Category,
		CreatedAt: raw.CreatedAt,
		UpdatedAt: raw.UpdatedAt,
	}
	return nil
}

// NewEntry is the input for creating an entry. Kind defaults to expense,
// Value to zero, Category to "other" and DueDate to the creation time.
type NewEntry struct {
	Value         *decimal.Decimal `json:"value"`
	Kind          EntryKind        `json:"entryType" validate:"omitempty,oneof=income expense transfer"`
	DueDate       *time.Time       `json:"dueDate"`
	Notes         string           `json:"notes"`
	Category      string           `json:"category"`
	AccountID     string           `json:"accountId"`
	FromAccountID string           `json:"fromAccountId"`
	ToAccountID   string           `json:"toAccountId"`
}

// Build validates n and returns the entry it describes, stamped with now.
// ID and OwnerID are left for the caller.
func (n NewEntry) Build(now time.Time) (Entry, error) {
	kind := n.Kind
	if kind == "" {
		kind = KindExpense
	}
	if !kind.Valid() {
		return Entry{}, NewValidationError("entryType", "unrecognized entry kind "+string(kind))
	}

	value := decimal.Zero
	if n.Value != nil {
		value = *n.Value
	}
	if value.IsNegative() {
		return Entry{}, NewValidationError("value", "value must not be negative")
	}
	if err := checkAmount("value", value); err != nil {
		return Entry{}, err
	}

	target, err := NewTarget(kind, n.AccountID, n.FromAccountID, n.ToAccountID)
	if err != nil {
		return Entry{}, err
	}

	due := now
	if n.DueDate != nil {
		due = *n.DueDate
	}
	category := n.Category
	if category == "" {
		category = DefaultCategory
	}

	return Entry{
		Kind:      kind,
		Value:     value,
		Target:    target,
		DueDate:   due,
		Notes:     n.Notes,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// EntryChanges is a partial update. Nil fields keep their previous value.
type EntryChanges struct {
	Value         *decimal.Decimal `json:"value"`
	Kind          *EntryKind       `json:"entryType" validate:"omitempty,oneof=income expense transfer"`
	DueDate       *time.Time       `json:"dueDate"`
	Notes         *string          `json:"notes"`
	Category      *string          `json:"category"`
	AccountID     *string          `json:"accountId"`
	FromAccountID *string          `json:"fromAccountId"`
	ToAccountID   *string          `json:"toAccountId"`
}

// Apply returns old with the changes applied. References that the new kind
// does not use are dropped, so a transfer turned into an expense loses its
// from/to accounts and the other way round.
func (c EntryChanges) Apply(old Entry, now time.Time) (Entry, error) {
	next := old

	if c.Kind != nil {
		next.Kind = *c.Kind
	}
	if !next.Kind.Valid() {
		return Entry{}, NewValidationError("entryType", "unrecognized entry kind "+string(next.Kind))
	}
	if c.Value != nil {
		if c.Value.IsNegative() {
			return Entry{}, NewValidationError("value", "value must not be negative")
		}
		if err := checkAmount("value", *c.Value); err != nil {
			return Entry{}, err
		}
		next.Value = *c.Value
	}

	account := pick(c.AccountID, old.AccountID())
	from := pick(c.FromAccountID, old.FromAccountID())
	to := pick(c.ToAccountID, old.ToAccountID())
	target, err := NewTarget(next.Kind, account, from, to)
	if err != nil {
		return Entry{}, err
	}
	next.Target = target

	if c.DueDate != nil {
		next.DueDate = *c.DueDate
	}
	if c.Notes != nil {
		next.Notes = *c.Notes
	}
	if c.Category != nil {
		next.Category = *c.Category
	}
	next.UpdatedAt = now
	return next, nil
}

// IsEmpty reports whether no field is set.
func (c EntryChanges) IsEmpty() bool {
	return c == EntryChanges{}
}

func pick(changed *string, previous string) string {
	if changed != nil {
		return *changed
	}
	return previous
}
