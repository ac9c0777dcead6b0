package interfaces

import (
	"context"

	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// LedgerStore is the transactional record store behind the ledger. Every
// lookup and mutation is scoped by owner id.
type LedgerStore interface {
	// WithinTx runs fn in one atomic unit. Writes made through tx become
	// visible only if fn returns nil; otherwise everything is rolled back
	// and fn's error is returned.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error

	GetAccount(ctx context.Context, ownerID, accountID string) (models.Account, error)
	// ListAccounts returns the owner's accounts, newest first.
	ListAccounts(ctx context.Context, ownerID string) ([]models.Account, error)
	GetEntry(ctx context.Context, ownerID, entryID string) (models.Entry, error)
	// ListEntries returns one page of matching entries and the total match count.
	// The query is already normalized.
	ListEntries(ctx context.Context, ownerID string, q models.EntryQuery) ([]models.Entry, int64, error)
}

// LedgerTx is the view of the store inside WithinTx.
type LedgerTx interface {
	GetAccount(ctx context.Context, ownerID, accountID string) (models.Account, error)
	InsertAccount(ctx context.Context, account models.Account) error
	// UpdateAccount persists name and color; the balance is left untouched.
	UpdateAccount(ctx context.Context, account models.Account) error
	DeleteAccount(ctx context.Context, ownerID, accountID string) error
	// IncrementBalance adds delta to the stored balance as a relative update.
	// It returns models.ErrNotFound when no account of the owner matches.
	IncrementBalance(ctx context.Context, ownerID, accountID string, delta decimal.Decimal) error

	GetEntry(ctx context.Context, ownerID, entryID string) (models.Entry, error)
	InsertEntry(ctx context.Context, entry models.Entry) error
	ReplaceEntry(ctx context.Context, entry models.Entry) error
	DeleteEntry(ctx context.Context, ownerID, entryID string) error
	// EntriesReferencing lists the owner's entries that reference accountID
	// as account, fromAccount or toAccount.
	EntriesReferencing(ctx context.Context, ownerID, accountID string) ([]models.Entry, error)
	// DeleteEntriesReferencing removes the same set and returns how many went.
	DeleteEntriesReferencing(ctx context.Context, ownerID, accountID string) (int64, error)
}
