package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	interfaces "github.com/sheikh-saqib/personal-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/shopspring/decimal"
)

type state struct {
	accounts map[string]models.Account
	entries  map[string]models.Entry
}

func (s state) clone() state {
	c := state{
		accounts: make(map[string]models.Account, len(s.accounts)),
		entries:  make(map[string]models.Entry, len(s.entries)),
	}
	for id, a := range s.accounts {
		c.accounts[id] = a
	}
	for id, e := range s.entries {
		c.entries[id] = e
	}
	return c
}

// MemoryLedgerStore is an in-memory implementation of interfaces.LedgerStore.
// Transactions are serialized: WithinTx holds the write lock and works on a
// copy of the state that replaces the live state only on success.
type MemoryLedgerStore struct {
	mu sync.RWMutex
	st state
}

func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		st: state{
			accounts: make(map[string]models.Account),
			entries:  make(map[string]models.Entry),
		},
	}
}

func (m *MemoryLedgerStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx interfaces.LedgerTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// one writer at a time; readers see the last committed state
	m.mu.Lock()
	defer m.mu.Unlock()

	// work on a copy so a failed fn leaves nothing behind
	tx := &memoryTx{st: m.st.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	// a transaction cancelled while running does not commit
	if err := ctx.Err(); err != nil {
		return err
	}
	m.st = tx.st
	return nil
}

func (m *MemoryLedgerStore) GetAccount(_ context.Context, ownerID, accountID string) (models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return getAccount(m.st, ownerID, accountID)
}

func (m *MemoryLedgerStore) ListAccounts(_ context.Context, ownerID string) ([]models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.Account, 0)
	for _, a := range m.st.accounts {
		if a.OwnerID == ownerID {
			result = append(result, a)
		}
	}
	slices.SortFunc(result, func(a, b models.Account) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return result, nil
}

func (m *MemoryLedgerStore) GetEntry(_ context.Context, ownerID, entryID string) (models.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return getEntry(m.st, ownerID, entryID)
}

func (m *MemoryLedgerStore) ListEntries(_ context.Context, ownerID string, q models.EntryQuery) ([]models.Entry, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []models.Entry
	for _, e := range m.st.entries {
		if e.OwnerID != ownerID {
			continue
		}
		if q.Category != "" && e.Category != q.Category {
			continue
		}
		if q.AccountID != "" && !e.References(q.AccountID) {
			continue
		}
		matched = append(matched, e)
	}
	slices.SortFunc(matched, entryOrder(q.Sort))

	// Apply paging
	total := int64(len(matched))
	start := min(q.Offset(), len(matched))
	end := len(matched)
	if q.Limit > 0 {
		end = min(start+q.Limit, len(matched))
	}
	page := make([]models.Entry, end-start)
	copy(page, matched[start:end])
	return page, total, nil
}

func entryOrder(key models.SortKey) func(a, b models.Entry) int {
	return func(a, b models.Entry) int {
		var c int
		switch key {
		case models.SortDueAsc:
			c = a.DueDate.Compare(b.DueDate)
		case models.SortDueDesc:
			c = b.DueDate.Compare(a.DueDate)
		default:
			c = b.CreatedAt.Compare(a.CreatedAt)
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	}
}

func getAccount(st state, ownerID, accountID string) (models.Account, error) {
	a, ok := st.accounts[accountID]
	if !ok || a.OwnerID != ownerID {
		return models.Account{}, models.NotFoundError("account", accountID)
	}
	return a, nil
}

func getEntry(st state, ownerID, entryID string) (models.Entry, error) {
	e, ok := st.entries[entryID]
	if !ok || e.OwnerID != ownerID {
		return models.Entry{}, models.NotFoundError("entry", entryID)
	}
	return e, nil
}

// memoryTx mutates a private copy of the store state.
type memoryTx struct {
	st state
}

func (t *memoryTx) GetAccount(_ context.Context, ownerID, accountID string) (models.Account, error) {
	return getAccount(t.st, ownerID, accountID)
}

func (t *memoryTx) InsertAccount(_ context.Context, account models.Account) error {
	t.st.accounts[account.ID] = account
	return nil
}

func (t *memoryTx) UpdateAccount(_ context.Context, account models.Account) error {
	current, err := getAccount(t.st, account.OwnerID, account.ID)
	if err != nil {
		return err
	}
	current.Name = account.Name
	current.Color = account.Color
	current.UpdatedAt = account.UpdatedAt
	t.st.accounts[account.ID] = current
	return nil
}

func (t *memoryTx) DeleteAccount(_ context.Context, ownerID, accountID string) error {
	if _, err := getAccount(t.st, ownerID, accountID); err != nil {
		return err
	}
	delete(t.st.accounts, accountID)
	return nil
}

func (t *memoryTx) IncrementBalance(_ context.Context, ownerID, accountID string, delta decimal.Decimal) error {
	a, err := getAccount(t.st, ownerID, accountID)
	if err != nil {
		return err
	}
	a.Balance = a.Balance.Add(delta)
	t.st.accounts[accountID] = a
	return nil
}

func (t *memoryTx) GetEntry(_ context.Context, ownerID, entryID string) (models.Entry, error) {
	return getEntry(t.st, ownerID, entryID)
}

func (t *memoryTx) InsertEntry(_ context.Context, entry models.Entry) error {
	t.st.entries[entry.ID] = entry
	return nil
}

func (t *memoryTx) ReplaceEntry(_ context.Context, entry models.Entry) error {
	if _, err := getEntry(t.st, entry.OwnerID, entry.ID); err != nil {
		return err
	}
	t.st.entries[entry.ID] = entry
	return nil
}

func (t *memoryTx) DeleteEntry(_ context.Context, ownerID, entryID string) error {
	if _, err := getEntry(t.st, ownerID, entryID); err != nil {
		return err
	}
	delete(t.st.entries, entryID)
	return nil
}

func (t *memoryTx) EntriesReferencing(_ context.Context, ownerID, accountID string) ([]models.Entry, error) {
	var result []models.Entry
	for _, e := range t.st.entries {
		if e.OwnerID == ownerID && e.References(accountID) {
			result = append(result, e)
		}
	}
	slices.SortFunc(result, entryOrder(models.SortCreatedDesc))
	return result, nil
}

func (t *memoryTx) DeleteEntriesReferencing(_ context.Context, ownerID, accountID string) (int64, error) {
	var n int64
	for id, e := range t.st.entries {
		if e.OwnerID == ownerID && e.References(accountID) {
			delete(t.st.entries, id)
			n++
		}
	}
	return n, nil
}

// Compile-time check: ensure MemoryLedgerStore implements LedgerStore interface
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
var _ interfaces.LedgerTx = (*memoryTx)(nil)
