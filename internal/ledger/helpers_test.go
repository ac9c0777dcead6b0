package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	interfaces "github.com/sheikh-saqib/personal-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/ledger"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/storage/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const owner = "user-1"

var errDisk = errors.New("disk on fire")

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func decPtr(v int64) *decimal.Decimal {
	x := dec(v)
	return &x
}

func decStr(v string) *decimal.Decimal {
	x := decimal.RequireFromString(v)
	return &x
}

func strPtr(s string) *string { return &s }

func kindPtr(k models.EntryKind) *models.EntryKind { return &k }

type fixture struct {
	ledger    *ledger.Ledger
	store     *memory.MemoryLedgerStore
	published *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewMemoryLedgerStore()
	pub := &recordingPublisher{}
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	l := ledger.NewLedger(store,
		ledger.WithPublisher(pub),
		ledger.WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			clock = clock.Add(time.Second)
			return clock
		}),
	)
	return &fixture{ledger: l, store: store, published: pub}
}

func (f *fixture) account(t *testing.T, name string, opening int64) models.Account {
	t.Helper()
	a, err := f.ledger.CreateAccount(context.Background(), owner, models.NewAccount{Name: name, Balance: decPtr(opening)})
	require.NoError(t, err)
	return a
}

func (f *fixture) balance(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()
	a, err := f.store.GetAccount(context.Background(), owner, accountID)
	require.NoError(t, err)
	return a.Balance
}

func (f *fixture) requireBalance(t *testing.T, accountID string, want int64) {
	t.Helper()
	got := f.balance(t, accountID)
	require.True(t, got.Equal(dec(want)), "account %s balance: got %s want %d", accountID, got, want)
}

// requireConsistent asserts the balance invariant for every account of owner.
func (f *fixture) requireConsistent(t *testing.T) {
	t.Helper()
	drifts, err := f.ledger.Verify(context.Background(), owner)
	require.NoError(t, err)
	require.Empty(t, drifts)
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

// faultyStore fails every balance increment of one account.
type faultyStore struct {
	*memory.MemoryLedgerStore
	failAccount string
}

func (s *faultyStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx interfaces.LedgerTx) error) error {
	return s.MemoryLedgerStore.WithinTx(ctx, func(ctx context.Context, tx interfaces.LedgerTx) error {
		return fn(ctx, faultyTx{LedgerTx: tx, failAccount: s.failAccount})
	})
}

type faultyTx struct {
	interfaces.LedgerTx
	failAccount string
}

func (t faultyTx) IncrementBalance(ctx context.Context, ownerID, accountID string, delta decimal.Decimal) error {
	if accountID == t.failAccount {
		return errDisk
	}
	return t.LedgerTx.IncrementBalance(ctx, ownerID, accountID, delta)
}
