package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sheikh-saqib/personal-finance-ledger/internal/ledger"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEntry_Balances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account(t, "Checking", 100)
	b := f.account(t, "Savings", 0)

	income, err := f.ledger.CreateEntry(ctx, owner, models.NewEntry{Kind: models.KindIncome, Value: decPtr(40), AccountID: a.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, income.ID)
	assert.Equal(t, owner, income.OwnerID)
	f.requireBalance(t, a.ID, 140)

	_, err = f.ledger.CreateEntry(ctx, owner, models.NewEntry{Kind: models.KindExpense, Value: decPtr(15), AccountID: a.ID})
	require.NoError(t, err)
	f.requireBalance(t, a.ID, 125)

	_, err = f.ledger.CreateEntry(ctx, owner, models.NewEntry{
		Kind: models.KindTransfer, Value: decPtr(25), FromAccountID: a.ID, ToAccountID: b.ID,
	})
	require.NoError(t, err)
	f.requireBalance(t, a.ID, 100)
	f.requireBalance(t, b.ID, 25)

	f.requireConsistent(t)
	assert.Equal(t, []string{events.EntryCreated, events.EntryCreated, events.EntryCreated}, f.published.Topics())
}

func TestCreateEntry_Defaults(t *testing.T) {
	f := newFixture(t)
	a := f.account(t, "Cash", 10)

	e, err := f.ledger.CreateEntry(context.Background(), owner, models.NewEntry{AccountID: a.ID})
	require.NoError(t, err)
	assert.Equal(t, models.KindExpense, e.Kind)
	assert.True(t, e.Value.IsZero())
	assert.Equal(t, models.DefaultCategory, e.Category)
	assert.Equal(t, e.CreatedAt, e.DueDate)
	f.requireBalance(t, a.ID, 10)
}

func TestCreateEntry_Rejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account(t, "Checking", 50)
	b := f.account(t, "Savings", 0)

	tests := []struct {
		name string
		in   models.NewEntry
		want error
	}{
		{"transfer to same account", models.NewEntry{Kind: models.KindTransfer, Value: decPtr(5), FromAccountID: a.ID, ToAccountID: a.ID}, models.ErrValidation},
		{"transfer missing destination", models.NewEntry{Kind: models.KindTransfer, Value: decPtr(5), FromAccountID: a.ID}, models.ErrValidation},
		{"income without account", models.NewEntry{Kind: models.KindIncome, Value: decPtr(5)}, models.ErrValidation},
		{"expense without account", models.NewEntry{Kind: models.KindExpense, Value: decPtr(5)}, models.ErrValidation},
		{"unknown kind", models.NewEntry{Kind: "loan", Value: decPtr(5), AccountID: a.ID}, models.ErrValidation},
		{"negative value", models.NewEntry{Kind: models.KindIncome, Value: decPtr(-5), AccountID: a.ID}, models.ErrValidation},
		{"value beyond four decimals", models.NewEntry{Kind: models.KindIncome, Value: decStr("0.00001"), AccountID: a.ID}, models.ErrValidation},
		{"value beyond sixteen digits", models.NewEntry{Kind: models.KindIncome, Value: decStr("1e16"), AccountID: a.ID}, models.ErrValidation},
		{"unknown account", models.NewEntry{Kind: models.KindIncome, Value: decPtr(5), AccountID: "missing"}, models.ErrNotFound},
		{"transfer to unknown account", models.NewEntry{Kind: models.KindTransfer, Value: decPtr(5), FromAccountID: a.ID, ToAccountID: "missing"}, models.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.CreateEntry(ctx, owner, tt.in)
			require.ErrorIs(t, err, tt.want)
		})
	}

	page, err := f.ledger.ListEntries(ctx, owner, models.EntryQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	f.requireBalance(t, a.ID, 50)
	f.requireBalance(t, b.ID, 0)
	assert.Empty(t, f.published.Topics())
}

func TestCreateEntry_OtherOwnersAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	foreign, err := f.ledger.CreateAccount(ctx, "user-2", models.NewAccount{Name: "Theirs"})
	require.NoError(t, err)

	_, err = f.ledger.CreateEntry(ctx, owner, models.NewEntry{Kind: models.KindIncome, Value: decPtr(5), AccountID: foreign.ID})
	require.ErrorIs(t, err, models.ErrNotFound)

	a, err := f.ledger.GetAccount(ctx, "user-2", foreign.ID)
	require.NoError(t, err)
	assert.True(t, a.Balance.IsZero())
}

func TestCreateDelete_RoundTrip(t *testing.T) {
	kinds := []models.NewEntry{
		{Kind: models.KindIncome, Value: decPtr(70)},
		{Kind: models.KindExpense, Value: decPtr(70)},
		{Kind: models.KindTransfer, Value: decPtr(70)},
	}
	for _, in := range kinds {
		t.Run(string(in.Kind), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			a := f.account(t, "A", 200)
			b := f.account(t, "B", 30)
			if in.Kind == models.KindTransfer {
				in.FromAccountID, in.ToAccountID = a.ID, b.ID
			} else {
				in.AccountID = a.ID
			}

			e, err := f.ledger.CreateEntry(ctx, owner, in)
			require.NoError(t, err)
			require.NoError(t, f.ledger.DeleteEntry(ctx, owner, e.ID))

			f.requireBalance(t, a.ID, 200)
			f.requireBalance(t, b.ID, 30)
			_, err = f.ledger.GetEntry(ctx, owner, e.ID)
			assert.ErrorIs(t, err, models.ErrNotFound)
			f.requireConsistent(t)
		})
	}
}

func TestUpdateEntry_NoChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account(t, "A", 0)
	b := f.account(t, "B", 0)
	e, err := f.ledger.CreateEntry(ctx, owner, models.NewEntry{
		Kind: models.KindTransfer, Value: decPtr(12), FromAccountID: a.ID, ToAccountID: b.ID,
	})
	require.NoError(t, err)

	got, err := f.ledger.UpdateEntry(ctx, owner, e.ID, models.EntryChanges{})
	require.NoError(t, err)
	assert.Equal(t, e, got)
	stored, err := f.ledger.GetEntry(ctx, owner, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e, stored)
	f.requireBalance(t, a.ID, -12)
	f.requireBalance(t, b.ID, 12)
	assert.Equal(t, []string{events.EntryCreated}, f.published.Topics())
}

func TestUpdateEntry_KindAndAccountChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account(t, "A", 100)
	b := f.account(t, "B", 100)

	e, err := f.ledger.CreateEntry(ctx, owner, models.NewEntry{Kind: models.KindExpense, Value: decPtr(50), AccountID: a.ID})
	require.NoError(t, err)
	f.requireBalance(t, a.ID, 50)

	updated, err := f.ledger.UpdateEntry(ctx, owner, e.ID, models.EntryChanges{
		Kind:      kindPtr(models.KindIncome),
		Value:     decPtr(30),
		AccountID: strPtr(b.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, models.KindIncome, updated.Kind)
	assert.Equal(t, b.ID, updated.AccountID())

	// A regains the 50, B gains 30.
	f.requireBalance(t, a.ID, 100)
	f.requireBalance(t, b.ID, 130)
	f.requireConsistent(t)
}

func TestUpdateEntry_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		initial func(a, b, c string) models.NewEntry
		changes func(a, b, c string) models.EntryChanges
		want    func(a, b, c string) map[string]int64
		check   func(t *testing.T, e models.Entry, a, b, c string)
	}{
		{
			name: "value change on same account",
			initial: func(a, _, _ string) models.NewEntry {
				return models.NewEntry{Kind: models.KindIncome, Value: decPtr(10), AccountID: a}
			},
			changes: func(_, _, _ string) models.EntryChanges { return models.EntryChanges{Value: decPtr(25)} },
			want:    func(a, b, c string) map[string]int64 { return map[string]int64{a: 25, b: 0, c: 0} },
		},
		{
			name: "expense becomes income on same account",
			initial: func(a, _, _ string) models.NewEntry {
				return models.NewEntry{Kind: models.KindExpense, Value: decPtr(10), AccountID: a}
			},
			changes: func(_, _, _ string) models.EntryChanges { return models.EntryChanges{Kind: kindPtr(models.KindIncome)} },
			want:    func(a, b, c string) map[string]int64 { return map[string]int64{a: 10, b: 0, c: 0} },
		},
		{
			name: "transfer destination changes",
			initial: func(a, b, _ string) models.NewEntry {
				return models.NewEntry{Kind: models.KindTransfer, Value: decPtr(10), FromAccountID: a, ToAccountID: b}
			},
			changes: func(_, _, c string) models.EntryChanges { return models.EntryChanges{ToAccountID: strPtr(c)} },
			want:    func(a, b, c string) map[string]int64 { return map[string]int64{a: -10, b: 0, c: 10} },
		},
		{
			name: "transfer reversed",
			initial: func(a, b, _ string) models.NewEntry {
				return models.NewEntry{Kind: models.KindTransfer, Value: decPtr(10), FromAccountID: a, ToAccountID: b}
			},
			changes: func(a, b, _ string) models.EntryChanges {
				return models.EntryChanges{FromAccountID: strPtr(b), ToAccountID: strPtr(a), Value: decPtr(4)}
			},
			want: func(a, b, c string) map[string]int64 { return map[string]int64{a: 4, b: -4, c: 0} },
		},
		{
			name: "transfer becomes expense",
			initial: func(a, b, _ string) models.NewEntry {
				return models.NewEntry{Kind: models.KindTransfer, Value: decPtr(10), FromAccountID: a, ToAccountID: b}
			},
			changes: func(_, _, c string) models.EntryChanges {
				return models.EntryChanges{Kind: kindPtr(models.KindExpense), AccountID: strPtr(c)}
			},
			want: func(a, b, c string) map[string]int64 { return map[string]int64{a: 0, b: 0, c: -10} },
			check: func(t *testing.T, e models.Entry, _, _, c string) {
				assert.Equal(t, c, e.AccountID())
				assert.Empty(t, e.FromAccountID())
				assert.Empty(t, e.ToAccountID())
			},
		},
		{
			name: "income becomes transfer",
			initial: func(a, _, _ string) models.NewEntry {
				return models.NewEntry{Kind: models.KindIncome, Value: decPtr(10), AccountID: a}
			},
			changes: func(_, b, c string) models.EntryChanges {
				return models.EntryChanges{Kind: kindPtr(models.KindTransfer), FromAccountID: strPtr(b), ToAccountID: strPtr(c)}
			},
			want: func(a, b, c string) map[string]int64 { return map[string]int64{a: 0, b: -10, c: 10} },
			check: func(t *testing.T, e models.Entry, _, b, c string) {
				assert.Empty(t, e.AccountID())
				assert.Equal(t, b, e.FromAccountID())
				assert.Equal(t, c, e.ToAccountID())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			a, b, c := f.account(t, "A", 0).ID, f.account(t, "B", 0).ID, f.account(t, "C", 0).ID

			e, err := f.ledger.CreateEntry(ctx, owner, tt.initial(a, b, c))
			require.NoError(t, err)
			updated, err := f.ledger.UpdateEntry(ctx, owner, e.ID, tt.changes(a, b, c))
			require.NoError(t, err)

			for id, want := range tt.want(a, b, c) {
				f.requireBalance(t, id, want)
			}
			if tt.check != nil {
				tt.check(t, updated, a, b, c)
			}
			f.requireConsistent(t)
		})
	}
}

func TestUpdateEntry_Rejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account(t, "A", 0)
	b := f.account(t, "B", 0)
	e, err := f.ledger.CreateEntry(ctx, owner, models.NewEntry{Kind: models.KindExpense, Value: decPtr(20), AccountID: a.ID})
	require.NoError(t, err)

	_, err = f.ledger.UpdateEntry(ctx, owner, "missing", models.EntryChanges{Value: decPtr(1)})
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.ledger.UpdateEntry(ctx, "user-2", e.ID, models.EntryChanges{Value: decPtr(1)})
	assert.ErrorIs(t, err, models.ErrNotFound)

	// turning into a transfer without accounts
	_, err = f.ledger.UpdateEntry(ctx, owner, e.ID, models.EntryChanges{Kind: kindPtr(models.KindTransfer)})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.ledger.UpdateEntry(ctx, owner, e.ID, models.EntryChanges{
		Kind: kindPtr(models.KindTransfer), FromAccountID: strPtr(b.ID), ToAccountID: strPtr(b.ID),
	})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.ledger.UpdateEntry(ctx, owner, e.ID, models.EntryChanges{AccountID: strPtr("missing"), Value: decPtr(99)})
	assert.ErrorIs(t, err, models.ErrNotFound)

	stored, err := f.ledger.GetEntry(ctx, owner, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e, stored)
	f.requireBalance(t, a.ID, -20)
	f.requireBalance(t, b.ID, 0)
}

func TestDeleteEntry_NotFound(t *testing.T) {
	f := newFixture(t)
	err := f.ledger.DeleteEntry(context.Background(), owner, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTransfer_StoreFailureRollsBack(t *testing.T) {
	mem := newFixture(t)
	a := mem.account(t, "A", 100)
	b := mem.account(t, "B", 100)
	second := max(a.ID, b.ID)

	faulty := &faultyStore{MemoryLedgerStore: mem.store}
	l := ledger.NewLedger(faulty)
	ctx := context.Background()

	e, err := l.CreateEntry(ctx, owner, models.NewEntry{Kind: models.KindTransfer, Value: decPtr(30), FromAccountID: a.ID, ToAccountID: b.ID})
	require.NoError(t, err)

	faulty.failAccount = second

	_, err = l.CreateEntry(ctx, owner, models.NewEntry{Kind: models.KindTransfer, Value: decPtr(5), FromAccountID: a.ID, ToAccountID: b.ID})
	require.ErrorIs(t, err, models.ErrTransaction)
	require.ErrorIs(t, err, errDisk)

	_, err = l.UpdateEntry(ctx, owner, e.ID, models.EntryChanges{Value: decPtr(60)})
	require.ErrorIs(t, err, models.ErrTransaction)

	err = l.DeleteEntry(ctx, owner, e.ID)
	require.ErrorIs(t, err, models.ErrTransaction)

	// only the first transfer ever landed
	mem.requireBalance(t, a.ID, 70)
	mem.requireBalance(t, b.ID, 130)
	page, err := l.ListEntries(ctx, owner, models.EntryQuery{})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	assert.True(t, page.Entries[0].Value.Equal(dec(30)))
	mem.requireConsistent(t)
}

func TestCreateEntry_ConcurrentIncomes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account(t, "A", 0)

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.CreateEntry(ctx, owner, models.NewEntry{Kind: models.KindIncome, Value: decPtr(7), AccountID: a.ID})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	f.requireBalance(t, a.ID, n*7)
	f.requireConsistent(t)
}

func TestConcurrentMixedOperations_KeepInvariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account(t, "A", 1000)
	b := f.account(t, "B", 1000)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := f.ledger.CreateEntry(ctx, owner, models.NewEntry{
				Kind: models.KindTransfer, Value: decPtr(int64(i + 1)), FromAccountID: a.ID, ToAccountID: b.ID,
			})
			if err != nil {
				t.Error(err)
				return
			}
			switch i % 3 {
			case 0:
				if err := f.ledger.DeleteEntry(ctx, owner, e.ID); err != nil {
					t.Error(err)
				}
			case 1:
				if _, err := f.ledger.UpdateEntry(ctx, owner, e.ID, models.EntryChanges{
					Kind: kindPtr(models.KindIncome), AccountID: strPtr(a.ID),
				}); err != nil {
					t.Error(err)
				}
			}
		}(i)
	}
	wg.Wait()

	f.requireConsistent(t)
	// transfers preserve the sum of both balances; only converted incomes add to it
	total := f.balance(t, a.ID).Add(f.balance(t, b.ID))
	var incomes int64
	for i := 0; i < 20; i++ {
		if i%3 == 1 {
			incomes += int64(i + 1)
		}
	}
	assert.True(t, total.Equal(dec(2000+incomes)), "total %s", total)
}

func TestCreateEntry_PublisherFailureKeepsCommit(t *testing.T) {
	f := newFixture(t)
	f.published.err = errDisk
	a := f.account(t, "A", 0)

	_, err := f.ledger.CreateEntry(context.Background(), owner, models.NewEntry{Kind: models.KindIncome, Value: decPtr(3), AccountID: a.ID})
	require.NoError(t, err)
	f.requireBalance(t, a.ID, 3)
}

func TestCreateEntry_DueDateKept(t *testing.T) {
	f := newFixture(t)
	a := f.account(t, "A", 0)
	due := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)

	e, err := f.ledger.CreateEntry(context.Background(), owner, models.NewEntry{
		Kind: models.KindExpense, Value: decPtr(1), AccountID: a.ID, DueDate: &due, Notes: "gifts", Category: "holiday",
	})
	require.NoError(t, err)
	assert.Equal(t, due, e.DueDate)
	assert.Equal(t, "gifts", e.Notes)
	assert.Equal(t, "holiday", e.Category)
}
