package ledger

import (
	"context"
	"errors"

	interfaces "github.com/sheikh-saqib/personal-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Drift is an account whose stored balance differs from the signed sum of
// its entries.
type Drift struct {
	AccountID string          `json:"accountId"`
	Name      string          `json:"name"`
	Stored    decimal.Decimal `json:"stored"`
	Expected  decimal.Decimal `json:"expected"`
}

// Difference is the increment that brings Stored to Expected.
func (d Drift) Difference() decimal.Decimal {
	return d.Expected.Sub(d.Stored)
}

// Verify recomputes every account balance of the owner from its opening
// balance and entries and returns the accounts that disagree. Each account is checked inside a
// transaction so balance and entries come from the same snapshot.
func (l *Ledger) Verify(ctx context.Context, ownerID string) ([]Drift, error) {
	return l.reconcile(ctx, ownerID, false)
}

// Repair is Verify followed by an increment of each drifted balance by its
// difference, in the same transaction as the check.
func (l *Ledger) Repair(ctx context.Context, ownerID string) ([]Drift, error) {
	return l.reconcile(ctx, ownerID, true)
}

func (l *Ledger) reconcile(ctx context.Context, ownerID string, fix bool) ([]Drift, error) {
	accounts, err := l.store.ListAccounts(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var drifts []Drift
	for _, a := range accounts {
		var drift *Drift
		err := l.run(ctx, opReconcile, func(ctx context.Context, tx interfaces.LedgerTx) error {
			drift = nil
			current, err := tx.GetAccount(ctx, ownerID, a.ID)
			if err != nil {
				return err
			}
			entries, err := tx.EntriesReferencing(ctx, ownerID, a.ID)
			if err != nil {
				return err
			}
			expected, err := expectedBalance(current, entries)
			if err != nil {
				return err
			}
			if expected.Equal(current.Balance) {
				return nil
			}
			drift = &Drift{AccountID: a.ID, Name: current.Name, Stored: current.Balance, Expected: expected}
			if !fix {
				return nil
			}
			return tx.IncrementBalance(ctx, ownerID, a.ID, drift.Difference())
		})
		if errors.Is(err, models.ErrNotFound) {
			// deleted since the listing
			continue
		}
		if err != nil {
			return drifts, err
		}
		if drift != nil {
			l.logger.Warn("balance drift",
				zap.String("owner", ownerID),
				zap.String("account", drift.AccountID),
				zap.Stringer("stored", drift.Stored),
				zap.Stringer("expected", drift.Expected),
				zap.Bool("repaired", fix),
			)
			drifts = append(drifts, *drift)
		}
	}
	return drifts, nil
}

// expectedBalance is the opening balance plus the signed contribution of
// every entry referencing the account.
func expectedBalance(a models.Account, entries []models.Entry) (decimal.Decimal, error) {
	sum := a.OpeningBalance
	for _, e := range entries {
		d, err := Calculate(e)
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(d[a.ID])
	}
	return sum, nil
}
