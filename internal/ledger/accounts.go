package ledger

import (
	"context"

	interfaces "github.com/sheikh-saqib/personal-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models/events"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccountDeletion reports what a cascade delete removed.
type AccountDeletion struct {
	AccountID      string `json:"accountId"`
	EntriesRemoved int64  `json:"entriesRemoved"`
	// Counterparts holds the adjustments applied to the surviving side of
	// transfers that were removed with the account.
	Counterparts Deltas `json:"counterparts"`
}

// CreateAccount stores a new account with its opening balance.
func (l *Ledger) CreateAccount(ctx context.Context, ownerID string, in models.NewAccount) (models.Account, error) {
	if err := in.Validate(); err != nil {
		l.metrics.ObserveOperation(opCreateAccount, outcomeOf(err), 0)
		return models.Account{}, err
	}

	now := l.now()
	account := models.Account{
		ID:        l.newID(),
		OwnerID:   ownerID,
		Name:      in.Name,
		Color:     in.Color,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Balance != nil {
		account.Balance = *in.Balance
	}
	account.OpeningBalance = account.Balance

	err := l.run(ctx, opCreateAccount, func(ctx context.Context, tx interfaces.LedgerTx) error {
		return tx.InsertAccount(ctx, account)
	})
	if err != nil {
		return models.Account{}, err
	}
	l.logger.Debug("account created", zap.String("owner", ownerID), zap.String("account", account.ID))
	return account, nil
}

func (l *Ledger) GetAccount(ctx context.Context, ownerID, accountID string) (models.Account, error) {
	return l.store.GetAccount(ctx, ownerID, accountID)
}

// ListAccounts returns the owner's accounts, newest first.
func (l *Ledger) ListAccounts(ctx context.Context, ownerID string) ([]models.Account, error) {
	return l.store.ListAccounts(ctx, ownerID)
}

// UpdateAccount edits name and color. Balances are never edited directly.
func (l *Ledger) UpdateAccount(ctx context.Context, ownerID, accountID string, changes models.AccountChanges) (models.Account, error) {
	var updated models.Account
	err := l.run(ctx, opUpdateAccount, func(ctx context.Context, tx interfaces.LedgerTx) error {
		current, err := tx.GetAccount(ctx, ownerID, accountID)
		if err != nil {
			return err
		}
		next, err := changes.Apply(current)
		if err != nil {
			return err
		}
		next.UpdatedAt = l.now()
		if err := tx.UpdateAccount(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return models.Account{}, err
	}
	return updated, nil
}

// DeleteAccount removes the account and every entry that references it as
// account, fromAccount or toAccount, all in one transaction. Transfers
// removed this way are also undone on their other account so that the
// surviving balances still match their remaining entries.
func (l *Ledger) DeleteAccount(ctx context.Context, ownerID, accountID string) (AccountDeletion, error) {
	var (
		result   AccountDeletion
		adjusted int
	)
	err := l.run(ctx, opDeleteAccount, func(ctx context.Context, tx interfaces.LedgerTx) error {
		// lock the account first so no entry can start referencing it
		if _, err := tx.GetAccount(ctx, ownerID, accountID); err != nil {
			return err
		}

		refs, err := tx.EntriesReferencing(ctx, ownerID, accountID)
		if err != nil {
			return err
		}
		// Undo every removed entry on the accounts that survive it. For an
		// income or expense this is empty; for a transfer it is the other side.
		counterparts := Deltas{}
		for _, e := range refs {
			d, err := Calculate(e)
			if err != nil {
				return err
			}
			counterparts = counterparts.Add(d.Inverse().Without(accountID))
		}
		if adjusted, err = applyDeltas(ctx, tx, ownerID, counterparts); err != nil {
			return err
		}

		// entries go before the account they reference
		removed, err := tx.DeleteEntriesReferencing(ctx, ownerID, accountID)
		if err != nil {
			return err
		}
		if err := tx.DeleteAccount(ctx, ownerID, accountID); err != nil {
			return err
		}
		result = AccountDeletion{AccountID: accountID, EntriesRemoved: removed, Counterparts: counterparts}
		return nil
	})
	if err != nil {
		return AccountDeletion{}, err
	}

	l.metrics.AddBalanceAdjustments(opDeleteAccount, adjusted)
	l.logger.Debug("account deleted",
		zap.String("owner", ownerID),
		zap.String("account", accountID),
		zap.Int64("entries_removed", result.EntriesRemoved),
		zap.Int("counterparts_adjusted", adjusted),
	)
	l.publish(ctx, events.AccountDeleted, ownerID, events.AccountRemoved{
		Type:           events.AccountDeleted,
		OwnerID:        ownerID,
		AccountID:      accountID,
		EntriesRemoved: int(result.EntriesRemoved),
		Deltas:         result.Counterparts,
		OccurredAt:     l.now(),
	})
	return result, nil
}
