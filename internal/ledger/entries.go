package ledger

import (
	"context"

	interfaces "github.com/sheikh-saqib/personal-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models/events"
	"go.uber.org/zap"
)

// CreateEntry validates in, stores the entry and applies its deltas to the
// referenced accounts in one transaction.
func (l *Ledger) CreateEntry(ctx context.Context, ownerID string, in models.NewEntry) (models.Entry, error) {
	entry, err := in.Build(l.now())
	if err != nil {
		l.metrics.ObserveOperation(opCreateEntry, outcomeOf(err), 0)
		return models.Entry{}, err
	}
	entry.ID = l.newID()
	entry.OwnerID = ownerID

	deltas, err := Calculate(entry)
	if err != nil {
		return models.Entry{}, err
	}

	var adjusted int
	err = l.run(ctx, opCreateEntry, func(ctx context.Context, tx interfaces.LedgerTx) error {
		// referenced accounts must belong to the owner
		if err := requireAccounts(ctx, tx, ownerID, entry.Target.Accounts()); err != nil {
			return err
		}
		if err := tx.InsertEntry(ctx, entry); err != nil {
			return err
		}
		var err error
		adjusted, err = applyDeltas(ctx, tx, ownerID, deltas)
		return err
	})
	if err != nil {
		return models.Entry{}, err
	}

	l.metrics.AddBalanceAdjustments(opCreateEntry, adjusted)
	l.logger.Debug("entry created",
		zap.String("owner", ownerID),
		zap.String("entry", entry.ID),
		zap.String("kind", string(entry.Kind)),
		zap.Stringer("value", entry.Value),
	)
	l.publish(ctx, events.EntryCreated, ownerID, l.entryEvent(events.EntryCreated, entry, deltas))
	return entry, nil
}

// GetEntry returns one entry of the owner.
func (l *Ledger) GetEntry(ctx context.Context, ownerID, entryID string) (models.Entry, error) {
	return l.store.GetEntry(ctx, ownerID, entryID)
}

// UpdateEntry applies changes to an entry and reconciles balances in the same
// transaction: the old entry's deltas are undone and the new entry's deltas
// applied. Undo and apply are summed per account before writing, so an
// account touched by both sees a single increment. An empty change set
// leaves the entry and every balance untouched.
func (l *Ledger) UpdateEntry(ctx context.Context, ownerID, entryID string, changes models.EntryChanges) (models.Entry, error) {
	var (
		updated  models.Entry
		net      Deltas
		adjusted int
	)
	err := l.run(ctx, opUpdateEntry, func(ctx context.Context, tx interfaces.LedgerTx) error {
		old, err := tx.GetEntry(ctx, ownerID, entryID)
		if err != nil {
			return err
		}
		// nothing to change, nothing to write
		if changes.IsEmpty() {
			updated = old
			return nil
		}

		undo, err := Calculate(old)
		if err != nil {
			return err
		}
		next, err := changes.Apply(old, l.now())
		if err != nil {
			return err
		}
		apply, err := Calculate(next)
		if err != nil {
			return err
		}
		if err := requireAccounts(ctx, tx, ownerID, next.Target.Accounts()); err != nil {
			return err
		}

		// Undo and apply are summed per account, so a value change on the
		// same account is one increment of the difference and an unchanged
		// value writes no balance at all.
		net = undo.Inverse().Add(apply)
		if adjusted, err = applyDeltas(ctx, tx, ownerID, net); err != nil {
			return err
		}
		if err := tx.ReplaceEntry(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return models.Entry{}, err
	}
	if net == nil {
		return updated, nil
	}

	l.metrics.AddBalanceAdjustments(opUpdateEntry, adjusted)
	l.logger.Debug("entry updated",
		zap.String("owner", ownerID),
		zap.String("entry", updated.ID),
		zap.String("kind", string(updated.Kind)),
		zap.Int("adjusted_accounts", adjusted),
	)
	l.publish(ctx, events.EntryUpdated, ownerID, l.entryEvent(events.EntryUpdated, updated, net))
	return updated, nil
}

// DeleteEntry undoes the entry's deltas and removes it in one transaction.
func (l *Ledger) DeleteEntry(ctx context.Context, ownerID, entryID string) error {
	var (
		removed  models.Entry
		undo     Deltas
		adjusted int
	)
	err := l.run(ctx, opDeleteEntry, func(ctx context.Context, tx interfaces.LedgerTx) error {
		entry, err := tx.GetEntry(ctx, ownerID, entryID)
		if err != nil {
			return err
		}
		deltas, err := Calculate(entry)
		if err != nil {
			return err
		}
		// reverse exactly what the entry contributed
		undo = deltas.Inverse()
		if adjusted, err = applyDeltas(ctx, tx, ownerID, undo); err != nil {
			return err
		}
		if err := tx.DeleteEntry(ctx, ownerID, entryID); err != nil {
			return err
		}
		removed = entry
		return nil
	})
	if err != nil {
		return err
	}

	l.metrics.AddBalanceAdjustments(opDeleteEntry, adjusted)
	l.logger.Debug("entry deleted", zap.String("owner", ownerID), zap.String("entry", entryID))
	l.publish(ctx, events.EntryDeleted, ownerID, l.entryEvent(events.EntryDeleted, removed, undo))
	return nil
}

// ListEntries returns one page of the owner's entries.
func (l *Ledger) ListEntries(ctx context.Context, ownerID string, q models.EntryQuery) (models.EntryPage, error) {
	q = q.Normalize()
	entries, total, err := l.store.ListEntries(ctx, ownerID, q)
	if err != nil {
		return models.EntryPage{}, err
	}
	return models.NewEntryPage(entries, total, q), nil
}

func (l *Ledger) entryEvent(typ string, e models.Entry, d Deltas) events.EntryChanged {
	return events.EntryChanged{
		Type:       typ,
		OwnerID:    e.OwnerID,
		EntryID:    e.ID,
		Kind:       string(e.Kind),
		Value:      e.Value,
		Deltas:     d,
		OccurredAt: l.now(),
	}
}
