package ledger

import (
	"fmt"
	"sort"

	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// Deltas maps account ids to signed balance adjustments.
type Deltas map[string]decimal.Decimal

// Calculate returns the balance effect of e:
//
//	income    account      +value
//	expense   account      -value
//	transfer  fromAccount  -value
//	transfer  toAccount    +value
//
// It fails only with models.ErrInvalidEntryKind, when the kind is unknown or
// does not match the entry's target.
func Calculate(e models.Entry) (Deltas, error) {
	switch t := e.Target.(type) {
	case models.SingleAccount:
		switch e.Kind {
		case models.KindIncome:
			return Deltas{t.AccountID: e.Value}, nil
		case models.KindExpense:
			return Deltas{t.AccountID: e.Value.Neg()}, nil
		}
	case models.Transfer:
		if e.Kind == models.KindTransfer {
			return Deltas{
				t.FromAccountID: e.Value.Neg(),
				t.ToAccountID:   e.Value,
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q with target %T on entry %s", models.ErrInvalidEntryKind, e.Kind, e.Target, e.ID)
}

// Inverse returns the adjustments that undo d.
func (d Deltas) Inverse() Deltas {
	out := make(Deltas, len(d))
	for id, v := range d {
		out[id] = v.Neg()
	}
	return out
}

// Add returns the per-account sum of d and o.
func (d Deltas) Add(o Deltas) Deltas {
	out := make(Deltas, len(d)+len(o))
	for id, v := range d {
		out[id] = v
	}
	for id, v := range o {
		if cur, ok := out[id]; ok {
			out[id] = cur.Add(v)
		} else {
			out[id] = v
		}
	}
	return out
}

// Without returns d minus the given account.
func (d Deltas) Without(accountID string) Deltas {
	out := make(Deltas, len(d))
	for id, v := range d {
		if id != accountID {
			out[id] = v
		}
	}
	return out
}

// NonZero returns the accounts with a non-zero adjustment in ascending id
// order. Increments are applied in this order so that concurrent
// transactions lock account rows consistently.
func (d Deltas) NonZero() []string {
	ids := make([]string, 0, len(d))
	for id, v := range d {
		if !v.IsZero() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
