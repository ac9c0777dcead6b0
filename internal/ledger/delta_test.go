package ledger

import (
	"testing"

	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestCalculate(t *testing.T) {
	tests := []struct {
		name  string
		entry models.Entry
		want  map[string]int64
	}{
		{
			name:  "income credits the account",
			entry: models.Entry{Kind: models.KindIncome, Value: d(40), Target: models.SingleAccount{AccountID: "a"}},
			want:  map[string]int64{"a": 40},
		},
		{
			name:  "expense debits the account",
			entry: models.Entry{Kind: models.KindExpense, Value: d(15), Target: models.SingleAccount{AccountID: "a"}},
			want:  map[string]int64{"a": -15},
		},
		{
			name:  "transfer moves value between accounts",
			entry: models.Entry{Kind: models.KindTransfer, Value: d(25), Target: models.Transfer{FromAccountID: "a", ToAccountID: "b"}},
			want:  map[string]int64{"a": -25, "b": 25},
		},
		{
			name:  "zero value keeps the account keys",
			entry: models.Entry{Kind: models.KindExpense, Value: decimal.Zero, Target: models.SingleAccount{AccountID: "a"}},
			want:  map[string]int64{"a": 0},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Calculate(tt.entry)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for id, v := range tt.want {
				assert.True(t, got[id].Equal(d(v)), "account %s: got %s want %d", id, got[id], v)
			}
		})
	}
}

func TestCalculate_InvalidKind(t *testing.T) {
	tests := []models.Entry{
		{Kind: "loan", Value: d(1), Target: models.SingleAccount{AccountID: "a"}},
		{Kind: models.KindTransfer, Value: d(1), Target: models.SingleAccount{AccountID: "a"}},
		{Kind: models.KindIncome, Value: d(1), Target: models.Transfer{FromAccountID: "a", ToAccountID: "b"}},
		{Kind: models.KindIncome, Value: d(1)},
	}
	for _, e := range tests {
		_, err := Calculate(e)
		assert.ErrorIs(t, err, models.ErrInvalidEntryKind)
	}
}

func TestDeltas_Algebra(t *testing.T) {
	undo := Deltas{"a": d(50)}
	apply := Deltas{"a": d(-50), "b": d(30)}

	net := undo.Add(apply)
	assert.True(t, net["a"].IsZero())
	assert.True(t, net["b"].Equal(d(30)))
	assert.Equal(t, []string{"b"}, net.NonZero())

	inv := apply.Inverse()
	assert.True(t, inv["a"].Equal(d(50)))
	assert.True(t, inv["b"].Equal(d(-30)))
	assert.Empty(t, apply.Add(inv).NonZero())

	assert.Equal(t, []string{"b"}, apply.Without("a").NonZero())
	assert.Equal(t, []string{"a", "c"}, Deltas{"c": d(1), "a": d(-1)}.NonZero())
}
