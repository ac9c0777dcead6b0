package mongo

import (
	"fmt"
	"time"

	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type accountDoc struct {
	ID             string               `bson:"_id"`
	OwnerID        string               `bson:"ownerId"`
	Name           string               `bson:"name"`
	Color          string               `bson:"color"`
	Balance        primitive.Decimal128 `bson:"balance"`
	OpeningBalance primitive.Decimal128 `bson:"openingBalance"`
	CreatedAt      time.Time            `bson:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt"`
}

type entryDoc struct {
	ID          string               `bson:"_id"`
	OwnerID     string               `bson:"ownerId"`
	Kind        string               `bson:"entryType"`
	Value       primitive.Decimal128 `bson:"value"`
	Account     string               `bson:"account,omitempty"`
	FromAccount string               `bson:"fromAccount,omitempty"`
	ToAccount   string               `bson:"toAccount,omitempty"`
	DueDate     time.Time            `bson:"dueDate"`
	Notes       string               `bson:"notes"`
	Category    string               `bson:"category"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode decimal %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode decimal %s: %w", v, err)
	}
	return d, nil
}

func newAccountDoc(a models.Account) (accountDoc, error) {
	balance, err := toDecimal128(a.Balance)
	if err != nil {
		return accountDoc{}, err
	}
	opening, err := toDecimal128(a.OpeningBalance)
	if err != nil {
		return accountDoc{}, err
	}
	return accountDoc{
		ID:             a.ID,
		OwnerID:        a.OwnerID,
		Name:           a.Name,
		Color:          a.Color,
		Balance:        balance,
		OpeningBalance: opening,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}, nil
}

func (d accountDoc) model() (models.Account, error) {
	balance, err := fromDecimal128(d.Balance)
	if err != nil {
		return models.Account{}, err
	}
	opening, err := fromDecimal128(d.OpeningBalance)
	if err != nil {
		return models.Account{}, err
	}
	return models.Account{
		ID:             d.ID,
		OwnerID:        d.OwnerID,
		Name:           d.Name,
		Color:          d.Color,
		Balance:        balance,
		OpeningBalance: opening,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}, nil
}

func newEntryDoc(e models.Entry) (entryDoc, error) {
	value, err := toDecimal128(e.Value)
	if err != nil {
		return entryDoc{}, err
	}
	return entryDoc{
		ID:          e.ID,
		OwnerID:     e.OwnerID,
		Kind:        string(e.Kind),
		Value:       value,
		Account:     e.AccountID(),
		FromAccount: e.FromAccountID(),
		ToAccount:   e.ToAccountID(),
		DueDate:     e.DueDate,
		Notes:       e.Notes,
		Category:    e.Category,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}, nil
}

func (d entryDoc) model() (models.Entry, error) {
	value, err := fromDecimal128(d.Value)
	if err != nil {
		return models.Entry{}, err
	}
	kind := models.EntryKind(d.Kind)
	target, err := models.NewTarget(kind, d.Account, d.FromAccount, d.ToAccount)
	if err != nil {
		return models.Entry{}, fmt.Errorf("entry %s has inconsistent references: %v", d.ID, err)
	}
	return models.Entry{
		ID:        d.ID,
		OwnerID:   d.OwnerID,
		Kind:      kind,
		Value:     value,
		Target:    target,
		DueDate:   d.DueDate.UTC(),
		Notes:     d.Notes,
		Category:  d.Category,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}, nil
}
