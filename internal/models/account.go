package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Account is a balance holder owned by one caller.
type Account struct {
	ID      string          `json:"id"`
	OwnerID string          `json:"owner"`
	Name    string          `json:"name"`
	Color   string          `json:"color"`
	Balance decimal.Decimal `json:"balance"`
	// OpeningBalance is the balance the account was created with; entries
	// move Balance away from it.
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// NewAccount is the input for creating an account.
type NewAccount struct {
	Name    string           `json:"name" validate:"required"`
	Color   string           `json:"color"`
	Balance *decimal.Decimal `json:"balance"`
}

// Validate rejects an empty name and an opening balance the stores cannot
// hold exactly.
func (n NewAccount) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return NewValidationError("name", "name is required")
	}
	if n.Balance != nil {
		return checkAmount("balance", *n.Balance)
	}
	return nil
}

// AccountChanges holds the editable account fields. The balance is not
// editable; it moves only through entries.
type AccountChanges struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

// Apply returns a copy of a with the changes applied.
func (c AccountChanges) Apply(a Account) (Account, error) {
	if c.Name != nil {
		if strings.TrimSpace(*c.Name) == "" {
			return a, NewValidationError("name", "name cannot be empty")
		}
		a.Name = *c.Name
	}
	if c.Color != nil {
		a.Color = *c.Color
	}
	return a, nil
}
