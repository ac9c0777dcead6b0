package postgres

import (
	"fmt"
	"strings"

	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
)

const entryColumns = `id, owner_id, kind, value, account_id, from_account_id, to_account_id,
	due_date, notes, category, created_at, updated_at`

// buildEntryFilter returns the WHERE clause and its arguments for an entry
// listing of ownerID.
func buildEntryFilter(ownerID string, q models.EntryQuery) (string, []any) {
	conds := []string{"owner_id = $1"}
	args := []any{ownerID}

	if q.Category != "" {
		args = append(args, q.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if q.AccountID != "" {
		args = append(args, q.AccountID)
		n := len(args)
		conds = append(conds, fmt.Sprintf("(account_id = $%d OR from_account_id = $%d OR to_account_id = $%d)", n, n, n))
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func orderBy(key models.SortKey) string {
	switch key {
	case models.SortDueAsc:
		return "ORDER BY due_date ASC, id ASC"
	case models.SortDueDesc:
		return "ORDER BY due_date DESC, id ASC"
	default:
		return "ORDER BY created_at DESC, id ASC"
	}
}

// buildEntryListQuery returns the page query and the count query sharing one
// argument list prefix.
func buildEntryListQuery(ownerID string, q models.EntryQuery) (list string, listArgs []any, count string, countArgs []any) {
	where, args := buildEntryFilter(ownerID, q)
	count = "SELECT COUNT(*) FROM entries " + where

	listArgs = append(append([]any{}, args...), q.Limit, q.Offset())
	list = fmt.Sprintf("SELECT %s FROM entries %s %s LIMIT $%d OFFSET $%d",
		entryColumns, where, orderBy(q.Sort), len(args)+1, len(args)+2)
	return list, listArgs, count, args
}
