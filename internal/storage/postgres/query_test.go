package postgres

import (
	"testing"

	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEntryFilter(t *testing.T) {
	where, args := buildEntryFilter("owner-1", models.EntryQuery{})
	assert.Equal(t, "WHERE owner_id = $1", where)
	assert.Equal(t, []any{"owner-1"}, args)

	where, args = buildEntryFilter("owner-1", models.EntryQuery{Category: "food", AccountID: "acc-1"})
	assert.Equal(t,
		"WHERE owner_id = $1 AND category = $2 AND (account_id = $3 OR from_account_id = $3 OR to_account_id = $3)",
		where)
	assert.Equal(t, []any{"owner-1", "food", "acc-1"}, args)
}

func TestBuildEntryListQuery(t *testing.T) {
	q := models.EntryQuery{AccountID: "acc-1", Sort: models.SortDueAsc, Page: 3, Limit: 20}

	list, listArgs, count, countArgs := buildEntryListQuery("owner-1", q)

	require.Len(t, countArgs, 2)
	assert.Equal(t, []any{"owner-1", "acc-1", 20, 40}, listArgs)
	assert.Contains(t, count, "SELECT COUNT(*) FROM entries WHERE owner_id = $1")
	assert.Contains(t, list, "ORDER BY due_date ASC, id ASC LIMIT $3 OFFSET $4")
}

func TestOrderBy(t *testing.T) {
	assert.Equal(t, "ORDER BY created_at DESC, id ASC", orderBy(models.SortCreatedDesc))
	assert.Equal(t, "ORDER BY due_date DESC, id ASC", orderBy(models.SortDueDesc))
	assert.Equal(t, "ORDER BY created_at DESC, id ASC", orderBy("bogus"))
}

func TestNullable(t *testing.T) {
	assert.False(t, nullable("").Valid)
	assert.Equal(t, "acc-1", nullable("acc-1").String)
}
