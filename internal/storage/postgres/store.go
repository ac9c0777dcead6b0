package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	interfaces "github.com/sheikh-saqib/personal-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/models"
	"github.com/shopspring/decimal"

	_ "github.com/lib/pq"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type PostgresLedgerStore struct {
	db *sql.DB
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		db: db,
	}
}

// Open connects to dsn, checks the connection and migrates the schema.
func Open(ctx context.Context, dsn string) (*PostgresLedgerStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := NewPostgresLedgerStore(db)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return store, nil
}

func (p *PostgresLedgerStore) Close() error {
	return p.db.Close()
}

// WithinTx runs fn in a READ COMMITTED transaction. Balances are only ever
// changed with relative increments and rows read for modification are
// locked with FOR UPDATE, so concurrent writers serialize on the rows they
// share instead of losing updates.
func (p *PostgresLedgerStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx interfaces.LedgerTx) error) (err error) {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	if err = fn(ctx, &postgresTx{q: dbTx}); err != nil {
		return err
	}
	if err = dbTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (p *PostgresLedgerStore) GetAccount(ctx context.Context, ownerID, accountID string) (models.Account, error) {
	return getAccount(ctx, p.db, ownerID, accountID, false)
}

func (p *PostgresLedgerStore) ListAccounts(ctx context.Context, ownerID string) ([]models.Account, error) {
	const query = `SELECT id, owner_id, name, color, balance, opening_balance, created_at, updated_at
	FROM accounts WHERE owner_id = $1 ORDER BY created_at DESC, id ASC`

	rows, err := p.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]models.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (p *PostgresLedgerStore) GetEntry(ctx context.Context, ownerID, entryID string) (models.Entry, error) {
	return getEntry(ctx, p.db, ownerID, entryID, false)
}

func (p *PostgresLedgerStore) ListEntries(ctx context.Context, ownerID string, q models.EntryQuery) ([]models.Entry, int64, error) {
	list, listArgs, count, countArgs := buildEntryListQuery(ownerID, q)

	var total int64
	if err := p.db.QueryRowContext(ctx, count, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count entries: %w", err)
	}

	entries, err := queryEntries(ctx, p.db, list, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

type postgresTx struct {
	q querier
}

func (t *postgresTx) GetAccount(ctx context.Context, ownerID, accountID string) (models.Account, error) {
	return getAccount(ctx, t.q, ownerID, accountID, true)
}

func (t *postgresTx) InsertAccount(ctx context.Context, a models.Account) error {
	const query = `INSERT INTO accounts (id, owner_id, name, color, balance, opening_balance, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := t.q.ExecContext(ctx, query, a.ID, a.OwnerID, a.Name, a.Color, a.Balance, a.OpeningBalance, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (t *postgresTx) UpdateAccount(ctx context.Context, a models.Account) error {
	const query = `UPDATE accounts SET name = $1, color = $2, updated_at = $3 WHERE id = $4 AND owner_id = $5`

	res, err := t.q.ExecContext(ctx, query, a.Name, a.Color, a.UpdatedAt, a.ID, a.OwnerID)
	return expectRow(res, err, "account", a.ID)
}

func (t *postgresTx) DeleteAccount(ctx context.Context, ownerID, accountID string) error {
	const query = `DELETE FROM accounts WHERE id = $1 AND owner_id = $2`

	res, err := t.q.ExecContext(ctx, query, accountID, ownerID)
	return expectRow(res, err, "account", accountID)
}

func (t *postgresTx) IncrementBalance(ctx context.Context, ownerID, accountID string, delta decimal.Decimal) error {
	const query = `UPDATE accounts SET balance = balance + $1 WHERE id = $2 AND owner_id = $3`

	res, err := t.q.ExecContext(ctx, query, delta, accountID, ownerID)
	return expectRow(res, err, "account", accountID)
}

func (t *postgresTx) GetEntry(ctx context.Context, ownerID, entryID string) (models.Entry, error) {
	return getEntry(ctx, t.q, ownerID, entryID, true)
}

func (t *postgresTx) InsertEntry(ctx context.Context, e models.Entry) error {
	query := `INSERT INTO entries (` + entryColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := t.q.ExecContext(ctx, query,
		e.ID, e.OwnerID, string(e.Kind), e.Value,
		nullable(e.AccountID()), nullable(e.FromAccountID()), nullable(e.ToAccountID()),
		e.DueDate, e.Notes, e.Category, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

func (t *postgresTx) ReplaceEntry(ctx context.Context, e models.Entry) error {
	const query = `UPDATE entries SET kind = $1, value = $2, account_id = $3, from_account_id = $4,
	to_account_id = $5, due_date = $6, notes = $7, category = $8, updated_at = $9
	WHERE id = $10 AND owner_id = $11`

	res, err := t.q.ExecContext(ctx, query,
		string(e.Kind), e.Value,
		nullable(e.AccountID()), nullable(e.FromAccountID()), nullable(e.ToAccountID()),
		e.DueDate, e.Notes, e.Category, e.UpdatedAt, e.ID, e.OwnerID,
	)
	return expectRow(res, err, "entry", e.ID)
}

func (t *postgresTx) DeleteEntry(ctx context.Context, ownerID, entryID string) error {
	const query = `DELETE FROM entries WHERE id = $1 AND owner_id = $2`

	res, err := t.q.ExecContext(ctx, query, entryID, ownerID)
	return expectRow(res, err, "entry", entryID)
}

func (t *postgresTx) EntriesReferencing(ctx context.Context, ownerID, accountID string) ([]models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries
	WHERE owner_id = $1 AND (account_id = $2 OR from_account_id = $2 OR to_account_id = $2)
	ORDER BY created_at DESC, id ASC FOR UPDATE`

	return queryEntries(ctx, t.q, query, ownerID, accountID)
}

func (t *postgresTx) DeleteEntriesReferencing(ctx context.Context, ownerID, accountID string) (int64, error) {
	const query = `DELETE FROM entries
	WHERE owner_id = $1 AND (account_id = $2 OR from_account_id = $2 OR to_account_id = $2)`

	res, err := t.q.ExecContext(ctx, query, ownerID, accountID)
	if err != nil {
		return 0, fmt.Errorf("delete entries: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func getAccount(ctx context.Context, q querier, ownerID, accountID string, forUpdate bool) (models.Account, error) {
	query := `SELECT id, owner_id, name, color, balance, opening_balance, created_at, updated_at
	FROM accounts WHERE id = $1 AND owner_id = $2`
	if forUpdate {
		query += " FOR UPDATE"
	}

	a, err := scanAccount(q.QueryRowContext(ctx, query, accountID, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, models.NotFoundError("account", accountID)
	}
	return a, err
}

func scanAccount(row scanner) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &a.Color, &a.Balance, &a.OpeningBalance, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func getEntry(ctx context.Context, q querier, ownerID, entryID string, forUpdate bool) (models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1 AND owner_id = $2`
	if forUpdate {
		query += " FOR UPDATE"
	}

	e, err := scanEntry(q.QueryRowContext(ctx, query, entryID, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entry{}, models.NotFoundError("entry", entryID)
	}
	return e, err
}

func queryEntries(ctx context.Context, q querier, query string, args ...any) ([]models.Entry, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func scanEntry(row scanner) (models.Entry, error) {
	var (
		e                 models.Entry
		kind              string
		account, from, to sql.NullString
	)
	err := row.Scan(&e.ID, &e.OwnerID, &kind, &e.Value, &account, &from, &to,
		&e.DueDate, &e.Notes, &e.Category, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return models.Entry{}, err
	}

	e.Kind = models.EntryKind(kind)
	e.Target, err = models.NewTarget(e.Kind, account.String, from.String, to.String)
	if err != nil {
		return models.Entry{}, fmt.Errorf("entry %s has inconsistent references: %v", e.ID, err)
	}
	return e, nil
}

func expectRow(res sql.Result, err error, entity, id string) error {
	if err != nil {
		return fmt.Errorf("write %s: %w", entity, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.NotFoundError(entity, id)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
var _ interfaces.LedgerTx = (*postgresTx)(nil)
