package postgres

import "context"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		color TEXT NOT NULL DEFAULT '',
		balance NUMERIC(20,4) NOT NULL DEFAULT 0,
		opening_balance NUMERIC(20,4) NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL,
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_accounts_owner_created ON accounts(owner_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		kind TEXT NOT NULL CHECK (kind IN ('income', 'expense', 'transfer')),
		value NUMERIC(20,4) NOT NULL CHECK (value >= 0),
		account_id TEXT REFERENCES accounts(id),
		from_account_id TEXT REFERENCES accounts(id),
		to_account_id TEXT REFERENCES accounts(id),
		due_date TIMESTAMP WITH TIME ZONE NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT 'other',
		created_at TIMESTAMP WITH TIME ZONE NOT NULL,
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
		CHECK (
			(kind = 'transfer' AND account_id IS NULL AND from_account_id IS NOT NULL
				AND to_account_id IS NOT NULL AND from_account_id <> to_account_id)
			OR
			(kind <> 'transfer' AND account_id IS NOT NULL AND from_account_id IS NULL AND to_account_id IS NULL)
		)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_owner_created ON entries(owner_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_account ON entries(account_id)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_from_account ON entries(from_account_id)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_to_account ON entries(to_account_id)`,
}

// Migrate creates the tables and indexes if they do not exist.
func (p *PostgresLedgerStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
