package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the promptledger store (SQLite).
var Migrations = migrate.NewGroup("promptledger")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_promptledger_accounts",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS promptledger_accounts (
    address    TEXT PRIMARY KEY,
    owner      TEXT NOT NULL DEFAULT '11111111111111111111111111111111',
    lamports   INTEGER NOT NULL DEFAULT 0,
    data       BLOB,
    data_size  INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_promptledger_accounts_owner ON promptledger_accounts (owner, data_size, address);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS promptledger_accounts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_promptledger_interactions",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS promptledger_interactions (
    id            TEXT PRIMARY KEY,
    authority     TEXT NOT NULL,
    record        TEXT NOT NULL,
    prompt_hash   TEXT NOT NULL,
    response_hash TEXT NOT NULL,
    fee           INTEGER NOT NULL DEFAULT 0,
    slot          INTEGER NOT NULL DEFAULT 0,
    total_queries INTEGER NOT NULL DEFAULT 0,
    signature     TEXT NOT NULL DEFAULT '',
    timestamp     TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_promptledger_interactions_authority ON promptledger_interactions (authority, timestamp);
CREATE INDEX IF NOT EXISTS idx_promptledger_interactions_timestamp ON promptledger_interactions (timestamp);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS promptledger_interactions`)
				return err
			},
		},
	)
}
