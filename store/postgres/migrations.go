package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the promptledger store.
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
    lamports   BIGINT NOT NULL DEFAULT 0,
    data       BYTEA,
    data_size  INT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    prompt_hash   CHAR(64) NOT NULL,
    response_hash CHAR(64) NOT NULL,
    fee           BIGINT NOT NULL DEFAULT 0,
    slot          BIGINT NOT NULL DEFAULT 0,
    total_queries BIGINT NOT NULL DEFAULT 0,
    signature     TEXT NOT NULL DEFAULT '',
    timestamp     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_promptledger_interactions_authority ON promptledger_interactions (authority, timestamp DESC);
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
