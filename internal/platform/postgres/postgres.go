// Package postgres opens the database handle and applies the schema.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects with sane pool defaults and verifies connectivity.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Schema is the full DDL. Persisted layouts match the wire spec:
// mint registry {authority 32B, config 64B}, balance account
// {owner_commitment 32B, encrypted_balance 64B, nonce u64, bump 1B}.
const Schema = `
CREATE TABLE IF NOT EXISTS mint_registry (
	address    BYTEA PRIMARY KEY,
	authority  BYTEA NOT NULL CHECK (octet_length(authority) = 32),
	config     BYTEA NOT NULL CHECK (octet_length(config) = 64),
	bump       SMALLINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS balance_accounts (
	address           BYTEA PRIMARY KEY,
	owner_commitment  BYTEA NOT NULL CHECK (octet_length(owner_commitment) = 32),
	encrypted_balance BYTEA NOT NULL CHECK (octet_length(encrypted_balance) = 64),
	nonce             BIGINT NOT NULL DEFAULT 0 CHECK (nonce >= 0),
	bump              SMALLINT NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS veilpay_events (
	seq              BIGSERIAL PRIMARY KEY,
	id               UUID NOT NULL UNIQUE,
	kind             TEXT NOT NULL,
	owner_commitment BYTEA NOT NULL,
	commitment_hash  BYTEA NOT NULL,
	routing_tag      BYTEA NOT NULL,
	event_type       SMALLINT NOT NULL DEFAULT 0,
	sender_bump      SMALLINT NOT NULL DEFAULT 0,
	committed_at     TIMESTAMPTZ NOT NULL,
	published_at     TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_veilpay_events_unpublished
	ON veilpay_events (seq) WHERE published_at IS NULL;
`

// EnsureSchema applies the DDL; safe to run on every start.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
