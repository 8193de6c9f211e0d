package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const schemaLockID int64 = 2026101401

func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates every table. The advisory lock serialises concurrent
// api and worker startups.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS kyc_documents (
	id TEXT PRIMARY KEY,
	customer_id TEXT NOT NULL DEFAULT '',
	filename TEXT NOT NULL,
	format TEXT NOT NULL,
	mime_type TEXT NOT NULL DEFAULT '',
	byte_length BIGINT NOT NULL,
	raw_text TEXT NOT NULL,
	storage_key TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_kyc_documents_customer ON kyc_documents(customer_id, created_at);

CREATE TABLE IF NOT EXISTS kyc_validations (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	customer_id TEXT NOT NULL DEFAULT '',
	filename TEXT NOT NULL DEFAULT '',
	document_type TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	score INTEGER NOT NULL CHECK (score BETWEEN 0 AND 100),
	is_valid BOOLEAN NOT NULL,
	issues JSONB NOT NULL DEFAULT '[]'::jsonb,
	recommendations JSONB NOT NULL DEFAULT '[]'::jsonb,
	details JSONB NOT NULL DEFAULT '{}'::jsonb,
	enrichment JSONB,
	validated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_kyc_validations_customer ON kyc_validations(customer_id, validated_at);

CREATE TABLE IF NOT EXISTS kyc_summaries (
	customer_id TEXT PRIMARY KEY,
	score DOUBLE PRECISION NOT NULL,
	status TEXT NOT NULL,
	body JSONB NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Store serves documents, validations and summaries from one database.
type Store struct {
	*DocumentRepository
	*ValidationRepository
	*SummaryRepository
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		DocumentRepository:   NewDocumentRepository(db),
		ValidationRepository: NewValidationRepository(db),
		SummaryRepository:    NewSummaryRepository(db),
		db:                   db,
	}
}

func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
