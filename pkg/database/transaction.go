package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
)

var schemaNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// NewTxnWithSchema begins a transaction with the search path set to schema.
func NewTxnWithSchema(ctx context.Context, db *sql.DB, schema string) (*sql.Tx, error) {
	if !schemaNamePattern.MatchString(schema) {
		return nil, fmt.Errorf("invalid schema name: %q", schema)
	}

	txn, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}

	_, err = txn.ExecContext(ctx, fmt.Sprintf("SET LOCAL search_path TO %s;", schema))
	if err != nil {
		_ = txn.Rollback()
		return nil, fmt.Errorf("could not set schema on txn: %w", err)
	}

	return txn, nil
}

// InSchema runs fn in a schema scoped transaction, committing when fn succeeds
// and rolling back otherwise.
func InSchema(ctx context.Context, db *sql.DB, schema string, fn func(*sql.Tx) error) error {
	txn, err := NewTxnWithSchema(ctx, db, schema)
	if err != nil {
		return err
	}

	if err := fn(txn); err != nil {
		_ = txn.Rollback()
		return err
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}
