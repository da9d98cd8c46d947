package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"

	"github.com/charlieegan3/exiflab/pkg/database"
	"github.com/charlieegan3/exiflab/pkg/session"
)

var ErrSessionNotFound = errors.New("session not found")

const sessionsTable = "sessions"

// Session is a stored edit session. Image bytes live in object storage.
type Session struct {
	ID           string
	Filename     string
	SourceFormat string
	Snapshot     session.Snapshot
	OutputKey    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type sessionRow struct {
	ID           string    `db:"id"`
	State        string    `db:"state"`
	Filename     string    `db:"filename"`
	SourceFormat string    `db:"source_format"`
	Snapshot     string    `db:"snapshot"`
	OutputKey    string    `db:"output_key"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type SessionDB struct {
	db     *sql.DB
	schema string
}

func NewSessionDB(db *sql.DB, schema string) *SessionDB {
	return &SessionDB{db: db, schema: schema}
}

func (sdb *SessionDB) txn(ctx context.Context, fn func(tx *goqu.TxDatabase) error) error {
	return database.InSchema(ctx, sdb.db, sdb.schema, func(txn *sql.Tx) error {
		return fn(goqu.NewTx("postgres", txn))
	})
}

// CreateSession stores a new empty session and returns its ID.
func (sdb *SessionDB) CreateSession(ctx context.Context, filename, sourceFormat string) (string, error) {
	snapshot, err := json.Marshal(session.Snapshot{State: session.StateEmpty})
	if err != nil {
		return "", fmt.Errorf("error marshalling snapshot: %w", err)
	}

	id := uuid.NewString()
	err = sdb.txn(ctx, func(tx *goqu.TxDatabase) error {
		_, err := tx.Insert(sessionsTable).
			Rows(goqu.Record{
				"id":            id,
				"state":         string(session.StateEmpty),
				"filename":      filename,
				"source_format": sourceFormat,
				"snapshot":      string(snapshot),
			}).Executor().ExecContext(ctx)

		return err
	})
	if err != nil {
		return "", fmt.Errorf("error inserting session: %w", err)
	}

	return id, nil
}

// GetSession returns the session with the given ID. IDs that are not UUIDs are
// reported as not found.
func (sdb *SessionDB) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, sessionID)
	}

	var row sessionRow
	var found bool
	err := sdb.txn(ctx, func(tx *goqu.TxDatabase) error {
		var err error
		found, err = tx.From(sessionsTable).
			Select("id", "state", "filename", "source_format", "snapshot", "output_key", "created_at", "updated_at").
			Where(goqu.Ex{"id": sessionID}).
			ScanStructContext(ctx, &row)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error getting session '%s': %w", sessionID, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, sessionID)
	}

	var snapshot session.Snapshot
	if err := json.Unmarshal([]byte(row.Snapshot), &snapshot); err != nil {
		return nil, fmt.Errorf("error unmarshalling snapshot: %w", err)
	}

	return &Session{
		ID:           row.ID,
		Filename:     row.Filename,
		SourceFormat: row.SourceFormat,
		Snapshot:     snapshot,
		OutputKey:    row.OutputKey,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}

// UpdateSession stores the snapshot and output key of s.
func (sdb *SessionDB) UpdateSession(ctx context.Context, s *Session) error {
	snapshot, err := json.Marshal(s.Snapshot)
	if err != nil {
		return fmt.Errorf("error marshalling snapshot: %w", err)
	}

	return sdb.txn(ctx, func(tx *goqu.TxDatabase) error {
		res, err := tx.Update(sessionsTable).
			Where(goqu.Ex{"id": s.ID}).
			Set(goqu.Record{
				"state":      string(s.Snapshot.State),
				"snapshot":   string(snapshot),
				"output_key": s.OutputKey,
				"updated_at": goqu.L("NOW()"),
			}).Executor().ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("error updating session: %w", err)
		}

		rowsAf, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("error getting session affected: %w", err)
		}
		if rowsAf == 0 {
			return fmt.Errorf("%w: %q", ErrSessionNotFound, s.ID)
		}

		return nil
	})
}

func (sdb *SessionDB) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil
	}

	err := sdb.txn(ctx, func(tx *goqu.TxDatabase) error {
		_, err := tx.Delete(sessionsTable).
			Where(goqu.Ex{"id": sessionID}).
			Executor().ExecContext(ctx)

		return err
	})
	if err != nil {
		return fmt.Errorf("error deleting session '%s': %w", sessionID, err)
	}

	return nil
}

// ExpiredSessions lists the IDs of sessions not updated since before.
func (sdb *SessionDB) ExpiredSessions(ctx context.Context, before time.Time) ([]string, error) {
	var ids []string
	err := sdb.txn(ctx, func(tx *goqu.TxDatabase) error {
		return tx.From(sessionsTable).
			Select("id").
			Where(goqu.C("updated_at").Lt(before)).
			Order(goqu.C("updated_at").Asc()).
			ScanValsContext(ctx, &ids)
	})
	if err != nil {
		return nil, fmt.Errorf("error listing expired sessions: %w", err)
	}

	return ids, nil
}
