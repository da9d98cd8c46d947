package stores_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charlieegan3/exiflab/pkg/fields"
	"github.com/charlieegan3/exiflab/pkg/session"
	"github.com/charlieegan3/exiflab/pkg/stores"
	"github.com/charlieegan3/exiflab/pkg/test"
)

func TestSessionDB(t *testing.T) {
	ctx := context.Background()

	db, postgresCleanup, err := test.InitPostgres(ctx, t)
	defer func() {
		if postgresCleanup == nil {
			return
		}
		if err := postgresCleanup(); err != nil {
			t.Fatalf("Could not cleanup postgres: %s", err)
		}
	}()
	if err != nil {
		t.Fatalf("Could not init database: %s", err)
	}

	sdb := stores.NewSessionDB(db, "exiflab")

	id, err := sdb.CreateSession(ctx, "holiday.png", "png")
	if err != nil {
		t.Fatalf("Could not create session: %s", err)
	}

	s, err := sdb.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("Could not get session: %s", err)
	}
	if s.Filename != "holiday.png" || s.SourceFormat != "png" {
		t.Fatalf("unexpected session %+v", s)
	}
	if s.Snapshot.State != session.StateEmpty {
		t.Fatalf("expected empty state, got %s", s.Snapshot.State)
	}

	s.Snapshot = session.Snapshot{
		State:   session.StateEdited,
		Fields:  fields.Fields{Make: "Canon", Model: "Canon EOS R5", ISO: 400},
		Warning: "no metadata found",
	}
	s.OutputKey = "data/" + id + "/output.jpg"
	if err := sdb.UpdateSession(ctx, s); err != nil {
		t.Fatalf("Could not update session: %s", err)
	}

	updated, err := sdb.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("Could not get session: %s", err)
	}
	if updated.Snapshot.State != session.StateEdited ||
		updated.Snapshot.Fields.Make != "Canon" ||
		updated.Snapshot.Fields.ISO != 400 ||
		updated.Snapshot.Warning != "no metadata found" {
		t.Fatalf("unexpected snapshot %+v", updated.Snapshot)
	}
	if updated.OutputKey != s.OutputKey {
		t.Fatalf("unexpected output key %s", updated.OutputKey)
	}

	expired, err := sdb.ExpiredSessions(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Could not list expired sessions: %s", err)
	}
	if len(expired) != 1 || expired[0] != id {
		t.Fatalf("unexpected expired sessions %v", expired)
	}

	if err := sdb.DeleteSession(ctx, id); err != nil {
		t.Fatalf("Could not delete session: %s", err)
	}

	_, err = sdb.GetSession(ctx, id)
	if !errors.Is(err, stores.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	err = sdb.UpdateSession(ctx, s)
	if !errors.Is(err, stores.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on update, got %v", err)
	}

	_, err = sdb.GetSession(ctx, "not-a-uuid")
	if !errors.Is(err, stores.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for malformed id, got %v", err)
	}
}
