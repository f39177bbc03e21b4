package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/photo-gallery/internal/apperror"
	"github.com/sakif/photo-gallery/internal/model"
)

func TestSessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestUser(t, db, "alice")

	session := &model.Session{Username: "alice", ExpiresAt: time.Now().Add(time.Hour)}
	if err := db.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if session.ID == "" {
		t.Fatal("CreateSession() did not set ID")
	}

	found, err := db.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if found.Username != "alice" {
		t.Errorf("Username = %q, want %q", found.Username, "alice")
	}

	if err := db.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := db.GetSession(ctx, session.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetSession() after delete error = %v, want ErrNotFound", err)
	}

	// Deleting again is a no-op.
	if err := db.DeleteSession(ctx, session.ID); err != nil {
		t.Errorf("DeleteSession() twice error = %v, want nil", err)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestUser(t, db, "alice")

	now := time.Now()
	expired := &model.Session{Username: "alice", ExpiresAt: now.Add(-time.Hour)}
	live := &model.Session{Username: "alice", ExpiresAt: now.Add(time.Hour)}
	for _, s := range []*model.Session{expired, live} {
		if err := db.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
	}

	n, err := db.DeleteExpiredSessions(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteExpiredSessions() removed %d, want 1", n)
	}

	if _, err := db.GetSession(ctx, expired.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expired session still present: %v", err)
	}
	if _, err := db.GetSession(ctx, live.ID); err != nil {
		t.Errorf("live session was removed: %v", err)
	}
}
