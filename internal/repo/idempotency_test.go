package repo

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIdempotency_RecordAndLookup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec, err := CreateIdempotency(ctx, db, "u1", "order-1", "key-1", "msg-1", 201, time.Hour)
	if err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	if rec.ResultID != "msg-1" || rec.Status != 201 {
		t.Fatalf("record = %+v", rec)
	}

	got, err := GetIdempotency(ctx, db, "u1", "order-1", "key-1", now)
	if err != nil {
		t.Fatalf("GetIdempotency: %v", err)
	}
	if got.ResultID != "msg-1" {
		t.Fatalf("result = %q, want msg-1", got.ResultID)
	}
}

func TestIdempotency_DuplicateTuple(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "u1", "order-1", "key-1", "msg-1", 201, time.Hour); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := CreateIdempotency(ctx, db, "u1", "order-1", "key-1", "msg-2", 201, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}

	// The same key under another user or scope is a distinct tuple.
	if _, err := CreateIdempotency(ctx, db, "u2", "order-1", "key-1", "msg-3", 201, time.Hour); err != nil {
		t.Fatalf("other user: %v", err)
	}
	if _, err := CreateIdempotency(ctx, db, "u1", "order-2", "key-1", "msg-4", 201, time.Hour); err != nil {
		t.Fatalf("other scope: %v", err)
	}
}

func TestIdempotency_ExpiredRecordIsInvisible(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "u1", "order-1", "key-1", "msg-1", 201, -time.Minute); err != nil {
		t.Fatalf("create expired: %v", err)
	}
	if _, err := GetIdempotency(ctx, db, "u1", "order-1", "key-1", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestIdempotency_BlankScopeNeverMatches(t *testing.T) {
	db := newTestDB(t)

	if _, err := GetIdempotency(context.Background(), db, "u1", "  ", "key-1", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestIdempotency_MissIsNotFound(t *testing.T) {
	db := newTestDB(t)

	if _, err := GetIdempotency(context.Background(), db, "u1", "order-1", "never-seen", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
