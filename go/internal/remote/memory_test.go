package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestMemoryStore_PutMergeKeepsAbsentFields(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	s := NewMemoryStore(clock)

	if err := s.PutMerge(ctx, CollectionTeams, "t1", Document{"id": "t1", "name": "Sharks", "color": "#000000"}); err != nil {
		t.Fatalf("PutMerge() failed: %v", err)
	}
	clock.Advance(time.Second)
	if err := s.PutMerge(ctx, CollectionTeams, "t1", Document{"name": "Orcas"}); err != nil {
		t.Fatalf("PutMerge() failed: %v", err)
	}

	doc, err := s.Get(ctx, CollectionTeams, "t1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if doc["name"] != "Orcas" {
		t.Errorf("name = %v, want Orcas", doc["name"])
	}
	if doc["color"] != "#000000" {
		t.Errorf("color = %v, want it kept", doc["color"])
	}
	if doc[ChangedAtField] != "2024-05-01T12:00:01.000000000Z" {
		t.Errorf("%s = %v", ChangedAtField, doc[ChangedAtField])
	}
}

func TestMemoryStore_DeleteNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(clockwork.NewFakeClock())

	err := s.DeleteByID(ctx, CollectionPlayers, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeleteByID() error = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ctx, CollectionPlayers, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_QueryChangedSinceIsExclusive(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	s := NewMemoryStore(clock)

	_ = s.PutMerge(ctx, CollectionMatches, "m1", Document{"id": "m1"})
	clock.Advance(time.Minute)
	_ = s.PutMerge(ctx, CollectionMatches, "m2", Document{"id": "m2"})

	docs, err := s.QueryChangedSince(ctx, CollectionMatches, start)
	if err != nil {
		t.Fatalf("QueryChangedSince() failed: %v", err)
	}
	if len(docs) != 1 || docs[0]["id"] != "m2" {
		t.Fatalf("QueryChangedSince() = %v, want only m2", docs)
	}

	docs, err = s.QueryChangedSince(ctx, CollectionMatches, time.Time{})
	if err != nil {
		t.Fatalf("QueryChangedSince() failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d docs, want 2", len(docs))
	}
}

func TestMemoryStore_FaultInjection(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(clockwork.NewFakeClock())
	boom := errors.New("boom")

	s.FailID("p1", boom)
	if err := s.PutMerge(ctx, CollectionPlayers, "p1", Document{}); !errors.Is(err, boom) {
		t.Fatalf("PutMerge() error = %v, want boom", err)
	}
	if err := s.PutMerge(ctx, CollectionPlayers, "p2", Document{}); err != nil {
		t.Fatalf("PutMerge(p2) failed: %v", err)
	}
	s.FailID("p1", nil)
	if err := s.PutMerge(ctx, CollectionPlayers, "p1", Document{}); err != nil {
		t.Fatalf("PutMerge(p1) after clear failed: %v", err)
	}

	s.SetDown(boom)
	if _, err := s.QueryChangedSince(ctx, CollectionPlayers, time.Time{}); !errors.Is(err, boom) {
		t.Fatalf("QueryChangedSince() error = %v, want boom", err)
	}
}
