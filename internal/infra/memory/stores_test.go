package memory

import (
	"context"
	"testing"

	"party-quiz-service/internal/domain"
)

func TestSnapshotStoreRoundTrip(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	if _, found, err := store.Load(ctx, "NOPE1"); err != nil || found {
		t.Fatalf("empty store: found=%v err=%v", found, err)
	}

	snap := domain.RoomSnapshot{Code: "ROOM1", Phase: domain.PhasePlaying, QuestionIndex: 3}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, found, err := store.Load(ctx, "ROOM1")
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if got.Phase != domain.PhasePlaying || got.QuestionIndex != 3 {
		t.Fatalf("loaded snapshot: %+v", got)
	}

	if err := store.Clear(ctx, "ROOM1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, found, _ := store.Load(ctx, "ROOM1"); found {
		t.Fatalf("snapshot survived clear")
	}
}

func TestIdentityStoreRoundTrip(t *testing.T) {
	store := NewIdentityStore()
	ctx := context.Background()

	ids := []domain.PlayerIdentity{
		{ID: "p1", Name: "Alice", RoomCode: "ROOM1"},
		{ID: "p2", Name: "Bob", RoomCode: "ROOM1"},
		{ID: "p3", Name: "Carol", RoomCode: "OTHER"},
	}
	for _, id := range ids {
		if err := store.Save(ctx, id); err != nil {
			t.Fatalf("save %s: %v", id.ID, err)
		}
	}

	got, err := store.List(ctx, "ROOM1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 identities, got %d", len(got))
	}

	// Saving the same id again overwrites, not duplicates.
	if err := store.Save(ctx, domain.PlayerIdentity{ID: "p1", Name: "Alicia", RoomCode: "ROOM1"}); err != nil {
		t.Fatalf("resave: %v", err)
	}
	got, _ = store.List(ctx, "ROOM1")
	if len(got) != 2 {
		t.Fatalf("resave duplicated identity: %d entries", len(got))
	}

	if err := store.Clear(ctx, "ROOM1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got, _ := store.List(ctx, "ROOM1"); len(got) != 0 {
		t.Fatalf("identities survived clear: %v", got)
	}
	if got, _ := store.List(ctx, "OTHER"); len(got) != 1 {
		t.Fatalf("clear leaked across rooms: %v", got)
	}
}
