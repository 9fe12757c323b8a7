package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"party-quiz-service/internal/domain"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestSnapshotStoreRoundTrip(t *testing.T) {
	client := newTestClient(t)
	store := NewSnapshotStore(client, time.Hour)
	ctx := context.Background()

	if _, found, err := store.Load(ctx, "NOPE1"); err != nil || found {
		t.Fatalf("missing snapshot: found=%v err=%v", found, err)
	}

	snap := domain.RoomSnapshot{
		Code:          "ROOM1",
		Phase:         domain.PhaseRevealing,
		QuestionIndex: 2,
		Players: map[string]domain.Player{
			"p1": {ID: "p1", Name: "Alice", Score: 150, Streak: 2},
		},
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, found, err := store.Load(ctx, "ROOM1")
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if got.Phase != domain.PhaseRevealing || got.QuestionIndex != 2 {
		t.Fatalf("loaded snapshot: %+v", got)
	}
	if p := got.Players["p1"]; p.Score != 150 || p.Streak != 2 {
		t.Fatalf("loaded player: %+v", p)
	}

	if err := store.Clear(ctx, "ROOM1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, found, _ := store.Load(ctx, "ROOM1"); found {
		t.Fatalf("snapshot survived clear")
	}
}

func TestSnapshotStoreExpiry(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewSnapshotStore(client, time.Minute)
	ctx := context.Background()
	if err := store.Save(ctx, domain.RoomSnapshot{Code: "ROOM1"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	srv.FastForward(2 * time.Minute)
	if _, found, _ := store.Load(ctx, "ROOM1"); found {
		t.Fatalf("snapshot survived its TTL")
	}
}

func TestIdentityStoreRoundTrip(t *testing.T) {
	client := newTestClient(t)
	store := NewIdentityStore(client, time.Hour)
	ctx := context.Background()

	for _, id := range []domain.PlayerIdentity{
		{ID: "p1", Name: "Alice", RoomCode: "ROOM1"},
		{ID: "p2", Name: "Bob", RoomCode: "ROOM1"},
		{ID: "p3", Name: "Carol", RoomCode: "OTHER"},
	} {
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
	names := map[string]string{}
	for _, id := range got {
		names[id.ID] = id.Name
	}
	if names["p1"] != "Alice" || names["p2"] != "Bob" {
		t.Fatalf("identities: %v", names)
	}

	// Re-saving the same player id overwrites the hash field.
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
