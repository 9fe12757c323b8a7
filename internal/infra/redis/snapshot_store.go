package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"party-quiz-service/internal/domain"
)

// SnapshotStore persists room checkpoints as JSON values in Redis so a
// restarted process can resume a room. Entries expire with the TTL; a game
// abandoned mid-round is eventually collected.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{client: client, ttl: ttl}
}

func (s *SnapshotStore) Save(ctx context.Context, snap domain.RoomSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key(snap.Code), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context, roomCode string) (domain.RoomSnapshot, bool, error) {
	data, err := s.client.Get(ctx, s.key(roomCode)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.RoomSnapshot{}, false, nil
	}
	if err != nil {
		return domain.RoomSnapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}
	var snap domain.RoomSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.RoomSnapshot{}, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, true, nil
}

func (s *SnapshotStore) Clear(ctx context.Context, roomCode string) error {
	if err := s.client.Del(ctx, s.key(roomCode)).Err(); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) key(roomCode string) string {
	return "quiz:room:" + roomCode + ":snapshot"
}
