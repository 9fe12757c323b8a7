package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"party-quiz-service/internal/domain"
)

// IdentityStore keeps durable player identities as a hash per room:
// HSET quiz:room:{code}:players {playerID} {identity JSON}
type IdentityStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdentityStore(client *redis.Client, ttl time.Duration) *IdentityStore {
	return &IdentityStore{client: client, ttl: ttl}
}

func (s *IdentityStore) Save(ctx context.Context, identity domain.PlayerIdentity) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	key := s.key(identity.RoomCode)
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, identity.ID, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

func (s *IdentityStore) List(ctx context.Context, roomCode string) ([]domain.PlayerIdentity, error) {
	raw, err := s.client.HGetAll(ctx, s.key(roomCode)).Result()
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	out := make([]domain.PlayerIdentity, 0, len(raw))
	for _, data := range raw {
		var identity domain.PlayerIdentity
		if err := json.Unmarshal([]byte(data), &identity); err != nil {
			return nil, fmt.Errorf("unmarshal identity: %w", err)
		}
		out = append(out, identity)
	}
	return out, nil
}

func (s *IdentityStore) Clear(ctx context.Context, roomCode string) error {
	if err := s.client.Del(ctx, s.key(roomCode)).Err(); err != nil {
		return fmt.Errorf("clear identities: %w", err)
	}
	return nil
}

func (s *IdentityStore) key(roomCode string) string {
	return "quiz:room:" + roomCode + ":players"
}
