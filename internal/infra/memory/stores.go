package memory

import (
	"context"
	"sync"

	"party-quiz-service/internal/domain"
)

// SnapshotStore keeps room checkpoints in process memory. It satisfies the
// persistence port for dependency-free runs; it obviously does not survive
// a process restart.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]domain.RoomSnapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snapshots: make(map[string]domain.RoomSnapshot)}
}

func (s *SnapshotStore) Save(_ context.Context, snap domain.RoomSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.Code] = snap
	return nil
}

func (s *SnapshotStore) Load(_ context.Context, roomCode string) (domain.RoomSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[roomCode]
	return snap, ok, nil
}

func (s *SnapshotStore) Clear(_ context.Context, roomCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, roomCode)
	return nil
}

// IdentityStore keeps durable player identities in process memory.
type IdentityStore struct {
	mu         sync.RWMutex
	identities map[string]map[string]domain.PlayerIdentity
}

func NewIdentityStore() *IdentityStore {
	return &IdentityStore{identities: make(map[string]map[string]domain.PlayerIdentity)}
}

func (s *IdentityStore) Save(_ context.Context, identity domain.PlayerIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.identities[identity.RoomCode]
	if !ok {
		room = make(map[string]domain.PlayerIdentity)
		s.identities[identity.RoomCode] = room
	}
	room[identity.ID] = identity
	return nil
}

func (s *IdentityStore) List(_ context.Context, roomCode string) ([]domain.PlayerIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room := s.identities[roomCode]
	out := make([]domain.PlayerIdentity, 0, len(room))
	for _, identity := range room {
		out = append(out, identity)
	}
	return out, nil
}

func (s *IdentityStore) Clear(_ context.Context, roomCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.identities, roomCode)
	return nil
}
