package app

import (
	"context"

	"party-quiz-service/internal/domain"
	"party-quiz-service/internal/protocol"
)

// Transport delivers typed envelopes to players. Sends are fire-and-forget
// from the engine's point of view; delivery retries belong to the transport.
type Transport interface {
	Broadcast(roomCode string, msg protocol.Broadcast) error
	SendTo(roomCode, playerID string, msg protocol.Directed) error
}

// SnapshotStore checkpoints room state for crash recovery. Checkpoints are
// written on round transitions and cleared on terminal game end.
type SnapshotStore interface {
	Save(ctx context.Context, snap domain.RoomSnapshot) error
	Load(ctx context.Context, roomCode string) (domain.RoomSnapshot, bool, error)
	Clear(ctx context.Context, roomCode string) error
}

// IdentityStore persists durable player identities keyed by room.
type IdentityStore interface {
	Save(ctx context.Context, identity domain.PlayerIdentity) error
	List(ctx context.Context, roomCode string) ([]domain.PlayerIdentity, error)
	Clear(ctx context.Context, roomCode string) error
}

// QuestionSource supplies question records given an optional filter.
type QuestionSource interface {
	Questions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error)
}
