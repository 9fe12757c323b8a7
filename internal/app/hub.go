package app

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"party-quiz-service/internal/domain"
	"party-quiz-service/internal/game"
)

// codeCharset omits ambiguous characters so codes survive being read aloud.
const codeCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeLength = 5

// roomRetention is how long a finished room's live actor is kept around so
// the host can call a rematch; after that the reaper removes it. Durable
// snapshot and identity state were already cleared at game end.
const roomRetention = 15 * time.Minute

const reapInterval = time.Minute

// Hub owns the live room actors, keyed by short room code. Rooms are fully
// independent; the hub only guards the registry map.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*RoomActor

	transport  Transport
	snapshots  SnapshotStore
	identities IdentityStore
	source     QuestionSource
	rules      game.Rules
	ctx        context.Context
	rnd        *rand.Rand
}

func NewHub(ctx context.Context, transport Transport, snapshots SnapshotStore, identities IdentityStore, source QuestionSource, rules game.Rules) *Hub {
	h := &Hub{
		rooms:      make(map[string]*RoomActor),
		transport:  transport,
		snapshots:  snapshots,
		identities: identities,
		source:     source,
		rules:      rules,
		ctx:        ctx,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	go h.reapLoop()
	return h
}

func (h *Hub) reapLoop() {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-h.ctx.Done():
			return
		case now := <-ticker.C:
			h.reapFinished(now)
		}
	}
}

// reapFinished removes rooms whose game ended longer than the retention
// window ago. A rematch returns the room to the lobby and zeroes its finish
// time, so rooms in play are never collected.
func (h *Hub) reapFinished(now time.Time) {
	h.mu.RLock()
	actors := make([]*RoomActor, 0, len(h.rooms))
	for _, actor := range h.rooms {
		actors = append(actors, actor)
	}
	h.mu.RUnlock()

	for _, actor := range actors {
		view := actor.View()
		if view.Phase != domain.PhaseFinished || view.FinishedAt.IsZero() {
			continue
		}
		if now.Sub(view.FinishedAt) >= roomRetention {
			log.Printf("room %s: reaping finished room", view.Code)
			h.Remove(view.Code)
		}
	}
}

// CreateRoom spins up a fresh room actor under a newly minted code.
// A nil rules argument takes the hub's defaults.
func (h *Hub) CreateRoom(rules *game.Rules) *RoomActor {
	effective := h.rules
	if rules != nil {
		effective = *rules
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	code := h.newCodeLocked()
	actor := NewRoomActor(h.ctx, game.NewRoom(code, effective), h.transport, h.snapshots, h.identities, h.source)
	h.rooms[code] = actor
	log.Printf("room %s created", code)
	return actor
}

// Get returns the live actor for a code. On a miss it consults the snapshot
// store so a restarted process can resume a checkpointed room.
func (h *Hub) Get(code string) (*RoomActor, bool) {
	h.mu.RLock()
	actor, ok := h.rooms[code]
	h.mu.RUnlock()
	if ok {
		return actor, true
	}

	snap, found, err := h.snapshots.Load(h.ctx, code)
	if err != nil || !found {
		if err != nil {
			log.Printf("room %s: load snapshot: %v", code, err)
		}
		return nil, false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if actor, ok := h.rooms[code]; ok {
		return actor, true
	}
	actor = NewRoomActor(h.ctx, game.RestoreRoom(snap, h.rules), h.transport, h.snapshots, h.identities, h.source)
	h.rooms[code] = actor
	log.Printf("room %s restored from snapshot", code)
	return actor, true
}

// Remove shuts a room actor down and drops it from the registry.
func (h *Hub) Remove(code string) {
	h.mu.Lock()
	actor, ok := h.rooms[code]
	if ok {
		delete(h.rooms, code)
	}
	h.mu.Unlock()
	if ok {
		actor.Shutdown()
	}
}

func (h *Hub) newCodeLocked() string {
	for {
		b := make([]byte, codeLength)
		for i := range b {
			b[i] = codeCharset[h.rnd.Intn(len(codeCharset))]
		}
		code := string(b)
		if _, taken := h.rooms[code]; !taken {
			return code
		}
	}
}
