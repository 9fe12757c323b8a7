package http

import (
	"fmt"
	"sync"

	"party-quiz-service/internal/protocol"
)

// client is one websocket attachment with its outbound queue. The writer
// goroutine in the handler drains send; registry writes never block on a
// slow socket. The mutex orders enqueue against close: a room actor may
// broadcast in the window between a read loop exiting and the deferred
// unregister, and that send must be a silent drop, not a panic.
type client struct {
	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient() *client {
	return &client{send: make(chan []byte, 16)}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *client) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		// Drop the oldest frame rather than block the room on a slow
		// client; resync covers anyone who falls behind.
		select {
		case <-c.send:
		default:
		}
		select {
		case c.send <- data:
		default:
		}
	}
}

// Registry tracks live connections per room and implements app.Transport.
// Hosts attach under a reserved id so they receive broadcasts too.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*client
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[string]*client)}
}

func (r *Registry) register(roomCode, clientID string) *client {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomCode]
	if !ok {
		room = make(map[string]*client)
		r.rooms[roomCode] = room
	}
	if old, ok := room[clientID]; ok {
		old.close()
	}
	c := newClient()
	room[clientID] = c
	return c
}

func (r *Registry) unregister(roomCode, clientID string, c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.rooms[roomCode]; ok {
		if current, ok := room[clientID]; ok && current == c {
			delete(room, clientID)
		}
		if len(room) == 0 {
			delete(r.rooms, roomCode)
		}
	}
	c.close()
}

// Broadcast delivers a message to every connection in the room.
func (r *Registry) Broadcast(roomCode string, msg protocol.Broadcast) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.rooms[roomCode] {
		c.enqueue(data)
	}
	return nil
}

// SendTo delivers a message to one named recipient in the room.
func (r *Registry) SendTo(roomCode, playerID string, msg protocol.Directed) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.rooms[roomCode][playerID]
	if !ok {
		return fmt.Errorf("player %s not connected to room %s", playerID, roomCode)
	}
	c.enqueue(data)
	return nil
}
