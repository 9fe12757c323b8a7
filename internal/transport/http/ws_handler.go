package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"party-quiz-service/internal/app"
	"party-quiz-service/internal/domain"
	"party-quiz-service/internal/protocol"
)

// hostClientID is the reserved registry slot for a room's host connection.
const hostClientID = "__host__"

type WSHandler struct {
	hub      *app.Hub
	registry *Registry
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *app.Hub, registry *Registry) *WSHandler {
	return &WSHandler{
		hub:      hub,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// hostCommand is the host-side control frame. Host control is transport
// surface, not part of the player protocol, so its shapes stay local to
// this package.
type hostCommand struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Categories   []string `json:"categories,omitempty"`
	Difficulties []string `json:"difficulties,omitempty"`
	Count        int      `json:"count,omitempty"`
	Shuffle      bool     `json:"shuffle,omitempty"`
	ExcludeIDs   []string `json:"excludeIds,omitempty"`
}

type kickPayload struct {
	PlayerID string `json:"playerId"`
}

type adjustPayload struct {
	PlayerID string `json:"playerId"`
	Delta    int    `json:"delta"`
}

type replacePayload struct {
	Question domain.Question `json:"question"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type roomCreatedPayload struct {
	Code string `json:"code"`
}

func writeEnvelope(c *client, kind string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	frame, err := json.Marshal(protocol.Envelope{Type: kind, Payload: data})
	if err != nil {
		return
	}
	c.enqueue(frame)
}

// ServeHost upgrades the host connection. Without a room query param a new
// room is created and its code sent back; with one, the host reattaches to
// a live or checkpointed room.
func (h *WSHandler) ServeHost(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("room")

	var actor *app.RoomActor
	if code == "" {
		actor = h.hub.CreateRoom(nil)
		code = actor.Code()
	} else {
		var ok bool
		actor, ok = h.hub.Get(code)
		if !ok {
			http.Error(w, domain.ErrRoomNotFound.Error(), http.StatusNotFound)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	c := h.registry.register(code, hostClientID)
	defer h.registry.unregister(code, hostClientID, c)

	writerDone := make(chan struct{})
	go runWriter(conn, c, writerDone)

	writeEnvelope(c, "room:created", roomCreatedPayload{Code: code})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var cmd hostCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			writeEnvelope(c, "error", errorPayload{Message: "bad json"})
			continue
		}
		if err := h.dispatchHost(actor, cmd); err != nil {
			writeEnvelope(c, "error", errorPayload{Message: err.Error()})
		}
	}

	c.close()
	<-writerDone
}

func (h *WSHandler) dispatchHost(actor *app.RoomActor, cmd hostCommand) error {
	switch cmd.Type {
	case "host:start":
		var p startPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return err
		}
		filter := domain.QuestionFilter{
			Categories:   p.Categories,
			Difficulties: p.Difficulties,
			Count:        p.Count,
			Shuffle:      p.Shuffle,
			ExcludeIDs:   p.ExcludeIDs,
		}
		if err := actor.Start(filter); err != nil {
			return err
		}
		// First question is a separate observable event.
		return actor.NextQuestion()
	case "host:next":
		return actor.NextQuestion()
	case "host:reveal":
		return actor.Reveal()
	case "host:replace":
		var p replacePayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return err
		}
		return actor.ReplaceQuestion(p.Question)
	case "host:kick":
		var p kickPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return err
		}
		return actor.Kick(p.PlayerID)
	case "host:adjust":
		var p adjustPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return err
		}
		return actor.AdjustScore(p.PlayerID, p.Delta)
	case "host:end":
		return actor.EndGame()
	case "host:rematch":
		return actor.Rematch()
	default:
		return errUnknownCommand(cmd.Type)
	}
}

type errUnknownCommand string

func (e errUnknownCommand) Error() string { return "unknown host command " + string(e) }

// ServePlay upgrades a player connection and wires it into the room actor.
// A missing player id gets a freshly minted one; a returning id is treated
// as a reconnect and resynced.
func (h *WSHandler) ServePlay(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("room")
	playerID := r.URL.Query().Get("player")
	name := r.URL.Query().Get("name")
	if code == "" || (name == "" && playerID == "") {
		http.Error(w, "missing room or name", http.StatusBadRequest)
		return
	}

	actor, ok := h.hub.Get(code)
	if !ok {
		http.Error(w, domain.ErrRoomNotFound.Error(), http.StatusNotFound)
		return
	}

	rejoin := playerID != ""
	if playerID == "" {
		playerID = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	c := h.registry.register(code, playerID)
	defer h.registry.unregister(code, playerID, c)

	writerDone := make(chan struct{})
	go runWriter(conn, c, writerDone)

	if err := actor.Join(playerID, name, rejoin); err != nil {
		writeEnvelope(c, "error", errorPayload{Message: err.Error()})
		c.close()
		<-writerDone
		return
	}
	defer actor.Leave(playerID)

	writeEnvelope(c, "joined", map[string]string{"playerId": playerID, "room": code})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		msg, err := protocol.DecodeFromPlayer(data)
		if err != nil {
			writeEnvelope(c, "error", errorPayload{Message: "invalid message"})
			continue
		}
		switch m := msg.(type) {
		case *protocol.PlayerAnswer:
			actor.SubmitAnswer(playerID, m.QuestionID, m.Value, time.Now())
		case *protocol.PlayerPowerUp:
			if err := actor.ActivatePowerUp(playerID, m.PowerUpID); err != nil {
				writeEnvelope(c, "error", errorPayload{Message: err.Error()})
			}
		case *protocol.PlayerJoin, *protocol.PlayerRejoin:
			// Socket query params already joined us; a repeat is a resync request.
			if err := actor.Join(playerID, name, true); err != nil {
				writeEnvelope(c, "error", errorPayload{Message: err.Error()})
			}
		}
	}

	c.close()
	<-writerDone
}

func runWriter(conn *websocket.Conn, c *client, done chan struct{}) {
	defer close(done)
	for msg := range c.send {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("ws write error: %v", err)
			return
		}
	}
}
