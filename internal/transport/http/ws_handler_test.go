package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"party-quiz-service/internal/app"
	"party-quiz-service/internal/domain"
	"party-quiz-service/internal/game"
	"party-quiz-service/internal/infra/memory"
	"party-quiz-service/internal/protocol"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	questions := []domain.Question{
		{ID: "q1", Kind: domain.AnswerMultipleChoice, Prompt: "2+2?", Options: []string{"3", "4"}, CorrectOption: 1},
		{ID: "q2", Kind: domain.AnswerText, Prompt: "Red planet?", AcceptedAnswers: []string{"Mars"}},
	}
	rules := game.Rules{
		Scoring:          game.ScoreConfig{BasePoints: 100},
		TimeLimitSec:     20,
		AnswerMode:       game.ModeAllPlayers,
		QuestionsPerGame: 10,
		PowerUps:         game.DefaultPowerUps(),
	}

	registry := NewRegistry()
	hub := app.NewHub(context.Background(), registry, memory.NewSnapshotStore(), memory.NewIdentityStore(), memory.NewStaticQuestionSource(questions), rules)
	handler := NewWSHandler(hub, registry)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/host", handler.ServeHost)
	mux.HandleFunc("/ws/play", handler.ServePlay)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// awaitEnvelope reads frames until one of the wanted type arrives, skipping
// interleaved broadcasts like scoreboard updates.
func awaitEnvelope(t *testing.T, conn *websocket.Conn, kind string) protocol.Envelope {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", kind, err)
		}
		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		if env.Type == kind {
			return env
		}
		if env.Type == "error" {
			t.Fatalf("error frame while waiting for %s: %s", kind, env.Payload)
		}
	}
}

func sendHost(t *testing.T, conn *websocket.Conn, kind string, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	frame, err := json.Marshal(hostCommand{Type: kind, Payload: data})
	if err != nil {
		t.Fatalf("marshal command: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("write %s: %v", kind, err)
	}
}

func TestHostCreatesRoom(t *testing.T) {
	srv := newTestServer(t)
	host := dial(t, srv, "/ws/host")

	env := awaitEnvelope(t, host, "room:created")
	var created roomCreatedPayload
	if err := json.Unmarshal(env.Payload, &created); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if len(created.Code) != 5 {
		t.Fatalf("room code %q", created.Code)
	}
}

func TestPlayRequiresRoom(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ws/play?name=Alice")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing room: status %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/ws/play?room=NOPE1&name=Alice")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown room: status %d", resp.StatusCode)
	}
}

func TestGameOverWebsocket(t *testing.T) {
	srv := newTestServer(t)

	host := dial(t, srv, "/ws/host")
	env := awaitEnvelope(t, host, "room:created")
	var created roomCreatedPayload
	if err := json.Unmarshal(env.Payload, &created); err != nil {
		t.Fatalf("payload: %v", err)
	}

	player := dial(t, srv, "/ws/play?room="+created.Code+"&name=Alice")
	joined := awaitEnvelope(t, player, "joined")
	var ack map[string]string
	if err := json.Unmarshal(joined.Payload, &ack); err != nil {
		t.Fatalf("joined payload: %v", err)
	}
	playerID := ack["playerId"]
	if playerID == "" {
		t.Fatalf("no player id minted: %s", joined.Payload)
	}

	sendHost(t, host, "host:start", startPayload{})
	awaitEnvelope(t, player, protocol.KindGameStart)

	show := awaitEnvelope(t, player, protocol.KindQuestionShow)
	var shown protocol.QuestionShow
	if err := json.Unmarshal(show.Payload, &shown); err != nil {
		t.Fatalf("question payload: %v", err)
	}
	if shown.Question.CorrectOption != -1 || shown.Question.AcceptedAnswers != nil {
		t.Fatalf("player saw answer data: %+v", shown.Question)
	}

	answer, err := protocol.Encode(protocol.PlayerAnswer{QuestionID: shown.Question.ID, Value: "1"})
	if err != nil {
		t.Fatalf("encode answer: %v", err)
	}
	if err := player.WriteMessage(websocket.TextMessage, answer); err != nil {
		t.Fatalf("send answer: %v", err)
	}
	// A duplicate draws an already-answered rejection, which doubles as
	// confirmation that the first submission was processed.
	if err := player.WriteMessage(websocket.TextMessage, answer); err != nil {
		t.Fatalf("send duplicate: %v", err)
	}
	rejectedEnv := awaitEnvelope(t, player, protocol.KindAnswerRejected)
	var rejected protocol.AnswerRejected
	if err := json.Unmarshal(rejectedEnv.Payload, &rejected); err != nil {
		t.Fatalf("rejection payload: %v", err)
	}
	if rejected.Reason != domain.RejectAlreadyAnswered {
		t.Fatalf("rejection reason: %q", rejected.Reason)
	}

	sendHost(t, host, "host:reveal", struct{}{})
	revealEnv := awaitEnvelope(t, player, protocol.KindAnswerReveal)
	var reveal protocol.AnswerReveal
	if err := json.Unmarshal(revealEnv.Payload, &reveal); err != nil {
		t.Fatalf("reveal payload: %v", err)
	}
	if reveal.Question.CorrectOption != 1 {
		t.Fatalf("reveal missing full question: %+v", reveal.Question)
	}
	if len(reveal.Answers) != 1 {
		t.Fatalf("reveal answers: %+v", reveal.Answers)
	}
	if got := reveal.Answers[0]; got.PlayerID != playerID || !got.Correct || got.Points != 100 {
		t.Fatalf("reveal answer: %+v", got)
	}
	if reveal.Scoreboard[0].Score != 100 || reveal.Scoreboard[0].Rank != 1 {
		t.Fatalf("reveal scoreboard: %+v", reveal.Scoreboard)
	}

	sendHost(t, host, "host:end", struct{}{})
	awaitEnvelope(t, player, protocol.KindGameEnd)
}

func TestPlayerReconnectGetsState(t *testing.T) {
	srv := newTestServer(t)

	host := dial(t, srv, "/ws/host")
	env := awaitEnvelope(t, host, "room:created")
	var created roomCreatedPayload
	if err := json.Unmarshal(env.Payload, &created); err != nil {
		t.Fatalf("payload: %v", err)
	}

	player := dial(t, srv, "/ws/play?room="+created.Code+"&name=Alice")
	joined := awaitEnvelope(t, player, "joined")
	var ack map[string]string
	if err := json.Unmarshal(joined.Payload, &ack); err != nil {
		t.Fatalf("joined payload: %v", err)
	}

	sendHost(t, host, "host:start", startPayload{})
	awaitEnvelope(t, player, protocol.KindQuestionShow)
	_ = player.Close()

	// Reconnect with the minted id; the handler treats it as a rejoin.
	again := dial(t, srv, "/ws/play?room="+created.Code+"&player="+ack["playerId"])
	stateEnv := awaitEnvelope(t, again, protocol.KindPlayerState)
	var state protocol.PlayerState
	if err := json.Unmarshal(stateEnv.Payload, &state); err != nil {
		t.Fatalf("state payload: %v", err)
	}
	if state.Phase != domain.PhasePlaying || state.Player.ID != ack["playerId"] {
		t.Fatalf("resync state: %+v", state)
	}
	if state.Question == nil || state.Question.CorrectOption != -1 {
		t.Fatalf("resync question: %+v", state.Question)
	}
}
