package app

import (
	"context"
	"errors"
	"log"
	"time"

	"party-quiz-service/internal/domain"
	"party-quiz-service/internal/game"
	"party-quiz-service/internal/protocol"
)

// roomMsg is the closed set of events a room actor processes. Every mutation
// of room state flows through the actor's inbox, one message at a time, so
// the game aggregate never needs locks.
type roomMsg interface{ isRoomMsg() }

type joinMsg struct {
	playerID string
	name     string
	rejoin   bool
	reply    chan error
}

type leaveMsg struct{ playerID string }

type kickMsg struct {
	playerID string
	reply    chan error
}

type startMsg struct {
	filter domain.QuestionFilter
	reply  chan error
}

type nextMsg struct{ reply chan error }

type replaceMsg struct {
	question domain.Question
	reply    chan error
}

type answerMsg struct {
	playerID   string
	questionID string
	value      string
	at         time.Time
}

type powerupMsg struct {
	playerID  string
	powerupID string
	reply     chan error
}

type revealMsg struct{ reply chan error }

type adjustMsg struct {
	playerID string
	delta    int
	reply    chan error
}

type endMsg struct{ reply chan error }

type rematchMsg struct{ reply chan error }

type viewMsg struct{ reply chan RoomView }

func (joinMsg) isRoomMsg()    {}
func (leaveMsg) isRoomMsg()   {}
func (kickMsg) isRoomMsg()    {}
func (startMsg) isRoomMsg()   {}
func (nextMsg) isRoomMsg()    {}
func (replaceMsg) isRoomMsg() {}
func (answerMsg) isRoomMsg()  {}
func (powerupMsg) isRoomMsg() {}
func (revealMsg) isRoomMsg()  {}
func (adjustMsg) isRoomMsg()  {}
func (endMsg) isRoomMsg()     {}
func (rematchMsg) isRoomMsg() {}
func (viewMsg) isRoomMsg()    {}

// ErrRoomClosed is returned by actor calls after shutdown; callers holding a
// stale actor reference must not block on its drained inbox.
var ErrRoomClosed = errors.New("room closed")

// RoomView is a race-free copy of room state for tests and status endpoints.
type RoomView struct {
	Code       string
	Phase      domain.Phase
	Players    int
	FinishedAt time.Time
	Scoreboard []domain.ScoreboardEntry
}

// RoomActor is the single authoritative writer for one room. Multiple rooms
// run fully independent actors.
type RoomActor struct {
	room       *game.Room
	inbox      chan roomMsg
	transport  Transport
	snapshots  SnapshotStore
	identities IdentityStore
	source     QuestionSource
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewRoomActor(parent context.Context, room *game.Room, transport Transport, snapshots SnapshotStore, identities IdentityStore, source QuestionSource) *RoomActor {
	ctx, cancel := context.WithCancel(parent)
	a := &RoomActor{
		room:       room,
		inbox:      make(chan roomMsg, 64),
		transport:  transport,
		snapshots:  snapshots,
		identities: identities,
		source:     source,
		ctx:        ctx,
		cancel:     cancel,
	}
	go a.loop()
	return a
}

func (a *RoomActor) Code() string { return a.room.Code() }

/// --- public API: each call serializes through the inbox ---

// send enqueues a message unless the actor has shut down. Without the
// ctx guard a caller holding a stale actor would block forever once the
// inbox buffer fills.
func (a *RoomActor) send(m roomMsg) error {
	// Checked up front so a call made after Shutdown fails fast instead of
	// racing the loop over whatever is still buffered in the inbox.
	if a.ctx.Err() != nil {
		return ErrRoomClosed
	}
	select {
	case a.inbox <- m:
		return nil
	case <-a.ctx.Done():
		return ErrRoomClosed
	}
}

// call enqueues a request and waits for its reply, bailing out if the
// actor shuts down with the message still queued.
func (a *RoomActor) call(m roomMsg, reply chan error) error {
	if err := a.send(m); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-a.ctx.Done():
		return ErrRoomClosed
	}
}

func (a *RoomActor) Join(playerID, name string, rejoin bool) error {
	reply := make(chan error, 1)
	return a.call(joinMsg{playerID: playerID, name: name, rejoin: rejoin, reply: reply}, reply)
}

func (a *RoomActor) Leave(playerID string) {
	_ = a.send(leaveMsg{playerID: playerID})
}

func (a *RoomActor) Kick(playerID string) error {
	reply := make(chan error, 1)
	return a.call(kickMsg{playerID: playerID, reply: reply}, reply)
}

func (a *RoomActor) Start(filter domain.QuestionFilter) error {
	reply := make(chan error, 1)
	return a.call(startMsg{filter: filter, reply: reply}, reply)
}

func (a *RoomActor) NextQuestion() error {
	reply := make(chan error, 1)
	return a.call(nextMsg{reply: reply}, reply)
}

func (a *RoomActor) ReplaceQuestion(q domain.Question) error {
	reply := make(chan error, 1)
	return a.call(replaceMsg{question: q, reply: reply}, reply)
}

// SubmitAnswer is fire-and-forget: rejections go back to the submitting
// player as a directed message, never to the caller.
func (a *RoomActor) SubmitAnswer(playerID, questionID, value string, at time.Time) {
	_ = a.send(answerMsg{playerID: playerID, questionID: questionID, value: value, at: at})
}

func (a *RoomActor) ActivatePowerUp(playerID, powerupID string) error {
	reply := make(chan error, 1)
	return a.call(powerupMsg{playerID: playerID, powerupID: powerupID, reply: reply}, reply)
}

func (a *RoomActor) Reveal() error {
	reply := make(chan error, 1)
	return a.call(revealMsg{reply: reply}, reply)
}

func (a *RoomActor) AdjustScore(playerID string, delta int) error {
	reply := make(chan error, 1)
	return a.call(adjustMsg{playerID: playerID, delta: delta, reply: reply}, reply)
}

func (a *RoomActor) EndGame() error {
	reply := make(chan error, 1)
	return a.call(endMsg{reply: reply}, reply)
}

func (a *RoomActor) Rematch() error {
	reply := make(chan error, 1)
	return a.call(rematchMsg{reply: reply}, reply)
}

// View returns a consistent copy of room state without data races. A shut
// down actor yields the zero view.
func (a *RoomActor) View() RoomView {
	reply := make(chan RoomView, 1)
	if err := a.send(viewMsg{reply: reply}); err != nil {
		return RoomView{}
	}
	select {
	case view := <-reply:
		return view
	case <-a.ctx.Done():
		return RoomView{}
	}
}

// Shutdown stops the actor loop. Queued messages are dropped; blocked
// callers unblock with ErrRoomClosed.
func (a *RoomActor) Shutdown() {
	a.cancel()
}

// --- actor loop ---

func (a *RoomActor) loop() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case m := <-a.inbox:
			switch msg := m.(type) {
			case joinMsg:
				msg.reply <- a.handleJoin(msg)
			case leaveMsg:
				a.room.RemovePlayer(msg.playerID)
				a.broadcast(protocol.ScoreboardUpdate{Entries: a.room.Scoreboard()})
			case kickMsg:
				msg.reply <- a.handleKick(msg.playerID)
			case startMsg:
				msg.reply <- a.handleStart(msg.filter)
			case nextMsg:
				msg.reply <- a.handleNext()
			case replaceMsg:
				msg.reply <- a.handleReplace(msg.question)
			case answerMsg:
				a.handleAnswer(msg)
			case powerupMsg:
				msg.reply <- a.room.ActivatePowerUp(msg.playerID, msg.powerupID)
			case revealMsg:
				msg.reply <- a.handleReveal()
			case adjustMsg:
				err := a.room.AdjustScore(msg.playerID, msg.delta)
				if err == nil {
					a.broadcast(protocol.ScoreboardUpdate{Entries: a.room.Scoreboard()})
				}
				msg.reply <- err
			case endMsg:
				msg.reply <- a.handleEnd()
			case rematchMsg:
				err := a.room.Rematch()
				if err == nil {
					a.broadcast(protocol.GameRematch{})
				}
				msg.reply <- err
			case viewMsg:
				msg.reply <- RoomView{
					Code:       a.room.Code(),
					Phase:      a.room.Phase(),
					Players:    a.room.PlayerCount(),
					FinishedAt: a.room.FinishedAt(),
					Scoreboard: a.room.Scoreboard(),
				}
			}
		}
	}
}

func (a *RoomActor) handleJoin(msg joinMsg) error {
	player, err := a.room.AddPlayer(msg.playerID, msg.name)
	if err != nil {
		return err
	}
	if err := a.identities.Save(a.ctx, domain.PlayerIdentity{
		ID:        player.ID,
		Name:      player.Name,
		RoomCode:  a.room.Code(),
		CreatedAt: player.JoinedAt,
	}); err != nil {
		log.Printf("room %s: save identity for %s: %v", a.room.Code(), player.ID, err)
	}
	if msg.rejoin || a.room.Phase() != domain.PhaseLobby {
		a.sendTo(player.ID, a.resyncState(player))
	}
	a.broadcast(protocol.ScoreboardUpdate{Entries: a.room.Scoreboard()})
	return nil
}

// resyncState builds the player:state directed message for reconnects. The
// question inside is sanitized like any other player-facing question.
func (a *RoomActor) resyncState(player domain.Player) protocol.PlayerState {
	state := protocol.PlayerState{
		Phase:         a.room.Phase(),
		Player:        player,
		Rank:          a.room.Rank(player.ID),
		QuestionCount: a.room.QuestionCount(),
		QuestionIndex: -1,
	}
	if q, idx, ok := a.room.CurrentQuestion(); ok {
		sanitized := protocol.SanitizeQuestion(q)
		state.Question = &sanitized
		state.QuestionIndex = idx
		state.TimeRemainingSec = int(a.room.TimeRemaining().Seconds())
	}
	return state
}

func (a *RoomActor) handleKick(playerID string) error {
	a.sendTo(playerID, protocol.PlayerKicked{Reason: "removed by host"})
	if err := a.room.KickPlayer(playerID); err != nil {
		return err
	}
	a.broadcast(protocol.ScoreboardUpdate{Entries: a.room.Scoreboard()})
	return nil
}

func (a *RoomActor) handleStart(filter domain.QuestionFilter) error {
	if filter.Count == 0 {
		filter.Count = a.room.Rules().QuestionsPerGame
	}
	questions, err := a.source.Questions(a.ctx, filter)
	if err != nil {
		return err
	}
	if err := a.room.StartGame(questions); err != nil {
		return err
	}
	a.broadcast(protocol.GameStart{StartedAt: time.Now(), QuestionCount: a.room.QuestionCount()})
	a.checkpoint()
	return nil
}

func (a *RoomActor) handleNext() error {
	q, idx, ok, err := a.room.NextQuestion()
	if err != nil {
		return err
	}
	if !ok {
		// No question left: advancing means ending the game.
		return a.handleEnd()
	}
	limit := q.TimeLimitSec
	if limit == 0 {
		limit = a.room.Rules().TimeLimitSec
	}
	a.broadcast(protocol.NewQuestionShow(q, idx, a.room.QuestionCount(), limit, time.Now()))
	a.checkpoint()
	return nil
}

func (a *RoomActor) handleReplace(q domain.Question) error {
	if err := a.room.ReplaceQuestion(q); err != nil {
		return err
	}
	_, idx, _ := a.room.CurrentQuestion()
	limit := q.TimeLimitSec
	if limit == 0 {
		limit = a.room.Rules().TimeLimitSec
	}
	a.broadcast(protocol.NewQuestionReplaced(q, idx, a.room.QuestionCount(), limit, time.Now()))
	a.checkpoint()
	return nil
}

func (a *RoomActor) handleAnswer(msg answerMsg) {
	questionID := ""
	if q, _, ok := a.room.CurrentQuestion(); ok {
		questionID = q.ID
	}
	if msg.questionID != "" && msg.questionID != questionID {
		// A duplicate or delayed frame naming a round that already closed.
		a.sendTo(msg.playerID, protocol.AnswerRejected{QuestionID: msg.questionID, Reason: domain.RejectInvalid})
		return
	}
	_, reason, err := a.room.SubmitAnswer(msg.playerID, msg.value, msg.at)
	if err != nil {
		// Stale or unaddressable submissions are rejected as invalid; the
		// sender may be referencing a round that already closed.
		a.sendTo(msg.playerID, protocol.AnswerRejected{QuestionID: questionID, Reason: domain.RejectInvalid})
		return
	}
	if reason != "" {
		a.sendTo(msg.playerID, protocol.AnswerRejected{QuestionID: questionID, Reason: reason})
	}
}

func (a *RoomActor) handleReveal() error {
	completed, scoreboard, err := a.room.RevealAnswer()
	if err != nil {
		return err
	}
	a.broadcast(protocol.QuestionEnd{QuestionID: completed.Question.ID})
	answers := make([]domain.PlayerAnswer, 0, len(completed.Order))
	for _, id := range completed.Order {
		answers = append(answers, completed.Answers[id])
	}
	a.broadcast(protocol.AnswerReveal{
		Question:   completed.Question,
		Answers:    answers,
		Order:      completed.Order,
		Scoreboard: scoreboard,
	})
	a.checkpoint()
	return nil
}

func (a *RoomActor) handleEnd() error {
	scoreboard, err := a.room.EndGame()
	if err != nil {
		return err
	}
	a.broadcast(protocol.GameEnd{Scoreboard: scoreboard, FinishedAt: time.Now()})
	if err := a.snapshots.Clear(a.ctx, a.room.Code()); err != nil {
		log.Printf("room %s: clear snapshot: %v", a.room.Code(), err)
	}
	if err := a.identities.Clear(a.ctx, a.room.Code()); err != nil {
		log.Printf("room %s: clear identities: %v", a.room.Code(), err)
	}
	return nil
}

func (a *RoomActor) checkpoint() {
	if err := a.snapshots.Save(a.ctx, a.room.Snapshot()); err != nil {
		log.Printf("room %s: checkpoint: %v", a.room.Code(), err)
	}
}

func (a *RoomActor) broadcast(msg protocol.Broadcast) {
	if err := a.transport.Broadcast(a.room.Code(), msg); err != nil {
		log.Printf("room %s: broadcast %s: %v", a.room.Code(), msg.Kind(), err)
	}
}

func (a *RoomActor) sendTo(playerID string, msg protocol.Directed) {
	if err := a.transport.SendTo(a.room.Code(), playerID, msg); err != nil {
		log.Printf("room %s: send %s to %s: %v", a.room.Code(), msg.Kind(), playerID, err)
	}
}
