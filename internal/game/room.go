package game

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"party-quiz-service/internal/domain"
)

// Rules is the per-room configuration passed in at creation. There is no
// flag or env surface for these; hosts supply them (or take defaults).
type Rules struct {
	Scoring          ScoreConfig       `yaml:"scoring" json:"scoring"`
	Estimation       *EstimationConfig `yaml:"estimation" json:"estimation,omitempty"`
	TimeLimitSec     int               `yaml:"timeLimitSec" json:"timeLimitSec"`
	AnswerMode       AnswerMode        `yaml:"answerMode" json:"answerMode"`
	AllowLate        bool              `yaml:"allowLate" json:"allowLate"`
	QuestionsPerGame int               `yaml:"questionsPerGame" json:"questionsPerGame"`
	PowerUps         []domain.PowerUp  `yaml:"powerUps" json:"powerUps,omitempty"`
}

// DefaultRules returns a playable baseline configuration.
func DefaultRules() Rules {
	return Rules{
		Scoring: ScoreConfig{
			BasePoints:          100,
			TimeBonusEnabled:    true,
			MaxTimeBonus:        50,
			DecayPerSecond:      5,
			StreakEnabled:       true,
			MultiplierPerStreak: 0.1,
			MaxMultiplier:       2,
			DifficultyEnabled:   true,
			DifficultyFactors:   map[string]float64{"easy": 1, "medium": 1.25, "hard": 1.5},
		},
		TimeLimitSec:     20,
		AnswerMode:       ModeAllPlayers,
		QuestionsPerGame: 10,
		PowerUps:         DefaultPowerUps(),
	}
}

// Room is the authoritative session aggregate: players, phase, the open
// round, and question history. It is mutated only from its owning actor's
// serialized event loop and is therefore lock-free.
type Room struct {
	code      string
	phase     domain.Phase
	rules     Rules
	players   map[string]*domain.Player
	kicked    map[string]bool
	questions []domain.Question
	index     int
	usedIDs   map[string]bool
	history   []domain.CompletedRound
	tracker   *Tracker
	roundOpen bool

	createdAt  time.Time
	startedAt  time.Time
	finishedAt time.Time
	now        func() time.Time
}

func NewRoom(code string, rules Rules) *Room {
	return NewRoomWithClock(code, rules, time.Now)
}

// NewRoomWithClock allows deterministic timestamps in tests.
func NewRoomWithClock(code string, rules Rules, now func() time.Time) *Room {
	return &Room{
		code:      code,
		phase:     domain.PhaseLobby,
		rules:     rules,
		players:   make(map[string]*domain.Player),
		kicked:    make(map[string]bool),
		index:     -1,
		usedIDs:   make(map[string]bool),
		createdAt: now(),
		now:       now,
	}
}

func (r *Room) Code() string        { return r.code }
func (r *Room) Phase() domain.Phase { return r.phase }
func (r *Room) Rules() Rules        { return r.rules }

// Player returns a copy of the named player's state.
func (r *Room) Player(id string) (domain.Player, bool) {
	p, ok := r.players[id]
	if !ok {
		return domain.Player{}, false
	}
	return *p, true
}

// PlayerCount counts retained players, connected or not.
func (r *Room) PlayerCount() int { return len(r.players) }

func (r *Room) transition(to domain.Phase) error {
	if !CanTransition(r.phase, to) {
		log.Printf("room %s: illegal transition %s -> %s ignored", r.code, r.phase, to)
		return fmt.Errorf("%w: %s -> %s", domain.ErrIllegalTransition, r.phase, to)
	}
	r.phase = to
	return nil
}

// AddPlayer registers a player in the lobby, or treats a known id as a
// reconnect in any phase. Genuinely new ids are rejected mid-game.
func (r *Room) AddPlayer(id, name string) (domain.Player, error) {
	if r.kicked[id] {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	if p, ok := r.players[id]; ok {
		p.Connected = true
		if name != "" {
			p.Name = name
		}
		return *p, nil
	}
	if r.phase != domain.PhaseLobby {
		return domain.Player{}, domain.ErrLateJoin
	}
	p := &domain.Player{
		ID:        id,
		Name:      name,
		Connected: true,
		JoinedAt:  r.now(),
	}
	r.players[id] = p
	return *p, nil
}

// RemovePlayer marks a player disconnected; identity and score are retained
// for a potential reconnect.
func (r *Room) RemovePlayer(id string) {
	if p, ok := r.players[id]; ok {
		p.Connected = false
	}
}

// KickPlayer removes a player for good; later messages naming the id are
// ignored.
func (r *Room) KickPlayer(id string) error {
	if _, ok := r.players[id]; !ok {
		return domain.ErrPlayerNotFound
	}
	delete(r.players, id)
	r.kicked[id] = true
	return nil
}

// StartGame moves lobby -> playing with the given question set. It does not
// open the first round; NextQuestion does, so "game started" and "question
// shown" stay distinct observable events.
func (r *Room) StartGame(questions []domain.Question) error {
	if r.phase != domain.PhaseLobby {
		return fmt.Errorf("%w: start from %s", domain.ErrIllegalTransition, r.phase)
	}
	if len(r.players) == 0 {
		return domain.ErrNoPlayers
	}
	if len(questions) == 0 {
		return domain.ErrNoQuestions
	}
	if r.rules.QuestionsPerGame > 0 && len(questions) > r.rules.QuestionsPerGame {
		questions = questions[:r.rules.QuestionsPerGame]
	}
	r.questions = questions
	r.index = -1
	r.history = nil
	r.usedIDs = make(map[string]bool)
	r.startedAt = r.now()

	catalog := r.rules.PowerUps
	if catalog == nil {
		catalog = DefaultPowerUps()
	}
	for _, p := range r.players {
		GrantPowerUps(p, catalog)
	}
	return r.transition(domain.PhasePlaying)
}

// NextQuestion opens a round at the next index. The false return means no
// question remains and the caller should end the game instead.
func (r *Room) NextQuestion() (domain.Question, int, bool, error) {
	if r.phase != domain.PhasePlaying && r.phase != domain.PhaseRevealing {
		return domain.Question{}, 0, false, fmt.Errorf("%w: next question from %s", domain.ErrIllegalTransition, r.phase)
	}
	if r.index+1 >= len(r.questions) {
		return domain.Question{}, 0, false, nil
	}
	if r.phase == domain.PhaseRevealing {
		if err := r.transition(domain.PhasePlaying); err != nil {
			return domain.Question{}, 0, false, err
		}
	}
	r.index++
	q := r.questions[r.index]
	r.usedIDs[q.ID] = true
	r.openRound(q)
	return q, r.index, true, nil
}

func (r *Room) openRound(q domain.Question) {
	r.tracker = NewTracker(r.rules.AnswerMode, r.rules.AllowLate, r.questionLimit(q))
	r.tracker.StartQuestion(r.now())
	r.roundOpen = true
}

func (r *Room) questionLimit(q domain.Question) time.Duration {
	sec := r.rules.TimeLimitSec
	if q.TimeLimitSec > 0 {
		sec = q.TimeLimitSec
	}
	return time.Duration(sec) * time.Second
}

// CurrentQuestion returns the open round's question.
func (r *Room) CurrentQuestion() (domain.Question, int, bool) {
	if !r.roundOpen {
		return domain.Question{}, 0, false
	}
	return r.questions[r.index], r.index, true
}

// QuestionCount returns the size of the active question set.
func (r *Room) QuestionCount() int { return len(r.questions) }

// ReplaceQuestion swaps the open round's question for a previously-unused
// one, resetting the round clock and answers. Used when the host wants to
// drop a bad question without ending the round.
func (r *Room) ReplaceQuestion(q domain.Question) error {
	if !r.roundOpen {
		return domain.ErrNoRoundOpen
	}
	if r.usedIDs[q.ID] {
		return domain.ErrQuestionNotFound
	}
	r.questions[r.index] = q
	r.usedIDs[q.ID] = true
	r.openRound(q)
	return nil
}

// SubmitAnswer records a player's answer for the open round, returning the
// 1-based submission position. Rejections come back as a reason, not an
// error; errors mean the message was not addressable at all.
func (r *Room) SubmitAnswer(playerID, value string, submittedAt time.Time) (int, domain.RejectReason, error) {
	if _, ok := r.players[playerID]; !ok {
		return 0, "", domain.ErrPlayerNotFound
	}
	if !r.roundOpen || r.phase != domain.PhasePlaying {
		log.Printf("room %s: answer from %s with no open round", r.code, playerID)
		return 0, "", domain.ErrNoRoundOpen
	}
	q := r.questions[r.index]
	pos, reason := r.tracker.Submit(playerID, q.ID, value, submittedAt)
	return pos, reason, nil
}

// ActivatePowerUp activates one of the player's available power-ups. The
// extra-time effect extends that player's personal deadline immediately;
// other effects apply when the round resolves.
func (r *Room) ActivatePowerUp(playerID, powerupID string) error {
	p, ok := r.players[playerID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	if err := ActivatePowerUp(p, powerupID); err != nil {
		return err
	}
	if pu, _ := ActiveEffect(p); pu.Effect == domain.EffectExtraTime && r.roundOpen {
		r.tracker.ExtendDeadline(playerID, ExtraTime(pu))
	}
	return nil
}

// RevealAnswer resolves the open round: validates every recorded answer,
// scores it, applies power-up effects, updates streaks, archives the round
// into history, and transitions playing -> revealing.
func (r *Room) RevealAnswer() (domain.CompletedRound, []domain.ScoreboardEntry, error) {
	if r.phase != domain.PhasePlaying || !r.roundOpen {
		return domain.CompletedRound{}, nil, fmt.Errorf("%w: reveal from %s", domain.ErrIllegalTransition, r.phase)
	}
	q := r.questions[r.index]
	limit := r.questionLimit(q)

	estimation := q.Kind == domain.AnswerNumeric && r.rules.Estimation != nil

	for _, id := range r.tracker.OrderedIDs() {
		a, _ := r.tracker.Answer(id)
		p := r.players[id]
		if p == nil {
			continue
		}

		correct, err := ValidateAnswer(q, a.Value)
		if err != nil {
			return domain.CompletedRound{}, nil, err
		}

		var points int
		if estimation {
			// Estimation rounds award closeness-based points even to
			// inexact guesses; only an exact match counts as correct for
			// streak purposes.
			points = r.estimationPoints(q, a.Value)
		} else if correct {
			points = CalculateScore(r.rules.Scoring, q, correct, p.Streak, a.Elapsed, limit).Total
		}

		if points > 0 {
			if pu, active := ActiveEffect(p); active {
				points = ApplyScoreEffect(pu, points)
			}
			p.Score += points
		}

		if correct {
			p.Streak++
		} else if pu, active := ActiveEffect(p); !active || !ShieldsStreak(pu) {
			p.Streak = 0
		}

		a.Correct = correct
		a.Points = points
		r.tracker.SetAnswer(a)
	}

	// Every player's active power-up is spent on round resolution, whether
	// or not its effect fired.
	for _, p := range r.players {
		ConsumeActivePowerUp(p)
	}

	completed := domain.CompletedRound{
		Question:  q,
		Index:     r.index,
		StartedAt: r.tracker.StartedAt(),
		Answers:   make(map[string]domain.PlayerAnswer, r.tracker.Count()),
		Order:     r.tracker.OrderedIDs(),
	}
	for _, a := range r.tracker.Answers() {
		completed.Answers[a.PlayerID] = a
	}
	r.history = append(r.history, completed)
	r.roundOpen = false

	if err := r.transition(domain.PhaseRevealing); err != nil {
		return domain.CompletedRound{}, nil, err
	}
	return completed, r.Scoreboard(), nil
}

// estimationPoints inverts the golf-style badness score into awarded points:
// points = max-score minus badness, floored at zero. An exact match's
// negative bonus therefore lands above max-score.
func (r *Room) estimationPoints(q domain.Question, raw string) int {
	guess, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	badness := CalculateEstimationScore(*r.rules.Estimation, q, guess)
	points := int(math.Round(r.rules.Estimation.MaxScore)) - badness
	if points < 0 {
		return 0
	}
	return points
}

// AdjustScore is a direct host override, independent of round state.
func (r *Room) AdjustScore(playerID string, delta int) error {
	p, ok := r.players[playerID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	p.Score += delta
	return nil
}

// EndGame transitions to finished and returns the final scoreboard.
func (r *Room) EndGame() ([]domain.ScoreboardEntry, error) {
	if err := r.transition(domain.PhaseFinished); err != nil {
		return nil, err
	}
	r.roundOpen = false
	r.finishedAt = r.now()
	return r.Scoreboard(), nil
}

// Rematch resets every retained player to initial values and returns the
// room to the lobby, preserving identities and connectivity.
func (r *Room) Rematch() error {
	if err := r.transition(domain.PhaseLobby); err != nil {
		return err
	}
	for _, p := range r.players {
		p.Score = 0
		p.Streak = 0
		p.PowerUps = domain.PowerUpState{}
	}
	r.questions = nil
	r.index = -1
	r.usedIDs = make(map[string]bool)
	r.history = nil
	r.tracker = nil
	r.roundOpen = false
	r.startedAt = time.Time{}
	r.finishedAt = time.Time{}
	return nil
}

// Scoreboard derives the ranked standings. Ranks are deterministic given
// scores only: ties share a rank and the next distinct score continues the
// sequence (100,100,80,50 ranks as 1,1,3,4).
func (r *Room) Scoreboard() []domain.ScoreboardEntry {
	entries := make([]domain.ScoreboardEntry, 0, len(r.players))
	var lastRound *domain.CompletedRound
	if n := len(r.history); n > 0 && !r.roundOpen {
		lastRound = &r.history[n-1]
	}
	for _, p := range r.players {
		e := domain.ScoreboardEntry{
			PlayerID: p.ID,
			Name:     p.Name,
			Score:    p.Score,
			Streak:   p.Streak,
		}
		if lastRound != nil {
			if a, ok := lastRound.Answers[p.ID]; ok {
				e.RoundCorrect = a.Correct
				e.RoundPoints = a.Points
			}
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Name < entries[j].Name
	})
	for i := range entries {
		if i > 0 && entries[i].Score == entries[i-1].Score {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
	}
	return entries
}

// Rank returns a player's current rank, or 0 if absent.
func (r *Room) Rank(playerID string) int {
	for _, e := range r.Scoreboard() {
		if e.PlayerID == playerID {
			return e.Rank
		}
	}
	return 0
}

// TimeRemaining recomputes the open round's remaining time on demand; the
// engine keeps no timer state between ticks.
func (r *Room) TimeRemaining() time.Duration {
	if !r.roundOpen {
		return 0
	}
	return r.tracker.TimeRemaining(r.now())
}

// FinishedAt returns when the game ended, or the zero time while it runs.
func (r *Room) FinishedAt() time.Time { return r.finishedAt }

// History returns the archived rounds.
func (r *Room) History() []domain.CompletedRound { return r.history }

// Snapshot captures the serializable room state for checkpointing.
func (r *Room) Snapshot() domain.RoomSnapshot {
	players := make(map[string]domain.Player, len(r.players))
	for id, p := range r.players {
		players[id] = *p
	}
	return domain.RoomSnapshot{
		Code:          r.code,
		Phase:         r.phase,
		Players:       players,
		Questions:     r.questions,
		QuestionIndex: r.index,
		History:       r.history,
		CreatedAt:     r.createdAt,
		StartedAt:     r.startedAt,
		FinishedAt:    r.finishedAt,
		TakenAt:       r.now(),
	}
}

// RestoreRoom rebuilds a room from a checkpoint. Any round that was open at
// snapshot time is not resumed; the host advances to the next question.
func RestoreRoom(snap domain.RoomSnapshot, rules Rules) *Room {
	r := NewRoom(snap.Code, rules)
	r.phase = snap.Phase
	r.questions = snap.Questions
	r.index = snap.QuestionIndex
	r.history = snap.History
	r.createdAt = snap.CreatedAt
	r.startedAt = snap.StartedAt
	r.finishedAt = snap.FinishedAt
	for id, p := range snap.Players {
		player := p
		player.Connected = false
		r.players[id] = &player
	}
	for _, h := range snap.History {
		r.usedIDs[h.Question.ID] = true
	}
	if r.index >= 0 && r.index < len(r.questions) {
		r.usedIDs[r.questions[r.index].ID] = true
	}
	return r
}
