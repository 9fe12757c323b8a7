package game

import (
	"testing"
	"time"

	"party-quiz-service/internal/domain"
)

func timeBonusConfig() ScoreConfig {
	return ScoreConfig{
		BasePoints:       100,
		TimeBonusEnabled: true,
		MaxTimeBonus:     50,
		DecayPerSecond:   5,
	}
}

func TestTimeBonusDecay(t *testing.T) {
	cfg := timeBonusConfig()
	q := domain.Question{Kind: domain.AnswerMultipleChoice}
	limit := 20 * time.Second

	cases := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 50},
		{5 * time.Second, 25},
		{10 * time.Second, 0},
		{15 * time.Second, 0}, // floored at zero, never negative
		{19 * time.Second, 0},
	}
	for _, tc := range cases {
		got := CalculateScore(cfg, q, true, 0, tc.elapsed, limit)
		if got.TimeBonus != tc.want {
			t.Errorf("elapsed %v: time bonus = %d, want %d", tc.elapsed, got.TimeBonus, tc.want)
		}
	}

	atLimit := CalculateScore(cfg, q, true, 0, limit, limit)
	if atLimit.TimeBonus != 0 {
		t.Fatalf("expected zero bonus at the limit, got %d", atLimit.TimeBonus)
	}
}

func TestWrongAnswerScoresZero(t *testing.T) {
	cfg := timeBonusConfig()
	got := CalculateScore(cfg, domain.Question{}, false, 10, 0, 20*time.Second)
	if got.Total != 0 {
		t.Fatalf("expected zero total for wrong answer, got %d", got.Total)
	}
}

func TestStreakMultiplier(t *testing.T) {
	cfg := ScoreConfig{
		BasePoints:          100,
		StreakEnabled:       true,
		MultiplierPerStreak: 0.1,
		MaxMultiplier:       2,
	}
	q := domain.Question{}

	cases := []struct {
		streak int
		want   float64
	}{
		{0, 1.0},
		{5, 1.5},
		{20, 2.0}, // capped
	}
	for _, tc := range cases {
		got := CalculateScore(cfg, q, true, tc.streak, 0, 0)
		if got.StreakMultiplier != tc.want {
			t.Errorf("streak %d: multiplier = %v, want %v", tc.streak, got.StreakMultiplier, tc.want)
		}
	}

	if got := CalculateScore(cfg, q, true, 5, 0, 0); got.Total != 150 {
		t.Fatalf("expected 100 x 1.5 = 150, got %d", got.Total)
	}
}

func TestDifficultyMultiplier(t *testing.T) {
	cfg := ScoreConfig{
		BasePoints:        100,
		DifficultyEnabled: true,
		DifficultyFactors: map[string]float64{"hard": 1.5},
	}

	hard := CalculateScore(cfg, domain.Question{Difficulty: "hard"}, true, 0, 0, 0)
	if hard.Total != 150 {
		t.Fatalf("expected 150 for hard question, got %d", hard.Total)
	}

	unknown := CalculateScore(cfg, domain.Question{Difficulty: "impossible"}, true, 0, 0, 0)
	if unknown.Total != 100 {
		t.Fatalf("expected factor 1 for unknown difficulty, got %d", unknown.Total)
	}
}

func TestQuestionPointOverride(t *testing.T) {
	cfg := ScoreConfig{BasePoints: 100}
	got := CalculateScore(cfg, domain.Question{Points: 250}, true, 0, 0, 0)
	if got.Base != 250 || got.Total != 250 {
		t.Fatalf("expected question override 250, got base=%d total=%d", got.Base, got.Total)
	}
}

func TestEstimationScore(t *testing.T) {
	cfg := EstimationConfig{
		MinScore:        0,
		MaxScore:        100,
		ExactMatchBonus: -10,
		CapAtMax:        true,
	}
	q := domain.Question{
		Kind:       domain.AnswerNumeric,
		Target:     1945,
		HasTarget:  true,
		LowerBound: 1900,
		UpperBound: 2000,
	}

	if got := CalculateEstimationScore(cfg, q, 1945); got != -10 {
		t.Fatalf("exact match: got %d, want -10", got)
	}

	// normalized 0.5 -> 0 + 0.5*100*100 = 5000, capped at 100
	if got := CalculateEstimationScore(cfg, q, 1995); got != 100 {
		t.Fatalf("guess 1995: got %d, want capped 100", got)
	}

	uncapped := cfg
	uncapped.CapAtMax = false
	if got := CalculateEstimationScore(uncapped, q, 1995); got != 5000 {
		t.Fatalf("uncapped guess 1995: got %d, want 5000", got)
	}
}

func TestEstimationCollapsedBounds(t *testing.T) {
	cfg := EstimationConfig{MinScore: 0, MaxScore: 100}
	q := domain.Question{
		Kind:       domain.AnswerNumeric,
		Target:     10,
		HasTarget:  true,
		LowerBound: 50,
		UpperBound: 50,
	}

	if got := CalculateEstimationScore(cfg, q, 11); got != 100 {
		t.Fatalf("collapsed bounds: got %d, want worst score 100", got)
	}
}
