package game

import (
	"math"
	"time"

	"party-quiz-service/internal/domain"
)

// ScoreConfig holds the knobs for regular (choice/text) question scoring.
type ScoreConfig struct {
	BasePoints int `yaml:"basePoints" json:"basePoints"`

	TimeBonusEnabled bool    `yaml:"timeBonusEnabled" json:"timeBonusEnabled"`
	MaxTimeBonus     float64 `yaml:"maxTimeBonus" json:"maxTimeBonus"`
	DecayPerSecond   float64 `yaml:"decayPerSecond" json:"decayPerSecond"`

	StreakEnabled       bool    `yaml:"streakEnabled" json:"streakEnabled"`
	MultiplierPerStreak float64 `yaml:"multiplierPerStreak" json:"multiplierPerStreak"`
	MaxMultiplier       float64 `yaml:"maxMultiplier" json:"maxMultiplier"`

	DifficultyEnabled bool               `yaml:"difficultyEnabled" json:"difficultyEnabled"`
	DifficultyFactors map[string]float64 `yaml:"difficultyFactors" json:"difficultyFactors"`
}

// EstimationConfig holds the knobs for golf-style numeric scoring.
// The returned score is an ascending badness measure: lower is better.
type EstimationConfig struct {
	MinScore        float64 `yaml:"minScore" json:"minScore"`
	MaxScore        float64 `yaml:"maxScore" json:"maxScore"`
	ExactMatchBonus float64 `yaml:"exactMatchBonus" json:"exactMatchBonus"`
	CapAtMax        bool    `yaml:"capAtMax" json:"capAtMax"`
}

// ScoreBreakdown explains a computed score. The Total is canonical; the
// component fields are cosmetic so a UI can show how it was built.
type ScoreBreakdown struct {
	Base                 int     `json:"base"`
	TimeBonus            int     `json:"timeBonus"`
	StreakMultiplier     float64 `json:"streakMultiplier"`
	DifficultyMultiplier float64 `json:"difficultyMultiplier"`
	Total                int     `json:"total"`
}

// CalculateScore computes the points for one answer to a choice/text
// question. Wrong answers score zero unconditionally.
func CalculateScore(cfg ScoreConfig, q domain.Question, correct bool, streak int, elapsed, timeLimit time.Duration) ScoreBreakdown {
	if !correct {
		return ScoreBreakdown{StreakMultiplier: 1, DifficultyMultiplier: 1}
	}

	base := cfg.BasePoints
	if q.Points > 0 {
		base = q.Points
	}

	bonus := 0
	if cfg.TimeBonusEnabled && (timeLimit <= 0 || elapsed < timeLimit) {
		raw := cfg.MaxTimeBonus - cfg.DecayPerSecond*elapsed.Seconds()
		if raw > 0 {
			bonus = int(math.Round(raw))
		}
	}

	streakMult := 1.0
	if cfg.StreakEnabled && cfg.MultiplierPerStreak > 0 {
		streakMult = 1 + math.Min(float64(streak)*cfg.MultiplierPerStreak, cfg.MaxMultiplier-1)
	}

	diffMult := 1.0
	if cfg.DifficultyEnabled {
		if f, ok := cfg.DifficultyFactors[q.Difficulty]; ok && f > 0 {
			diffMult = f
		}
	}

	total := int(math.Round(float64(base+bonus) * streakMult * diffMult))
	return ScoreBreakdown{
		Base:                 base,
		TimeBonus:            bonus,
		StreakMultiplier:     streakMult,
		DifficultyMultiplier: diffMult,
		Total:                total,
	}
}

// CalculateEstimationScore computes a golf-style score for a numeric guess:
// distance from the target scaled into [MinScore, ...], lower is better.
// An exact match short-circuits to ExactMatchBonus, which may be negative.
// Collapsed bounds (range <= 0) yield the worst possible score directly.
func CalculateEstimationScore(cfg EstimationConfig, q domain.Question, guess float64) int {
	if guess == q.Target {
		return int(math.Round(cfg.ExactMatchBonus))
	}

	span := q.UpperBound - q.LowerBound
	if span <= 0 {
		return int(math.Round(cfg.MaxScore))
	}

	normalized := math.Abs(guess-q.Target) / span
	score := cfg.MinScore + normalized*(cfg.MaxScore-cfg.MinScore)*100
	if cfg.CapAtMax && score > cfg.MaxScore {
		score = cfg.MaxScore
	}
	return int(math.Round(score))
}
