package game

import (
	"math"
	"time"

	"party-quiz-service/internal/domain"
)

// DefaultPowerUps is the built-in catalog granted to players when a game
// starts, unless the room rules supply their own.
func DefaultPowerUps() []domain.PowerUp {
	return []domain.PowerUp{
		{ID: "double-points", Effect: domain.EffectDoublePoints, Value: 2},
		{ID: "shield", Effect: domain.EffectShield},
		{ID: "extra-time", Effect: domain.EffectExtraTime, Value: 10},
	}
}

// GrantPowerUps replaces a player's inventory with fresh copies of the
// catalog, clearing active and used state.
func GrantPowerUps(p *domain.Player, catalog []domain.PowerUp) {
	p.PowerUps = domain.PowerUpState{
		Available: append([]domain.PowerUp(nil), catalog...),
	}
}

// ActivatePowerUp moves a power-up from available to active. It fails
// without mutating anything if the id is unknown or another power-up is
// already active.
func ActivatePowerUp(p *domain.Player, powerupID string) error {
	if p.PowerUps.Active != nil {
		return domain.ErrPowerUpAlreadyActive
	}
	for i, pu := range p.PowerUps.Available {
		if pu.ID == powerupID {
			active := pu
			p.PowerUps.Active = &active
			p.PowerUps.Available = append(p.PowerUps.Available[:i], p.PowerUps.Available[i+1:]...)
			return nil
		}
	}
	return domain.ErrPowerUpUnavailable
}

// ConsumeActivePowerUp retires the active power-up into the used list,
// whether or not its effect fired this round. No-op when nothing is active.
func ConsumeActivePowerUp(p *domain.Player) {
	if p.PowerUps.Active == nil {
		return
	}
	p.PowerUps.UsedIDs = append(p.PowerUps.UsedIDs, p.PowerUps.Active.ID)
	p.PowerUps.Active = nil
}

// ActiveEffect returns the player's active effect, if any.
func ActiveEffect(p *domain.Player) (domain.PowerUp, bool) {
	if p.PowerUps.Active == nil {
		return domain.PowerUp{}, false
	}
	return *p.PowerUps.Active, true
}

// scoreModifiers maps effect kinds to score transforms applied before a
// round result is committed. Effects absent here (remove-two-wrong,
// skip-question, steal-points) have caller-applied mechanics and do not
// touch the computed score.
var scoreModifiers = map[domain.PowerUpEffect]func(points int, value float64) int{
	domain.EffectDoublePoints: func(points int, value float64) int {
		if value <= 0 {
			value = 2
		}
		return int(math.Round(float64(points) * value))
	},
}

// ApplyScoreEffect runs the score modifier for the effect, if one exists.
func ApplyScoreEffect(pu domain.PowerUp, points int) int {
	if mod, ok := scoreModifiers[pu.Effect]; ok {
		return mod(points, pu.Value)
	}
	return points
}

// ShieldsStreak reports whether the effect suppresses a streak reset on a
// wrong answer for the round.
func ShieldsStreak(pu domain.PowerUp) bool {
	return pu.Effect == domain.EffectShield
}

// ExtraTime returns the personal deadline extension the effect grants.
func ExtraTime(pu domain.PowerUp) time.Duration {
	if pu.Effect != domain.EffectExtraTime {
		return 0
	}
	secs := pu.Value
	if secs <= 0 {
		secs = 10
	}
	return time.Duration(secs * float64(time.Second))
}
