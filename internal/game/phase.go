package game

import "party-quiz-service/internal/domain"

// legalTransitions is the exhaustive phase transition table. Any edge not
// listed here is rejected as a no-op.
var legalTransitions = map[domain.Phase][]domain.Phase{
	domain.PhaseLobby:     {domain.PhasePlaying},
	domain.PhasePlaying:   {domain.PhaseRevealing, domain.PhaseFinished},
	domain.PhaseRevealing: {domain.PhasePlaying, domain.PhaseFinished},
	domain.PhaseFinished:  {domain.PhaseLobby},
}

// CanTransition reports whether moving from one phase to another is legal.
func CanTransition(from, to domain.Phase) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
