package planner

import "math"

// EvalWeights are the tuning knobs of the heuristic evaluation. The defaults
// are empirically chosen, not correctness requirements.
type EvalWeights struct {
	DeathPenalty   float64
	TerminalBonus  float64
	ScoreWeight    float64
	HitpointWeight float64
}

func DefaultEvalWeights() EvalWeights {
	return EvalWeights{
		DeathPenalty:   -1000,
		TerminalBonus:  500,
		ScoreWeight:    10,
		HitpointWeight: 0.5,
	}
}

// Evaluator scores a rollout's final state. Implementations must be pure and
// must not fail: missing inputs degrade to the most pessimistic score.
type Evaluator[S WorldState[S]] interface {
	Evaluate(state S) float64
}

// HeuristicEvaluator combines the terminal bonus, distance to the target
// exit, accumulated score and remaining hit points.
type HeuristicEvaluator[S WorldState[S]] struct {
	Weights EvalWeights
}

func NewHeuristicEvaluator[S WorldState[S]](weights EvalWeights) HeuristicEvaluator[S] {
	return HeuristicEvaluator[S]{Weights: weights}
}

func (h HeuristicEvaluator[S]) Evaluate(state S) float64 {
	// Death dominates everything else.
	if !state.HasHero() || !state.HeroAlive() {
		return h.Weights.DeathPenalty
	}

	score := 0.0
	if state.IsTerminal() {
		score += h.Weights.TerminalBonus
	}
	score -= exitDistance(state)
	score += float64(state.Score()) * h.Weights.ScoreWeight
	score += float64(state.Hitpoints()) * h.Weights.HitpointWeight
	return score
}

// exitDistance is the heuristic distance to the target exit, substituting the
// sum of the map dimensions when there is no exit or no path.
func exitDistance[S WorldState[S]](state S) float64 {
	w, hgt := state.Bounds()
	worst := float64(w + hgt)

	idx := TargetExitIndex(state.ExitCount())
	if idx < 0 {
		return worst
	}
	dist := state.DistanceTo(state.Exit(idx))
	if math.IsNaN(dist) {
		return worst
	}
	return dist
}

// TargetExitIndex prefers the second exit when one exists, otherwise the
// only one. Negative when there are no exits at all.
func TargetExitIndex(exitCount int) int {
	if exitCount <= 0 {
		return -1
	}
	return min(1, exitCount-1)
}
