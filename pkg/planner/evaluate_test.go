package planner

import "testing"

func TestEvaluateDeathDominates(t *testing.T) {
	tw := parseWorld(`
####
#HE#
####`)
	tw.alive = false
	tw.score = 10000
	ev := NewHeuristicEvaluator[*testWorld](DefaultEvalWeights())
	if got := ev.Evaluate(tw); got != -1000 {
		t.Fatalf("dead hero score = %v, want -1000", got)
	}

	tw.hasHero = false
	tw.alive = true
	if got := ev.Evaluate(tw); got != -1000 {
		t.Fatalf("absent hero score = %v, want -1000", got)
	}
}

func TestEvaluateIsPure(t *testing.T) {
	tw := parseWorld(`
#####
#H.E#
#####`)
	tw.score = 3
	tw.hp = 14
	ev := NewHeuristicEvaluator[*testWorld](DefaultEvalWeights())
	a := ev.Evaluate(tw.Clone())
	b := ev.Evaluate(tw.Clone())
	if a != b {
		t.Fatalf("evaluation not pure: %v != %v", a, b)
	}
}

func TestEvaluateTerminalBonus(t *testing.T) {
	tw := parseWorld(`
####
#HE#
####`)
	ev := NewHeuristicEvaluator[*testWorld](DefaultEvalWeights())
	base := ev.Evaluate(tw)

	done := tw.Clone()
	done.Apply(Right) // steps onto the exit, run halts
	if !done.IsTerminal() {
		t.Fatal("expected terminal state after stepping onto the exit")
	}
	if got := ev.Evaluate(done); got <= base {
		t.Fatalf("terminal state %v not above non-terminal %v", got, base)
	}
}

func TestEvaluateUnreachableExit(t *testing.T) {
	tw := parseWorld(`
#####
#H#E#
#####`)
	tw.nanDistance = true
	ev := NewHeuristicEvaluator[*testWorld](DefaultEvalWeights())

	// NaN distance degrades to width+height, keeping the score finite.
	want := -float64(5+3) + float64(tw.hp)*0.5
	if got := ev.Evaluate(tw); got != want {
		t.Fatalf("unreachable exit score = %v, want %v", got, want)
	}
}

func TestEvaluateNoExits(t *testing.T) {
	tw := parseWorld(`
####
#H.#
####`)
	ev := NewHeuristicEvaluator[*testWorld](DefaultEvalWeights())
	want := -float64(4+3) + float64(tw.hp)*0.5
	if got := ev.Evaluate(tw); got != want {
		t.Fatalf("no-exit score = %v, want %v", got, want)
	}
}

func TestTargetExitIndex(t *testing.T) {
	cases := []struct {
		exits, want int
	}{
		{0, -1},
		{1, 0},
		{2, 1},
		{5, 1},
	}
	for _, c := range cases {
		if got := TargetExitIndex(c.exits); got != c.want {
			t.Errorf("TargetExitIndex(%d) = %d, want %d", c.exits, got, c.want)
		}
	}
}

func TestCustomWeights(t *testing.T) {
	tw := parseWorld(`
####
#HE#
####`)
	tw.score = 2
	weights := EvalWeights{
		DeathPenalty:   -1,
		TerminalBonus:  0,
		ScoreWeight:    1,
		HitpointWeight: 0,
	}
	ev := NewHeuristicEvaluator[*testWorld](weights)
	// distance to the only exit is 1, score weight 1
	if got := ev.Evaluate(tw); got != -1+2 {
		t.Fatalf("custom-weight score = %v, want 1", got)
	}
}
