package planner

// SearchStats is a snapshot of one decision's progress.
type SearchStats struct {
	Cycles   int
	MaxDepth int
	TimeMs   int
	Cps      int

	// Root's current best action by average value, Idle until the root has a
	// visited child.
	BestAction Action
	BestValue  float64
}

type ListenerFunc func(SearchStats)

// DecisionListener receives progress callbacks from a running decision.
// The search is single-threaded, callbacks run inline on the calling
// goroutine.
type DecisionListener struct {
	onCycle ListenerFunc
	onStop  ListenerFunc
	nCycles int
}

func NewDecisionListener() DecisionListener {
	return DecisionListener{nCycles: 1}
}

// OnCycle attaches a callback invoked every N iterations, see
// SetCycleInterval. Evaluating the root on every cycle slows the search
// down, use a coarse interval outside of debugging.
func (listener *DecisionListener) OnCycle(f ListenerFunc) *DecisionListener {
	listener.onCycle = f
	return listener
}

// OnStop attaches a callback invoked once, after the last iteration.
func (listener *DecisionListener) OnStop(f ListenerFunc) *DecisionListener {
	listener.onStop = f
	return listener
}

func (listener *DecisionListener) SetCycleInterval(n int) *DecisionListener {
	if n < 1 {
		n = 1
	}
	listener.nCycles = n
	return listener
}
