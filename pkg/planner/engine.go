// Package planner implements a Monte-Carlo Tree Search controller for a
// grid-dungeon agent. Each decision clones the live world state once, builds
// a fresh search tree of simulated futures and returns the single action of
// the root's best child. Trees are never reused across decisions: the
// surrounding game mutates independently between calls, so a stale tree
// would no longer match the live state.
package planner

import (
	"math/rand"
	"time"
)

// Config holds the search parameters of an Engine. Zero fields fall back to
// the package defaults.
type Config struct {
	Iterations   int
	RolloutDepth int
	Exploration  float64
	Weights      EvalWeights
}

func DefaultConfig() Config {
	return Config{
		Iterations:   DefaultIterations,
		RolloutDepth: DefaultRolloutDepth,
		Exploration:  DefaultExploration,
		Weights:      DefaultEvalWeights(),
	}
}

// Engine runs the decision loop. One decision is fully synchronous: all
// iterations run to completion on the calling goroutine before any action is
// returned, and the fixed iteration budget is the only bound on latency.
type Engine[S WorldState[S]] struct {
	cfg       Config
	evaluator Evaluator[S]
	rng       *rand.Rand
	listener  *DecisionListener
	stats     SearchStats
}

func NewEngine[S WorldState[S]](cfg Config) *Engine[S] {
	if cfg.Iterations <= 0 {
		cfg.Iterations = DefaultIterations
	}
	if cfg.RolloutDepth <= 0 {
		cfg.RolloutDepth = DefaultRolloutDepth
	}
	if cfg.Exploration <= 0 {
		cfg.Exploration = DefaultExploration
	}
	if cfg.Weights == (EvalWeights{}) {
		cfg.Weights = DefaultEvalWeights()
	}
	return &Engine[S]{
		cfg:       cfg,
		evaluator: NewHeuristicEvaluator[S](cfg.Weights),
		rng:       rand.New(rand.NewSource(SeedGeneratorFn())),
		listener:  &DecisionListener{nCycles: 1},
	}
}

// SetRand injects the random source used for expansion and rollout sampling,
// the engine's only source of nondeterminism.
func (e *Engine[S]) SetRand(rng *rand.Rand) {
	if rng != nil {
		e.rng = rng
	}
}

// SetEvaluator swaps the rollout scoring function, for example for a learned
// value network. Nil restores the heuristic one.
func (e *Engine[S]) SetEvaluator(ev Evaluator[S]) {
	if ev == nil {
		ev = NewHeuristicEvaluator[S](e.cfg.Weights)
	}
	e.evaluator = ev
}

func (e *Engine[S]) SetListener(listener DecisionListener) {
	*e.listener = listener
}

func (e *Engine[S]) Config() Config {
	return e.cfg
}

// Stats describes the most recent decision.
func (e *Engine[S]) Stats() SearchStats {
	return e.stats
}

// ChooseAction runs the full iteration budget against a clone of live and
// returns the most promising action. It never fails: with no hero, a dead
// hero or an already finished run it returns Idle without searching, and
// with no expandable children it falls back to any directly legal action.
func (e *Engine[S]) ChooseAction(live S) Action {
	e.stats = SearchStats{BestAction: Idle}
	if !live.HasHero() || !live.HeroAlive() || live.IsTerminal() {
		return Idle
	}

	start := time.Now()
	root := NewNode(live.Clone(), nil, Idle)

	for i := 0; i < e.cfg.Iterations; i++ {
		node := e.selection(root)
		if !node.IsTerminal() {
			node = e.expand(node)
		}
		reward := e.simulate(node.State)
		backpropagate(node, reward)

		e.stats.Cycles++
		if e.listener.onCycle != nil && e.stats.Cycles%e.listener.nCycles == 0 {
			e.snapshotStats(root, start)
			e.listener.onCycle(e.stats)
		}
	}

	e.snapshotStats(root, start)
	if e.listener.onStop != nil {
		e.listener.onStop(e.stats)
	}
	if e.stats.BestAction != Idle {
		return e.stats.BestAction
	}

	// Root had no (visited) children, e.g. zero legal moves at the outset.
	if legal := LegalActions(live); len(legal) > 0 {
		return legal[0]
	}
	return Idle
}

// selection descends from the root while the current node is non-terminal
// and fully expanded, following the UCB1 policy.
func (e *Engine[S]) selection(root *Node[S]) *Node[S] {
	node := root
	depth := 0
	for !node.IsTerminal() && node.IsFullyExpanded() {
		next := node.SelectBestChild(e.cfg.Exploration)
		if next == nil {
			break
		}
		node = next
		depth++
	}
	if depth > e.stats.MaxDepth {
		e.stats.MaxDepth = depth
	}
	return node
}

// expand consumes one untried action and attaches the resulting child. When
// nothing is left to try the node itself becomes the simulation source.
func (e *Engine[S]) expand(node *Node[S]) *Node[S] {
	action := node.TakeUntriedAction(e.rng)
	if action == Idle {
		return node
	}
	next := node.State.Clone()
	next.Apply(action)
	child := NewNode(next, node, action)
	node.Children = append(node.Children, child)
	return child
}

// simulate plays a bounded random walk from a clone of state and scores the
// end position.
func (e *Engine[S]) simulate(state S) float64 {
	sim := state.Clone()
	if !sim.HasHero() {
		return e.cfg.Weights.DeathPenalty
	}
	for depth := 0; depth < e.cfg.RolloutDepth; depth++ {
		if sim.IsTerminal() || !sim.HasHero() || !sim.HeroAlive() {
			break
		}
		legal := LegalActions(sim)
		if len(legal) == 0 {
			break
		}
		sim.Apply(legal[e.rng.Intn(len(legal))])
	}
	return e.evaluator.Evaluate(sim)
}

// backpropagate adds the rollout reward to every node on the path up to and
// including the root.
func backpropagate[S WorldState[S]](node *Node[S], reward float64) {
	for n := node; n != nil; n = n.Parent {
		n.VisitCount++
		n.ValueSum += reward
	}
}

func (e *Engine[S]) snapshotStats(root *Node[S], start time.Time) {
	e.stats.TimeMs = int(time.Since(start).Milliseconds())
	if e.stats.TimeMs > 0 {
		e.stats.Cps = e.stats.Cycles * 1000 / e.stats.TimeMs
	} else {
		e.stats.Cps = e.stats.Cycles * 1000
	}
	// Final pick is pure exploitation: exploration weight 0.
	if best := root.SelectBestChild(0); best != nil && best.VisitCount > 0 {
		e.stats.BestAction = best.IncomingAction
		e.stats.BestValue = best.ValueSum / float64(best.VisitCount)
	} else {
		e.stats.BestAction = Idle
		e.stats.BestValue = 0
	}
}
