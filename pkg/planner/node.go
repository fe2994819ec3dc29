package planner

import (
	"math"
	"math/rand"
	"slices"
)

// Node is one vertex of the per-decision search tree. It exclusively owns its
// state snapshot; the parent pointer is a non-owning back-reference, nil for
// the root. Children are stored in expansion order.
type Node[S WorldState[S]] struct {
	State          S
	Parent         *Node[S]
	Children       []*Node[S]
	IncomingAction Action

	VisitCount int
	ValueSum   float64

	untried []Action
}

// NewNode wraps a state, computing the untried action set once by probing the
// four directions. The root is created with a nil parent and Idle.
func NewNode[S WorldState[S]](state S, parent *Node[S], incoming Action) *Node[S] {
	return &Node[S]{
		State:          state,
		Parent:         parent,
		IncomingAction: incoming,
		untried:        LegalActions(state),
	}
}

// IsTerminal reports whether the wrapped state ends the search here, either
// because the run halted or because there is no living hero.
func (node *Node[S]) IsTerminal() bool {
	return node.State.IsTerminal() || !node.State.HasHero() || !node.State.HeroAlive()
}

func (node *Node[S]) IsFullyExpanded() bool {
	return len(node.untried) == 0
}

// UntriedCount is the number of legal actions not yet expanded into children.
func (node *Node[S]) UntriedCount() int {
	return len(node.untried)
}

// TakeUntriedAction removes and returns a uniformly random untried action.
// Idle means there is nothing left to expand.
func (node *Node[S]) TakeUntriedAction(rng *rand.Rand) Action {
	if len(node.untried) == 0 {
		return Idle
	}
	i := rng.Intn(len(node.untried))
	a := node.untried[i]
	node.untried = slices.Delete(node.untried, i, i+1)
	return a
}

// SelectBestChild returns the child maximizing the UCB1 score
//
//	value/visits + c * sqrt(ln(parentVisits+1)/visits)
//
// An unvisited child is returned immediately, forced exploration takes
// priority over the formula. Nil when the node has no children.
func (node *Node[S]) SelectBestChild(c float64) *Node[S] {
	var best *Node[S]
	bestScore := math.Inf(-1)
	lnVisits := math.Log(float64(node.VisitCount + 1))

	for _, child := range node.Children {
		if child.VisitCount == 0 {
			return child
		}
		visits := float64(child.VisitCount)
		score := child.ValueSum/visits + c*math.Sqrt(lnVisits/visits)
		if score > bestScore {
			bestScore = score
			best = child
		}
	}
	return best
}
