// Package agent wires controllers to the dungeon: the MCTS planner, a
// random baseline and a tabular Q-learning controller with a persisted
// table.
package agent

import (
	"math/rand"

	"github.com/IlikeChooros/go-dungeon-mcts/pkg/dungeon"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/planner"
)

// Controller picks one action per turn. EndEpisode is called once with the
// final state when a run ends, before the controller is reused for the next
// one.
type Controller interface {
	Name() string
	NextAction(m *dungeon.PlayMap) planner.Action
	EndEpisode(final *dungeon.PlayMap)
}

// Search wraps a planner engine as a Controller.
type Search struct {
	Engine *planner.Engine[*dungeon.PlayMap]
}

func NewSearch(cfg planner.Config) *Search {
	return &Search{Engine: planner.NewEngine[*dungeon.PlayMap](cfg)}
}

func (s *Search) Name() string { return "mcts" }

func (s *Search) NextAction(m *dungeon.PlayMap) planner.Action {
	return s.Engine.ChooseAction(m)
}

func (s *Search) EndEpisode(*dungeon.PlayMap) {}

// Random picks a uniformly random legal action, the weakest baseline.
type Random struct {
	rng *rand.Rand
}

func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Name() string { return "random" }

func (r *Random) NextAction(m *dungeon.PlayMap) planner.Action {
	legal := planner.LegalActions(m)
	if len(legal) == 0 {
		return planner.Idle
	}
	return legal[r.rng.Intn(len(legal))]
}

func (r *Random) EndEpisode(*dungeon.PlayMap) {}
