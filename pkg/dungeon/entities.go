package dungeon

import "github.com/IlikeChooros/go-dungeon-mcts/pkg/planner"

// Default entity parameters. Tuning knobs, not rules.
const (
	HeroMaxHitpoints = 40
	MonsterDamage    = 10
	MonsterAggroDist = 6
	PotionHeal       = 10
	RewardValue      = 1
)

// Hero is the controlled character.
type Hero struct {
	Pos          planner.Point
	Hitpoints    int
	MaxHitpoints int
	Score        int
}

func (h *Hero) Alive() bool {
	return h != nil && h.Hitpoints > 0
}

// Monster deals contact damage and chases the hero when close enough.
type Monster struct {
	Pos    planner.Point
	Damage int
	Alive  bool
}

// Potion heals the hero on pickup, capped at MaxHitpoints.
type Potion struct {
	Pos   planner.Point
	Heal  int
	Taken bool
}

// Reward adds to the hero's score on pickup.
type Reward struct {
	Pos   planner.Point
	Value int
	Taken bool
}
