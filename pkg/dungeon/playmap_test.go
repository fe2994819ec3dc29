package dungeon

import (
	"math"
	"testing"

	"github.com/IlikeChooros/go-dungeon-mcts/pkg/planner"
)

func TestParseRejectsBadLayouts(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Fatal("empty layout accepted")
	}
	if _, err := Parse("##\n#"); err == nil {
		t.Fatal("ragged layout accepted")
	}
	if _, err := Parse("#?#"); err == nil {
		t.Fatal("unknown rune accepted")
	}
	if _, err := Parse("HH"); err == nil {
		t.Fatal("two heroes accepted")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	m := MustParse(`
#####
#H.R#
#.M.#
#..E#
#####`)
	clone := m.Clone()
	clone.Apply(planner.Right)
	clone.Apply(planner.Right)

	if m.HeroPosition() != (planner.Point{X: 1, Y: 1}) {
		t.Fatal("applying to the clone moved the original hero")
	}
	if m.Score() != 0 {
		t.Fatal("clone pickup leaked into the original")
	}
	if m.Turn() != 0 {
		t.Fatal("clone turn counter leaked into the original")
	}
}

func TestApplyMoveAndPickup(t *testing.T) {
	m := MustParse(`
#####
#HRP#
#####`)
	m.Hero().Hitpoints = 10

	m.Apply(planner.Right)
	if m.Score() != RewardValue {
		t.Fatalf("score = %d after reward pickup, want %d", m.Score(), RewardValue)
	}
	m.Apply(planner.Right)
	if m.Hitpoints() != 10+PotionHeal {
		t.Fatalf("hitpoints = %d after potion, want %d", m.Hitpoints(), 10+PotionHeal)
	}
}

func TestPotionCapsAtMax(t *testing.T) {
	m := MustParse(`
####
#HP#
####`)
	m.Apply(planner.Right)
	if m.Hitpoints() != HeroMaxHitpoints {
		t.Fatalf("hitpoints = %d, want cap %d", m.Hitpoints(), HeroMaxHitpoints)
	}
}

func TestApplyIntoWallKeepsPosition(t *testing.T) {
	m := MustParse(`
###
#H#
#.#
###`)
	m.Apply(planner.Right)
	if m.HeroPosition() != (planner.Point{X: 1, Y: 1}) {
		t.Fatal("hero moved into a wall")
	}
}

func TestExitHaltsRun(t *testing.T) {
	m := MustParse(`
####
#HE#
####`)
	m.Apply(planner.Right)
	if !m.IsTerminal() {
		t.Fatal("run not halted on the exit")
	}
	pos := m.HeroPosition()
	m.Apply(planner.Left)
	if m.HeroPosition() != pos {
		t.Fatal("halted run still applied an action")
	}
}

func TestHeroKillsMonsterOnContact(t *testing.T) {
	m := MustParse(`
####
#HM#
####`)
	m.Apply(planner.Right)
	if m.Monsters()[0].Alive {
		t.Fatal("monster survived the hero's attack")
	}
	if m.Hitpoints() != HeroMaxHitpoints-MonsterDamage {
		t.Fatalf("hitpoints = %d, want %d", m.Hitpoints(), HeroMaxHitpoints-MonsterDamage)
	}
}

func TestMonsterChasesAndHits(t *testing.T) {
	m := MustParse(`
######
#H.M.#
######`)
	// Idle turn: the monster steps next to the hero.
	m.Apply(planner.Idle)
	if got := m.Monsters()[0].Pos; got != (planner.Point{X: 2, Y: 1}) {
		t.Fatalf("monster at %v, want one step toward the hero", got)
	}
	// Next turn it walks onto the hero and deals contact damage.
	m.Apply(planner.Idle)
	if m.Hitpoints() != HeroMaxHitpoints-MonsterDamage {
		t.Fatalf("hitpoints = %d, want %d", m.Hitpoints(), HeroMaxHitpoints-MonsterDamage)
	}
}

func TestMonsterDeathEndsHero(t *testing.T) {
	m := MustParse(`
####
#HM#
####`)
	m.Hero().Hitpoints = MonsterDamage
	m.Apply(planner.Right)
	if m.HeroAlive() {
		t.Fatal("hero survived lethal damage")
	}
	if m.IsTerminal() {
		t.Fatal("death must not halt the run, HeroAlive covers it")
	}
}

func TestDistanceTo(t *testing.T) {
	m := MustParse(`
#####
#H#E#
#...#
#####`)
	// Around the inner wall: down, right, right, up.
	if got := m.DistanceTo(planner.Point{X: 3, Y: 1}); got != 4 {
		t.Fatalf("distance = %v, want 4", got)
	}
	if got := m.DistanceTo(m.HeroPosition()); got != 0 {
		t.Fatalf("distance to self = %v, want 0", got)
	}
}

func TestDistanceToUnreachable(t *testing.T) {
	m := MustParse(`
#####
#H#E#
#####`)
	if got := m.DistanceTo(planner.Point{X: 3, Y: 1}); !math.IsNaN(got) {
		t.Fatalf("distance past a wall = %v, want NaN", got)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	params := DefaultGenParams()
	params.Seed = 7
	a := Generate(params)
	b := Generate(params)
	if a.String() != b.String() {
		t.Fatal("same seed generated different dungeons")
	}
	if a.ExitCount() == 0 {
		t.Fatal("generated dungeon without exits")
	}
	if !a.HasHero() || !a.HeroAlive() {
		t.Fatal("generated dungeon without a living hero")
	}
}

func TestGenerateExitReachable(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		params := DefaultGenParams()
		params.Seed = seed
		m := Generate(params)
		idx := planner.TargetExitIndex(m.ExitCount())
		if dist := m.DistanceTo(m.Exit(idx)); math.IsNaN(dist) {
			t.Fatalf("seed %d: target exit unreachable\n%s", seed, m)
		}
	}
}
