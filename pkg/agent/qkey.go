package agent

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/IlikeChooros/go-dungeon-mcts/pkg/dungeon"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/planner"
)

// VisionRange bounds how far the state abstraction looks for monsters,
// potions and rewards.
const VisionRange = 3

// stateKey compresses a PlayMap into a small discrete key: HP bucket,
// direction and distance bucket to the target exit, nearby threats and
// pickups, and the wall mask around the hero. Coarse on purpose, the table
// has to stay small enough to revisit states.
func stateKey(m *dungeon.PlayMap) string {
	hero := m.Hero()
	if hero == nil {
		return "dead"
	}
	var b strings.Builder

	hpCat := hpCategory(hero)
	fmt.Fprintf(&b, "HP%d|", hpCat)

	if idx := planner.TargetExitIndex(m.ExitCount()); idx >= 0 {
		exit := m.Exit(idx)
		dx, dy := exit.X-hero.Pos.X, exit.Y-hero.Pos.Y
		fmt.Fprintf(&b, "EXIT%s|", directionCode(dx, dy))
		fmt.Fprintf(&b, "DIST%d|", distanceCategory(math.Hypot(float64(dx), float64(dy))))
	} else {
		b.WriteString("EXITNONE|DIST4|")
	}

	fmt.Fprintf(&b, "MON%s|", nearbyMonsters(m, hero.Pos))
	if hpCat <= 2 {
		fmt.Fprintf(&b, "POT%s|", nearestPotion(m, hero.Pos))
	}
	fmt.Fprintf(&b, "REW%d|", nearbyRewards(m, hero.Pos))

	b.WriteByte('W')
	for _, a := range planner.Directions {
		if m.IsValidMove(hero.Pos.Neighbor(a)) {
			b.WriteByte('0')
		} else {
			b.WriteByte('1')
		}
	}
	return b.String()
}

// hpCategory buckets remaining hit points into five levels.
func hpCategory(hero *dungeon.Hero) int {
	ratio := float64(hero.Hitpoints) / float64(hero.MaxHitpoints)
	switch {
	case ratio > 0.8:
		return 4
	case ratio > 0.6:
		return 3
	case ratio > 0.4:
		return 2
	case ratio > 0.2:
		return 1
	}
	return 0
}

// directionCode maps a delta to one of eight compass codes, or HERE when the
// target is basically on top of the hero.
func directionCode(dx, dy int) string {
	ax, ay := abs(dx), abs(dy)
	if ax < 2 && ay < 2 {
		return "HERE"
	}
	switch {
	case ax > ay*2:
		if dx > 0 {
			return "E"
		}
		return "W"
	case ay > ax*2:
		if dy > 0 {
			return "S"
		}
		return "N"
	case dx > 0 && dy > 0:
		return "SE"
	case dx > 0 && dy < 0:
		return "NE"
	case dx < 0 && dy > 0:
		return "SW"
	case dx < 0 && dy < 0:
		return "NW"
	}
	return "HERE"
}

func distanceCategory(dist float64) int {
	switch {
	case dist < 3:
		return 0
	case dist < 6:
		return 1
	case dist < 10:
		return 2
	case dist < 15:
		return 3
	}
	return 4
}

func nearbyMonsters(m *dungeon.PlayMap, hero planner.Point) string {
	var threats []string
	for _, mon := range m.Monsters() {
		if !mon.Alive {
			continue
		}
		dx, dy := mon.Pos.X-hero.X, mon.Pos.Y-hero.Y
		dist := math.Hypot(float64(dx), float64(dy))
		if dist > VisionRange {
			continue
		}
		sep := "-"
		if dist <= 1.5 {
			sep = "!"
		}
		threats = append(threats, fmt.Sprintf("%s%s%d", directionCode(dx, dy), sep, mon.Damage/5))
	}
	if len(threats) == 0 {
		return "SAFE"
	}
	sort.Strings(threats)
	return strings.Join(threats, ",")
}

func nearestPotion(m *dungeon.PlayMap, hero planner.Point) string {
	closest := "NONE"
	minDist := math.Inf(1)
	for _, p := range m.Potions() {
		if p.Taken {
			continue
		}
		dx, dy := p.Pos.X-hero.X, p.Pos.Y-hero.Y
		dist := math.Hypot(float64(dx), float64(dy))
		if dist <= VisionRange && dist < minDist {
			minDist = dist
			closest = directionCode(dx, dy)
		}
	}
	return closest
}

func nearbyRewards(m *dungeon.PlayMap, hero planner.Point) int {
	count := 0
	for _, r := range m.Rewards() {
		if r.Taken {
			continue
		}
		dx, dy := r.Pos.X-hero.X, r.Pos.Y-hero.Y
		if math.Hypot(float64(dx), float64(dy)) <= VisionRange {
			count++
		}
	}
	return count
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
