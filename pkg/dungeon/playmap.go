// Package dungeon implements the grid world the planner reasons over: walls,
// monsters, potions, rewards and exits on a rectangular map, with one-action
// turn resolution and BFS walking distances.
package dungeon

import (
	"math"
	"strings"

	"github.com/IlikeChooros/go-dungeon-mcts/pkg/planner"
)

// PlayMap is one dungeon run: the grid plus every entity on it. It satisfies
// planner.WorldState[*PlayMap], so the engine can clone and step it freely.
type PlayMap struct {
	w, h  int
	tiles []Tile
	exits []planner.Point

	hero     *Hero
	monsters []Monster
	potions  []Potion
	rewards  []Reward

	halted bool
	turn   int
}

// Clone returns a deep, independent copy. Mutating the clone never affects
// the original, which is what makes per-node snapshots safe.
func (m *PlayMap) Clone() *PlayMap {
	clone := &PlayMap{
		w:      m.w,
		h:      m.h,
		halted: m.halted,
		turn:   m.turn,
	}
	clone.tiles = make([]Tile, len(m.tiles))
	copy(clone.tiles, m.tiles)
	clone.exits = make([]planner.Point, len(m.exits))
	copy(clone.exits, m.exits)
	clone.monsters = make([]Monster, len(m.monsters))
	copy(clone.monsters, m.monsters)
	clone.potions = make([]Potion, len(m.potions))
	copy(clone.potions, m.potions)
	clone.rewards = make([]Reward, len(m.rewards))
	copy(clone.rewards, m.rewards)
	if m.hero != nil {
		hero := *m.hero
		clone.hero = &hero
	}
	return clone
}

// Apply resolves one turn: the hero's action, pickups, exit check, then one
// step for every living monster. A halted run or a dead hero is a no-op.
func (m *PlayMap) Apply(a planner.Action) {
	if m.halted || !m.hero.Alive() {
		return
	}
	m.turn++

	if next := m.NextPosition(a); a != planner.Idle && m.IsValidMove(next) {
		m.hero.Pos = next
	}

	// Walking into a monster kills it, at the price of one hit.
	for i := range m.monsters {
		mon := &m.monsters[i]
		if mon.Alive && mon.Pos == m.hero.Pos {
			mon.Alive = false
			m.hero.Hitpoints -= mon.Damage
		}
	}
	if !m.hero.Alive() {
		return
	}

	m.pickup()

	if m.TileAt(m.hero.Pos) == TileExit {
		m.halted = true
		return
	}

	m.stepMonsters()
}

func (m *PlayMap) pickup() {
	for i := range m.potions {
		p := &m.potions[i]
		if !p.Taken && p.Pos == m.hero.Pos {
			p.Taken = true
			m.hero.Hitpoints = min(m.hero.Hitpoints+p.Heal, m.hero.MaxHitpoints)
		}
	}
	for i := range m.rewards {
		r := &m.rewards[i]
		if !r.Taken && r.Pos == m.hero.Pos {
			r.Taken = true
			m.hero.Score += r.Value
		}
	}
}

// stepMonsters moves each living monster one greedy step toward the hero
// when it is within aggro range, then applies contact damage. Movement is
// deterministic so cloned runs replay identically.
func (m *PlayMap) stepMonsters() {
	for i := range m.monsters {
		mon := &m.monsters[i]
		if !mon.Alive {
			continue
		}
		if manhattan(mon.Pos, m.hero.Pos) <= MonsterAggroDist {
			if next, ok := m.chaseStep(mon.Pos); ok {
				mon.Pos = next
			}
		}
		if mon.Pos == m.hero.Pos {
			m.hero.Hitpoints -= mon.Damage
			if !m.hero.Alive() {
				return
			}
		}
	}
}

// chaseStep picks the axis with the larger distance to the hero first, then
// the other one. Monsters walk floor tiles only and never stack.
func (m *PlayMap) chaseStep(from planner.Point) (planner.Point, bool) {
	hero := m.hero.Pos
	dx, dy := hero.X-from.X, hero.Y-from.Y

	var first, second planner.Point
	stepX := planner.Point{X: from.X + sign(dx), Y: from.Y}
	stepY := planner.Point{X: from.X, Y: from.Y + sign(dy)}
	if abs(dx) >= abs(dy) {
		first, second = stepX, stepY
	} else {
		first, second = stepY, stepX
	}

	for _, next := range [2]planner.Point{first, second} {
		if next == from {
			continue
		}
		if m.monsterCanEnter(next) {
			return next, true
		}
	}
	return from, false
}

func (m *PlayMap) monsterCanEnter(p planner.Point) bool {
	if !m.inBounds(p) || m.TileAt(p) != TileFloor {
		return false
	}
	for i := range m.monsters {
		mon := &m.monsters[i]
		if mon.Alive && mon.Pos == p {
			return false
		}
	}
	return true
}

// IsTerminal reports that the hero reached an exit. Death is reported
// through HeroAlive.
func (m *PlayMap) IsTerminal() bool { return m.halted }

func (m *PlayMap) HasHero() bool   { return m.hero != nil }
func (m *PlayMap) HeroAlive() bool { return m.hero.Alive() }

func (m *PlayMap) IsValidMove(p planner.Point) bool {
	return m.inBounds(p) && m.TileAt(p).Walkable()
}

func (m *PlayMap) HeroPosition() planner.Point {
	if m.hero == nil {
		return planner.Point{}
	}
	return m.hero.Pos
}

func (m *PlayMap) NextPosition(a planner.Action) planner.Point {
	return m.HeroPosition().Neighbor(a)
}

func (m *PlayMap) Score() int {
	if m.hero == nil {
		return 0
	}
	return m.hero.Score
}

func (m *PlayMap) Hitpoints() int {
	if m.hero == nil {
		return 0
	}
	return max(m.hero.Hitpoints, 0)
}

func (m *PlayMap) Exit(i int) planner.Point { return m.exits[i] }
func (m *PlayMap) ExitCount() int           { return len(m.exits) }
func (m *PlayMap) Bounds() (int, int)       { return m.w, m.h }
func (m *PlayMap) Turn() int                { return m.turn }

// Hero exposes the hero for controllers that inspect more than the planner
// interface, nil when absent.
func (m *PlayMap) Hero() *Hero { return m.hero }

// Monsters returns the monster slice, living and dead. Callers must not
// hold it across Apply.
func (m *PlayMap) Monsters() []Monster { return m.monsters }
func (m *PlayMap) Potions() []Potion   { return m.potions }
func (m *PlayMap) Rewards() []Reward   { return m.rewards }

func (m *PlayMap) TileAt(p planner.Point) Tile {
	return m.tiles[p.Y*m.w+p.X]
}

func (m *PlayMap) inBounds(p planner.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < m.w && p.Y < m.h
}

// DistanceTo is the BFS walking distance from the hero to target over
// walkable tiles, NaN when unreachable or when there is no hero.
func (m *PlayMap) DistanceTo(target planner.Point) float64 {
	if m.hero == nil || !m.inBounds(target) {
		return math.NaN()
	}
	start := m.hero.Pos
	if start == target {
		return 0
	}

	dist := make([]int, m.w*m.h)
	for i := range dist {
		dist[i] = -1
	}
	dist[start.Y*m.w+start.X] = 0
	queue := []planner.Point{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		d := dist[cur.Y*m.w+cur.X]
		for _, a := range planner.Directions {
			next := cur.Neighbor(a)
			if !m.IsValidMove(next) || dist[next.Y*m.w+next.X] >= 0 {
				continue
			}
			if next == target {
				return float64(d + 1)
			}
			dist[next.Y*m.w+next.X] = d + 1
			queue = append(queue, next)
		}
	}
	return math.NaN()
}

// String renders the map as ascii, one row per line.
func (m *PlayMap) String() string {
	var b strings.Builder
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			b.WriteRune(m.runeAt(planner.Point{X: x, Y: y}))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (m *PlayMap) runeAt(p planner.Point) rune {
	if m.hero != nil && m.hero.Pos == p {
		if m.hero.Alive() {
			return 'H'
		}
		return 'X'
	}
	for i := range m.monsters {
		if m.monsters[i].Alive && m.monsters[i].Pos == p {
			return 'M'
		}
	}
	for i := range m.potions {
		if !m.potions[i].Taken && m.potions[i].Pos == p {
			return 'P'
		}
	}
	for i := range m.rewards {
		if !m.rewards[i].Taken && m.rewards[i].Pos == p {
			return 'R'
		}
	}
	return m.TileAt(p).Rune()
}

func manhattan(a, b planner.Point) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
