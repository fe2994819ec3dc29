package dungeon

import (
	"math/rand"

	"github.com/IlikeChooros/go-dungeon-mcts/pkg/planner"
)

// GenParams controls procedural generation.
type GenParams struct {
	Width, Height  int
	RoomCount      int
	MinRoomSize    int
	MaxRoomSize    int
	MonsterDensity float64 // monsters per free floor tile, 0..1
	PotionDensity  float64
	RewardDensity  float64
	ExitCount      int
	Seed           int64 // 0 picks a random seed
}

func DefaultGenParams() GenParams {
	return GenParams{
		Width:          24,
		Height:         16,
		RoomCount:      6,
		MinRoomSize:    3,
		MaxRoomSize:    6,
		MonsterDensity: 0.04,
		PotionDensity:  0.02,
		RewardDensity:  0.04,
		ExitCount:      2,
	}
}

type room struct {
	x, y, w, h int
}

func (r room) center() planner.Point {
	return planner.Point{X: r.x + r.w/2, Y: r.y + r.h/2}
}

func (r room) overlaps(o room) bool {
	return r.x <= o.x+o.w && o.x <= r.x+r.w && r.y <= o.y+o.h && o.y <= r.y+r.h
}

// Generate carves rooms and L-shaped corridors into a solid-wall map, puts
// the hero in the first room, exits in the last one and sprinkles entities
// by density. The same seed always yields the same dungeon.
func Generate(params GenParams) *PlayMap {
	seed := params.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))

	m := &PlayMap{w: params.Width, h: params.Height}
	m.tiles = make([]Tile, m.w*m.h)
	for i := range m.tiles {
		m.tiles[i] = TileWall
	}

	rooms := placeRooms(rng, params)
	for _, r := range rooms {
		for y := r.y; y < r.y+r.h; y++ {
			for x := r.x; x < r.x+r.w; x++ {
				m.tiles[y*m.w+x] = TileFloor
			}
		}
	}
	for i := 1; i < len(rooms); i++ {
		m.carveCorridor(rooms[i-1].center(), rooms[i].center())
	}

	start := rooms[0].center()
	m.hero = &Hero{Pos: start, Hitpoints: HeroMaxHitpoints, MaxHitpoints: HeroMaxHitpoints}

	last := rooms[len(rooms)-1]
	exits := max(params.ExitCount, 1)
	for i := 0; i < exits; i++ {
		p := planner.Point{
			X: last.x + rng.Intn(last.w),
			Y: last.y + rng.Intn(last.h),
		}
		if p == start || m.TileAt(p) == TileExit {
			continue
		}
		m.tiles[p.Y*m.w+p.X] = TileExit
		m.exits = append(m.exits, p)
	}
	if len(m.exits) == 0 {
		p := last.center()
		m.tiles[p.Y*m.w+p.X] = TileExit
		m.exits = append(m.exits, p)
	}

	m.sprinkle(rng, params)
	return m
}

func placeRooms(rng *rand.Rand, params GenParams) []room {
	var rooms []room
	for attempt := 0; attempt < params.RoomCount*4 && len(rooms) < params.RoomCount; attempt++ {
		r := room{
			w: params.MinRoomSize + rng.Intn(params.MaxRoomSize-params.MinRoomSize+1),
			h: params.MinRoomSize + rng.Intn(params.MaxRoomSize-params.MinRoomSize+1),
		}
		r.x = 1 + rng.Intn(max(params.Width-r.w-2, 1))
		r.y = 1 + rng.Intn(max(params.Height-r.h-2, 1))

		ok := true
		for _, o := range rooms {
			if r.overlaps(o) {
				ok = false
				break
			}
		}
		if ok {
			rooms = append(rooms, r)
		}
	}
	if len(rooms) == 0 {
		rooms = append(rooms, room{x: 1, y: 1, w: max(params.Width-2, 1), h: max(params.Height-2, 1)})
	}
	return rooms
}

func (m *PlayMap) carveCorridor(from, to planner.Point) {
	x, y := from.X, from.Y
	for x != to.X {
		m.tiles[y*m.w+x] = TileFloor
		x += sign(to.X - x)
	}
	for y != to.Y {
		m.tiles[y*m.w+x] = TileFloor
		y += sign(to.Y - y)
	}
	m.tiles[y*m.w+x] = TileFloor
}

func (m *PlayMap) sprinkle(rng *rand.Rand, params GenParams) {
	var free []planner.Point
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			p := planner.Point{X: x, Y: y}
			if m.TileAt(p) == TileFloor && p != m.hero.Pos {
				free = append(free, p)
			}
		}
	}
	rng.Shuffle(len(free), func(i, j int) {
		free[i], free[j] = free[j], free[i]
	})

	take := func(n int) []planner.Point {
		if n > len(free) {
			n = len(free)
		}
		taken := free[:n]
		free = free[n:]
		return taken
	}

	for _, p := range take(int(params.MonsterDensity * float64(len(free)))) {
		m.monsters = append(m.monsters, Monster{Pos: p, Damage: MonsterDamage, Alive: true})
	}
	for _, p := range take(int(params.PotionDensity * float64(len(free)))) {
		m.potions = append(m.potions, Potion{Pos: p, Heal: PotionHeal})
	}
	for _, p := range take(int(params.RewardDensity * float64(len(free)))) {
		m.rewards = append(m.rewards, Reward{Pos: p, Value: RewardValue})
	}
}
