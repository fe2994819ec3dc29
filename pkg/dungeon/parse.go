package dungeon

import (
	"fmt"
	"strings"

	"github.com/IlikeChooros/go-dungeon-mcts/pkg/planner"
)

// Parse builds a PlayMap from an ascii layout: '#' wall, '.' floor, 'E'
// exit, 'H' hero, 'M' monster, 'P' potion, 'R' reward. Entities stand on
// floor tiles. Leading and trailing blank lines are ignored.
func Parse(layout string) (*PlayMap, error) {
	rows := strings.Split(strings.Trim(layout, "\n"), "\n")
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("parse map: empty layout")
	}

	m := &PlayMap{
		w: len(rows[0]),
		h: len(rows),
	}
	m.tiles = make([]Tile, m.w*m.h)

	for y, row := range rows {
		if len(row) != m.w {
			return nil, fmt.Errorf("parse map: row %d is %d wide, want %d", y, len(row), m.w)
		}
		for x, r := range row {
			p := planner.Point{X: x, Y: y}
			switch r {
			case '#':
				m.tiles[y*m.w+x] = TileWall
			case '.':
				// floor
			case 'E':
				m.tiles[y*m.w+x] = TileExit
				m.exits = append(m.exits, p)
			case 'H':
				if m.hero != nil {
					return nil, fmt.Errorf("parse map: multiple heroes")
				}
				m.hero = &Hero{Pos: p, Hitpoints: HeroMaxHitpoints, MaxHitpoints: HeroMaxHitpoints}
			case 'M':
				m.monsters = append(m.monsters, Monster{Pos: p, Damage: MonsterDamage, Alive: true})
			case 'P':
				m.potions = append(m.potions, Potion{Pos: p, Heal: PotionHeal})
			case 'R':
				m.rewards = append(m.rewards, Reward{Pos: p, Value: RewardValue})
			default:
				return nil, fmt.Errorf("parse map: unknown rune %q at %d,%d", r, x, y)
			}
		}
	}
	return m, nil
}

// MustParse is Parse for fixtures, panicking on malformed layouts.
func MustParse(layout string) *PlayMap {
	m, err := Parse(layout)
	if err != nil {
		panic(err)
	}
	return m
}
