package dungeon

// Tile is one cell of the dungeon grid.
type Tile uint8

const (
	TileFloor Tile = iota
	TileWall
	TileExit
)

func (t Tile) Rune() rune {
	switch t {
	case TileWall:
		return '#'
	case TileExit:
		return 'E'
	}
	return '.'
}

func (t Tile) Walkable() bool {
	return t != TileWall
}
