package planner

// Point is a grid coordinate.
type Point struct {
	X, Y int
}

// Neighbor returns the point one step in the given direction.
func (p Point) Neighbor(a Action) Point {
	dx, dy := a.Offset()
	return Point{p.X + dx, p.Y + dy}
}

// WorldState is the snapshot the engine plans over. The type parameter is the
// implementing type itself, so Clone can return a concrete value and the
// engine never needs a type assertion.
//
// Clone must be a deep, independent copy: mutating the clone may never affect
// the original. Apply advances the snapshot in place by one action.
type WorldState[S any] interface {
	Clone() S
	Apply(Action)

	// IsTerminal reports that the run is over because the hero reached an
	// exit. A dead hero is reported through HeroAlive instead.
	IsTerminal() bool
	HasHero() bool
	HeroAlive() bool

	IsValidMove(Point) bool
	HeroPosition() Point
	// NextPosition is the hero's position after the given action, without
	// checking legality.
	NextPosition(Action) Point

	// DistanceTo is a heuristic walking distance from the hero to target,
	// NaN when the target is unreachable.
	DistanceTo(target Point) float64
	Score() int
	Hitpoints() int

	Exit(i int) Point
	ExitCount() int
	Bounds() (w, h int)
}

// LegalActions probes the four directions against the state and returns the
// currently valid moves, in probing order. Nil when there is no hero.
func LegalActions[S WorldState[S]](state S) []Action {
	if !state.HasHero() {
		return nil
	}
	var legal []Action
	for _, a := range Directions {
		if state.IsValidMove(state.NextPosition(a)) {
			legal = append(legal, a)
		}
	}
	return legal
}
