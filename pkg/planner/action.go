package planner

// Action is one of the four grid moves, plus Idle. Idle is never picked by
// the search itself, it is the fallback when there is nothing legal to do.
type Action int

const (
	Up Action = iota
	Right
	Down
	Left
	Idle
)

// Directions lists the four movement actions in probing order.
var Directions = [4]Action{Up, Right, Down, Left}

// Offset returns the grid delta of the action, (0, 0) for Idle.
func (a Action) Offset() (dx, dy int) {
	switch a {
	case Up:
		return 0, -1
	case Right:
		return 1, 0
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	}
	return 0, 0
}

func (a Action) String() string {
	switch a {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	case Idle:
		return "idle"
	}
	return "unknown"
}
