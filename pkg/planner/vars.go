package planner

import (
	"math"
	"time"
)

const (
	// Iteration budget of a single decision.
	DefaultIterations = 250

	// Maximum number of random steps in a rollout.
	DefaultRolloutDepth = 8
)

// Exploration weight used in the UCB1 formula during selection. Theoretical
// value is sqrt(2), tune per problem.
var DefaultExploration = math.Sqrt2

type SeedGeneratorFnType func() int64

var SeedGeneratorFn SeedGeneratorFnType = func() int64 {
	return time.Now().UnixNano()
}

// SetSeedGeneratorFn replaces the seed source of newly created engines,
// by default the current time in nanoseconds. Pin it in tests for
// reproducible decisions.
func SetSeedGeneratorFn(f SeedGeneratorFnType) {
	if f != nil {
		SeedGeneratorFn = f
	}
}
