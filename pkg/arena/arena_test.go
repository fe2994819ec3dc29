package arena

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/IlikeChooros/go-dungeon-mcts/pkg/agent"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/dungeon"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/planner"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/store"
)

func TestMain(m *testing.M) {
	planner.SetSeedGeneratorFn(func() int64 {
		return 42
	})
	fmt.Printf("Using seed %d\n", planner.SeedGeneratorFn())

	os.Exit(m.Run())
}

func newRandomArena() *Arena {
	a := New(func(id int) agent.Controller {
		return agent.NewRandom(int64(100 + id))
	})
	a.Gen = dungeon.GenParams{
		Width:          12,
		Height:         9,
		RoomCount:      3,
		MinRoomSize:    3,
		MaxRoomSize:    4,
		MonsterDensity: 0,
		ExitCount:      1,
	}
	a.Episodes = 10
	a.Workers = 3
	a.MaxTurns = 50
	return a
}

func TestRunAccountsEveryEpisode(t *testing.T) {
	a := newRandomArena()
	s := a.Run()

	if s.Episodes != 10 {
		t.Fatalf("summary episodes = %d, want 10", s.Episodes)
	}
	if got := s.Escapes + s.Deaths + s.Timeouts; got != 10 {
		t.Fatalf("outcome counts sum to %d, want 10", got)
	}
	if a.Total() != 10 {
		t.Fatalf("atomic total = %d, want 10", a.Total())
	}
	if s.Controller != "random" {
		t.Fatalf("controller name = %q", s.Controller)
	}
	if s.MeanTurns <= 0 {
		t.Fatalf("mean turns = %v, want > 0", s.MeanTurns)
	}
}

func TestRunCoversGlobalEpisodeIndices(t *testing.T) {
	a := newRandomArena()
	a.Run()

	seen := make(map[int]bool)
	for _, r := range a.Results() {
		if seen[r.Episode] {
			t.Fatalf("episode %d reported twice", r.Episode)
		}
		seen[r.Episode] = true
		if r.Seed != a.Seed+int64(r.Episode) {
			t.Fatalf("episode %d seed = %d, want %d", r.Episode, r.Seed, a.Seed+int64(r.Episode))
		}
	}
	for i := range 10 {
		if !seen[i] {
			t.Fatalf("episode %d never played", i)
		}
	}
}

func TestOnEpisodeCallback(t *testing.T) {
	a := newRandomArena()
	var calls int
	a.OnEpisode = func(EpisodeResult) { calls++ }
	a.Run()

	if calls != 10 {
		t.Fatalf("OnEpisode called %d times, want 10", calls)
	}
}

func TestCancelledContextStopsEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := newRandomArena().WithContext(ctx)
	a.Episodes = 100
	s := a.Run()

	if s.Episodes != 0 {
		t.Fatalf("played %d episodes under cancelled context, want 0", s.Episodes)
	}
}

func TestSearchControllerEscapes(t *testing.T) {
	if testing.Short() {
		t.Skip("search episodes are slow")
	}

	a := New(func(int) agent.Controller {
		cfg := planner.DefaultConfig()
		cfg.Iterations = 120
		return agent.NewSearch(cfg)
	})
	a.Gen = dungeon.GenParams{
		Width:          12,
		Height:         9,
		RoomCount:      3,
		MinRoomSize:    3,
		MaxRoomSize:    4,
		MonsterDensity: 0,
		ExitCount:      1,
	}
	a.Episodes = 4
	a.Workers = 2
	a.MaxTurns = 120
	s := a.Run()

	if s.Escapes == 0 {
		t.Fatalf("search controller escaped 0 of %d monster-free dungeons: %+v", s.Episodes, s)
	}
	for _, r := range a.Results() {
		if r.Outcome == store.OutcomeDied {
			t.Fatalf("episode %d died in a monster-free dungeon", r.Episode)
		}
	}
}
