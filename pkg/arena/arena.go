// Package arena runs batches of dungeon episodes against a controller and
// aggregates the outcomes. Episodes are distributed over worker goroutines;
// each worker owns its controller instance.
package arena

import (
	"context"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/stat"

	"github.com/IlikeChooros/go-dungeon-mcts/pkg/agent"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/dungeon"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/store"
)

type ArenaStats struct {
	escapes  uint32
	deaths   uint32
	timeouts uint32
}

func (as *ArenaStats) Total() int {
	return as.Escapes() + as.Deaths() + as.Timeouts()
}

func (as *ArenaStats) Escapes() int {
	return int(atomic.LoadUint32(&as.escapes))
}

func (as *ArenaStats) Deaths() int {
	return int(atomic.LoadUint32(&as.deaths))
}

func (as *ArenaStats) Timeouts() int {
	return int(atomic.LoadUint32(&as.timeouts))
}

// EpisodeResult describes one finished episode.
type EpisodeResult struct {
	WorkerID  int
	Episode   int // global index, stable across worker counts
	Seed      int64
	Outcome   string
	Turns     int
	Score     int
	Hitpoints int
}

// Summary aggregates a finished run.
type Summary struct {
	Controller string  `json:"controller"`
	Episodes   int     `json:"episodes"`
	Escapes    int     `json:"escapes"`
	Deaths     int     `json:"deaths"`
	Timeouts   int     `json:"timeouts"`
	Workers    int     `json:"workers"`
	EscapeRate float64 `json:"escape_rate"`
	MeanTurns  float64 `json:"mean_turns"`
	StdTurns   float64 `json:"std_turns"`
	MeanScore  float64 `json:"mean_score"`
	StdScore   float64 `json:"std_score"`
	MeanHP     float64 `json:"mean_hitpoints"`
}

// Arena plays Episodes games on freshly generated dungeons. Factory is
// called once per worker so controllers never race. OnEpisode, when set,
// is invoked from worker goroutines under the arena's lock.
type Arena struct {
	ArenaStats
	Factory   func(workerID int) agent.Controller
	Gen       dungeon.GenParams
	Episodes  int
	Workers   int
	MaxTurns  int
	Seed      int64
	OnEpisode func(EpisodeResult)

	ctx     context.Context
	wg      sync.WaitGroup
	mu      sync.Mutex
	results []EpisodeResult
}

func New(factory func(workerID int) agent.Controller) *Arena {
	return &Arena{
		Factory:  factory,
		Gen:      dungeon.DefaultGenParams(),
		Episodes: 100,
		Workers:  2,
		MaxTurns: 300,
		Seed:     1,
		ctx:      context.Background(),
	}
}

func (a *Arena) WithContext(ctx context.Context) *Arena {
	a.ctx = ctx
	return a
}

// Run plays every episode and blocks until the workers drain.
func (a *Arena) Run() Summary {
	if a.Workers < 1 {
		a.Workers = 1
	}

	// Distribute episodes equally, spreading the remainder over the
	// first workers.
	per := a.Episodes / a.Workers
	rest := a.Episodes % a.Workers
	next := 0
	var name string
	for i := range a.Workers {
		n := per
		if rest > 0 {
			n++
			rest--
		}
		if n == 0 {
			continue
		}

		ctrl := a.Factory(i)
		if name == "" {
			name = ctrl.Name()
		}
		a.wg.Add(1)
		go a.worker(i, next, n, ctrl)
		next += n
	}
	a.wg.Wait()

	return a.summarize(name)
}

// Results returns the per-episode results of the last run.
func (a *Arena) Results() []EpisodeResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]EpisodeResult, len(a.results))
	copy(out, a.results)
	return out
}

func (a *Arena) worker(id, start, n int, ctrl agent.Controller) {
	defer a.wg.Done()

Loop:
	for i := range n {
		select {
		case <-a.ctx.Done():
			break Loop
		default:
		}

		episode := start + i
		res := a.playEpisode(id, episode, ctrl)

		switch res.Outcome {
		case store.OutcomeEscaped:
			atomic.AddUint32(&a.escapes, 1)
		case store.OutcomeDied:
			atomic.AddUint32(&a.deaths, 1)
		default:
			atomic.AddUint32(&a.timeouts, 1)
		}

		a.mu.Lock()
		a.results = append(a.results, res)
		if a.OnEpisode != nil {
			a.OnEpisode(res)
		}
		a.mu.Unlock()
	}
}

func (a *Arena) playEpisode(workerID, episode int, ctrl agent.Controller) EpisodeResult {
	gen := a.Gen
	gen.Seed = a.Seed + int64(episode)
	m := dungeon.Generate(gen)

	for m.Turn() < a.MaxTurns && !m.IsTerminal() && m.HeroAlive() {
		if a.ctx.Err() != nil {
			break
		}
		m.Apply(ctrl.NextAction(m))
	}
	ctrl.EndEpisode(m)
	outcome := store.Classify(m)

	return EpisodeResult{
		WorkerID:  workerID,
		Episode:   episode,
		Seed:      gen.Seed,
		Outcome:   outcome,
		Turns:     m.Turn(),
		Score:     m.Score(),
		Hitpoints: m.Hitpoints(),
	}
}

func (a *Arena) summarize(name string) Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	turns := make([]float64, len(a.results))
	scores := make([]float64, len(a.results))
	hp := make([]float64, len(a.results))
	for i, r := range a.results {
		turns[i] = float64(r.Turns)
		scores[i] = float64(r.Score)
		hp[i] = float64(r.Hitpoints)
	}

	s := Summary{
		Controller: name,
		Episodes:   len(a.results),
		Escapes:    a.Escapes(),
		Deaths:     a.Deaths(),
		Timeouts:   a.Timeouts(),
		Workers:    a.Workers,
	}
	if len(a.results) == 0 {
		return s
	}

	s.EscapeRate = float64(s.Escapes) / float64(s.Episodes)
	s.MeanTurns = stat.Mean(turns, nil)
	s.MeanScore = stat.Mean(scores, nil)
	s.MeanHP = stat.Mean(hp, nil)
	if len(a.results) > 1 {
		s.StdTurns = stat.StdDev(turns, nil)
		s.StdScore = stat.StdDev(scores, nil)
	}
	return s
}
