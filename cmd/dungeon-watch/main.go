// Command dungeon-watch runs an arena batch and shows its progress in the
// terminal: live outcome counters, recent episodes and the board of the
// first worker.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/IlikeChooros/go-dungeon-mcts/pkg/agent"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/arena"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/dungeon"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/planner"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/store"
)

// boardWatcher keeps the latest board of the controller it wraps so the UI
// can draw it from another goroutine.
type boardWatcher struct {
	inner agent.Controller

	mu    sync.Mutex
	board string
}

func (w *boardWatcher) Name() string { return w.inner.Name() }

func (w *boardWatcher) NextAction(m *dungeon.PlayMap) planner.Action {
	action := w.inner.NextAction(m)
	w.mu.Lock()
	w.board = m.String()
	w.mu.Unlock()
	return action
}

func (w *boardWatcher) EndEpisode(final *dungeon.PlayMap) {
	w.inner.EndEpisode(final)
}

func (w *boardWatcher) Board() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.board
}

type episodeMsg arena.EpisodeResult

type doneMsg arena.Summary

type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func waitForUpdate(updates chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-updates
	}
}

type model struct {
	watcher *boardWatcher
	updates chan tea.Msg
	cancel  context.CancelFunc

	startTime time.Time
	board     string
	recent    []string

	episodes int
	escapes  int
	deaths   int
	timeouts int

	done    bool
	summary arena.Summary
}

func initialModel(watcher *boardWatcher, updates chan tea.Msg, cancel context.CancelFunc) model {
	return model{
		watcher:   watcher,
		updates:   updates,
		cancel:    cancel,
		startTime: time.Now(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.cancel()
			return m, tea.Quit
		}

	case TickMsg:
		m.board = m.watcher.Board()
		return m, tickCmd()

	case episodeMsg:
		m.episodes++
		switch msg.Outcome {
		case store.OutcomeEscaped:
			m.escapes++
		case store.OutcomeDied:
			m.deaths++
		default:
			m.timeouts++
		}
		line := fmt.Sprintf("episode %-4d %-8s turns %-4d score %-3d hp %d",
			msg.Episode, msg.Outcome, msg.Turns, msg.Score, msg.Hitpoints)
		m.recent = append([]string{line}, m.recent...)
		if len(m.recent) > 8 {
			m.recent = m.recent[:8]
		}
		return m, waitForUpdate(m.updates)

	case doneMsg:
		m.done = true
		m.summary = arena.Summary(msg)
		return m, nil
	}
	return m, nil
}

func (m model) View() string {
	elapsed := time.Since(m.startTime)
	perSec := 0.0
	if elapsed.Seconds() >= 1 {
		perSec = float64(m.episodes) / elapsed.Seconds()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Episodes:  %d\n", m.episodes)
	fmt.Fprintf(&b, "Escapes:   %d\n", m.escapes)
	fmt.Fprintf(&b, "Deaths:    %d\n", m.deaths)
	fmt.Fprintf(&b, "Timeouts:  %d\n", m.timeouts)
	fmt.Fprintf(&b, "Elapsed:   %s\n", elapsed.Round(time.Second))
	fmt.Fprintf(&b, "Eps/Sec:   %.2f\n\n", perSec)

	if m.board != "" {
		b.WriteString(m.board)
		b.WriteString("\n\n")
	}

	b.WriteString("Recent episodes:\n")
	for _, line := range m.recent {
		b.WriteString(line + "\n")
	}

	if m.done {
		fmt.Fprintf(&b, "\nDone: %s escaped %d/%d (%.0f%%), mean turns %.1f\n",
			m.summary.Controller, m.summary.Escapes, m.summary.Episodes,
			m.summary.EscapeRate*100, m.summary.MeanTurns)
	}
	b.WriteString("\nPress q to quit.\n")
	return b.String()
}

func main() {
	controller := flag.String("controller", "mcts", "controller to watch: mcts or random")
	episodes := flag.Int("episodes", 50, "episodes to play")
	workers := flag.Int("workers", 2, "worker goroutines")
	maxTurns := flag.Int("max-turns", 300, "turn budget per episode")
	iterations := flag.Int("iterations", planner.DefaultIterations, "search iterations per decision")
	seed := flag.Int64("seed", 1, "base dungeon seed")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan tea.Msg, 64)

	makeController := func(id int) agent.Controller {
		if *controller == "random" {
			return agent.NewRandom(*seed + int64(id))
		}
		cfg := planner.DefaultConfig()
		cfg.Iterations = *iterations
		return agent.NewSearch(cfg)
	}

	// Built up front so the UI never races the worker that sets it up.
	watcher := &boardWatcher{inner: makeController(0)}
	factory := func(id int) agent.Controller {
		if id == 0 {
			return watcher
		}
		return makeController(id)
	}

	a := arena.New(factory).WithContext(ctx)
	a.Episodes = *episodes
	a.Workers = *workers
	a.MaxTurns = *maxTurns
	a.Seed = *seed
	a.OnEpisode = func(r arena.EpisodeResult) {
		select {
		case updates <- episodeMsg(r):
		default:
		}
	}

	go func() {
		updates <- doneMsg(a.Run())
	}()

	p := tea.NewProgram(initialModel(watcher, updates, cancel), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "dungeon-watch:", err)
		os.Exit(1)
	}
}
