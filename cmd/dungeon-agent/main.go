// Command dungeon-agent plays batches of procedurally generated dungeons
// with a chosen controller, optionally recording episodes to parquet,
// training the value network from recorded episodes, or replaying a single
// run in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/muesli/termenv"

	"github.com/IlikeChooros/go-dungeon-mcts/pkg/agent"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/arena"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/dungeon"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/learned"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/logging"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/planner"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/store"
)

type options struct {
	controller  string
	episodes    int
	workers     int
	maxTurns    int
	iterations  int
	rollout     int
	exploration float64
	seed        int64
	qtablePath  string
	outDir      string
	evalPath    string
	trainDir    string
	trainIters  int
	render      bool
	verbose     bool

	gen dungeon.GenParams
}

func main() {
	var opts options
	flag.StringVar(&opts.controller, "controller", "mcts", "controller to play with: mcts, random or qlearn")
	flag.IntVar(&opts.episodes, "episodes", 100, "number of episodes to play")
	flag.IntVar(&opts.workers, "workers", 4, "worker goroutines (qlearn always uses 1)")
	flag.IntVar(&opts.maxTurns, "max-turns", 300, "turn budget per episode")
	flag.IntVar(&opts.iterations, "iterations", planner.DefaultIterations, "search iterations per decision")
	flag.IntVar(&opts.rollout, "rollout", planner.DefaultRolloutDepth, "rollout depth")
	flag.Float64Var(&opts.exploration, "exploration", planner.DefaultExploration, "UCB1 exploration constant")
	flag.Int64Var(&opts.seed, "seed", 1, "base dungeon seed, episode i uses seed+i")
	flag.StringVar(&opts.qtablePath, "qtable", "data/qtable.db", "sqlite path for the qlearn table")
	flag.StringVar(&opts.outDir, "out", "", "directory for parquet episode recordings, empty disables")
	flag.StringVar(&opts.evalPath, "eval", "", "value network weights; loaded for mcts, written by -train")
	flag.StringVar(&opts.trainDir, "train", "", "train the value network from parquet files in this directory and exit")
	flag.IntVar(&opts.trainIters, "train-iterations", learned.DefaultTrainConfig().Iterations, "training passes over the recorded rows")
	flag.BoolVar(&opts.render, "render", false, "play a single episode and draw the board")
	flag.BoolVar(&opts.verbose, "v", false, "debug logging")

	gen := dungeon.DefaultGenParams()
	flag.IntVar(&gen.Width, "width", gen.Width, "dungeon width")
	flag.IntVar(&gen.Height, "height", gen.Height, "dungeon height")
	flag.IntVar(&gen.RoomCount, "rooms", gen.RoomCount, "rooms per dungeon")
	flag.Float64Var(&gen.MonsterDensity, "monsters", gen.MonsterDensity, "monsters per free tile")
	flag.Parse()
	opts.gen = gen

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	log := logging.New(os.Stderr, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch {
	case opts.trainDir != "":
		err = runTrain(opts, log)
	case opts.render:
		err = runRender(ctx, opts, log)
	default:
		err = runArena(ctx, opts, log)
	}
	if err != nil {
		log.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func runArena(ctx context.Context, opts options, log *slog.Logger) error {
	if opts.controller == "qlearn" && opts.workers != 1 {
		log.Warn("qlearn shares one table, forcing a single worker")
		opts.workers = 1
	}

	var qctrl *agent.QLearning
	var recorders []*store.Recorder

	factory := func(id int) agent.Controller {
		ctrl, err := buildController(opts, id, log)
		if err != nil {
			log.Error("controller setup failed", "error", err)
			os.Exit(1)
		}
		if q, ok := ctrl.(*agent.QLearning); ok {
			qctrl = q
		}
		if opts.outDir != "" {
			rec := store.NewRecorder(opts.outDir, ctrl.Name())
			recorders = append(recorders, rec)
			ctrl = agent.NewRecording(ctrl, rec)
		}
		return ctrl
	}

	a := arena.New(factory).WithContext(ctx)
	a.Gen = opts.gen
	a.Episodes = opts.episodes
	a.Workers = opts.workers
	a.MaxTurns = opts.maxTurns
	a.Seed = opts.seed
	a.OnEpisode = func(r arena.EpisodeResult) {
		log.Debug("episode finished",
			"episode", r.Episode,
			"outcome", r.Outcome,
			"turns", r.Turns,
			"score", r.Score,
			"hitpoints", r.Hitpoints,
		)
	}

	start := time.Now()
	s := a.Run()
	log.Info("run finished",
		"controller", s.Controller,
		"episodes", s.Episodes,
		"escapes", s.Escapes,
		"deaths", s.Deaths,
		"timeouts", s.Timeouts,
		"escape_rate", s.EscapeRate,
		"mean_turns", s.MeanTurns,
		"mean_score", s.MeanScore,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	for _, rec := range recorders {
		path, err := rec.Flush()
		if err != nil {
			return err
		}
		if path != "" {
			log.Info("episodes recorded", "path", path)
		}
	}
	if qctrl != nil {
		if err := qctrl.Save(); err != nil {
			return err
		}
		log.Info("qtable saved", "path", opts.qtablePath, "states", qctrl.States(), "epsilon", qctrl.Epsilon())
	}
	return nil
}

func buildController(opts options, workerID int, log *slog.Logger) (agent.Controller, error) {
	switch opts.controller {
	case "mcts":
		cfg := planner.DefaultConfig()
		cfg.Iterations = opts.iterations
		cfg.RolloutDepth = opts.rollout
		cfg.Exploration = opts.exploration
		ctrl := agent.NewSearch(cfg)
		if opts.evalPath != "" {
			ev, err := learned.Load(opts.evalPath)
			if err != nil {
				return nil, err
			}
			ctrl.Engine.SetEvaluator(ev)
			log.Debug("using value network", "path", opts.evalPath)
		}
		return ctrl, nil

	case "random":
		return agent.NewRandom(opts.seed + int64(workerID)), nil

	case "qlearn":
		qs, err := agent.OpenQStore(opts.qtablePath)
		if err != nil {
			return nil, err
		}
		return agent.NewQLearning(agent.DefaultQConfig(), qs, opts.seed, log)

	default:
		return nil, fmt.Errorf("unknown controller %q", opts.controller)
	}
}

func runTrain(opts options, log *slog.Logger) error {
	if opts.evalPath == "" {
		return fmt.Errorf("-train needs -eval to name the output weights")
	}

	paths, err := filepath.Glob(filepath.Join(opts.trainDir, "*.parquet"))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no parquet files under %s", opts.trainDir)
	}

	var rows []store.TurnRow
	for _, p := range paths {
		r, err := store.ReadRows(p)
		if err != nil {
			return err
		}
		rows = append(rows, r...)
		log.Debug("loaded episodes", "path", p, "rows", len(r))
	}

	ev := learned.New(learned.DefaultConfig())
	cfg := learned.DefaultTrainConfig()
	cfg.Iterations = opts.trainIters
	if err := ev.Train(rows, cfg, log); err != nil {
		return err
	}
	if err := ev.Save(opts.evalPath); err != nil {
		return err
	}
	log.Info("value network saved", "path", opts.evalPath, "rows", len(rows))
	return nil
}

func runRender(ctx context.Context, opts options, log *slog.Logger) error {
	ctrl, err := buildController(opts, 0, log)
	if err != nil {
		return err
	}

	gen := opts.gen
	gen.Seed = opts.seed
	m := dungeon.Generate(gen)

	out := termenv.NewOutput(os.Stdout)
	out.ClearScreen()
	for m.Turn() < opts.maxTurns && !m.IsTerminal() && m.HeroAlive() {
		if ctx.Err() != nil {
			break
		}
		action := ctrl.NextAction(m)
		m.Apply(action)

		out.MoveCursor(1, 1)
		fmt.Fprintln(out, colorBoard(out, m))
		fmt.Fprintf(out, "turn %-4d action %-5s hp %-3d score %-3d\n",
			m.Turn(), action, m.Hitpoints(), m.Score())
		time.Sleep(60 * time.Millisecond)
	}
	ctrl.EndEpisode(m)

	log.Info("episode finished",
		"outcome", store.Classify(m),
		"turns", m.Turn(),
		"hitpoints", m.Hitpoints(),
		"score", m.Score(),
	)
	return nil
}

func colorBoard(out *termenv.Output, m *dungeon.PlayMap) string {
	var b strings.Builder
	for _, line := range strings.Split(m.String(), "\n") {
		for _, r := range line {
			s := out.String(string(r))
			switch r {
			case '#':
				s = s.Foreground(termenv.ANSIBrightBlack)
			case 'H':
				s = s.Foreground(termenv.ANSIGreen).Bold()
			case 'X':
				s = s.Foreground(termenv.ANSIRed).Bold()
			case 'M':
				s = s.Foreground(termenv.ANSIRed)
			case 'E':
				s = s.Foreground(termenv.ANSICyan).Bold()
			case 'P':
				s = s.Foreground(termenv.ANSIMagenta)
			case 'R':
				s = s.Foreground(termenv.ANSIYellow)
			}
			b.WriteString(s.String())
		}
		b.WriteByte('\n')
	}
	return b.String()
}
