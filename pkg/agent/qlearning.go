package agent

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/IlikeChooros/go-dungeon-mcts/pkg/dungeon"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/planner"
)

// QTable maps state keys to per-action values, indexed by the four movement
// actions.
type QTable map[string]*[4]float64

func (t QTable) get(key string) *[4]float64 {
	qs, ok := t[key]
	if !ok {
		qs = new([4]float64)
		t[key] = qs
	}
	return qs
}

// QConfig holds the learning hyperparameters.
type QConfig struct {
	Alpha        float64 // learning rate
	Gamma        float64 // discount
	Epsilon      float64 // initial exploration rate
	EpsilonDecay float64 // per-episode multiplier
	EpsilonMin   float64
	SaveInterval int // episodes between store writes, 0 disables
}

func DefaultQConfig() QConfig {
	return QConfig{
		Alpha:        0.15,
		Gamma:        0.95,
		Epsilon:      1.0,
		EpsilonDecay: 0.998,
		EpsilonMin:   0.05,
		SaveInterval: 50,
	}
}

// QLearning is the tabular controller: epsilon-greedy over a persisted
// Q-table keyed by the coarse state abstraction in qkey.go. It learns
// online, one update per turn plus a terminal update at episode end.
type QLearning struct {
	cfg     QConfig
	table   QTable
	store   *QStore
	rng     *rand.Rand
	log     *slog.Logger
	epsilon float64

	episodes int

	// previous turn, for the delayed update
	prevKey    string
	prevAction planner.Action
	prevHP     int
	prevScore  int
	prevDist   float64
}

// NewQLearning creates the controller. store may be nil for a purely
// in-memory table; when set, the persisted table and epsilon are loaded.
func NewQLearning(cfg QConfig, store *QStore, seed int64, log *slog.Logger) (*QLearning, error) {
	if log == nil {
		log = slog.Default()
	}
	q := &QLearning{
		cfg:        cfg,
		table:      QTable{},
		store:      store,
		rng:        rand.New(rand.NewSource(seed)),
		log:        log,
		epsilon:    cfg.Epsilon,
		prevAction: planner.Idle,
		prevDist:   math.Inf(1),
	}
	if store != nil {
		table, meta, err := store.Load()
		if err != nil {
			return nil, err
		}
		if len(table) > 0 {
			q.table = table
			q.episodes = meta.Episodes
			q.epsilon = meta.Epsilon
			log.Info("qtable loaded", "states", len(table), "episodes", meta.Episodes, "epsilon", meta.Epsilon)
		}
	}
	return q, nil
}

func (q *QLearning) Name() string { return "qlearning" }

// Epsilon is the current exploration rate.
func (q *QLearning) Epsilon() float64 { return q.epsilon }

// States is the number of distinct keys in the table.
func (q *QLearning) States() int { return len(q.table) }

func (q *QLearning) NextAction(m *dungeon.PlayMap) planner.Action {
	key := stateKey(m)

	var action planner.Action
	if q.rng.Float64() < q.epsilon {
		action = q.randomValid(m)
	} else {
		action = q.bestValid(m, key)
	}

	if q.prevKey != "" && q.prevAction != planner.Idle {
		q.update(q.prevKey, q.prevAction, q.shapedReward(m), key)
	}

	q.prevKey = key
	q.prevAction = action
	q.rememberProgress(m)
	return action
}

// EndEpisode applies the terminal update (no successor state), decays
// epsilon and periodically persists the table.
func (q *QLearning) EndEpisode(final *dungeon.PlayMap) {
	if q.prevKey != "" && q.prevAction != planner.Idle && final != nil {
		qs := q.table.get(q.prevKey)
		a := int(q.prevAction)
		reward := q.shapedReward(final)
		qs[a] += q.cfg.Alpha * (reward - qs[a])
	}

	q.episodes++
	q.epsilon = math.Max(q.cfg.EpsilonMin, q.epsilon*q.cfg.EpsilonDecay)

	if q.store != nil && q.cfg.SaveInterval > 0 && q.episodes%q.cfg.SaveInterval == 0 {
		if err := q.Save(); err != nil {
			q.log.Error("qtable save failed", "err", err)
		}
	}

	q.prevKey = ""
	q.prevAction = planner.Idle
	q.prevHP = 0
	q.prevScore = 0
	q.prevDist = math.Inf(1)
}

// Save persists the table and meta row through the store.
func (q *QLearning) Save() error {
	if q.store == nil {
		return nil
	}
	err := q.store.Save(q.table, QMeta{Episodes: q.episodes, Epsilon: q.epsilon})
	if err == nil {
		q.log.Info("qtable saved", "states", len(q.table), "episodes", q.episodes, "epsilon", q.epsilon)
	}
	return err
}

// update is the standard one-step rule Q(s,a) += α(r + γ·max Q(s',·) − Q(s,a)).
func (q *QLearning) update(key string, action planner.Action, reward float64, nextKey string) {
	qs := q.table.get(key)
	next := q.table.get(nextKey)

	maxNext := math.Inf(-1)
	for _, v := range next {
		if v > maxNext {
			maxNext = v
		}
	}
	if math.IsInf(maxNext, -1) {
		maxNext = 0
	}
	a := int(action)
	qs[a] += q.cfg.Alpha * (reward + q.cfg.Gamma*maxNext - qs[a])
}

// shapedReward scores the transition since the previous turn: step cost, HP
// and score deltas, progress toward the exit, and the big terminal signals.
func (q *QLearning) shapedReward(m *dungeon.PlayMap) float64 {
	reward := -0.1

	hp := m.Hitpoints()
	hpDiff := hp - q.prevHP
	if hpDiff < 0 {
		reward += float64(hpDiff) * 3.0
		if hp < 15 {
			reward -= 5.0
		}
	} else if hpDiff > 0 {
		reward += float64(hpDiff) * 1.5
	}

	if scoreDiff := m.Score() - q.prevScore; scoreDiff > 0 {
		reward += float64(scoreDiff) * 10.0
	}

	dist := q.exitDistance(m)
	if !math.IsInf(q.prevDist, 1) {
		switch {
		case q.prevDist > dist:
			reward += 0.5
		case q.prevDist < dist:
			reward -= 0.2
		}
	}

	if hp <= 0 {
		reward -= 150.0
	}
	if m.IsTerminal() {
		reward += 200.0 + float64(hp)*0.5
	}
	return reward
}

func (q *QLearning) rememberProgress(m *dungeon.PlayMap) {
	q.prevHP = m.Hitpoints()
	q.prevScore = m.Score()
	q.prevDist = q.exitDistance(m)
}

// exitDistance is Manhattan, the cheap variant the reward shaping runs on
// every turn.
func (q *QLearning) exitDistance(m *dungeon.PlayMap) float64 {
	idx := planner.TargetExitIndex(m.ExitCount())
	if idx < 0 || !m.HasHero() {
		return math.Inf(1)
	}
	exit := m.Exit(idx)
	hero := m.HeroPosition()
	return float64(abs(exit.X-hero.X) + abs(exit.Y-hero.Y))
}

func (q *QLearning) randomValid(m *dungeon.PlayMap) planner.Action {
	legal := planner.LegalActions(m)
	if len(legal) == 0 {
		return planner.Idle
	}
	return legal[q.rng.Intn(len(legal))]
}

// bestValid is a greedy argmax over currently legal actions, with random
// tie-breaking.
func (q *QLearning) bestValid(m *dungeon.PlayMap, key string) planner.Action {
	qs := q.table.get(key)
	best := math.Inf(-1)
	var candidates []planner.Action
	for _, a := range planner.LegalActions(m) {
		v := qs[int(a)]
		switch {
		case v > best:
			best = v
			candidates = candidates[:0]
			candidates = append(candidates, a)
		case v == best:
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		return q.randomValid(m)
	}
	return candidates[q.rng.Intn(len(candidates))]
}
