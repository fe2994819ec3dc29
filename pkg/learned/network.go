// Package learned provides a small value network that can replace the
// hand-tuned rollout heuristic. It is trained offline on recorded episode
// rows and predicts the episode outcome in [-1..1] from a compact state
// summary.
package learned

import (
	"encoding/json"
	"fmt"
	"os"

	deep "github.com/patrikeh/go-deep"

	"github.com/IlikeChooros/go-dungeon-mcts/pkg/dungeon"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/planner"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/store"
)

// FeatureSize is the length of the input vector. The same vector must be
// derivable both from a live map and from a recorded row, so it only uses
// fields TurnRow carries.
const FeatureSize = 5

// Normalization scales. Distances and turns past these clamp to 1.
const (
	distScale  = 48.0
	scoreScale = 20.0
	turnScale  = 200.0
)

// Config describes the network shape.
type Config struct {
	HiddenLayers []int
	LearningRate float64
}

func DefaultConfig() Config {
	return Config{
		HiddenLayers: []int{32, 16},
		LearningRate: 0.01,
	}
}

// Evaluator wraps the network and satisfies the search engine's evaluator
// contract for *dungeon.PlayMap.
type Evaluator struct {
	cfg     Config
	network *deep.Neural
}

func New(cfg Config) *Evaluator {
	if len(cfg.HiddenLayers) == 0 {
		cfg.HiddenLayers = DefaultConfig().HiddenLayers
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = DefaultConfig().LearningRate
	}

	layout := append([]int{}, cfg.HiddenLayers...)
	layout = append(layout, 1)

	return &Evaluator{
		cfg: cfg,
		network: deep.NewNeural(&deep.Config{
			Inputs:     FeatureSize,
			Layout:     layout,
			Activation: deep.ActivationReLU,
			Mode:       deep.ModeRegression,
			Weight:     deep.NewNormal(0.0, 0.1),
			Bias:       true,
		}),
	}
}

// Evaluate predicts the outcome value of the state.
func (e *Evaluator) Evaluate(m *dungeon.PlayMap) float64 {
	return e.network.Predict(StateFeatures(m))[0]
}

// StateFeatures summarizes a live map into the network's input vector.
func StateFeatures(m *dungeon.PlayMap) []float64 {
	dist := -1.0
	if idx := planner.TargetExitIndex(m.ExitCount()); idx >= 0 {
		if d := m.DistanceTo(m.Exit(idx)); d == d { // skip NaN
			dist = d
		}
	}
	return featureVector(float64(m.Hitpoints()), float64(m.Score()), dist, float64(m.Turn()))
}

// RowFeatures derives the identical vector from a recorded row.
func RowFeatures(row store.TurnRow) []float64 {
	return featureVector(float64(row.Hitpoints), float64(row.Score), row.ExitDistance, float64(row.Turn))
}

func featureVector(hp, score, dist, turn float64) []float64 {
	unreachable := 0.0
	if dist < 0 {
		unreachable = 1.0
		dist = distScale
	}
	return []float64{
		clamp01(hp / dungeon.HeroMaxHitpoints),
		clamp01(score / scoreScale),
		clamp01(dist / distScale),
		unreachable,
		clamp01(turn / turnScale),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// snapshot is the on-disk weight format.
type snapshot struct {
	HiddenLayers []int         `json:"hidden_layers"`
	LearningRate float64       `json:"learning_rate"`
	Weights      [][][]float64 `json:"weights"`
}

// Save writes the network weights as json.
func (e *Evaluator) Save(path string) error {
	data, err := json.Marshal(snapshot{
		HiddenLayers: e.cfg.HiddenLayers,
		LearningRate: e.cfg.LearningRate,
		Weights:      e.network.Dump().Weights,
	})
	if err != nil {
		return fmt.Errorf("save network: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save network: %w", err)
	}
	return nil
}

// Load rebuilds an evaluator from a file written by Save.
func Load(path string) (*Evaluator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load network: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("load network: %w", err)
	}

	e := New(Config{HiddenLayers: snap.HiddenLayers, LearningRate: snap.LearningRate})
	if snap.Weights != nil {
		e.network.ApplyWeights(snap.Weights)
	}
	return e, nil
}
