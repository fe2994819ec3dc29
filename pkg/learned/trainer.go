package learned

import (
	"fmt"
	"log/slog"

	"github.com/patrikeh/go-deep/training"

	"github.com/IlikeChooros/go-dungeon-mcts/pkg/store"
)

// TrainConfig controls an offline training run.
type TrainConfig struct {
	Iterations int // passes over the data
	Holdout    int // rows reserved for validation, 0 disables
}

func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Iterations: 50,
		Holdout:    64,
	}
}

// Train fits the network to recorded rows. Rows are shuffled; when enough
// are available a holdout slice is kept aside and its error is reported.
func (e *Evaluator) Train(rows []store.TurnRow, cfg TrainConfig, log *slog.Logger) error {
	if len(rows) == 0 {
		return fmt.Errorf("train network: no rows")
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = DefaultTrainConfig().Iterations
	}

	examples := make(training.Examples, 0, len(rows))
	for _, row := range rows {
		examples = append(examples, training.Example{
			Input:    RowFeatures(row),
			Response: []float64{row.Value},
		})
	}
	examples.Shuffle()

	var heldout training.Examples
	if cfg.Holdout > 0 && len(examples) > 2*cfg.Holdout {
		heldout = examples[:cfg.Holdout]
		examples = examples[cfg.Holdout:]
	}

	if log != nil {
		log.Info("training value network",
			"rows", len(examples),
			"holdout", len(heldout),
			"iterations", cfg.Iterations,
			"learning_rate", e.cfg.LearningRate,
		)
	}

	trainer := training.NewTrainer(training.NewSGD(e.cfg.LearningRate, 0.5, 0.0, false), 0)
	trainer.Train(e.network, examples, heldout, cfg.Iterations)

	if log != nil && len(heldout) > 0 {
		log.Info("training finished", "holdout_mse", e.meanSquaredError(heldout))
	}
	return nil
}

func (e *Evaluator) meanSquaredError(examples training.Examples) float64 {
	var sum float64
	for _, ex := range examples {
		diff := e.network.Predict(ex.Input)[0] - ex.Response[0]
		sum += diff * diff
	}
	return sum / float64(len(examples))
}
