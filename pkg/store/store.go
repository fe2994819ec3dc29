// Package store records played episodes as parquet files, one row per turn.
// The rows are self-contained training samples: the learned evaluator's
// trainer reads them back without touching the game engine.
package store

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/IlikeChooros/go-dungeon-mcts/pkg/dungeon"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/planner"
)

// Episode outcomes.
const (
	OutcomeEscaped = "escaped"
	OutcomeDied    = "died"
	OutcomeTimeout = "timeout"
)

// TurnRow is one (episode, turn) sample. Value is the episode's final
// outcome target in [-1..1], backfilled over every row of the episode once
// it ends.
type TurnRow struct {
	EpisodeID    string  `parquet:"episode_id,dict"`
	Controller   string  `parquet:"controller,dict"`
	Turn         int32   `parquet:"turn"`
	Action       int32   `parquet:"action"`
	HeroX        int32   `parquet:"hero_x"`
	HeroY        int32   `parquet:"hero_y"`
	Hitpoints    int32   `parquet:"hitpoints"`
	Score        int32   `parquet:"score"`
	ExitDistance float64 `parquet:"exit_distance"` // -1 when unreachable
	Outcome      string  `parquet:"outcome,dict"`
	Value        float64 `parquet:"value"`
}

// Classify names the outcome of a finished episode. A map that is neither
// halted nor lost counts as a timeout.
func Classify(m *dungeon.PlayMap) string {
	switch {
	case m.IsTerminal():
		return OutcomeEscaped
	case !m.HeroAlive():
		return OutcomeDied
	}
	return OutcomeTimeout
}

// OutcomeValue maps an outcome to its training target.
func OutcomeValue(outcome string) float64 {
	switch outcome {
	case OutcomeEscaped:
		return 1
	case OutcomeDied:
		return -1
	}
	return 0
}

// Recorder buffers rows across episodes and writes one parquet file per
// Flush. Not safe for concurrent use; give every worker its own.
type Recorder struct {
	dir        string
	controller string

	rows         []TurnRow
	episodeID    string
	episodeStart int
}

func NewRecorder(dir, controller string) *Recorder {
	return &Recorder{dir: dir, controller: controller}
}

// StartEpisode opens a new episode with a fresh id.
func (r *Recorder) StartEpisode() {
	r.episodeID = uuid.NewString()
	r.episodeStart = len(r.rows)
}

// RecordTurn snapshots the state the action was chosen in.
func (r *Recorder) RecordTurn(m *dungeon.PlayMap, action planner.Action) {
	pos := m.HeroPosition()
	r.rows = append(r.rows, TurnRow{
		EpisodeID:    r.episodeID,
		Controller:   r.controller,
		Turn:         int32(m.Turn()),
		Action:       int32(action),
		HeroX:        int32(pos.X),
		HeroY:        int32(pos.Y),
		Hitpoints:    int32(m.Hitpoints()),
		Score:        int32(m.Score()),
		ExitDistance: exitDistance(m),
	})
}

// FinishEpisode stamps the outcome and its value target onto every row
// recorded since StartEpisode.
func (r *Recorder) FinishEpisode(outcome string) {
	value := OutcomeValue(outcome)
	for i := r.episodeStart; i < len(r.rows); i++ {
		r.rows[i].Outcome = outcome
		r.rows[i].Value = value
	}
}

// Len is the number of buffered rows.
func (r *Recorder) Len() int { return len(r.rows) }

// Flush writes the buffered rows and resets the buffer. Returns the written
// path, empty when there was nothing to write.
func (r *Recorder) Flush() (string, error) {
	if len(r.rows) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("flush episodes: %w", err)
	}

	path := filepath.Join(r.dir, fmt.Sprintf("episodes_%d.parquet", time.Now().UnixNano()))
	if err := parquet.WriteFile(path, r.rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "turn_row_v1"),
	); err != nil {
		return "", fmt.Errorf("flush episodes: %w", err)
	}
	r.rows = r.rows[:0]
	return path, nil
}

// ReadRows loads every row of a parquet file written by Flush.
func ReadRows(path string) ([]TurnRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read episodes: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("read episodes: %w", err)
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("read episodes: %w", err)
	}

	reader := parquet.NewGenericReader[TurnRow](pf)
	defer reader.Close()

	rows := make([]TurnRow, 0, reader.NumRows())
	buf := make([]TurnRow, 256)
	for {
		n, err := reader.Read(buf)
		rows = append(rows, buf[:n]...)
		if err != nil {
			break
		}
	}
	return rows, nil
}

func exitDistance(m *dungeon.PlayMap) float64 {
	idx := planner.TargetExitIndex(m.ExitCount())
	if idx < 0 {
		return -1
	}
	dist := m.DistanceTo(m.Exit(idx))
	if math.IsNaN(dist) {
		return -1
	}
	return dist
}
