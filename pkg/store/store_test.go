package store

import (
	"testing"

	"github.com/IlikeChooros/go-dungeon-mcts/pkg/dungeon"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/planner"
)

func TestRecorderRoundTrip(t *testing.T) {
	m := dungeon.MustParse(`
#####
#H.E#
#####
`)

	rec := NewRecorder(t.TempDir(), "search")
	rec.StartEpisode()
	for !m.IsTerminal() {
		rec.RecordTurn(m, planner.Right)
		m.Apply(planner.Right)
	}
	rec.FinishEpisode(OutcomeEscaped)

	if rec.Len() != 2 {
		t.Fatalf("buffered rows = %d, want 2", rec.Len())
	}

	path, err := rec.Flush()
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if path == "" {
		t.Fatal("Flush returned empty path with buffered rows")
	}
	if rec.Len() != 0 {
		t.Fatalf("buffer not reset after flush, %d rows left", rec.Len())
	}

	rows, err := ReadRows(path)
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("read %d rows, want 2", len(rows))
	}
	for i, row := range rows {
		if row.EpisodeID == "" {
			t.Fatalf("row %d has no episode id", i)
		}
		if row.Outcome != OutcomeEscaped || row.Value != 1 {
			t.Fatalf("row %d outcome = %q value = %v", i, row.Outcome, row.Value)
		}
		if row.Controller != "search" {
			t.Fatalf("row %d controller = %q", i, row.Controller)
		}
	}
	if rows[0].HeroX != 1 || rows[1].HeroX != 2 {
		t.Fatalf("hero x positions = %d, %d; want 1, 2", rows[0].HeroX, rows[1].HeroX)
	}
	if rows[0].ExitDistance != 2 || rows[1].ExitDistance != 1 {
		t.Fatalf("exit distances = %v, %v; want 2, 1", rows[0].ExitDistance, rows[1].ExitDistance)
	}
}

func TestRecorderSeparatesEpisodes(t *testing.T) {
	m := dungeon.MustParse(`
####
#HE#
####
`)

	rec := NewRecorder(t.TempDir(), "random")
	rec.StartEpisode()
	rec.RecordTurn(m, planner.Right)
	rec.FinishEpisode(OutcomeTimeout)

	rec.StartEpisode()
	rec.RecordTurn(m, planner.Right)
	rec.FinishEpisode(OutcomeDied)

	path, err := rec.Flush()
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	rows, err := ReadRows(path)
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("read %d rows, want 2", len(rows))
	}
	if rows[0].EpisodeID == rows[1].EpisodeID {
		t.Fatal("episodes share an id")
	}
	if rows[0].Value != 0 || rows[1].Value != -1 {
		t.Fatalf("values = %v, %v; want 0, -1", rows[0].Value, rows[1].Value)
	}
}

func TestFlushEmpty(t *testing.T) {
	rec := NewRecorder(t.TempDir(), "search")
	path, err := rec.Flush()
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if path != "" {
		t.Fatalf("Flush wrote %q with no rows", path)
	}
}
