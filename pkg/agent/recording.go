package agent

import (
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/dungeon"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/planner"
	"github.com/IlikeChooros/go-dungeon-mcts/pkg/store"
)

// Recording wraps a controller and logs every (state, action) pair of its
// episodes into a store.Recorder. Episodes open lazily on the first action
// and close in EndEpisode, which stamps the outcome.
type Recording struct {
	inner Controller
	rec   *store.Recorder
	open  bool
}

func NewRecording(inner Controller, rec *store.Recorder) *Recording {
	return &Recording{inner: inner, rec: rec}
}

func (r *Recording) Name() string { return r.inner.Name() }

func (r *Recording) NextAction(m *dungeon.PlayMap) planner.Action {
	if !r.open {
		r.rec.StartEpisode()
		r.open = true
	}
	action := r.inner.NextAction(m)
	r.rec.RecordTurn(m, action)
	return action
}

func (r *Recording) EndEpisode(final *dungeon.PlayMap) {
	if r.open {
		r.rec.FinishEpisode(store.Classify(final))
		r.open = false
	}
	r.inner.EndEpisode(final)
}
