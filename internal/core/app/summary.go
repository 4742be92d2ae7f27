package app

import (
	"context"
	"time"

	"classfinder/internal/engine/graph"
)

// Summary condenses a session into the counts kept by report history.
type Summary struct {
	SessionID  string
	TakenAt    time.Time
	Roots      int
	Modules    int
	Duplicates int
	Conflicts  int
}

func (s *Session) Summary(ctx context.Context) (Summary, error) {
	ctx, done := s.observe(ctx, "Summary")
	defer done()

	ix, err := s.versionedIndex(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		SessionID:  s.ID,
		TakenAt:    time.Now().UTC(),
		Roots:      len(s.path.Resolvers()),
		Modules:    ix.Len(),
		Duplicates: len(graph.Duplicates(ix)),
		Conflicts:  len(graph.Conflicts(ix, graph.ConflictOptions{Legacy: s.opts.LegacyConflicts})),
	}, nil
}
