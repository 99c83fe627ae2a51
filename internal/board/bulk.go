package board

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/adriangreen/taskboard/internal/tasks"
)

// DefaultConcurrency bounds parallel deletes when no limit is configured.
const DefaultConcurrency = 8

// DeleteOutcome is the result of deleting one task.
type DeleteOutcome struct {
	ID  string
	Err error
}

// DeleteEach deletes every ID through svc with at most limit requests in
// flight. It never stops early: one outcome is returned per ID, in order.
func DeleteEach(ctx context.Context, svc tasks.Service, ids []string, limit int) []DeleteOutcome {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	out := make([]DeleteOutcome, len(ids))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			out[i] = DeleteOutcome{ID: id, Err: svc.Delete(ctx, id)}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Failed returns the outcomes that carry an error.
func Failed(outcomes []DeleteOutcome) []DeleteOutcome {
	var failed []DeleteOutcome
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}
