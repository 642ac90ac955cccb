package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// dedupe collapses postings that share a signature or a canonical link,
// keeping the oldest row of each group. Returns how many postings were
// removed.
func (o *Orchestrator) dedupe(ctx context.Context, runID [16]byte) (int, error) {
	groups, err := o.store.DuplicateJobPostings(ctx)
	if err != nil {
		return 0, fmt.Errorf("find duplicates: %w", err)
	}

	removed := 0
	for _, group := range groups {
		if len(group.IDs) < 2 {
			continue
		}
		// IDs arrive ascending; the first is the original.
		doomed := group.IDs[1:]
		if err := o.store.DeleteJobPostings(ctx, doomed); err != nil {
			return removed, fmt.Errorf("delete duplicates for %s: %w", group.Key, err)
		}
		removed += len(doomed)
		o.logger.Debug("collapsed duplicate group",
			zap.String("key", group.Key),
			zap.Int("removed", len(doomed)),
		)
	}
	return removed, nil
}
