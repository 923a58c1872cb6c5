package proximity

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Aggregate resolves every batch of cands with at most limit requests in
// flight and returns the union of the batch results in completion order.
// A batch that yields nothing does not affect the others.
func Aggregate(ctx context.Context, r BatchResolver, origin string, cands []Candidate, size, limit int) []RankedResult {
	results := make(chan []RankedResult)
	done := make(chan struct{})
	var merged []RankedResult
	go func() {
		defer close(done)
		for rs := range results {
			merged = append(merged, rs...)
		}
	}()

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for b := range Batches(cands, size) {
		g.Go(func() error {
			results <- r.Resolve(ctx, origin, b)
			return nil
		})
	}
	_ = g.Wait()
	close(results)
	<-done
	return merged
}
