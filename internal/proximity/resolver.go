package proximity

import (
	"context"
	"log/slog"
	"math"

	"nearby-api/internal/distancematrix"
	"nearby-api/internal/logger"
	"nearby-api/internal/metrics"
)

// MatrixClient is the slice of the distance service used by the resolver.
type MatrixClient interface {
	Matrix(ctx context.Context, origin string, destinations []string) (*distancematrix.Response, error)
}

// BatchResolver turns one batch into ranked results. Implementations never
// fail: a batch that cannot be resolved contributes nothing.
type BatchResolver interface {
	Resolve(ctx context.Context, origin string, b Batch) []RankedResult
}

// Resolver resolves batches against a distance matrix service.
type Resolver struct {
	client MatrixClient
	log    *slog.Logger
}

// NewResolver returns a resolver; a nil log selects the process logger.
func NewResolver(client MatrixClient, log *slog.Logger) *Resolver {
	if log == nil {
		log = logger.L()
	}
	return &Resolver{client: client, log: log}
}

// Resolve issues one request for the located candidates of b. Element i of
// the response belongs to the i-th located candidate, not to Items[i].
func (r *Resolver) Resolve(ctx context.Context, origin string, b Batch) []RankedResult {
	included := make([]int, 0, len(b.Items))
	dests := make([]string, 0, len(b.Items))
	for i, c := range b.Items {
		if !c.Located() {
			continue
		}
		included = append(included, i)
		dests = append(dests, c.Destination())
	}
	if len(dests) == 0 {
		return nil
	}

	resp, err := r.client.Matrix(ctx, origin, dests)
	if err != nil {
		r.log.Warn("distance_batch_soft_fail", "offset", b.Offset, "size", len(dests), "err", err)
		return nil
	}

	elements := resp.Elements()
	out := make([]RankedResult, 0, len(included))
	for j, idx := range included {
		if j >= len(elements) {
			metrics.DistanceElementsDroppedTotal.Add(float64(len(included) - j))
			break
		}
		meters, ok := distancematrix.DecodeElement(elements[j])
		if !ok {
			metrics.DistanceElementsDroppedTotal.Inc()
			continue
		}
		out = append(out, RankedResult{
			Candidate:  b.Items[idx],
			DistanceKM: roundKM(meters),
			pos:        b.Offset + idx,
		})
	}
	r.log.Debug("distance_batch_done", "offset", b.Offset, "requested", len(dests), "resolved", len(out))
	return out
}

func roundKM(meters float64) float64 {
	return math.Round(meters/1000*100) / 100
}
