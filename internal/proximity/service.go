package proximity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nearby-api/internal/logger"
	"nearby-api/internal/metrics"
)

// CandidateSource lists candidates whose status is in statuses, in a stable
// order.
type CandidateSource interface {
	ByStatus(ctx context.Context, statuses []string) ([]Candidate, error)
}

// Service answers nearby queries: cache first, otherwise fetch, resolve in
// batches, rank and cache.
type Service struct {
	src      CandidateSource
	resolver BatchResolver
	cache    *Cache
	log      *slog.Logger

	batchSize   int
	maxInFlight int
	topK        int
}

func NewService(src CandidateSource, resolver BatchResolver, cache *Cache, log *slog.Logger) *Service {
	if log == nil {
		log = logger.L()
	}
	if cache == nil {
		cache = NewCache(DefaultTTL)
	}
	return &Service{
		src:         src,
		resolver:    resolver,
		cache:       cache,
		log:         log,
		batchSize:   BatchSize,
		maxInFlight: MaxInFlight,
		topK:        TopK,
	}
}

// Nearby returns up to TopK candidates ordered by travel distance from the
// query origin.
//
// Errors: only invalid input and record store failures; distance lookup
// failures shrink the result instead.
// Constraints: cancellation of ctx is ignored after the cache miss, so the
// batches always run to completion or soft-fail on their own. Empty results
// are cached like any other.
func (s *Service) Nearby(ctx context.Context, q Query) ([]RankedResult, error) {
	t0 := time.Now()
	defer func() { metrics.NearbyDurationMs.Observe(float64(time.Since(t0).Milliseconds())) }()
	metrics.NearbyRequestsTotal.Inc()

	origin, err := q.Origin()
	if err != nil {
		return nil, err
	}
	statuses := NormalizeStatuses(q.Statuses)
	fp := Fingerprint(q.Latitude, q.Longitude, statuses)
	if e, ok := s.cache.Lookup(fp); ok {
		metrics.CacheHitsTotal.Inc()
		s.log.Debug("nearby_cache_hit", "fp", fp, "age_s", int(time.Since(e.CreatedAt).Seconds()))
		return e.Payload, nil
	}
	metrics.CacheMissesTotal.Inc()

	// Once dispatched, the pipeline runs to completion even if the caller
	// goes away; a canceled request must not leave an empty payload cached.
	ctx = context.WithoutCancel(ctx)
	cands, err := s.src.ByStatus(ctx, statuses)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	merged := Aggregate(ctx, s.resolver, origin, cands, s.batchSize, s.maxInFlight)
	top := Rank(merged, s.topK)
	if len(top) == 0 {
		metrics.EmptyResultsTotal.Inc()
	}
	s.cache.Store(fp, top)
	s.log.Info("nearby_resolved", "fp", fp, "statuses", statuses, "candidates", len(cands), "resolved", len(merged), "returned", len(top))
	return top, nil
}
