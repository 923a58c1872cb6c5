// Package stats keeps query counters and daily unique visitors in Redis.
// A Recorder without a client does nothing.
package stats

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
)

const (
	keyTotal       = "nearby:stats:total"
	keyDayPrefix   = "nearby:stats:day:"
	keyVisitPrefix = "nearby:stats:visitors:"
	keyBloomPrefix = "nearby:bloom:visitors:"

	bloomBits   = 1 << 20
	bloomHashes = 4
	dayTTL      = 48 * time.Hour
)

type Totals struct {
	TotalQueries  int64 `json:"total_queries"`
	TodayQueries  int64 `json:"today_queries"`
	TodayVisitors int64 `json:"today_visitors"`
}

// Recorder counts queries and daily unique visitors.
//
// Counters live under nearby:stats:*; visitors are deduplicated per UTC
// day through a bloom bitmap under nearby:bloom:visitors:<day>.
// Constraints: day keys expire after 48h; a nil client turns every call
// into a no-op returning zero totals.
type Recorder struct {
	rc  *redis.Client
	now func() time.Time
}

func New(rc *redis.Client) *Recorder {
	return &Recorder{rc: rc, now: time.Now}
}

// Enabled reports whether a redis client is attached.
func (r *Recorder) Enabled() bool { return r != nil && r.rc != nil }

func (r *Recorder) day() string { return r.now().UTC().Format("20060102") }

// Record counts one query from visitor. The visitor counter moves only the
// first time the daily bloom filter sees visitor.
func (r *Recorder) Record(ctx context.Context, visitor string) error {
	if !r.Enabled() {
		return nil
	}
	day := r.day()
	pipe := r.rc.TxPipeline()
	pipe.Incr(ctx, keyTotal)
	pipe.Incr(ctx, keyDayPrefix+day)
	pipe.Expire(ctx, keyDayPrefix+day, dayTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if visitor == "" {
		return nil
	}
	first, err := bloomCheckAndSet(ctx, r.rc, keyBloomPrefix+day, bloomPositions([]byte(visitor), bloomBits, bloomHashes), dayTTL)
	if err != nil || !first {
		return err
	}
	pipe = r.rc.TxPipeline()
	pipe.Incr(ctx, keyVisitPrefix+day)
	pipe.Expire(ctx, keyVisitPrefix+day, dayTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// Totals reads the counters. Missing keys count as zero.
func (r *Recorder) Totals(ctx context.Context) (Totals, error) {
	if !r.Enabled() {
		return Totals{}, nil
	}
	day := r.day()
	vals, err := r.rc.MGet(ctx, keyTotal, keyDayPrefix+day, keyVisitPrefix+day).Result()
	if err != nil {
		return Totals{}, err
	}
	return Totals{
		TotalQueries:  toInt(vals[0]),
		TodayQueries:  toInt(vals[1]),
		TodayVisitors: toInt(vals[2]),
	}, nil
}

func toInt(v any) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// bloomPositions derives k bit offsets in [0, m) from data.
func bloomPositions(data []byte, m uint32, k int) []int64 {
	pos := make([]int64, k)
	d := xxhash.New()
	for i := 0; i < k; i++ {
		d.Reset()
		_, _ = d.Write([]byte{byte(i)})
		_, _ = d.Write(data)
		pos[i] = int64(d.Sum64() % uint64(m))
	}
	return pos
}

// bloomCheckAndSet returns true when at least one bit was unset, setting
// all of them.
func bloomCheckAndSet(ctx context.Context, rc *redis.Client, key string, positions []int64, ttl time.Duration) (bool, error) {
	if rc == nil {
		return true, nil
	}
	pipe := rc.Pipeline()
	cmds := make([]*redis.IntCmd, len(positions))
	for i, p := range positions {
		cmds[i] = pipe.SetBit(ctx, key, p, 1)
	}
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return true, err
	}
	for _, c := range cmds {
		if c.Val() == 0 {
			return true, nil
		}
	}
	return false, nil
}
