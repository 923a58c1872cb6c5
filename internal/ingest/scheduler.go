package ingest

import (
	"context"
	"time"

	"nearby-api/internal/logger"
)

// nextWeekdayAt returns the first instant after now that falls on day at
// hour:00 in loc.
func nextWeekdayAt(now time.Time, loc *time.Location, day time.Weekday, hour int) time.Time {
	now = now.In(loc)
	for i := 0; i <= 7; i++ {
		d := now.AddDate(0, 0, i)
		if d.Weekday() != day {
			continue
		}
		t := time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, loc)
		if t.After(now) {
			return t
		}
	}
	d := now.AddDate(0, 0, 7)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, loc)
}

// StartWeekly runs Import every Monday at hour in loc in a background
// goroutine until ctx is done.
//
// after is called with the row count of every successful run.
// Constraints: hour granularity only; a nil loc means UTC. Errors are
// logged and the schedule continues with the following week.
func StartWeekly(ctx context.Context, dst Upserter, src string, loc *time.Location, hour int, after func(rows int)) {
	l := logger.L()
	if loc == nil {
		loc = time.UTC
	}
	go func() {
		for {
			next := nextWeekdayAt(time.Now(), loc, time.Monday, hour)
			l.Info("ingest_scheduled", "next", next)
			t := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
			n, err := Import(ctx, dst, src, DefaultBatch)
			if err != nil {
				l.Error("ingest_error", "err", err)
				continue
			}
			if after != nil {
				after(n)
			}
		}
	}()
}
