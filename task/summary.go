package task

import (
	"context"
	"time"
)

// Summary is the periodic aggregate across all non-Preload tasks (§4.3).
type Summary struct {
	Total   int64
	Success int64
	Failed  int64
	Percent float64
}

// minSummaryPeriod is the floor on how often a Summary may be derived
// (§4.3: "periodically (≥ 50 ms)").
const minSummaryPeriod = 50 * time.Millisecond

// SummaryLoop periodically derives a Summary from ongoing's tracked tasks
// and delivers it to publish, until ctx is cancelled. period is clamped up
// to minSummaryPeriod. Preload tasks are excluded unless includePreload is
// true, per §4.3's "optionally suppressed by config".
func SummaryLoop(ctx context.Context, ongoing *Ongoing, period time.Duration, includePreload bool, publish func(Summary)) {
	if period < minSummaryPeriod {
		period = minSummaryPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			publish(deriveSummary(ongoing, includePreload))
		}
	}
}

func deriveSummary(ongoing *Ongoing, includePreload bool) Summary {
	var s Summary
	for _, t := range ongoing.Snapshot() {
		if !includePreload && t.Kind == KindPreload {
			continue
		}
		s.Total += t.Prog.Total
		s.Success += t.Prog.Success
		s.Failed += t.Prog.Failed
	}
	if s.Total > 0 {
		done := s.Success + s.Failed
		if done >= s.Total {
			s.Percent = 100
		} else {
			s.Percent = 100 * float64(done) / float64(s.Total)
		}
	}
	return s
}
