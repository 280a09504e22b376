package processor

import "time"

// RunStatistics tracks aggregate counters and byte totals across a run.
type RunStatistics struct {
	Processed          int
	Failed             int
	Skipped            int
	TotalOriginalBytes int64
	TotalNewBytes      int64
	Elapsed            time.Duration
}

// Aggregate folds outcomes, in any order, into run statistics. Byte totals
// only include successful jobs.
func Aggregate(outcomes []Outcome, start, end time.Time) RunStatistics {
	stats := RunStatistics{Elapsed: end.Sub(start)}
	for _, o := range outcomes {
		if !o.OK() {
			stats.Failed++
			continue
		}
		stats.Processed++
		stats.TotalOriginalBytes += o.OriginalSize
		stats.TotalNewBytes += o.NewSize
	}
	return stats
}

// SpaceSaved returns the aggregate byte difference between inputs and outputs.
// Positive means outputs are smaller; negative means they grew.
func (s RunStatistics) SpaceSaved() int64 {
	return s.TotalOriginalBytes - s.TotalNewBytes
}

// Savings returns the percentage reduction. ok is false when nothing was
// converted, so there is no figure to report.
func (s RunStatistics) Savings() (pct float64, ok bool) {
	if s.TotalOriginalBytes <= 0 {
		return 0, false
	}
	return float64(s.SpaceSaved()) / float64(s.TotalOriginalBytes) * 100, true
}
