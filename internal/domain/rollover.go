package domain

import (
	"sort"
	"time"
)

// MonthlyRetention is the number of monthly summaries kept per user.
const MonthlyRetention = 12

// BucketState describes where a month bucket sits in the rollup lifecycle.
type BucketState int

const (
	// BucketNoData means the user has no daily rows at all.
	BucketNoData BucketState = iota
	// BucketOpen means the only month with daily rows is the one being written.
	BucketOpen
	// BucketPending means a closed month has daily rows and no summary yet.
	BucketPending
	// BucketCompacted means the most recent closed month already has a summary.
	BucketCompacted
)

func (s BucketState) String() string {
	switch s {
	case BucketNoData:
		return "no-data"
	case BucketOpen:
		return "open"
	case BucketPending:
		return "pending-compaction"
	case BucketCompacted:
		return "compacted"
	default:
		return "unknown"
	}
}

// MonthlyDecision is the result of monthly rollover detection.
type MonthlyDecision struct {
	State  BucketState
	Target MonthKey
}

// ShouldCompact reports whether Target must be compacted now.
func (d MonthlyDecision) ShouldCompact() bool {
	return d.State == BucketPending
}

// DecideMonthly picks the most recent month with daily rows other than the
// month of the incoming write. "Most recent" is by (year desc, month desc),
// regardless of how far it is from written. The month is pending unless it
// appears in summarized.
func DecideMonthly(written time.Time, withData, summarized []MonthKey) MonthlyDecision {
	if len(withData) == 0 {
		return MonthlyDecision{State: BucketNoData}
	}

	current := MonthOf(written)
	var (
		target MonthKey
		found  bool
	)
	for _, key := range withData {
		if key == current {
			continue
		}
		if !found || target.Before(key) {
			target = key
			found = true
		}
	}
	if !found {
		return MonthlyDecision{State: BucketOpen, Target: current}
	}

	for _, key := range summarized {
		if key == target {
			return MonthlyDecision{State: BucketCompacted, Target: target}
		}
	}
	return MonthlyDecision{State: BucketPending, Target: target}
}

// YearlyDecision is the result of yearly rollover detection.
type YearlyDecision struct {
	Year    int
	Compact bool
}

// DecideYearly proposes a yearly rollover only when the latest monthly summary
// is a December and the incoming write falls in January. A year that already
// has a yearly summary is never compacted again.
func DecideYearly(written time.Time, latest *MonthKey, summarizedYears []int) YearlyDecision {
	if latest == nil || latest.Month != 12 || written.Month() != time.January {
		return YearlyDecision{}
	}
	for _, year := range summarizedYears {
		if year == latest.Year {
			return YearlyDecision{Year: latest.Year}
		}
	}
	return YearlyDecision{Year: latest.Year, Compact: true}
}

// RetentionOverflow returns the monthly buckets that fall outside the
// retention window, oldest first. The input order does not matter.
func RetentionOverflow(keys []MonthKey) []MonthKey {
	if len(keys) <= MonthlyRetention {
		return nil
	}
	sorted := make([]MonthKey, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	return sorted[:len(sorted)-MonthlyRetention]
}

// LatestMonth returns the newest key, or nil when keys is empty.
func LatestMonth(keys []MonthKey) *MonthKey {
	if len(keys) == 0 {
		return nil
	}
	latest := keys[0]
	for _, key := range keys[1:] {
		if latest.Before(key) {
			latest = key
		}
	}
	return &latest
}
