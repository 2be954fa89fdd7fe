package domain

import "time"

// WeeksPerReport is the fixed number of windows a month is split into.
const WeeksPerReport = 4

// weekStarts are the first days of each window; the last window runs to the
// end of the month.
var weekStarts = [WeeksPerReport]int{1, 8, 15, 22}

// WeeklyBucket is one window of the weekly report.
type WeeklyBucket struct {
	WeekNumber int
	StartDate  time.Time
	EndDate    time.Time
	Totals     Totals
}

// Contains reports whether day falls within the window, inclusive.
func (b WeeklyBucket) Contains(day time.Time) bool {
	day = Day(day)
	return !day.Before(b.StartDate) && !day.After(b.EndDate)
}

// WeekWindows splits a month into days 1-7, 8-14, 15-21 and 22-end.
func WeekWindows(key MonthKey) []WeeklyBucket {
	last := key.Days()
	buckets := make([]WeeklyBucket, 0, WeeksPerReport)
	for i, start := range weekStarts {
		end := start + 6
		if i == WeeksPerReport-1 || end > last {
			end = last
		}
		buckets = append(buckets, WeeklyBucket{
			WeekNumber: i + 1,
			StartDate:  time.Date(key.Year, time.Month(key.Month), start, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(key.Year, time.Month(key.Month), end, 0, 0, 0, 0, time.UTC),
		})
	}
	return buckets
}

// BuildWeeklyReport sums the daily rows of a month into its four windows.
// Rows outside the month are ignored.
func BuildWeeklyReport(key MonthKey, records []DailyRecord) []WeeklyBucket {
	buckets := WeekWindows(key)
	for _, r := range records {
		for i := range buckets {
			if buckets[i].Contains(r.Date) {
				buckets[i].Totals.Add(TotalsOf(r))
				break
			}
		}
	}
	return buckets
}
