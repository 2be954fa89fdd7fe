package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage layout of a calendar day.
const DateLayout = "2006-01-02"

// DailyRecord is the fine-grained activity row, one per user per calendar day.
type DailyRecord struct {
	ID            int64
	UserID        int64
	Date          time.Time
	Steps         int64
	DistanceKM    float64
	Calories      float64
	ActiveMinutes float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Month returns the bucket the record belongs to.
func (r DailyRecord) Month() MonthKey {
	return MonthOf(r.Date)
}

// MonthlyRecord summarises a closed month. It is never updated once written.
type MonthlyRecord struct {
	ID        int64
	UserID    int64
	Year      int
	Month     int
	Totals    Totals
	CreatedAt time.Time
}

// Key returns the (year, month) bucket of the summary.
func (r MonthlyRecord) Key() MonthKey {
	return MonthKey{Year: r.Year, Month: r.Month}
}

// YearlyRecord summarises a closed year.
type YearlyRecord struct {
	ID        int64
	UserID    int64
	Year      int
	Totals    Totals
	CreatedAt time.Time
}

// Totals holds summed metrics. Sums only, never ratios.
type Totals struct {
	Steps         int64
	DistanceKM    float64
	Calories      float64
	ActiveMinutes float64
}

// Add folds another set of totals into t.
func (t *Totals) Add(other Totals) {
	t.Steps += other.Steps
	t.DistanceKM += other.DistanceKM
	t.Calories += other.Calories
	t.ActiveMinutes += other.ActiveMinutes
}

// TotalsOf returns the metrics of a single day as totals.
func TotalsOf(r DailyRecord) Totals {
	return Totals{
		Steps:         r.Steps,
		DistanceKM:    r.DistanceKM,
		Calories:      r.Calories,
		ActiveMinutes: r.ActiveMinutes,
	}
}

// SumDaily adds up the metrics of the given daily rows. Zero rows sum to zero.
func SumDaily(records []DailyRecord) Totals {
	var totals Totals
	for _, r := range records {
		totals.Add(TotalsOf(r))
	}
	return totals
}

// SumMonthly adds up the totals of the given monthly summaries.
func SumMonthly(records []MonthlyRecord) Totals {
	var totals Totals
	for _, r := range records {
		totals.Add(r.Totals)
	}
	return totals
}

// MonthKey identifies a calendar month bucket.
type MonthKey struct {
	Year  int
	Month int
}

// MonthOf returns the bucket containing t.
func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: int(t.Month())}
}

// Before orders keys by (year asc, month asc).
func (k MonthKey) Before(other MonthKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// Start returns the first day of the month in UTC.
func (k MonthKey) Start() time.Time {
	return time.Date(k.Year, time.Month(k.Month), 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first day of the following month, exclusive.
func (k MonthKey) End() time.Time {
	return k.Start().AddDate(0, 1, 0)
}

// Days returns the number of calendar days in the month.
func (k MonthKey) Days() int {
	return k.End().AddDate(0, 0, -1).Day()
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthlyCompaction reports the outcome of folding a month of daily rows.
type MonthlyCompaction struct {
	Record           MonthlyRecord
	DailyDeleted     int
	RetentionDeleted int
	Trimmed          []MonthKey
}

// YearlyCompaction reports the outcome of folding a year of monthly rows.
type YearlyCompaction struct {
	Record         YearlyRecord
	MonthlyDeleted int
}
