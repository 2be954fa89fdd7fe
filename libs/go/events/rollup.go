// Package events defines shared cross-service event payloads.
package events

import "time"

// Totals carries the summed metrics of a bucket.
type Totals struct {
	Steps         int64   `json:"total_steps"`
	DistanceKM    float64 `json:"total_distance_km"`
	Calories      float64 `json:"total_calories"`
	ActiveMinutes float64 `json:"total_active_minutes"`
}

// DayRecorded is emitted whenever a daily record is written or replaced.
type DayRecorded struct {
	UserID        int64     `json:"user_id"`
	Date          string    `json:"date"`
	Steps         int64     `json:"steps"`
	DistanceKM    float64   `json:"distance_km"`
	Calories      float64   `json:"calories"`
	ActiveMinutes float64   `json:"active_minutes"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// MonthCompacted is emitted when the daily rows of a closed month are folded
// into a monthly summary.
type MonthCompacted struct {
	UserID           int64     `json:"user_id"`
	Year             int       `json:"year"`
	Month            int       `json:"month"`
	Totals           Totals    `json:"totals"`
	DailyDeleted     int       `json:"daily_records_deleted"`
	RetentionDeleted int       `json:"old_monthly_records_deleted"`
	CompactedAt      time.Time `json:"compacted_at"`
}

// YearCompacted is emitted when the monthly rows of a year are folded into a
// yearly summary.
type YearCompacted struct {
	UserID         int64     `json:"user_id"`
	Year           int       `json:"year"`
	Totals         Totals    `json:"totals"`
	MonthlyDeleted int       `json:"monthly_records_deleted"`
	CompactedAt    time.Time `json:"compacted_at"`
}
