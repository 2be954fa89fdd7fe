package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWeekWindowsFollowCalendar(t *testing.T) {
	cases := map[MonthKey][4][2]int{
		{Year: 2024, Month: 6}: {{1, 7}, {8, 14}, {15, 21}, {22, 30}},
		{Year: 2023, Month: 2}: {{1, 7}, {8, 14}, {15, 21}, {22, 28}},
		{Year: 2024, Month: 2}: {{1, 7}, {8, 14}, {15, 21}, {22, 29}},
		{Year: 2024, Month: 1}: {{1, 7}, {8, 14}, {15, 21}, {22, 31}},
	}
	for key, want := range cases {
		windows := WeekWindows(key)
		require.Len(t, windows, WeeksPerReport)
		for i, w := range windows {
			require.Equal(t, i+1, w.WeekNumber)
			require.Equal(t, want[i][0], w.StartDate.Day(), key.String())
			require.Equal(t, want[i][1], w.EndDate.Day(), key.String())
		}
	}
}

func TestBuildWeeklyReportSumsWindows(t *testing.T) {
	key := MonthKey{Year: 2024, Month: 6}
	records := []DailyRecord{
		{Date: date(2024, time.June, 7), Steps: 10, Calories: 1},
		{Date: date(2024, time.June, 8), Steps: 20, DistanceKM: 2},
		{Date: date(2024, time.June, 30), Steps: 30, ActiveMinutes: 3},
		{Date: date(2024, time.July, 1), Steps: 1000},
	}

	report := BuildWeeklyReport(key, records)

	require.Equal(t, Totals{Steps: 10, Calories: 1}, report[0].Totals)
	require.Equal(t, Totals{Steps: 20, DistanceKM: 2}, report[1].Totals)
	require.Equal(t, Totals{}, report[2].Totals)
	require.Equal(t, Totals{Steps: 30, ActiveMinutes: 3}, report[3].Totals)
}

func TestBucketContainsIgnoresTimeOfDay(t *testing.T) {
	bucket := WeekWindows(MonthKey{Year: 2024, Month: 6})[0]
	require.True(t, bucket.Contains(time.Date(2024, time.June, 7, 23, 59, 0, 0, time.UTC)))
	require.False(t, bucket.Contains(date(2024, time.June, 8)))
}
