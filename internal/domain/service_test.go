package domain_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rahulwaghole14/fitnessapp-backend/internal/domain"
	"github.com/rahulwaghole14/fitnessapp-backend/internal/observability"
	"github.com/rahulwaghole14/fitnessapp-backend/internal/persistence/memory"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newService(t *testing.T, repo domain.Repository, now time.Time) *domain.Service {
	t.Helper()
	return domain.NewService(repo,
		domain.WithClock(func() time.Time { return now }),
		domain.WithLogger(zaptest.NewLogger(t)))
}

func record(t *testing.T, svc *domain.Service, user int64, date time.Time, steps int64) *domain.RecordDayResult {
	t.Helper()
	res, err := svc.RecordDay(context.Background(), domain.RecordDayInput{
		UserID:        user,
		Date:          date,
		Steps:         steps,
		DistanceKM:    float64(steps) / 1000,
		Calories:      float64(steps) / 20,
		ActiveMinutes: float64(steps) / 100,
	})
	require.NoError(t, err)
	return res
}

func TestBackfilledMonthIsCompactedAgainAfterYearlyRollup(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	svc := newService(t, repo, day(2025, time.February, 10))

	record(t, svc, 1, day(2024, time.November, 5), 100)
	record(t, svc, 1, day(2024, time.December, 5), 200)
	res := record(t, svc, 1, day(2025, time.January, 5), 300)
	require.NotNil(t, res.Yearly)
	require.Equal(t, 2024, res.Yearly.Record.Year)

	// The November summary is gone; a backfill recreates November daily data.
	record(t, svc, 1, day(2024, time.November, 20), 40)
	res = record(t, svc, 1, day(2025, time.February, 5), 500)
	require.NotNil(t, res.Monthly)
	require.Equal(t, domain.MonthKey{Year: 2024, Month: 11}, res.Monthly.Record.Key())
	require.Equal(t, int64(40), res.Monthly.Record.Totals.Steps)

	keys, err := repo.MonthlyKeys(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []domain.MonthKey{{Year: 2025, Month: 1}, {Year: 2024, Month: 11}}, keys)
}

func TestRecordDayReplacesSameDate(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	svc := newService(t, repo, day(2024, time.June, 30))

	first := record(t, svc, 1, day(2024, time.June, 10), 100)
	second := record(t, svc, 1, day(2024, time.June, 10), 250)

	require.Equal(t, first.Daily.ID, second.Daily.ID)
	rows, err := svc.ListDailyRecords(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, int64(250), rows[0].Steps)
}

func TestMonthlyRolloverSumsAndDeletes(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	svc := newService(t, repo, day(2024, time.June, 30))

	before := testutil.ToFloat64(compactions().WithLabelValues(observability.LevelMonthly))

	for i, steps := range []int64{100, 200, 300} {
		res := record(t, svc, 1, day(2024, time.May, i+1), steps)
		require.Nil(t, res.Monthly, "open month must not compact")
	}

	res := record(t, svc, 1, day(2024, time.June, 2), 50)
	require.NotNil(t, res.Monthly)
	require.Equal(t, domain.MonthKey{Year: 2024, Month: 5}, res.Monthly.Record.Key())
	require.Equal(t, int64(600), res.Monthly.Record.Totals.Steps)
	require.InDelta(t, 0.6, res.Monthly.Record.Totals.DistanceKM, 1e-9)
	require.InDelta(t, 30.0, res.Monthly.Record.Totals.Calories, 1e-9)
	require.InDelta(t, 6.0, res.Monthly.Record.Totals.ActiveMinutes, 1e-9)
	require.Equal(t, 3, res.Monthly.DailyDeleted)
	require.Contains(t, res.Message(), "Previous month (2024-05) summarized: 600 steps")

	require.InDelta(t, before+1, testutil.ToFloat64(compactions().WithLabelValues(observability.LevelMonthly)), 1e-9)

	// A later write in June leaves the May summary alone.
	again := record(t, svc, 1, day(2024, time.June, 20), 75)
	require.Nil(t, again.Monthly)

	may, err := repo.DailyInMonth(ctx, 1, domain.MonthKey{Year: 2024, Month: 5})
	require.NoError(t, err)
	require.Empty(t, may)

	monthly, err := svc.ListMonthlyRecords(ctx, 1)
	require.NoError(t, err)
	require.Len(t, monthly, 1)
	require.Equal(t, res.Monthly.Record, monthly[0])
}

func TestRetentionKeepsTwelveMonths(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	svc := newService(t, repo, day(2024, time.March, 15))

	// December is skipped so no yearly rollover consumes the 2023 summaries.
	writes := []time.Time{}
	for m := time.January; m <= time.November; m++ {
		writes = append(writes, day(2023, m, 10))
	}
	writes = append(writes, day(2024, time.January, 10), day(2024, time.February, 10), day(2024, time.March, 10))

	var last *domain.RecordDayResult
	for _, w := range writes {
		last = record(t, svc, 1, w, 10)
		require.Nil(t, last.Yearly)
	}

	require.NotNil(t, last.Monthly)
	require.Equal(t, 1, last.Monthly.RetentionDeleted)
	require.Equal(t, []domain.MonthKey{{Year: 2023, Month: 1}}, last.Monthly.Trimmed)

	monthly, err := svc.ListMonthlyRecords(ctx, 1)
	require.NoError(t, err)
	require.Len(t, monthly, domain.MonthlyRetention)
	require.Equal(t, domain.MonthKey{Year: 2024, Month: 2}, monthly[0].Key())
	require.Equal(t, domain.MonthKey{Year: 2023, Month: 2}, monthly[len(monthly)-1].Key())
}

func TestYearlyRolloverAfterDecember(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	svc := newService(t, repo, day(2025, time.January, 31))

	record(t, svc, 1, day(2024, time.November, 5), 100)
	record(t, svc, 1, day(2024, time.December, 5), 200)
	res := record(t, svc, 1, day(2025, time.January, 2), 10)

	require.NotNil(t, res.Monthly)
	require.Equal(t, 12, res.Monthly.Record.Month)
	require.NotNil(t, res.Yearly)
	require.Equal(t, 2024, res.Yearly.Record.Year)
	require.Equal(t, int64(300), res.Yearly.Record.Totals.Steps)
	require.Equal(t, 2, res.Yearly.MonthlyDeleted)
	require.Contains(t, res.Message(), "Year 2024 aggregated: 300 steps")

	monthly, err := svc.ListMonthlyRecords(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, monthly)

	yearly, err := svc.ListYearlyRecords(ctx, 1)
	require.NoError(t, err)
	require.Len(t, yearly, 1)

	// Another January write does not aggregate the year twice.
	again := record(t, svc, 1, day(2025, time.January, 3), 10)
	require.Nil(t, again.Yearly)
}

func TestNoYearlyRolloverWhenLatestMonthIsNotDecember(t *testing.T) {
	repo := memory.NewRepository()
	svc := newService(t, repo, day(2025, time.January, 31))

	record(t, svc, 2, day(2024, time.October, 5), 100)
	res := record(t, svc, 2, day(2025, time.January, 2), 10)

	require.NotNil(t, res.Monthly)
	require.Equal(t, 10, res.Monthly.Record.Month)
	require.Nil(t, res.Yearly)
}

func TestRecordDayRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	now := day(2024, time.June, 1)
	svc := newService(t, repo, now)

	cases := []domain.RecordDayInput{
		{UserID: 1, Date: day(2024, time.May, 1), Steps: -1},
		{UserID: 1, Date: day(2024, time.May, 1), DistanceKM: -0.5},
		{UserID: 1, Date: day(2024, time.May, 1), Calories: -1},
		{UserID: 1, Date: day(2024, time.May, 1), ActiveMinutes: -1},
		{UserID: 0, Date: day(2024, time.May, 1)},
		{UserID: 1},
		{UserID: 1, Date: day(2026, time.January, 1)},
		{UserID: 1, Date: day(2024, time.May, 1), DistanceKM: math.NaN()},
		{UserID: 1, Date: day(2024, time.May, 1), Calories: math.Inf(1)},
		{UserID: 1, Date: day(2024, time.May, 1), ActiveMinutes: math.Inf(-1)},
	}
	for _, in := range cases {
		_, err := svc.RecordDay(ctx, in)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr, "%+v", in)
	}

	rows, err := repo.ListDaily(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, rows)

	_, err = svc.RecordDay(ctx, domain.RecordDayInput{UserID: 1, Date: day(2025, time.December, 31)})
	require.NoError(t, err)
}

type conflictingRepo struct {
	*memory.Repository
}

func (conflictingRepo) CompactMonth(context.Context, int64, domain.MonthKey, time.Time) (domain.MonthlyCompaction, error) {
	return domain.MonthlyCompaction{}, domain.ErrConflict
}

func TestCompactionConflictIsSwallowed(t *testing.T) {
	repo := conflictingRepo{memory.NewRepository()}
	svc := newService(t, repo, day(2024, time.June, 30))

	before := testutil.ToFloat64(conflicts().WithLabelValues(observability.LevelMonthly))

	record(t, svc, 1, day(2024, time.May, 1), 10)
	res := record(t, svc, 1, day(2024, time.June, 1), 10)

	require.Nil(t, res.Monthly)
	require.Equal(t, "Daily activity stored successfully.", res.Message())
	require.InDelta(t, before+1, testutil.ToFloat64(conflicts().WithLabelValues(observability.LevelMonthly)), 1e-9)
}

type failingRepo struct {
	*memory.Repository
	err error
}

func (r failingRepo) UpsertDaily(context.Context, domain.DailyRecord) (domain.DailyRecord, error) {
	return domain.DailyRecord{}, r.err
}

func TestStorageFailureIsWrapped(t *testing.T) {
	cause := errors.New("connection reset")
	svc := newService(t, failingRepo{Repository: memory.NewRepository(), err: cause}, day(2024, time.June, 30))

	_, err := svc.RecordDay(context.Background(), domain.RecordDayInput{UserID: 1, Date: day(2024, time.June, 1)})

	var serr *domain.StorageError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, "upsert daily", serr.Op)
	require.ErrorIs(t, err, cause)
}

func TestZeroRowMonthStillGetsSummary(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()

	compaction, err := repo.CompactMonth(ctx, 3, domain.MonthKey{Year: 2024, Month: 4}, day(2024, time.May, 1))
	require.NoError(t, err)
	require.Equal(t, domain.Totals{}, compaction.Record.Totals)
	require.Zero(t, compaction.DailyDeleted)

	_, err = repo.CompactMonth(ctx, 3, domain.MonthKey{Year: 2024, Month: 4}, day(2024, time.May, 1))
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestWeeklyReportOverCompactedMonthIsZero(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	svc := newService(t, repo, day(2024, time.June, 30))

	record(t, svc, 1, day(2024, time.May, 3), 100)
	before, err := svc.WeeklyReport(ctx, 1, 2024, 5)
	require.NoError(t, err)
	require.Equal(t, int64(100), before[0].Totals.Steps)

	record(t, svc, 1, day(2024, time.June, 1), 100)
	after, err := svc.WeeklyReport(ctx, 1, 2024, 5)
	require.NoError(t, err)
	require.Len(t, after, domain.WeeksPerReport)
	for _, bucket := range after {
		require.Equal(t, domain.Totals{}, bucket.Totals)
	}

	_, err = svc.WeeklyReport(ctx, 1, 2024, 0)
	require.Error(t, err)
	_, err = svc.WeeklyReport(ctx, 0, 2024, 5)
	require.ErrorIs(t, err, domain.ErrUserRequired)
}

func compactions() *prometheus.CounterVec {
	c, _, _ := observability.Collectors()
	return c
}

func conflicts() *prometheus.CounterVec {
	_, c, _ := observability.Collectors()
	return c
}
