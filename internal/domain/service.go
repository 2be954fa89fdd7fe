// Package domain defines the business logic for the activity rollup service.
package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rahulwaghole14/fitnessapp-backend/internal/observability"
)

// Repository captures persistence operations. CompactMonth and CompactYear
// must each run as one atomic unit and return ErrConflict when the summary
// row for the bucket already exists.
type Repository interface {
	UpsertDaily(ctx context.Context, record DailyRecord) (DailyRecord, error)
	DailyMonths(ctx context.Context, userID int64) ([]MonthKey, error)
	MonthlyKeys(ctx context.Context, userID int64) ([]MonthKey, error)
	YearlyYears(ctx context.Context, userID int64) ([]int, error)
	CompactMonth(ctx context.Context, userID int64, key MonthKey, at time.Time) (MonthlyCompaction, error)
	CompactYear(ctx context.Context, userID int64, year int, at time.Time) (YearlyCompaction, error)
	ListDaily(ctx context.Context, userID int64) ([]DailyRecord, error)
	ListMonthly(ctx context.Context, userID int64) ([]MonthlyRecord, error)
	ListYearly(ctx context.Context, userID int64) ([]YearlyRecord, error)
	DailyInMonth(ctx context.Context, userID int64, key MonthKey) ([]DailyRecord, error)
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithLogger overrides the logger used to report rollups.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service orchestrates daily writes and the write-triggered rollups.
type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordDayInput captures a day's metrics from the API layer.
type RecordDayInput struct {
	UserID        int64
	Date          time.Time
	Steps         int64
	DistanceKM    float64
	Calories      float64
	ActiveMinutes float64
}

// Validate rejects negative or non-finite metrics and dates after 31 December
// of next year.
func (in RecordDayInput) Validate(now time.Time) error {
	if in.UserID <= 0 {
		return &ValidationError{Field: "user_id", Reason: "must be positive"}
	}
	if in.Date.IsZero() {
		return &ValidationError{Field: "activity_date", Reason: "is required"}
	}
	if in.Steps < 0 {
		return &ValidationError{Field: "steps", Reason: "must be non-negative"}
	}
	for _, m := range []struct {
		field string
		value float64
	}{
		{"distance_km", in.DistanceKM},
		{"calories", in.Calories},
		{"active_minutes", in.ActiveMinutes},
	} {
		if math.IsNaN(m.value) || math.IsInf(m.value, 0) {
			return &ValidationError{Field: m.field, Reason: "must be a finite number"}
		}
		if m.value < 0 {
			return &ValidationError{Field: m.field, Reason: "must be non-negative"}
		}
	}
	if Day(in.Date).After(MaxFutureDate(now)) {
		return &ValidationError{Field: "activity_date", Reason: "cannot be more than 1 year in the future"}
	}
	return nil
}

// MaxFutureDate is the latest accepted activity date for a write made at now:
// 31 December of the following calendar year. This is looser than a rolling
// one-year window; a write on 2 January 2025 may carry any date up to
// 31 December 2026.
func MaxFutureDate(now time.Time) time.Time {
	return time.Date(now.Year()+1, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// RecordDayResult is returned by RecordDay.
type RecordDayResult struct {
	Daily   DailyRecord
	Monthly *MonthlyCompaction
	Yearly  *YearlyCompaction
}

// Message renders a human summary of what the write triggered.
func (r RecordDayResult) Message() string {
	parts := make([]string, 0, 5)
	if m := r.Monthly; m != nil {
		parts = append(parts,
			fmt.Sprintf("Previous month (%s) summarized: %d steps", m.Record.Key(), m.Record.Totals.Steps),
			fmt.Sprintf("Daily records deleted: %d", m.DailyDeleted),
			fmt.Sprintf("Old monthly records deleted: %d", m.RetentionDeleted),
		)
	}
	if y := r.Yearly; y != nil {
		parts = append(parts,
			fmt.Sprintf("Year %d aggregated: %d steps", y.Record.Year, y.Record.Totals.Steps),
			fmt.Sprintf("Monthly records deleted: %d", y.MonthlyDeleted),
		)
	}
	if len(parts) == 0 {
		return "Daily activity stored successfully."
	}
	return "Daily activity stored successfully. " + strings.Join(parts, " ") + "."
}

// RecordDay upserts the day, then runs monthly and yearly rollover in order.
// It is safe to retry as a whole after a StorageError.
func (s *Service) RecordDay(ctx context.Context, input RecordDayInput) (*RecordDayResult, error) {
	now := s.now()
	if err := input.Validate(now); err != nil {
		return nil, err
	}

	day := Day(input.Date)
	daily, err := s.repo.UpsertDaily(ctx, DailyRecord{
		UserID:        input.UserID,
		Date:          day,
		Steps:         input.Steps,
		DistanceKM:    input.DistanceKM,
		Calories:      input.Calories,
		ActiveMinutes: input.ActiveMinutes,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, storageErr("upsert daily", err)
	}
	observability.RecordDayPersisted(now)

	result := &RecordDayResult{Daily: daily}

	monthly, err := s.rollMonth(ctx, input.UserID, day, now)
	if err != nil {
		return nil, err
	}
	result.Monthly = monthly

	yearly, err := s.rollYear(ctx, input.UserID, day, now)
	if err != nil {
		return nil, err
	}
	result.Yearly = yearly

	return result, nil
}

func (s *Service) rollMonth(ctx context.Context, userID int64, day, now time.Time) (*MonthlyCompaction, error) {
	withData, err := s.repo.DailyMonths(ctx, userID)
	if err != nil {
		return nil, storageErr("list daily months", err)
	}
	summarized, err := s.repo.MonthlyKeys(ctx, userID)
	if err != nil {
		return nil, storageErr("list monthly keys", err)
	}

	decision := DecideMonthly(day, withData, summarized)
	if !decision.ShouldCompact() {
		return nil, nil
	}

	compaction, err := s.repo.CompactMonth(ctx, userID, decision.Target, now)
	if errors.Is(err, ErrConflict) {
		s.logger.Info("monthly rollup already done by a concurrent writer",
			zap.Int64("user_id", userID),
			zap.Int("year", decision.Target.Year),
			zap.Int("month", decision.Target.Month))
		observability.RecordCompactionConflict(observability.LevelMonthly)
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("compact month", err)
	}

	s.logger.Info("monthly rollup completed",
		zap.Int64("user_id", userID),
		zap.Int("year", decision.Target.Year),
		zap.Int("month", decision.Target.Month),
		zap.Int64("total_steps", compaction.Record.Totals.Steps),
		zap.Int("daily_deleted", compaction.DailyDeleted),
		zap.Int("retention_deleted", compaction.RetentionDeleted))
	observability.RecordCompaction(observability.LevelMonthly, compaction.DailyDeleted)
	observability.RecordRetentionTrimmed(compaction.RetentionDeleted)
	return &compaction, nil
}

func (s *Service) rollYear(ctx context.Context, userID int64, day, now time.Time) (*YearlyCompaction, error) {
	keys, err := s.repo.MonthlyKeys(ctx, userID)
	if err != nil {
		return nil, storageErr("list monthly keys", err)
	}
	years, err := s.repo.YearlyYears(ctx, userID)
	if err != nil {
		return nil, storageErr("list yearly years", err)
	}

	decision := DecideYearly(day, LatestMonth(keys), years)
	if !decision.Compact {
		return nil, nil
	}

	compaction, err := s.repo.CompactYear(ctx, userID, decision.Year, now)
	if errors.Is(err, ErrConflict) {
		s.logger.Info("yearly rollup already done by a concurrent writer",
			zap.Int64("user_id", userID),
			zap.Int("year", decision.Year))
		observability.RecordCompactionConflict(observability.LevelYearly)
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("compact year", err)
	}

	s.logger.Info("yearly rollup completed",
		zap.Int64("user_id", userID),
		zap.Int("year", decision.Year),
		zap.Int64("total_steps", compaction.Record.Totals.Steps),
		zap.Int("monthly_deleted", compaction.MonthlyDeleted))
	observability.RecordCompaction(observability.LevelYearly, compaction.MonthlyDeleted)
	return &compaction, nil
}

// ListDailyRecords returns the user's daily rows, newest date first.
func (s *Service) ListDailyRecords(ctx context.Context, userID int64) ([]DailyRecord, error) {
	if userID <= 0 {
		return nil, ErrUserRequired
	}
	records, err := s.repo.ListDaily(ctx, userID)
	return records, storageErr("list daily", err)
}

// ListMonthlyRecords returns the user's monthly summaries, newest first.
func (s *Service) ListMonthlyRecords(ctx context.Context, userID int64) ([]MonthlyRecord, error) {
	if userID <= 0 {
		return nil, ErrUserRequired
	}
	records, err := s.repo.ListMonthly(ctx, userID)
	return records, storageErr("list monthly", err)
}

// ListYearlyRecords returns the user's yearly summaries, newest first.
func (s *Service) ListYearlyRecords(ctx context.Context, userID int64) ([]YearlyRecord, error) {
	if userID <= 0 {
		return nil, ErrUserRequired
	}
	records, err := s.repo.ListYearly(ctx, userID)
	return records, storageErr("list yearly", err)
}

// WeeklyReport splits a month into four windows over whatever daily rows
// still exist. A compacted month reports zero totals everywhere.
func (s *Service) WeeklyReport(ctx context.Context, userID int64, year, month int) ([]WeeklyBucket, error) {
	if userID <= 0 {
		return nil, ErrUserRequired
	}
	if year < 1 {
		return nil, &ValidationError{Field: "year", Reason: "must be positive"}
	}
	if month < 1 || month > 12 {
		return nil, &ValidationError{Field: "month", Reason: "must be between 1 and 12"}
	}

	key := MonthKey{Year: year, Month: month}
	records, err := s.repo.DailyInMonth(ctx, userID, key)
	if err != nil {
		return nil, storageErr("list daily in month", err)
	}
	return BuildWeeklyReport(key, records), nil
}
