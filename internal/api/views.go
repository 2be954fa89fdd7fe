package api

import (
	"time"

	"github.com/rahulwaghole14/fitnessapp-backend/internal/domain"
)

// DailyView exposes one daily record.
type DailyView struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Date          string    `json:"date"`
	Steps         int64     `json:"steps"`
	DistanceKM    float64   `json:"distance_km"`
	Calories      float64   `json:"calories"`
	ActiveMinutes float64   `json:"active_minutes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MonthlyView exposes one monthly summary.
type MonthlyView struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	Year               int       `json:"year"`
	Month              int       `json:"month"`
	TotalSteps         int64     `json:"total_steps"`
	TotalDistanceKM    float64   `json:"total_distance_km"`
	TotalCalories      float64   `json:"total_calories"`
	TotalActiveMinutes float64   `json:"total_active_minutes"`
	CreatedAt          time.Time `json:"created_at"`
}

// YearlyView exposes one yearly summary.
type YearlyView struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	Year               int       `json:"year"`
	TotalSteps         int64     `json:"total_steps"`
	TotalDistanceKM    float64   `json:"total_distance_km"`
	TotalCalories      float64   `json:"total_calories"`
	TotalActiveMinutes float64   `json:"total_active_minutes"`
	CreatedAt          time.Time `json:"created_at"`
}

// RecordDayResponse reports the stored day and any rollups it triggered.
type RecordDayResponse struct {
	Message                  string       `json:"message"`
	DailyActivityStored      bool         `json:"daily_activity_stored"`
	Daily                    DailyView    `json:"daily"`
	MonthlySummaryCreated    bool         `json:"monthly_summary_created"`
	DailyRecordsDeleted      int          `json:"daily_records_deleted"`
	OldMonthlyRecordsDeleted int          `json:"old_monthly_records_deleted"`
	MonthlyData              *MonthlyView `json:"monthly_data,omitempty"`
	YearlySummaryCreated     bool         `json:"yearly_summary_created"`
	MonthlyRecordsDeleted    int          `json:"monthly_records_deleted"`
	YearlyData               *YearlyView  `json:"yearly_data,omitempty"`
}

// WeekView is one window of the weekly report.
type WeekView struct {
	WeekNumber         int     `json:"week_number"`
	StartDate          string  `json:"start_date"`
	EndDate            string  `json:"end_date"`
	TotalSteps         int64   `json:"total_steps"`
	TotalCalories      float64 `json:"total_calories"`
	TotalDistance      float64 `json:"total_distance"`
	TotalActiveMinutes float64 `json:"total_active_minutes"`
}

// WeeklyReportResponse packages the four windows of a month.
type WeeklyReportResponse struct {
	UserID int64      `json:"user_id"`
	Year   int        `json:"year"`
	Month  int        `json:"month"`
	Weeks  []WeekView `json:"weeks"`
}

func toDailyView(rec domain.DailyRecord) DailyView {
	return DailyView{
		ID:            rec.ID,
		UserID:        rec.UserID,
		Date:          rec.Date.Format(domain.DateLayout),
		Steps:         rec.Steps,
		DistanceKM:    rec.DistanceKM,
		Calories:      rec.Calories,
		ActiveMinutes: rec.ActiveMinutes,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
}

func toMonthlyView(rec domain.MonthlyRecord) MonthlyView {
	return MonthlyView{
		ID:                 rec.ID,
		UserID:             rec.UserID,
		Year:               rec.Year,
		Month:              rec.Month,
		TotalSteps:         rec.Totals.Steps,
		TotalDistanceKM:    rec.Totals.DistanceKM,
		TotalCalories:      rec.Totals.Calories,
		TotalActiveMinutes: rec.Totals.ActiveMinutes,
		CreatedAt:          rec.CreatedAt,
	}
}

func toYearlyView(rec domain.YearlyRecord) YearlyView {
	return YearlyView{
		ID:                 rec.ID,
		UserID:             rec.UserID,
		Year:               rec.Year,
		TotalSteps:         rec.Totals.Steps,
		TotalDistanceKM:    rec.Totals.DistanceKM,
		TotalCalories:      rec.Totals.Calories,
		TotalActiveMinutes: rec.Totals.ActiveMinutes,
		CreatedAt:          rec.CreatedAt,
	}
}

func toWeekView(b domain.WeeklyBucket) WeekView {
	return WeekView{
		WeekNumber:         b.WeekNumber,
		StartDate:          b.StartDate.Format(domain.DateLayout),
		EndDate:            b.EndDate.Format(domain.DateLayout),
		TotalSteps:         b.Totals.Steps,
		TotalCalories:      b.Totals.Calories,
		TotalDistance:      b.Totals.DistanceKM,
		TotalActiveMinutes: b.Totals.ActiveMinutes,
	}
}

func toRecordDayResponse(result *domain.RecordDayResult) RecordDayResponse {
	resp := RecordDayResponse{
		Message:             result.Message(),
		DailyActivityStored: true,
		Daily:               toDailyView(result.Daily),
	}
	if m := result.Monthly; m != nil {
		view := toMonthlyView(m.Record)
		resp.MonthlySummaryCreated = true
		resp.DailyRecordsDeleted = m.DailyDeleted
		resp.OldMonthlyRecordsDeleted = m.RetentionDeleted
		resp.MonthlyData = &view
	}
	if y := result.Yearly; y != nil {
		view := toYearlyView(y.Record)
		resp.YearlySummaryCreated = true
		resp.MonthlyRecordsDeleted = y.MonthlyDeleted
		resp.YearlyData = &view
	}
	return resp
}
