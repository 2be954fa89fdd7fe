package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	platformevents "example.com/platform/libs/go/events"
	"github.com/rahulwaghole14/fitnessapp-backend/internal/domain"
)

const uniqueViolation = "23505"

// Repository provides Postgres-backed persistence for the rollup tables and
// the outbox events each write emits.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertDaily writes or replaces the (user, date) row and records a
// day_recorded event in the same transaction.
func (r *Repository) UpsertDaily(ctx context.Context, record domain.DailyRecord) (out domain.DailyRecord, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.DailyRecord{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const upsert = `INSERT INTO daily_activities (user_id, activity_date, steps, distance_km, calories, active_minutes, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
        ON CONFLICT (user_id, activity_date) DO UPDATE
           SET steps = EXCLUDED.steps,
               distance_km = EXCLUDED.distance_km,
               calories = EXCLUDED.calories,
               active_minutes = EXCLUDED.active_minutes,
               updated_at = EXCLUDED.updated_at
        RETURNING id, created_at, updated_at`

	out = record
	out.Date = domain.Day(record.Date)
	err = tx.QueryRow(ctx, upsert,
		record.UserID,
		out.Date,
		record.Steps,
		record.DistanceKM,
		record.Calories,
		record.ActiveMinutes,
		record.UpdatedAt,
	).Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return domain.DailyRecord{}, err
	}

	if err = r.insertOutbox(ctx, tx, record.UserID, "activity.day_recorded", uuid.NewString(), platformevents.DayRecorded{
		UserID:        out.UserID,
		Date:          out.Date.Format(domain.DateLayout),
		Steps:         out.Steps,
		DistanceKM:    out.DistanceKM,
		Calories:      out.Calories,
		ActiveMinutes: out.ActiveMinutes,
		RecordedAt:    out.UpdatedAt,
	}); err != nil {
		return domain.DailyRecord{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return domain.DailyRecord{}, err
	}
	return out, nil
}

// DailyMonths lists the distinct months that still hold daily rows.
func (r *Repository) DailyMonths(ctx context.Context, userID int64) ([]domain.MonthKey, error) {
	const query = `SELECT DISTINCT EXTRACT(YEAR FROM activity_date)::int AS year, EXTRACT(MONTH FROM activity_date)::int AS month
        FROM daily_activities WHERE user_id=$1
        ORDER BY year DESC, month DESC`
	return r.monthKeys(ctx, query, userID)
}

// MonthlyKeys lists the months that have a summary, newest first.
func (r *Repository) MonthlyKeys(ctx context.Context, userID int64) ([]domain.MonthKey, error) {
	const query = `SELECT year, month FROM user_monthly_activity WHERE user_id=$1 ORDER BY year DESC, month DESC`
	return r.monthKeys(ctx, query, userID)
}

func (r *Repository) monthKeys(ctx context.Context, query string, userID int64) ([]domain.MonthKey, error) {
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]domain.MonthKey, 0)
	for rows.Next() {
		var key domain.MonthKey
		if err := rows.Scan(&key.Year, &key.Month); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// YearlyYears lists the years that have a summary, newest first.
func (r *Repository) YearlyYears(ctx context.Context, userID int64) ([]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT year FROM user_yearly_activity WHERE user_id=$1 ORDER BY year DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	years := make([]int, 0)
	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, err
		}
		years = append(years, year)
	}
	return years, rows.Err()
}

// CompactMonth aggregates the month's daily rows into a summary, deletes the
// rows it read, trims monthly summaries to the retention window and records a
// month_compacted event, all in one transaction. A unique violation on the
// summary insert is reported as domain.ErrConflict.
func (r *Repository) CompactMonth(ctx context.Context, userID int64, key domain.MonthKey, at time.Time) (result domain.MonthlyCompaction, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return result, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const selectDaily = `SELECT id, user_id, activity_date, steps, distance_km, calories, active_minutes, created_at, updated_at
        FROM daily_activities
        WHERE user_id=$1 AND activity_date >= $2 AND activity_date < $3
        ORDER BY activity_date
        FOR UPDATE`

	daily, err := collectDaily(tx.Query(ctx, selectDaily, userID, key.Start(), key.End()))
	if err != nil {
		return result, err
	}

	record := domain.MonthlyRecord{
		UserID:    userID,
		Year:      key.Year,
		Month:     key.Month,
		Totals:    domain.SumDaily(daily),
		CreatedAt: at,
	}

	const insertMonthly = `INSERT INTO user_monthly_activity (user_id, year, month, total_steps, total_distance_km, total_calories, total_active_minutes, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`

	err = tx.QueryRow(ctx, insertMonthly,
		userID, key.Year, key.Month,
		record.Totals.Steps, record.Totals.DistanceKM, record.Totals.Calories, record.Totals.ActiveMinutes,
		at,
	).Scan(&record.ID)
	if err != nil {
		err = conflictOr(err)
		return result, err
	}

	ids := make([]int64, 0, len(daily))
	for _, rec := range daily {
		ids = append(ids, rec.ID)
	}
	if len(ids) > 0 {
		tag, execErr := tx.Exec(ctx, `DELETE FROM daily_activities WHERE id = ANY($1)`, ids)
		if execErr != nil {
			err = execErr
			return result, err
		}
		result.DailyDeleted = int(tag.RowsAffected())
	}

	trimmed, err := enforceRetention(ctx, tx, userID)
	if err != nil {
		return result, err
	}
	result.Record = record
	result.Trimmed = trimmed
	result.RetentionDeleted = len(trimmed)

	if err = r.insertOutbox(ctx, tx, userID, "activity.month_compacted", occurrence(key.String(), record.ID), platformevents.MonthCompacted{
		UserID:           userID,
		Year:             key.Year,
		Month:            key.Month,
		Totals:           eventTotals(record.Totals),
		DailyDeleted:     result.DailyDeleted,
		RetentionDeleted: result.RetentionDeleted,
		CompactedAt:      at,
	}); err != nil {
		return result, err
	}

	if err = tx.Commit(ctx); err != nil {
		return domain.MonthlyCompaction{}, err
	}
	return result, nil
}

// enforceRetention deletes the oldest monthly summaries beyond the retention
// window for the user.
func enforceRetention(ctx context.Context, tx pgx.Tx, userID int64) ([]domain.MonthKey, error) {
	rows, err := tx.Query(ctx, `SELECT id, year, month FROM user_monthly_activity WHERE user_id=$1 ORDER BY year ASC, month ASC FOR UPDATE`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	idsByKey := make(map[domain.MonthKey]int64)
	keys := make([]domain.MonthKey, 0, domain.MonthlyRetention+1)
	for rows.Next() {
		var (
			id  int64
			key domain.MonthKey
		)
		if err := rows.Scan(&id, &key.Year, &key.Month); err != nil {
			return nil, err
		}
		idsByKey[key] = id
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	overflow := domain.RetentionOverflow(keys)
	if len(overflow) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(overflow))
	for _, key := range overflow {
		ids = append(ids, idsByKey[key])
	}
	if _, err := tx.Exec(ctx, `DELETE FROM user_monthly_activity WHERE id = ANY($1)`, ids); err != nil {
		return nil, err
	}
	return overflow, nil
}

// CompactYear aggregates the year's monthly summaries into a yearly summary
// and deletes them in one transaction.
func (r *Repository) CompactYear(ctx context.Context, userID int64, year int, at time.Time) (result domain.YearlyCompaction, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return result, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const selectMonthly = `SELECT id, user_id, year, month, total_steps, total_distance_km, total_calories, total_active_minutes, created_at
        FROM user_monthly_activity
        WHERE user_id=$1 AND year=$2
        ORDER BY month
        FOR UPDATE`

	monthly, err := collectMonthly(tx.Query(ctx, selectMonthly, userID, year))
	if err != nil {
		return result, err
	}

	record := domain.YearlyRecord{
		UserID:    userID,
		Year:      year,
		Totals:    domain.SumMonthly(monthly),
		CreatedAt: at,
	}

	const insertYearly = `INSERT INTO user_yearly_activity (user_id, year, total_steps, total_distance_km, total_calories, total_active_minutes, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`

	err = tx.QueryRow(ctx, insertYearly,
		userID, year,
		record.Totals.Steps, record.Totals.DistanceKM, record.Totals.Calories, record.Totals.ActiveMinutes,
		at,
	).Scan(&record.ID)
	if err != nil {
		err = conflictOr(err)
		return result, err
	}

	ids := make([]int64, 0, len(monthly))
	for _, rec := range monthly {
		ids = append(ids, rec.ID)
	}
	if len(ids) > 0 {
		tag, execErr := tx.Exec(ctx, `DELETE FROM user_monthly_activity WHERE id = ANY($1)`, ids)
		if execErr != nil {
			err = execErr
			return result, err
		}
		result.MonthlyDeleted = int(tag.RowsAffected())
	}
	result.Record = record

	if err = r.insertOutbox(ctx, tx, userID, "activity.year_compacted", occurrence(strconv.Itoa(year), record.ID), platformevents.YearCompacted{
		UserID:         userID,
		Year:           year,
		Totals:         eventTotals(record.Totals),
		MonthlyDeleted: result.MonthlyDeleted,
		CompactedAt:    at,
	}); err != nil {
		return result, err
	}

	if err = tx.Commit(ctx); err != nil {
		return domain.YearlyCompaction{}, err
	}
	return result, nil
}

// ListDaily returns the user's daily rows, newest date first.
func (r *Repository) ListDaily(ctx context.Context, userID int64) ([]domain.DailyRecord, error) {
	const query = `SELECT id, user_id, activity_date, steps, distance_km, calories, active_minutes, created_at, updated_at
        FROM daily_activities WHERE user_id=$1 ORDER BY activity_date DESC`
	return collectDaily(r.pool.Query(ctx, query, userID))
}

// DailyInMonth returns the user's daily rows within one month, oldest first.
func (r *Repository) DailyInMonth(ctx context.Context, userID int64, key domain.MonthKey) ([]domain.DailyRecord, error) {
	const query = `SELECT id, user_id, activity_date, steps, distance_km, calories, active_minutes, created_at, updated_at
        FROM daily_activities
        WHERE user_id=$1 AND activity_date >= $2 AND activity_date < $3
        ORDER BY activity_date`
	return collectDaily(r.pool.Query(ctx, query, userID, key.Start(), key.End()))
}

// ListMonthly returns the user's monthly summaries, newest first.
func (r *Repository) ListMonthly(ctx context.Context, userID int64) ([]domain.MonthlyRecord, error) {
	const query = `SELECT id, user_id, year, month, total_steps, total_distance_km, total_calories, total_active_minutes, created_at
        FROM user_monthly_activity WHERE user_id=$1 ORDER BY year DESC, month DESC`
	return collectMonthly(r.pool.Query(ctx, query, userID))
}

// ListYearly returns the user's yearly summaries, newest first.
func (r *Repository) ListYearly(ctx context.Context, userID int64) ([]domain.YearlyRecord, error) {
	const query = `SELECT id, user_id, year, total_steps, total_distance_km, total_calories, total_active_minutes, created_at
        FROM user_yearly_activity WHERE user_id=$1 ORDER BY year DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.YearlyRecord, 0)
	for rows.Next() {
		var rec domain.YearlyRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Year, &rec.Totals.Steps, &rec.Totals.DistanceKM, &rec.Totals.Calories, &rec.Totals.ActiveMinutes, &rec.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

func collectDaily(rows pgx.Rows, err error) ([]domain.DailyRecord, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.DailyRecord, 0)
	for rows.Next() {
		var rec domain.DailyRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Date, &rec.Steps, &rec.DistanceKM, &rec.Calories, &rec.ActiveMinutes, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		rec.Date = domain.Day(rec.Date)
		results = append(results, rec)
	}
	return results, rows.Err()
}

func collectMonthly(rows pgx.Rows, err error) ([]domain.MonthlyRecord, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.MonthlyRecord, 0)
	for rows.Next() {
		var rec domain.MonthlyRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Year, &rec.Month, &rec.Totals.Steps, &rec.Totals.DistanceKM, &rec.Totals.Calories, &rec.Totals.ActiveMinutes, &rec.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

func conflictOr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrConflict
	}
	return err
}

// occurrence scopes a compaction dedupe key to the summary row it produced. A
// bucket whose summary was deleted by a yearly rollup or retention can be
// compacted again after a backfill and must get a fresh key.
func occurrence(bucket string, summaryID int64) string {
	return bucket + "#" + strconv.FormatInt(summaryID, 10)
}

func eventTotals(t domain.Totals) platformevents.Totals {
	return platformevents.Totals{
		Steps:         t.Steps,
		DistanceKM:    t.DistanceKM,
		Calories:      t.Calories,
		ActiveMinutes: t.ActiveMinutes,
	}
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, userID int64, eventType, dedupe string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta := eventCatalog[eventType]
	if meta.Topic == "" {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	aggregateID := strconv.FormatInt(userID, 10)
	dedupeKey := fmt.Sprintf("%s:%s:%s", aggregateID, eventType, dedupe)

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		"user_activity",
		aggregateID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		meta.PartitionKeyFn(userID),
		body,
		dedupeKey,
	)
	return err
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic          string
	SchemaSubject  string
	PartitionKeyFn func(userID int64) string
}

func partitionByUser(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

var eventCatalog = map[string]EventMetadata{
	"activity.day_recorded": {
		Topic:          "activity_rollup_events",
		SchemaSubject:  "activity_day_recorded-value",
		PartitionKeyFn: partitionByUser,
	},
	"activity.month_compacted": {
		Topic:          "activity_rollup_events",
		SchemaSubject:  "activity_month_compacted-value",
		PartitionKeyFn: partitionByUser,
	},
	"activity.year_compacted": {
		Topic:          "activity_rollup_events",
		SchemaSubject:  "activity_year_compacted-value",
		PartitionKeyFn: partitionByUser,
	},
}
