// Package memory provides an in-process implementation of domain.Repository
// for tests and local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rahulwaghole14/fitnessapp-backend/internal/domain"
)

type userTables struct {
	daily   map[time.Time]domain.DailyRecord
	monthly map[domain.MonthKey]domain.MonthlyRecord
	yearly  map[int]domain.YearlyRecord
}

// Repository stores the three rollup tables in maps guarded by one mutex, so
// each compaction is atomic. It records no outbox events; outbox behaviour is
// covered by the Postgres integration tests.
type Repository struct {
	mu     sync.RWMutex
	users  map[int64]*userTables
	nextID int64
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{users: make(map[int64]*userTables)}
}

func (r *Repository) tables(userID int64) *userTables {
	t, ok := r.users[userID]
	if !ok {
		t = &userTables{
			daily:   make(map[time.Time]domain.DailyRecord),
			monthly: make(map[domain.MonthKey]domain.MonthlyRecord),
			yearly:  make(map[int]domain.YearlyRecord),
		}
		r.users[userID] = t
	}
	return t
}

func (r *Repository) id() int64 {
	r.nextID++
	return r.nextID
}

// UpsertDaily implements domain.Repository.
func (r *Repository) UpsertDaily(_ context.Context, record domain.DailyRecord) (domain.DailyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.tables(record.UserID)
	day := domain.Day(record.Date)
	record.Date = day
	if existing, ok := t.daily[day]; ok {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	} else {
		record.ID = r.id()
	}
	t.daily[day] = record
	return record, nil
}

// DailyMonths implements domain.Repository.
func (r *Repository) DailyMonths(_ context.Context, userID int64) ([]domain.MonthKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.users[userID]
	if !ok {
		return nil, nil
	}
	seen := make(map[domain.MonthKey]struct{})
	out := make([]domain.MonthKey, 0)
	for day := range t.daily {
		key := domain.MonthOf(day)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sortKeysDesc(out)
	return out, nil
}

// MonthlyKeys implements domain.Repository.
func (r *Repository) MonthlyKeys(_ context.Context, userID int64) ([]domain.MonthKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.users[userID]
	if !ok {
		return nil, nil
	}
	out := make([]domain.MonthKey, 0, len(t.monthly))
	for key := range t.monthly {
		out = append(out, key)
	}
	sortKeysDesc(out)
	return out, nil
}

// YearlyYears implements domain.Repository.
func (r *Repository) YearlyYears(_ context.Context, userID int64) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.users[userID]
	if !ok {
		return nil, nil
	}
	out := make([]int, 0, len(t.yearly))
	for year := range t.yearly {
		out = append(out, year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out, nil
}

// CompactMonth implements domain.Repository.
func (r *Repository) CompactMonth(_ context.Context, userID int64, key domain.MonthKey, at time.Time) (domain.MonthlyCompaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.tables(userID)
	if _, exists := t.monthly[key]; exists {
		return domain.MonthlyCompaction{}, domain.ErrConflict
	}

	matched := make([]domain.DailyRecord, 0)
	for day, rec := range t.daily {
		if domain.MonthOf(day) == key {
			matched = append(matched, rec)
		}
	}

	record := domain.MonthlyRecord{
		ID:        r.id(),
		UserID:    userID,
		Year:      key.Year,
		Month:     key.Month,
		Totals:    domain.SumDaily(matched),
		CreatedAt: at,
	}
	t.monthly[key] = record
	for _, rec := range matched {
		delete(t.daily, rec.Date)
	}

	keys := make([]domain.MonthKey, 0, len(t.monthly))
	for k := range t.monthly {
		keys = append(keys, k)
	}
	overflow := domain.RetentionOverflow(keys)
	for _, k := range overflow {
		delete(t.monthly, k)
	}

	return domain.MonthlyCompaction{
		Record:           record,
		DailyDeleted:     len(matched),
		RetentionDeleted: len(overflow),
		Trimmed:          overflow,
	}, nil
}

// CompactYear implements domain.Repository.
func (r *Repository) CompactYear(_ context.Context, userID int64, year int, at time.Time) (domain.YearlyCompaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.tables(userID)
	if _, exists := t.yearly[year]; exists {
		return domain.YearlyCompaction{}, domain.ErrConflict
	}

	matched := make([]domain.MonthlyRecord, 0, 12)
	for key, rec := range t.monthly {
		if key.Year == year {
			matched = append(matched, rec)
		}
	}

	record := domain.YearlyRecord{
		ID:        r.id(),
		UserID:    userID,
		Year:      year,
		Totals:    domain.SumMonthly(matched),
		CreatedAt: at,
	}
	t.yearly[year] = record
	for _, rec := range matched {
		delete(t.monthly, rec.Key())
	}

	return domain.YearlyCompaction{Record: record, MonthlyDeleted: len(matched)}, nil
}

// ListDaily implements domain.Repository.
func (r *Repository) ListDaily(_ context.Context, userID int64) ([]domain.DailyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.users[userID]
	if !ok {
		return []domain.DailyRecord{}, nil
	}
	out := make([]domain.DailyRecord, 0, len(t.daily))
	for _, rec := range t.daily {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// ListMonthly implements domain.Repository.
func (r *Repository) ListMonthly(_ context.Context, userID int64) ([]domain.MonthlyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.users[userID]
	if !ok {
		return []domain.MonthlyRecord{}, nil
	}
	out := make([]domain.MonthlyRecord, 0, len(t.monthly))
	for _, rec := range t.monthly {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Key().Before(out[i].Key()) })
	return out, nil
}

// ListYearly implements domain.Repository.
func (r *Repository) ListYearly(_ context.Context, userID int64) ([]domain.YearlyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.users[userID]
	if !ok {
		return []domain.YearlyRecord{}, nil
	}
	out := make([]domain.YearlyRecord, 0, len(t.yearly))
	for _, rec := range t.yearly {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out, nil
}

// DailyInMonth implements domain.Repository.
func (r *Repository) DailyInMonth(_ context.Context, userID int64, key domain.MonthKey) ([]domain.DailyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.users[userID]
	if !ok {
		return nil, nil
	}
	out := make([]domain.DailyRecord, 0)
	for day, rec := range t.daily {
		if domain.MonthOf(day) == key {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// InsertMonthly seeds a monthly summary directly, bypassing compaction.
func (r *Repository) InsertMonthly(record domain.MonthlyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.tables(record.UserID)
	if _, exists := t.monthly[record.Key()]; exists {
		return domain.ErrConflict
	}
	record.ID = r.id()
	t.monthly[record.Key()] = record
	return nil
}

func sortKeysDesc(keys []domain.MonthKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[j].Before(keys[i]) })
}
