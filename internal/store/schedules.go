package store

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// CreateSchedule inserts a new schedule row.
func (s *Store) CreateSchedule(ctx context.Context, sched *Schedule) error {
	return s.db.WithContext(ctx).Create(sched).Error
}

// GetSchedule returns a schedule by ID.
func (s *Store) GetSchedule(ctx context.Context, id uint) (*Schedule, error) {
	var sched Schedule
	if err := s.db.WithContext(ctx).First(&sched, id).Error; err != nil {
		return nil, wrapGet(err)
	}
	return &sched, nil
}

// ListSchedulesByUser returns all schedules owned by a user.
func (s *Store) ListSchedulesByUser(ctx context.Context, userID uint) ([]Schedule, error) {
	var out []Schedule
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// ListDueSchedules returns active schedules whose next run is at or before now.
func (s *Store) ListDueSchedules(ctx context.Context, now time.Time) ([]Schedule, error) {
	var out []Schedule
	err := s.db.WithContext(ctx).
		Where("active = ? AND next_run_at <= ?", true, now).
		Order("next_run_at").
		Find(&out).Error
	return out, err
}

// ClaimSchedule advances next_run_at from its observed value to next in a
// single conditional update. It returns false when another worker instance
// claimed the row first (the observed next_run_at no longer matches), which
// prevents double generation when multiple sweeps overlap.
func (s *Store) ClaimSchedule(ctx context.Context, id uint, observedNextRun, next time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&Schedule{}).
		Where("id = ? AND active = ? AND next_run_at = ?", id, true, observedNextRun).
		Update("next_run_at", next)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AdvanceSchedule records a completed iteration: bumps the progress counter
// and stamps the last run time.
func (s *Store) AdvanceSchedule(ctx context.Context, id uint, ranAt time.Time) error {
	return s.db.WithContext(ctx).Model(&Schedule{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"generated_count": gorm.Expr("generated_count + 1"),
			"last_run_at":     ranAt,
		}).Error
}

// DeactivateSchedule flips a schedule inactive. Inactive schedules are never
// selected by a sweep again.
func (s *Store) DeactivateSchedule(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Model(&Schedule{}).
		Where("id = ?", id).
		Update("active", false).Error
}

// SetScheduleNextRun forces a schedule's next run time. Used by the manual
// trigger path, which then reuses the normal sweep.
func (s *Store) SetScheduleNextRun(ctx context.Context, id uint, at time.Time) error {
	return s.db.WithContext(ctx).Model(&Schedule{}).
		Where("id = ?", id).
		Update("next_run_at", at).Error
}

// DeleteSchedule removes a schedule row.
func (s *Store) DeleteSchedule(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&Schedule{}, id).Error
}
