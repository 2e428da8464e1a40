package repository

import (
	"errors"
	"time"

	"github.com/steventyyeh/kailendar-v2/internal/goal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormJobRepository struct {
	db *gorm.DB
}

// NewGormJobRepository creates a new GORM-based JobRepository
func NewGormJobRepository(db *gorm.DB) JobRepository {
	return &gormJobRepository{db: db}
}

func (r *gormJobRepository) Enqueue(job *domain.GenerationJob) error {
	now := time.Now()
	job.Status = domain.JobStatusPending
	job.CreatedAt = now
	job.UpdatedAt = now

	// Atomic upsert: INSERT ... ON CONFLICT (goal_id) DO UPDATE
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "goal_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "status", "attempts", "last_error", "updated_at"}),
	}).Create(job).Error
}

func (r *gormJobRepository) Claim(goalID string) (bool, error) {
	now := time.Now()
	res := r.db.Model(&domain.GenerationJob{}).
		Where("goal_id = ? AND status = ?", goalID, domain.JobStatusPending).
		Updates(map[string]interface{}{
			"status":     domain.JobStatusRunning,
			"attempts":   gorm.Expr("attempts + 1"),
			"started_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormJobRepository) setStatus(goalID string, status domain.JobStatus, reason string) error {
	return r.db.Model(&domain.GenerationJob{}).Where("goal_id = ?", goalID).
		Updates(map[string]interface{}{
			"status":     status,
			"last_error": reason,
			"updated_at": time.Now(),
		}).Error
}

func (r *gormJobRepository) MarkDone(goalID string) error {
	return r.setStatus(goalID, domain.JobStatusDone, "")
}

func (r *gormJobRepository) MarkFailed(goalID, reason string) error {
	return r.setStatus(goalID, domain.JobStatusFailed, reason)
}

func (r *gormJobRepository) Release(goalID, reason string) error {
	return r.setStatus(goalID, domain.JobStatusPending, reason)
}

func (r *gormJobRepository) FindByGoalID(goalID string) (*domain.GenerationJob, error) {
	var job domain.GenerationJob
	err := r.db.Where("goal_id = ?", goalID).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *gormJobRepository) FindPending(limit int) ([]*domain.GenerationJob, error) {
	var jobs []*domain.GenerationJob
	if limit <= 0 {
		limit = 50
	}
	err := r.db.Where("status = ?", domain.JobStatusPending).
		Order("created_at ASC").Limit(limit).Find(&jobs).Error
	return jobs, err
}

func (r *gormJobRepository) RequeueRunning() (int64, error) {
	res := r.db.Model(&domain.GenerationJob{}).
		Where("status = ?", domain.JobStatusRunning).
		Updates(map[string]interface{}{
			"status":     domain.JobStatusPending,
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

func (r *gormJobRepository) Delete(goalID string) error {
	return r.db.Delete(&domain.GenerationJob{}, "goal_id = ?", goalID).Error
}
