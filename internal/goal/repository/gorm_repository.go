package repository

import (
	"errors"
	"time"

	"github.com/steventyyeh/kailendar-v2/internal/goal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormGoalRepository struct {
	db *gorm.DB
}

// NewGormGoalRepository creates a new GORM-based GoalRepository
func NewGormGoalRepository(db *gorm.DB) GoalRepository {
	return &gormGoalRepository{db: db}
}

func (r *gormGoalRepository) Create(goal *domain.Goal) error {
	if goal.ID == "" {
		goal.ID = uuid.New().String()
	}
	goal.CreatedAt = time.Now()
	goal.UpdatedAt = time.Now()
	return r.db.Create(goal).Error
}

func (r *gormGoalRepository) FindByID(id string) (*domain.Goal, error) {
	var goal domain.Goal
	err := r.db.Where("id = ?", id).First(&goal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &goal, nil
}

func (r *gormGoalRepository) FindByUserID(userID string, status *domain.GoalStatus) ([]*domain.Goal, error) {
	var goals []*domain.Goal
	query := r.db.Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	} else {
		query = query.Where("status <> ?", domain.GoalStatusDeleted)
	}
	err := query.Order("created_at DESC").Find(&goals).Error
	return goals, err
}

func (r *gormGoalRepository) CountByUserAndStatus(userID string, status domain.GoalStatus) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Goal{}).Where("user_id = ? AND status = ?", userID, status).Count(&count).Error
	return count, err
}

func (r *gormGoalRepository) SavePlan(id string, plan *domain.Plan, resources []domain.Resource) (bool, error) {
	plan.RefreshObjectives()
	res := r.db.Model(&domain.Goal{}).
		Where("id = ? AND status = ?", id, domain.GoalStatusProcessing).
		Select("plan", "resources", "status", "updated_at").
		Updates(&domain.Goal{
			Plan:      plan,
			Resources: resources,
			Status:    domain.GoalStatusReady,
			UpdatedAt: time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormGoalRepository) TransitionStatus(id string, from, to domain.GoalStatus, at time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	switch to {
	case domain.GoalStatusPaused:
		updates["paused_at"] = at
	case domain.GoalStatusActive:
		updates["paused_at"] = nil
	case domain.GoalStatusCompleted:
		updates["completed_at"] = at
	}

	res := r.db.Model(&domain.Goal{}).Where("id = ? AND status = ?", id, from).Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormGoalRepository) MarkDeleted(id string) error {
	return r.db.Model(&domain.Goal{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     domain.GoalStatusDeleted,
			"updated_at": time.Now(),
		}).Error
}

func (r *gormGoalRepository) UpdateProgress(id string, progress domain.Progress) error {
	return r.db.Model(&domain.Goal{}).Where("id = ?", id).
		Select("progress", "updated_at").
		Updates(&domain.Goal{Progress: progress, UpdatedAt: time.Now()}).Error
}

func (r *gormGoalRepository) UpdateCalendar(id string, calendar domain.CalendarInfo) error {
	return r.db.Model(&domain.Goal{}).Where("id = ?", id).
		Select("calendar", "updated_at").
		Updates(&domain.Goal{Calendar: calendar, UpdatedAt: time.Now()}).Error
}

func (r *gormGoalRepository) Delete(id string) error {
	return r.db.Delete(&domain.Goal{}, "id = ?", id).Error
}
