package repository

import (
	"errors"
	"time"

	"github.com/steventyyeh/kailendar-v2/internal/task/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormTaskRepository implements TaskRepository using GORM
type gormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GORM-based TaskRepository
func NewGormTaskRepository(db *gorm.DB) TaskRepository {
	return &gormTaskRepository{db: db}
}

func (r *gormTaskRepository) Create(task *domain.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	task.CreatedAt = time.Now()
	task.UpdatedAt = time.Now()
	return r.db.Create(task).Error
}

func (r *gormTaskRepository) CreateBatch(tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	now := time.Now()
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		t.UpdatedAt = now
	}
	return r.db.CreateInBatches(tasks, 100).Error
}

func (r *gormTaskRepository) FindByID(id string) (*domain.Task, error) {
	var task domain.Task
	err := r.db.Where("id = ?", id).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *gormTaskRepository) FindByUserID(userID string, filter TaskFilter, limit, offset int) ([]*domain.Task, int64, error) {
	var tasks []*domain.Task
	var total int64

	query := r.db.Model(&domain.Task{}).Where("user_id = ?", userID)
	if filter.GoalID != "" {
		query = query.Where("goal_id = ?", filter.GoalID)
	}
	if filter.Completed != nil {
		query = query.Where("completed = ?", *filter.Completed)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueUntil != nil {
		query = query.Where("due_date <= ?", *filter.DueUntil)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	err := query.Order("due_date ASC, created_at ASC").Limit(limit).Offset(offset).Find(&tasks).Error
	return tasks, total, err
}

func (r *gormTaskRepository) FindByGoalID(goalID string) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := r.db.Where("goal_id = ?", goalID).Order("due_date ASC, created_at ASC").Find(&tasks).Error
	return tasks, err
}

func (r *gormTaskRepository) FindSynced(userID string) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := r.db.Where("user_id = ? AND calendar_event_id <> ?", userID, "").Find(&tasks).Error
	return tasks, err
}

func (r *gormTaskRepository) Update(task *domain.Task) error {
	task.UpdatedAt = time.Now()
	return r.db.Save(task).Error
}

func (r *gormTaskRepository) SetCompletion(id string, completed bool, completedAt *time.Time) error {
	return r.db.Model(&domain.Task{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"completed":    completed,
			"completed_at": completedAt,
			"updated_at":   time.Now(),
		}).Error
}

func (r *gormTaskRepository) SetCalendarEventID(id, eventID string) error {
	return r.db.Model(&domain.Task{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"calendar_event_id": eventID,
			"updated_at":        time.Now(),
		}).Error
}

func (r *gormTaskRepository) UpdateWindow(id string, dueDate time.Time, start, end string) error {
	return r.db.Model(&domain.Task{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"due_date":        dueDate,
			"start_date_time": start,
			"end_date_time":   end,
			"updated_at":      time.Now(),
		}).Error
}

func (r *gormTaskRepository) Delete(id string) error {
	return r.db.Delete(&domain.Task{}, "id = ?", id).Error
}

func (r *gormTaskRepository) DeleteByGoalID(goalID string) (int64, error) {
	res := r.db.Delete(&domain.Task{}, "goal_id = ?", goalID)
	return res.RowsAffected, res.Error
}

func (r *gormTaskRepository) FindUserIDsWithSyncedTasks() ([]string, error) {
	var ids []string
	err := r.db.Model(&domain.Task{}).
		Where("calendar_event_id <> ?", "").
		Distinct().Pluck("user_id", &ids).Error
	return ids, err
}
