package repository

import (
	"time"

	"github.com/steventyyeh/kailendar-v2/internal/task/domain"
)

// TaskFilter narrows a user's task listing. Zero values mean "no filter".
type TaskFilter struct {
	GoalID    string
	Completed *bool
	DueFrom   *time.Time
	DueUntil  *time.Time
}

// TaskRepository defines the interface for task data access.
// Writes against rows that no longer exist are no-ops, not errors.
type TaskRepository interface {
	// Create creates a new task
	Create(task *domain.Task) error

	// CreateBatch inserts materialized tasks in one statement
	CreateBatch(tasks []*domain.Task) error

	// FindByID finds a task by its ID
	FindByID(id string) (*domain.Task, error)

	// FindByUserID finds tasks for a user, ordered by due date
	FindByUserID(userID string, filter TaskFilter, limit, offset int) ([]*domain.Task, int64, error)

	// FindByGoalID returns every task of a goal
	FindByGoalID(goalID string) ([]*domain.Task, error)

	// FindSynced returns a user's tasks that carry a calendar event reference
	FindSynced(userID string) ([]*domain.Task, error)

	// Update saves all fields of an existing task
	Update(task *domain.Task) error

	// SetCompletion persists the completion flag and timestamp
	SetCompletion(id string, completed bool, completedAt *time.Time) error

	// SetCalendarEventID records (or clears, with "") the external event reference
	SetCalendarEventID(id, eventID string) error

	// UpdateWindow moves a task's schedule
	UpdateWindow(id string, dueDate time.Time, start, end string) error

	// Delete deletes a task by ID
	Delete(id string) error

	// DeleteByGoalID removes every task of a goal and returns how many were removed
	DeleteByGoalID(goalID string) (int64, error)

	// FindUserIDsWithSyncedTasks lists owners that have at least one calendar-backed task
	FindUserIDsWithSyncedTasks() ([]string, error)
}
