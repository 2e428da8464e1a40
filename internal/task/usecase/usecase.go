package usecase

import (
	"context"

	"github.com/steventyyeh/kailendar-v2/internal/task/domain"
	"github.com/steventyyeh/kailendar-v2/internal/task/repository"
)

// TaskUsecase defines the interface for task business logic
type TaskUsecase interface {
	// CreateTask creates a task under one of the user's goals and mirrors it onto the calendar
	CreateTask(ctx context.Context, userID string, req CreateTaskRequest) (*domain.Task, error)

	// GetTaskByID retrieves a task by ID (with ownership check)
	GetTaskByID(userID, taskID string) (*domain.Task, error)

	// GetUserTasks retrieves a user's tasks with optional filters
	GetUserTasks(userID string, filter repository.TaskFilter, limit, offset int) ([]*domain.Task, int64, error)

	// GetUpcomingTasks lists incomplete tasks due within the next days
	GetUpcomingTasks(userID string, days int) ([]*domain.Task, error)

	// SearchTasks ranks the user's tasks by a typo-tolerant match on title and description
	SearchTasks(userID, query string, limit int) ([]*domain.Task, error)

	// UpdateTask updates an existing task and re-syncs its event
	UpdateTask(ctx context.Context, userID, taskID string, updates TaskUpdateRequest) (*domain.Task, error)

	// DeleteTask deletes a task; calendar cleanup failures are ignored
	DeleteTask(ctx context.Context, userID, taskID string) error

	// ToggleCompletion sets the completion flag, refreshes goal progress and
	// restyles the calendar event on a best-effort basis
	ToggleCompletion(ctx context.Context, userID, taskID string, completed bool) (*domain.Task, error)

	// ReconcileFromCalendar pulls deletions and moves made on the calendar back into the task store
	ReconcileFromCalendar(ctx context.Context, userID string) (*ReconcileReport, error)

	// RecomputeProgress rebuilds a goal's progress aggregate from its tasks
	RecomputeProgress(goalID string) error
}

// CreateTaskRequest represents the fields of a manually created task
type CreateTaskRequest struct {
	GoalID         string  `json:"goalId" binding:"required"`
	Title          string  `json:"title" binding:"required"`
	Description    string  `json:"description"`
	DueDate        string  `json:"dueDate" binding:"required"`
	StartDateTime  string  `json:"startDateTime"`
	EndDateTime    string  `json:"endDateTime"`
	Priority       string  `json:"priority"`
	Timezone       string  `json:"timezone"`
	SyncToCalendar *bool   `json:"syncToCalendar"`
	MilestoneID    *string `json:"milestoneId"`
}

// TaskUpdateRequest represents the fields that can be updated
type TaskUpdateRequest struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	DueDate       *string `json:"dueDate,omitempty"`
	StartDateTime *string `json:"startDateTime,omitempty"`
	EndDateTime   *string `json:"endDateTime,omitempty"`
	Priority      *string `json:"priority,omitempty"`
	Timezone      *string `json:"timezone,omitempty"`
}

// ReconcileReport counts what a calendar pass changed locally.
type ReconcileReport struct {
	Checked  int `json:"checked"`
	Detached int `json:"detached"`
	Moved    int `json:"moved"`
}
