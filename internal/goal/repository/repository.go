package repository

import (
	"time"

	"github.com/steventyyeh/kailendar-v2/internal/goal/domain"
)

// GoalRepository defines the interface for goal data access.
// Every write is keyed by id and silently affects nothing when the goal is gone,
// so background work racing a user delete stays harmless.
type GoalRepository interface {
	Create(goal *domain.Goal) error
	FindByID(id string) (*domain.Goal, error)
	FindByUserID(userID string, status *domain.GoalStatus) ([]*domain.Goal, error)
	CountByUserAndStatus(userID string, status domain.GoalStatus) (int64, error)

	// SavePlan stores the generated plan and resources and moves a processing goal to ready.
	// It reports false when the goal no longer exists or has left processing.
	SavePlan(id string, plan *domain.Plan, resources []domain.Resource) (bool, error)

	// TransitionStatus moves a goal from one status to another atomically.
	// It reports false when the goal is missing or not in the expected status.
	TransitionStatus(id string, from, to domain.GoalStatus, at time.Time) (bool, error)

	// MarkDeleted soft-deletes a goal whatever its current status.
	MarkDeleted(id string) error

	UpdateProgress(id string, progress domain.Progress) error
	UpdateCalendar(id string, calendar domain.CalendarInfo) error
	Delete(id string) error
}

// JobRepository persists generation jobs.
type JobRepository interface {
	// Enqueue creates or resets the job for a goal to pending.
	Enqueue(job *domain.GenerationJob) error

	// Claim moves a pending job to running. It reports false when another worker got there first.
	Claim(goalID string) (bool, error)

	MarkDone(goalID string) error
	MarkFailed(goalID, reason string) error

	// Release hands a running job back to the queue after a retryable failure.
	Release(goalID, reason string) error

	FindByGoalID(goalID string) (*domain.GenerationJob, error)
	FindPending(limit int) ([]*domain.GenerationJob, error)

	// RequeueRunning resets jobs left running by a process that died.
	RequeueRunning() (int64, error)

	Delete(goalID string) error
}
