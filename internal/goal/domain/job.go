package domain

import "time"

// JobStatus is the state of a durable generation job.
type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusFailed  JobStatus = "failed"
)

// GenerationJob is the durable work item that drives plan generation for one goal.
// It is keyed by goal id so a goal never has more than one job.
type GenerationJob struct {
	GoalID    string     `json:"goalId" gorm:"primaryKey"`
	UserID    string     `json:"userId" gorm:"index;not null"`
	Status    JobStatus  `json:"status" gorm:"index;not null"`
	Attempts  int        `json:"attempts"`
	LastError string     `json:"lastError,omitempty"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
