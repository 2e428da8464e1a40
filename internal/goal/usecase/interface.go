package usecase

import (
	"context"
	"time"

	"github.com/steventyyeh/kailendar-v2/internal/goal/domain"
	"github.com/steventyyeh/kailendar-v2/internal/notification"
)

// GoalUsecase drives a goal from creation through plan generation, task projection and
// its lifecycle states.
type GoalUsecase interface {
	// CreateGoal stores the goal as processing and queues plan generation. It does not wait
	// for the plan.
	CreateGoal(ctx context.Context, userID string, req CreateGoalRequest) (*domain.Goal, error)
	GetGoal(userID, goalID string) (*domain.Goal, error)
	ListGoals(userID string, status *domain.GoalStatus) ([]*domain.Goal, error)
	GetGenerationJob(userID, goalID string) (*domain.GenerationJob, error)
	GetProgressSummary(userID string) (*ProgressSummary, error)

	// ProcessGeneration runs the generation job for a goal. It returns an error wrapping
	// domain.ErrGenerationAbandoned when the goal was deleted as a result.
	ProcessGeneration(ctx context.Context, goalID string) error
	// AbandonGeneration deletes a goal still processing once its job has run out of attempts.
	AbandonGeneration(ctx context.Context, goalID, reason string) error
	// GenerateTasks projects an existing plan into tasks again for a ready or active goal.
	GenerateTasks(ctx context.Context, userID, goalID string, syncToCalendar bool) (*GenerateTasksResult, error)

	ApproveGoal(userID, goalID string) (*domain.Goal, error)
	PauseGoal(userID, goalID string) (*domain.Goal, error)
	ResumeGoal(userID, goalID string) (*domain.Goal, error)
	CompleteGoal(userID, goalID string) (*domain.Goal, error)
	ArchiveGoal(userID, goalID string) (*domain.Goal, error)
	DeleteGoal(ctx context.Context, userID, goalID string) (*DeleteResult, error)

	SetNotifier(n notification.Notifier)
	SetJobQueue(q JobQueue)
}

// JobQueue wakes the generation worker for a freshly enqueued job.
type JobQueue interface {
	Nudge(goalID string) bool
}

// ProgressRecorder refreshes a goal's progress aggregate from its tasks.
type ProgressRecorder interface {
	RecomputeProgress(goalID string) error
}

type CreateGoalRequest struct {
	Category       string   `json:"category"`
	Specificity    string   `json:"specificity"`
	CurrentState   string   `json:"currentState"`
	TargetState    string   `json:"targetState"`
	Deadline       string   `json:"deadline"`
	Timezone       string   `json:"timezone"`
	LearningStyles []string `json:"learningStyles"`
	Budget         string   `json:"budget"`
	Equipment      string   `json:"equipment"`
	Constraints    string   `json:"constraints"`
	AvailableHours string   `json:"availableHours"`
}

type GenerateTasksResult struct {
	TasksCreated int      `json:"tasksCreated"`
	EventsSynced int      `json:"eventsSynced"`
	SyncFailures int      `json:"syncFailures"`
	EventIDs     []string `json:"eventIds"`
}

// DeleteResult reports what a goal delete cascaded through. Calendar failures never block it.
type DeleteResult struct {
	TasksDeleted         int `json:"tasksDeleted"`
	EventsDeleted        int `json:"eventsDeleted"`
	CalendarDeleteErrors int `json:"calendarDeleteErrors"`
}

// ProgressSummary aggregates progress across a user's active goals.
type ProgressSummary struct {
	ActiveGoals         int                   `json:"activeGoals"`
	TotalTasksScheduled int                   `json:"totalTasksScheduled"`
	TotalTasksCompleted int                   `json:"totalTasksCompleted"`
	CompletionRate      int                   `json:"completionRate"`
	HoursInvested       float64               `json:"hoursInvested"`
	CurrentStreak       int                   `json:"currentStreak"`
	LongestStreak       int                   `json:"longestStreak"`
	Goals               []GoalProgressSummary `json:"goals"`
}

type GoalProgressSummary struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Category        domain.Category `json:"category"`
	Color           string          `json:"color"`
	Progress        float64         `json:"progress"`
	TasksCompleted  int             `json:"tasksCompleted"`
	TotalTasks      int             `json:"totalTasks"`
	NextMilestone   string          `json:"nextMilestone"`
	NextMilestoneAt *time.Time      `json:"nextMilestoneAt,omitempty"`
	DaysToMilestone int             `json:"daysToMilestone"`
}
