package usecase

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"strings"
	"time"

	authrepo "github.com/steventyyeh/kailendar-v2/internal/auth/repository"
	calendarUsecase "github.com/steventyyeh/kailendar-v2/internal/calendar/usecase"
	"github.com/steventyyeh/kailendar-v2/internal/goal/domain"
	"github.com/steventyyeh/kailendar-v2/internal/goal/repository"
	"github.com/steventyyeh/kailendar-v2/internal/notification"
	"github.com/steventyyeh/kailendar-v2/internal/plan"
	taskrepo "github.com/steventyyeh/kailendar-v2/internal/task/repository"
	"github.com/steventyyeh/kailendar-v2/pkg/config"

	"github.com/google/uuid"
)

// goalUsecase implements GoalUsecase interface
type goalUsecase struct {
	goalRepo  repository.GoalRepository
	jobRepo   repository.JobRepository
	taskRepo  taskrepo.TaskRepository
	userRepo  authrepo.UserRepository
	generator plan.Generator
	sync      calendarUsecase.Synchronizer
	progress  ProgressRecorder
	notifier  notification.Notifier
	queue     JobQueue

	defaultHour       int
	freeTierLimit     int
	generationTimeout time.Duration
	now               func() time.Time
	pickColor         func() string
}

// NewGoalUsecase creates a new instance of goalUsecase
func NewGoalUsecase(
	goalRepo repository.GoalRepository,
	jobRepo repository.JobRepository,
	taskRepo taskrepo.TaskRepository,
	userRepo authrepo.UserRepository,
	generator plan.Generator,
	sync calendarUsecase.Synchronizer,
	progress ProgressRecorder,
	cfg *config.Config,
) GoalUsecase {
	uc := &goalUsecase{
		goalRepo:          goalRepo,
		jobRepo:           jobRepo,
		taskRepo:          taskRepo,
		userRepo:          userRepo,
		generator:         generator,
		sync:              sync,
		progress:          progress,
		notifier:          notification.NewNopNotifier(),
		defaultHour:       plan.DefaultTaskHour,
		freeTierLimit:     1,
		generationTimeout: 2 * time.Minute,
		now:               time.Now,
		pickColor: func() string {
			return domain.GoalColors[rand.Intn(len(domain.GoalColors))]
		},
	}
	if cfg != nil {
		if cfg.DefaultTaskHour > 0 {
			uc.defaultHour = cfg.DefaultTaskHour
		}
		if cfg.FreeTierActiveGoals > 0 {
			uc.freeTierLimit = cfg.FreeTierActiveGoals
		}
	}
	return uc
}

// SetNotifier wires owner notifications. nil restores the no-op notifier.
func (u *goalUsecase) SetNotifier(n notification.Notifier) {
	if n == nil {
		n = notification.NewNopNotifier()
	}
	u.notifier = n
}

// SetJobQueue lets CreateGoal wake the worker instead of waiting for its next sweep
func (u *goalUsecase) SetJobQueue(q JobQueue) {
	u.queue = q
}

func (u *goalUsecase) CreateGoal(ctx context.Context, userID string, req CreateGoalRequest) (*domain.Goal, error) {
	for field, value := range map[string]string{
		"category":     req.Category,
		"specificity":  req.Specificity,
		"currentState": req.CurrentState,
		"targetState":  req.TargetState,
		"deadline":     req.Deadline,
	} {
		if strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("%w: missing required field: %s", domain.ErrValidation, field)
		}
	}

	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		return nil, err
	}
	level, err := domain.ParseExperienceLevel(req.CurrentState)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	tz := strings.TrimSpace(req.Timezone)
	if tz == "" && user != nil {
		tz = user.Timezone
	}
	if tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return nil, fmt.Errorf("%w: unknown timezone %q", domain.ErrValidation, tz)
		}
	}

	now := u.now()
	deadline, err := parseDeadline(req.Deadline, domain.LoadLocation(tz))
	if err != nil {
		return nil, err
	}
	if !deadline.After(now) {
		return nil, domain.ErrInvalidDeadline
	}

	// Read-then-write; two concurrent creates can both pass.
	if user != nil && !user.IsPro() {
		active, err := u.goalRepo.CountByUserAndStatus(userID, domain.GoalStatusActive)
		if err != nil {
			return nil, err
		}
		if active >= int64(u.freeTierLimit) {
			return nil, domain.ErrSubscriptionLimit
		}
	}

	goal := &domain.Goal{
		ID:             uuid.New().String(),
		UserID:         userID,
		Status:         domain.GoalStatusProcessing,
		Category:       category,
		Specificity:    strings.TrimSpace(req.Specificity),
		CurrentState:   level,
		TargetState:    strings.TrimSpace(req.TargetState),
		Deadline:       deadline,
		Timezone:       tz,
		LearningStyles: req.LearningStyles,
		Budget:         req.Budget,
		Equipment:      req.Equipment,
		Constraints:    req.Constraints,
		AvailableHours: req.AvailableHours,
		Calendar:       domain.CalendarInfo{Color: u.pickColor(), EventIDs: []string{}},
		Resources:      []domain.Resource{},
	}
	if err := u.goalRepo.Create(goal); err != nil {
		return nil, err
	}

	if err := u.jobRepo.Enqueue(&domain.GenerationJob{GoalID: goal.ID, UserID: userID}); err != nil {
		// Without a job the goal would sit in processing forever.
		log.Printf("[GoalUsecase] Failed to enqueue generation for goal %s: %v", goal.ID, err)
		if delErr := u.goalRepo.Delete(goal.ID); delErr != nil {
			log.Printf("[GoalUsecase] Failed to roll back goal %s: %v", goal.ID, delErr)
		}
		return nil, err
	}
	if u.queue != nil && !u.queue.Nudge(goal.ID) {
		log.Printf("[GoalUsecase] Worker queue full, goal %s waits for the next sweep", goal.ID)
	}

	log.Printf("[GoalUsecase] Created goal %s for user %s, generation queued", goal.ID, userID)
	return goal, nil
}

// GetGoal returns a goal of the user. A goal whose generation failed stays readable with
// status deleted until the owner removes it.
func (u *goalUsecase) GetGoal(userID, goalID string) (*domain.Goal, error) {
	goal, err := u.goalRepo.FindByID(goalID)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, domain.ErrGoalNotFound
	}
	if goal.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return goal, nil
}

func (u *goalUsecase) ListGoals(userID string, status *domain.GoalStatus) ([]*domain.Goal, error) {
	return u.goalRepo.FindByUserID(userID, status)
}

func (u *goalUsecase) GetGenerationJob(userID, goalID string) (*domain.GenerationJob, error) {
	if _, err := u.GetGoal(userID, goalID); err != nil {
		return nil, err
	}
	job, err := u.jobRepo.FindByGoalID(goalID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, domain.ErrGoalNotFound
	}
	return job, nil
}

func (u *goalUsecase) ApproveGoal(userID, goalID string) (*domain.Goal, error) {
	return u.transition(userID, goalID, domain.GoalStatusActive, func(g *domain.Goal) error {
		if g.Plan == nil {
			return domain.ErrPlanNotReady
		}
		return nil
	})
}

func (u *goalUsecase) PauseGoal(userID, goalID string) (*domain.Goal, error) {
	return u.transition(userID, goalID, domain.GoalStatusPaused, nil)
}

// ResumeGoal only reactivates a paused goal; approval is the way out of ready.
func (u *goalUsecase) ResumeGoal(userID, goalID string) (*domain.Goal, error) {
	return u.transition(userID, goalID, domain.GoalStatusActive, func(g *domain.Goal) error {
		if g.Status != domain.GoalStatusPaused {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, g.Status, domain.GoalStatusActive)
		}
		return nil
	})
}

func (u *goalUsecase) CompleteGoal(userID, goalID string) (*domain.Goal, error) {
	return u.transition(userID, goalID, domain.GoalStatusCompleted, nil)
}

func (u *goalUsecase) ArchiveGoal(userID, goalID string) (*domain.Goal, error) {
	return u.transition(userID, goalID, domain.GoalStatusArchived, nil)
}

// transition re-reads the goal, checks ownership and the state machine, then applies the
// change conditionally on the status it read.
func (u *goalUsecase) transition(userID, goalID string, to domain.GoalStatus, guard func(*domain.Goal) error) (*domain.Goal, error) {
	goal, err := u.GetGoal(userID, goalID)
	if err != nil {
		return nil, err
	}
	from := goal.Status
	if !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}
	if guard != nil {
		if err := guard(goal); err != nil {
			return nil, err
		}
	}

	ok, err := u.goalRepo.TransitionStatus(goalID, from, to, u.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: goal %s changed concurrently", domain.ErrInvalidTransition, goalID)
	}
	log.Printf("[GoalUsecase] Goal %s: %s -> %s", goalID, from, to)
	return u.goalRepo.FindByID(goalID)
}

func (u *goalUsecase) DeleteGoal(ctx context.Context, userID, goalID string) (*DeleteResult, error) {
	goal, err := u.GetGoal(userID, goalID)
	if err != nil {
		return nil, err
	}

	tasks, err := u.taskRepo.FindByGoalID(goal.ID)
	if err != nil {
		return nil, err
	}

	result := &DeleteResult{}
	for _, task := range tasks {
		if task.CalendarEventID == "" {
			continue
		}
		if err := u.sync.RemoveEvent(ctx, userID, task.CalendarEventID); err != nil {
			log.Printf("[GoalUsecase] Failed to delete event %s for task %s: %v", task.CalendarEventID, task.ID, err)
			result.CalendarDeleteErrors++
			continue
		}
		result.EventsDeleted++
	}

	deleted, err := u.taskRepo.DeleteByGoalID(goal.ID)
	if err != nil {
		return nil, err
	}
	result.TasksDeleted = int(deleted)

	if err := u.goalRepo.Delete(goal.ID); err != nil {
		return nil, err
	}
	if err := u.jobRepo.Delete(goal.ID); err != nil {
		log.Printf("[GoalUsecase] Failed to drop generation job for goal %s: %v", goal.ID, err)
	}

	log.Printf("[GoalUsecase] Deleted goal %s: %d tasks, %d events, %d calendar errors",
		goal.ID, result.TasksDeleted, result.EventsDeleted, result.CalendarDeleteErrors)
	return result, nil
}

func (u *goalUsecase) GetProgressSummary(userID string) (*ProgressSummary, error) {
	active := domain.GoalStatusActive
	goals, err := u.goalRepo.FindByUserID(userID, &active)
	if err != nil {
		return nil, err
	}

	now := u.now()
	summary := &ProgressSummary{ActiveGoals: len(goals), Goals: []GoalProgressSummary{}}
	minutes := 0
	for _, g := range goals {
		p := g.Progress
		summary.TotalTasksScheduled += p.TotalTasksScheduled
		summary.TotalTasksCompleted += p.TasksCompleted
		minutes += p.TotalMinutesInvested
		if p.CurrentStreak > summary.CurrentStreak {
			summary.CurrentStreak = p.CurrentStreak
		}
		if p.LongestStreak > summary.LongestStreak {
			summary.LongestStreak = p.LongestStreak
		}

		item := GoalProgressSummary{
			ID:             g.ID,
			Name:           g.Specificity,
			Category:       g.Category,
			Color:          g.Calendar.Color,
			Progress:       p.CompletionRate,
			TasksCompleted: p.TasksCompleted,
			TotalTasks:     p.TotalTasksScheduled,
			NextMilestone:  "No upcoming milestone",
		}
		if g.Plan != nil {
			for _, m := range g.Plan.Milestones {
				if m.Status == domain.ItemCompleted {
					continue
				}
				target := m.TargetDate
				item.NextMilestone = m.Title
				item.NextMilestoneAt = &target
				item.DaysToMilestone = int(math.Ceil(target.Sub(now).Hours() / 24))
				break
			}
		}
		summary.Goals = append(summary.Goals, item)
	}

	if summary.TotalTasksScheduled > 0 {
		summary.CompletionRate = int(math.Round(float64(summary.TotalTasksCompleted) / float64(summary.TotalTasksScheduled) * 100))
	}
	summary.HoursInvested = math.Round(float64(minutes)/60*10) / 10
	return summary, nil
}

func parseDeadline(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, value, loc); err == nil {
		// A date-only deadline covers the whole day.
		return domain.EndOfDay(t, loc), nil
	}
	return time.Time{}, fmt.Errorf("%w: deadline %q is not a date", domain.ErrValidation, value)
}
