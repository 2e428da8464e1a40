package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	caldomain "github.com/steventyyeh/kailendar-v2/internal/calendar/domain"
	calendarUsecase "github.com/steventyyeh/kailendar-v2/internal/calendar/usecase"
	goaldomain "github.com/steventyyeh/kailendar-v2/internal/goal/domain"
	goalrepo "github.com/steventyyeh/kailendar-v2/internal/goal/repository"
	"github.com/steventyyeh/kailendar-v2/internal/task/domain"
	"github.com/steventyyeh/kailendar-v2/internal/task/repository"
	"github.com/steventyyeh/kailendar-v2/pkg/fuzzy"

	"github.com/google/uuid"
)

const reconcileMargin = 24 * time.Hour

// taskUsecase implements TaskUsecase interface
type taskUsecase struct {
	taskRepo    repository.TaskRepository
	goalRepo    goalrepo.GoalRepository
	sync        calendarUsecase.Synchronizer
	defaultHour int
	now         func() time.Time
}

// NewTaskUsecase creates a new instance of taskUsecase
func NewTaskUsecase(taskRepo repository.TaskRepository, goalRepo goalrepo.GoalRepository, sync calendarUsecase.Synchronizer, defaultHour int) TaskUsecase {
	return &taskUsecase{
		taskRepo:    taskRepo,
		goalRepo:    goalRepo,
		sync:        sync,
		defaultHour: defaultHour,
		now:         time.Now,
	}
}

func (u *taskUsecase) CreateTask(ctx context.Context, userID string, req CreateTaskRequest) (*domain.Task, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	goal, err := u.ownedGoal(userID, req.GoalID)
	if err != nil {
		return nil, err
	}

	tz := req.Timezone
	if tz == "" {
		tz = goal.Timezone
	}
	due, err := parseDue(req.DueDate, goaldomain.LoadLocation(tz))
	if err != nil {
		return nil, err
	}
	if err := validateWindow(req.StartDateTime, req.EndDateTime); err != nil {
		return nil, err
	}

	now := u.now()
	task := &domain.Task{
		ID:            uuid.New().String(),
		UserID:        userID,
		GoalID:        goal.ID,
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		DueDate:       due,
		StartDateTime: req.StartDateTime,
		EndDateTime:   req.EndDateTime,
		Priority:      domain.ParsePriority(req.Priority),
		Timezone:      tz,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.MilestoneID != nil {
		task.MilestoneID = *req.MilestoneID
	}

	if err := u.taskRepo.Create(task); err != nil {
		return nil, err
	}

	if req.SyncToCalendar == nil || *req.SyncToCalendar {
		u.syncOne(ctx, task, goal)
	}
	if err := u.RecomputeProgress(goal.ID); err != nil {
		log.Printf("[TaskUsecase] Failed to refresh progress for goal %s: %v", goal.ID, err)
	}
	return task, nil
}

func (u *taskUsecase) GetTaskByID(userID, taskID string) (*domain.Task, error) {
	task, err := u.taskRepo.FindByID(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, domain.ErrTaskNotFound
	}
	if task.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return task, nil
}

func (u *taskUsecase) GetUserTasks(userID string, filter repository.TaskFilter, limit, offset int) ([]*domain.Task, int64, error) {
	return u.taskRepo.FindByUserID(userID, filter, limit, offset)
}

func (u *taskUsecase) GetUpcomingTasks(userID string, days int) ([]*domain.Task, error) {
	if days <= 0 {
		days = 7
	}
	now := u.now()
	until := now.AddDate(0, 0, days)
	incomplete := false
	tasks, _, err := u.taskRepo.FindByUserID(userID, repository.TaskFilter{
		Completed: &incomplete,
		DueFrom:   &now,
		DueUntil:  &until,
	}, 200, 0)
	return tasks, err
}

const searchScanLimit = 1000

func (u *taskUsecase) SearchTasks(userID, query string, limit int) ([]*domain.Task, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	if limit <= 0 {
		limit = 20
	}
	tasks, _, err := u.taskRepo.FindByUserID(userID, repository.TaskFilter{}, searchScanLimit, 0)
	if err != nil {
		return nil, err
	}

	type scored struct {
		task  *domain.Task
		score float64
	}
	var hits []scored
	for _, t := range tasks {
		score := fuzzy.Score(query,
			fuzzy.Field{Text: t.Title, Weight: 100},
			fuzzy.Field{Text: t.Description, Weight: 40},
		)
		if score > 0 {
			hits = append(hits, scored{task: t, score: score})
		}
	}
	// Ties keep due-date order
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	results := make([]*domain.Task, 0, min(limit, len(hits)))
	for _, h := range hits {
		if len(results) == limit {
			break
		}
		results = append(results, h.task)
	}
	return results, nil
}

func (u *taskUsecase) UpdateTask(ctx context.Context, userID, taskID string, updates TaskUpdateRequest) (*domain.Task, error) {
	task, err := u.GetTaskByID(userID, taskID)
	if err != nil {
		return nil, err
	}

	if updates.Title != nil {
		if strings.TrimSpace(*updates.Title) == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", domain.ErrValidation)
		}
		task.Title = strings.TrimSpace(*updates.Title)
	}
	if updates.Description != nil {
		task.Description = *updates.Description
	}
	if updates.Priority != nil {
		task.Priority = domain.ParsePriority(*updates.Priority)
	}
	if updates.Timezone != nil {
		task.Timezone = *updates.Timezone
	}
	if updates.DueDate != nil {
		due, err := parseDue(*updates.DueDate, goaldomain.LoadLocation(task.Timezone))
		if err != nil {
			return nil, err
		}
		task.DueDate = due
	}
	if updates.StartDateTime != nil {
		task.StartDateTime = *updates.StartDateTime
	}
	if updates.EndDateTime != nil {
		task.EndDateTime = *updates.EndDateTime
	}
	if err := validateWindow(task.StartDateTime, task.EndDateTime); err != nil {
		return nil, err
	}

	task.UpdatedAt = u.now()
	if err := u.taskRepo.Update(task); err != nil {
		return nil, err
	}

	if task.CalendarEventID != "" {
		goal, err := u.goalRepo.FindByID(task.GoalID)
		if err != nil {
			log.Printf("[TaskUsecase] Failed to load goal %s for sync: %v", task.GoalID, err)
		}
		u.syncOne(ctx, task, goal)
	}
	return task, nil
}

func (u *taskUsecase) DeleteTask(ctx context.Context, userID, taskID string) error {
	task, err := u.GetTaskByID(userID, taskID)
	if err != nil {
		return err
	}

	if task.CalendarEventID != "" {
		if err := u.sync.RemoveEvent(ctx, userID, task.CalendarEventID); err != nil {
			log.Printf("[TaskUsecase] Calendar cleanup failed for task %s, deleting anyway: %v", task.ID, err)
		}
	}
	if err := u.taskRepo.Delete(task.ID); err != nil {
		return err
	}
	if err := u.RecomputeProgress(task.GoalID); err != nil {
		log.Printf("[TaskUsecase] Failed to refresh progress for goal %s: %v", task.GoalID, err)
	}
	return nil
}

// syncOne mirrors a task and records a changed event reference. Failures are logged.
func (u *taskUsecase) syncOne(ctx context.Context, task *domain.Task, goal *goaldomain.Goal) {
	eventID, err := u.sync.SyncTask(ctx, task.UserID, task, goal)
	if err != nil {
		log.Printf("[TaskUsecase] Calendar sync failed for task %s: %v", task.ID, err)
		return
	}
	if eventID == task.CalendarEventID {
		return
	}
	if err := u.taskRepo.SetCalendarEventID(task.ID, eventID); err != nil {
		log.Printf("[TaskUsecase] Failed to record event %s for task %s: %v", eventID, task.ID, err)
		return
	}
	task.CalendarEventID = eventID

	if goal != nil {
		calendar := goal.Calendar
		calendar.EventIDs = append(append([]string{}, calendar.EventIDs...), eventID)
		if err := u.goalRepo.UpdateCalendar(goal.ID, calendar); err != nil {
			log.Printf("[TaskUsecase] Failed to record event on goal %s: %v", goal.ID, err)
		}
	}
}

func (u *taskUsecase) ownedGoal(userID, goalID string) (*goaldomain.Goal, error) {
	if goalID == "" {
		return nil, fmt.Errorf("%w: goalId is required", domain.ErrValidation)
	}
	goal, err := u.goalRepo.FindByID(goalID)
	if err != nil {
		return nil, err
	}
	if goal == nil || goal.Status == goaldomain.GoalStatusDeleted {
		return nil, goaldomain.ErrGoalNotFound
	}
	if goal.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return goal, nil
}

func parseDue(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, value, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: dueDate %q is not a date", domain.ErrValidation, value)
}

func validateWindow(start, end string) error {
	if start == "" && end == "" {
		return nil
	}
	s, errS := time.Parse(time.RFC3339, start)
	e, errE := time.Parse(time.RFC3339, end)
	if errS != nil || errE != nil {
		return fmt.Errorf("%w: startDateTime and endDateTime must both be RFC3339", domain.ErrValidation)
	}
	if !e.After(s) {
		return fmt.Errorf("%w: endDateTime must be after startDateTime", domain.ErrValidation)
	}
	return nil
}

// eventWindow is the window the task's event is expected to occupy.
func (u *taskUsecase) eventWindow(task *domain.Task) (time.Time, time.Time) {
	hour := u.defaultHour
	if hour <= 0 || hour > 23 {
		hour = 9
	}
	return caldomain.ResolveWindow(task, hour)
}
