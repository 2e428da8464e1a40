package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/steventyyeh/kailendar-v2/internal/goal/domain"
	"github.com/steventyyeh/kailendar-v2/internal/plan"
	taskdomain "github.com/steventyyeh/kailendar-v2/internal/task/domain"
	"github.com/steventyyeh/kailendar-v2/pkg/ai"
	"github.com/steventyyeh/kailendar-v2/pkg/metrics"

	"github.com/google/uuid"
)

const (
	sourceAI       = "ai"
	sourceFallback = "fallback"
	sourceFailed   = "failed"
)

func (u *goalUsecase) ProcessGeneration(ctx context.Context, goalID string) (err error) {
	goal, err := u.goalRepo.FindByID(goalID)
	if err != nil {
		return err
	}
	if goal == nil || goal.Status != domain.GoalStatusProcessing {
		log.Printf("[GoalUsecase] Goal %s is gone or no longer processing, skipping generation", goalID)
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = u.abandon(ctx, goal, fmt.Sprintf("panic during generation: %v", r))
		}
	}()

	p, resources, source := u.buildPlan(ctx, goal)
	if p == nil {
		return u.abandon(ctx, goal, "template plan failed validation")
	}

	ok, err := u.goalRepo.SavePlan(goal.ID, p, resources)
	if err != nil {
		return u.abandon(ctx, goal, fmt.Sprintf("failed to save plan: %v", err))
	}
	if !ok {
		log.Printf("[GoalUsecase] Goal %s left processing during generation, plan discarded", goal.ID)
		return nil
	}
	metrics.PlanGenerations.WithLabelValues(source).Inc()
	log.Printf("[GoalUsecase] Goal %s ready with %d milestones (%s)", goal.ID, len(p.Milestones), p.LLMModel)

	goal.Plan = p
	goal.Resources = resources
	goal.Status = domain.GoalStatusReady

	// Projection failures leave a ready goal; GenerateTasks is the retry path.
	result, err := u.materializeAndSync(ctx, goal, true)
	if err != nil {
		log.Printf("[GoalUsecase] Task projection failed for goal %s: %v", goal.ID, err)
	}
	if u.discardIfDeleted(ctx, goal) {
		return nil
	}

	u.notifier.GoalReady(ctx, goal, result.TasksCreated)
	return nil
}

func (u *goalUsecase) AbandonGeneration(ctx context.Context, goalID, reason string) error {
	goal, err := u.goalRepo.FindByID(goalID)
	if err != nil {
		return err
	}
	if goal == nil || goal.Status != domain.GoalStatusProcessing {
		return nil
	}
	if err := u.abandon(ctx, goal, reason); !errors.Is(err, domain.ErrGenerationAbandoned) {
		return err
	}
	return nil
}

// buildPlan tries the generative call and falls back to the template plan. A nil plan
// means even the template was rejected.
func (u *goalUsecase) buildPlan(ctx context.Context, goal *domain.Goal) (*domain.Plan, []domain.Resource, string) {
	if u.generator != nil {
		genCtx, cancel := context.WithTimeout(ctx, u.generationTimeout)
		p, resources, err := u.generator.Generate(genCtx, requestFor(goal))
		cancel()
		if err == nil {
			return p, resources, sourceAI
		}

		switch {
		case errors.Is(err, ai.ErrGenerationUnavailable):
			log.Printf("[GoalUsecase] No generative provider for goal %s, using template plan", goal.ID)
		case errors.Is(err, plan.ErrGenerationParse):
			metrics.GenerationParseFailures.WithLabelValues("parse").Inc()
			log.Printf("[GoalUsecase] Unparseable plan for goal %s, using template plan: %v", goal.ID, err)
		case errors.Is(err, plan.ErrGenerationSchema):
			metrics.GenerationParseFailures.WithLabelValues("schema").Inc()
			log.Printf("[GoalUsecase] Incomplete plan for goal %s, using template plan: %v", goal.ID, err)
		case errors.Is(err, domain.ErrInvalidPlan):
			metrics.GenerationParseFailures.WithLabelValues("invalid").Inc()
			log.Printf("[GoalUsecase] Invalid plan for goal %s, using template plan: %v", goal.ID, err)
		default:
			log.Printf("[GoalUsecase] Generation failed for goal %s, using template plan: %v", goal.ID, err)
		}
	}

	now := u.now()
	p := plan.Fallback(plan.FallbackInput{
		Specificity: goal.Specificity,
		Now:         now,
		Deadline:    goal.Deadline,
		Timezone:    goal.Timezone,
	})
	if err := p.Validate(now, goal.Deadline); err != nil {
		log.Printf("[GoalUsecase] Template plan rejected for goal %s: %v", goal.ID, err)
		return nil, nil, sourceFailed
	}
	return p, []domain.Resource{}, sourceFallback
}

// abandon soft-deletes a goal whose generation cannot finish and tells the owner.
func (u *goalUsecase) abandon(ctx context.Context, goal *domain.Goal, reason string) error {
	log.Printf("[GoalUsecase] Abandoning generation for goal %s: %s", goal.ID, reason)
	if err := u.goalRepo.MarkDeleted(goal.ID); err != nil {
		log.Printf("[GoalUsecase] Failed to mark goal %s deleted: %v", goal.ID, err)
	}
	if err := u.jobRepo.MarkFailed(goal.ID, reason); err != nil {
		log.Printf("[GoalUsecase] Failed to mark job %s failed: %v", goal.ID, err)
	}
	metrics.PlanGenerations.WithLabelValues(sourceFailed).Inc()
	goal.Status = domain.GoalStatusDeleted
	u.notifier.GoalFailed(ctx, goal, reason)
	return fmt.Errorf("%w: goal %s: %s", domain.ErrGenerationAbandoned, goal.ID, reason)
}

// discardIfDeleted cleans up tasks projected for a goal the user deleted mid-run.
func (u *goalUsecase) discardIfDeleted(ctx context.Context, goal *domain.Goal) bool {
	current, err := u.goalRepo.FindByID(goal.ID)
	if err != nil {
		log.Printf("[GoalUsecase] Failed to re-read goal %s: %v", goal.ID, err)
		return false
	}
	if current != nil && current.Status != domain.GoalStatusDeleted {
		return false
	}

	tasks, err := u.taskRepo.FindByGoalID(goal.ID)
	if err != nil {
		log.Printf("[GoalUsecase] Failed to load orphaned tasks of goal %s: %v", goal.ID, err)
		return true
	}
	for _, task := range tasks {
		if task.CalendarEventID == "" {
			continue
		}
		if err := u.sync.RemoveEvent(ctx, goal.UserID, task.CalendarEventID); err != nil {
			log.Printf("[GoalUsecase] Failed to delete orphaned event %s: %v", task.CalendarEventID, err)
		}
	}
	if _, err := u.taskRepo.DeleteByGoalID(goal.ID); err != nil {
		log.Printf("[GoalUsecase] Failed to delete orphaned tasks of goal %s: %v", goal.ID, err)
	}
	log.Printf("[GoalUsecase] Goal %s was deleted during generation, discarded %d tasks", goal.ID, len(tasks))
	return true
}

func (u *goalUsecase) GenerateTasks(ctx context.Context, userID, goalID string, syncToCalendar bool) (*GenerateTasksResult, error) {
	goal, err := u.GetGoal(userID, goalID)
	if err != nil {
		return nil, err
	}
	switch goal.Status {
	case domain.GoalStatusReady, domain.GoalStatusActive:
	case domain.GoalStatusProcessing:
		return nil, domain.ErrPlanNotReady
	default:
		return nil, fmt.Errorf("%w: cannot generate tasks for a %s goal", domain.ErrInvalidTransition, goal.Status)
	}
	if goal.Plan == nil {
		return nil, domain.ErrPlanNotReady
	}

	existing, err := u.taskRepo.FindByGoalID(goal.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		// Tasks are materialized once per plan; a retry only re-projects them.
		result := &GenerateTasksResult{EventIDs: []string{}}
		if syncToCalendar {
			u.syncTasks(ctx, goal, existing, result)
		}
		return result, nil
	}

	return u.materializeAndSync(ctx, goal, syncToCalendar)
}

// materializeAndSync turns the plan into stored tasks, optionally mirrors them onto the
// calendar and refreshes progress. The result is never nil.
func (u *goalUsecase) materializeAndSync(ctx context.Context, goal *domain.Goal, syncToCalendar bool) (*GenerateTasksResult, error) {
	result := &GenerateTasksResult{EventIDs: []string{}}

	now := u.now()
	drafts := plan.Materialize(goal.Plan, plan.MaterializeInput{
		Now:         now,
		Timezone:    goal.Timezone,
		DefaultHour: u.defaultHour,
	})
	if len(drafts) == 0 {
		return result, nil
	}

	tasks := make([]*taskdomain.Task, 0, len(drafts))
	for _, d := range drafts {
		tasks = append(tasks, taskdomain.NewTaskFromDraft(uuid.New().String(), goal.UserID, goal.ID, d, now))
	}
	if err := u.taskRepo.CreateBatch(tasks); err != nil {
		return result, fmt.Errorf("failed to store tasks: %w", err)
	}
	result.TasksCreated = len(tasks)
	log.Printf("[GoalUsecase] Materialized %d tasks for goal %s", len(tasks), goal.ID)

	if syncToCalendar {
		u.syncTasks(ctx, goal, tasks, result)
	}

	if u.progress != nil {
		if err := u.progress.RecomputeProgress(goal.ID); err != nil {
			log.Printf("[GoalUsecase] Failed to refresh progress for goal %s: %v", goal.ID, err)
		}
	}
	return result, nil
}

// syncTasks mirrors tasks onto the calendar and records event ids in task order.
func (u *goalUsecase) syncTasks(ctx context.Context, goal *domain.Goal, tasks []*taskdomain.Task, result *GenerateTasksResult) {
	report := u.sync.SyncTasks(ctx, goal.UserID, tasks, map[string]*domain.Goal{goal.ID: goal})
	result.SyncFailures = len(report.Failed)

	for _, task := range tasks {
		eventID, ok := report.Synced[task.ID]
		if !ok {
			continue
		}
		if eventID != task.CalendarEventID {
			if err := u.taskRepo.SetCalendarEventID(task.ID, eventID); err != nil {
				log.Printf("[GoalUsecase] Failed to record event %s for task %s: %v", eventID, task.ID, err)
				continue
			}
			task.CalendarEventID = eventID
		}
		result.EventIDs = append(result.EventIDs, eventID)
	}
	result.EventsSynced = len(result.EventIDs)
	if result.EventsSynced == 0 {
		return
	}

	calendar := goal.Calendar
	calendar.EventIDs = mergeIDs(calendar.EventIDs, result.EventIDs)
	if err := u.goalRepo.UpdateCalendar(goal.ID, calendar); err != nil {
		log.Printf("[GoalUsecase] Failed to record events on goal %s: %v", goal.ID, err)
		return
	}
	goal.Calendar = calendar
}

func mergeIDs(existing, added []string) []string {
	seen := make(map[string]bool, len(existing)+len(added))
	merged := make([]string, 0, len(existing)+len(added))
	for _, id := range append(append([]string{}, existing...), added...) {
		if seen[id] {
			continue
		}
		seen[id] = true
		merged = append(merged, id)
	}
	return merged
}

func requestFor(goal *domain.Goal) plan.Request {
	return plan.Request{
		Specificity:    goal.Specificity,
		Category:       string(goal.Category),
		CurrentState:   string(goal.CurrentState),
		TargetState:    goal.TargetState,
		Deadline:       goal.Deadline,
		LearningStyles: goal.LearningStyles,
		Budget:         goal.Budget,
		Equipment:      goal.Equipment,
		Constraints:    goal.Constraints,
		AvailableHours: goal.AvailableHours,
		Timezone:       goal.Timezone,
	}
}
