package usecase

import (
	"context"
	"log"
	"time"

	caldomain "github.com/steventyyeh/kailendar-v2/internal/calendar/domain"
	goaldomain "github.com/steventyyeh/kailendar-v2/internal/goal/domain"
	"github.com/steventyyeh/kailendar-v2/internal/task/domain"
)

func (u *taskUsecase) ToggleCompletion(ctx context.Context, userID, taskID string, completed bool) (*domain.Task, error) {
	task, err := u.GetTaskByID(userID, taskID)
	if err != nil {
		return nil, err
	}

	var completedAt *time.Time
	if completed {
		if task.Completed && task.CompletedAt != nil {
			completedAt = task.CompletedAt
		} else {
			now := u.now()
			completedAt = &now
		}
	}
	if err := u.taskRepo.SetCompletion(task.ID, completed, completedAt); err != nil {
		return nil, err
	}
	task.Completed = completed
	task.CompletedAt = completedAt

	if err := u.RecomputeProgress(task.GoalID); err != nil {
		log.Printf("[TaskUsecase] Failed to refresh progress for goal %s: %v", task.GoalID, err)
	}

	if task.CalendarEventID != "" {
		goal, err := u.goalRepo.FindByID(task.GoalID)
		if err != nil {
			log.Printf("[TaskUsecase] Failed to load goal %s for event styling: %v", task.GoalID, err)
		}
		if err := u.sync.ApplyCompletion(ctx, userID, task, goal); err != nil {
			log.Printf("[TaskUsecase] Failed to restyle event %s for task %s: %v", task.CalendarEventID, task.ID, err)
		}
	}
	return task, nil
}

func (u *taskUsecase) RecomputeProgress(goalID string) error {
	goal, err := u.goalRepo.FindByID(goalID)
	if err != nil {
		return err
	}
	if goal == nil {
		return nil
	}
	tasks, err := u.taskRepo.FindByGoalID(goalID)
	if err != nil {
		return err
	}

	var completedAt []time.Time
	for _, t := range tasks {
		if !t.Completed {
			continue
		}
		if t.CompletedAt != nil {
			completedAt = append(completedAt, *t.CompletedAt)
		} else {
			completedAt = append(completedAt, t.UpdatedAt)
		}
	}
	progress := goaldomain.ComputeProgress(len(tasks), completedAt, u.now(), goal.Location())
	return u.goalRepo.UpdateProgress(goalID, progress)
}

func (u *taskUsecase) ReconcileFromCalendar(ctx context.Context, userID string) (*ReconcileReport, error) {
	report := &ReconcileReport{}
	tasks, err := u.taskRepo.FindSynced(userID)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return report, nil
	}

	var from, to time.Time
	windows := make(map[string][2]time.Time, len(tasks))
	for i, task := range tasks {
		start, end := u.eventWindow(task)
		windows[task.ID] = [2]time.Time{start, end}
		if i == 0 || start.Before(from) {
			from = start
		}
		if i == 0 || end.After(to) {
			to = end
		}
	}

	events, err := u.sync.FetchEvents(ctx, userID, from.Add(-reconcileMargin), to.Add(reconcileMargin))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]caldomain.ExternalEvent, len(events))
	for _, ev := range events {
		byID[ev.ID] = ev
	}

	for _, task := range tasks {
		ev, ok := byID[task.CalendarEventID]
		if !ok {
			continue
		}
		report.Checked++

		if ev.Cancelled() {
			if err := u.taskRepo.SetCalendarEventID(task.ID, ""); err != nil {
				log.Printf("[TaskReconcile] Failed to detach task %s: %v", task.ID, err)
				continue
			}
			log.Printf("[TaskReconcile] Event %s was deleted on the calendar, detached task %s", ev.ID, task.ID)
			report.Detached++
			continue
		}

		if ev.AllDay || ev.Start.IsZero() || ev.End.IsZero() {
			continue
		}
		w := windows[task.ID]
		if ev.Start.Equal(w[0]) && ev.End.Equal(w[1]) {
			continue
		}
		if err := u.taskRepo.UpdateWindow(task.ID, ev.Start, ev.StartRaw, ev.EndRaw); err != nil {
			log.Printf("[TaskReconcile] Failed to move task %s: %v", task.ID, err)
			continue
		}
		report.Moved++
	}

	if report.Detached > 0 || report.Moved > 0 {
		log.Printf("[TaskReconcile] User %s: %d checked, %d detached, %d moved", userID, report.Checked, report.Detached, report.Moved)
	}
	return report, nil
}
