package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/steventyyeh/kailendar-v2/internal/calendar/domain"
	goaldomain "github.com/steventyyeh/kailendar-v2/internal/goal/domain"
	taskdomain "github.com/steventyyeh/kailendar-v2/internal/task/domain"
	"github.com/steventyyeh/kailendar-v2/pkg/metrics"
)

type synchronizer struct {
	clients     ClientSource
	defaultHour int
	concurrency int
}

// NewSynchronizer creates a Synchronizer. concurrency below 2 syncs a batch one task at a time.
func NewSynchronizer(clients ClientSource, defaultHour, concurrency int) Synchronizer {
	if concurrency < 1 {
		concurrency = 1
	}
	if defaultHour <= 0 || defaultHour > 23 {
		defaultHour = 9
	}
	return &synchronizer{clients: clients, defaultHour: defaultHour, concurrency: concurrency}
}

func (s *synchronizer) SyncTask(ctx context.Context, userID string, task *taskdomain.Task, goal *goaldomain.Goal) (string, error) {
	client, err := s.clients.ClientFor(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.syncWith(ctx, client, task, goal)
}

func (s *synchronizer) syncWith(ctx context.Context, client domain.EventClient, task *taskdomain.Task, goal *goaldomain.Goal) (string, error) {
	ev := domain.BuildEvent(task, goal, s.defaultHour)

	if task.CalendarEventID != "" {
		err := client.PatchEvent(ctx, task.CalendarEventID, ev)
		if err == nil {
			metrics.CalendarSyncs.WithLabelValues("updated").Inc()
			return task.CalendarEventID, nil
		}
		log.Printf("[CalendarSync] Failed to update event %s for task %s, creating a new one: %v", task.CalendarEventID, task.ID, err)
	}

	eventID, err := client.InsertEvent(ctx, ev)
	if err != nil {
		metrics.CalendarSyncs.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("failed to create event for task %s: %w", task.ID, err)
	}
	metrics.CalendarSyncs.WithLabelValues("created").Inc()
	return eventID, nil
}

func (s *synchronizer) SyncTasks(ctx context.Context, userID string, tasks []*taskdomain.Task, goals map[string]*goaldomain.Goal) *SyncReport {
	report := newSyncReport()
	if len(tasks) == 0 {
		return report
	}

	client, err := s.clients.ClientFor(ctx, userID)
	if err != nil {
		log.Printf("[CalendarSync] Skipping %d tasks for user %s: %v", len(tasks), userID, err)
		for _, task := range tasks {
			report.Failed[task.ID] = err
		}
		return report
	}

	var mu sync.Mutex
	record := func(taskID, eventID string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.Failed[taskID] = err
			return
		}
		report.Synced[taskID] = eventID
	}

	if s.concurrency == 1 {
		for _, task := range tasks {
			eventID, err := s.syncWith(ctx, client, task, goals[task.GoalID])
			if err != nil {
				log.Printf("[CalendarSync] Failed to sync task %s: %v", task.ID, err)
			}
			record(task.ID, eventID, err)
		}
	} else {
		sem := make(chan struct{}, s.concurrency)
		var wg sync.WaitGroup
		for _, task := range tasks {
			wg.Add(1)
			sem <- struct{}{}
			go func(task *taskdomain.Task) {
				defer wg.Done()
				defer func() { <-sem }()
				eventID, err := s.syncWith(ctx, client, task, goals[task.GoalID])
				if err != nil {
					log.Printf("[CalendarSync] Failed to sync task %s: %v", task.ID, err)
				}
				record(task.ID, eventID, err)
			}(task)
		}
		wg.Wait()
	}

	log.Printf("[CalendarSync] Synced %d/%d tasks for user %s", len(report.Synced), len(tasks), userID)
	return report
}

func (s *synchronizer) RemoveEvent(ctx context.Context, userID, eventID string) error {
	if eventID == "" {
		return nil
	}
	client, err := s.clients.ClientFor(ctx, userID)
	if err == nil {
		err = client.DeleteEvent(ctx, eventID)
	}
	if err != nil {
		metrics.CalendarDeleteFailures.Inc()
		log.Printf("[CalendarSync] Failed to remove event %s: %v", eventID, err)
		return err
	}
	return nil
}

func (s *synchronizer) ApplyCompletion(ctx context.Context, userID string, task *taskdomain.Task, goal *goaldomain.Goal) error {
	if task.CalendarEventID == "" {
		return nil
	}
	client, err := s.clients.ClientFor(ctx, userID)
	if err != nil {
		return err
	}
	return client.PatchAppearance(ctx, task.CalendarEventID, domain.EventTitle(task), domain.EventColor(task, goal))
}

func (s *synchronizer) FetchEvents(ctx context.Context, userID string, from, to time.Time) ([]domain.ExternalEvent, error) {
	client, err := s.clients.ClientFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return client.ListEvents(ctx, from, to, true)
}
