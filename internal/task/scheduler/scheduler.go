package scheduler

import (
	"context"
	"errors"
	"log"
	"time"

	caldomain "github.com/steventyyeh/kailendar-v2/internal/calendar/domain"
	"github.com/steventyyeh/kailendar-v2/internal/task/repository"
	"github.com/steventyyeh/kailendar-v2/internal/task/usecase"
)

// Reconciler is the part of the task usecase the scheduler drives.
type Reconciler interface {
	ReconcileFromCalendar(ctx context.Context, userID string) (*usecase.ReconcileReport, error)
}

// CalendarReconcileScheduler periodically pulls calendar-side changes for every user
// with synced tasks.
type CalendarReconcileScheduler struct {
	taskRepo   repository.TaskRepository
	reconciler Reconciler
	interval   time.Duration
	timeout    time.Duration
	stopChan   chan struct{}
}

// NewCalendarReconcileScheduler creates a new scheduler
func NewCalendarReconcileScheduler(taskRepo repository.TaskRepository, reconciler Reconciler, interval time.Duration) *CalendarReconcileScheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &CalendarReconcileScheduler{
		taskRepo:   taskRepo,
		reconciler: reconciler,
		interval:   interval,
		timeout:    time.Minute,
		stopChan:   make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *CalendarReconcileScheduler) Start() {
	log.Printf("[ReconcileScheduler] Starting calendar reconcile scheduler (interval: %s)", s.interval)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.RunOnce(context.Background())
			case <-s.stopChan:
				log.Println("[ReconcileScheduler] Scheduler stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler
func (s *CalendarReconcileScheduler) Stop() {
	close(s.stopChan)
}

// RunOnce reconciles every user once. One user's failure does not stop the pass.
func (s *CalendarReconcileScheduler) RunOnce(ctx context.Context) {
	userIDs, err := s.taskRepo.FindUserIDsWithSyncedTasks()
	if err != nil {
		log.Printf("[ReconcileScheduler] Error listing users: %v", err)
		return
	}

	for _, userID := range userIDs {
		userCtx, cancel := context.WithTimeout(ctx, s.timeout)
		_, err := s.reconciler.ReconcileFromCalendar(userCtx, userID)
		cancel()
		switch {
		case err == nil:
		case errors.Is(err, caldomain.ErrNotConnected), errors.Is(err, caldomain.ErrNotConfigured):
			// tasks outlived the connection; nothing to pull
		default:
			log.Printf("[ReconcileScheduler] Reconcile failed for user %s: %v", userID, err)
		}
	}
}
