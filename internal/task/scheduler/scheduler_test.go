package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	caldomain "github.com/steventyyeh/kailendar-v2/internal/calendar/domain"
	"github.com/steventyyeh/kailendar-v2/internal/task/domain"
	"github.com/steventyyeh/kailendar-v2/internal/task/repository"
	"github.com/steventyyeh/kailendar-v2/internal/task/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingReconciler struct {
	mu    sync.Mutex
	users []string
	errs  map[string]error
}

func (r *recordingReconciler) ReconcileFromCalendar(ctx context.Context, userID string) (*usecase.ReconcileReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
	if err := r.errs[userID]; err != nil {
		return nil, err
	}
	return &usecase.ReconcileReport{}, nil
}

func TestCalendarReconcileScheduler_RunOnce(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Task{}))
	repo := repository.NewGormTaskRepository(db)

	due := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for _, task := range []*domain.Task{
		{UserID: "u1", GoalID: "g1", Title: "a", DueDate: due, CalendarEventID: "e1"},
		{UserID: "u2", GoalID: "g2", Title: "b", DueDate: due, CalendarEventID: "e2"},
		{UserID: "u3", GoalID: "g3", Title: "c", DueDate: due},
	} {
		require.NoError(t, repo.Create(task))
	}

	rec := &recordingReconciler{errs: map[string]error{
		"u1": caldomain.ErrNotConnected,
		"u2": errors.New("timeout"),
	}}
	s := NewCalendarReconcileScheduler(repo, rec, time.Hour)

	s.RunOnce(context.Background())
	assert.ElementsMatch(t, []string{"u1", "u2"}, rec.users, "every user with synced tasks is visited despite failures")
}

func TestCalendarReconcileScheduler_StartStop(t *testing.T) {
	s := NewCalendarReconcileScheduler(nil, &recordingReconciler{}, 0)
	assert.Equal(t, 15*time.Minute, s.interval)

	s.Start()
	s.Stop()
}
