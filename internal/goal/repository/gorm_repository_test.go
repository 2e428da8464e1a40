package repository

import (
	"testing"
	"time"

	"github.com/steventyyeh/kailendar-v2/internal/goal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Goal{}, &domain.GenerationJob{}))
	return db
}

func newGoal(userID string, status domain.GoalStatus) *domain.Goal {
	return &domain.Goal{
		UserID:      userID,
		Status:      status,
		Category:    domain.CategoryLearning,
		Specificity: "Learn web development",
		Deadline:    time.Now().AddDate(0, 0, 90),
		Calendar:    domain.CalendarInfo{Color: "#3498DB"},
	}
}

func TestGormGoalRepository_SavePlanOnlyFromProcessing(t *testing.T) {
	repo := NewGormGoalRepository(newTestDB(t))
	goal := newGoal("u1", domain.GoalStatusProcessing)
	require.NoError(t, repo.Create(goal))

	plan := &domain.Plan{
		LLMModel: "fallback-v1",
		Milestones: []domain.Milestone{
			{ID: "milestone-1", Title: "Get Started", TargetDate: time.Now().AddDate(0, 0, 45),
				Objectives: []domain.Objective{{ID: "obj-1", Tasks: []domain.PlanTask{{ID: "task-1-1", Description: "x"}}}}},
		},
	}
	resources := []domain.Resource{{ID: "r1", Type: domain.ResourceBook, Title: "Eloquent JavaScript"}}

	ok, err := repo.SavePlan(goal.ID, plan, resources)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := repo.FindByID(goal.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Plan)
	assert.Equal(t, domain.GoalStatusReady, stored.Status)
	assert.Equal(t, "fallback-v1", stored.Plan.LLMModel)
	require.Len(t, stored.Plan.Objectives, 1, "flattened view is rebuilt on save")
	assert.Equal(t, "milestone-1", stored.Plan.Objectives[0].MilestoneID)
	require.Len(t, stored.Resources, 1)
	assert.Equal(t, "#3498DB", stored.Calendar.Color)

	ok, err = repo.SavePlan(goal.ID, plan, resources)
	require.NoError(t, err)
	assert.False(t, ok, "a ready goal is not overwritten")

	ok, err = repo.SavePlan("missing", plan, resources)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGormGoalRepository_TransitionStatus(t *testing.T) {
	repo := NewGormGoalRepository(newTestDB(t))
	goal := newGoal("u1", domain.GoalStatusActive)
	require.NoError(t, repo.Create(goal))

	now := time.Now()
	ok, err := repo.TransitionStatus(goal.ID, domain.GoalStatusActive, domain.GoalStatusPaused, now)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := repo.FindByID(goal.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GoalStatusPaused, stored.Status)
	require.NotNil(t, stored.PausedAt)

	ok, err = repo.TransitionStatus(goal.ID, domain.GoalStatusActive, domain.GoalStatusCompleted, now)
	require.NoError(t, err)
	assert.False(t, ok, "stale from-status loses the race")

	ok, err = repo.TransitionStatus(goal.ID, domain.GoalStatusPaused, domain.GoalStatusActive, now)
	require.NoError(t, err)
	assert.True(t, ok)
	stored, _ = repo.FindByID(goal.ID)
	assert.Nil(t, stored.PausedAt)
}

func TestGormGoalRepository_ListingAndCounts(t *testing.T) {
	repo := NewGormGoalRepository(newTestDB(t))
	require.NoError(t, repo.Create(newGoal("u1", domain.GoalStatusActive)))
	require.NoError(t, repo.Create(newGoal("u1", domain.GoalStatusReady)))
	deleted := newGoal("u1", domain.GoalStatusProcessing)
	require.NoError(t, repo.Create(deleted))
	require.NoError(t, repo.MarkDeleted(deleted.ID))
	require.NoError(t, repo.Create(newGoal("u2", domain.GoalStatusActive)))

	all, err := repo.FindByUserID("u1", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2, "deleted goals are hidden by default")

	status := domain.GoalStatusDeleted
	gone, err := repo.FindByUserID("u1", &status)
	require.NoError(t, err)
	assert.Len(t, gone, 1)

	count, err := repo.CountByUserAndStatus("u1", domain.GoalStatusActive)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGormGoalRepository_ProgressAndCalendar(t *testing.T) {
	repo := NewGormGoalRepository(newTestDB(t))
	goal := newGoal("u1", domain.GoalStatusReady)
	require.NoError(t, repo.Create(goal))

	require.NoError(t, repo.UpdateProgress(goal.ID, domain.Progress{TotalTasksScheduled: 4, TasksCompleted: 1, CompletionRate: 25}))
	require.NoError(t, repo.UpdateCalendar(goal.ID, domain.CalendarInfo{Color: "#3498DB", EventIDs: []string{"e1", "e2"}}))

	stored, err := repo.FindByID(goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Progress.TotalTasksScheduled)
	assert.Equal(t, 25.0, stored.Progress.CompletionRate)
	assert.Equal(t, []string{"e1", "e2"}, stored.Calendar.EventIDs)

	require.NoError(t, repo.Delete(goal.ID))
	stored, err = repo.FindByID(goal.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	assert.NoError(t, repo.UpdateProgress(goal.ID, domain.Progress{}), "writes to a deleted goal are no-ops")
}

func TestGormJobRepository_Lifecycle(t *testing.T) {
	repo := NewGormJobRepository(newTestDB(t))

	require.NoError(t, repo.Enqueue(&domain.GenerationJob{GoalID: "g1", UserID: "u1"}))
	require.NoError(t, repo.Enqueue(&domain.GenerationJob{GoalID: "g2", UserID: "u1"}))

	pending, err := repo.FindPending(10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	ok, err := repo.Claim("g1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Claim("g1")
	require.NoError(t, err)
	assert.False(t, ok, "a running job cannot be claimed twice")

	job, err := repo.FindByGoalID("g1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusRunning, job.Status)
	assert.Equal(t, 1, job.Attempts)

	n, err := repo.RequeueRunning()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err = repo.Claim("g1")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, repo.MarkDone("g1"))

	job, err = repo.FindByGoalID("g1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusDone, job.Status)
	assert.Equal(t, 2, job.Attempts)

	require.NoError(t, repo.Enqueue(&domain.GenerationJob{GoalID: "g1", UserID: "u1"}))
	job, err = repo.FindByGoalID("g1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, job.Status, "re-enqueue resets the job")

	require.NoError(t, repo.Delete("g2"))
	job, err = repo.FindByGoalID("g2")
	require.NoError(t, err)
	assert.Nil(t, job)
}
