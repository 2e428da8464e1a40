package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/steventyyeh/kailendar-v2/internal/goal/domain"
	"github.com/steventyyeh/kailendar-v2/internal/goal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeProcessor struct {
	mu        sync.Mutex
	errs      map[string]error
	calls     map[string]int
	abandoned map[string]string
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{errs: map[string]error{}, calls: map[string]int{}, abandoned: map[string]string{}}
}

func (p *fakeProcessor) ProcessGeneration(ctx context.Context, goalID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[goalID]++
	return p.errs[goalID]
}

func (p *fakeProcessor) AbandonGeneration(ctx context.Context, goalID, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.abandoned[goalID] = reason
	return nil
}

func (p *fakeProcessor) callCount(goalID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[goalID]
}

func newJobRepo(t *testing.T) repository.JobRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.GenerationJob{}))
	return repository.NewGormJobRepository(db)
}

func jobStatus(t *testing.T, repo repository.JobRepository, goalID string) *domain.GenerationJob {
	t.Helper()
	job, err := repo.FindByGoalID(goalID)
	require.NoError(t, err)
	require.NotNil(t, job)
	return job
}

func TestProcessJob_Success(t *testing.T) {
	repo := newJobRepo(t)
	proc := newFakeProcessor()
	w := NewGenerationWorker(repo, proc, 1, time.Hour, 3)
	require.NoError(t, repo.Enqueue(&domain.GenerationJob{GoalID: "g1", UserID: "u1"}))

	w.processJob("g1")
	w.processJob("g1")

	assert.Equal(t, 1, proc.callCount("g1"), "a finished job cannot be claimed again")
	job := jobStatus(t, repo, "g1")
	assert.Equal(t, domain.JobStatusDone, job.Status)
	assert.Equal(t, 1, job.Attempts)
}

func TestProcessJob_RetriesThenAbandons(t *testing.T) {
	repo := newJobRepo(t)
	proc := newFakeProcessor()
	proc.errs["g1"] = errors.New("database is locked")
	w := NewGenerationWorker(repo, proc, 1, time.Hour, 2)
	require.NoError(t, repo.Enqueue(&domain.GenerationJob{GoalID: "g1", UserID: "u1"}))

	w.processJob("g1")
	job := jobStatus(t, repo, "g1")
	assert.Equal(t, domain.JobStatusPending, job.Status)
	assert.Contains(t, job.LastError, "database is locked")
	assert.Empty(t, proc.abandoned)

	w.processJob("g1")
	job = jobStatus(t, repo, "g1")
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Equal(t, 2, job.Attempts)
	assert.Contains(t, proc.abandoned["g1"], "gave up after 2 attempts")
}

func TestProcessJob_AbandonedIsTerminal(t *testing.T) {
	repo := newJobRepo(t)
	proc := newFakeProcessor()
	proc.errs["g1"] = fmt.Errorf("%w: template plan failed validation", domain.ErrGenerationAbandoned)
	w := NewGenerationWorker(repo, proc, 1, time.Hour, 3)
	require.NoError(t, repo.Enqueue(&domain.GenerationJob{GoalID: "g1", UserID: "u1"}))

	w.processJob("g1")

	job := jobStatus(t, repo, "g1")
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Equal(t, 1, job.Attempts, "abandoned jobs are not retried")
	assert.Empty(t, proc.abandoned, "the goal was already handled")
}

func TestGenerationWorker_StartDrainsPendingAndInterruptedJobs(t *testing.T) {
	repo := newJobRepo(t)
	proc := newFakeProcessor()
	require.NoError(t, repo.Enqueue(&domain.GenerationJob{GoalID: "g1", UserID: "u1"}))
	require.NoError(t, repo.Enqueue(&domain.GenerationJob{GoalID: "g2", UserID: "u1"}))
	claimed, err := repo.Claim("g2")
	require.NoError(t, err)
	require.True(t, claimed, "g2 looks like a job left running by a dead process")

	w := NewGenerationWorker(repo, proc, 2, time.Hour, 3)
	w.Start()
	defer w.Stop()

	assert.Eventually(t, func() bool {
		return jobStatus(t, repo, "g1").Status == domain.JobStatusDone &&
			jobStatus(t, repo, "g2").Status == domain.JobStatusDone
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, repo.Enqueue(&domain.GenerationJob{GoalID: "g3", UserID: "u1"}))
	assert.True(t, w.Nudge("g3"))
	assert.Eventually(t, func() bool {
		return jobStatus(t, repo, "g3").Status == domain.JobStatusDone
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGenerationWorker_NudgeAfterStop(t *testing.T) {
	w := NewGenerationWorker(newJobRepo(t), newFakeProcessor(), 1, time.Hour, 3)
	w.Start()
	w.Stop()
	w.Stop()

	assert.False(t, w.Nudge("g1"))
}
