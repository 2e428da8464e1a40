package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/steventyyeh/kailendar-v2/internal/goal/domain"
	"github.com/steventyyeh/kailendar-v2/internal/goal/repository"
	"github.com/steventyyeh/kailendar-v2/pkg/metrics"
)

// Processor runs plan generation for a goal.
type Processor interface {
	ProcessGeneration(ctx context.Context, goalID string) error
	AbandonGeneration(ctx context.Context, goalID, reason string) error
}

// GenerationWorker drains durable generation jobs. The channel only carries wake-ups;
// the job table is the source of truth, so a nudge lost to a full queue or a restart
// is picked up by the next sweep.
type GenerationWorker struct {
	jobRepo      repository.JobRepository
	processor    Processor
	jobQueue     chan string
	workerWg     sync.WaitGroup
	workerCount  int
	pollInterval time.Duration
	maxAttempts  int
	jobTimeout   time.Duration
	stopChan     chan struct{}
	started      bool
	stopped      bool
	mu           sync.Mutex
}

// NewGenerationWorker creates a new generation worker
func NewGenerationWorker(jobRepo repository.JobRepository, processor Processor, workerCount int, pollInterval time.Duration, maxAttempts int) *GenerationWorker {
	if workerCount <= 0 {
		workerCount = 2
	}
	if pollInterval <= 0 {
		pollInterval = 15 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	return &GenerationWorker{
		jobRepo:      jobRepo,
		processor:    processor,
		jobQueue:     make(chan string, 100),
		workerCount:  workerCount,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
		jobTimeout:   5 * time.Minute,
		stopChan:     make(chan struct{}),
	}
}

// Start re-queues jobs orphaned by a previous process and starts the workers and the sweeper
func (w *GenerationWorker) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	if n, err := w.jobRepo.RequeueRunning(); err != nil {
		log.Printf("[GenerationWorker] Failed to requeue interrupted jobs: %v", err)
	} else if n > 0 {
		log.Printf("[GenerationWorker] Requeued %d interrupted jobs", n)
	}

	for i := 0; i < w.workerCount; i++ {
		w.workerWg.Add(1)
		go w.worker(i)
	}

	go func() {
		w.Sweep()
		ticker := time.NewTicker(w.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.Sweep()
			case <-w.stopChan:
				return
			}
		}
	}()

	log.Printf("[GenerationWorker] Started %d workers (sweep every %s)", w.workerCount, w.pollInterval)
}

// Stop stops the sweeper and waits for in-flight jobs
func (w *GenerationWorker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.stopChan)
	close(w.jobQueue)
	w.mu.Unlock()

	w.workerWg.Wait()
	log.Println("[GenerationWorker] All workers stopped")
}

// Nudge asks for a job to be picked up now (non-blocking)
func (w *GenerationWorker) Nudge(goalID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return false
	}
	select {
	case w.jobQueue <- goalID:
		return true
	default:
		return false
	}
}

// Sweep queues pending jobs from the store
func (w *GenerationWorker) Sweep() {
	jobs, err := w.jobRepo.FindPending(cap(w.jobQueue))
	if err != nil {
		log.Printf("[GenerationWorker] Error listing pending jobs: %v", err)
		return
	}
	for _, job := range jobs {
		if !w.Nudge(job.GoalID) {
			return
		}
	}
}

func (w *GenerationWorker) worker(id int) {
	defer w.workerWg.Done()

	for goalID := range w.jobQueue {
		w.processJob(goalID)
	}

	log.Printf("[GenerationWorker] Worker %d stopped", id)
}

// processJob claims a job and records its outcome. Duplicate nudges lose the claim.
func (w *GenerationWorker) processJob(goalID string) {
	claimed, err := w.jobRepo.Claim(goalID)
	if err != nil {
		log.Printf("[GenerationWorker] Failed to claim job %s: %v", goalID, err)
		return
	}
	if !claimed {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.jobTimeout)
	defer cancel()

	err = w.processor.ProcessGeneration(ctx, goalID)
	switch {
	case err == nil:
		if err := w.jobRepo.MarkDone(goalID); err != nil {
			log.Printf("[GenerationWorker] Failed to mark job %s done: %v", goalID, err)
		}
		metrics.GenerationJobs.WithLabelValues("done").Inc()

	case errors.Is(err, domain.ErrGenerationAbandoned):
		w.fail(goalID, err.Error())

	default:
		job, findErr := w.jobRepo.FindByGoalID(goalID)
		if findErr != nil || job == nil {
			log.Printf("[GenerationWorker] Job %s vanished after failure: %v", goalID, err)
			return
		}
		if job.Attempts >= w.maxAttempts {
			reason := fmt.Sprintf("gave up after %d attempts: %v", job.Attempts, err)
			if abandonErr := w.processor.AbandonGeneration(ctx, goalID, reason); abandonErr != nil {
				log.Printf("[GenerationWorker] Failed to abandon goal %s: %v", goalID, abandonErr)
			}
			w.fail(goalID, reason)
			return
		}
		log.Printf("[GenerationWorker] Job %s failed (attempt %d/%d), will retry: %v", goalID, job.Attempts, w.maxAttempts, err)
		if err := w.jobRepo.Release(goalID, err.Error()); err != nil {
			log.Printf("[GenerationWorker] Failed to release job %s: %v", goalID, err)
		}
		metrics.GenerationJobs.WithLabelValues("retried").Inc()
	}
}

func (w *GenerationWorker) fail(goalID, reason string) {
	if err := w.jobRepo.MarkFailed(goalID, reason); err != nil {
		log.Printf("[GenerationWorker] Failed to mark job %s failed: %v", goalID, err)
	}
	metrics.GenerationJobs.WithLabelValues("failed").Inc()
	log.Printf("[GenerationWorker] Job %s failed: %s", goalID, reason)
}
