package media

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/stwalsh4118/estate/api/internal/logger"
)

var (
	// ErrQueueFull is returned when the job buffer has no free slot.
	ErrQueueFull = errors.New("media queue is full")
	// ErrQueueClosed is returned after Shutdown.
	ErrQueueClosed = errors.New("media queue is closed")
)

// Runner executes a media job.
type Runner interface {
	Run(ctx context.Context, job Job) Report
}

// Tracker keeps the status records of media jobs in memory.
type Tracker struct {
	jobs map[uuid.UUID]*JobStatus
	now  func() time.Time
	mu   sync.RWMutex
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[uuid.UUID]*JobStatus), now: time.Now}
}

func (t *Tracker) create(job Job, state State) JobStatus {
	now := t.now()
	status := &JobStatus{
		ID:         job.ID,
		PropertyID: job.PropertyID,
		State:      state,
		Failures:   []Failure{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	t.mu.Lock()
	t.jobs[job.ID] = status
	t.mu.Unlock()
	return copyStatus(status)
}

func (t *Tracker) update(id uuid.UUID, fn func(s *JobStatus)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.jobs[id]; ok {
		fn(s)
		s.UpdatedAt = t.now()
	}
}

// Get returns a copy of the status record.
func (t *Tracker) Get(id uuid.UUID) (JobStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.jobs[id]
	if !ok {
		return JobStatus{}, false
	}
	return copyStatus(s), true
}

// Prune removes finished records last updated more than olderThan ago and
// returns how many were removed.
func (t *Tracker) Prune(olderThan time.Duration) int {
	cutoff := t.now().Add(-olderThan)

	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for id, s := range t.jobs {
		if s.State.Finished() && s.UpdatedAt.Before(cutoff) {
			delete(t.jobs, id)
			removed++
		}
	}
	return removed
}

func copyStatus(s *JobStatus) JobStatus {
	c := *s
	c.Failures = append([]Failure{}, s.Failures...)
	return c
}

// Queue runs media jobs on a fixed pool of workers after the request that
// produced them has been answered.
type Queue struct {
	runner  Runner
	tracker *Tracker
	log     *logger.Logger
	jobs    chan Job
	wg      *conc.WaitGroup
	cancel  context.CancelFunc
	workers int
	mu      sync.RWMutex
	closed  bool
}

// NewQueue creates a queue buffering up to size jobs for workers workers.
func NewQueue(runner Runner, tracker *Tracker, log *logger.Logger, workers, size int) *Queue {
	if workers < 1 {
		workers = 1
	}
	if size < 1 {
		size = 1
	}
	return &Queue{
		runner:  runner,
		tracker: tracker,
		log:     log.WithComponent("media-queue"),
		jobs:    make(chan Job, size),
		wg:      conc.NewWaitGroup(),
		workers: workers,
	}
}

// Start launches the workers. Jobs run on a context derived from ctx, not
// from any request.
func (q *Queue) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Go(func() {
			for job := range q.jobs {
				q.process(ctx, job)
			}
		})
	}
	q.log.Info("Media workers started", map[string]interface{}{
		"workers": q.workers,
	})
}

// Enqueue records the job as queued and hands it to the workers without
// blocking. When the buffer is full the job is recorded as failed.
func (q *Queue) Enqueue(job Job) (JobStatus, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return JobStatus{}, ErrQueueClosed
	}

	status := q.tracker.create(job, StateQueued)
	select {
	case q.jobs <- job:
		q.log.Debug("Media job queued", map[string]interface{}{
			"job_id":      job.ID.String(),
			"property_id": job.PropertyID.String(),
		})
		return status, nil
	default:
		q.tracker.update(job.ID, func(s *JobStatus) {
			s.State = StateFailed
			s.Failures = append(s.Failures, Failure{Op: OpEnqueue, Error: ErrQueueFull.Error()})
		})
		q.log.Error("Media job dropped", ErrQueueFull, map[string]interface{}{
			"job_id":      job.ID.String(),
			"property_id": job.PropertyID.String(),
		})
		failed, _ := q.tracker.Get(job.ID)
		return failed, ErrQueueFull
	}
}

// Status returns the status record of a job.
func (q *Queue) Status(id uuid.UUID) (JobStatus, bool) {
	return q.tracker.Get(id)
}

// Prune drops finished status records older than olderThan.
func (q *Queue) Prune(olderThan time.Duration) int {
	removed := q.tracker.Prune(olderThan)
	if removed > 0 {
		q.log.Info("Pruned media job records", map[string]interface{}{
			"removed": removed,
		})
	}
	return removed
}

// Shutdown stops accepting jobs and waits for queued jobs to drain. When ctx
// expires first the running jobs are cancelled.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if q.cancel != nil {
			q.cancel()
		}
		return nil
	case <-ctx.Done():
		if q.cancel != nil {
			q.cancel()
		}
		<-done
		return fmt.Errorf("media queue shutdown: %w", ctx.Err())
	}
}

func (q *Queue) process(ctx context.Context, job Job) {
	q.tracker.update(job.ID, func(s *JobStatus) {
		s.State = StateRunning
	})

	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("panic: %v", rec)
			q.log.Error("Media job panicked", err, map[string]interface{}{
				"job_id": job.ID.String(),
			})
			q.tracker.update(job.ID, func(s *JobStatus) {
				s.State = StateFailed
				s.Failures = append(s.Failures, Failure{Error: err.Error()})
			})
		}
	}()

	report := q.runner.Run(ctx, job)

	q.tracker.update(job.ID, func(s *JobStatus) {
		s.State = report.State()
		s.Failures = append(s.Failures, report.Failures...)
		s.Attempts = report.Attempts
		s.Inserted = report.Inserted
		s.Deleted = report.Deleted
	})
}
