package media

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/estate/api/internal/logger"
)

type runnerFunc func(ctx context.Context, job Job) Report

func (f runnerFunc) Run(ctx context.Context, job Job) Report { return f(ctx, job) }

func TestQueue_RunsJobAndRecordsStatus(t *testing.T) {
	release := make(chan struct{})
	runner := runnerFunc(func(ctx context.Context, job Job) Report {
		<-release
		return Report{Inserted: 2, Attempts: 2}
	})

	q := NewQueue(runner, NewTracker(), logger.Nop(), 2, 10)
	q.Start(context.Background())
	t.Cleanup(func() { _ = q.Shutdown(context.Background()) })

	job := NewJob(uuid.New())
	status, err := q.Enqueue(job)
	require.NoError(t, err)
	assert.Equal(t, StateQueued, status.State)
	assert.Equal(t, job.ID, status.ID)
	assert.Equal(t, job.PropertyID, status.PropertyID)

	require.Eventually(t, func() bool {
		s, _ := q.Status(job.ID)
		return s.State == StateRunning
	}, time.Second, 5*time.Millisecond)

	close(release)

	require.Eventually(t, func() bool {
		s, _ := q.Status(job.ID)
		return s.State == StateSucceeded
	}, time.Second, 5*time.Millisecond)

	s, ok := q.Status(job.ID)
	require.True(t, ok)
	assert.Equal(t, 2, s.Inserted)
	assert.Equal(t, 2, s.Attempts)
	assert.Empty(t, s.Failures)
}

func TestQueue_PartialFailureIsVisible(t *testing.T) {
	runner := runnerFunc(func(ctx context.Context, job Job) Report {
		return Report{
			Inserted: 1,
			Failures: []Failure{{Op: OpStore, File: "a.jpg", Error: "upload rejected", Attempts: 3}},
		}
	})

	q := NewQueue(runner, NewTracker(), logger.Nop(), 1, 1)
	q.Start(context.Background())
	t.Cleanup(func() { _ = q.Shutdown(context.Background()) })

	job := NewJob(uuid.New())
	_, err := q.Enqueue(job)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s, _ := q.Status(job.ID)
		return s.State == StatePartial
	}, time.Second, 5*time.Millisecond)

	s, _ := q.Status(job.ID)
	require.Len(t, s.Failures, 1)
	assert.Equal(t, "a.jpg", s.Failures[0].File)
}

func TestQueue_FullBufferDoesNotBlock(t *testing.T) {
	q := NewQueue(runnerFunc(func(context.Context, Job) Report { return Report{} }), NewTracker(), logger.Nop(), 1, 1)

	first := NewJob(uuid.New())
	_, err := q.Enqueue(first)
	require.NoError(t, err)

	second := NewJob(uuid.New())
	status, err := q.Enqueue(second)

	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, StateFailed, status.State)
	require.Len(t, status.Failures, 1)
	assert.Equal(t, OpEnqueue, status.Failures[0].Op)

	recorded, ok := q.Status(second.ID)
	require.True(t, ok)
	assert.Equal(t, StateFailed, recorded.State)
}

func TestQueue_ShutdownDrainsAndCloses(t *testing.T) {
	done := make(chan uuid.UUID, 3)
	runner := runnerFunc(func(ctx context.Context, job Job) Report {
		done <- job.ID
		return Report{}
	})

	q := NewQueue(runner, NewTracker(), logger.Nop(), 1, 3)
	jobs := []Job{NewJob(uuid.New()), NewJob(uuid.New()), NewJob(uuid.New())}
	for _, job := range jobs {
		_, err := q.Enqueue(job)
		require.NoError(t, err)
	}

	q.Start(context.Background())
	require.NoError(t, q.Shutdown(context.Background()))

	assert.Len(t, done, 3)
	for _, job := range jobs {
		s, _ := q.Status(job.ID)
		assert.Equal(t, StateSucceeded, s.State)
	}

	_, err := q.Enqueue(NewJob(uuid.New()))
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.NoError(t, q.Shutdown(context.Background()))
}

func TestQueue_ShutdownTimeoutCancelsJobs(t *testing.T) {
	runner := runnerFunc(func(ctx context.Context, job Job) Report {
		<-ctx.Done()
		return Report{Failures: []Failure{{Op: OpStore, Error: ctx.Err().Error()}}}
	})

	q := NewQueue(runner, NewTracker(), logger.Nop(), 1, 1)
	q.Start(context.Background())

	job := NewJob(uuid.New())
	_, err := q.Enqueue(job)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s, _ := q.Status(job.ID)
		return s.State == StateRunning
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = q.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	s, _ := q.Status(job.ID)
	assert.Equal(t, StateFailed, s.State)
}

func TestQueue_PanicMarksJobFailed(t *testing.T) {
	runner := runnerFunc(func(ctx context.Context, job Job) Report {
		panic("boom")
	})

	q := NewQueue(runner, NewTracker(), logger.Nop(), 1, 1)
	q.Start(context.Background())
	t.Cleanup(func() { _ = q.Shutdown(context.Background()) })

	job := NewJob(uuid.New())
	_, err := q.Enqueue(job)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s, _ := q.Status(job.ID)
		return s.State == StateFailed
	}, time.Second, 5*time.Millisecond)
}

func TestTracker_PruneRemovesOnlyOldFinished(t *testing.T) {
	tracker := NewTracker()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return now }

	oldDone := NewJob(uuid.New())
	oldRunning := NewJob(uuid.New())
	tracker.create(oldDone, StateQueued)
	tracker.create(oldRunning, StateQueued)
	tracker.update(oldDone.ID, func(s *JobStatus) { s.State = StateSucceeded })
	tracker.update(oldRunning.ID, func(s *JobStatus) { s.State = StateRunning })

	now = now.Add(48 * time.Hour)
	fresh := NewJob(uuid.New())
	tracker.create(fresh, StateQueued)
	tracker.update(fresh.ID, func(s *JobStatus) { s.State = StateFailed })

	removed := tracker.Prune(24 * time.Hour)

	assert.Equal(t, 1, removed)
	_, ok := tracker.Get(oldDone.ID)
	assert.False(t, ok)
	_, ok = tracker.Get(oldRunning.ID)
	assert.True(t, ok)
	_, ok = tracker.Get(fresh.ID)
	assert.True(t, ok)
}

func TestTracker_GetReturnsCopy(t *testing.T) {
	tracker := NewTracker()
	job := NewJob(uuid.New())
	tracker.create(job, StateQueued)

	s, _ := tracker.Get(job.ID)
	s.Failures = append(s.Failures, Failure{Error: "mutated"})
	s.State = StateFailed

	again, _ := tracker.Get(job.ID)
	assert.Empty(t, again.Failures)
	assert.Equal(t, StateQueued, again.State)
}

func TestReportState(t *testing.T) {
	assert.Equal(t, StateSucceeded, Report{}.State())
	assert.Equal(t, StatePartial, Report{Deleted: 1, Failures: []Failure{{}}}.State())
	assert.Equal(t, StateFailed, Report{Failures: []Failure{{}}}.State())
	assert.True(t, StatePartial.Finished())
	assert.False(t, StateRunning.Finished())
}
