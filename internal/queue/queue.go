package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrQueueFull is returned when the queue is at capacity.
	ErrQueueFull = errors.New("queue is full")
	// ErrQueueClosed is returned when attempting to enqueue to a closed queue.
	ErrQueueClosed = errors.New("queue is closed")
	// ErrDuplicateJob is returned when a job with the same dedupe key is waiting.
	ErrDuplicateJob = errors.New("duplicate job")
)

// PlaybackHandler speaks one job. It must return promptly once ctx is done.
type PlaybackHandler func(ctx context.Context, job *Job) error

// ResultCallback observes every job leaving the queue.
type ResultCallback func(job *Job, outcome Outcome)

// Queue holds pending jobs in FIFO order and plays them one at a time.
type Queue struct {
	mu       sync.Mutex
	pending  []*Job
	capacity int
	keys     map[string]struct{}
	closed   bool
	cancel   context.CancelFunc

	idleTimeout time.Duration
	onIdle      func()
	onShutdown  func()
	onResult    ResultCallback
	play        PlaybackHandler

	logger *slog.Logger
	wake   chan struct{}
	stop   chan struct{}
	done   sync.WaitGroup
}

// NewQueue creates a queue holding at most capacity waiting jobs. The idle
// callback fires once the worker has had nothing to do for idleTimeout.
func NewQueue(capacity int, idleTimeout time.Duration, logger *slog.Logger) *Queue {
	return &Queue{
		pending:     make([]*Job, 0, capacity),
		capacity:    capacity,
		keys:        make(map[string]struct{}),
		idleTimeout: idleTimeout,
		logger:      logger,
		wake:        make(chan struct{}, 1),
		stop:        make(chan struct{}),
	}
}

// SetPlaybackHandler sets the function called to play each job.
func (q *Queue) SetPlaybackHandler(fn PlaybackHandler) {
	q.mu.Lock()
	q.play = fn
	q.mu.Unlock()
}

// SetIdleCallback sets the function called when the queue goes idle.
func (q *Queue) SetIdleCallback(fn func()) {
	q.mu.Lock()
	q.onIdle = fn
	q.mu.Unlock()
}

// SetShutdownCallback sets the function called after Stop drains the worker.
func (q *Queue) SetShutdownCallback(fn func()) {
	q.mu.Lock()
	q.onShutdown = fn
	q.mu.Unlock()
}

// SetResultCallback sets the observer for job outcomes.
func (q *Queue) SetResultCallback(fn ResultCallback) {
	q.mu.Lock()
	q.onResult = fn
	q.mu.Unlock()
}

// Enqueue appends job. Interrupting jobs first cancel playback and clear
// everything already waiting.
func (q *Queue) Enqueue(job *Job) error {
	if job.Interrupt {
		q.Interrupt()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case q.closed:
		return ErrQueueClosed
	case len(q.pending) >= q.capacity:
		return ErrQueueFull
	}
	if job.DedupeKey != "" {
		if _, dup := q.keys[job.DedupeKey]; dup {
			return ErrDuplicateJob
		}
		q.keys[job.DedupeKey] = struct{}{}
	}
	q.pending = append(q.pending, job)

	q.logger.Debug("job enqueued", "job_id", job.ID, "engine", job.Engine, "queue_depth", len(q.pending))

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Interrupt cancels the job being played and drops every waiting job.
func (q *Queue) Interrupt() {
	q.mu.Lock()
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	cleared := q.pending
	q.pending = make([]*Job, 0, q.capacity)
	clear(q.keys)
	report := q.onResult
	q.mu.Unlock()

	if report != nil {
		for _, job := range cleared {
			report(job, OutcomeCleared)
		}
	}
	q.logger.Info("queue interrupted", "jobs_cleared", len(cleared))
}

// Len returns the number of waiting jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Start launches the playback worker.
func (q *Queue) Start() {
	q.done.Add(1)
	go q.run()
}

// Stop rejects new jobs, cancels playback, waits for the worker, then runs
// the shutdown callback.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	if q.cancel != nil {
		q.cancel()
	}
	shutdown := q.onShutdown
	q.mu.Unlock()

	close(q.stop)
	q.done.Wait()

	if shutdown != nil {
		shutdown()
	}
}

func (q *Queue) run() {
	defer q.done.Done()

	idle := time.NewTimer(time.Hour)
	idle.Stop()
	defer idle.Stop()
	armed := false

	for {
		if job := q.next(); job != nil {
			if armed {
				idle.Stop()
				armed = false
			}
			q.handle(job)
			continue
		}

		if !armed && q.idleTimeout > 0 {
			idle.Reset(q.idleTimeout)
			armed = true
		}

		select {
		case <-q.stop:
			return
		case <-q.wake:
		case <-idle.C:
			q.mu.Lock()
			fn := q.onIdle
			q.mu.Unlock()
			if fn != nil {
				q.logger.Info("idle timeout reached")
				fn()
			}
			// Leave armed set so the callback fires once per idle period.
		}
	}
}

// next pops the first unexpired job, reporting expired ones on the way.
func (q *Queue) next() *Job {
	q.mu.Lock()
	now := time.Now()
	var expired []*Job
	var job *Job
	for len(q.pending) > 0 {
		head := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		if head.DedupeKey != "" {
			delete(q.keys, head.DedupeKey)
		}
		if head.Expired(now) {
			expired = append(expired, head)
			continue
		}
		job = head
		break
	}
	report := q.onResult
	q.mu.Unlock()

	for _, j := range expired {
		q.logger.Debug("skipping expired job", "job_id", j.ID)
		if report != nil {
			report(j, OutcomeExpired)
		}
	}
	return job
}

// handle plays one job under a cancellable context.
func (q *Queue) handle(job *Job) {
	ctx, cancel := context.WithCancel(context.Background())
	q.mu.Lock()
	q.cancel = cancel
	play := q.play
	report := q.onResult
	q.mu.Unlock()

	defer func() {
		cancel()
		q.mu.Lock()
		q.cancel = nil
		q.mu.Unlock()
	}()

	outcome := OutcomeCompleted
	switch {
	case play == nil:
		q.logger.Warn("no playback handler set, skipping job", "job_id", job.ID)
		outcome = OutcomeFailed
	default:
		q.logger.Info("processing job", "job_id", job.ID, "engine", job.Engine, "text_length", len(job.Text))
		err := play(ctx, job)
		switch {
		case err == nil:
			q.logger.Info("job completed", "job_id", job.ID)
		case errors.Is(err, context.Canceled):
			q.logger.Info("job cancelled", "job_id", job.ID)
			outcome = OutcomeCancelled
		default:
			q.logger.Error("job failed", "job_id", job.ID, "error", err)
			outcome = OutcomeFailed
		}
	}

	if report != nil {
		report(job, outcome)
	}
}
