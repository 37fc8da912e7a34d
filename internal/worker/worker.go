package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Job is a unit of periodic maintenance.
// Run returns the number of items it processed.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (int, error)
}

// Worker runs maintenance jobs on fixed intervals.
// Each job gets its own goroutine and ticker; jobs never overlap with
// themselves.
type Worker struct {
	jobs   []Job
	logger *slog.Logger

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	Jobs   []Job
	Logger *slog.Logger
}

// NewWorker creates a new maintenance worker.
// Jobs with a nil Run or non-positive interval are rejected.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for _, job := range cfg.Jobs {
		if job.Run == nil {
			return nil, errors.New("worker: job " + job.Name + " has no run function")
		}
		if job.Interval <= 0 {
			return nil, errors.New("worker: job " + job.Name + " needs a positive interval")
		}
	}

	return &Worker{
		jobs:   cfg.Jobs,
		logger: logger,
	}, nil
}

// Start begins the job loops.
// They run until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	stopCh := w.stopCh
	doneCh := w.doneCh
	w.mu.Unlock()

	w.logger.Info("worker starting", "jobs", len(w.jobs))

	var wg sync.WaitGroup
	for _, job := range w.jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			w.runLoop(ctx, stopCh, job)
		}(job)
	}

	go func() {
		wg.Wait()
		close(doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker and waits for running jobs to return.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	doneCh := w.doneCh
	w.mu.Unlock()

	<-doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Running reports whether the job loops are active.
func (w *Worker) Running() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *Worker) runLoop(ctx context.Context, stopCh <-chan struct{}, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker context cancelled", "job", job.Name)
			return
		case <-stopCh:
			return
		case <-ticker.C:
			w.runJob(ctx, job)
		}
	}
}

func (w *Worker) runJob(ctx context.Context, job Job) {
	startTime := time.Now()
	n, err := job.Run(ctx)
	duration := time.Since(startTime)

	if err != nil {
		w.logger.Error("job failed", "job", job.Name, "duration", duration, "error", err)
		return
	}
	if n > 0 {
		w.logger.Debug("job completed", "job", job.Name, "processed", n, "duration", duration)
	}
}
