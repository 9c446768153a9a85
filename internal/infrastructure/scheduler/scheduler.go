// Package scheduler runs recurring background jobs: automation rule
// ticks, security scans and retention cleanup.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a named function run at a fixed interval
type Job struct {
	Name     string
	Interval time.Duration
	// RunOnStart runs the job once immediately after Start
	RunOnStart bool
	Fn         func(ctx context.Context)
}

// Scheduler runs jobs on their intervals until stopped
type Scheduler struct {
	jobs   []Job
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a scheduler with the given jobs
func NewScheduler(logger *zap.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs:   jobs,
		logger: logger,
	}
}

// AddJob registers a job. Must be called before Start.
func (s *Scheduler) AddJob(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		s.logger.Warn("Ignoring job added after start", zap.String("job", job.Name))
		return
	}
	s.jobs = append(s.jobs, job)
}

// Start starts one goroutine per job
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, job := range s.jobs {
		if job.Interval <= 0 {
			s.logger.Warn("Skipping job with non-positive interval",
				zap.String("job", job.Name))
			continue
		}
		s.wg.Add(1)
		go s.runLoop(ctx, job)
	}

	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.jobs)))
	return nil
}

// Stop gracefully stops all job loops
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	defer s.wg.Done()

	s.logger.Debug("Job loop started",
		zap.String("job", job.Name),
		zap.Duration("interval", job.Interval))

	if job.RunOnStart {
		s.runJob(ctx, job)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Job loop stopping", zap.String("job", job.Name))
			return
		case <-ticker.C:
			s.runJob(ctx, job)
		}
	}
}

// runJob executes one run, isolating panics so a bad job cannot take
// down the loop
func (s *Scheduler) runJob(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Job panicked",
				zap.String("job", job.Name),
				zap.Any("panic", r))
		}
	}()

	start := time.Now()
	job.Fn(ctx)
	s.logger.Debug("Job run complete",
		zap.String("job", job.Name),
		zap.Duration("took", time.Since(start)))
}
