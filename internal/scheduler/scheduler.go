// Package scheduler runs the periodic maintenance jobs. Every run takes a
// lease named after its job so that only one replica executes it at a time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dimitrije/pluginhub-api/internal/lock"
	"github.com/dimitrije/pluginhub-api/internal/logger"
	"github.com/dimitrije/pluginhub-api/internal/metrics"
	"github.com/robfig/cron/v3"
)

type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	locker  lock.Locker
	lockTTL time.Duration
	metrics *metrics.JobMetrics
	log     *logger.Logger
	jobs    []Job
}

func New(locker lock.Locker, lockTTL time.Duration, m *metrics.JobMetrics, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cron.DiscardLogger)),
		locker:  locker,
		lockTTL: lockTTL,
		metrics: m,
		log:     log,
	}
}

// Register adds job to the schedule. Invalid specs are rejected here rather
// than at Start.
func (s *Scheduler) Register(job Job) error {
	if _, err := s.cron.AddFunc(job.Spec, func() {
		s.RunJob(context.Background(), job)
	}); err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", job.Spec, job.Name, err)
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *Scheduler) Jobs() []Job {
	return s.jobs
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunJob executes job once under its lease and records the outcome.
func (s *Scheduler) RunJob(ctx context.Context, job Job) error {
	jobCtx := s.log.WithJob(ctx, job.Name)

	lease, err := s.locker.Acquire(jobCtx, "job:"+job.Name, s.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			s.log.Info(jobCtx, "job skipped, another run holds the lock")
			s.metrics.IncSkipped(job.Name)
			return nil
		}
		s.log.Error(jobCtx, "failed to acquire job lock", err)
		s.metrics.IncFailure(job.Name)
		return err
	}
	defer func() {
		if err := lease.Release(jobCtx); err != nil {
			s.log.Error(jobCtx, "failed to release job lock", err)
		}
	}()

	start := time.Now()
	err = job.Run(jobCtx)
	duration := time.Since(start)
	s.metrics.ObserveDuration(job.Name, duration)

	jobCtx = s.log.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.log.Error(jobCtx, "job failed", err)
		s.metrics.IncFailure(job.Name)
		return err
	}
	s.log.Info(jobCtx, "job completed")
	s.metrics.IncSuccess(job.Name)
	return nil
}
