package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BatmanBruc/docx-quiz-bot/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Sweeper deletes stored artifacts older than maxAge, except the held ones.
type Sweeper interface {
	Sweep(maxAge time.Duration, held []string) (int, error)
}

// HeldSource lists artifacts that still belong to an open batch.
type HeldSource interface {
	HeldPaths() []string
}

type Config struct {
	SweepSchedule string
	SweepMaxAge   time.Duration
}

// Scheduler runs background maintenance jobs on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	held    HeldSource
	maxAge  time.Duration
	log     *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
	// sweepMu keeps a slow sweep from overlapping the next tick.
	sweepMu sync.Mutex
}

func NewScheduler(sweeper Sweeper, held HeldSource, log *logger.Logger, config Config) (*Scheduler, error) {
	if config.SweepSchedule == "" {
		config.SweepSchedule = "@every 1h"
	}
	if config.SweepMaxAge <= 0 {
		config.SweepMaxAge = 2 * time.Hour
	}
	if log == nil {
		log = logger.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:    cron.New(),
		sweeper: sweeper,
		held:    held,
		maxAge:  config.SweepMaxAge,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}

	if _, err := s.cron.AddFunc(config.SweepSchedule, s.runSweep); err != nil {
		cancel()
		return nil, fmt.Errorf("schedule artifact sweep %q: %w", config.SweepSchedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.log.Info(s.ctx, "Scheduler started", "max_age", s.maxAge.String())
	s.cron.Start()
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.log.Info(s.ctx, "Stopping scheduler...")
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Info(context.Background(), "Scheduler stopped")
}

// SweepNow removes stale artifacts immediately.
func (s *Scheduler) SweepNow() (int, error) {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	var held []string
	if s.held != nil {
		held = s.held.HeldPaths()
	}
	return s.sweeper.Sweep(s.maxAge, held)
}

func (s *Scheduler) runSweep() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error(s.ctx, "Recovered panic in artifact sweep", "panic", r)
		}
	}()
	if s.ctx.Err() != nil {
		return
	}

	removed, err := s.SweepNow()
	if err != nil {
		s.log.Warn(s.ctx, "Artifact sweep finished with errors", "removed", removed, "error", err)
		return
	}
	if removed > 0 {
		s.log.Info(s.ctx, "Stale artifacts removed", "removed", removed)
	}
}
