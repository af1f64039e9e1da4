// Package scheduler drives the timed refresh and the daily digest.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"TaseTracker/internal/logging"
	"TaseTracker/internal/notifier"

	"github.com/robfig/cron/v3"
)

// Tracker is the work the scheduler triggers.
type Tracker interface {
	RefreshAll(ctx context.Context) int
	Digest(ctx context.Context) error
	HandleCommand(ctx context.Context, chatID, text string) notifier.Reply
}

// Scheduler manages all cron tasks. The refresh task is a restartable
// fixed-interval timer: every user command restarts it.
type Scheduler struct {
	Cron    *cron.Cron
	Tracker Tracker
	Ctx     context.Context

	log      *logging.Logger
	interval time.Duration

	mu        sync.Mutex
	refreshID cron.EntryID
	enabled   bool
}

// NewScheduler creates a new Scheduler refreshing every interval.
func NewScheduler(ctx context.Context, tr Tracker, interval time.Duration, log *logging.Logger) *Scheduler {
	if log == nil {
		log = logging.NewSilent()
	}
	cl := cronLogger{log: log}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		Tracker:  tr,
		Ctx:      ctx,
		log:      log,
		interval: interval,
	}
}

// RegisterAll registers the refresh timer (when autoRefresh is set) and the
// digest task.
func (s *Scheduler) RegisterAll(autoRefresh bool, digestCron string) error {
	if digestCron != "" {
		if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
			return fmt.Errorf("register digest task: %w", err)
		}
	}
	if autoRefresh {
		s.EnableRefresh()
	}
	return nil
}

// EnableRefresh (re)starts the refresh timer.
func (s *Scheduler) EnableRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = true
	s.restartLocked()
}

// DisableRefresh stops the refresh timer.
func (s *Scheduler) DisableRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = false
	if s.refreshID != 0 {
		s.Cron.Remove(s.refreshID)
		s.refreshID = 0
	}
}

// Preempt restarts the refresh timer so the next tick is a full interval
// away. It does nothing while refresh is disabled.
func (s *Scheduler) Preempt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled {
		s.restartLocked()
	}
}

func (s *Scheduler) restartLocked() {
	if s.refreshID != 0 {
		s.Cron.Remove(s.refreshID)
	}
	s.refreshID = s.Cron.Schedule(cron.Every(s.interval), cron.FuncJob(s.refreshTask))
}

// NextRefresh reports when the refresh timer fires next, zero when disabled
// or before Start.
func (s *Scheduler) NextRefresh() time.Time {
	s.mu.Lock()
	id := s.refreshID
	s.mu.Unlock()
	if id == 0 {
		return time.Time{}
	}
	return s.Cron.Entry(id).Next
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Dur("refresh_interval", s.interval).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// HandleCommand restarts the refresh timer, then runs the command.
func (s *Scheduler) HandleCommand(ctx context.Context, chatID, text string) notifier.Reply {
	s.Preempt()
	return s.Tracker.HandleCommand(ctx, chatID, text)
}

func (s *Scheduler) refreshTask() {
	n := s.Tracker.RefreshAll(s.Ctx)
	s.log.Debug().Int("sessions", n).Msg("auto refresh")
}

func (s *Scheduler) digestTask() {
	s.log.Info().Msg("running digest task")
	if err := s.Tracker.Digest(s.Ctx); err != nil {
		s.log.Error().Err(err).Msg("digest")
	}
}

// cronLogger adapts the zerolog wrapper to cron.Logger.
type cronLogger struct {
	log *logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
