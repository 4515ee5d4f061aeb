// Package scheduler re-runs the universe scan on a cron schedule and keeps
// the latest batch in memory.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"HeikinSentinel/internal/model"
	"HeikinSentinel/internal/scan"
)

// ErrRunning is returned when a scan is requested while one is in progress.
var ErrRunning = errors.New("scan already running")

// Job performs one full scan.
type Job func(ctx context.Context, progress scan.ProgressFunc) (*model.Batch, error)

// Status is a snapshot of the scheduler state.
type Status struct {
	Running   bool      `json:"running"`
	Done      int       `json:"done"`
	Total     int       `json:"total"`
	LastBatch string    `json:"last_batch,omitempty"`
	LastRun   time.Time `json:"last_run,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	NextRun   time.Time `json:"next_run,omitempty"`
}

// Scheduler manages the rescan cron task.
type Scheduler struct {
	Cron   *cron.Cron
	job    Job
	ctx    context.Context
	logger zerolog.Logger

	inflight sync.WaitGroup

	mu      sync.Mutex
	running bool
	done    int
	total   int
	latest  *model.Batch
	lastRun time.Time
	lastErr string
	entry   cron.EntryID
}

// NewScheduler creates a Scheduler evaluating cron specs in loc.
func NewScheduler(ctx context.Context, job Job, loc *time.Location, logger zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		job:    job,
		ctx:    ctx,
		logger: logger,
	}
}

// Register adds the rescan task. spec uses six fields, seconds first.
func (s *Scheduler) Register(spec string) error {
	id, err := s.Cron.AddFunc(spec, func() {
		if err := s.Run(); err != nil {
			s.logger.Warn().Err(err).Msg("scheduled scan skipped")
		}
	})
	if err != nil {
		return fmt.Errorf("register scan task %q: %w", spec, err)
	}
	s.mu.Lock()
	s.entry = id
	s.mu.Unlock()
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Time("next_run", s.Status().NextRun).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running scan to finish,
// including one started by RunNow.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.inflight.Wait()
	s.logger.Info().Msg("scheduler stopped")
}

// RunNow starts a scan in the background. It returns ErrRunning if one is
// already in progress.
func (s *Scheduler) RunNow() error {
	if !s.begin() {
		return ErrRunning
	}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		_ = s.execute()
	}()
	return nil
}

// Run performs a scan and blocks until it finishes.
func (s *Scheduler) Run() error {
	if !s.begin() {
		return ErrRunning
	}
	return s.execute()
}

// Latest returns the most recent successful batch, or nil.
func (s *Scheduler) Latest() *model.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Status returns the current state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Running:   s.running,
		Done:      s.done,
		Total:     s.total,
		LastRun:   s.lastRun,
		LastError: s.lastErr,
	}
	if s.latest != nil {
		st.LastBatch = s.latest.ID
	}
	if s.entry != 0 {
		st.NextRun = s.Cron.Entry(s.entry).Next
	}
	return st
}

func (s *Scheduler) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running, s.done, s.total = true, 0, 0
	return true
}

func (s *Scheduler) execute() error {
	s.logger.Info().Msg("running scan")
	batch, err := s.job(s.ctx, s.progress)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.lastRun = time.Now()
	if err != nil {
		s.lastErr = err.Error()
		s.logger.Error().Err(err).Msg("scan failed")
		return err
	}
	s.lastErr = ""
	s.latest = batch
	return nil
}

func (s *Scheduler) progress(done, total int, _ model.SymbolResult) {
	s.mu.Lock()
	s.done, s.total = done, total
	s.mu.Unlock()
}
