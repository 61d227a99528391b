package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// IngestFunc runs one full ingestion pass.
type IngestFunc func(ctx context.Context) error

// Scheduler re-runs ingestion on a fixed interval. Overlapping runs are
// skipped rather than queued; a run that outlives its interval simply delays
// the next one.
type Scheduler struct {
	cron     *cron.Cron
	logger   *logrus.Logger
	interval time.Duration
	ingest   IngestFunc

	mu      sync.Mutex
	running bool
	lastRun time.Time
	lastErr error
}

// NewScheduler builds a scheduler around an ingest function.
func NewScheduler(interval time.Duration, ingest IngestFunc, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		logger:   logger,
		interval: interval,
		ingest:   ingest,
	}
}

// Start registers the cron entry and begins ticking.
func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return fmt.Errorf("schedule ingestion: %w", err)
	}
	s.cron.Start()
	s.logger.WithField("interval", s.interval.String()).Info("Ingestion scheduler started")
	return nil
}

// Stop halts the ticker and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Ingestion scheduler stopped")
}

// TriggerNow runs ingestion immediately unless a run is already in flight.
func (s *Scheduler) TriggerNow() bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()
	go s.runOnce()
	return true
}

// Status reports the last run's outcome.
func (s *Scheduler) Status() (running bool, lastRun time.Time, lastErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running, s.lastRun, s.lastErr
}

func (s *Scheduler) runOnce() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("Skipping scheduled ingestion, previous run still in flight")
		return
	}
	s.running = true
	s.mu.Unlock()

	start := time.Now()
	err := s.ingest(context.Background())

	s.mu.Lock()
	s.running = false
	s.lastRun = start
	s.lastErr = err
	s.mu.Unlock()

	entry := s.logger.WithField("duration", time.Since(start).String())
	if err != nil {
		entry.WithError(err).Error("Scheduled ingestion failed")
		return
	}
	entry.Info("Scheduled ingestion completed")
}
