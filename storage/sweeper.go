package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/lvillar/certgen/metrics"
)

// Sweeper removes files older than a retention window from a set of
// directories. Subdirectories are left alone.
type Sweeper struct {
	dirs    []string
	maxAge  time.Duration
	now     func() time.Time
	log     *zap.Logger
	metrics *metrics.GenerationMetrics
	cron    *cron.Cron
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithSweepLogger sets the logger.
func WithSweepLogger(l *zap.Logger) SweeperOption {
	return func(s *Sweeper) { s.log = l }
}

// WithSweepMetrics counts removed files in m.
func WithSweepMetrics(m *metrics.GenerationMetrics) SweeperOption {
	return func(s *Sweeper) { s.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) { s.now = now }
}

// NewSweeper returns a Sweeper for files in dirs older than maxAge.
func NewSweeper(maxAge time.Duration, dirs []string, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		dirs:   dirs,
		maxAge: maxAge,
		now:    time.Now,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep removes every expired file and returns how many were removed.
// A missing directory is not an error.
func (s *Sweeper) Sweep() (int, error) {
	cutoff := s.now().Add(-s.maxAge)
	removed := 0
	var errs []error

	for _, dir := range s.dirs {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue // removed concurrently
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !os.IsNotExist(err) {
				errs = append(errs, err)
				continue
			}
			removed++
		}
	}

	s.metrics.RecordSwept(removed)
	return removed, errors.Join(errs...)
}

// Start runs Sweep on schedule, a cron expression or descriptor such as
// "@hourly", until Stop.
func (s *Sweeper) Start(schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		n, err := s.Sweep()
		if err != nil {
			s.log.Warn("retention sweep failed", zap.Int("removed", n), zap.Error(err))
			return
		}
		if n > 0 {
			s.log.Info("retention sweep", zap.Int("removed", n))
		}
	})
	if err != nil {
		return fmt.Errorf("storage: invalid sweep schedule %q: %w", schedule, err)
	}
	s.cron = c
	c.Start()
	return nil
}

// Stop stops the schedule and waits for a running sweep, or ctx.
func (s *Sweeper) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
