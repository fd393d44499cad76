// Package service runs conflict checks and scheduled sweeps over the
// configured gig store.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	repository "github.com/corourke/gigmanager/internal/adapters/repository"
	"github.com/corourke/gigmanager/internal/domain/conflict"
	"github.com/corourke/gigmanager/internal/domain/model"
	"github.com/corourke/gigmanager/pkg/logger"
)

const (
	defaultMaxBatchSize = 500
	defaultSweepHorizon = 30 * 24 * time.Hour
)

// Service answers conflict questions over the configured gig store.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	detector *conflict.Detector
	cron     *cron.Cron

	// Configuration
	maxBatchSize  int
	sweepSchedule string
	sweepHorizon  time.Duration

	// State
	started   bool
	lastSweep *SweepStats

	logger logger.Logger
	now    func() time.Time
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxBatchSize: defaultMaxBatchSize,
		sweepHorizon: defaultSweepHorizon,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	return s
}

// Start builds the detector and, when a schedule is set, starts the sweeper.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Named("service")
	}

	s.logger.Info(ctx, "starting conflict service...")
	s.detector = conflict.New(s.store,
		conflict.WithLogger(logger.Named("conflict")),
		conflict.WithClock(s.now),
	)

	if s.sweepSchedule != "" {
		c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{l: s.logger})))
		if _, err := c.AddFunc(s.sweepSchedule, func() { s.Sweep(context.Background()) }); err != nil {
			return fmt.Errorf("%w %q: %w", ErrInvalidSchedule, s.sweepSchedule, err)
		}
		c.Start()
		s.cron = c
	}

	s.started = true
	s.logger.Info(ctx, "conflict service started",
		logger.Int("maxBatchSize", s.maxBatchSize),
		logger.String("sweepSchedule", s.sweepSchedule),
		logger.Duration("sweepHorizon", s.sweepHorizon),
	)
	return nil
}

// Stop waits for a running sweep, then closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	c := s.cron
	s.cron = nil
	s.started = false
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping conflict service...")

	// A sweep in flight needs the read lock, so wait outside of it.
	if c != nil {
		<-c.Stop().Done()
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "failed to close store", logger.Error(err))
	}

	s.logger.Info(ctx, "conflict service stopped")
}

func (s *Service) components() (*conflict.Detector, repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.detector, s.store, nil
}

// Check runs every single-gig check for an ad-hoc subject, such as a gig
// being edited before it is saved.
func (s *Service) Check(ctx context.Context, subject conflict.Subject) (conflict.Result, error) {
	d, _, err := s.components()
	if err != nil {
		return conflict.Result{}, err
	}
	if subject.End.Before(subject.Start) {
		return conflict.Result{}, ErrInvalidRange
	}
	return d.CheckAllConflicts(ctx, subject)
}

// CheckGig runs every single-gig check for a stored gig.
func (s *Service) CheckGig(ctx context.Context, gigID string) (conflict.Result, error) {
	d, store, err := s.components()
	if err != nil {
		return conflict.Result{}, err
	}
	g, err := store.GetGig(ctx, gigID)
	if err != nil {
		return conflict.Result{}, loadErr("load gig", gigID, err)
	}
	return d.CheckAllConflicts(ctx, conflict.SubjectFromGig(g))
}

// CheckBatch runs the all-pairs detector over caller-supplied gigs.
func (s *Service) CheckBatch(ctx context.Context, gigs []model.Gig) ([]conflict.Conflict, error) {
	d, _, err := s.components()
	if err != nil {
		return nil, err
	}
	if len(gigs) > s.maxBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(gigs), s.maxBatchSize)
	}
	for _, g := range gigs {
		if g.End.Before(g.Start) {
			return nil, fmt.Errorf("%w: gig %s", ErrInvalidRange, g.ID)
		}
	}
	return d.CheckAllConflictsForGigs(ctx, gigs), nil
}

// CheckRange runs the all-pairs detector over stored gigs intersecting [from, to].
func (s *Service) CheckRange(ctx context.Context, from, to time.Time) ([]conflict.Conflict, error) {
	d, store, err := s.components()
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	gigs, err := listInRange(ctx, store, from, to)
	if err != nil {
		return nil, err
	}
	return d.CheckAllConflictsForGigs(ctx, gigs), nil
}

// listInRange lists stored gigs whose effective range intersects [from, to].
// The store filters on raw times, so the listing window is widened to catch
// date-only gigs whose local day reaches into the range.
func listInRange(ctx context.Context, store repository.Store, from, to time.Time) ([]model.Gig, error) {
	listFrom, listTo := conflict.ListWindow(from, to)
	listed, err := store.ListGigs(ctx, listFrom, listTo)
	if err != nil {
		return nil, loadErr("list gigs", "", err)
	}
	gigs := make([]model.Gig, 0, len(listed))
	for _, g := range listed {
		if conflict.InRange(g, from, to) {
			gigs = append(gigs, g)
		}
	}
	return gigs, nil
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	_, store, err := s.components()
	if err != nil {
		return err
	}
	return store.Ping(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"maxBatchSize": s.maxBatchSize,
		"sweepEnabled": s.sweepSchedule != "",
	}
	if s.sweepSchedule != "" {
		stats["sweepSchedule"] = s.sweepSchedule
		stats["sweepHorizonHours"] = int(s.sweepHorizon / time.Hour)
	}
	if counter, ok := s.store.(interface{ Count() int }); ok {
		stats["totalGigs"] = counter.Count()
	}
	if s.lastSweep != nil {
		stats["lastSweep"] = *s.lastSweep
	}
	return stats
}

// loadErr maps store failures to service errors.
func loadErr(op, gigID string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrGigNotFound, gigID)
	case errors.Is(err, repository.ErrInvalidWindow):
		return ErrInvalidRange
	case conflict.IsNetworkError(err):
		return &conflict.NetworkError{Op: op, Err: err}
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
