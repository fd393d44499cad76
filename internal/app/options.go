package service

import (
	"time"

	repository "github.com/corourke/gigmanager/internal/adapters/repository"
	"github.com/corourke/gigmanager/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the gig store. Defaults to an empty in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxBatchSize caps the gigs accepted by CheckBatch.
func WithMaxBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatchSize = n
		}
	}
}

// WithSweepSchedule enables background sweeps on a cron spec such as
// "@every 15m" or "0 */2 * * *".
func WithSweepSchedule(spec string) Option {
	return func(s *Service) {
		s.sweepSchedule = spec
	}
}

// WithSweepHorizon sets how far ahead of now a sweep looks.
func WithSweepHorizon(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sweepHorizon = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
