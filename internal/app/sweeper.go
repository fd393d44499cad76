package service

import (
	"context"
	"fmt"
	"time"

	"github.com/corourke/gigmanager/pkg/logger"
	"github.com/corourke/gigmanager/pkg/metrics"
)

// SweepStats summarises one background sweep.
type SweepStats struct {
	At         time.Time      `json:"at"`
	From       time.Time      `json:"from"`
	To         time.Time      `json:"to"`
	Gigs       int            `json:"gigs"`
	Conflicts  int            `json:"conflicts"`
	ByType     map[string]int `json:"by_type"`
	DurationMS int64          `json:"duration_ms"`
	Error      string         `json:"error,omitempty"`
}

// Sweep runs batch detection over stored gigs in [now, now+horizon] and
// records the outcome for GetStats and the sweep gauges.
func (s *Service) Sweep(ctx context.Context) SweepStats {
	start := s.now()
	stats := SweepStats{At: start, From: start, To: start.Add(s.sweepHorizon), ByType: map[string]int{}}

	err := s.sweep(ctx, &stats)

	stats.DurationMS = s.now().Sub(start).Milliseconds()
	metrics.RecordSweepDuration(float64(stats.DurationMS))
	log := s.log()
	if err != nil {
		stats.Error = err.Error()
		metrics.RecordSweep("error")
		log.Error(ctx, "conflict sweep failed", logger.Error(err))
	} else {
		metrics.RecordSweep("ok")
		metrics.UpdateSweepResult(stats.Gigs, stats.Conflicts, stats.At)
		log.Info(ctx, "conflict sweep finished",
			logger.Time("from", stats.From),
			logger.Time("to", stats.To),
			logger.Int("gigs", stats.Gigs),
			logger.Int("conflicts", stats.Conflicts),
			logger.Any("byType", stats.ByType),
			logger.Int("durationMs", int(stats.DurationMS)),
		)
	}

	s.mu.Lock()
	s.lastSweep = &stats
	s.mu.Unlock()
	return stats
}

func (s *Service) sweep(ctx context.Context, stats *SweepStats) error {
	d, store, err := s.components()
	if err != nil {
		return err
	}
	gigs, err := listInRange(ctx, store, stats.From, stats.To)
	if err != nil {
		return err
	}
	for _, g := range gigs {
		if !g.IsCancelled() {
			stats.Gigs++
		}
	}
	found := d.CheckAllConflictsForGigs(ctx, gigs)
	stats.Conflicts = len(found)
	for _, c := range found {
		stats.ByType[string(c.Type)]++
	}
	return nil
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	l := s.logger
	s.mu.RUnlock()
	if l == nil {
		return logger.Named("service")
	}
	return l
}

// cronLogger routes cron's own messages to the service logger.
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(context.Background(), "cron: "+msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(context.Background(), "cron: "+msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []interface{}) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
