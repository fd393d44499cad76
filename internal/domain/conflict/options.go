package conflict

import (
	"time"

	"github.com/corourke/gigmanager/pkg/logger"
)

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithLogger sets a custom logger for the detector.
func WithLogger(l logger.Logger) Option {
	return func(d *Detector) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithClock overrides the time source used for latency measurement.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		if now != nil {
			d.now = now
		}
	}
}
