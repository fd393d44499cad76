package repository

import (
	"time"

	"github.com/corourke/gigmanager/pkg/logger"
)

// Option applies a configuration option to the SQLStore.
type Option func(*SQLStore)

// WithConnectRetries sets how many times Open tries to connect.
func WithConnectRetries(n int) Option {
	return func(s *SQLStore) {
		if n > 0 {
			s.connectRetries = n
		}
	}
}

// WithRetryInterval sets the pause between connection attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(s *SQLStore) {
		if d > 0 {
			s.retryInterval = d
		}
	}
}

// WithMaxOpenConns caps the connection pool.
func WithMaxOpenConns(n int) Option {
	return func(s *SQLStore) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *SQLStore) {
		if l != nil {
			s.logger = l
		}
	}
}
