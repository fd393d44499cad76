package api

import "github.com/corourke/gigmanager/pkg/logger"

// Option configures a Server.
type Option func(*Server)

// WithJWTSecret enables HS256 bearer verification on the conflict routes.
// An empty secret leaves them open.
func WithJWTSecret(secret string) Option {
	return func(s *Server) {
		s.jwtSecret = secret
	}
}

// WithLogger sets the logger used by request handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
