// Package repository provides read access to gigs and their resource
// assignments for conflict detection.
package repository

import (
	"context"
	"time"

	"github.com/corourke/gigmanager/internal/domain/conflict"
	"github.com/corourke/gigmanager/internal/domain/model"
)

// Store is the read-only gig store used by the service.
type Store interface {
	conflict.Source

	// GetGig returns one gig. Returns ErrNotFound if the id is unknown.
	GetGig(ctx context.Context, id string) (model.Gig, error)

	// ListGigs returns gigs whose raw range intersects [from, to], cancelled
	// ones included, ordered by start time.
	ListGigs(ctx context.Context, from, to time.Time) ([]model.Gig, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying resources.
	Close() error
}

var (
	_ Store = (*SQLStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// inWindow reports whether a gig's raw range intersects [from, to].
func inWindow(g model.Gig, from, to time.Time) bool {
	return !g.Start.After(to) && !g.End.Before(from)
}
