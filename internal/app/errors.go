package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrGigNotFound     = errors.New("gig not found")
	ErrInvalidRange    = errors.New("end must not be before start")
	ErrBatchTooLarge   = errors.New("too many gigs in batch")
	ErrInvalidSchedule = errors.New("invalid sweep schedule")
)
