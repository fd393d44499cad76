package conflict

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"syscall"
)

// Sentinel kinds for conflict errors.
var (
	// ErrUnavailable marks a store failure caused by connectivity rather than
	// by the query itself. Adapters wrap such failures with it.
	ErrUnavailable = errors.New("data store unavailable")
)

// NetworkError reports that a check could not reach the data store.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return "Network error: unable to " + e.Op
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err is a connectivity-class failure.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return true
	}
	if errors.Is(err, ErrUnavailable) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
