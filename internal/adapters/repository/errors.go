package repository

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/lib/pq"

	"github.com/corourke/gigmanager/internal/domain/conflict"
)

// Sentinel kinds for repository errors.
var (
	ErrNotFound       = errors.New("gig not found")
	ErrInvalidWindow  = errors.New("invalid time window")
	ErrUnknownDriver  = errors.New("unknown store driver")
	ErrConnectTimeout = errors.New("could not connect to database")
)

// wrapErr labels a driver error with the operation and marks
// connection-class failures with conflict.ErrUnavailable.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if isConnErr(err) {
		return fmt.Errorf("%s: %w: %w", op, conflict.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConnErr(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 08: connection exception; 57P0x: admin/crash shutdown, cannot connect now.
		if pqErr.Code.Class() == "08" {
			return true
		}
		switch pqErr.Code {
		case "57P01", "57P02", "57P03":
			return true
		}
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
