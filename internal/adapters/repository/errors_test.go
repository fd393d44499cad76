package repository

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/lib/pq"

	"github.com/corourke/gigmanager/internal/domain/conflict"
)

func TestWrapErr(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		unavailable bool
		notFound    bool
	}{
		{name: "no rows", err: sql.ErrNoRows, notFound: true},
		{name: "bad conn", err: driver.ErrBadConn, unavailable: true},
		{name: "conn done", err: sql.ErrConnDone, unavailable: true},
		{name: "connection failure", err: &pq.Error{Code: "08006"}, unavailable: true},
		{name: "admin shutdown", err: &pq.Error{Code: "57P01"}, unavailable: true},
		{name: "permission denied", err: &pq.Error{Code: "42501"}},
		{name: "plain", err: errors.New("syntax error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapErr("staff_candidates", tt.err)
			if !errors.Is(got, tt.err) && !tt.notFound {
				t.Errorf("cause lost: %v", got)
			}
			if errors.Is(got, conflict.ErrUnavailable) != tt.unavailable {
				t.Errorf("unavailable = %v, want %v (%v)", !tt.unavailable, tt.unavailable, got)
			}
			if conflict.IsNetworkError(got) != tt.unavailable {
				t.Errorf("network classification mismatch for %v", got)
			}
			if errors.Is(got, ErrNotFound) != tt.notFound {
				t.Errorf("not found = %v, want %v", !tt.notFound, tt.notFound)
			}
		})
	}

	if wrapErr("op", nil) != nil {
		t.Error("nil error must stay nil")
	}
}
