package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	// postgres driver
	_ "github.com/lib/pq"

	"github.com/corourke/gigmanager/internal/domain/conflict"
	"github.com/corourke/gigmanager/internal/domain/model"
	"github.com/corourke/gigmanager/pkg/logger"
	"github.com/corourke/gigmanager/pkg/metrics"
)

// Supported SQL drivers. The sqlite3 driver must be registered by the caller.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

const (
	defaultConnectRetries = 10
	defaultRetryInterval  = 2 * time.Second
	defaultMaxOpenConns   = 10
)

// SQLStore reads gigs and assignments from a relational database.
type SQLStore struct {
	db     *sqlx.DB
	logger logger.Logger

	connectRetries int
	retryInterval  time.Duration
	maxOpenConns   int
}

// Open connects to the database, retrying until the attempts run out or ctx
// is done.
func Open(ctx context.Context, driverName, dsn string, opts ...Option) (*SQLStore, error) {
	if driverName != DriverPostgres && driverName != DriverSQLite {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driverName)
	}
	s := &SQLStore{
		connectRetries: defaultConnectRetries,
		retryInterval:  defaultRetryInterval,
		maxOpenConns:   defaultMaxOpenConns,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("repository")
	}

	var err error
	for attempt := 1; attempt <= s.connectRetries; attempt++ {
		var db *sqlx.DB
		db, err = sqlx.ConnectContext(ctx, driverName, dsn)
		if err == nil {
			db.SetMaxOpenConns(s.maxOpenConns)
			s.db = db
			s.logger.Info(ctx, "connected to database", logger.String("driver", driverName))
			return s, nil
		}

		s.logger.Error(ctx, "failed to connect to database",
			logger.Int("attempt", attempt),
			logger.Duration("retry_in", s.retryInterval),
			logger.Error(err),
		)
		if attempt == s.connectRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrConnectTimeout, ctx.Err())
		case <-time.After(s.retryInterval):
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrConnectTimeout, s.connectRetries, err)
}

// RunMigrations executes every *.up.sql file in dir in name order.
func (s *SQLStore) RunMigrations(ctx context.Context, dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		stmt, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %q: %w", file, err)
		}
		if len(stmt) == 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx, string(stmt)); err != nil {
			return fmt.Errorf("execute migration %q: %w", file, err)
		}
		s.logger.Info(ctx, "applied migration", logger.String("file", filepath.Base(file)))
	}
	return nil
}

// Ping checks the connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return wrapErr("ping", s.db.PingContext(ctx))
}

// Close closes the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying connection.
func (s *SQLStore) DB() *sqlx.DB { return s.db }

func observe(op string, start time.Time) {
	metrics.RecordStoreQueryLatency(op, float64(time.Since(start).Microseconds())/1000)
}

// selectIn expands IN (?) placeholders, rebinds for the driver and scans
// every row into dest.
func (s *SQLStore) selectIn(ctx context.Context, op string, dest interface{}, query string, args ...interface{}) error {
	defer observe(op, time.Now())
	q, qargs, err := sqlx.In(query, args...)
	if err != nil {
		return fmt.Errorf("%s: build query: %w", op, err)
	}
	return wrapErr(op, s.db.SelectContext(ctx, dest, s.db.Rebind(q), qargs...))
}

const gigColumns = `g.id, g.title, g.start_time, g.end_time, COALESCE(g.timezone, '') AS timezone, g.status`

// GetGig returns one gig by id.
func (s *SQLStore) GetGig(ctx context.Context, id string) (model.Gig, error) {
	defer observe("get_gig", time.Now())
	var g model.Gig
	q := s.db.Rebind(`SELECT ` + gigColumns + ` FROM gigs g WHERE g.id = ?`)
	if err := s.db.GetContext(ctx, &g, q, id); err != nil {
		return model.Gig{}, wrapErr("get gig", err)
	}
	return normalizeGig(g), nil
}

// ListGigs returns gigs intersecting [from, to] ordered by start.
func (s *SQLStore) ListGigs(ctx context.Context, from, to time.Time) ([]model.Gig, error) {
	if to.Before(from) {
		return nil, ErrInvalidWindow
	}
	defer observe("list_gigs", time.Now())
	var gigs []model.Gig
	q := s.db.Rebind(`SELECT ` + gigColumns + ` FROM gigs g
		WHERE g.start_time <= ? AND g.end_time >= ?
		ORDER BY g.start_time, g.id`)
	if err := s.db.SelectContext(ctx, &gigs, q, to.UTC(), from.UTC()); err != nil {
		return nil, wrapErr("list gigs", err)
	}
	for i := range gigs {
		gigs[i] = normalizeGig(gigs[i])
	}
	return gigs, nil
}

const staffSelect = `SELECT sl.gig_id, sa.slot_id, sa.user_id,
		COALESCE(u.first_name, '') AS first_name,
		COALESCE(u.last_name, '') AS last_name,
		COALESCE(sa.status, '') AS status`

const staffFrom = ` FROM gig_staff_assignments sa
	JOIN gig_staff_slots sl ON sl.id = sa.slot_id
	LEFT JOIN users u ON u.id = sa.user_id`

// StaffAssignments returns every staff assignment on the given gigs.
func (s *SQLStore) StaffAssignments(ctx context.Context, gigIDs []string) ([]model.StaffAssignment, error) {
	if len(gigIDs) == 0 {
		return nil, nil
	}
	var rows []model.StaffAssignment
	q := staffSelect + staffFrom + `
		WHERE sl.gig_id IN (?) AND sa.user_id IS NOT NULL
		ORDER BY sl.gig_id, sa.slot_id, sa.user_id`
	if err := s.selectIn(ctx, "staff_assignments", &rows, q, gigIDs); err != nil {
		return nil, err
	}
	return rows, nil
}

const participantSelect = `SELECT gp.gig_id, gp.organization_id,
		COALESCE(o.name, '') AS organization_name, gp.role`

const participantFrom = ` FROM gig_participants gp
	LEFT JOIN organizations o ON o.id = gp.organization_id`

// Participants returns the Venue and Act participants of the given gigs.
func (s *SQLStore) Participants(ctx context.Context, gigIDs []string) ([]model.ParticipantAssignment, error) {
	if len(gigIDs) == 0 {
		return nil, nil
	}
	var rows []model.ParticipantAssignment
	q := participantSelect + participantFrom + `
		WHERE gp.gig_id IN (?) AND gp.role IN (?)
		ORDER BY gp.gig_id, gp.role DESC, gp.organization_id`
	if err := s.selectIn(ctx, "participants", &rows, q, gigIDs, conflictRoles()); err != nil {
		return nil, err
	}
	return rows, nil
}

const kitSelect = `SELECT gk.gig_id, gk.kit_id, COALESCE(k.name, '') AS kit_name`

const kitFrom = ` FROM gig_kit_assignments gk
	LEFT JOIN kits k ON k.id = gk.kit_id`

// KitAssignments returns the kits on the given gigs. Asset labels are not
// loaded; batch detection only compares kit ids.
func (s *SQLStore) KitAssignments(ctx context.Context, gigIDs []string) ([]model.KitAssignment, error) {
	if len(gigIDs) == 0 {
		return nil, nil
	}
	var rows []model.KitAssignment
	q := kitSelect + kitFrom + `
		WHERE gk.gig_id IN (?)
		ORDER BY gk.gig_id, gk.kit_id`
	if err := s.selectIn(ctx, "kit_assignments", &rows, q, gigIDs); err != nil {
		return nil, err
	}
	return rows, nil
}

// candidateGig carries the joined gig columns of a candidate row.
type candidateGig struct {
	GigTitle    string    `db:"gig_title"`
	GigStart    time.Time `db:"gig_start"`
	GigEnd      time.Time `db:"gig_end"`
	GigTimezone string    `db:"gig_timezone"`
	GigStatus   string    `db:"gig_status"`
}

func (c candidateGig) gig(id string) model.Gig {
	return normalizeGig(model.Gig{
		ID:       id,
		Title:    c.GigTitle,
		Start:    c.GigStart,
		End:      c.GigEnd,
		Timezone: c.GigTimezone,
		Status:   model.GigStatus(c.GigStatus),
	})
}

const candidateGigColumns = `, g.title AS gig_title, g.start_time AS gig_start, g.end_time AS gig_end,
		COALESCE(g.timezone, '') AS gig_timezone, g.status AS gig_status`

const candidateWhere = ` JOIN gigs g ON g.id = %s
	WHERE g.id <> ? AND g.status <> ? AND g.start_time <= ? AND g.end_time >= ?`

func windowArgs(w conflict.Window) []interface{} {
	return []interface{}{w.ExcludeGigID, string(model.StatusCancelled), w.To.UTC(), w.From.UTC()}
}

// StaffCandidates returns assignments of the given users on other gigs in the window.
func (s *SQLStore) StaffCandidates(ctx context.Context, w conflict.Window, userIDs []string) ([]conflict.StaffCandidate, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	type row struct {
		model.StaffAssignment
		candidateGig
	}
	var rows []row
	q := staffSelect + candidateGigColumns + staffFrom + fmt.Sprintf(candidateWhere, "sl.gig_id") + `
		AND sa.user_id IN (?)
		ORDER BY g.start_time, g.id, sa.user_id`
	args := append(windowArgs(w), userIDs)
	if err := s.selectIn(ctx, "staff_candidates", &rows, q, args...); err != nil {
		return nil, err
	}
	out := make([]conflict.StaffCandidate, len(rows))
	for i, r := range rows {
		out[i] = conflict.StaffCandidate{Gig: r.gig(r.GigID), Assignment: r.StaffAssignment}
	}
	return out, nil
}

// ParticipantCandidates returns Venue/Act participation of the given
// organizations on other gigs in the window.
func (s *SQLStore) ParticipantCandidates(ctx context.Context, w conflict.Window, orgIDs []string) ([]conflict.ParticipantCandidate, error) {
	if len(orgIDs) == 0 {
		return nil, nil
	}
	type row struct {
		model.ParticipantAssignment
		candidateGig
	}
	var rows []row
	q := participantSelect + candidateGigColumns + participantFrom + fmt.Sprintf(candidateWhere, "gp.gig_id") + `
		AND gp.organization_id IN (?) AND gp.role IN (?)
		ORDER BY g.start_time, g.id, gp.role DESC, gp.organization_id`
	args := append(windowArgs(w), orgIDs, conflictRoles())
	if err := s.selectIn(ctx, "participant_candidates", &rows, q, args...); err != nil {
		return nil, err
	}
	out := make([]conflict.ParticipantCandidate, len(rows))
	for i, r := range rows {
		out[i] = conflict.ParticipantCandidate{Gig: r.gig(r.GigID), Participant: r.ParticipantAssignment}
	}
	return out, nil
}

// KitCandidates returns assignments of the given kits on other gigs in the
// window, with each kit's asset labels.
func (s *SQLStore) KitCandidates(ctx context.Context, w conflict.Window, kitIDs []string) ([]conflict.KitCandidate, error) {
	if len(kitIDs) == 0 {
		return nil, nil
	}
	type row struct {
		model.KitAssignment
		candidateGig
	}
	var rows []row
	q := kitSelect + candidateGigColumns + kitFrom + fmt.Sprintf(candidateWhere, "gk.gig_id") + `
		AND gk.kit_id IN (?)
		ORDER BY g.start_time, g.id, gk.kit_id`
	args := append(windowArgs(w), kitIDs)
	if err := s.selectIn(ctx, "kit_candidates", &rows, q, args...); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	labels, err := s.assetLabels(ctx, kitIDs)
	if err != nil {
		return nil, err
	}
	out := make([]conflict.KitCandidate, len(rows))
	for i, r := range rows {
		kit := r.KitAssignment
		kit.AssetLabels = labels[kit.KitID]
		out[i] = conflict.KitCandidate{Gig: r.gig(r.GigID), Kit: kit}
	}
	return out, nil
}

// assetLabels maps kit id to the labels of its assets.
func (s *SQLStore) assetLabels(ctx context.Context, kitIDs []string) (map[string][]string, error) {
	var rows []struct {
		KitID string `db:"kit_id"`
		Label string `db:"label"`
	}
	q := `SELECT ka.kit_id, a.label FROM kit_assets ka
		JOIN assets a ON a.id = ka.asset_id
		WHERE ka.kit_id IN (?)
		ORDER BY ka.kit_id, a.label`
	if err := s.selectIn(ctx, "asset_labels", &rows, q, kitIDs); err != nil {
		return nil, err
	}
	out := make(map[string][]string)
	for _, r := range rows {
		out[r.KitID] = append(out[r.KitID], r.Label)
	}
	return out, nil
}

func conflictRoles() []string {
	return []string{string(model.RoleVenue), string(model.RoleAct)}
}

// normalizeGig pins scanned times to UTC.
func normalizeGig(g model.Gig) model.Gig {
	g.Start = g.Start.UTC()
	g.End = g.End.UTC()
	return g
}
