package repository

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/corourke/gigmanager/internal/domain/conflict"
	"github.com/corourke/gigmanager/internal/domain/model"
	"github.com/corourke/gigmanager/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// sqliteSchema mirrors migrations/ with types sqlite understands.
const sqliteSchema = `
CREATE TABLE gigs (id TEXT PRIMARY KEY, title TEXT NOT NULL, start_time TIMESTAMP NOT NULL,
	end_time TIMESTAMP NOT NULL, timezone TEXT, status TEXT NOT NULL);
CREATE TABLE users (id TEXT PRIMARY KEY, first_name TEXT, last_name TEXT);
CREATE TABLE organizations (id TEXT PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE gig_staff_slots (id TEXT PRIMARY KEY, gig_id TEXT NOT NULL, role_name TEXT);
CREATE TABLE gig_staff_assignments (id TEXT PRIMARY KEY, slot_id TEXT NOT NULL, user_id TEXT, status TEXT);
CREATE TABLE gig_participants (id TEXT PRIMARY KEY, gig_id TEXT NOT NULL, organization_id TEXT NOT NULL, role TEXT NOT NULL);
CREATE TABLE kits (id TEXT PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE assets (id TEXT PRIMARY KEY, label TEXT NOT NULL);
CREATE TABLE kit_assets (kit_id TEXT NOT NULL, asset_id TEXT NOT NULL, PRIMARY KEY (kit_id, asset_id));
CREATE TABLE gig_kit_assignments (id TEXT PRIMARY KEY, gig_id TEXT NOT NULL, kit_id TEXT NOT NULL);
`

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

var fixtureGigs = []model.Gig{
	{ID: "g1", Title: "Subject", Start: mustTime("2026-06-01T18:00:00Z"), End: mustTime("2026-06-01T23:00:00Z"), Timezone: "America/Los_Angeles", Status: model.StatusBooked},
	{ID: "g2", Title: "Overlap", Start: mustTime("2026-06-01T20:00:00Z"), End: mustTime("2026-06-02T01:00:00Z"), Status: model.StatusBooked},
	{ID: "g3", Title: "Cancelled", Start: mustTime("2026-06-01T19:00:00Z"), End: mustTime("2026-06-01T21:00:00Z"), Status: model.StatusCancelled},
	{ID: "g4", Title: "Far", Start: mustTime("2026-06-10T18:00:00Z"), End: mustTime("2026-06-10T22:00:00Z"), Status: model.StatusProposed},
}

var fixtureStaff = []model.StaffAssignment{
	{GigID: "g1", SlotID: "s1", UserID: "u1", FirstName: "Ada", LastName: "Lovelace", Status: "Confirmed"},
	{GigID: "g1", SlotID: "s1", UserID: "u2", FirstName: "Grace", LastName: "Hopper", Status: "Declined"},
	{GigID: "g2", SlotID: "s2", UserID: "u1", FirstName: "Ada", LastName: "Lovelace", Status: "Confirmed"},
	{GigID: "g3", SlotID: "s3", UserID: "u1", FirstName: "Ada", LastName: "Lovelace", Status: "Confirmed"},
	{GigID: "g4", SlotID: "s4", UserID: "u1", FirstName: "Ada", LastName: "Lovelace", Status: "Confirmed"},
}

var fixtureParts = []model.ParticipantAssignment{
	{GigID: "g1", OrganizationID: "o1", OrganizationName: "The Club", Role: model.RoleVenue},
	{GigID: "g1", OrganizationID: "o2", OrganizationName: "The Band", Role: model.RoleAct},
	{GigID: "g1", OrganizationID: "o3", OrganizationName: "PA Co", Role: model.RoleSound},
	{GigID: "g2", OrganizationID: "o1", OrganizationName: "The Club", Role: model.RoleVenue},
	{GigID: "g2", OrganizationID: "o3", OrganizationName: "PA Co", Role: model.RoleSound},
	{GigID: "g3", OrganizationID: "o1", OrganizationName: "The Club", Role: model.RoleVenue},
}

var fixtureKits = []model.KitAssignment{
	{GigID: "g1", KitID: "k1", KitName: "Lights", AssetLabels: []string{"PAR-1", "PAR-2"}},
	{GigID: "g1", KitID: "k2", KitName: "Sound"},
	{GigID: "g2", KitID: "k1", KitName: "Lights", AssetLabels: []string{"PAR-1", "PAR-2"}},
	{GigID: "g4", KitID: "k1", KitName: "Lights", AssetLabels: []string{"PAR-1", "PAR-2"}},
}

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "0001_schema.up.sql"), []byte(sqliteSchema), 0o600); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "0001_schema.down.sql"), []byte("DROP TABLE gigs;"), 0o600); err != nil {
		t.Fatalf("write down migration: %v", err)
	}

	store, err := Open(ctx, DriverSQLite, filepath.Join(dir, "gigs.db"), WithConnectRetries(1))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.RunMigrations(ctx, dir); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	db := store.DB()
	for _, g := range fixtureGigs {
		var tz interface{}
		if g.Timezone != "" {
			tz = g.Timezone
		}
		db.MustExec(`INSERT INTO gigs (id, title, start_time, end_time, timezone, status) VALUES (?, ?, ?, ?, ?, ?)`,
			g.ID, g.Title, g.Start.UTC(), g.End.UTC(), tz, string(g.Status))
	}
	db.MustExec(`INSERT INTO users (id, first_name, last_name) VALUES ('u1', 'Ada', 'Lovelace'), ('u2', 'Grace', 'Hopper')`)
	for _, a := range fixtureStaff {
		db.MustExec(`INSERT OR IGNORE INTO gig_staff_slots (id, gig_id) VALUES (?, ?)`, a.SlotID, a.GigID)
		db.MustExec(`INSERT INTO gig_staff_assignments (id, slot_id, user_id, status) VALUES (?, ?, ?, ?)`,
			a.SlotID+"-"+a.UserID, a.SlotID, a.UserID, a.Status)
	}
	// unfilled slot
	db.MustExec(`INSERT INTO gig_staff_slots (id, gig_id) VALUES ('s5', 'g1')`)
	db.MustExec(`INSERT INTO gig_staff_assignments (id, slot_id, user_id, status) VALUES ('s5-none', 's5', NULL, 'Open')`)

	db.MustExec(`INSERT INTO organizations (id, name) VALUES ('o1', 'The Club'), ('o2', 'The Band'), ('o3', 'PA Co')`)
	for i, p := range fixtureParts {
		db.MustExec(`INSERT INTO gig_participants (id, gig_id, organization_id, role) VALUES (?, ?, ?, ?)`,
			i, p.GigID, p.OrganizationID, string(p.Role))
	}

	db.MustExec(`INSERT INTO kits (id, name) VALUES ('k1', 'Lights'), ('k2', 'Sound')`)
	db.MustExec(`INSERT INTO assets (id, label) VALUES ('x1', 'PAR-1'), ('x2', 'PAR-2')`)
	db.MustExec(`INSERT INTO kit_assets (kit_id, asset_id) VALUES ('k1', 'x1'), ('k1', 'x2')`)
	for i, k := range fixtureKits {
		db.MustExec(`INSERT INTO gig_kit_assignments (id, gig_id, kit_id) VALUES (?, ?, ?)`, i, k.GigID, k.KitID)
	}
	return store
}

func newSeededMemoryStore() *MemoryStore {
	m := NewMemoryStore()
	for _, g := range fixtureGigs {
		m.PutGig(g)
	}
	m.AddStaff(fixtureStaff...)
	m.AddStaff(model.StaffAssignment{GigID: "g1", SlotID: "s5"})
	m.AddParticipants(fixtureParts...)
	m.AddKits(fixtureKits...)
	return m
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"sqlite": newSQLiteStore(t),
		"memory": newSeededMemoryStore(),
	}
}

var fixtureWindow = conflict.Window{
	ExcludeGigID: "g1",
	From:         mustTime("2026-05-31T14:00:00Z"),
	To:           mustTime("2026-06-03T03:00:00Z"),
}

func TestStore_GetGig(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			g, err := s.GetGig(ctx, "g1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if g.Title != "Subject" || g.Timezone != "America/Los_Angeles" || g.Status != model.StatusBooked {
				t.Errorf("unexpected gig: %+v", g)
			}
			if !g.Start.Equal(fixtureGigs[0].Start) || !g.End.Equal(fixtureGigs[0].End) {
				t.Errorf("unexpected range: %s - %s", g.Start, g.End)
			}
			if g.Start.Location() != time.UTC {
				t.Errorf("expected UTC start, got %s", g.Start.Location())
			}

			if _, err := s.GetGig(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestStore_ListGigs(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			gigs, err := s.ListGigs(ctx, mustTime("2026-06-01T00:00:00Z"), mustTime("2026-06-02T00:00:00Z"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var ids []string
			for _, g := range gigs {
				ids = append(ids, g.ID)
			}
			want := []string{"g1", "g3", "g2"}
			if len(ids) != len(want) {
				t.Fatalf("expected %v, got %v", want, ids)
			}
			for i := range want {
				if ids[i] != want[i] {
					t.Errorf("position %d: expected %s, got %s", i, want[i], ids[i])
				}
			}

			if _, err := s.ListGigs(ctx, mustTime("2026-06-02T00:00:00Z"), mustTime("2026-06-01T00:00:00Z")); !errors.Is(err, ErrInvalidWindow) {
				t.Errorf("expected ErrInvalidWindow, got %v", err)
			}
		})
	}
}

func TestStore_BulkReads(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			staff, err := s.StaffAssignments(ctx, []string{"g1"})
			if err != nil {
				t.Fatalf("staff: %v", err)
			}
			if len(staff) != 2 {
				t.Fatalf("expected 2 staff assignments, got %d: %+v", len(staff), staff)
			}
			if staff[0].UserID != "u1" || staff[0].DisplayName() != "Ada Lovelace" {
				t.Errorf("unexpected first assignment: %+v", staff[0])
			}
			if staff[1].UserID != "u2" || staff[1].Status != "Declined" {
				t.Errorf("declined assignments must still be returned: %+v", staff[1])
			}

			parts, err := s.Participants(ctx, []string{"g1", "g2"})
			if err != nil {
				t.Fatalf("participants: %v", err)
			}
			if len(parts) != 3 {
				t.Fatalf("expected 3 venue/act participants, got %d: %+v", len(parts), parts)
			}
			for _, p := range parts {
				if !p.Role.IsConflictRole() {
					t.Errorf("unexpected role %q", p.Role)
				}
			}
			if parts[0].OrganizationName != "The Club" {
				t.Errorf("expected organization name, got %+v", parts[0])
			}

			kits, err := s.KitAssignments(ctx, []string{"g1", "g2", "g3"})
			if err != nil {
				t.Fatalf("kits: %v", err)
			}
			if len(kits) != 3 {
				t.Fatalf("expected 3 kit assignments, got %d", len(kits))
			}

			none, err := s.StaffAssignments(ctx, nil)
			if err != nil || len(none) != 0 {
				t.Errorf("expected empty result for no ids, got %v %v", none, err)
			}
		})
	}
}

func TestStore_Candidates(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			staff, err := s.StaffCandidates(ctx, fixtureWindow, []string{"u1", "u2"})
			if err != nil {
				t.Fatalf("staff candidates: %v", err)
			}
			if len(staff) != 1 || staff[0].Gig.ID != "g2" || staff[0].Assignment.UserID != "u1" {
				t.Fatalf("expected only u1 on g2, got %+v", staff)
			}
			if staff[0].Gig.Title != "Overlap" || staff[0].Gig.Status != model.StatusBooked {
				t.Errorf("candidate gig not populated: %+v", staff[0].Gig)
			}

			parts, err := s.ParticipantCandidates(ctx, fixtureWindow, []string{"o1", "o2"})
			if err != nil {
				t.Fatalf("participant candidates: %v", err)
			}
			if len(parts) != 1 || parts[0].Gig.ID != "g2" || parts[0].Participant.OrganizationID != "o1" {
				t.Fatalf("expected only o1 on g2, got %+v", parts)
			}

			kits, err := s.KitCandidates(ctx, fixtureWindow, []string{"k1", "k2"})
			if err != nil {
				t.Fatalf("kit candidates: %v", err)
			}
			if len(kits) != 1 || kits[0].Gig.ID != "g2" || kits[0].Kit.KitID != "k1" {
				t.Fatalf("expected only k1 on g2, got %+v", kits)
			}
			if got := kits[0].Kit.AssetLabels; len(got) != 2 || got[0] != "PAR-1" || got[1] != "PAR-2" {
				t.Errorf("expected asset labels, got %v", got)
			}
		})
	}
}

func TestStore_WithDetector(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			d := conflict.New(s)
			subject, err := s.GetGig(ctx, "g1")
			if err != nil {
				t.Fatalf("get gig: %v", err)
			}

			res, err := d.CheckAllConflicts(ctx, conflict.SubjectFromGig(subject))
			if err != nil {
				t.Fatalf("check: %v", err)
			}
			if len(res.Conflicts) != 3 {
				t.Fatalf("expected staff, venue and equipment conflicts, got %+v", res.Conflicts)
			}
			for i, typ := range []conflict.Type{conflict.TypeStaff, conflict.TypeVenue, conflict.TypeEquipment} {
				if res.Conflicts[i].Type != typ || res.Conflicts[i].GigID != "g2" {
					t.Errorf("conflict %d: expected %s on g2, got %+v", i, typ, res.Conflicts[i])
				}
			}

			gigs, err := s.ListGigs(ctx, mustTime("2026-06-01T00:00:00Z"), mustTime("2026-06-11T00:00:00Z"))
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			batch := d.CheckAllConflictsForGigs(ctx, gigs)
			if len(batch) != 6 {
				t.Fatalf("expected 3 dimensions x 2 sides, got %d: %+v", len(batch), batch)
			}
			for _, c := range batch {
				if c.GigID == "g3" || c.Details.OtherGigID == "g3" {
					t.Errorf("cancelled gig leaked into batch result: %+v", c)
				}
			}
		})
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mysql", "dsn"); !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("expected ErrUnknownDriver, got %v", err)
	}
}

func TestOpen_PoolSize(t *testing.T) {
	store, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "gigs.db"),
		WithConnectRetries(1),
		WithMaxOpenConns(3),
	)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	if got := store.DB().Stats().MaxOpenConnections; got != 3 {
		t.Errorf("expected pool of 3, got %d", got)
	}
}

func TestOpen_RetriesThenGivesUp(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "missing", "gigs.db")
	start := time.Now()
	_, err := Open(context.Background(), DriverSQLite, dsn,
		WithConnectRetries(3),
		WithRetryInterval(20*time.Millisecond),
	)
	if !errors.Is(err, ErrConnectTimeout) {
		t.Fatalf("expected ErrConnectTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("expected two retry pauses, returned after %v", elapsed)
	}
}

func TestMemoryStore_Count(t *testing.T) {
	m := newSeededMemoryStore()
	if m.Count() != len(fixtureGigs) {
		t.Errorf("expected %d gigs, got %d", len(fixtureGigs), m.Count())
	}
	m.PutGig(fixtureGigs[0])
	if m.Count() != len(fixtureGigs) {
		t.Errorf("replacing a gig must not grow the store")
	}
	if err := m.Ping(context.Background()); err != nil {
		t.Errorf("unexpected ping error: %v", err)
	}
}
