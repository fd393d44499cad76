package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/corourke/gigmanager/internal/domain/conflict"
	"github.com/corourke/gigmanager/internal/domain/model"
)

// MemoryStore is an in-memory Store, safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	gigs  map[string]model.Gig
	staff []model.StaffAssignment
	parts []model.ParticipantAssignment
	kits  []model.KitAssignment
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{gigs: make(map[string]model.Gig)}
}

// PutGig inserts or replaces a gig.
func (m *MemoryStore) PutGig(g model.Gig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gigs[g.ID] = normalizeGig(g)
}

// AddStaff appends staff assignments.
func (m *MemoryStore) AddStaff(a ...model.StaffAssignment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staff = append(m.staff, a...)
}

// AddParticipants appends participant assignments of any role.
func (m *MemoryStore) AddParticipants(p ...model.ParticipantAssignment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parts = append(m.parts, p...)
}

// AddKits appends kit assignments.
func (m *MemoryStore) AddKits(k ...model.KitAssignment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kits = append(m.kits, k...)
}

// GetGig returns one gig by id.
func (m *MemoryStore) GetGig(_ context.Context, id string) (model.Gig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.gigs[id]
	if !ok {
		return model.Gig{}, ErrNotFound
	}
	return g, nil
}

// ListGigs returns gigs intersecting [from, to] ordered by start.
func (m *MemoryStore) ListGigs(_ context.Context, from, to time.Time) ([]model.Gig, error) {
	if to.Before(from) {
		return nil, ErrInvalidWindow
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Gig
	for _, g := range m.gigs {
		if inWindow(g, from, to) {
			out = append(out, g)
		}
	}
	sortGigs(out)
	return out, nil
}

// StaffAssignments returns every staff assignment on the given gigs.
func (m *MemoryStore) StaffAssignments(_ context.Context, gigIDs []string) ([]model.StaffAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := set(gigIDs)
	var out []model.StaffAssignment
	for _, a := range m.staff {
		if _, ok := ids[a.GigID]; ok && a.UserID != "" {
			out = append(out, a)
		}
	}
	return out, nil
}

// Participants returns the Venue and Act participants of the given gigs.
func (m *MemoryStore) Participants(_ context.Context, gigIDs []string) ([]model.ParticipantAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := set(gigIDs)
	var out []model.ParticipantAssignment
	for _, p := range m.parts {
		if _, ok := ids[p.GigID]; ok && p.Role.IsConflictRole() {
			out = append(out, p)
		}
	}
	return out, nil
}

// KitAssignments returns the kits on the given gigs.
func (m *MemoryStore) KitAssignments(_ context.Context, gigIDs []string) ([]model.KitAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := set(gigIDs)
	var out []model.KitAssignment
	for _, k := range m.kits {
		if _, ok := ids[k.GigID]; ok {
			out = append(out, k)
		}
	}
	return out, nil
}

// candidate resolves the gig behind an assignment if it qualifies for w.
func (m *MemoryStore) candidate(gigID string, w conflict.Window) (model.Gig, bool) {
	g, ok := m.gigs[gigID]
	if !ok || g.ID == w.ExcludeGigID || g.IsCancelled() {
		return model.Gig{}, false
	}
	return g, inWindow(g, w.From, w.To)
}

// StaffCandidates returns assignments of the given users on other gigs in the window.
func (m *MemoryStore) StaffCandidates(_ context.Context, w conflict.Window, userIDs []string) ([]conflict.StaffCandidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := set(userIDs)
	var out []conflict.StaffCandidate
	for _, a := range m.staff {
		if _, ok := users[a.UserID]; !ok {
			continue
		}
		if g, ok := m.candidate(a.GigID, w); ok {
			out = append(out, conflict.StaffCandidate{Gig: g, Assignment: a})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return gigLess(out[i].Gig, out[j].Gig) })
	return out, nil
}

// ParticipantCandidates returns Venue/Act participation of the given
// organizations on other gigs in the window.
func (m *MemoryStore) ParticipantCandidates(_ context.Context, w conflict.Window, orgIDs []string) ([]conflict.ParticipantCandidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	orgs := set(orgIDs)
	var out []conflict.ParticipantCandidate
	for _, p := range m.parts {
		if _, ok := orgs[p.OrganizationID]; !ok || !p.Role.IsConflictRole() {
			continue
		}
		if g, ok := m.candidate(p.GigID, w); ok {
			out = append(out, conflict.ParticipantCandidate{Gig: g, Participant: p})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return gigLess(out[i].Gig, out[j].Gig) })
	return out, nil
}

// KitCandidates returns assignments of the given kits on other gigs in the window.
func (m *MemoryStore) KitCandidates(_ context.Context, w conflict.Window, kitIDs []string) ([]conflict.KitCandidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	kits := set(kitIDs)
	var out []conflict.KitCandidate
	for _, k := range m.kits {
		if _, ok := kits[k.KitID]; !ok {
			continue
		}
		if g, ok := m.candidate(k.GigID, w); ok {
			out = append(out, conflict.KitCandidate{Gig: g, Kit: k})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return gigLess(out[i].Gig, out[j].Gig) })
	return out, nil
}

// Count returns the number of stored gigs.
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.gigs)
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

func set(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func gigLess(a, b model.Gig) bool {
	if !a.Start.Equal(b.Start) {
		return a.Start.Before(b.Start)
	}
	return a.ID < b.ID
}

func sortGigs(gigs []model.Gig) {
	sort.Slice(gigs, func(i, j int) bool { return gigLess(gigs[i], gigs[j]) })
}
