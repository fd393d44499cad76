// Package conflict detects scheduling conflicts between gigs that share staff,
// venue/act organizations or equipment kits during overlapping time windows.
package conflict

import (
	"time"

	"github.com/corourke/gigmanager/internal/domain/model"
)

// Level separates hard double-bookings from near misses.
type Level string

// Conflict levels.
const (
	LevelConflict Level = "conflict"
	LevelWarning  Level = "warning"
)

// Type names the shared resource dimension.
type Type string

// Resource dimensions.
const (
	TypeStaff     Type = "staff"
	TypeVenue     Type = "venue"
	TypeEquipment Type = "equipment"
)

// StaffRef identifies a staff member shared by two gigs.
type StaffRef struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// KitRef identifies a kit shared by two gigs, with the labels of its assets.
type KitRef struct {
	KitID   string   `json:"kit_id"`
	KitName string   `json:"kit_name"`
	Assets  []string `json:"assets"`
}

// Details is the type-specific payload of a Conflict. Only the fields relevant
// to the conflict type (and mode) are populated.
type Details struct {
	// Batch mode: the other side of the pair.
	OtherGigID    string `json:"other_gig_id,omitempty"`
	OtherGigTitle string `json:"other_gig_title,omitempty"`

	// staff
	ConflictingStaff []StaffRef `json:"conflicting_staff,omitempty"`

	// venue
	VenueID   string                `json:"venue_id,omitempty"`
	VenueName string                `json:"venue_name,omitempty"`
	Role      model.ParticipantRole `json:"role,omitempty"`

	// equipment; kits in single-gig mode, bare ids in batch mode
	ConflictingKits   []KitRef `json:"conflicting_kits,omitempty"`
	ConflictingKitIDs []string `json:"conflicting_kit_ids,omitempty"`
}

// Conflict is one side of a detected clash. GigID, GigTitle, Start and End
// describe the gig the record is attached to.
type Conflict struct {
	Level    Level     `json:"level"`
	Type     Type      `json:"type"`
	GigID    string    `json:"gig_id"`
	GigTitle string    `json:"gig_title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Details  Details   `json:"details"`
}

// OverrideKey is the key callers use to remember a user's override decision.
func (c Conflict) OverrideKey() string {
	return string(c.Type) + "-" + c.GigID
}

// Result is the outcome of a single-gig check.
type Result struct {
	Conflicts []Conflict `json:"conflicts"`
	Warnings  []Conflict `json:"warnings"`
}

func newResult() Result {
	return Result{Conflicts: []Conflict{}, Warnings: []Conflict{}}
}

func (r *Result) add(c Conflict) {
	if c.Level == LevelConflict {
		r.Conflicts = append(r.Conflicts, c)
		return
	}
	r.Warnings = append(r.Warnings, c)
}

// Empty reports whether neither conflicts nor warnings were found.
func (r Result) Empty() bool {
	return len(r.Conflicts) == 0 && len(r.Warnings) == 0
}

func mergeResults(parts ...Result) Result {
	out := newResult()
	for _, p := range parts {
		out.Conflicts = append(out.Conflicts, p.Conflicts...)
		out.Warnings = append(out.Warnings, p.Warnings...)
	}
	return out
}

// Subject is the gig a single-gig check is run for. Status is optional; a
// cancelled subject never conflicts.
type Subject struct {
	GigID    string
	Start    time.Time
	End      time.Time
	Timezone string
	Status   model.GigStatus
}

// SubjectFromGig builds a Subject from a stored gig.
func SubjectFromGig(g model.Gig) Subject {
	return Subject{GigID: g.ID, Start: g.Start, End: g.End, Timezone: g.Timezone, Status: g.Status}
}
