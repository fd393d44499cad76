// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// GigStatus mirrors the status enum stored on a gig row.
type GigStatus string

// Known gig statuses. Only StatusCancelled changes conflict behaviour.
const (
	StatusDateHold  GigStatus = "DateHold"
	StatusProposed  GigStatus = "Proposed"
	StatusBooked    GigStatus = "Booked"
	StatusCompleted GigStatus = "Completed"
	StatusCancelled GigStatus = "Cancelled"
	StatusSettled   GigStatus = "Settled"
)

// ParticipantRole is the role an organization plays on a gig.
type ParticipantRole string

// Participant roles. Only Venue and Act take part in conflict detection.
const (
	RoleVenue      ParticipantRole = "Venue"
	RoleAct        ParticipantRole = "Act"
	RoleProduction ParticipantRole = "Production"
	RoleSound      ParticipantRole = "Sound"
	RoleLighting   ParticipantRole = "Lighting"
	RoleStaging    ParticipantRole = "Staging"
	RoleRentals    ParticipantRole = "Rentals"
	RoleAgency     ParticipantRole = "Agency"
	RoleMarketing  ParticipantRole = "Marketing"
)

// IsConflictRole reports whether participants with this role can double-book.
func (r ParticipantRole) IsConflictRole() bool {
	return r == RoleVenue || r == RoleAct
}

// Gig is an event with a time range. Start and End are absolute instants;
// Timezone is only used to localise date-only gigs.
type Gig struct {
	ID       string    `db:"id"         json:"id"`
	Title    string    `db:"title"      json:"title"`
	Start    time.Time `db:"start_time" json:"start"`
	End      time.Time `db:"end_time"   json:"end"`
	Timezone string    `db:"timezone"   json:"timezone,omitempty"`
	Status   GigStatus `db:"status"     json:"status,omitempty"`
}

// IsCancelled reports whether the gig is excluded from conflict detection.
func (g Gig) IsCancelled() bool {
	return g.Status == StatusCancelled
}

// StaffAssignment is a user assigned to one of a gig's staff slots.
type StaffAssignment struct {
	GigID     string `db:"gig_id"`
	SlotID    string `db:"slot_id"`
	UserID    string `db:"user_id"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Status    string `db:"status"` // informational, e.g. "Confirmed", "Declined"
}

// DisplayName is "first last" with surrounding whitespace trimmed.
func (a StaffAssignment) DisplayName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// ParticipantAssignment is an organization participating in a gig.
type ParticipantAssignment struct {
	GigID            string          `db:"gig_id"`
	OrganizationID   string          `db:"organization_id"`
	OrganizationName string          `db:"organization_name"`
	Role             ParticipantRole `db:"role"`
}

// KitAssignment is an equipment kit booked onto a gig.
type KitAssignment struct {
	GigID       string   `db:"gig_id"`
	KitID       string   `db:"kit_id"`
	KitName     string   `db:"kit_name"`
	AssetLabels []string `db:"-"`
}
