package conflict

import (
	"context"
	"time"

	"github.com/corourke/gigmanager/internal/domain/model"
)

// Window bounds a candidate read. Gigs whose raw [start, end] intersects
// [From, To] qualify; ExcludeGigID is never returned.
type Window struct {
	ExcludeGigID string
	From         time.Time
	To           time.Time
}

// StaffCandidate is a staff assignment on another gig.
type StaffCandidate struct {
	Gig        model.Gig
	Assignment model.StaffAssignment
}

// ParticipantCandidate is a venue or act participant on another gig.
type ParticipantCandidate struct {
	Gig         model.Gig
	Participant model.ParticipantAssignment
}

// KitCandidate is a kit assignment on another gig.
type KitCandidate struct {
	Gig model.Gig
	Kit model.KitAssignment
}

// Source is the read-only data-store boundary of the detector.
type Source interface {
	// StaffAssignments returns every staff assignment on the given gigs,
	// regardless of slot or assignment status.
	StaffAssignments(ctx context.Context, gigIDs []string) ([]model.StaffAssignment, error)
	// Participants returns the Venue and Act participants of the given gigs.
	Participants(ctx context.Context, gigIDs []string) ([]model.ParticipantAssignment, error)
	// KitAssignments returns the kits assigned to the given gigs.
	KitAssignments(ctx context.Context, gigIDs []string) ([]model.KitAssignment, error)

	// StaffCandidates returns assignments of the given users on other
	// non-cancelled gigs inside the window.
	StaffCandidates(ctx context.Context, w Window, userIDs []string) ([]StaffCandidate, error)
	// ParticipantCandidates returns Venue/Act participation of the given
	// organizations on other non-cancelled gigs inside the window.
	ParticipantCandidates(ctx context.Context, w Window, orgIDs []string) ([]ParticipantCandidate, error)
	// KitCandidates returns assignments of the given kits on other
	// non-cancelled gigs inside the window.
	KitCandidates(ctx context.Context, w Window, kitIDs []string) ([]KitCandidate, error)
}
