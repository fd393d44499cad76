package conflict

import (
	"time"

	"github.com/corourke/gigmanager/internal/domain/model"
)

// WarningBuffer is the gap under which two non-overlapping gigs still warn.
const WarningBuffer = 4 * time.Hour

// candidateSlack widens the candidate pre-filter so timezone-shifted
// date-only gigs are never missed.
const candidateSlack = 24 * time.Hour

// Overlaps is a closed-interval test; touching endpoints overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// Classify compares the current gig's range with another gig's range. The
// second return value is false when the gigs are unrelated.
func Classify(currentStart, currentEnd, otherStart, otherEnd time.Time) (Level, bool) {
	if Overlaps(currentStart, currentEnd, otherStart, otherEnd) {
		return LevelConflict, true
	}
	if Overlaps(currentStart.Add(-WarningBuffer), currentEnd.Add(WarningBuffer), otherStart, otherEnd) {
		return LevelWarning, true
	}
	return "", false
}

// ListWindow widens [from, to] for a store filter on raw start and end
// times, so gigs whose effective range reaches into [from, to] are listed.
// Callers narrow the listing with InRange.
func ListWindow(from, to time.Time) (time.Time, time.Time) {
	pad := WarningBuffer + candidateSlack
	return from.Add(-pad), to.Add(pad)
}

// InRange reports whether g's effective range intersects [from, to].
func InRange(g model.Gig, from, to time.Time) bool {
	start, end := EffectiveRange(g.Start, g.End, g.Timezone)
	return Overlaps(start, end, from, to)
}

// candidateWindow is the pre-filter window for candidate reads around a
// subject's effective range.
func candidateWindow(gigID string, s span) Window {
	from, to := ListWindow(s.start, s.end)
	return Window{ExcludeGigID: gigID, From: from, To: to}
}
