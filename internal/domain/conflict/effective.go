package conflict

import "time"

// dayLength is the span of a localised date-only gig.
const dayLength = 24*time.Hour - time.Millisecond

// IsDateOnly reports whether t is the noon-UTC sentinel used for gigs that
// carry a calendar date but no clock time.
func IsDateOnly(t time.Time) bool {
	u := t.UTC()
	return u.Hour() == 12 && u.Minute() == 0 && u.Second() == 0 &&
		u.Nanosecond()/int(time.Millisecond) == 0
}

// EffectiveRange returns the window used for overlap math. Timed gigs are
// returned unchanged. Date-only gigs cover the whole calendar day of start (as
// a UTC date) in the gig's timezone, from local midnight for 24h minus 1ms.
// An empty or unknown timezone is treated as UTC.
func EffectiveRange(start, end time.Time, timezone string) (time.Time, time.Time) {
	if !IsDateOnly(start) && !IsDateOnly(end) {
		return start, end
	}
	y, m, d := start.UTC().Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, location(timezone))
	return midnight.UTC(), midnight.Add(dayLength).UTC()
}

// location resolves an IANA zone name, falling back to UTC.
func location(name string) *time.Location {
	if name == "" || name == "UTC" || name == "Local" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// span is a precomputed effective range.
type span struct {
	start time.Time
	end   time.Time
}

func effectiveSpan(start, end time.Time, timezone string) span {
	s, e := EffectiveRange(start, end, timezone)
	return span{start: s, end: e}
}
