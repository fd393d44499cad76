package conflict_test

import (
	"testing"
	"time"

	conflict "github.com/corourke/gigmanager/internal/domain/conflict"
	"github.com/corourke/gigmanager/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestOverlaps(t *testing.T) {
	Convey("Given pairs of ranges", t, func() {
		base := ts("2026-06-01T10:00:00Z")
		at := func(h float64) time.Time { return base.Add(time.Duration(h * float64(time.Hour))) }

		Convey("Then the test is symmetric", func() {
			cases := [][4]time.Time{
				{at(0), at(2), at(1), at(3)},
				{at(0), at(2), at(2), at(3)},
				{at(0), at(2), at(3), at(4)},
				{at(0), at(10), at(2), at(3)},
				{at(5), at(6), at(0), at(1)},
			}
			for _, c := range cases {
				So(conflict.Overlaps(c[0], c[1], c[2], c[3]), ShouldEqual, conflict.Overlaps(c[2], c[3], c[0], c[1]))
			}
		})

		Convey("Then touching endpoints overlap", func() {
			So(conflict.Overlaps(at(0), at(2), at(2), at(4)), ShouldBeTrue)
		})

		Convey("Then containment overlaps", func() {
			So(conflict.Overlaps(at(0), at(10), at(2), at(3)), ShouldBeTrue)
		})

		Convey("Then disjoint ranges do not overlap", func() {
			So(conflict.Overlaps(at(0), at(2), at(2.5), at(4)), ShouldBeFalse)
		})
	})
}

func TestClassify(t *testing.T) {
	Convey("Given a current gig from 10:00 to 12:00", t, func() {
		curStart, curEnd := ts("2026-06-01T10:00:00Z"), ts("2026-06-01T12:00:00Z")

		Convey("When the other gig starts exactly 4h after it ends", func() {
			level, ok := conflict.Classify(curStart, curEnd, ts("2026-06-01T16:00:00Z"), ts("2026-06-01T18:00:00Z"))

			Convey("Then it is a warning", func() {
				So(ok, ShouldBeTrue)
				So(level, ShouldEqual, conflict.LevelWarning)
			})
		})

		Convey("When the other gig ends exactly 4h before it starts", func() {
			level, ok := conflict.Classify(curStart, curEnd, ts("2026-06-01T04:00:00Z"), ts("2026-06-01T06:00:00Z"))

			Convey("Then it is a warning", func() {
				So(ok, ShouldBeTrue)
				So(level, ShouldEqual, conflict.LevelWarning)
			})
		})

		Convey("When the gap is 4h and 1ms", func() {
			_, ok := conflict.Classify(curStart, curEnd, ts("2026-06-01T16:00:00.001Z"), ts("2026-06-01T18:00:00Z"))

			Convey("Then there is no relation", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the other gig touches it", func() {
			level, ok := conflict.Classify(curStart, curEnd, ts("2026-06-01T12:00:00Z"), ts("2026-06-01T13:00:00Z"))

			Convey("Then it is a conflict", func() {
				So(ok, ShouldBeTrue)
				So(level, ShouldEqual, conflict.LevelConflict)
			})
		})

		Convey("When the other gig overlaps it", func() {
			level, ok := conflict.Classify(curStart, curEnd, ts("2026-06-01T11:00:00Z"), ts("2026-06-01T15:00:00Z"))

			Convey("Then it is a conflict", func() {
				So(ok, ShouldBeTrue)
				So(level, ShouldEqual, conflict.LevelConflict)
			})
		})
	})

	Convey("Given the warning buffer", t, func() {
		So(conflict.WarningBuffer, ShouldEqual, 4*time.Hour)
	})
}

func TestInRange(t *testing.T) {
	Convey("Given a date-only gig on 2026-03-01 in Los Angeles", t, func() {
		g := model.Gig{ID: "d", Start: ts("2026-03-01T12:00:00Z"), End: ts("2026-03-01T12:00:00Z"), Timezone: "America/Los_Angeles"}

		Convey("Then a range over its local morning includes it", func() {
			So(conflict.InRange(g, ts("2026-03-01T08:30:00Z"), ts("2026-03-01T10:00:00Z")), ShouldBeTrue)
		})

		Convey("Then a range ending before local midnight excludes it", func() {
			So(conflict.InRange(g, ts("2026-03-01T00:00:00Z"), ts("2026-03-01T07:59:00Z")), ShouldBeFalse)
		})
	})

	Convey("Given a timed gig", t, func() {
		g := model.Gig{ID: "t", Start: ts("2026-03-01T16:00:00Z"), End: ts("2026-03-01T17:00:00Z")}

		Convey("Then only ranges touching its raw times include it", func() {
			So(conflict.InRange(g, ts("2026-03-01T17:00:00Z"), ts("2026-03-01T18:00:00Z")), ShouldBeTrue)
			So(conflict.InRange(g, ts("2026-03-01T08:30:00Z"), ts("2026-03-01T10:00:00Z")), ShouldBeFalse)
		})
	})

	Convey("Given a listing window", t, func() {
		from, to := conflict.ListWindow(ts("2026-03-01T08:30:00Z"), ts("2026-03-01T10:00:00Z"))

		Convey("Then it is padded by a day plus the warning buffer on each side", func() {
			So(from, ShouldEqual, ts("2026-02-28T04:30:00Z"))
			So(to, ShouldEqual, ts("2026-03-02T14:00:00Z"))
		})
	})
}
