package dedupe_test

import (
	"fmt"
	"testing"

	dedupe "github.com/corourke/gigmanager/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestKey(t *testing.T) {
	Convey("Given composite keys", t, func() {
		Convey("When the same parts are joined twice", func() {
			So(dedupe.Key("staff", "g1", "g2", ""), ShouldEqual, dedupe.Key("staff", "g1", "g2", ""))
		})

		Convey("When empty parts sit in different positions", func() {
			So(dedupe.Key("venue", "g1", "", "o1"), ShouldNotEqual, dedupe.Key("venue", "g1", "o1", ""))
		})

		Convey("When parts would collide under naive concatenation", func() {
			So(dedupe.Key("ab", "c"), ShouldNotEqual, dedupe.Key("a", "bc"))
		})
	})
}

func TestSet(t *testing.T) {
	Convey("Given a new set", t, func() {
		s := dedupe.NewSet()

		Convey("When a key is recorded for the first time", func() {
			seen := s.SeenAndRecord(dedupe.Key("staff", "g1", "g2", ""))

			Convey("Then it is reported as new", func() {
				So(seen, ShouldBeFalse)
			})

			Convey("And recording it again reports it as seen", func() {
				So(s.SeenAndRecord(dedupe.Key("staff", "g1", "g2", "")), ShouldBeTrue)
			})
		})

		Convey("When keys differ only by the other gig", func() {
			So(s.SeenAndRecord(dedupe.Key("staff", "g1", "g2", "")), ShouldBeFalse)
			So(s.SeenAndRecord(dedupe.Key("staff", "g1", "g3", "")), ShouldBeFalse)
		})

		Convey("When many keys are recorded", func() {
			const n = 1000
			for i := 0; i < n; i++ {
				So(s.SeenAndRecord(fmt.Sprintf("k-%d", i)), ShouldBeFalse)
			}

			Convey("Then the first key is still remembered", func() {
				So(s.SeenAndRecord("k-0"), ShouldBeTrue)
				So(s.SeenAndRecord(fmt.Sprintf("k-%d", n-1)), ShouldBeTrue)
			})
		})
	})
}
