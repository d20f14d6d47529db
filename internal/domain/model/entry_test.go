package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/icaoscore/internal/domain/model"
	"github.com/okian/icaoscore/internal/domain/rubric"
	"github.com/smartystreets/goconvey/convey"
)

func TestEntry(t *testing.T) {
	convey.Convey("Given an entry", t, func() {
		e := model.Entry{
			ID:          "e-1",
			CandidateID: "C1",
			RaterName:   "Ana",
			Scores:      model.Scores{2, 3, 4, 5, 6, 2},
			Timestamp:   1_700_000_000_000,
			UserID:      "u-1",
		}

		convey.Convey("Then overall is the lowest score", func() {
			convey.So(e.Overall(), convey.ShouldEqual, 2)
		})

		convey.Convey("Then scores are read by criterion", func() {
			convey.So(e.Score(rubric.Fluency), convey.ShouldEqual, 5)
			convey.So(e.Score(rubric.Criterion(12)), convey.ShouldEqual, 0)
		})

		convey.Convey("Then the timestamp converts to time", func() {
			convey.So(e.Time().Equal(time.UnixMilli(1_700_000_000_000)), convey.ShouldBeTrue)
		})

		convey.Convey("When every score is equal", func() {
			e.Scores = model.Scores{4, 4, 4, 4, 4, 4}

			convey.Convey("Then overall equals that score", func() {
				convey.So(e.Overall(), convey.ShouldEqual, 4)
			})
		})
	})
}

func TestScoresValid(t *testing.T) {
	convey.Convey("Given score arrays", t, func() {
		convey.So(model.Scores{1, 2, 3, 4, 5, 6}.Valid(), convey.ShouldBeTrue)
		convey.So(model.Scores{0, 2, 3, 4, 5, 6}.Valid(), convey.ShouldBeFalse)
		convey.So(model.Scores{1, 2, 3, 4, 5, 7}.Valid(), convey.ShouldBeFalse)
	})
}

func TestDraft(t *testing.T) {
	convey.Convey("Given a draft", t, func() {
		d := model.Draft{
			CandidateID: "  ",
			RaterName:   "  Ana ",
			Scores:      model.Scores{1, 2, 3, 4, 5, 6},
			Timestamp:   42,
			UserID:      "u-1",
		}

		convey.Convey("When normalized", func() {
			n := d.Normalize()

			convey.Convey("Then whitespace is trimmed and blank candidate is absent", func() {
				convey.So(n.RaterName, convey.ShouldEqual, "Ana")
				convey.So(n.CandidateID, convey.ShouldEqual, "")
				convey.So(n.Validate(), convey.ShouldBeNil)
			})

			convey.Convey("Then WithID carries every field", func() {
				e := n.WithID("id-9")
				convey.So(e.ID, convey.ShouldEqual, "id-9")
				convey.So(e.RaterName, convey.ShouldEqual, "Ana")
				convey.So(e.Scores, convey.ShouldResemble, n.Scores)
				convey.So(e.Timestamp, convey.ShouldEqual, 42)
				convey.So(e.UserID, convey.ShouldEqual, "u-1")
			})
		})

		convey.Convey("When the rater name is blank", func() {
			d.RaterName = ""
			err := d.Validate()

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, model.ErrInvalidDraft), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "RaterName")
			})
		})

		convey.Convey("When a score is out of range", func() {
			d.RaterName = "Ana"
			d.Scores[3] = 0
			err := d.Validate()

			convey.Convey("Then validation names the score", func() {
				convey.So(errors.Is(err, model.ErrInvalidDraft), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "Scores[3]")
			})
		})
	})
}
