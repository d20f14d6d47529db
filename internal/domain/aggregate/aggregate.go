// Package aggregate derives role-scoped views and statistics from a
// snapshot of score entries. Every function is pure and safe to call
// concurrently on shared input.
package aggregate

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/okian/icaoscore/internal/domain/access"
	"github.com/okian/icaoscore/internal/domain/model"
	"github.com/okian/icaoscore/internal/domain/rubric"
)

// SortByTimeDesc returns a copy of entries ordered newest first. Ties keep
// their input order.
func SortByTimeDesc(entries []model.Entry) []model.Entry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b model.Entry) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})
	return out
}

// Visible returns the entries the session may see. Trainers get every
// entry, viewers only their own. Input order is preserved.
func Visible(entries []model.Entry, s access.Session) []model.Entry {
	if s.CanSeeAll() {
		return slices.Clone(entries)
	}
	out := make([]model.Entry, 0)
	for _, e := range entries {
		if e.UserID == s.UserID {
			out = append(out, e)
		}
	}
	return out
}

// Anonymize replaces rater names with "User <n>" by 1-based position and
// drops candidate ids.
func Anonymize(entries []model.Entry) []model.Entry {
	out := slices.Clone(entries)
	for i := range out {
		out[i].RaterName = fmt.Sprintf("User %d", i+1)
		out[i].CandidateID = ""
	}
	return out
}

// Histogram counts entries per level; bucket i holds level i+1.
type Histogram [rubric.LevelCount]int

// Total returns the number of counted entries.
func (h Histogram) Total() int {
	n := 0
	for _, c := range h {
		n += c
	}
	return n
}

// Max returns the largest bucket count.
func (h Histogram) Max() int {
	return slices.Max(h[:])
}

// Count returns the bucket count for level l, or 0 when l is off scale.
func (h Histogram) Count(l rubric.Level) int {
	if !l.Valid() {
		return 0
	}
	return h[l-1]
}

// Heights returns each bucket relative to the tallest one in [0,1]. An
// all-zero histogram yields all-zero heights.
func (h Histogram) Heights() [rubric.LevelCount]float64 {
	var out [rubric.LevelCount]float64
	den := float64(max(h.Max(), 1))
	for i, c := range h {
		out[i] = float64(c) / den
	}
	return out
}

// Distribution counts entries by their score at criterion c.
func Distribution(entries []model.Entry, c rubric.Criterion) Histogram {
	var h Histogram
	for _, e := range entries {
		h.add(e.Score(c))
	}
	return h
}

// OverallDistribution counts entries by their overall score.
func OverallDistribution(entries []model.Entry) Histogram {
	var h Histogram
	for _, e := range entries {
		h.add(e.Overall())
	}
	return h
}

func (h *Histogram) add(level int) {
	if rubric.Level(level).Valid() {
		h[level-1]++
	}
}

// Averages returns the mean score per criterion rounded to one decimal.
// No entries yields all zeros.
func Averages(entries []model.Entry) [rubric.CriterionCount]float64 {
	var out [rubric.CriterionCount]float64
	if len(entries) == 0 {
		return out
	}
	var sums [rubric.CriterionCount]int
	for _, e := range entries {
		for i, v := range e.Scores {
			sums[i] += v
		}
	}
	n := float64(len(entries))
	for i, s := range sums {
		out[i] = round1(float64(s) / n)
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// CriterionStats is the per-criterion part of a Summary.
type CriterionStats struct {
	Criterion    rubric.Criterion `json:"-"`
	Label        string           `json:"label"`
	Average      float64          `json:"average"`
	Distribution Histogram        `json:"distribution"`
}

// Summary bundles every statistic derived from one snapshot.
type Summary struct {
	Count               int              `json:"count"`
	Criteria            []CriterionStats `json:"criteria"`
	OverallDistribution Histogram        `json:"overallDistribution"`
}

// Summarize computes the full statistics view for entries.
func Summarize(entries []model.Entry) Summary {
	avgs := Averages(entries)
	s := Summary{
		Count:               len(entries),
		Criteria:            make([]CriterionStats, 0, rubric.CriterionCount),
		OverallDistribution: OverallDistribution(entries),
	}
	for _, c := range rubric.Criteria() {
		s.Criteria = append(s.Criteria, CriterionStats{
			Criterion:    c,
			Label:        c.String(),
			Average:      avgs[c],
			Distribution: Distribution(entries, c),
		})
	}
	return s
}
