// Package model contains domain models passed between layers.
package model

import (
	"slices"
	"strings"
	"time"

	"github.com/okian/icaoscore/internal/domain/rubric"
)

// Scores holds one level per criterion, indexed by rubric.Criterion.
type Scores [rubric.CriterionCount]int

// Entry is one persisted rating of a candidate. Entries are never
// mutated after creation, only inserted or deleted.
type Entry struct {
	ID          string `json:"id"`
	CandidateID string `json:"candidateId,omitempty"` // "" when absent
	RaterName   string `json:"raterName"`
	Scores      Scores `json:"scores"`
	Timestamp   int64  `json:"timestamp"` // ms since epoch
	UserID      string `json:"userId"`
}

// Draft is an entry awaiting an identifier from the store.
type Draft struct {
	CandidateID string `json:"candidateId,omitempty" validate:"max=200"`
	RaterName   string `json:"raterName" validate:"required,max=200"`
	Scores      Scores `json:"scores" validate:"dive,min=1,max=6"`
	Timestamp   int64  `json:"timestamp" validate:"gt=0"`
	UserID      string `json:"userId" validate:"required"`
}

// Overall returns the lowest of the entry's criterion scores.
func (e Entry) Overall() int {
	return e.Scores.Min()
}

// Time returns the creation time.
func (e Entry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Score returns the level recorded for c, or 0 when c is out of range.
func (e Entry) Score(c rubric.Criterion) int {
	if !c.Valid() {
		return 0
	}
	return e.Scores[c]
}

// Min returns the lowest score.
func (s Scores) Min() int {
	return slices.Min(s[:])
}

// Valid reports whether every score lies on the rubric scale.
func (s Scores) Valid() bool {
	for _, v := range s {
		if !rubric.Level(v).Valid() {
			return false
		}
	}
	return true
}

// WithID materializes the draft into an entry with the given id.
func (d Draft) WithID(id string) Entry {
	return Entry{
		ID:          id,
		CandidateID: d.CandidateID,
		RaterName:   d.RaterName,
		Scores:      d.Scores,
		Timestamp:   d.Timestamp,
		UserID:      d.UserID,
	}
}

// Normalize trims free-text fields. A blank candidate id becomes absent.
func (d Draft) Normalize() Draft {
	d.CandidateID = strings.TrimSpace(d.CandidateID)
	d.RaterName = strings.TrimSpace(d.RaterName)
	return d
}
