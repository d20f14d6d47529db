// Package form models the score submission form as an immutable value and
// a pure reducer. The reducer never talks to a store: a successful submit
// request yields a Draft effect, and the caller reports the store outcome
// back with SubmitSucceeded or SubmitFailed.
package form

import (
	"strings"
	"time"

	"github.com/okian/icaoscore/internal/domain/model"
	"github.com/okian/icaoscore/internal/domain/rubric"
)

// AckDuration is how long the "submitted" acknowledgment stays visible.
const AckDuration = 2 * time.Second

// Notices shown to the rater.
const (
	NoticeNameRequired   = "Please enter your name."
	NoticeScoresRequired = "Please rate all criteria before submitting."
	NoticeStoreFailed    = "Could not save your scores. Please try again."
	NoticeSubmitted      = "Scores submitted."
)

// State is the full form state. The zero value is the initial state.
type State struct {
	CandidateID  string                              `json:"candidateId"`
	RaterName    string                              `json:"raterName"`
	Scores       [rubric.CriterionCount]rubric.Level `json:"scores"`
	Touched      [rubric.CriterionCount]bool         `json:"touched"`
	ShowErrors   bool                                `json:"showErrors"`
	Submitting   bool                                `json:"submitting"`
	Acknowledged bool                                `json:"acknowledged"`
	Notice       string                              `json:"notice,omitempty"`
}

// Initial returns the empty form.
func Initial() State { return State{} }

// Complete reports whether every criterion is touched with a level set.
func (s State) Complete() bool {
	for i, l := range s.Scores {
		if !s.Touched[i] || !l.Valid() {
			return false
		}
	}
	return true
}

// Missing returns the criteria still lacking a score.
func (s State) Missing() []rubric.Criterion {
	var out []rubric.Criterion
	for i, l := range s.Scores {
		if !s.Touched[i] || !l.Valid() {
			out = append(out, rubric.Criterion(i))
		}
	}
	return out
}

// Event is an input to Reduce.
type Event interface{ isEvent() }

// CandidateIDEdited replaces the candidate id text.
type CandidateIDEdited struct{ Value string }

// RaterNameEdited replaces the rater name text.
type RaterNameEdited struct{ Value string }

// ScoreSet sets a level for one criterion and marks it touched.
type ScoreSet struct {
	Criterion rubric.Criterion
	Level     rubric.Level
}

// SubmitRequested asks to submit the form on behalf of UserID at At.
type SubmitRequested struct {
	UserID string
	At     time.Time
}

// SubmitSucceeded reports that the store accepted the draft.
type SubmitSucceeded struct{}

// SubmitFailed reports that the store rejected the draft.
type SubmitFailed struct{ Err error }

// AckExpired clears the acknowledgment once AckDuration has elapsed.
type AckExpired struct{}

// Reset returns the form to its initial state.
type Reset struct{}

func (CandidateIDEdited) isEvent() {}
func (RaterNameEdited) isEvent()   {}
func (ScoreSet) isEvent()          {}
func (SubmitRequested) isEvent()   {}
func (SubmitSucceeded) isEvent()   {}
func (SubmitFailed) isEvent()      {}
func (AckExpired) isEvent()        {}
func (Reset) isEvent()             {}

// Effect is the side effect requested by a transition.
type Effect struct {
	// Draft is non-nil when the caller must persist it and report back.
	Draft *model.Draft
	// StartAck asks the caller to deliver AckExpired after AckDuration.
	StartAck bool
}

// Reduce applies ev to s and returns the next state with any effect.
func Reduce(s State, ev Event) (State, Effect) {
	switch e := ev.(type) {
	case CandidateIDEdited:
		s.CandidateID = e.Value
	case RaterNameEdited:
		s.RaterName = e.Value
	case ScoreSet:
		if !e.Criterion.Valid() || !e.Level.Valid() {
			return s, Effect{}
		}
		s.Scores[e.Criterion] = e.Level
		s.Touched[e.Criterion] = true
	case SubmitRequested:
		return submit(s, e)
	case SubmitSucceeded:
		next := Initial()
		next.Acknowledged = true
		next.Notice = NoticeSubmitted
		return next, Effect{StartAck: true}
	case SubmitFailed:
		s.Submitting = false
		s.Notice = NoticeStoreFailed
	case AckExpired:
		s.Acknowledged = false
		if s.Notice == NoticeSubmitted {
			s.Notice = ""
		}
	case Reset:
		return Initial(), Effect{}
	}
	return s, Effect{}
}

func submit(s State, e SubmitRequested) (State, Effect) {
	if s.Submitting {
		return s, Effect{}
	}
	name := strings.TrimSpace(s.RaterName)
	if name == "" {
		s.ShowErrors = true
		s.Notice = NoticeNameRequired
		return s, Effect{}
	}
	if !s.Complete() {
		s.ShowErrors = true
		s.Notice = NoticeScoresRequired
		return s, Effect{}
	}

	var scores model.Scores
	for i, l := range s.Scores {
		scores[i] = int(l)
	}
	d := model.Draft{
		CandidateID: s.CandidateID,
		RaterName:   name,
		Scores:      scores,
		Timestamp:   e.At.UnixMilli(),
		UserID:      e.UserID,
	}.Normalize()

	s.Submitting = true
	s.Notice = ""
	return s, Effect{Draft: &d}
}
