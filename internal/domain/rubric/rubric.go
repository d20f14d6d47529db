// Package rubric defines the ICAO language proficiency rubric: the six
// fixed criteria, the 1–6 level scale, and the descriptor text for each
// criterion/level pair.
package rubric

import "fmt"

// CriterionCount is the fixed number of rubric criteria.
const CriterionCount = 6

// LevelCount is the number of levels on the scale.
const LevelCount = 6

// Criterion identifies one rubric dimension. Values double as the index
// into an entry's score array.
type Criterion int

// Criteria in their fixed scoring order.
const (
	Pronunciation Criterion = iota
	Structure
	Vocabulary
	Fluency
	Comprehension
	Interactions
)

var criterionLabels = [CriterionCount]string{
	"Pronunciation",
	"Structure",
	"Vocabulary",
	"Fluency",
	"Comprehension",
	"Interactions",
}

// Criteria returns every criterion in scoring order.
func Criteria() []Criterion {
	out := make([]Criterion, CriterionCount)
	for i := range out {
		out[i] = Criterion(i)
	}
	return out
}

// Labels returns the criterion labels in scoring order.
func Labels() []string {
	out := make([]string, CriterionCount)
	copy(out, criterionLabels[:])
	return out
}

// Valid reports whether c is one of the six criteria.
func (c Criterion) Valid() bool {
	return c >= 0 && c < CriterionCount
}

// String returns the criterion label.
func (c Criterion) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Criterion(%d)", int(c))
	}
	return criterionLabels[c]
}

// ParseCriterion resolves a label (exact match) to a criterion.
func ParseCriterion(label string) (Criterion, error) {
	for i, l := range criterionLabels {
		if l == label {
			return Criterion(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCriterion, label)
}

// Level is a score on the 1–6 scale. The zero value means "not set".
type Level int

// Scale bounds.
const (
	Unset    Level = 0
	MinLevel Level = 1
	MaxLevel Level = 6
)

var levelNames = [LevelCount]string{
	"Pre-elementary",
	"Elementary",
	"Pre-operational",
	"Operational",
	"Extended",
	"Expert",
}

// Levels returns every level from lowest to highest.
func Levels() []Level {
	out := make([]Level, LevelCount)
	for i := range out {
		out[i] = Level(i + 1)
	}
	return out
}

// Valid reports whether l lies in [MinLevel, MaxLevel].
func (l Level) Valid() bool {
	return l >= MinLevel && l <= MaxLevel
}

// Name returns the ICAO name of the level, e.g. "Operational" for 4.
func (l Level) Name() string {
	if !l.Valid() {
		return ""
	}
	return levelNames[l-1]
}

// Description returns the descriptor for criterion c at level l, or an
// empty string when either is out of range.
func Description(c Criterion, l Level) string {
	if !c.Valid() || !l.Valid() {
		return ""
	}
	return descriptors[c][l-1]
}

// LevelInfo is one row of the published rubric.
type LevelInfo struct {
	Level       Level  `json:"level"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CriterionInfo describes a criterion and all its levels.
type CriterionInfo struct {
	Index  int         `json:"index"`
	Label  string      `json:"label"`
	Levels []LevelInfo `json:"levels"`
}

// Describe returns the full rubric in scoring order.
func Describe() []CriterionInfo {
	out := make([]CriterionInfo, 0, CriterionCount)
	for _, c := range Criteria() {
		info := CriterionInfo{Index: int(c), Label: c.String(), Levels: make([]LevelInfo, 0, LevelCount)}
		for _, l := range Levels() {
			info.Levels = append(info.Levels, LevelInfo{Level: l, Name: l.Name(), Description: Description(c, l)})
		}
		out = append(out, info)
	}
	return out
}
