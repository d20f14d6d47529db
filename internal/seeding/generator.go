package seeding

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/okian/icaoscore/internal/domain/model"
	"github.com/okian/icaoscore/internal/domain/rubric"
)

// Generator produces reproducible raters and forms.
type Generator struct {
	faker *gofakeit.Faker
	seed  uint64
}

// NewGenerator returns a generator for seed. A zero seed uses the clock.
func NewGenerator(seed uint64) *Generator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Generator{faker: gofakeit.New(seed), seed: seed}
}

// Seed returns the seed in use.
func (g *Generator) Seed() uint64 { return g.seed }

// Raters creates count raters with unique user ids.
func (g *Generator) Raters(count int) []Rater {
	raters := make([]Rater, count)
	for i := range raters {
		raters[i] = Rater{UserID: uuid.NewString(), Name: g.faker.Name()}
	}
	return raters
}

// Submissions creates count forms spread over raters. Each rater scores
// around a personal level so distributions are not uniform.
func (g *Generator) Submissions(raters []Rater, count int) []Submission {
	if len(raters) == 0 {
		return nil
	}
	bias := make([]int, len(raters))
	for i := range bias {
		bias[i] = g.faker.Number(int(rubric.MinLevel)+1, int(rubric.MaxLevel)-1)
	}

	out := make([]Submission, count)
	for i := range out {
		r := g.faker.Number(0, len(raters)-1)
		out[i] = Submission{
			Key:         uuid.NewString(),
			UserID:      raters[r].UserID,
			CandidateID: g.candidateID(),
			RaterName:   raters[r].Name,
			Scores:      g.scores(bias[r]),
		}
	}
	return out
}

// candidateID leaves roughly one in five forms without a candidate.
func (g *Generator) candidateID() string {
	if g.faker.Number(1, 5) == 1 {
		return ""
	}
	return fmt.Sprintf("CAND-%s", g.faker.Numerify("####"))
}

func (g *Generator) scores(base int) model.Scores {
	var s model.Scores
	for i := range s {
		v := base + g.faker.Number(-1, 1)
		s[i] = min(max(v, int(rubric.MinLevel)), int(rubric.MaxLevel))
	}
	return s
}
