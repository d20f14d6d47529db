package seeding

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/icaoscore/internal/domain/aggregate"
	"github.com/okian/icaoscore/internal/domain/model"
	"github.com/okian/icaoscore/internal/domain/rubric"
	"github.com/okian/icaoscore/pkg/logger"
)

// ErrVerification reports that the service's statistics disagree with
// what was submitted.
var ErrVerification = errors.New("verification failed")

type entriesBody struct {
	Count int `json:"count"`
}

// fetchSummary reads /stats as trainer.
func fetchSummary(ctx context.Context, c *httpClient) (aggregate.Summary, error) {
	return getJSON[aggregate.Summary](ctx, c, c.trainerPath("/stats"), "")
}

// createdEntries returns the submissions that created an entry.
func createdEntries(subs []Submission, outcomes []Outcome) []model.Entry {
	seen := make(map[string]bool, len(subs))
	var out []model.Entry
	for i, sub := range subs {
		if outcomes[i] != OutcomeCreated || seen[sub.Key] {
			continue
		}
		seen[sub.Key] = true
		out = append(out, model.Entry{
			ID:          sub.Key,
			CandidateID: sub.CandidateID,
			RaterName:   sub.RaterName,
			Scores:      sub.Scores,
			UserID:      sub.UserID,
		})
	}
	return out
}

// verifyResults checks that the summary grew by exactly the created
// entries, criterion by criterion, and that a rater sees only their own.
func verifyResults(ctx context.Context, c *httpClient, baseline, final aggregate.Summary, created []model.Entry, raters []Rater) error {
	log := logger.Get()
	log.Info(ctx, "verifying results")

	if got, want := final.Count-baseline.Count, len(created); got != want {
		return fmt.Errorf("%w: entry count grew by %d, want %d", ErrVerification, got, want)
	}

	if len(final.Criteria) != rubric.CriterionCount || len(baseline.Criteria) != rubric.CriterionCount {
		return fmt.Errorf("%w: summary lists %d criteria", ErrVerification, len(final.Criteria))
	}
	for _, cr := range rubric.Criteria() {
		want := aggregate.Distribution(created, cr)
		var got aggregate.Histogram
		for i := range got {
			got[i] = final.Criteria[cr].Distribution[i] - baseline.Criteria[cr].Distribution[i]
		}
		if got != want {
			return fmt.Errorf("%w: %s distribution grew by %v, want %v", ErrVerification, cr, got, want)
		}
		if total := final.Criteria[cr].Distribution.Total(); total != final.Count {
			return fmt.Errorf("%w: %s distribution sums to %d of %d entries", ErrVerification, cr, total, final.Count)
		}
	}

	wantOverall := aggregate.OverallDistribution(created)
	for i := range wantOverall {
		if got := final.OverallDistribution[i] - baseline.OverallDistribution[i]; got != wantOverall[i] {
			return fmt.Errorf("%w: overall level %d grew by %d, want %d", ErrVerification, i+1, got, wantOverall[i])
		}
	}

	if len(raters) > 0 {
		r := raters[0]
		want := 0
		for _, e := range created {
			if e.UserID == r.UserID {
				want++
			}
		}
		body, err := getJSON[entriesBody](ctx, c, "/entries", r.UserID)
		if err != nil {
			return err
		}
		if body.Count != want {
			return fmt.Errorf("%w: rater %s sees %d entries, want %d", ErrVerification, r.UserID, body.Count, want)
		}
	}

	log.Info(ctx, "result verification completed")
	return nil
}
