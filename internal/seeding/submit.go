package seeding

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/okian/icaoscore/internal/adapters/http/api"
	"github.com/okian/icaoscore/pkg/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// retryBackoff is the wait before re-sending a rate limited submission.
const retryBackoff = 500 * time.Millisecond

type submitBody struct {
	CandidateID string `json:"candidateId,omitempty"`
	RaterName   string `json:"raterName"`
	Scores      []int  `json:"scores"`
}

// submitAll posts every submission with a bounded worker pool and returns
// the outcome per submission index.
func submitAll(ctx context.Context, cfg *Config, c *httpClient, subs []Submission, stats *Stats) []Outcome {
	log := logger.Get()
	log.Info(ctx, "submitting forms", logger.Int("count", len(subs)), logger.Int("workers", cfg.Workers))

	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), max(1, cfg.Workers))
	}

	var submitted, created, replayed, retried, failed atomic.Int64
	outcomes := make([]Outcome, len(subs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, cfg.Workers))
	for i, sub := range subs {
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
			}
			out, retries := submitOne(gctx, cfg, c, sub)
			outcomes[i] = out
			submitted.Add(1)
			retried.Add(int64(retries))
			switch out {
			case OutcomeCreated:
				created.Add(1)
			case OutcomeReplayed:
				replayed.Add(1)
			default:
				failed.Add(1)
			}
			if cfg.Verbose {
				log.Debug(gctx, "submitted form", logger.String("key", sub.Key), logger.Int("outcome", int(out)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn(ctx, "submission stopped early", logger.Error(err))
	}

	stats.Submitted = int(submitted.Load())
	stats.Created = int(created.Load())
	stats.Replayed = int(replayed.Load())
	stats.Retried = int(retried.Load())
	stats.Failed = int(failed.Load())

	log.Info(ctx, "form submission completed",
		logger.Int("created", stats.Created),
		logger.Int("replayed", stats.Replayed),
		logger.Int("retried", stats.Retried),
		logger.Int("failed", stats.Failed))
	return outcomes
}

// submitOne posts sub, retrying while the service rate limits the rater.
// The Idempotency-Key makes retries safe.
func submitOne(ctx context.Context, cfg *Config, c *httpClient, sub Submission) (Outcome, int) {
	body := submitBody{CandidateID: sub.CandidateID, RaterName: sub.RaterName, Scores: sub.Scores[:]}
	header := http.Header{}
	header.Set(api.IdempotencyKeyHeader, sub.Key)

	retries := 0
	for {
		resp, err := c.do(ctx, http.MethodPost, "/entries", sub.UserID, header, body)
		if err != nil {
			return OutcomeFailed, retries
		}
		switch resp.status {
		case http.StatusCreated:
			return OutcomeCreated, retries
		case http.StatusOK:
			return OutcomeReplayed, retries
		case http.StatusTooManyRequests, http.StatusConflict:
			if retries >= cfg.MaxRetries {
				return OutcomeFailed, retries
			}
			retries++
			select {
			case <-ctx.Done():
				return OutcomeFailed, retries
			case <-time.After(retryBackoff):
			}
		default:
			return OutcomeFailed, retries
		}
	}
}

// withDuplicates appends re-sends of a share of subs, keeping their keys.
func withDuplicates(g *Generator, subs []Submission, share float64) []Submission {
	if share <= 0 || len(subs) == 0 {
		return subs
	}
	n := int(float64(len(subs)) * min(share, 1))
	out := make([]Submission, len(subs), len(subs)+n)
	copy(out, subs)
	for range n {
		out = append(out, subs[g.faker.Number(0, len(subs)-1)])
	}
	return out
}
