// Package seeding drives a running scoring service with synthetic raters:
// it submits generated score forms concurrently over HTTP and verifies the
// aggregated statistics the service reports afterwards.
package seeding

import (
	"time"

	"github.com/okian/icaoscore/internal/domain/model"
)

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL       string        // Base URL of the service
	NumEntries    int           // Number of forms to submit
	NumRaters     int           // Number of distinct synthetic raters
	Workers       int           // Number of concurrent submitters
	Timeout       time.Duration // HTTP request timeout
	RatePerSec    float64       // Client-side submit rate; 0 is unlimited
	DuplicateRate float64       // Share of submissions re-sent with the same Idempotency-Key
	MaxRetries    int           // Retries for rate limited submissions
	TrainerKey    string        // Enables statistics verification
	Seed          uint64        // Generator seed; 0 picks one from the clock
	OutputFile    string        // Optional JSON dump of the generated forms
	Verbose       bool          // Log every submission
}

// Rater is a synthetic rater with a stable identity.
type Rater struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// Submission is one generated form.
type Submission struct {
	Key         string       `json:"idempotencyKey"`
	UserID      string       `json:"userId"`
	CandidateID string       `json:"candidateId,omitempty"`
	RaterName   string       `json:"raterName"`
	Scores      model.Scores `json:"scores"`
}

// Outcome classifies one submission.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeCreated
	OutcomeReplayed
)

// Stats holds run statistics.
type Stats struct {
	Generated     int
	Submitted     int
	Created       int
	Replayed      int
	Retried       int
	Failed        int
	BaselineCount int
	FinalCount    int
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}
