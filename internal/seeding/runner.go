package seeding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/icaoscore/internal/domain/aggregate"
	"github.com/okian/icaoscore/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// PercentageMultiplier converts ratios to percentages.
const PercentageMultiplier = 100

// Run executes a complete seeding run.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	gen := NewGenerator(cfg.Seed)
	log.Info(ctx, "starting seeding run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("entries", cfg.NumEntries),
		logger.Int("raters", cfg.NumRaters),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", gen.Seed()),
		logger.Bool("verify", cfg.TrainerKey != ""))

	c := newHTTPClient(cfg.BaseURL, cfg.TrainerKey, cfg.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, c); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Record the baseline
	var baseline aggregate.Summary
	if cfg.TrainerKey != "" {
		s, err := fetchSummary(ctx, c)
		if err != nil {
			return stats, fmt.Errorf("baseline stats: %w", err)
		}
		baseline = s
		stats.BaselineCount = s.Count
	}

	// Step 3: Generate raters and forms
	raters := gen.Raters(max(1, cfg.NumRaters))
	subs := withDuplicates(gen, gen.Submissions(raters, cfg.NumEntries), cfg.DuplicateRate)
	stats.Generated = len(subs)

	// Step 4: Submit concurrently
	outcomes := submitAll(ctx, cfg, c, subs, stats)

	// Step 5: Verify aggregated statistics
	if cfg.TrainerKey == "" {
		log.Warn(ctx, "no trainer key; skipping statistics verification")
	} else {
		final, err := fetchSummary(ctx, c)
		if err != nil {
			return stats, fmt.Errorf("final stats: %w", err)
		}
		stats.FinalCount = final.Count
		if err := verifyResults(ctx, c, baseline, final, createdEntries(subs, outcomes), raters); err != nil {
			return stats, err
		}
	}

	// Step 6: Save forms to file
	if cfg.OutputFile != "" {
		if err := saveSubmissions(ctx, cfg.OutputFile, subs); err != nil {
			log.Warn(ctx, "failed to save submissions", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, c *httpClient) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", "", nil, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.status != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.status)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveSubmissions writes the generated forms as a JSON array.
func saveSubmissions(ctx context.Context, filename string, subs []Submission) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal submissions: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	logger.Get().Info(ctx, "submissions saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, perSecond float64
	if stats.Submitted > 0 {
		successRate = float64(stats.Created+stats.Replayed) / float64(stats.Submitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("created", stats.Created),
		logger.Int("replayed", stats.Replayed),
		logger.Int("retried", stats.Retried),
		logger.Int("failed", stats.Failed),
		logger.Int("baselineCount", stats.BaselineCount),
		logger.Int("finalCount", stats.FinalCount),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("submissionsPerSecond", perSecond))
}
