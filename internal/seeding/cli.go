package seeding

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/icaoscore/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging initializes the global logger, writing to stdout and, when
// logFile is set, to that file too.
func SetupLogging(logFile string, verbose bool) error {
	var out io.Writer = os.Stdout
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
	}
	if err := logger.Init(logger.WithOutput(out)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the seeding tool.
func ShowHelp() {
	os.Stdout.WriteString(`ICAO Seeding Tool
=================

Submits synthetic rater forms to a running scoring service and verifies
the statistics it reports.

Usage:
  go run ./cmd/seed-entries [options]

Options:
  -url string         Base URL of the service (default "http://localhost:9080")
  -entries int        Number of forms to submit (default 500)
  -raters int         Number of synthetic raters (default 25)
  -workers int        Number of concurrent submitters (default CPU cores * 2)
  -rate float         Client-side submissions per second, 0 for unlimited
  -duplicates float   Share of forms re-sent with the same Idempotency-Key (default 0.1)
  -retries int        Retries for rate limited forms (default 20)
  -key string         Trainer key; enables verification (default $ICAO_TRAINER_KEY)
  -seed uint          Generator seed, 0 for random
  -timeout duration   HTTP request timeout (default 10s)
  -output string      Write the generated forms to this JSON file
  -log string         Also write logs to this file
  -verbose            Log every submission
  -help               Show this help message

Examples:
  # Seed and verify against a local service
  ICAO_TRAINER_KEY=secret go run ./cmd/seed-entries -entries 2000

  # Reproducible run
  go run ./cmd/seed-entries -seed 42 -output forms.json
`)
}
