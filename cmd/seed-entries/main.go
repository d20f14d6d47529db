package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/icaoscore/internal/seeding"
)

// Default configuration constants.
const (
	defaultNumEntries    = 500
	defaultNumRaters     = 25
	defaultWorkers       = 2 // multiplier for runtime.NumCPU()
	defaultDuplicateRate = 0.1
	defaultMaxRetries    = 20
	defaultTimeout       = 10 * time.Second
	defaultRunTimeout    = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numEntries = flag.Int("entries", defaultNumEntries, "Number of forms to submit")
		numRaters  = flag.Int("raters", defaultNumRaters, "Number of synthetic raters")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		ratePerSec = flag.Float64("rate", 0, "Client-side submissions per second, 0 for unlimited")
		duplicates = flag.Float64("duplicates", defaultDuplicateRate, "Share of forms re-sent with the same Idempotency-Key")
		retries    = flag.Int("retries", defaultMaxRetries, "Retries for rate limited forms")
		key        = flag.String("key", os.Getenv("ICAO_TRAINER_KEY"), "Trainer key; enables verification")
		seed       = flag.Uint64("seed", 0, "Generator seed, 0 for random")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Write the generated forms to this JSON file")
		logFile    = flag.String("log", "", "Also write logs to this file")
		verbose    = flag.Bool("verbose", false, "Log every submission")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seeding.ShowHelp()
		return
	}

	if err := seeding.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &seeding.Config{
		BaseURL:       *baseURL,
		NumEntries:    *numEntries,
		NumRaters:     *numRaters,
		Workers:       *workers,
		Timeout:       *timeout,
		RatePerSec:    *ratePerSec,
		DuplicateRate: *duplicates,
		MaxRetries:    *retries,
		TrainerKey:    *key,
		Seed:          *seed,
		OutputFile:    *outputFile,
		Verbose:       *verbose,
	}

	if _, err := seeding.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Seeding failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
