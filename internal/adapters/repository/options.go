package repository

import (
	"time"

	"github.com/okian/icaoscore/internal/domain/model"
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithIDGenerator overrides how entry ids are assigned.
func WithIDGenerator(gen func() string) Option {
	return func(s *MemoryStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithEntries preloads the store with entries.
func WithEntries(entries ...model.Entry) Option {
	return func(s *MemoryStore) {
		next := append(s.Snapshot()[:0:0], entries...)
		s.snapshot.Store(&next)
	}
}

// PostgresOption applies a configuration option to the PostgresStore.
type PostgresOption func(*PostgresStore)

// WithPollInterval sets how often the table is polled for changes made by
// other processes.
func WithPollInterval(interval time.Duration) PostgresOption {
	return func(s *PostgresStore) {
		if interval > 0 {
			s.pollInterval = interval
		}
	}
}

// WithPostgresIDGenerator overrides how entry ids are assigned.
func WithPostgresIDGenerator(gen func() string) PostgresOption {
	return func(s *PostgresStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}
