package service

import (
	"time"

	"github.com/okian/icaoscore/internal/adapters/repository"
	"github.com/okian/icaoscore/internal/export"
	"github.com/okian/icaoscore/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the entry store. Defaults to an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLocation sets the time zone used for exported timestamps.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDedupeSize sets the size of the idempotency key cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxStreamListeners caps concurrent live stream listeners.
func WithMaxStreamListeners(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxListeners = n
		}
	}
}

// WithBulkDeleteConcurrency caps in-flight deletes of one bulk delete.
// Zero or negative leaves it unbounded.
func WithBulkDeleteConcurrency(n int) Option {
	return func(s *Service) {
		s.bulkConcurrency = n
	}
}

// WithChartPalette sets the colors of rendered charts.
func WithChartPalette(p export.ChartPalette) Option {
	return func(s *Service) {
		s.palette = p
	}
}
