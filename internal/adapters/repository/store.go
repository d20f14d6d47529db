// Package repository defines the live entry store interface and its
// in-memory and Postgres implementations.
package repository

import (
	"context"

	"github.com/okian/icaoscore/internal/domain/model"
)

// Listener receives full snapshots of the entry collection. Snapshots are
// shared between listeners and must not be modified.
type Listener func(entries []model.Entry)

// Store provides live read access and write access to score entries.
type Store interface {
	// Subscribe registers l and delivers the current snapshot to it before
	// returning, then again after every change. The returned func detaches
	// l, waiting for an in-progress delivery, and is safe to call more than
	// once. It must not be called from inside l.
	Subscribe(ctx context.Context, l Listener) (func(), error)

	// Create persists a draft and returns the identifier assigned to it.
	Create(ctx context.Context, d model.Draft) (string, error)

	// DeleteByID removes an entry. Deleting an unknown id succeeds.
	DeleteByID(ctx context.Context, id string) error

	// Close releases resources and detaches every listener.
	Close() error
}
