package embedding

import (
	"context"
	"errors"
)

// ErrNotFound reports that a key has no vector in the space.
var ErrNotFound = errors.New("embedding: key not found")

// Neighbor is one nearest-neighbor result.
type Neighbor struct {
	Key   string
	Score float64
}

// Space is a read-only embedding space.
type Space interface {
	// Nearest returns up to n neighbors of key ordered by descending
	// similarity, excluding key itself. It fails with ErrNotFound when key
	// has no vector. When n <= 0 every neighbor is returned.
	Nearest(ctx context.Context, key string, n int) ([]Neighbor, error)

	// Len returns the number of keys.
	Len() int

	// Dim returns the vector dimension.
	Dim() int

	// Close releases resources held by the space.
	Close() error
}
