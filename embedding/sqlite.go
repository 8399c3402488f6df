package embedding

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viperlab/viper/vector"
)

// SQLite is a Space that ranks neighbors inside SQLite with vec_cosine
// instead of loading vectors into memory. It suits spaces too large to hold
// in memory; each query scans the embeddings table.
type SQLite struct {
	db    *sql.DB
	store *vector.Store
	n     int
	dim   int
}

// NewSQLite wraps an opened database holding an imported space. The
// database is only read.
func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	store, n, err := openSpaceStore(ctx, db, "database")
	if err != nil {
		return nil, err
	}
	return newSQLite(ctx, db, store, n)
}

func newSQLite(ctx context.Context, db *sql.DB, store *vector.Store, n int) (*SQLite, error) {
	dim, err := store.Dim(ctx)
	if err != nil {
		return nil, fmt.Errorf("embedding: dim: %w", err)
	}
	return &SQLite{db: db, store: store, n: n, dim: dim}, nil
}

// Nearest implements Space.
func (s *SQLite) Nearest(ctx context.Context, key string, n int) ([]Neighbor, error) {
	vec, ok, err := s.store.Embedding(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	if vector.IsZero(vec) {
		return nil, nil
	}
	matches, err := s.store.Nearest(ctx, vec, key, n)
	if err != nil {
		return nil, fmt.Errorf("embedding: nearest %q: %w", key, err)
	}
	out := make([]Neighbor, len(matches))
	for i, m := range matches {
		out[i] = Neighbor{Key: m.Key, Score: m.Score}
	}
	return out, nil
}

// Len implements Space.
func (s *SQLite) Len() int { return s.n }

// Dim implements Space.
func (s *SQLite) Dim() int { return s.dim }

// Close implements Space.
func (s *SQLite) Close() error { return s.db.Close() }
