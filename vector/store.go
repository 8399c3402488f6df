package vector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SnapshotName is the vector_storage row holding the brute-force encoding of
// the whole space.
const SnapshotName = "bruteforce"

// Match is a single row of a SQL-side similarity ranking.
type Match struct {
	Key   string
	Score float64
}

// ErrNoEmbeddings reports a database that has no embeddings table.
var ErrNoEmbeddings = errors.New("vector: no embeddings table")

// Store keeps a character embedding space in SQLite. Rows preserve the order
// in which keys appeared in the source file so that rankings with equal
// scores are stable across loads.
type Store struct {
	db        *sql.DB
	snapshots bool // vector_storage exists
}

// NewStore creates a Store over db and ensures its schema exists. It is the
// write path used by Import.
func NewStore(ctx context.Context, db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("vector: db is nil")
	}
	if err := EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("vector: ensure schema: %w", err)
	}
	return &Store{db: db, snapshots: true}, nil
}

// OpenStore wraps a database that already holds an imported space. It never
// writes to db and fails with ErrNoEmbeddings when the embeddings table is
// missing. The snapshot table is optional.
func OpenStore(ctx context.Context, db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("vector: db is nil")
	}
	tables, err := tableNames(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("vector: list tables: %w", err)
	}
	if !tables["embeddings"] {
		return nil, ErrNoEmbeddings
	}
	return &Store{db: db, snapshots: tables["vector_storage"]}, nil
}

// Import replaces the stored space with keys/vectors and, when snapshot is
// non-empty, the serialized index. Everything happens in one transaction so a
// failed import leaves the previous space intact.
func (s *Store) Import(ctx context.Context, keys []string, vectors [][]float32, snapshot []byte) error {
	if len(keys) != len(vectors) {
		return fmt.Errorf("vector: keys and vectors length mismatch: %d != %d", len(keys), len(vectors))
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM vector_storage`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO embeddings(key, position, embedding) VALUES(?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, key := range keys {
		blob, err := EncodeEmbedding(vectors[i])
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, key, i, blob); err != nil {
			return fmt.Errorf("vector: insert %q: %w", key, err)
		}
	}
	if len(snapshot) > 0 {
		if _, err := tx.ExecContext(ctx, `INSERT INTO vector_storage(name, "index") VALUES(?, ?)`, SnapshotName, snapshot); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Snapshot returns the persisted index blob, or nil when none was stored.
func (s *Store) Snapshot(ctx context.Context) ([]byte, error) {
	if !s.snapshots {
		return nil, nil
	}
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT "index" FROM vector_storage WHERE name = ?`, SnapshotName).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return blob, err
}

// LoadAll reads every key and vector in file order.
func (s *Store) LoadAll(ctx context.Context) ([]string, [][]float32, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, embedding FROM embeddings ORDER BY position`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var keys []string
	var vecs [][]float32
	for rows.Next() {
		var key string
		var blob []byte
		if err := rows.Scan(&key, &blob); err != nil {
			return nil, nil, err
		}
		vec, err := DecodeEmbedding(blob)
		if err != nil {
			return nil, nil, fmt.Errorf("vector: key %q: %w", key, err)
		}
		keys = append(keys, key)
		vecs = append(vecs, vec)
	}
	return keys, vecs, rows.Err()
}

// Embedding returns the vector stored for key; ok is false when the key is
// unknown.
func (s *Store) Embedding(ctx context.Context, key string) (vec []float32, ok bool, err error) {
	var blob []byte
	err = s.db.QueryRowContext(ctx, `SELECT embedding FROM embeddings WHERE key = ?`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	vec, err = DecodeEmbedding(blob)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// Count returns the number of stored keys.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM embeddings`).Scan(&n)
	return n, err
}

// Dim returns the dimension of the first stored vector, or 0 for an empty
// store.
func (s *Store) Dim(ctx context.Context) (int, error) {
	var size int
	err := s.db.QueryRowContext(ctx, `SELECT length(embedding) FROM embeddings ORDER BY position LIMIT 1`).Scan(&size)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return size / 4, err
}

// Nearest ranks stored vectors by cosine similarity to query using the
// vec_cosine SQL function, skipping the row whose key equals exclude and rows
// with zero magnitude. Equal scores keep file order. When k <= 0 every
// candidate is returned.
//
// vec_cosine must be registered (engine.Open does this).
func (s *Store) Nearest(ctx context.Context, query []float32, exclude string, k int) ([]Match, error) {
	blob, err := EncodeEmbedding(query)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		k = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT key, score FROM (
    SELECT key, position, vec_cosine(embedding, ?) AS score
    FROM embeddings
    WHERE key <> ?
)
WHERE score IS NOT NULL
ORDER BY score DESC, position ASC
LIMIT ?`, blob, exclude, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.Key, &m.Score); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
