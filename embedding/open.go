package embedding

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/viperlab/viper/engine"
	"github.com/viperlab/viper/index"
	"github.com/viperlab/viper/index/bruteforce"
	"github.com/viperlab/viper/vector"
)

// IndexSQL selects the SQLite-side ranking instead of an in-memory index.
const IndexSQL = "sql"

// Options controls how Open loads a space.
type Options struct {
	// Index is "brute" (default), "vp" or "sql". "sql" requires a SQLite
	// space file.
	Index string
	// Logger receives load diagnostics; nil discards them.
	Logger *slog.Logger
}

// IsSQLitePath reports whether path names a SQLite file by extension.
func IsSQLitePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sqlite", ".sqlite3", ".db":
		return true
	}
	return false
}

// Open loads the space stored at path. Files ending in .sqlite, .sqlite3 or
// .db are read as SQLite spaces written by Import; anything else is parsed as
// text word2vec.
func Open(ctx context.Context, path string, opts Options) (Space, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}
	if IsSQLitePath(path) {
		return openSQLite(ctx, path, opts.Index, logger)
	}
	if opts.Index == IndexSQL {
		return nil, fmt.Errorf("embedding: index %q needs a SQLite space, got %s", IndexSQL, path)
	}
	kind, err := index.ParseKind(opts.Index)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}
	defer f.Close()
	vs, err := ReadWord2Vec(f)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	if len(vs.Duplicates) > 0 {
		logger.Warn("duplicate embedding keys ignored", "path", path, "count", len(vs.Duplicates))
	}
	m, err := NewMemory(vs.Keys, vs.Vectors, kind)
	if err != nil {
		return nil, err
	}
	logger.Info("embedding space loaded", "path", path, "keys", m.Len(), "dim", m.Dim(), "index", kind)
	return m, nil
}

func openSQLite(ctx context.Context, path, indexName string, logger *slog.Logger) (Space, error) {
	var kind index.Kind
	if indexName != IndexSQL {
		var err error
		if kind, err = index.ParseKind(indexName); err != nil {
			return nil, err
		}
	}
	db, err := engine.OpenReadOnly(path)
	if err != nil {
		return nil, fmt.Errorf("embedding: open %s: %w", path, err)
	}
	store, n, err := openSpaceStore(ctx, db, path)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if indexName == IndexSQL {
		s, err := newSQLite(ctx, db, store, n)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("embedding space opened", "path", path, "keys", s.Len(), "dim", s.Dim(), "index", IndexSQL)
		return s, nil
	}
	defer db.Close()

	snap, err := store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("embedding: read snapshot: %w", err)
	}
	var keys []string
	var vecs [][]float32
	if len(snap) > 0 {
		keys, vecs, err = bruteforce.Decode(snap)
	} else {
		keys, vecs, err = store.LoadAll(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("embedding: load %s: %w", path, err)
	}
	m, err := NewMemory(keys, vecs, kind)
	if err != nil {
		return nil, err
	}
	logger.Info("embedding space loaded", "path", path, "keys", m.Len(), "dim", m.Dim(), "index", kind, "snapshot", len(snap) > 0)
	return m, nil
}

// openSpaceStore checks that db holds a non-empty imported space and returns
// its store and key count.
func openSpaceStore(ctx context.Context, db *sql.DB, path string) (*vector.Store, int, error) {
	store, err := vector.OpenStore(ctx, db)
	if errors.Is(err, vector.ErrNoEmbeddings) {
		return nil, 0, fmt.Errorf("embedding: %s is not an embedding space", path)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("embedding: open %s: %w", path, err)
	}
	n, err := store.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("embedding: %s is not an embedding space: %w", path, err)
	}
	if n == 0 {
		return nil, 0, fmt.Errorf("embedding: %s is not an embedding space: no embeddings", path)
	}
	return store, n, nil
}

// Import parses a text word2vec space from src and writes it into the SQLite
// file at dbPath, replacing any space stored there. It returns the number of
// keys written and the duplicate keys that were dropped.
func Import(ctx context.Context, src io.Reader, dbPath string) (int, []string, error) {
	vs, err := ReadWord2Vec(src)
	if err != nil {
		return 0, nil, err
	}
	bf := &bruteforce.Index{}
	if err := bf.Build(vs.Keys, vs.Vectors); err != nil {
		return 0, nil, err
	}
	snap, err := bf.MarshalBinary()
	if err != nil {
		return 0, nil, err
	}
	db, err := engine.Open(dbPath)
	if err != nil {
		return 0, nil, fmt.Errorf("embedding: open %s: %w", dbPath, err)
	}
	defer db.Close()
	store, err := vector.NewStore(ctx, db)
	if err != nil {
		return 0, nil, err
	}
	if err := store.Import(ctx, vs.Keys, vs.Vectors, snap); err != nil {
		return 0, nil, fmt.Errorf("embedding: import into %s: %w", dbPath, err)
	}
	return len(vs.Keys), vs.Duplicates, nil
}
