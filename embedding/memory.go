package embedding

import (
	"context"
	"fmt"

	"github.com/viperlab/viper/index"
)

// Memory is a Space held in memory and queried through an index.Index.
type Memory struct {
	keys []string
	pos  map[string]int
	vecs [][]float32
	dim  int
	idx  index.Index
}

// NewMemory builds a Memory space over keys/vectors, which must already be
// free of duplicate keys.
func NewMemory(keys []string, vectors [][]float32, kind index.Kind) (*Memory, error) {
	idx, err := index.New(kind)
	if err != nil {
		return nil, err
	}
	if err := idx.Build(keys, vectors); err != nil {
		return nil, fmt.Errorf("embedding: build %s index: %w", kind, err)
	}
	pos := make(map[string]int, len(keys))
	for i, k := range keys {
		if _, dup := pos[k]; dup {
			return nil, fmt.Errorf("embedding: duplicate key %q", k)
		}
		pos[k] = i
	}
	m := &Memory{keys: keys, pos: pos, vecs: vectors, idx: idx}
	if len(vectors) > 0 {
		m.dim = len(vectors[0])
	}
	return m, nil
}

// Nearest implements Space.
func (m *Memory) Nearest(_ context.Context, key string, n int) ([]Neighbor, error) {
	i, ok := m.pos[key]
	if !ok {
		return nil, ErrNotFound
	}
	k := n
	if k > 0 {
		k++ // room for the key itself
	}
	ids, scores, err := m.idx.Query(m.vecs[i], k)
	if err != nil {
		return nil, err
	}
	out := make([]Neighbor, 0, len(ids))
	for j, id := range ids {
		if id == key {
			continue
		}
		out = append(out, Neighbor{Key: id, Score: scores[j]})
	}
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Snapshot serializes the underlying index.
func (m *Memory) Snapshot() ([]byte, error) { return m.idx.MarshalBinary() }

// Len implements Space.
func (m *Memory) Len() int { return len(m.keys) }

// Dim implements Space.
func (m *Memory) Dim() int { return m.dim }

// Close implements Space.
func (m *Memory) Close() error { return nil }
