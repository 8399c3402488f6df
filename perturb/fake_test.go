package perturb

import (
	"context"

	"github.com/viperlab/viper/embedding"
)

type fakeSpace struct {
	neighbors map[string][]embedding.Neighbor
	calls     map[string]int
	err       error
}

func newFakeSpace(neighbors map[string][]embedding.Neighbor) *fakeSpace {
	return &fakeSpace{neighbors: neighbors, calls: map[string]int{}}
}

func (f *fakeSpace) Nearest(_ context.Context, key string, n int) ([]embedding.Neighbor, error) {
	f.calls[key]++
	if f.err != nil {
		return nil, f.err
	}
	ns, ok := f.neighbors[key]
	if !ok {
		return nil, embedding.ErrNotFound
	}
	if n > 0 && len(ns) > n {
		ns = ns[:n]
	}
	return ns, nil
}

func (f *fakeSpace) Len() int     { return len(f.neighbors) }
func (f *fakeSpace) Dim() int     { return 2 }
func (f *fakeSpace) Close() error { return nil }

func nb(pairs ...any) []embedding.Neighbor {
	out := make([]embedding.Neighbor, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, embedding.Neighbor{Key: pairs[i].(string), Score: pairs[i+1].(float64)})
	}
	return out
}
