package cover

import (
	"container/heap"
	"errors"
	"math"
	"sort"

	"github.com/viant/vec/search"

	"github.com/viperlab/viper/index/bruteforce"
)

// Index implements a cosine kNN index using a VP-tree to prune search.
type Index struct {
	ids  []string
	vecs [][]float32
	mags []float32
	dim  int
	root *node
}

// slack widens the pruning bound to absorb float32 rounding in the distance
// computations, so exact ties are never pruned.
const slack = 1e-3

type node struct {
	idx   int // index into ids/vecs
	thr   float64
	left  *node // chord distance to the vantage point <= thr
	right *node
}

// Build constructs the VP-tree. Zero-magnitude vectors are kept for
// persistence but left out of the tree since they have no direction.
func (i *Index) Build(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return errors.New("cover: ids/vectors length mismatch")
	}
	i.ids = append([]string(nil), ids...)
	i.vecs = append([][]float32(nil), vectors...)
	i.mags = make([]float32, len(vectors))
	i.root = nil
	if len(vectors) == 0 {
		i.dim = 0
		return nil
	}
	i.dim = len(vectors[0])
	idxs := make([]int, 0, len(vectors))
	for j, v := range vectors {
		if len(v) != i.dim {
			return errors.New("cover: inconsistent dims")
		}
		i.mags[j] = search.Float32s(v).Magnitude()
		if i.mags[j] != 0 {
			idxs = append(idxs, j)
		}
	}
	i.root = i.buildVP(idxs)
	return nil
}

// buildVP takes the last index as vantage point so construction stays
// deterministic.
func (i *Index) buildVP(idxs []int) *node {
	if len(idxs) == 0 {
		return nil
	}
	vp := idxs[len(idxs)-1]
	rest := idxs[:len(idxs)-1]
	if len(rest) == 0 {
		return &node{idx: vp}
	}
	dists := make(map[int]float64, len(rest))
	for _, j := range rest {
		dists[j] = chord(i.similarity(i.vecs[vp], j))
	}
	order := append([]int(nil), rest...)
	sort.SliceStable(order, func(a, b int) bool { return dists[order[a]] < dists[order[b]] })
	mid := len(order) / 2
	left := append([]int(nil), order[:mid+1]...)
	right := append([]int(nil), order[mid+1:]...)
	// Children keep ascending id order so their own vantage choice does not
	// depend on distance ranking.
	sort.Ints(left)
	sort.Ints(right)
	return &node{
		idx:   vp,
		thr:   dists[order[mid]],
		left:  i.buildVP(left),
		right: i.buildVP(right),
	}
}

// Query returns up to k ids ordered by decreasing cosine similarity; equal
// scores keep build order.
func (i *Index) Query(query []float32, k int) ([]string, []float64, error) {
	if i.dim == 0 || i.root == nil {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, errors.New("cover: query dim mismatch")
	}
	if search.Float32s(query).Magnitude() == 0 {
		return nil, nil, nil
	}
	limit := k
	if limit <= 0 || limit > len(i.ids) {
		limit = len(i.ids)
	}
	h := &worstFirst{}
	bound := func() float64 {
		if h.Len() < limit {
			return math.Inf(1)
		}
		return (*h)[0].dist + slack
	}
	var visit func(n *node)
	visit = func(n *node) {
		if n == nil {
			return
		}
		sim := i.similarity(query, n.idx)
		d := chord(sim)
		c := candidate{idx: n.idx, sim: sim, dist: d}
		if h.Len() < limit {
			heap.Push(h, c)
		} else if c.better((*h)[0]) {
			(*h)[0] = c
			heap.Fix(h, 0)
		}
		if d <= n.thr {
			if d-n.thr <= bound() {
				visit(n.left)
			}
			if n.thr-d <= bound() {
				visit(n.right)
			}
		} else {
			if n.thr-d <= bound() {
				visit(n.right)
			}
			if d-n.thr <= bound() {
				visit(n.left)
			}
		}
	}
	visit(i.root)

	out := make([]candidate, h.Len())
	copy(out, *h)
	sort.Slice(out, func(a, b int) bool { return out[a].better(out[b]) })
	ids := make([]string, len(out))
	scores := make([]float64, len(out))
	for n, c := range out {
		ids[n] = i.ids[c.idx]
		scores[n] = c.sim
	}
	return ids, scores, nil
}

// MarshalBinary uses the brute-force format for persistence.
func (i *Index) MarshalBinary() ([]byte, error) {
	bf := &bruteforce.Index{}
	if err := bf.Build(i.ids, i.vecs); err != nil {
		return nil, err
	}
	return bf.MarshalBinary()
}

// UnmarshalBinary loads the brute-force format and rebuilds the VP-tree.
func (i *Index) UnmarshalBinary(data []byte) error {
	ids, vecs, err := bruteforce.Decode(data)
	if err != nil {
		return err
	}
	return i.Build(ids, vecs)
}

func (i *Index) similarity(v []float32, j int) float64 {
	return 1 - float64(search.Float32s(v).CosineDistance(i.vecs[j]))
}

// chord maps cosine similarity to the Euclidean distance between the two
// unit vectors.
func chord(sim float64) float64 {
	return math.Sqrt(math.Max(0, 2-2*sim))
}

type candidate struct {
	idx  int
	sim  float64
	dist float64
}

func (c candidate) better(o candidate) bool {
	if c.sim != o.sim {
		return c.sim > o.sim
	}
	return c.idx < o.idx
}

// worstFirst is a heap whose root is the weakest kept candidate.
type worstFirst []candidate

func (h worstFirst) Len() int           { return len(h) }
func (h worstFirst) Less(a, b int) bool { return h[b].better(h[a]) }
func (h worstFirst) Swap(a, b int)      { h[a], h[b] = h[b], h[a] }
func (h *worstFirst) Push(x any)        { *h = append(*h, x.(candidate)) }
func (h *worstFirst) Pop() any {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}
