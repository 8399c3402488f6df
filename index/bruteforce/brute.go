package bruteforce

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/viant/vec/search"
)

// Index is a brute-force vector index implementing cosine similarity.
type Index struct {
	ids  []string
	vecs [][]float32
	mags []float32
	dim  int
}

// Build loads ids and vectors and precomputes magnitudes.
func (i *Index) Build(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("bruteforce: ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	if len(ids) == 0 {
		i.ids, i.vecs, i.mags, i.dim = nil, nil, nil, 0
		return nil
	}
	dim := len(vectors[0])
	mags := make([]float32, len(vectors))
	for j, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("bruteforce: inconsistent vector dims %d vs %d", len(v), dim)
		}
		mags[j] = search.Float32s(v).Magnitude()
	}
	i.ids = append([]string(nil), ids...)
	i.vecs = append([][]float32(nil), vectors...)
	i.dim = dim
	i.mags = mags
	return nil
}

// Len returns the number of indexed vectors.
func (i *Index) Len() int { return len(i.ids) }

// Query returns top-k by cosine similarity. Zero-magnitude vectors are never
// returned; ties keep build order.
func (i *Index) Query(query []float32, k int) ([]string, []float64, error) {
	if i.dim == 0 || len(i.vecs) == 0 {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("bruteforce: query dim %d != index dim %d", len(query), i.dim)
	}
	q := search.Float32s(query)
	if q.Magnitude() == 0 {
		return nil, nil, nil
	}
	type scored struct {
		idx   int
		score float64
	}
	scoreds := make([]scored, 0, len(i.vecs))
	for j, v := range i.vecs {
		if i.mags[j] == 0 {
			continue
		}
		s := 1 - float64(q.CosineDistance(v))
		if math.IsNaN(s) {
			continue
		}
		scoreds = append(scoreds, scored{idx: j, score: s})
	}
	sort.SliceStable(scoreds, func(a, b int) bool { return scoreds[a].score > scoreds[b].score })
	if k <= 0 || k > len(scoreds) {
		k = len(scoreds)
	}
	outIDs := make([]string, k)
	outScores := make([]float64, k)
	for n := 0; n < k; n++ {
		outIDs[n] = i.ids[scoreds[n].idx]
		outScores[n] = scoreds[n].score
	}
	return outIDs, outScores, nil
}

// MarshalBinary stores: dim(uint32), n(uint32), then for each item:
// idLen(uint32), id bytes, vec(float32[dim]). All integers little-endian.
func (i *Index) MarshalBinary() ([]byte, error) {
	size := 8
	for _, id := range i.ids {
		size += 4 + len(id) + 4*i.dim
	}
	out := make([]byte, 0, size)
	out = binary.LittleEndian.AppendUint32(out, uint32(i.dim))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(i.ids)))
	for idx, id := range i.ids {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(id)))
		out = append(out, id...)
		for _, f := range i.vecs[idx] {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
	}
	return out, nil
}

// UnmarshalBinary restores the index from bytes.
func (i *Index) UnmarshalBinary(data []byte) error {
	ids, vecs, err := Decode(data)
	if err != nil {
		return err
	}
	return i.Build(ids, vecs)
}

// Decode parses the MarshalBinary format without building an index, for
// callers that need the raw ids and vectors.
func Decode(data []byte) ([]string, [][]float32, error) {
	if len(data) < 8 {
		return nil, nil, errors.New("bruteforce: invalid data")
	}
	off := 0
	u32 := func() (uint32, bool) {
		if off+4 > len(data) {
			return 0, false
		}
		v := binary.LittleEndian.Uint32(data[off:])
		off += 4
		return v, true
	}
	d, _ := u32()
	n, _ := u32()
	dim, count := int(d), int(n)
	if count > 0 && count > (len(data)-8)/(4+4*dim) {
		return nil, nil, fmt.Errorf("bruteforce: %d entries of dim %d do not fit in %d bytes", count, dim, len(data))
	}
	ids := make([]string, 0, count)
	vecs := make([][]float32, 0, count)
	for idx := 0; idx < count; idx++ {
		idlen, ok := u32()
		if !ok {
			return nil, nil, errors.New("bruteforce: truncated")
		}
		if off+int(idlen) > len(data) {
			return nil, nil, errors.New("bruteforce: truncated id")
		}
		ids = append(ids, string(data[off:off+int(idlen)]))
		off += int(idlen)
		vec := make([]float32, dim)
		for j := range vec {
			bits, ok := u32()
			if !ok {
				return nil, nil, errors.New("bruteforce: truncated vec")
			}
			vec[j] = math.Float32frombits(bits)
		}
		vecs = append(vecs, vec)
	}
	return ids, vecs, nil
}
