package perturb

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/viperlab/viper/embedding"
)

// ErrDistributionEmpty reports that no candidate with a positive score
// survived filtering, so nothing can be sampled.
var ErrDistributionEmpty = errors.New("perturb: distribution empty")

// FilterMode restricts which ranked neighbors become candidates.
type FilterMode int

const (
	// FilterNone keeps every neighbor.
	FilterNone FilterMode = iota
	// FilterOdd keeps neighbors at 0-based indices 1, 3, 5, ...
	FilterOdd
	// FilterEven keeps neighbors at 0-based indices 0, 2, 4, ...
	FilterEven
)

// String returns the configuration spelling of the mode.
func (m FilterMode) String() string {
	switch m {
	case FilterNone:
		return "none"
	case FilterOdd:
		return "odd"
	case FilterEven:
		return "even"
	default:
		return fmt.Sprintf("FilterMode(%d)", int(m))
	}
}

// ParseFilterMode accepts none, odd, even and the long forms odd-indices,
// even-indices.
func ParseFilterMode(s string) (FilterMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FilterNone, nil
	case "odd", "odd-indices":
		return FilterOdd, nil
	case "even", "even-indices":
		return FilterEven, nil
	}
	return FilterNone, fmt.Errorf("perturb: unknown neighbor filter %q (want none, odd or even)", s)
}

// Apply returns the neighbors selected by the mode, preserving their order.
func (m FilterMode) Apply(ns []embedding.Neighbor) []embedding.Neighbor {
	start := 0
	switch m {
	case FilterNone:
		return ns
	case FilterOdd:
		start = 1
	}
	out := make([]embedding.Neighbor, 0, len(ns)/2+1)
	for i := start; i < len(ns); i += 2 {
		out = append(out, ns[i])
	}
	return out
}

// Distribution is the sampling distribution over a character's substitution
// candidates. Candidates keep the index's ranking order; duplicates are
// passed through as-is.
type Distribution struct {
	Candidates []string
	Probs      []float64
	cdf        []float64
}

// NewDistribution normalizes neighbor scores into probabilities by dividing
// each by their sum. Negative scores count as zero. It fails with
// ErrDistributionEmpty when there are no neighbors or the scores do not sum
// to a positive value.
func NewDistribution(ns []embedding.Neighbor) (Distribution, error) {
	if len(ns) == 0 {
		return Distribution{}, ErrDistributionEmpty
	}
	cands := make([]string, len(ns))
	probs := make([]float64, len(ns))
	for i, n := range ns {
		cands[i] = n.Key
		if n.Score > 0 {
			probs[i] = n.Score
		}
	}
	sum := floats.Sum(probs)
	if !(sum > 0) {
		return Distribution{}, ErrDistributionEmpty
	}
	floats.Scale(1/sum, probs)
	cdf := make([]float64, len(probs))
	floats.CumSum(cdf, probs)
	return Distribution{Candidates: cands, Probs: probs, cdf: cdf}, nil
}

// Len returns the number of candidates.
func (d Distribution) Len() int { return len(d.Candidates) }

// Sample maps a uniform value u in [0,1) to a candidate: the first index
// whose cumulative probability exceeds u. Rounding that leaves u past the
// final cumulative value selects the last candidate with non-zero
// probability.
func (d Distribution) Sample(u float64) string {
	for i, c := range d.cdf {
		if u < c {
			return d.Candidates[i]
		}
	}
	for i := len(d.Probs) - 1; i >= 0; i-- {
		if d.Probs[i] > 0 {
			return d.Candidates[i]
		}
	}
	return ""
}
