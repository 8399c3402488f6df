package perturb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestNewDistribution(t *testing.T) {
	d, err := NewDistribution(nb("α", 0.9, "4", 0.1))
	require.NoError(t, err)
	assert.Equal(t, []string{"α", "4"}, d.Candidates)
	assert.InDeltaSlice(t, []float64{0.9, 0.1}, d.Probs, 1e-12)
	assert.Equal(t, 2, d.Len())
}

func TestNewDistribution_SumsToOne(t *testing.T) {
	scores := []float64{0.93, 0.88, 0.87, 0.5, 0.41, 0.4, 0.33, 0.2, 0.19, 0.01}
	var ns []any
	for i, s := range scores {
		ns = append(ns, string(rune('a'+i)), s)
	}
	d, err := NewDistribution(nb(ns...))
	require.NoError(t, err)
	assert.Len(t, d.Probs, len(d.Candidates))
	assert.InDelta(t, 1.0, floats.Sum(d.Probs), 1e-9)
	for _, p := range d.Probs {
		assert.GreaterOrEqual(t, p, 0.0)
	}
}

func TestNewDistribution_NegativeScoresCountAsZero(t *testing.T) {
	d, err := NewDistribution(nb("x", 0.6, "y", -0.3, "z", 0.2))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.75, 0, 0.25}, d.Probs, 1e-12)
	for u := 0.0; u < 1; u += 0.01 {
		assert.NotEqual(t, "y", d.Sample(u))
	}
}

func TestNewDistribution_Empty(t *testing.T) {
	_, err := NewDistribution(nil)
	assert.ErrorIs(t, err, ErrDistributionEmpty)
	_, err = NewDistribution(nb("x", 0.0, "y", -0.5))
	assert.ErrorIs(t, err, ErrDistributionEmpty)
}

func TestDistribution_Sample(t *testing.T) {
	d, err := NewDistribution(nb("α", 0.9, "4", 0.1))
	require.NoError(t, err)
	assert.Equal(t, "α", d.Sample(0))
	assert.Equal(t, "α", d.Sample(0.899))
	assert.Equal(t, "4", d.Sample(0.9001))
	assert.Equal(t, "4", d.Sample(0.999999))
	// Past the last cumulative value falls back to the last live candidate.
	assert.Equal(t, "4", d.Sample(1.0))

	d, err = NewDistribution(nb("p", 0.5, "q", 0.5, "r", -1.0))
	require.NoError(t, err)
	assert.Equal(t, "q", d.Sample(1.0))
}

func TestFilterMode(t *testing.T) {
	ns := nb("c1", 0.4, "c2", 0.3, "c3", 0.2, "c4", 0.1)

	odd := FilterOdd.Apply(ns)
	assert.Equal(t, nb("c2", 0.3, "c4", 0.1), odd)
	d, err := NewDistribution(odd)
	require.NoError(t, err)
	assert.Equal(t, []string{"c2", "c4"}, d.Candidates)
	assert.InDeltaSlice(t, []float64{0.75, 0.25}, d.Probs, 1e-12)

	assert.Equal(t, nb("c1", 0.4, "c3", 0.2), FilterEven.Apply(ns))
	assert.Equal(t, ns, FilterNone.Apply(ns))

	// A single neighbor leaves nothing at odd indices.
	_, err = NewDistribution(FilterOdd.Apply(nb("c1", 0.4)))
	assert.ErrorIs(t, err, ErrDistributionEmpty)
}

func TestParseFilterMode(t *testing.T) {
	for in, want := range map[string]FilterMode{
		"": FilterNone, "none": FilterNone, "odd": FilterOdd, "odd-indices": FilterOdd,
		"EVEN": FilterEven, "even-indices": FilterEven,
	} {
		got, err := ParseFilterMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFilterMode("third")
	assert.Error(t, err)
	assert.Equal(t, "odd", FilterOdd.String())
}
