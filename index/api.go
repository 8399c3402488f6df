package index

import (
	"fmt"
	"strings"

	"github.com/viperlab/viper/index/bruteforce"
	"github.com/viperlab/viper/index/cover"
)

// Index defines a generic vector index with basic lifecycle methods.
type Index interface {
	// Build constructs the index from the given ids and vectors.
	// ids and vectors must have the same length.
	Build(ids []string, vectors [][]float32) error

	// Query runs a kNN search and returns up to k matches as parallel slices
	// of ids and cosine similarity scores, most similar first. Equal scores
	// keep build order. When k <= 0 all matches are returned.
	Query(query []float32, k int) (ids []string, scores []float64, err error)

	// MarshalBinary serializes the index into a byte slice.
	MarshalBinary() ([]byte, error)

	// UnmarshalBinary reconstructs the index from a serialized byte slice.
	UnmarshalBinary(data []byte) error
}

// Kind names an Index implementation.
type Kind string

const (
	KindBrute Kind = "brute"
	KindVP    Kind = "vp"
)

// ParseKind accepts "brute" (also "bruteforce") and "vp" (also "cover").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "brute", "bruteforce":
		return KindBrute, nil
	case "vp", "cover":
		return KindVP, nil
	}
	return "", fmt.Errorf("index: unknown kind %q", s)
}

// New returns an empty index of the given kind.
func New(kind Kind) (Index, error) {
	switch kind {
	case KindBrute, "":
		return &bruteforce.Index{}, nil
	case KindVP:
		return &cover.Index{}, nil
	}
	return nil, fmt.Errorf("index: unknown kind %q", kind)
}

var (
	_ Index = (*bruteforce.Index)(nil)
	_ Index = (*cover.Index)(nil)
)
