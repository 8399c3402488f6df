package embedding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWord2Vec(t *testing.T) {
	src := "3 2\na 1 0\nα 0.9 0.1 \r\n4 0.5 0.5"
	vs, err := ReadWord2Vec(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 2, vs.Dim)
	assert.Equal(t, []string{"a", "α", "4"}, vs.Keys)
	assert.Equal(t, [][]float32{{1, 0}, {0.9, 0.1}, {0.5, 0.5}}, vs.Vectors)
	assert.Empty(t, vs.Duplicates)
}

func TestReadWord2Vec_Duplicates(t *testing.T) {
	vs, err := ReadWord2Vec(strings.NewReader("3 1\na 1\nb 2\na 3\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, vs.Keys)
	assert.Equal(t, [][]float32{{1}, {2}}, vs.Vectors)
	assert.Equal(t, []string{"a"}, vs.Duplicates)
}

func TestReadWord2Vec_IgnoresTrailingData(t *testing.T) {
	vs, err := ReadWord2Vec(strings.NewReader("1 1\na 1\n\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, vs.Keys)
}

func TestReadWord2Vec_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "empty", src: "", want: "read header"},
		{name: "header fields", src: "3\n", want: "malformed header"},
		{name: "bad count", src: "x 2\n", want: "malformed count"},
		{name: "bad dim", src: "1 0\n", want: "malformed dimension"},
		{name: "short", src: "2 1\na 1\n", want: "unexpected end of input"},
		{name: "components", src: "1 2\na 1\n", want: "got 1 components, want 2"},
		{name: "float", src: "1 1\na one\n", want: "component 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadWord2Vec(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
