package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viperlab/viper/perturb"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "viper.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func valid() Config {
	c := Default()
	c.EmbeddingPath = "emb.txt"
	c.PerturbationsOutputPath = "perturbations.tsv"
	c.SetProbability(0.3)
	return c
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, int64(42), c.Seed)
	assert.Equal(t, "transformed_words.txt", c.TransformedOutputPath)
	assert.Equal(t, "linked_words.txt", c.LinkedOutputPath)
	assert.Equal(t, 20, c.TopNNeighbors)
	assert.Nil(t, c.SubstitutionProbability)
	assert.Equal(t, 0.0, c.Probability())
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
embedding_path: /data/chars.txt
substitution_probability: 0.25
perturbations_output_path: out/perturbations.sqlite
neighbor_filter_mode: odd
index: vp
log:
  level: debug
  json: true
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/chars.txt", c.EmbeddingPath)
	assert.Equal(t, 0.25, c.Probability())
	assert.Equal(t, "odd", c.NeighborFilterMode)
	assert.Equal(t, "vp", c.Index)
	assert.Equal(t, Log{Level: "debug", JSON: true}, c.Log)
	// Unset keys keep their defaults.
	assert.Equal(t, int64(42), c.Seed)
	assert.Equal(t, "linked_words.txt", c.LinkedOutputPath)
	require.NoError(t, c.Validate())

	f, err := c.Filter()
	require.NoError(t, err)
	assert.Equal(t, perturb.FilterOdd, f)
}

func TestLoad_ExplicitZeroProbability(t *testing.T) {
	c, err := Load(writeFile(t, "substitution_probability: 0\n"))
	require.NoError(t, err)
	require.NotNil(t, c.SubstitutionProbability)
	assert.Equal(t, 0.0, c.Probability())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "embeddings: x\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = Load(writeFile(t, "seed: [1, 2]\n"))
	assert.Error(t, err)

	c, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestValidate(t *testing.T) {
	require.NoError(t, valid().Validate())

	cases := map[string]func(c *Config){
		"no embeddings":     func(c *Config) { c.EmbeddingPath = "" },
		"no probability":    func(c *Config) { c.SubstitutionProbability = nil },
		"probability high":  func(c *Config) { c.SetProbability(1.01) },
		"probability low":   func(c *Config) { c.SetProbability(-0.5) },
		"no perturbations":  func(c *Config) { c.PerturbationsOutputPath = "" },
		"zero top-n":        func(c *Config) { c.TopNNeighbors = 0 },
		"bad filter":        func(c *Config) { c.NeighborFilterMode = "prime" },
		"bad normalization": func(c *Config) { c.Normalize = "nfx" },
		"bad index":         func(c *Config) { c.Index = "hnsw" },
	}
	for name, mutate := range cases {
		c := valid()
		mutate(&c)
		assert.ErrorIs(t, c.Validate(), ErrInvalid, name)
	}

	for _, p := range []float64{0, 1} {
		c := valid()
		c.SetProbability(p)
		assert.NoError(t, c.Validate())
	}
	c := valid()
	c.Index = "sql"
	assert.NoError(t, c.Validate())
}
