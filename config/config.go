// Package config holds the settings of a perturbation run: where the
// embedding space and outputs live, how likely a substitution is and how
// candidates are chosen. Settings come from defaults, an optional YAML file
// and command-line flags, in that order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/viperlab/viper/embedding"
	"github.com/viperlab/viper/index"
	"github.com/viperlab/viper/output"
	"github.com/viperlab/viper/perturb"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Log configures the run's logger.
type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Config is a perturbation run's configuration.
type Config struct {
	EmbeddingPath string `yaml:"embedding_path"`
	// SubstitutionProbability is required; nil means it was never set.
	SubstitutionProbability *float64 `yaml:"substitution_probability"`
	Seed                    int64    `yaml:"seed"`
	PerturbationsOutputPath string   `yaml:"perturbations_output_path"`
	TransformedOutputPath   string   `yaml:"transformed_output_path"`
	LinkedOutputPath        string   `yaml:"linked_output_path"`
	TopNNeighbors           int      `yaml:"top_n_neighbors"`
	NeighborFilterMode      string   `yaml:"neighbor_filter_mode"`
	Index                   string   `yaml:"index"`
	Normalize               string   `yaml:"normalize"`
	// InputPath is read instead of stdin when set; "-" means stdin.
	InputPath string `yaml:"input_path"`
	Log       Log    `yaml:"log"`
}

// Default returns a Config with every optional setting filled in.
func Default() Config {
	return Config{
		Seed:                  perturb.DefaultSeed,
		TransformedOutputPath: output.DefaultTransformedPath,
		LinkedOutputPath:      output.DefaultLinkedPath,
		TopNNeighbors:         perturb.DefaultTopN,
		NeighborFilterMode:    perturb.FilterNone.String(),
		Index:                 string(index.KindBrute),
		Normalize:             string(perturb.NormalizeNone),
		InputPath:             "-",
		Log:                   Log{Level: "info"},
	}
}

// Load reads a YAML file over Default. Unknown keys are rejected. The result
// is not validated.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Probability returns the substitution probability, or 0 when unset.
func (c Config) Probability() float64 {
	if c.SubstitutionProbability == nil {
		return 0
	}
	return *c.SubstitutionProbability
}

// SetProbability sets the substitution probability.
func (c *Config) SetProbability(p float64) {
	c.SubstitutionProbability = &p
}

// Validate checks required settings and the spelling of every enum.
func (c Config) Validate() error {
	if c.EmbeddingPath == "" {
		return fmt.Errorf("%w: embedding_path is required", ErrInvalid)
	}
	if c.SubstitutionProbability == nil {
		return fmt.Errorf("%w: substitution_probability is required", ErrInvalid)
	}
	if p := *c.SubstitutionProbability; !(p >= 0 && p <= 1) {
		return fmt.Errorf("%w: substitution_probability %v outside [0,1]", ErrInvalid, p)
	}
	if c.PerturbationsOutputPath == "" {
		return fmt.Errorf("%w: perturbations_output_path is required", ErrInvalid)
	}
	if c.TopNNeighbors < 1 {
		return fmt.Errorf("%w: top_n_neighbors must be positive, got %d", ErrInvalid, c.TopNNeighbors)
	}
	if _, err := c.Filter(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := c.Normalization(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Index != embedding.IndexSQL {
		if _, err := index.ParseKind(c.Index); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	return nil
}

// Filter parses NeighborFilterMode.
func (c Config) Filter() (perturb.FilterMode, error) {
	return perturb.ParseFilterMode(c.NeighborFilterMode)
}

// Normalization parses Normalize.
func (c Config) Normalization() (perturb.Normalization, error) {
	return perturb.ParseNormalization(c.Normalize)
}
