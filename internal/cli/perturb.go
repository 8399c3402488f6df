package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/viperlab/viper/config"
	"github.com/viperlab/viper/embedding"
	"github.com/viperlab/viper/internal/logging"
	"github.com/viperlab/viper/output"
	"github.com/viperlab/viper/perturb"
	"github.com/viperlab/viper/perturbation"
)

var (
	perturbEmbeddings    string
	perturbProbability   float64
	perturbSeed          int64
	perturbPerturbations string
	perturbTransformed   string
	perturbLinked        string
	perturbTopN          int
	perturbFilter        string
	perturbIndex         string
	perturbNormalize     string
	perturbConfigPath    string
	perturbInput         string
)

var perturbCmd = &cobra.Command{
	Use:   "perturb",
	Short: "Perturb lines read from stdin",
	Long: `Read text line by line and replace each character, with the given
probability, by one of its nearest neighbors in the embedding space.

Transformed lines go to the transformed file, "original||transformed" pairs to
the linked file, and every substitution to the perturbations file (TSV, or a
SQLite table when the path ends in .sqlite or .db). The perturbations file is
only written when at least one substitution was made.

Examples:
  viper perturb -e chars.txt -p 0.2 --perturbations-file perturbations.tsv < in.txt
  viper perturb --config viper.yaml --input in.txt --filter odd`,
	Args: cobra.NoArgs,
	RunE: runPerturb,
}

func init() {
	rootCmd.AddCommand(perturbCmd)

	d := config.Default()
	f := perturbCmd.Flags()
	f.StringVarP(&perturbEmbeddings, "embeddings", "e", "", "Embedding space (word2vec text or SQLite)")
	f.Float64VarP(&perturbProbability, "probability", "p", 0, "Substitution probability in [0,1]")
	f.Int64VarP(&perturbSeed, "seed", "s", d.Seed, "Random seed")
	f.StringVar(&perturbPerturbations, "perturbations-file", "", "Where substitutions are recorded")
	f.StringVar(&perturbTransformed, "transformed-file", d.TransformedOutputPath, "Transformed lines output")
	f.StringVar(&perturbLinked, "linked-file", d.LinkedOutputPath, "Linked original||transformed output")
	f.IntVar(&perturbTopN, "top-n", d.TopNNeighbors, "Neighbors considered per character")
	f.StringVar(&perturbFilter, "filter", d.NeighborFilterMode, "Neighbor filter (none, odd, even)")
	f.StringVar(&perturbIndex, "index", d.Index, "Nearest-neighbor index (brute, vp, sql)")
	f.StringVar(&perturbNormalize, "normalize", d.Normalize, "Unicode normalization of input (none, nfc, nfd, nfkc, nfkd)")
	f.StringVar(&perturbConfigPath, "config", "", "YAML config file; explicit flags override it")
	f.StringVar(&perturbInput, "input", d.InputPath, "Input file, - for stdin")
}

// perturbConfig layers explicitly set flags over the config file, or over
// the defaults when there is none.
func perturbConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if perturbConfigPath != "" {
		var err error
		if cfg, err = config.Load(perturbConfigPath); err != nil {
			return cfg, err
		}
	}
	f := cmd.Flags()
	if f.Changed("embeddings") {
		cfg.EmbeddingPath = perturbEmbeddings
	}
	if f.Changed("probability") {
		cfg.SetProbability(perturbProbability)
	}
	if f.Changed("seed") {
		cfg.Seed = perturbSeed
	}
	if f.Changed("perturbations-file") {
		cfg.PerturbationsOutputPath = perturbPerturbations
	}
	if f.Changed("transformed-file") {
		cfg.TransformedOutputPath = perturbTransformed
	}
	if f.Changed("linked-file") {
		cfg.LinkedOutputPath = perturbLinked
	}
	if f.Changed("top-n") {
		cfg.TopNNeighbors = perturbTopN
	}
	if f.Changed("filter") {
		cfg.NeighborFilterMode = perturbFilter
	}
	if f.Changed("index") {
		cfg.Index = perturbIndex
	}
	if f.Changed("normalize") {
		cfg.Normalize = perturbNormalize
	}
	if f.Changed("input") {
		cfg.InputPath = perturbInput
	}
	if f.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if f.Changed("log-json") {
		cfg.Log.JSON = logJSON
	}
	return cfg, cfg.Validate()
}

func runPerturb(cmd *cobra.Command, _ []string) error {
	cfg, err := perturbConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, JSON: cfg.Log.JSON, Writer: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in := cmd.InOrStdin()
	if cfg.InputPath != "" && cfg.InputPath != "-" {
		f, err := os.Open(cfg.InputPath)
		if err != nil {
			return fmt.Errorf("input: %w", err)
		}
		defer f.Close()
		in = f
	}
	_, err = Perturb(ctx, cfg, in, logger)
	return err
}

// Perturb runs one perturbation pass over in with a validated cfg. The
// embedding space is loaded before any output file is touched, so a space
// that fails to load leaves earlier outputs in place.
func Perturb(ctx context.Context, cfg config.Config, in io.Reader, logger *slog.Logger) (summary perturb.Summary, err error) {
	filter, err := cfg.Filter()
	if err != nil {
		return summary, err
	}
	normalize, err := cfg.Normalization()
	if err != nil {
		return summary, err
	}
	space, err := embedding.Open(ctx, cfg.EmbeddingPath, embedding.Options{Index: cfg.Index, Logger: logger})
	if err != nil {
		return summary, err
	}
	defer space.Close()

	sink, runID := perturbation.NewSink(cfg.PerturbationsOutputPath, "")
	logger = logger.With("run_id", runID)
	w, err := output.Create(cfg.TransformedOutputPath, cfg.LinkedOutputPath)
	if err != nil {
		return summary, err
	}
	defer func() {
		err = errors.Join(err, w.Close())
	}()

	cache := perturb.NewCache(space, cfg.TopNNeighbors, filter, logger)
	eng, err := perturb.New(cache, perturb.Options{
		Probability: cfg.Probability(),
		Seed:        cfg.Seed,
		Normalize:   normalize,
	}, perturbation.NewStore(sink), w, logger)
	if err != nil {
		return summary, err
	}
	return eng.Run(ctx, in)
}
