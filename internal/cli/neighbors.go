package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/viperlab/viper/config"
	"github.com/viperlab/viper/embedding"
	"github.com/viperlab/viper/perturb"
)

var (
	neighborsEmbeddings string
	neighborsTopN       int
	neighborsFilter     string
	neighborsIndex      string
)

var neighborsCmd = &cobra.Command{
	Use:   "neighbors <char>...",
	Short: "Show substitution candidates for characters",
	Long: `Print the nearest neighbors of each character with their similarity and
the probability perturb would pick them with.

Examples:
  viper neighbors -e chars.txt a o
  viper neighbors -e chars.sqlite --index sql --filter odd abc`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNeighbors,
}

func init() {
	rootCmd.AddCommand(neighborsCmd)

	d := config.Default()
	f := neighborsCmd.Flags()
	f.StringVarP(&neighborsEmbeddings, "embeddings", "e", "", "Embedding space (word2vec text or SQLite)")
	f.IntVar(&neighborsTopN, "top-n", d.TopNNeighbors, "Neighbors considered per character")
	f.StringVar(&neighborsFilter, "filter", d.NeighborFilterMode, "Neighbor filter (none, odd, even)")
	f.StringVar(&neighborsIndex, "index", d.Index, "Nearest-neighbor index (brute, vp, sql)")
	_ = neighborsCmd.MarkFlagRequired("embeddings")
}

func runNeighbors(cmd *cobra.Command, args []string) error {
	filter, err := perturb.ParseFilterMode(neighborsFilter)
	if err != nil {
		return err
	}
	logger, err := commandLogger(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	space, err := embedding.Open(ctx, neighborsEmbeddings, embedding.Options{Index: neighborsIndex, Logger: logger})
	if err != nil {
		return err
	}
	defer space.Close()

	out := cmd.OutOrStdout()
	for _, arg := range args {
		for _, r := range arg {
			ns, err := space.Nearest(ctx, string(r), neighborsTopN)
			if errors.Is(err, embedding.ErrNotFound) {
				fmt.Fprintf(out, "%s\tnot in embedding space\n", string(r))
				continue
			}
			if err != nil {
				return err
			}
			kept := filter.Apply(ns)
			dist, err := perturb.NewDistribution(kept)
			if errors.Is(err, perturb.ErrDistributionEmpty) {
				fmt.Fprintf(out, "%s\tno candidates\n", string(r))
				continue
			}
			fmt.Fprintf(out, "%s\n", string(r))
			for i, n := range kept {
				fmt.Fprintf(out, "  %s\t%.6f\t%.6f\n", n.Key, n.Score, dist.Probs[i])
			}
		}
	}
	return nil
}
