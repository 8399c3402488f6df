package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/viperlab/viper/embedding"
)

var importCmd = &cobra.Command{
	Use:   "import <word2vec-file> <out.sqlite>",
	Short: "Store a word2vec space in SQLite",
	Long: `Parse a text word2vec embedding space and write it to a SQLite file,
replacing any space stored there. The result can be passed to perturb -e and
queried in SQL with --index sql.`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	logger, err := commandLogger(cmd)
	if err != nil {
		return err
	}
	src, dst := args[0], args[1]
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	defer f.Close()

	n, dups, err := embedding.Import(cmd.Context(), f, dst)
	if err != nil {
		return err
	}
	if len(dups) > 0 {
		logger.Warn("duplicate embedding keys ignored", "path", src, "count", len(dups))
	}
	logger.Info("embedding space imported", "src", src, "dst", dst, "keys", n)
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d keys into %s\n", n, dst)
	return nil
}
