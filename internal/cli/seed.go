package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var seedOverwrite bool

var seedCmd = &cobra.Command{
	Use:   "seed <dataset>",
	Short: "Write the built-in demo records for a dataset",
	Long: `Write the built-in demo records for a dataset to its JSONL file and
rebuild the cache.

An existing dataset file is left alone unless --overwrite is given.

Examples:
  rowview seed customers
  rowview seed employees --overwrite`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&seedOverwrite, "overwrite", false, "Replace an existing dataset file")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	d, ok := resolveDataset(args[0])
	if !ok {
		return nil
	}

	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Seed(ctx, d, seedOverwrite)
	if err != nil {
		if exitOnKnownError(err, d) {
			return nil
		}
		return fmt.Errorf("failed to seed %s: %w", d, err)
	}

	if GetJSONOutput() {
		data, _ := json.Marshal(map[string]interface{}{
			"dataset": d,
			"records": n,
			"file":    store.JSONL().Path(d),
		})
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d %s into %s\n", n, d, store.JSONL().Path(d))
	return nil
}
