package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <dataset> <file.jsonl>",
	Short: "Replace a dataset with records from a JSONL file",
	Long: `Replace a dataset with the records of a JSONL file, one JSON object per
line, and rebuild the cache.

Every record is validated first: ids must be positive and unique, names
are required and emails must be plain addresses. Nothing is written if any
record fails.

Examples:
  rowview import customers customers.jsonl
  rowview import employees staff.jsonl --json`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	d, ok := resolveDataset(args[0])
	if !ok {
		return nil
	}
	filename := args[1]

	f, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			ExitWithError(1, ErrCodeFileNotFound,
				fmt.Sprintf("file '%s' not found", filename),
				map[string]interface{}{"file": filename})
			return nil
		}
		return fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer f.Close()

	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Import(ctx, d, f)
	if err != nil {
		if exitOnKnownError(err, d) {
			return nil
		}
		return fmt.Errorf("failed to import %s: %w", filename, err)
	}

	if GetJSONOutput() {
		data, _ := json.Marshal(map[string]interface{}{
			"dataset": d,
			"records": n,
			"source":  filename,
		})
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d %s from %s\n", n, d, filename)
	return nil
}
