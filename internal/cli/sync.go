package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/rowview/internal/model"
)

var syncRebuild bool

var syncCmd = &cobra.Command{
	Use:   "sync [dataset...]",
	Short: "Synchronize JSONL files and the SQLite cache",
	Long: `Synchronize the JSONL source of truth with the SQLite cache.

Without --rebuild only datasets whose file changed since the last build are
re-imported. With no dataset arguments every dataset is synchronized.

Examples:
  rowview sync
  rowview sync customers --rebuild`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncRebuild, "rebuild", false, "Rebuild the cache even if files did not change")
	rootCmd.AddCommand(syncCmd)
}

// SyncResult reports what sync did for one dataset.
type SyncResult struct {
	Dataset model.Dataset `json:"dataset"`
	Rebuilt bool          `json:"rebuilt"`
}

func runSync(cmd *cobra.Command, args []string) error {
	datasets := model.Datasets()
	if len(args) > 0 {
		datasets = nil
		for _, a := range args {
			d, ok := resolveDataset(a)
			if !ok {
				return nil
			}
			datasets = append(datasets, d)
		}
	}

	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	results := make([]SyncResult, 0, len(datasets))
	for _, d := range datasets {
		rebuilt := true
		if syncRebuild {
			err = store.Rebuild(ctx, d)
		} else {
			rebuilt, err = store.Sync(ctx, d)
		}
		if err != nil {
			if exitOnKnownError(err, d) {
				return nil
			}
			return fmt.Errorf("failed to sync %s: %w", d, err)
		}
		results = append(results, SyncResult{Dataset: d, Rebuilt: rebuilt})
	}

	out := cmd.OutOrStdout()
	if GetJSONOutput() {
		data, _ := json.Marshal(results)
		fmt.Fprintln(out, string(data))
		return nil
	}
	for _, r := range results {
		if r.Rebuilt {
			fmt.Fprintf(out, "%s: cache rebuilt\n", r.Dataset)
		} else {
			fmt.Fprintf(out, "%s: up to date\n", r.Dataset)
		}
	}
	return nil
}
