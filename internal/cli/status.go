package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show dataset files and cache state",
	Long: `Show each dataset's JSONL file, whether it exists, how many rows the
cache holds and whether the cache is stale (the file changed since the
last rebuild).

Examples:
  rowview status
  rowview status --json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	statuses, err := store.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}

	out := cmd.OutOrStdout()
	if GetJSONOutput() {
		data, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"Dataset", "File", "Rows", "Cache", "Synced"})
	for _, st := range statuses {
		state := "fresh"
		switch {
		case !st.Exists:
			state = "no file"
		case st.Stale:
			state = "stale"
		}
		synced := "never"
		if st.SyncedAt != nil {
			synced = st.SyncedAt.Local().Format(time.DateTime)
		}
		t.AppendRow(table.Row{st.Dataset, st.File, st.Rows, state, synced})
	}
	t.Render()
	fmt.Fprintf(out, "Cache: %s\n", store.Cache().Path())
	return nil
}
