package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/user/rowview/internal/dataview"
	"github.com/user/rowview/internal/model"
	"github.com/user/rowview/internal/storage"
)

var (
	listSearch string
	listSort   []string
)

var listCmd = &cobra.Command{
	Use:   "list <dataset>",
	Short: "Print a filtered, sorted dataset",
	Long: `Print the rows of a dataset as a table, filtered by a search query and
sorted by one or more columns.

The search matches any searchable column as a case-insensitive substring.
Sort keys are applied in order, the first being the most significant. A key
is a column name optionally prefixed with + or - or suffixed with :asc or
:desc.

Examples:
  rowview list customers
  rowview list customers --search ann
  rowview list employees --sort department --sort -name
  rowview list employees --sort department:desc --json
  rowview list customers --search ann --server-side`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Filter rows containing this text")
	listCmd.Flags().StringArrayVar(&listSort, "sort", nil, "Sort key, repeatable (name, -name, name:desc)")
	listCmd.Flags().Bool("server-side", false, "Filter in the SQLite cache instead of in memory")
	rootCmd.AddCommand(listCmd)
}

// listResult is the --json output of list.
type listResult[T any] struct {
	Dataset model.Dataset `json:"dataset"`
	Query   string        `json:"query,omitempty"`
	Sort    string        `json:"sort,omitempty"`
	Total   int           `json:"total"`
	Count   int           `json:"count"`
	Rows    []T           `json:"rows"`
}

func runList(cmd *cobra.Command, args []string) error {
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

	if !store.JSONL().Exists(d) {
		ExitNoData(d)
		return nil
	}

	switch d {
	case model.Customers:
		err = listDataset(cmd, store.Customers(), model.CustomerColumns())
	case model.Employees:
		err = listDataset(cmd, store.Employees(), model.EmployeeColumns())
	}
	if err != nil && exitOnKnownError(err, d) {
		return nil
	}
	return err
}

func listDataset[T any](cmd *cobra.Command, repo *storage.Repository[T], cols []dataview.Column[T]) error {
	ctx := cmd.Context()

	spec, err := parseSortFlags(listSort)
	if err != nil {
		return err
	}

	s, err := newSession(ctx, repo, cols, cfg.Search.ServerSide)
	if err != nil {
		return err
	}
	if err := s.view.SetSort(spec); err != nil {
		return err
	}

	if s.remote == nil {
		if err := s.load(ctx); err != nil {
			return err
		}
	}
	if err := s.setQuery(listSearch); err != nil {
		return err
	}

	snap := s.view.Snapshot()
	if GetJSONOutput() {
		return renderListJSON(cmd.OutOrStdout(), listResult[T]{
			Dataset: s.dataset,
			Query:   listSearch,
			Sort:    snap.Sort.String(),
			Total:   snap.Total,
			Count:   len(snap.Rows),
			Rows:    snap.Rows,
		})
	}
	return renderListTable(cmd.OutOrStdout(), s.view.Columns(), snap)
}

func renderListJSON[T any](w io.Writer, result listResult[T]) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func renderListTable[T any](w io.Writer, cols dataview.Columns[T], snap dataview.Snapshot[T]) error {
	if len(snap.Rows) == 0 {
		_, _ = fmt.Fprintf(w, "no matches (0 of %d rows)\n", snap.Total)
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(cols))
	for i := range cols {
		header[i] = dataview.HeaderLabel(&cols[i], snap.Sort)
	}
	t.AppendHeader(header)

	for _, rec := range snap.Rows {
		row := make(table.Row, len(cols))
		for i := range cols {
			row[i] = cols[i].Value(rec)
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d of %d rows)\n", len(snap.Rows), snap.Total)
	return nil
}
