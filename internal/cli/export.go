package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/rowview/internal/dataview"
	"github.com/user/rowview/internal/model"
	"github.com/user/rowview/internal/storage"
)

var (
	exportFormat string
	exportSearch string
	exportSort   []string
	exportForce  bool
)

var exportCmd = &cobra.Command{
	Use:   "export <dataset> [file]",
	Short: "Export the visible rows of a dataset",
	Long: `Export the rows of a dataset after filtering and sorting, as CSV, JSON or
JSONL. CSV columns follow the dataset's column declaration.

If no file is specified, writes to stdout.

Examples:
  rowview export customers                          # CSV to stdout
  rowview export customers ann.csv --search ann     # Filtered rows to a file
  rowview export employees --sort department --format jsonl
  rowview export employees staff.json --format json --force`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json, jsonl")
	exportCmd.Flags().StringVarP(&exportSearch, "search", "s", "", "Export only rows containing this text")
	exportCmd.Flags().StringArrayVar(&exportSort, "sort", nil, "Sort key, repeatable (name, -name, name:desc)")
	exportCmd.Flags().BoolVarP(&exportForce, "force", "f", false, "Overwrite existing file without warning")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	d, ok := resolveDataset(args[0])
	if !ok {
		return nil
	}

	format := strings.ToLower(exportFormat)
	if format != "csv" && format != "json" && format != "jsonl" {
		ExitValidationError(fmt.Sprintf("invalid format '%s' (must be csv, json, or jsonl)", exportFormat),
			map[string]interface{}{"format": exportFormat})
		return nil
	}

	outputFile := ""
	if len(args) > 1 {
		outputFile = args[1]
	}
	if outputFile != "" && !exportForce {
		if _, err := os.Stat(outputFile); err == nil {
			ExitWithError(1, ErrCodeValidation,
				fmt.Sprintf("file '%s' already exists (use --force to overwrite)", outputFile),
				map[string]interface{}{"file": outputFile})
			return nil
		}
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

	var buf bytes.Buffer
	switch d {
	case model.Customers:
		err = exportDataset(cmd, &buf, format, store.Customers(), model.CustomerColumns())
	case model.Employees:
		err = exportDataset(cmd, &buf, format, store.Employees(), model.EmployeeColumns())
	}
	if err != nil && exitOnKnownError(err, d) {
		return nil
	}
	if err != nil {
		return err
	}

	if outputFile == "" {
		_, err = buf.WriteTo(cmd.OutOrStdout())
		return err
	}
	if err := writeFileAtomic(outputFile, buf.Bytes()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %s to %s\n", d, outputFile)
	return nil
}

// writeFileAtomic replaces path with data through a temp file and rename.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func exportDataset[T any](cmd *cobra.Command, w io.Writer, format string, repo *storage.Repository[T], cols []dataview.Column[T]) error {
	ctx := cmd.Context()

	spec, err := parseSortFlags(exportSort)
	if err != nil {
		return err
	}
	s, err := newSession(ctx, repo, cols, false)
	if err != nil {
		return err
	}
	if err := s.view.SetSort(spec); err != nil {
		return err
	}
	if err := s.load(ctx); err != nil {
		return err
	}
	s.view.SetFilterQuery(exportSearch)
	rows := s.view.VisibleRows()

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "jsonl":
		enc := json.NewEncoder(w)
		for _, r := range rows {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("failed to write record: %w", err)
			}
		}
		return nil
	default:
		return writeCSV(w, s.view.Columns(), rows)
	}
}

func writeCSV[T any](w io.Writer, cols dataview.Columns[T], rows []T) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cols.Keys()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	record := make([]string, len(cols))
	for _, r := range rows {
		for i := range cols {
			record[i] = cols[i].Value(r)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
