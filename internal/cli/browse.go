package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/user/rowview/internal/browse"
	"github.com/user/rowview/internal/config"
	"github.com/user/rowview/internal/dataview"
	"github.com/user/rowview/internal/logger"
	"github.com/user/rowview/internal/model"
	"github.com/user/rowview/internal/search"
	"github.com/user/rowview/internal/storage"
	"github.com/user/rowview/internal/watch"
)

// browseLogFile receives logs while the terminal is taken by the browser.
const browseLogFile = "browse.log"

var browseSort []string

var browseCmd = &cobra.Command{
	Use:   "browse <dataset>",
	Short: "Browse a dataset interactively",
	Long: `Open an interactive grid over a dataset with a search box.

Typing filters the rows. In lazy mode (the default) the search runs once
typing pauses for the quiet period; in eager mode it runs on every
keystroke. Enter searches immediately and Esc clears the search.

Keys:
  tab / shift+tab   select column
  ctrl+s            toggle sort on the selected column (asc, desc, off)
  up / down         move the cursor
  ctrl+c            quit

While browsing, logs go to browse.log in the data directory.

Examples:
  rowview browse customers
  rowview browse customers --mode eager
  rowview browse customers --server-side --quiet-period 250ms
  rowview browse employees --sort department --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runBrowse,
}

func init() {
	f := browseCmd.Flags()
	f.String("mode", config.DefaultSearchMode, "Search mode: eager or lazy")
	f.Duration("quiet-period", config.DefaultQuietPeriod, "Pause after typing before a lazy search runs")
	f.Bool("server-side", false, "Filter in the SQLite cache instead of in memory")
	f.Duration("source-timeout", config.DefaultSourceTimeout, "Timeout for each server-side search")
	f.Bool("watch", false, "Reload when the dataset file changes")
	f.Duration("watch-debounce", config.DefaultWatchDebounce, "Quiet interval before a file change reloads")
	f.StringArrayVar(&browseSort, "sort", nil, "Initial sort key, repeatable (name, -name, name:desc)")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	d, ok := resolveDataset(args[0])
	if !ok {
		return nil
	}

	logPath := filepath.Join(cfg.DataDir, browseLogFile)
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	logOut, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logOut.Close()

	level, _ := logger.ParseLevel(cfg.Log.Level)
	log := logger.New(&logger.Config{
		Level:      level,
		Output:     logOut,
		JSON:       cfg.Log.JSON,
		TimeFormat: "15:04:05",
	}).With("dataset", d)
	ctx := logger.WithContext(cmd.Context(), log)

	store, err := storage.NewStore(ctx, cfg.DataDir, cfg.Database, storage.WithLogger(log))
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	if !store.JSONL().Exists(d) {
		ExitNoData(d)
		return nil
	}

	cmd.SetContext(ctx)
	switch d {
	case model.Customers:
		err = browseDataset(cmd, store, store.Customers(), model.CustomerColumns())
	case model.Employees:
		err = browseDataset(cmd, store, store.Employees(), model.EmployeeColumns())
	}
	if err != nil && exitOnKnownError(err, d) {
		return nil
	}
	return err
}

func browseDataset[T any](cmd *cobra.Command, store *storage.Store, repo *storage.Repository[T], cols []dataview.Column[T]) error {
	ctx := cmd.Context()
	log := logger.FromContext(ctx)

	spec, err := parseSortFlags(browseSort)
	if err != nil {
		return err
	}
	mode, err := search.ParseMode(cfg.Search.Mode)
	if err != nil {
		return err
	}

	s, err := newSession(ctx, repo, cols, cfg.Search.ServerSide)
	if err != nil {
		return err
	}
	defer s.view.Dispose()
	if err := s.view.SetSort(spec); err != nil {
		return err
	}

	ctrl := search.New(s.target(),
		search.WithMode(mode),
		search.WithQuietPeriod(cfg.Search.QuietPeriod),
		search.WithLogger(log),
	)

	if cfg.Watch.Enabled {
		reload := func(model.Dataset) error { return s.load(ctx) }
		w, err := watch.NewWatcher(store.DataDir(), reload,
			watch.WithDebounce(cfg.Watch.Debounce),
			watch.WithLogger(log),
			watch.WithDatasets(s.dataset),
		)
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		if err := w.Start(); err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		defer w.Close()
	}

	m := browse.New(s.view, ctrl,
		browse.WithTitle(fmt.Sprintf("rowview · %s", s.dataset)),
		browse.WithLoader(func() error { return s.load(ctx) }),
		browse.WithLogger(log),
	)
	log.Info("browser started", "mode", mode, "quiet_period", ctrl.QuietPeriod(), "server_side", s.remote != nil, "watch", cfg.Watch.Enabled)
	return browse.Run(ctx, m)
}
