package cli

import (
	"context"
	"errors"
	"sync"

	"github.com/user/rowview/internal/dataview"
	"github.com/user/rowview/internal/logger"
	"github.com/user/rowview/internal/model"
	"github.com/user/rowview/internal/search"
	"github.com/user/rowview/internal/storage"
)

// resolveDataset parses a dataset argument. It reports the error through
// ExitWithError and returns false when the name is unknown.
func resolveDataset(name string) (model.Dataset, bool) {
	d, err := model.ParseDataset(name)
	if err != nil {
		if errors.Is(err, model.ErrDatasetNotFound) || errors.Is(err, model.ErrInvalidDataset) {
			ExitDatasetNotFound(name)
			return "", false
		}
		ExitValidationError(err.Error(), nil)
		return "", false
	}
	return d, true
}

// parseSortFlags turns repeated --sort values into a sort spec.
func parseSortFlags(values []string) (dataview.SortSpec, error) {
	spec := make(dataview.SortSpec, 0, len(values))
	for _, v := range values {
		key, err := dataview.ParseSortKey(v)
		if err != nil {
			return nil, err
		}
		spec = append(spec, key)
	}
	return spec, nil
}

// session is a view over one dataset, fed either in memory or through the
// repository.
type session[T any] struct {
	dataset model.Dataset
	source  dataview.Lister[T]
	view    *dataview.View[T]
	remote  *dataview.RemoteFilter[T]

	mu      sync.Mutex
	lastErr error
}

func newSession[T any](ctx context.Context, repo *storage.Repository[T], cols []dataview.Column[T], serverSide bool) (*session[T], error) {
	view, err := dataview.New(cols...)
	if err != nil {
		return nil, err
	}
	s := &session[T]{dataset: repo.Dataset(), source: repo, view: view}
	if serverSide {
		log := logger.FromContext(ctx)
		s.remote = dataview.NewRemoteFilter[T](ctx, view, repo,
			dataview.WithTimeout[T](cfg.Search.SourceTimeout),
			dataview.WithErrorHandler[T](func(query string, err error) {
				log.Error("search failed", "dataset", s.dataset, "query", query, "error", err)
				s.mu.Lock()
				s.lastErr = err
				s.mu.Unlock()
			}),
		)
	}
	return s, nil
}

// target is what the search box drives.
func (s *session[T]) target() search.Target {
	if s.remote != nil {
		return s.remote
	}
	return s.view
}

// load fills the view, syncing the cache with the file first. In
// server-side mode the current query is re-run at the source; otherwise
// every row is loaded and the view filters. Query and sort are kept.
func (s *session[T]) load(ctx context.Context) error {
	if s.remote != nil {
		s.clearErr()
		s.remote.Refresh()
		return s.takeErr()
	}
	rows, err := s.source.FindAll(ctx)
	if err != nil {
		return err
	}
	return s.view.Load(rows)
}

// clearErr drops a source error left by an earlier query, so the next
// fetch reports only its own failure.
func (s *session[T]) clearErr() {
	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()
}

// takeErr returns and clears the last source error.
func (s *session[T]) takeErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.lastErr
	s.lastErr = nil
	return err
}

// setQuery filters the view and reports a source failure, if any.
func (s *session[T]) setQuery(q string) error {
	s.clearErr()
	s.target().SetFilterQuery(q)
	return s.takeErr()
}
