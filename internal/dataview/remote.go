package dataview

import (
	"context"
	"sync"
	"time"
)

// Lister supplies the full row set.
type Lister[T any] interface {
	FindAll(ctx context.Context) ([]T, error)
}

// Searcher filters rows at the source. An empty query returns every row.
type Searcher[T any] interface {
	Search(ctx context.Context, query string) ([]T, error)
}

// ErrorHandler is told about a source failure for a query.
type ErrorHandler func(query string, err error)

// RemoteFilter routes search queries to a Searcher and loads the result
// into a view, instead of filtering in memory. The view's own query stays
// empty; its sort order still applies.
type RemoteFilter[T any] struct {
	view    *View[T]
	source  Searcher[T]
	ctx     context.Context
	timeout time.Duration
	onError ErrorHandler

	mu    sync.Mutex
	query string
}

// RemoteOption configures a RemoteFilter.
type RemoteOption[T any] func(*RemoteFilter[T])

// WithTimeout bounds each source call.
func WithTimeout[T any](d time.Duration) RemoteOption[T] {
	return func(r *RemoteFilter[T]) { r.timeout = d }
}

// WithErrorHandler sets the hook called when the source fails.
func WithErrorHandler[T any](fn ErrorHandler) RemoteOption[T] {
	return func(r *RemoteFilter[T]) { r.onError = fn }
}

// NewRemoteFilter wires source to view. ctx bounds every source call.
func NewRemoteFilter[T any](ctx context.Context, view *View[T], source Searcher[T], opts ...RemoteOption[T]) *RemoteFilter[T] {
	r := &RemoteFilter[T]{
		view:    view,
		source:  source,
		ctx:     ctx,
		onError: func(string, error) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetFilterQuery asks the source for rows matching text and loads them. It
// never fails: on a source error the previous rows stay visible and the
// error handler is called.
func (r *RemoteFilter[T]) SetFilterQuery(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.query = text
	r.fetchLocked()
}

// Query returns the last query sent to the source.
func (r *RemoteFilter[T]) Query() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.query
}

// Refresh re-runs the current query, for reloads that keep the search.
func (r *RemoteFilter[T]) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchLocked()
}

func (r *RemoteFilter[T]) fetchLocked() {
	ctx := r.ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	rows, err := r.source.Search(ctx, r.query)
	if err != nil {
		r.onError(r.query, err)
		return
	}
	if rows == nil {
		rows = []T{}
	}
	if err := r.view.Load(rows); err != nil {
		r.onError(r.query, err)
	}
}
