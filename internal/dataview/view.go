package dataview

import (
	"fmt"
	"slices"
	"sync"

	"golang.org/x/text/cases"
)

// State is the lifecycle stage of a view.
type State int

const (
	// StateEmpty means no rows have been loaded yet.
	StateEmpty State = iota
	// StateLoaded means a row set is present, possibly with no visible rows.
	StateLoaded
)

func (s State) String() string {
	if s == StateLoaded {
		return "loaded"
	}
	return "empty"
}

// Snapshot is a read-only copy of a view's derived state.
type Snapshot[T any] struct {
	// Rows is nil before the first load and non-nil afterwards.
	Rows   []T
	Loaded bool
	// Total is the size of the row set before filtering.
	Total int
	Query string
	Sort  SortSpec
}

// NoMatches reports a loaded view whose filter hides every row.
func (s Snapshot[T]) NoMatches() bool {
	return s.Loaded && len(s.Rows) == 0
}

// Listener receives a snapshot after every recompute.
type Listener[T any] func(Snapshot[T])

type subscription[T any] struct {
	id int
	fn Listener[T]
}

// View holds a row set, a search query and a sort spec, and keeps the
// visible rows derived from them.
//
// Mutations are applied one at a time. Listeners run after the state lock
// is released, in mutation order; they may read the view but must not
// mutate it synchronously.
type View[T any] struct {
	columns Columns[T]

	// opMu serializes mutations together with their notifications.
	opMu sync.Mutex

	mu        sync.RWMutex
	rows      []T
	query     string
	sort      SortSpec
	visible   []T
	listeners []subscription[T]
	nextID    int
}

// New creates an empty view over the given columns.
func New[T any](cols ...Column[T]) (*View[T], error) {
	set, err := NewColumns(cols...)
	if err != nil {
		return nil, err
	}
	return &View[T]{columns: set}, nil
}

// Columns returns the view's column descriptors.
func (v *View[T]) Columns() Columns[T] {
	return slices.Clone(v.columns)
}

// Load replaces the row set. Query and sort are kept. A nil slice is
// rejected; pass an empty slice for "no rows".
func (v *View[T]) Load(rows []T) error {
	if rows == nil {
		return ErrNilRows
	}
	v.mutate(func() bool {
		v.rows = cloneRows(rows)
		return true
	})
	return nil
}

// SetFilterQuery changes the search query. Setting the current query again
// does nothing.
func (v *View[T]) SetFilterQuery(text string) {
	v.mutate(func() bool {
		if text == v.query {
			return false
		}
		v.query = text
		return true
	})
}

// ToggleSort cycles key through none → ascending → descending → none. A
// newly sorted column becomes the least significant key.
func (v *View[T]) ToggleSort(key string) (SortSpec, error) {
	col, err := v.sortableColumn(key)
	if err != nil {
		return nil, err
	}
	var spec SortSpec
	v.mutate(func() bool {
		v.sort = v.sort.toggled(col.Key)
		spec = slices.Clone(v.sort)
		return true
	})
	return spec, nil
}

// SetSort replaces the whole sort spec. Setting the current spec again
// does nothing.
func (v *View[T]) SetSort(spec SortSpec) error {
	next := make(SortSpec, 0, len(spec))
	for _, k := range spec {
		col, err := v.sortableColumn(k.Column)
		if err != nil {
			return err
		}
		if k.Direction != Ascending && k.Direction != Descending {
			return fmt.Errorf("%w: %s", ErrInvalidDirection, k.Direction)
		}
		if next.Index(col.Key) >= 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateSortKey, col.Key)
		}
		next = append(next, SortKey{Column: col.Key, Direction: k.Direction})
	}
	v.mutate(func() bool {
		if slices.Equal(v.sort, next) {
			return false
		}
		v.sort = next
		return true
	})
	return nil
}

// ClearSort drops every sort key, restoring row set order.
func (v *View[T]) ClearSort() {
	v.mutate(func() bool {
		if len(v.sort) == 0 {
			return false
		}
		v.sort = nil
		return true
	})
}

// VisibleRows returns a copy of the filtered, sorted rows: nil before the
// first load, an empty slice when nothing matches.
func (v *View[T]) VisibleRows() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return cloneRows(v.visible)
}

// Snapshot returns a copy of the current derived state.
func (v *View[T]) Snapshot() Snapshot[T] {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snapshotLocked()
}

// State reports whether rows have been loaded.
func (v *View[T]) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.rows == nil {
		return StateEmpty
	}
	return StateLoaded
}

// Loaded is shorthand for State() == StateLoaded.
func (v *View[T]) Loaded() bool {
	return v.State() == StateLoaded
}

// Query returns the current search query.
func (v *View[T]) Query() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.query
}

// Sort returns a copy of the current sort spec.
func (v *View[T]) Sort() SortSpec {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.sort)
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (v *View[T]) Subscribe(fn Listener[T]) (unsubscribe func()) {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.listeners = append(v.listeners, subscription[T]{id: id, fn: fn})
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			v.listeners = slices.DeleteFunc(v.listeners, func(s subscription[T]) bool {
				return s.id == id
			})
		})
	}
}

// Dispose drops rows, query, sort and listeners. The view is empty again.
func (v *View[T]) Dispose() {
	v.opMu.Lock()
	defer v.opMu.Unlock()
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = nil
	v.visible = nil
	v.query = ""
	v.sort = nil
	v.listeners = nil
}

func (v *View[T]) sortableColumn(key string) (*Column[T], error) {
	col := v.columns.Find(key)
	if col == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, key)
	}
	if !col.Sortable {
		return nil, fmt.Errorf("%w: %s", ErrNotSortable, col.Key)
	}
	return col, nil
}

// mutate applies change under the state lock and, when it reports a
// change, recomputes and notifies listeners.
func (v *View[T]) mutate(change func() bool) {
	v.opMu.Lock()
	defer v.opMu.Unlock()

	v.mu.Lock()
	if !change() {
		v.mu.Unlock()
		return
	}
	v.recomputeLocked()
	snap := v.snapshotLocked()
	listeners := slices.Clone(v.listeners)
	v.mu.Unlock()

	for _, l := range listeners {
		l.fn(snap)
	}
}

// recomputeLocked rebuilds the visible rows from scratch.
func (v *View[T]) recomputeLocked() {
	if v.rows == nil {
		v.visible = nil
		return
	}
	fold := cases.Fold()
	filtered := filterRows(v.rows, MatchQuery(v.query, v.columns))
	v.visible = sortRows(filtered, v.sort, v.columns, fold)
}

func (v *View[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{
		Rows:   cloneRows(v.visible),
		Loaded: v.rows != nil,
		Total:  len(v.rows),
		Query:  v.query,
		Sort:   slices.Clone(v.sort),
	}
}

// cloneRows copies rows, keeping nil and empty distinct.
func cloneRows[T any](rows []T) []T {
	if rows == nil {
		return nil
	}
	out := make([]T, len(rows))
	copy(out, rows)
	return out
}
