package dataview

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Direction is the order applied to one sort column.
type Direction int

const (
	Ascending Direction = iota + 1
	Descending
)

// String returns "asc" or "desc".
func (d Direction) String() string {
	switch d {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Arrow returns a one-character marker for headers.
func (d Direction) Arrow() string {
	if d == Descending {
		return "▼"
	}
	return "▲"
}

// ParseDirection accepts asc/ascending and desc/descending, any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// SortKey orders by one column.
type SortKey struct {
	Column    string
	Direction Direction
}

// String returns "column:dir".
func (k SortKey) String() string {
	return k.Column + ":" + k.Direction.String()
}

// ParseSortKey parses "name", "+name", "-name", "name:asc" or "name:desc".
// The column is not checked against any view.
func ParseSortKey(s string) (SortKey, error) {
	s = strings.TrimSpace(s)
	key := SortKey{Direction: Ascending}
	switch {
	case strings.HasPrefix(s, "-"):
		key.Direction = Descending
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if col, dir, ok := strings.Cut(s, ":"); ok {
		d, err := ParseDirection(dir)
		if err != nil {
			return SortKey{}, err
		}
		key.Direction = d
		s = col
	}
	if err := ValidateColumnKey(s); err != nil {
		return SortKey{}, err
	}
	key.Column = s
	return key, nil
}

// SortSpec lists sort keys, most significant first. An empty spec keeps
// row set order.
type SortSpec []SortKey

// Index returns the position of column in the spec (case-insensitive), or -1.
func (s SortSpec) Index(column string) int {
	for i, k := range s {
		if strings.EqualFold(k.Column, column) {
			return i
		}
	}
	return -1
}

// Direction reports how column is sorted, if at all.
func (s SortSpec) Direction(column string) (Direction, bool) {
	if i := s.Index(column); i >= 0 {
		return s[i].Direction, true
	}
	return 0, false
}

// String joins keys as "name:asc,email:desc".
func (s SortSpec) String() string {
	parts := make([]string, len(s))
	for i, k := range s {
		parts[i] = k.String()
	}
	return strings.Join(parts, ",")
}

// toggled cycles column through none → asc → desc → none, returning a new spec.
func (s SortSpec) toggled(column string) SortSpec {
	out := slices.Clone(s)
	i := out.Index(column)
	switch {
	case i < 0:
		return append(out, SortKey{Column: column, Direction: Ascending})
	case out[i].Direction == Ascending:
		out[i].Direction = Descending
		return out
	default:
		return slices.Delete(out, i, i+1)
	}
}

// HeaderLabel renders a column title with its sort direction and priority,
// e.g. "Name ▲1". Unsorted columns get the plain title.
func HeaderLabel[T any](col *Column[T], spec SortSpec) string {
	title := col.Title()
	if i := spec.Index(col.Key); i >= 0 {
		return fmt.Sprintf("%s %s%d", title, spec[i].Direction.Arrow(), i+1)
	}
	return title
}

// rowComparator compares rows by their positions in the slice being sorted.
type rowComparator func(a, b int) int

// comparatorFor builds the comparator of one sort key over rows. Text keys
// are extracted once per recompute.
func comparatorFor[T any](rows []T, col *Column[T], dir Direction, fold cases.Caser) rowComparator {
	var cmp rowComparator
	if col.Compare != nil {
		cmp = func(a, b int) int { return col.Compare(rows[a], rows[b]) }
	} else {
		keys := make([]string, len(rows))
		for i, r := range rows {
			v := col.Value(r)
			if !col.CaseSensitive {
				v = fold.String(v)
			}
			keys[i] = v
		}
		cmp = func(a, b int) int { return strings.Compare(keys[a], keys[b]) }
	}
	if dir == Descending {
		return func(a, b int) int { return -cmp(a, b) }
	}
	return cmp
}

// sortRows returns rows stably ordered by spec. Rows equal under every key
// keep their input order.
func sortRows[T any](rows []T, spec SortSpec, cols Columns[T], fold cases.Caser) []T {
	if len(spec) == 0 || len(rows) < 2 {
		return rows
	}
	cmps := make([]rowComparator, 0, len(spec))
	for _, k := range spec {
		col := cols.Find(k.Column)
		if col == nil {
			continue
		}
		cmps = append(cmps, comparatorFor(rows, col, k.Direction, fold))
	}

	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		for _, cmp := range cmps {
			if c := cmp(a, b); c != 0 {
				return c
			}
		}
		return 0
	})

	sorted := make([]T, len(rows))
	for i, j := range order {
		sorted[i] = rows[j]
	}
	return sorted
}
