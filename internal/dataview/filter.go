package dataview

import (
	"strings"

	"golang.org/x/text/cases"
)

// Predicate reports whether a record belongs in the visible rows.
type Predicate[T any] func(T) bool

// PassAll accepts every record.
func PassAll[T any](T) bool { return true }

// MatchQuery returns the predicate for a search query: a record passes when
// query is empty or occurs, case-insensitively, in any searchable column.
// The query is matched literally. The returned predicate is not safe for
// concurrent use.
func MatchQuery[T any](query string, cols Columns[T]) Predicate[T] {
	if query == "" {
		return PassAll[T]
	}
	fold := cases.Fold()
	needle := fold.String(query)
	searchable := cols.Searchable()
	return func(r T) bool {
		for i := range searchable {
			if strings.Contains(fold.String(searchable[i].Value(r)), needle) {
				return true
			}
		}
		return false
	}
}

// filterRows keeps rows that pass p, in order. The result is never nil.
func filterRows[T any](rows []T, p Predicate[T]) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if p(r) {
			out = append(out, r)
		}
	}
	return out
}
