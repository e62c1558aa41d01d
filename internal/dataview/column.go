package dataview

import (
	"fmt"
	"regexp"
	"strings"
)

// Column key validation:
// - Must start with a letter
// - Can contain letters, numbers, underscores
// - Max 64 characters
var columnKeyRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{0,63}$`)

// Column declares one field of T: how to read it, how to title it, and
// whether it takes part in sorting and searching.
type Column[T any] struct {
	Key    string
	Header string

	// Value renders the field as text. It feeds display, search and the
	// default comparator, and is required.
	Value func(T) string

	// Compare orders two records by this field. When nil, sortable columns
	// compare Value text.
	Compare func(a, b T) int

	Sortable   bool
	Searchable bool

	// CaseSensitive makes the default comparator compare raw text instead
	// of case-folded text.
	CaseSensitive bool
}

// Title returns the header, falling back to the key.
func (c *Column[T]) Title() string {
	if c.Header != "" {
		return c.Header
	}
	return c.Key
}

// ValidateColumnKey checks if a column key is valid.
func ValidateColumnKey(key string) error {
	if !columnKeyRegex.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidColumn, key)
	}
	return nil
}

// Columns is an ordered set of column descriptors with case-insensitive
// lookup.
type Columns[T any] []Column[T]

// NewColumns validates descriptors and returns them as a set.
func NewColumns[T any](cols ...Column[T]) (Columns[T], error) {
	if len(cols) == 0 {
		return nil, ErrNoColumns
	}
	set := make(Columns[T], 0, len(cols))
	for _, c := range cols {
		if err := ValidateColumnKey(c.Key); err != nil {
			return nil, err
		}
		if set.Exists(c.Key) {
			return nil, fmt.Errorf("%w: %s", ErrColumnExists, c.Key)
		}
		if c.Value == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingAccessor, c.Key)
		}
		set = append(set, c)
	}
	return set, nil
}

// Find returns the column with the given key (case-insensitive).
// Returns nil if not found.
func (cl Columns[T]) Find(key string) *Column[T] {
	if i := cl.Index(key); i >= 0 {
		return &cl[i]
	}
	return nil
}

// Exists returns true if a column with the given key exists (case-insensitive).
func (cl Columns[T]) Exists(key string) bool {
	return cl.Index(key) >= 0
}

// Index returns the position of the column with the given key
// (case-insensitive), or -1.
func (cl Columns[T]) Index(key string) int {
	for i := range cl {
		if strings.EqualFold(cl[i].Key, key) {
			return i
		}
	}
	return -1
}

// Keys returns all column keys in declaration order.
func (cl Columns[T]) Keys() []string {
	keys := make([]string, len(cl))
	for i, c := range cl {
		keys[i] = c.Key
	}
	return keys
}

// Searchable returns the columns that take part in query matching.
func (cl Columns[T]) Searchable() Columns[T] {
	var out Columns[T]
	for _, c := range cl {
		if c.Searchable {
			out = append(out, c)
		}
	}
	return out
}
