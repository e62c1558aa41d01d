// Package dataview provides a filtered, multi-column sorted projection over a
// set of records, recomputed whenever its rows, query or sort order change.
package dataview

import "errors"

// Errors returned by view configuration and mutation.
var (
	ErrNilRows          = errors.New("rows must not be nil")
	ErrUnknownColumn    = errors.New("unknown column")
	ErrNotSortable      = errors.New("column is not sortable")
	ErrDuplicateSortKey = errors.New("column appears more than once in sort")
	ErrInvalidDirection = errors.New("invalid sort direction")
	ErrInvalidColumn    = errors.New("invalid column key")
	ErrColumnExists     = errors.New("column already exists")
	ErrMissingAccessor  = errors.New("column has no value accessor")
	ErrNoColumns        = errors.New("view needs at least one column")
)
