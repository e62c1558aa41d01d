// Package model provides the record types rowview displays.
package model

import "errors"

// Error types for record and dataset operations
var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrInvalidDataset  = errors.New("invalid dataset name")
	ErrInvalidRecord   = errors.New("invalid record")
	ErrEmptyValue      = errors.New("empty value not allowed")
	ErrDuplicateID     = errors.New("duplicate record ID")
	ErrDatasetExists   = errors.New("dataset already has data")
)
