package model

import (
	"fmt"
	"regexp"
	"strings"
)

// Dataset names a collection of records of one type.
type Dataset string

const (
	Customers Dataset = "customers"
	Employees Dataset = "employees"
)

// Dataset name validation:
// - Must start with a letter
// - Can contain letters, numbers, hyphens, underscores
// - Max 64 characters
var datasetNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{0,63}$`)

// Datasets lists the known datasets.
func Datasets() []Dataset {
	return []Dataset{Customers, Employees}
}

// ParseDataset resolves a dataset name (case-insensitive).
func ParseDataset(name string) (Dataset, error) {
	if !datasetNameRegex.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDataset, name)
	}
	for _, d := range Datasets() {
		if strings.EqualFold(string(d), name) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrDatasetNotFound, name)
}

func (d Dataset) String() string { return string(d) }

// FileName is the JSONL file holding the dataset.
func (d Dataset) FileName() string { return string(d) + ".jsonl" }
