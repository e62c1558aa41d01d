package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataset(t *testing.T) {
	tests := []struct {
		input   string
		want    Dataset
		wantErr error
	}{
		{"customers", Customers, nil},
		{"Employees", Employees, nil},
		{"CUSTOMERS", Customers, nil},
		{"orders", "", ErrDatasetNotFound},
		{"", "", ErrInvalidDataset},
		{"1abc", "", ErrInvalidDataset},
		{"bad name", "", ErrInvalidDataset},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDataset(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDatasetFileName(t *testing.T) {
	assert.Equal(t, "customers.jsonl", Customers.FileName())
	assert.Equal(t, "employees.jsonl", Employees.FileName())
}
