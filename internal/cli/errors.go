package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/user/rowview/internal/dataview"
	"github.com/user/rowview/internal/model"
)

// Error codes for structured error responses
const (
	ErrCodeDatasetNotFound = "DATASET_NOT_FOUND"
	ErrCodeDatasetExists   = "DATASET_EXISTS"
	ErrCodeNoData          = "NO_DATA"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeInvalidSort     = "INVALID_SORT"
	ErrCodeFileNotFound    = "FILE_NOT_FOUND"
)

// JSONError represents a structured error response for --json output
type JSONError struct {
	Error   bool                   `json:"error"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ExitWithError outputs an error message and exits.
// If --json flag is set, outputs structured JSON error to stdout.
// Otherwise outputs plain text to stderr.
func ExitWithError(code int, errCode, message string, details map[string]interface{}) {
	if GetJSONOutput() {
		errResp := JSONError{
			Error:   true,
			Code:    errCode,
			Message: message,
			Details: details,
		}
		data, _ := json.Marshal(errResp)
		fmt.Fprintln(rootCmd.OutOrStdout(), string(data))
	} else {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", message)
	}
	Exit(code)
}

// ExitDatasetNotFound outputs a dataset not found error
func ExitDatasetNotFound(name string) {
	ExitWithError(1, ErrCodeDatasetNotFound,
		fmt.Sprintf("dataset '%s' not found (known: customers, employees)", name),
		map[string]interface{}{"dataset": name})
}

// ExitNoData outputs an error for a dataset without a data file
func ExitNoData(d model.Dataset) {
	ExitWithError(1, ErrCodeNoData,
		fmt.Sprintf("dataset '%s' has no data (run 'rowview seed %s' or 'rowview import %s <file>')", d, d, d),
		map[string]interface{}{"dataset": string(d)})
}

// ExitValidationError outputs a validation error
func ExitValidationError(message string, details map[string]interface{}) {
	ExitWithError(2, ErrCodeValidation, message, details)
}

// exitOnKnownError reports err through ExitWithError when it wraps a known
// sentinel and returns true. Unknown errors are left to the caller.
func exitOnKnownError(err error, d model.Dataset) bool {
	switch {
	case errors.Is(err, model.ErrDatasetExists):
		ExitWithError(1, ErrCodeDatasetExists,
			fmt.Sprintf("dataset '%s' already has data (use --overwrite)", d),
			map[string]interface{}{"dataset": string(d)})
	case errors.Is(err, model.ErrInvalidRecord),
		errors.Is(err, model.ErrEmptyValue),
		errors.Is(err, model.ErrDuplicateID):
		ExitValidationError(err.Error(), map[string]interface{}{"dataset": string(d)})
	case errors.Is(err, dataview.ErrUnknownColumn),
		errors.Is(err, dataview.ErrNotSortable),
		errors.Is(err, dataview.ErrDuplicateSortKey),
		errors.Is(err, dataview.ErrInvalidDirection),
		errors.Is(err, dataview.ErrInvalidColumn):
		ExitWithError(2, ErrCodeInvalidSort, err.Error(), map[string]interface{}{"dataset": string(d)})
	default:
		return false
	}
	return true
}
