package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/mail"
	"strings"
)

// Identified is implemented by every record type.
type Identified interface {
	RecordID() int64
}

// CheckUniqueIDs returns ErrDuplicateID naming the first repeated ID.
func CheckUniqueIDs[T Identified](records []T) error {
	seen := make(map[int64]bool, len(records))
	for _, r := range records {
		id := r.RecordID()
		if seen[id] {
			return fmt.Errorf("%w: %d", ErrDuplicateID, id)
		}
		seen[id] = true
	}
	return nil
}

// Fingerprint returns the first 12 hex characters of the SHA-256 of data.
// The cache uses it to tell whether a dataset file changed.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:12]
}

func validateID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: id must be positive, got %d", ErrInvalidRecord, id)
	}
	return nil
}

func validateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyValue, field)
	}
	return nil
}

func validateEmail(value string) error {
	if err := validateRequired("email", value); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return fmt.Errorf("%w: malformed email %q", ErrInvalidRecord, value)
	}
	return nil
}
