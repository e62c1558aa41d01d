// Package storage keeps datasets as JSONL files and serves them through a
// SQLite cache rebuilt from those files.
package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/user/rowview/internal/model"
)

// JSONLStore reads and writes one JSONL file per dataset. The files are the
// source of truth.
type JSONLStore struct {
	dataDir string
}

// NewJSONLStore creates a new JSONL store rooted at dataDir.
func NewJSONLStore(dataDir string) *JSONLStore {
	return &JSONLStore{dataDir: dataDir}
}

// Path returns the JSONL file of a dataset.
func (s *JSONLStore) Path(d model.Dataset) string {
	return filepath.Join(s.dataDir, d.FileName())
}

// Exists returns true if the dataset file exists.
func (s *JSONLStore) Exists(d model.Dataset) bool {
	_, err := os.Stat(s.Path(d))
	return err == nil
}

// readFile returns the raw file content, or nil if the file doesn't exist.
func (s *JSONLStore) readFile(d model.Dataset) ([]byte, error) {
	data, err := os.ReadFile(s.Path(d))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", d.FileName(), err)
	}
	return data, nil
}

// Decode parses JSONL from r, skipping blank lines.
func Decode[T any](r io.Reader) ([]T, error) {
	records := []T{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var record T
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("failed to parse record at line %d: %w", lineNum, err)
		}
		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading records: %w", err)
	}

	return records, nil
}

// WriteAll overwrites the dataset file with records. The write goes to a
// temp file in the same directory and is renamed into place.
func WriteAll[T any](s *JSONLStore, d model.Dataset, records []T) error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	path := s.Path(d)
	tmpFile, err := os.CreateTemp(s.dataDir, "."+string(d)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	writer := bufio.NewWriter(tmpFile)
	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			tmpFile.Close()
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		if _, err := writer.Write(data); err != nil {
			tmpFile.Close()
			return fmt.Errorf("failed to write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			tmpFile.Close()
			return fmt.Errorf("failed to write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
