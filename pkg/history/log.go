package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"shine-swap/pkg/types"
)

// MaxEntries caps the local swap log
const MaxEntries = 20

// Log is the capped, most-recent-first list of swaps submitted from this
// machine. The whole file is rewritten on every append.
type Log struct {
	filePath string
	mu       sync.RWMutex
	records  []types.SwapRecord
}

// OpenLog loads the log at filePath; a missing file is an empty log
func OpenLog(filePath string) (*Log, error) {
	l := &Log{filePath: filePath}

	if err := l.load(); err != nil {
		// If file doesn't exist, that's okay - we'll create it on first save
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load swap log: %w", err)
		}
	}
	return l, nil
}

// load reads records from the log file
func (l *Log) load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return err
	}

	var records []types.SwapRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to unmarshal swap log: %w", err)
	}
	if len(records) > MaxEntries {
		records = records[:MaxEntries]
	}
	l.records = records
	return nil
}

// save writes records to the log file; caller holds the lock
func (l *Log) save(records []types.SwapRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal swap log: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(l.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to temporary file first, then rename for atomic write
	tempFile := l.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write swap log: %w", err)
	}

	if err := os.Rename(tempFile, l.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Append puts rec at the front, drops anything past MaxEntries and persists
func (l *Log) Append(rec types.SwapRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := make([]types.SwapRecord, 0, MaxEntries)
	records = append(records, rec)
	records = append(records, l.records...)
	if len(records) > MaxEntries {
		records = records[:MaxEntries]
	}

	if err := l.save(records); err != nil {
		return err
	}
	l.records = records
	return nil
}

// List returns a copy, most recent first
func (l *Log) List() []types.SwapRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]types.SwapRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Count returns the number of stored records
func (l *Log) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.records)
}

// Path returns the file the log is stored in
func (l *Log) Path() string {
	return l.filePath
}
