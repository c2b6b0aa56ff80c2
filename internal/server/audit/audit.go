// Package audit appends one JSON line per accepted submission to an
// append-only log file.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is the audit record for one accepted submission.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	IP        string    `json:"ip"`
	Email     string    `json:"email"`
	Company   string    `json:"company"`
	Purpose   string    `json:"purpose"`
	EmailSent bool      `json:"email_sent"`
}

// Log serializes appends through a mutex on top of O_APPEND writes, so
// concurrent requests never interleave partial records.
type Log struct {
	mu   sync.Mutex
	path string
}

// NewLog creates an audit log writing to path, creating the parent
// directory if needed.
func NewLog(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}
	return &Log{path: path}, nil
}

// Append writes one entry as a single JSON line.
func (l *Log) Append(e Entry) error {
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode audit entry: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}
