// Package audit provides append-only structured logging for credential
// operations.
//
// Every Keychain access (add, find, delete, rotate) is recorded as
// newline-delimited JSON, by default at $XDG_STATE_HOME/credkeep/audit.log.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Action describes what happened.
type Action string

const (
	ActionCredentialAdd    Action = "credential_add"
	ActionCredentialRead   Action = "credential_read"
	ActionCredentialDelete Action = "credential_delete"
	ActionCredentialRotate Action = "credential_rotate"
)

// Entry is a single audit log record. Passwords are never recorded.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Action    Action    `json:"action"`
	Key       string    `json:"key,omitempty"`
	Service   string    `json:"service,omitempty"`
	Account   string    `json:"account,omitempty"`
	Actor     string    `json:"actor,omitempty"`   // "cli", "demo"
	Trigger   string    `json:"trigger,omitempty"` // "manual", "hook"
	Command   string    `json:"command,omitempty"` // rotation command if applicable
	Code      string    `json:"code,omitempty"`    // keychain error code on failure
	Error     string    `json:"error,omitempty"`
}

// Logger writes audit entries to an append-only file.
type Logger struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// NewLogger creates or opens an audit log file for appending.
func NewLogger(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating audit log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return &Logger{file: f, path: path}, nil
}

// Path returns the file the logger appends to.
func (l *Logger) Path() string {
	return l.path
}

// Log writes an audit entry.
func (l *Logger) Log(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling audit entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing audit entry: %w", err)
	}
	return nil
}

// Close closes the audit log file.
func (l *Logger) Close() error {
	return l.file.Close()
}
