// Package audit provides an append-only change log of the files refcheck
// rewrites, stored as JSON lines under the project's state directory.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/brightai/refcheck/internal/project"
)

// Operations recorded in the log.
const (
	OpRunStart  = "run-start"
	OpRewrite   = "rewrite"
	OpRunFinish = "run-finish"
)

// FileName is the log's name inside the state directory.
const FileName = "audit.log"

// Entry is a single audit log line.
type Entry struct {
	Timestamp time.Time              `json:"ts"`
	Operation string                 `json:"op"`
	Pipeline  string                 `json:"pipeline"` // links, resources
	File      string                 `json:"file,omitempty"`
	Edits     int                    `json:"edits,omitempty"`
	Kinds     map[string]int         `json:"kinds,omitempty"` // Edit kind -> count
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

// Logger appends entries to the audit log.
type Logger struct {
	path    string
	enabled bool
	mu      sync.Mutex
}

// New creates a logger for the project at root.
// If enabled is false, the logger is a no-op.
func New(root string, enabled bool) *Logger {
	if !enabled {
		return &Logger{enabled: false}
	}
	return &Logger{
		path:    filepath.Join(root, project.StateDir, FileName),
		enabled: true,
	}
}

// Log appends entry to the log.
func (l *Logger) Log(entry Entry) error {
	if l == nil || !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// LogRunStart records the start of a fix run.
func (l *Logger) LogRunStart(pipeline string, dryRun bool) error {
	return l.Log(Entry{
		Operation: OpRunStart,
		Pipeline:  pipeline,
		Extra:     map[string]interface{}{"dry_run": dryRun},
	})
}

// LogRewrite records one rewritten file.
func (l *Logger) LogRewrite(pipeline, file string, kinds map[string]int) error {
	edits := 0
	for _, n := range kinds {
		edits += n
	}
	return l.Log(Entry{
		Operation: OpRewrite,
		Pipeline:  pipeline,
		File:      file,
		Edits:     edits,
		Kinds:     kinds,
	})
}

// LogRunFinish records the end of a fix run with its before/after counts.
func (l *Logger) LogRunFinish(pipeline string, changedFiles int, extra map[string]interface{}) error {
	if extra == nil {
		extra = make(map[string]interface{})
	}
	extra["changed_files"] = changedFiles
	return l.Log(Entry{
		Operation: OpRunFinish,
		Pipeline:  pipeline,
		Extra:     extra,
	})
}

// Read returns every entry in the log. Malformed lines are skipped.
func (l *Logger) Read() ([]Entry, error) {
	if l == nil || !l.enabled {
		return nil, nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	var entries []Entry
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ReadForFile returns the rewrite entries for one project-relative file.
func (l *Logger) ReadForFile(file string) ([]Entry, error) {
	all, err := l.Read()
	if err != nil {
		return nil, err
	}
	var filtered []Entry
	for _, entry := range all {
		if entry.Operation == OpRewrite && entry.File == file {
			filtered = append(filtered, entry)
		}
	}
	return filtered, nil
}

// Enabled reports whether entries are written.
func (l *Logger) Enabled() bool {
	return l != nil && l.enabled
}
