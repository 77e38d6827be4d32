package tools

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultLogRetentionDays is how long failed calls stay in the error log
const DefaultLogRetentionDays = 60

// ErrorLogFileName is the file written inside the log directory
const ErrorLogFileName = "tool-errors.log"

// ErrorLogEntry is one JSON line in the error log
type ErrorLogEntry struct {
	Timestamp string         `json:"timestamp"`
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Error     string         `json:"error"`
	ErrorType string         `json:"error_type,omitempty"`
	Transport string         `json:"transport,omitempty"`
}

// ErrorLogger appends failed tool calls to a JSON-lines file.
// A disabled or nil logger silently drops entries.
type ErrorLogger struct {
	mu        sync.Mutex
	file      *os.File
	path      string
	retention time.Duration
	logger    *logrus.Logger
	now       func() time.Time
}

// NewErrorLogger opens (or creates) the error log in dir and prunes entries older than the
// retention window. When enabled is false it returns a logger that records nothing.
func NewErrorLogger(dir string, enabled bool, logger *logrus.Logger) (*ErrorLogger, error) {
	l := &ErrorLogger{
		retention: DefaultLogRetentionDays * 24 * time.Hour,
		logger:    logger,
		now:       time.Now,
	}
	if !enabled {
		return l, nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	l.path = filepath.Join(dir, ErrorLogFileName)

	if err := l.prune(); err != nil && logger != nil {
		logger.WithError(err).Warn("Failed to prune tool error log")
	}
	if err := l.open(); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Infof("Tool error logging enabled: %s", l.path)
	}
	return l, nil
}

// Enabled reports whether entries are being written
func (l *ErrorLogger) Enabled() bool {
	return l != nil && l.path != ""
}

// Path returns the log file location, empty when disabled
func (l *ErrorLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Record appends one failed call
func (l *ErrorLogger) Record(toolName string, args map[string]any, err error, transport string) {
	if !l.Enabled() || err == nil {
		return
	}

	entry := ErrorLogEntry{
		Timestamp: l.now().UTC().Format(time.RFC3339),
		ToolName:  toolName,
		Arguments: args,
		Error:     err.Error(),
		ErrorType: fmt.Sprintf("%T", err),
		Transport: transport,
	}
	line, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		l.warn(marshalErr, "Failed to marshal tool error log entry")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return
	}
	if _, writeErr := l.file.Write(append(line, '\n')); writeErr != nil {
		l.warn(writeErr, "Failed to write tool error log entry")
	}
}

// Close releases the log file
func (l *ErrorLogger) Close() error {
	if !l.Enabled() {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *ErrorLogger) open() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open tool error log: %w", err)
	}
	l.file = f
	return nil
}

// prune rewrites the log keeping entries inside the retention window.
// Lines that cannot be parsed are kept.
func (l *ErrorLogger) prune() error {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	kept, err := filterEntries(f, l.now().Add(-l.retention))
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("failed to read tool error log: %w", err)
	}

	tmp := l.path + ".tmp"
	content := ""
	if len(kept) > 0 {
		content = strings.Join(kept, "\n") + "\n"
	}
	if err := os.WriteFile(tmp, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write pruned tool error log: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace tool error log: %w", err)
	}
	return nil
}

func filterEntries(r io.Reader, cutoff time.Time) ([]string, error) {
	var kept []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry ErrorLogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			kept = append(kept, line)
			continue
		}
		ts, err := time.Parse(time.RFC3339, entry.Timestamp)
		if err != nil || ts.After(cutoff) {
			kept = append(kept, line)
		}
	}
	return kept, scanner.Err()
}

func (l *ErrorLogger) warn(err error, msg string) {
	if l.logger != nil {
		l.logger.WithError(err).Warn(msg)
	}
}
