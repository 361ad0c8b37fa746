// Package audit appends raw webhook requests to a local log file. Writes
// are best-effort: an audit failure must never block or fail the pipeline.
package audit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger is an append-only sink for raw request payloads.
// A nil *Logger is a valid no-op sink.
type Logger struct {
	mu sync.Mutex
	f  *os.File
}

type entry struct {
	Time    time.Time       `json:"time"`
	Method  string          `json:"method"`
	Path    string          `json:"path"`
	Headers http.Header     `json:"headers"`
	Body    json.RawMessage `json:"body,omitempty"`
	RawBody string          `json:"raw_body,omitempty"`
}

// Open creates the audit log at path, creating parent directories as needed.
// An empty path disables auditing and returns a nil Logger.
func Open(path string) (*Logger, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("audit log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("audit log open: %w", err)
	}
	return &Logger{f: f}, nil
}

// Record appends one request to the log. Body is logged as JSON when it
// parses, raw otherwise.
func (l *Logger) Record(r *http.Request, body []byte) error {
	if l == nil {
		return nil
	}

	e := entry{
		Time:    time.Now().UTC(),
		Method:  r.Method,
		Path:    r.URL.Path,
		Headers: r.Header,
	}
	if json.Valid(body) {
		e.Body = json.RawMessage(body)
	} else {
		e.RawBody = string(body)
	}

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("audit marshal: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit write: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	return l.f.Close()
}
