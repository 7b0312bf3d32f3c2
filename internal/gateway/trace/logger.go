// Package trace records per-session events (backend calls, turns, client
// traces) as JSON lines.
package trace

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"speckit/internal/llm"
)

var sessionIDSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Event is one persisted trace line.
type Event struct {
	Timestamp string         `json:"timestamp"`
	SessionID string         `json:"session_id"`
	Source    string         `json:"source"`
	Stage     string         `json:"stage"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Logger appends events to <dir>/<session>.jsonl.
type Logger struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

func DefaultDir() string {
	return filepath.Join("tmp", "session_logs")
}

func NewLogger(dir string) *Logger {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		trimmed = DefaultDir()
	}
	_ = os.MkdirAll(trimmed, 0o755)
	return &Logger{dir: trimmed, now: time.Now}
}

func sanitizeSessionID(sessionID string) string {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return "unknown"
	}
	id = sessionIDSanitizer.ReplaceAllString(id, "_")
	if id == "" {
		return "unknown"
	}
	return id
}

func (l *Logger) filePath(sessionID string) string {
	return filepath.Join(l.dir, sanitizeSessionID(sessionID)+".jsonl")
}

// Append writes one trace line for the session. Field values are passed
// through llm.RedactMedia first. Write failures are dropped.
func (l *Logger) Append(sessionID, source, stage string, fields map[string]any) {
	if l == nil || strings.TrimSpace(sessionID) == "" {
		return
	}
	event := Event{
		Timestamp: l.now().UTC().Format(time.RFC3339Nano),
		SessionID: strings.TrimSpace(sessionID),
		Source:    strings.TrimSpace(source),
		Stage:     strings.TrimSpace(stage),
	}
	if len(fields) > 0 {
		if m, ok := llm.RedactMedia(fields).(map[string]any); ok {
			event.Fields = m
		}
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}
	raw = append(raw, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_ = os.MkdirAll(l.dir, 0o755)
	f, err := os.OpenFile(l.filePath(sessionID), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.Write(raw)
}

// Read returns all persisted events of a session, skipping malformed lines.
func (l *Logger) Read(sessionID string) ([]Event, error) {
	if l == nil {
		return nil, nil
	}
	f, err := os.Open(l.filePath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return []Event{}, nil
		}
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()

	out := make([]Event, 0, 64)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		out = append(out, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan trace file: %w", err)
	}
	return out, nil
}

// Hook returns a PromptHook that records the backend calls of one session.
func (l *Logger) Hook(sessionID string) llm.PromptHook {
	return &promptHook{logger: l, sessionID: sessionID, started: map[string]time.Time{}}
}

type promptHook struct {
	logger    *Logger
	sessionID string

	mu      sync.Mutex
	started map[string]time.Time
}

func (h *promptHook) Before(_ context.Context, phase string, req llm.Request) {
	h.mu.Lock()
	h.started[phase] = time.Now()
	h.mu.Unlock()
	h.logger.Append(h.sessionID, "llm", phase+".request", map[string]any{
		"system_bytes": len(req.System),
		"prompt":       req.Prompt,
		"images":       req.Images,
		"json":         req.JSON,
	})
}

func (h *promptHook) After(_ context.Context, phase string, raw string, err error) {
	h.mu.Lock()
	start, ok := h.started[phase]
	delete(h.started, phase)
	h.mu.Unlock()

	fields := map[string]any{"response": raw}
	if ok {
		fields["duration_ms"] = time.Since(start).Milliseconds()
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	h.logger.Append(h.sessionID, "llm", phase+".response", fields)
}
