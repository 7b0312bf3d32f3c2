// Package handler holds the plain HTTP debug endpoints.
package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"speckit/internal/gateway/trace"
)

type TraceHandler struct {
	logger *trace.Logger
}

func NewTraceHandler(logger *trace.Logger) *TraceHandler {
	return &TraceHandler{logger: logger}
}

// HandleFrontendTrace records a client-side event in the session log.
func (h *TraceHandler) HandleFrontendTrace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var in struct {
		Timestamp string         `json:"timestamp"`
		SessionID string         `json:"session_id"`
		Stage     string         `json:"stage"`
		Level     string         `json:"level"`
		Fields    map[string]any `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	sessionID := strings.TrimSpace(in.SessionID)
	stage := strings.TrimSpace(in.Stage)
	if sessionID == "" || stage == "" {
		http.Error(w, "session_id and stage are required", http.StatusBadRequest)
		return
	}
	fields := map[string]any{}
	for k, v := range in.Fields {
		fields[k] = v
	}
	if lvl := strings.TrimSpace(in.Level); lvl != "" {
		fields["level"] = lvl
	}
	if ts := strings.TrimSpace(in.Timestamp); ts != "" {
		fields["frontend_timestamp"] = ts
	}
	h.logger.Append(sessionID, "frontend", stage, fields)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok": true,
	})
}

// HandleSessionLogs returns every logged event of a session.
func (h *TraceHandler) HandleSessionLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}
	events, err := h.logger.Read(sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"session_id": sessionID,
		"events":     events,
	})
}
