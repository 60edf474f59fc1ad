// Package server is the read-only HTTP surface over the Snapshot archive
//: the orchestrator's one outward-facing endpoint, outside the core
// arbiter/executor subsystems.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// envelope is the standard response shape: a request-ID-tagged JSON
// envelope wrapping either data or an error.
type envelope struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
}

// requestID generates a unique request identifier.
func requestID() string {
	return "req_" + uuid.New().String()[:8]
}

// respondOK writes a success response with the standard envelope.
func respondOK(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusOK, reqID, data, "")
}

// respondError writes an error response with the standard envelope.
func respondError(w http.ResponseWriter, reqID string, status int, message string) {
	respondJSON(w, status, reqID, nil, message)
}

func respondJSON(w http.ResponseWriter, status int, reqID string, data any, errMsg string) {
	resp := envelope{
		RequestID: reqID,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Data:      data,
		Error:     errMsg,
	}
	if errMsg != "" {
		resp.Status = "error"
	} else {
		resp.Status = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
