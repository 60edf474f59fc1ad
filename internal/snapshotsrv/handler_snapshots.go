package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleGetSnapshot serves a single persisted Snapshot by UUID.
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	uuid := chi.URLParam(r, "uuid")

	snap, err := s.store.GetSnapshot(r.Context(), uuid)
	if err != nil {
		s.logger.Error("get snapshot", "uuid", uuid, "error", err)
		respondError(w, reqID, http.StatusInternalServerError, "failed to load snapshot")
		return
	}
	if snap == nil {
		respondError(w, reqID, http.StatusNotFound, "snapshot not found")
		return
	}
	respondOK(w, reqID, snap)
}

// handleListSnapshots serves the most recent Snapshots, newest first.
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	snaps, err := s.store.ListSnapshots(r.Context(), limit)
	if err != nil {
		s.logger.Error("list snapshots", "error", err)
		respondError(w, reqID, http.StatusInternalServerError, "failed to list snapshots")
		return
	}
	respondOK(w, reqID, snaps)
}
