/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - HTTP API
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"encoding/json"
	"net/http"
)

// maxQueryBody bounds the request body of /api/query
const maxQueryBody = 64 * 1024

// QueryRequest is the body of POST /api/query
type QueryRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if s.cfg.Store != nil {
		resp["knowledge_loaded"] = s.cfg.Store.Loaded()
		resp["entries"] = s.cfg.Store.Len()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBody)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	// An empty question is still answered
	answer := s.cfg.Answerer.ProcessQuery(r.Context(), req.Query)
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		jsonError(w, "knowledge store not configured", http.StatusServiceUnavailable)
		return
	}
	s.cfg.Store.Load(r.Context())
	writeJSON(w, http.StatusOK, s.cfg.Store.Stats())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
