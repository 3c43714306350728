package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/splitsync/internal/middleware"
	"github.com/mmynk/splitsync/internal/models"
	"github.com/mmynk/splitsync/internal/service"
)

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	var req models.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid push request body")
		return
	}
	if req.ClientGroupID == "" {
		writeError(w, http.StatusBadRequest, "clientGroupID is required")
		return
	}

	userID := middleware.GetUserID(r.Context())
	resp, err := s.sync.Push(r.Context(), userID, req)
	if err != nil {
		slog.Error("push failed", "client_group_id", req.ClientGroupID, "error", err)
		writeError(w, http.StatusInternalServerError, "push failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	var req models.PullRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid pull request body")
		return
	}

	userID := middleware.GetUserID(r.Context())
	resp, err := s.sync.Pull(r.Context(), userID, req)
	if err != nil {
		if errors.Is(err, service.ErrClientStateNotFound) {
			// The client's replica is ahead of anything we know; it must
			// reset and resync.
			writeError(w, http.StatusBadRequest, service.ErrClientStateNotFound.Error())
			return
		}
		if errors.Is(err, service.ErrVersionNotSupported) {
			writeError(w, http.StatusBadRequest, service.ErrVersionNotSupported.Error())
			return
		}
		slog.Error("pull failed", "client_group_id", req.ClientGroupID, "error", err)
		writeError(w, http.StatusInternalServerError, "pull failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOwed(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "group id is required")
		return
	}

	userID := middleware.GetUserID(r.Context())
	owed, err := s.ledger.ComputeOwed(r.Context(), groupID, userID)
	if err != nil {
		slog.Error("owed computation failed", "group_id", groupID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute balances")
		return
	}

	writeJSON(w, http.StatusOK, owed)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
