package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

type adviceRequest struct {
	Owner string `json:"owner"`
	Goal  string `json:"goal"`
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req adviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	owner := strings.TrimSpace(req.Owner)
	if s.multiTenant && owner == "" {
		writeError(w, http.StatusBadRequest, "owner is required")
		return
	}
	goal := strings.TrimSpace(req.Goal)
	if goal == "" {
		goal = "Ahorrar para un viaje"
	}

	rows, err := s.svc.Ledger(r.Context(), owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	text, err := s.advisor.Recommend(r.Context(), rows, goal)
	if err != nil {
		// Best-effort: advisory failure never touches ledger data.
		slog.WarnContext(r.Context(), "Advisory recommendation failed",
			"owner", owner, "operation", "advise", "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"recommendations": text})
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req adviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	owner := strings.TrimSpace(req.Owner)
	if s.multiTenant && owner == "" {
		writeError(w, http.StatusBadRequest, "owner is required")
		return
	}

	rows, err := s.svc.Ledger(r.Context(), owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	text, err := s.advisor.ProjectBudget(r.Context(), rows)
	if err != nil {
		slog.WarnContext(r.Context(), "Budget projection failed",
			"owner", owner, "operation", "advise", "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"budget": text})
}
