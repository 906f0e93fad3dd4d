package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"registro/internal/core"
)

type movementJSON struct {
	Index       int    `json:"index"`
	Date        string `json:"date"`
	Kind        string `json:"kind"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Owner       string `json:"owner,omitempty"`
}

func toMovementJSON(rows []core.Movement) []movementJSON {
	out := make([]movementJSON, len(rows))
	for i, m := range rows {
		amount := core.FormatAmount(m.Amount)
		if m.RawAmount != "" {
			amount = m.RawAmount
		}
		out[i] = movementJSON{
			Index:       i,
			Date:        m.Date.String(),
			Kind:        string(m.Kind),
			Category:    m.Category,
			Description: m.Description,
			Amount:      amount,
			Owner:       m.Owner,
		}
	}
	return out
}

func (s *Server) handleMovements(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listMovements(w, r)
	case http.MethodPost:
		s.createMovement(w, r)
	case http.MethodDelete:
		s.deleteMovement(w, r)
	default:
		methodNotAllowed(w, "GET, POST, DELETE")
	}
}

func (s *Server) listMovements(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "owner is required")
		return
	}
	rows, err := s.svc.Ledger(r.Context(), owner)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load ledger",
			"owner", owner, "operation", "load", "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"movements": toMovementJSON(rows)})
}

type createMovementRequest struct {
	Owner       string `json:"owner"`
	Date        string `json:"date"`
	Kind        string `json:"kind"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

func (s *Server) createMovement(w http.ResponseWriter, r *http.Request) {
	var req createMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	owner := strings.TrimSpace(req.Owner)
	if s.multiTenant && owner == "" {
		writeError(w, http.StatusBadRequest, "owner is required")
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	candidate := core.Movement{
		Date:        core.ParseDate(req.Date),
		Category:    req.Category,
		Description: req.Description,
		Amount:      amount,
		Owner:       owner,
	}
	if k, ok := core.ParseKind(req.Kind); ok {
		candidate.Kind = k
	} else {
		candidate.Kind = core.Kind(req.Kind)
	}

	m, err := core.Validate(candidate, s.rules)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	rows, err := s.svc.Record(r.Context(), owner, m)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to record movement",
			"owner", owner,
			"kind", string(m.Kind),
			"category", m.Category,
			"operation", "record",
			"error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"movements": toMovementJSON(rows)})
}

func (s *Server) deleteMovement(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "owner is required")
		return
	}
	index, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("index")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be a row number")
		return
	}

	rows, err := s.svc.Delete(r.Context(), owner, index)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete movement",
			"owner", owner, "row_index", index, "operation", "delete", "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"movements": toMovementJSON(rows)})
}
