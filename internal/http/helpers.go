package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"registro/internal/advisor"
	"registro/internal/core"
	"registro/internal/ledger"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Every error
// reaches the interactive caller as a human-readable message.
func writeDomainError(w http.ResponseWriter, err error) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusUnprocessableEntity, ve.Error())
	case errors.Is(err, ledger.ErrStaleWrite):
		writeError(w, http.StatusConflict, "the ledger changed while saving; reload and retry")
	case errors.Is(err, ledger.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "ledger store unavailable")
	case errors.Is(err, advisor.ErrAdvisoryUnavailable):
		writeError(w, http.StatusServiceUnavailable, "financial advisor unavailable; ledger data is unaffected")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ownerParam resolves the acting owner. Required in multi-tenant mode; in
// the single-tenant variant the whole store belongs to one user and the
// parameter is ignored.
func (s *Server) ownerParam(r *http.Request) (string, bool) {
	owner := strings.TrimSpace(r.URL.Query().Get("owner"))
	if s.multiTenant && owner == "" {
		return "", false
	}
	return owner, true
}
