// Package http exposes the ledger to the presentation layer as a JSON API.
// Forms, tables and charts live client-side; handlers only validate input,
// call the service layer and shape aggregation results.
package http

import (
	"net/http"

	"registro/internal/advisor"
	"registro/internal/core"
	applog "registro/internal/log"
	"registro/internal/services"
)

type Server struct {
	http.Server
	svc         *services.LedgerService
	advisor     *advisor.Service
	rules       core.Rules
	multiTenant bool
}

func NewServer(addr string, svc *services.LedgerService, adv *advisor.Service, rules core.Rules, multiTenant bool, logger *applog.Logger) *Server {
	s := &Server{
		svc:         svc,
		advisor:     adv,
		rules:       rules,
		multiTenant: multiTenant,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/movements", s.handleMovements)
	mux.HandleFunc("/api/months", s.handleMonths)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/api/categories", s.handleCategories)
	mux.HandleFunc("/api/daily", s.handleDaily)
	mux.HandleFunc("/api/cashflow", s.handleCashflow)
	mux.HandleFunc("/api/advice", s.handleAdvice)
	mux.HandleFunc("/api/budget", s.handleBudget)

	s.Addr = addr
	s.Handler = applog.Middleware(logger)(mux)
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
