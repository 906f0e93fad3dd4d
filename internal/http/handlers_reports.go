package http

import (
	"log/slog"
	"net/http"
	"strings"

	"registro/internal/core"

	"github.com/shopspring/decimal"
)

// ownerRows loads the owner partition shared by every report handler.
// Returns false after writing the error response.
func (s *Server) ownerRows(w http.ResponseWriter, r *http.Request) (string, []core.Movement, bool) {
	owner, ok := s.ownerParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "owner is required")
		return "", nil, false
	}
	rows, err := s.svc.Ledger(r.Context(), owner)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load ledger",
			"owner", owner, "operation", "load", "error", err)
		writeDomainError(w, err)
		return "", nil, false
	}
	return owner, rows, true
}

func periodParam(w http.ResponseWriter, r *http.Request) (core.Period, bool) {
	p, err := core.ParsePeriod(strings.TrimSpace(r.URL.Query().Get("month")))
	if err != nil {
		writeDomainError(w, err)
		return core.Period{}, false
	}
	return p, true
}

func filterPeriod(rows []core.Movement, p core.Period) []core.Movement {
	out := make([]core.Movement, 0, len(rows))
	for _, m := range rows {
		if p.Contains(m.Date) {
			out = append(out, m)
		}
	}
	return out
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	_, rows, ok := s.ownerRows(w, r)
	if !ok {
		return
	}
	periods := core.Months(rows)
	out := make([]string, len(periods))
	for i, p := range periods {
		out[i] = p.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{"months": out})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	_, rows, ok := s.ownerRows(w, r)
	if !ok {
		return
	}
	p, ok := periodParam(w, r)
	if !ok {
		return
	}
	sum := core.MonthlySummary(rows, p)
	writeJSON(w, http.StatusOK, map[string]any{
		"month":   sum.Period.String(),
		"income":  core.FormatAmount(sum.Income),
		"expense": core.FormatAmount(sum.Expense),
		"balance": core.FormatAmount(sum.Balance),
		"note":    sum.Note(),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	_, rows, ok := s.ownerRows(w, r)
	if !ok {
		return
	}
	kind, ok := core.ParseKind(r.URL.Query().Get("kind"))
	if !ok {
		writeError(w, http.StatusBadRequest, "kind must be Ingreso or Egreso")
		return
	}
	// Optional month filter, matching the per-month pie charts.
	if monthStr := strings.TrimSpace(r.URL.Query().Get("month")); monthStr != "" {
		p, err := core.ParsePeriod(monthStr)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		rows = filterPeriod(rows, p)
	}

	totals := core.GroupByCategory(rows, kind)
	out := make([]map[string]string, len(totals))
	for i, t := range totals {
		out[i] = map[string]string{
			"category": t.Category,
			"total":    core.FormatAmount(t.Total),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"kind": string(kind), "categories": out})
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	_, rows, ok := s.ownerRows(w, r)
	if !ok {
		return
	}
	p, ok := periodParam(w, r)
	if !ok {
		return
	}
	totals := core.DailyBreakdown(filterPeriod(rows, p))
	out := make([]map[string]string, len(totals))
	for i, t := range totals {
		out[i] = map[string]string{
			"day":   t.Day.String(),
			"kind":  string(t.Kind),
			"total": core.FormatAmount(t.Total),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"month": p.String(), "days": out})
}

func (s *Server) handleCashflow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	_, rows, ok := s.ownerRows(w, r)
	if !ok {
		return
	}
	p, ok := periodParam(w, r)
	if !ok {
		return
	}

	// Opening balance is explicit user input per analysis; it is never
	// carried over from a prior month automatically.
	opening := decimal.Zero
	if v := strings.TrimSpace(r.URL.Query().Get("opening")); v != "" {
		parsed, err := core.ParseAmount(v)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		opening = parsed
	}

	series := core.CashflowSeries(filterPeriod(rows, p), opening)
	points := make([]map[string]string, len(series))
	estimated := opening
	for i, pt := range series {
		points[i] = map[string]string{
			"date":    pt.Date.String(),
			"balance": core.FormatAmount(pt.Balance),
		}
		estimated = pt.Balance
	}

	resp := map[string]any{
		"month":     p.String(),
		"opening":   core.FormatAmount(opening),
		"estimated": core.FormatAmount(estimated),
		"series":    points,
	}
	// Reconciliation happens only when a bank balance was reported; an
	// absent one means no reconciliation, not a zero difference.
	if v := strings.TrimSpace(r.URL.Query().Get("reported")); v != "" {
		reported, err := core.ParseAmount(v)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp["reported"] = core.FormatAmount(reported)
		resp["difference"] = core.FormatAmount(core.Reconcile(estimated, reported))
	}
	writeJSON(w, http.StatusOK, resp)
}
