package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"registro/internal/advisor"
	"registro/internal/core"
	"registro/internal/ledger"
	"registro/internal/ledger/memory"
	applog "registro/internal/log"
	"registro/internal/services"
)

type stubGenerator struct {
	out string
	err error
}

func (g stubGenerator) Generate(_ context.Context, _ string) (string, error) {
	return g.out, g.err
}

func testServer(t *testing.T, gen advisor.Generator) (*Server, *memory.Store) {
	t.Helper()
	backend := memory.New()
	backend.Seed(ledger.Table{
		Header: ledger.DefaultHeader(true),
		Rows: [][]string{
			{"2024-01-05", "Ingreso", "Ventas", "venta mostrador", "1000.00", "ana@example.com"},
			{"2024-01-10", "Egreso", "Combustibles", "gasolina", "200.00", "ana@example.com"},
			{"2024-01-12", "Egreso", "Mercancías", "proveedor", "300.00", "beto@example.com"},
		},
	})
	store := ledger.NewStore(backend, backend, true)
	svc := services.NewLedgerService(store, nil)
	adv := advisor.NewService(gen)
	logger := applog.New(applog.DefaultConfig())
	return NewServer(":0", svc, adv, core.Rules{Catalog: core.DefaultCatalog()}, true, logger), backend
}

func doJSON(t *testing.T, srv *Server, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("%s %s: response is not JSON: %v\n%s", method, target, err, rec.Body.String())
		}
	}
	return rec, payload
}

func TestHealthz(t *testing.T) {
	srv, _ := testServer(t, nil)
	rec, payload := doJSON(t, srv, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || payload["status"] != "ok" {
		t.Fatalf("got %d %v", rec.Code, payload)
	}
}

func TestListMovements(t *testing.T) {
	srv, _ := testServer(t, nil)
	rec, payload := doJSON(t, srv, http.MethodGet, "/api/movements?owner=ana@example.com", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %v", rec.Code, payload)
	}
	movements := payload["movements"].([]any)
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements for ana, got %d", len(movements))
	}
	first := movements[0].(map[string]any)
	if first["date"] != "2024-01-05" || first["amount"] != "1000.00" || first["index"] != float64(0) {
		t.Fatalf("unexpected movement %v", first)
	}
}

func TestListMovementsRequiresOwner(t *testing.T) {
	srv, _ := testServer(t, nil)
	rec, _ := doJSON(t, srv, http.MethodGet, "/api/movements", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateMovement(t *testing.T) {
	srv, _ := testServer(t, nil)
	body := `{"owner":"ana@example.com","date":"2024-01-15","kind":"Egreso","category":"Otros","description":"varios","amount":"12,50"}`
	rec, payload := doJSON(t, srv, http.MethodPost, "/api/movements", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", rec.Code, payload)
	}
	movements := payload["movements"].([]any)
	if len(movements) != 3 {
		t.Fatalf("expected 3 movements after create, got %d", len(movements))
	}
	last := movements[2].(map[string]any)
	if last["amount"] != "12.50" || last["category"] != "Otros" {
		t.Fatalf("unexpected created row %v", last)
	}
}

func TestCreateMovementValidation(t *testing.T) {
	srv, _ := testServer(t, nil)
	cases := []struct {
		name string
		body string
	}{
		{"bad date", `{"owner":"a@b.c","date":"pronto","kind":"Egreso","category":"Otros","amount":"1"}`},
		{"bad kind", `{"owner":"a@b.c","date":"2024-01-15","kind":"Transferencia","category":"Otros","amount":"1"}`},
		{"category off catalog", `{"owner":"a@b.c","date":"2024-01-15","kind":"Egreso","category":"Ventas","amount":"1"}`},
	}
	for _, tc := range cases {
		rec, _ := doJSON(t, srv, http.MethodPost, "/api/movements", tc.body)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422, got %d", tc.name, rec.Code)
		}
	}

	// A malformed amount is rejected before validation.
	rec, _ := doJSON(t, srv, http.MethodPost, "/api/movements",
		`{"owner":"a@b.c","date":"2024-01-15","kind":"Egreso","category":"Otros","amount":"-5"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("negative amount: expected 422, got %d", rec.Code)
	}
}

func TestDeleteMovement(t *testing.T) {
	srv, _ := testServer(t, nil)
	rec, payload := doJSON(t, srv, http.MethodDelete, "/api/movements?owner=ana@example.com&index=0", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", rec.Code, payload)
	}
	movements := payload["movements"].([]any)
	if len(movements) != 1 {
		t.Fatalf("expected 1 movement left, got %d", len(movements))
	}

	rec, _ = doJSON(t, srv, http.MethodDelete, "/api/movements?owner=ana@example.com&index=9", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("out-of-range index: expected 422, got %d", rec.Code)
	}
}

func TestMonths(t *testing.T) {
	srv, _ := testServer(t, nil)
	rec, payload := doJSON(t, srv, http.MethodGet, "/api/months?owner=ana@example.com", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	months := payload["months"].([]any)
	if len(months) != 1 || months[0] != "2024-01" {
		t.Fatalf("unexpected months %v", months)
	}
}

func TestSummary(t *testing.T) {
	srv, _ := testServer(t, nil)
	rec, payload := doJSON(t, srv, http.MethodGet, "/api/summary?owner=ana@example.com&month=2024-01", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %v", rec.Code, payload)
	}
	if payload["income"] != "1000.00" || payload["expense"] != "200.00" || payload["balance"] != "800.00" {
		t.Fatalf("unexpected summary %v", payload)
	}
	if payload["note"] != "¡Buen trabajo! Tienes un balance positivo este mes." {
		t.Fatalf("unexpected note %v", payload["note"])
	}
}

func TestSummaryBadMonth(t *testing.T) {
	srv, _ := testServer(t, nil)
	rec, _ := doJSON(t, srv, http.MethodGet, "/api/summary?owner=ana@example.com&month=enero", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestCategories(t *testing.T) {
	srv, _ := testServer(t, nil)
	rec, payload := doJSON(t, srv, http.MethodGet, "/api/categories?owner=ana@example.com&kind=Egreso", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %v", rec.Code, payload)
	}
	categories := payload["categories"].([]any)
	if len(categories) != 1 {
		t.Fatalf("expected 1 expense category for ana, got %v", categories)
	}
	entry := categories[0].(map[string]any)
	if entry["category"] != "Combustibles" || entry["total"] != "200.00" {
		t.Fatalf("unexpected entry %v", entry)
	}

	rec, _ = doJSON(t, srv, http.MethodGet, "/api/categories?owner=ana@example.com", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing kind: expected 400, got %d", rec.Code)
	}
}

func TestDaily(t *testing.T) {
	srv, _ := testServer(t, nil)
	rec, payload := doJSON(t, srv, http.MethodGet, "/api/daily?owner=ana@example.com&month=2024-01", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %v", rec.Code, payload)
	}
	days := payload["days"].([]any)
	if len(days) != 2 {
		t.Fatalf("expected 2 day buckets, got %v", days)
	}
}

func TestCashflow(t *testing.T) {
	srv, _ := testServer(t, nil)
	rec, payload := doJSON(t, srv, http.MethodGet, "/api/cashflow?owner=ana@example.com&month=2024-01&opening=500", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %v", rec.Code, payload)
	}
	series := payload["series"].([]any)
	if len(series) != 2 {
		t.Fatalf("expected 2 points, got %v", series)
	}
	first := series[0].(map[string]any)
	lastPoint := series[1].(map[string]any)
	if first["balance"] != "1500.00" || lastPoint["balance"] != "1300.00" {
		t.Fatalf("unexpected series %v", series)
	}
	if payload["estimated"] != "1300.00" {
		t.Fatalf("unexpected estimated %v", payload["estimated"])
	}
	if _, present := payload["difference"]; present {
		t.Fatalf("difference must be absent without a reported balance")
	}
}

func TestCashflowReconciliation(t *testing.T) {
	srv, _ := testServer(t, nil)
	rec, payload := doJSON(t, srv, http.MethodGet,
		"/api/cashflow?owner=ana@example.com&month=2024-01&opening=500&reported=1250", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %v", rec.Code, payload)
	}
	if payload["reported"] != "1250.00" || payload["difference"] != "-50.00" {
		t.Fatalf("unexpected reconciliation %v", payload)
	}
}

func TestAdvice(t *testing.T) {
	srv, _ := testServer(t, stubGenerator{out: "gasta menos en gasolina"})
	rec, payload := doJSON(t, srv, http.MethodPost, "/api/advice", `{"owner":"ana@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %v", rec.Code, payload)
	}
	if payload["recommendations"] != "gasta menos en gasolina" {
		t.Fatalf("unexpected advice %v", payload)
	}
}

func TestAdviceUnavailable(t *testing.T) {
	srv, _ := testServer(t, stubGenerator{err: errors.New("quota exceeded")})
	rec, payload := doJSON(t, srv, http.MethodPost, "/api/advice", `{"owner":"ana@example.com"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	msg := payload["error"].(string)
	if !strings.Contains(msg, "ledger data is unaffected") {
		t.Fatalf("error should reassure about ledger data, got %q", msg)
	}
}

func TestBudget(t *testing.T) {
	srv, _ := testServer(t, stubGenerator{out: "presupuesto"})
	rec, payload := doJSON(t, srv, http.MethodPost, "/api/budget", `{"owner":"ana@example.com"}`)
	if rec.Code != http.StatusOK || payload["budget"] != "presupuesto" {
		t.Fatalf("got %d: %v", rec.Code, payload)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := testServer(t, nil)
	rec, _ := doJSON(t, srv, http.MethodPut, "/api/summary?owner=a@b.c&month=2024-01", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
