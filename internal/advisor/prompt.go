package advisor

import (
	"encoding/csv"
	"fmt"
	"strings"

	"registro/internal/core"
	"registro/internal/ledger"
)

// SerializeLedger renders the movements as CSV with a stable column order,
// all fields included. The same input always produces the same text, so the
// model sees a reproducible view of the ledger.
func SerializeLedger(rows []core.Movement) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write([]string{ledger.ColDate, ledger.ColKind, ledger.ColCategory, ledger.ColDescription, ledger.ColAmount, ledger.ColOwner})
	for _, m := range rows {
		amount := core.FormatAmount(m.Amount)
		if m.RawAmount != "" {
			amount = m.RawAmount
		}
		_ = w.Write([]string{m.Date.String(), string(m.Kind), m.Category, m.Description, amount, m.Owner})
	}
	w.Flush()
	return sb.String()
}

// BuildRecommendationPrompt combines the full data table with the user's
// stated goal.
func BuildRecommendationPrompt(rows []core.Movement, goal string) string {
	return fmt.Sprintf(`Eres un asesor financiero inteligente. Un usuario tiene como objetivo "%s".
Aquí están sus datos financieros:

%s
Analiza sus ingresos, egresos y hábitos financieros.
1. ¿Qué recomendaciones puedes darle para mejorar su situación?
2. ¿Cómo puede optimizar su presupuesto para alcanzar su objetivo?
3. ¿Qué patrones o riesgos ves en sus finanzas?`, goal, SerializeLedger(rows))
}

// BuildBudgetPrompt asks for a three-month projection and per-category
// saving targets over the same serialized table.
func BuildBudgetPrompt(rows []core.Movement) string {
	return fmt.Sprintf(`Eres un experto en análisis financiero.
Con base en los siguientes registros del usuario:

%s
Genera una proyección mensual de sus gastos e ingresos esperados para los próximos 3 meses.
Sugiere un presupuesto realista y metas de ahorro por categoría.`, SerializeLedger(rows))
}
