package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Period identifies one calendar month for reporting.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses the "2006-01" form used across the API.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, &ValidationError{Field: "month", Reason: "expected YYYY-MM"}
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Contains reports whether the date falls inside the period. Invalid dates
// belong to no period; they are never silently assigned to a default one.
func (p Period) Contains(d Date) bool {
	return d.Valid() && d.Year() == p.Year && d.Month() == p.Month
}

// Summary holds the monthly totals by movement kind.
type Summary struct {
	Period  Period
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
}

// Note is the "Consejo del mes" one-liner classifying the month.
func (s Summary) Note() string {
	switch {
	case s.Balance.IsNegative():
		return "Este mes gastaste más de lo que ingresaste. Revisa tus egresos."
	case s.Balance.IsPositive():
		return "¡Buen trabajo! Tienes un balance positivo este mes."
	default:
		return "Tus ingresos y egresos están equilibrados."
	}
}

type (
	// CategoryTotal is a summed amount for one category.
	CategoryTotal struct {
		Category string
		Total    decimal.Decimal
	}

	// DailyTotal is the summed amount for one (day, kind) pair.
	DailyTotal struct {
		Day   Date
		Kind  Kind
		Total decimal.Decimal
	}

	// CashPoint is one step of the running cash-flow balance.
	CashPoint struct {
		Date    Date
		Balance decimal.Decimal
	}
)

// MonthlySummary sums amounts by kind over the movements whose date falls in
// the given month. Zero matching rows yield zero totals, not an error.
func MonthlySummary(rows []Movement, p Period) Summary {
	s := Summary{Period: p, Income: decimal.Zero, Expense: decimal.Zero}
	for _, m := range rows {
		if !p.Contains(m.Date) {
			continue
		}
		switch m.Kind {
		case Income:
			s.Income = s.Income.Add(m.Amount)
		case Expense:
			s.Expense = s.Expense.Add(m.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expense)
	return s
}

// GroupByCategory sums amounts of the given kind per category, returned in
// stable order by category name.
func GroupByCategory(rows []Movement, k Kind) []CategoryTotal {
	byCat := map[string]decimal.Decimal{}
	for _, m := range rows {
		if m.Kind != k {
			continue
		}
		byCat[m.Category] = byCat[m.Category].Add(m.Amount)
	}
	names := make([]string, 0, len(byCat))
	for name := range byCat {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]CategoryTotal, 0, len(names))
	for _, name := range names {
		out = append(out, CategoryTotal{Category: name, Total: byCat[name]})
	}
	return out
}

// DailyBreakdown sums amounts per (day, kind), ordered by day ascending and
// kind within the same day. Rows without a valid date have no day bucket and
// are skipped.
func DailyBreakdown(rows []Movement) []DailyTotal {
	type key struct {
		day  time.Time
		kind Kind
	}
	totals := map[key]decimal.Decimal{}
	for _, m := range rows {
		if !m.Date.Valid() {
			continue
		}
		k := key{day: m.Date.Time, kind: m.Kind}
		totals[k] = totals[k].Add(m.Amount)
	}
	keys := make([]key, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].day.Equal(keys[j].day) {
			return keys[i].day.Before(keys[j].day)
		}
		return keys[i].kind < keys[j].kind
	})
	out := make([]DailyTotal, 0, len(keys))
	for _, k := range keys {
		out = append(out, DailyTotal{
			Day:   Date{Time: k.day},
			Kind:  k.kind,
			Total: totals[k],
		})
	}
	return out
}

// CashflowSeries accumulates the signed amounts onto an opening balance,
// one point per movement. Rows are sorted ascending by date with a stable
// sort, so same-day movements keep their input order and yield multiple
// points with the same date. Rows without a valid date cannot be placed on
// the timeline and are skipped.
func CashflowSeries(rows []Movement, opening decimal.Decimal) []CashPoint {
	dated := make([]Movement, 0, len(rows))
	for _, m := range rows {
		if m.Date.Valid() {
			dated = append(dated, m)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].Date.Time.Before(dated[j].Date.Time)
	})
	out := make([]CashPoint, 0, len(dated))
	running := opening
	for _, m := range dated {
		running = running.Add(m.Signed())
		out = append(out, CashPoint{Date: m.Date, Balance: running})
	}
	return out
}

// Reconcile returns reported minus estimated. Whether a reported bank balance
// exists at all is the caller's decision; an absent one means no
// reconciliation, not a zero difference.
func Reconcile(estimated, reported decimal.Decimal) decimal.Decimal {
	return reported.Sub(estimated)
}

// Months lists the distinct periods that have at least one dated movement,
// sorted ascending. This drives the month selector of the analysis views.
func Months(rows []Movement) []Period {
	seen := map[Period]bool{}
	for _, m := range rows {
		if !m.Date.Valid() {
			continue
		}
		seen[Period{Year: m.Date.Year(), Month: m.Date.Month()}] = true
	}
	out := make([]Period, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}
