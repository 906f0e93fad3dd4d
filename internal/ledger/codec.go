package ledger

import (
	"fmt"
	"strings"

	"registro/internal/core"
)

// Canonical column names of the persisted layout. Column order in a backend
// is not significant; the layout is resolved from the header.
const (
	ColDate        = "Fecha"
	ColKind        = "Tipo"
	ColCategory    = "Categoría"
	ColDescription = "Descripción"
	ColAmount      = "Monto"
	ColOwner       = "Usuario"
)

// Layout maps the schema columns onto positions in a concrete header.
// An owner index of -1 means the backend is single-tenant.
type Layout struct {
	date, kind, category, description, amount, owner int
	width                                            int
}

// HasOwner reports whether the backend carries the Usuario column.
func (l Layout) HasOwner() bool {
	return l.owner >= 0
}

// DefaultHeader is the header written to an empty backend.
func DefaultHeader(multiTenant bool) []string {
	h := []string{ColDate, ColKind, ColCategory, ColDescription, ColAmount}
	if multiTenant {
		h = append(h, ColOwner)
	}
	return h
}

// headerAliases accepts the accent-less spellings that show up in manually
// edited sheets.
var headerAliases = map[string]string{
	"fecha":       ColDate,
	"tipo":        ColKind,
	"categoría":   ColCategory,
	"categoria":   ColCategory,
	"descripción": ColDescription,
	"descripcion": ColDescription,
	"monto":       ColAmount,
	"usuario":     ColOwner,
}

// ResolveLayout matches a backend header against the schema, order
// insensitively. Every column except Usuario is required.
func ResolveLayout(header []string) (Layout, error) {
	l := Layout{date: -1, kind: -1, category: -1, description: -1, amount: -1, owner: -1, width: len(header)}
	for i, cell := range header {
		switch headerAliases[strings.ToLower(strings.TrimSpace(cell))] {
		case ColDate:
			l.date = i
		case ColKind:
			l.kind = i
		case ColCategory:
			l.category = i
		case ColDescription:
			l.description = i
		case ColAmount:
			l.amount = i
		case ColOwner:
			l.owner = i
		}
	}
	var missing []string
	for _, c := range []struct {
		name string
		idx  int
	}{
		{ColDate, l.date}, {ColKind, l.kind}, {ColCategory, l.category},
		{ColDescription, l.description}, {ColAmount, l.amount},
	} {
		if c.idx == -1 {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return Layout{}, fmt.Errorf("ledger header missing %s; got %v", strings.Join(missing, ", "), header)
	}
	return l, nil
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// Decode converts a raw row into a movement. Decoding is deliberately
// lenient: an unparseable date becomes an invalid-date marker, an
// unparseable amount keeps its original text in RawAmount, and an unknown
// kind is carried through as-is. Validation applies to newly entered rows
// only, never retroactively to historic data.
func (l Layout) Decode(row []string) core.Movement {
	m := core.Movement{
		Date:        core.ParseDate(cellAt(row, l.date)),
		Category:    strings.TrimSpace(cellAt(row, l.category)),
		Description: strings.TrimSpace(cellAt(row, l.description)),
	}
	if k, ok := core.ParseKind(cellAt(row, l.kind)); ok {
		m.Kind = k
	} else {
		m.Kind = core.Kind(strings.TrimSpace(cellAt(row, l.kind)))
	}
	rawAmount := cellAt(row, l.amount)
	if amount, err := core.ParseAmount(rawAmount); err == nil {
		m.Amount = amount
	} else {
		m.RawAmount = rawAmount
	}
	if l.HasOwner() {
		m.Owner = strings.TrimSpace(cellAt(row, l.owner))
	}
	return m
}

// Encode renders a movement as a raw row in this layout. Invalid dates and
// unparsed amounts round-trip through their preserved raw text.
func (l Layout) Encode(m core.Movement) []string {
	row := make([]string, l.width)
	row[l.date] = m.Date.String()
	row[l.kind] = string(m.Kind)
	row[l.category] = m.Category
	row[l.description] = m.Description
	if m.RawAmount != "" {
		row[l.amount] = m.RawAmount
	} else {
		row[l.amount] = core.FormatAmount(m.Amount)
	}
	if l.HasOwner() {
		row[l.owner] = m.Owner
	}
	return row
}
