package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "Ingreso"
	Expense Kind = "Egreso"
)

type (
	Kind string

	// Date is a calendar date with no time-of-day semantics. A row read
	// from a backend may carry a cell that does not parse as a date; the
	// original text is kept in Raw and the date is marked invalid instead
	// of dropping the row.
	Date struct {
		time.Time
		Raw string
	}

	Movement struct {
		Date        Date
		Kind        Kind
		Category    string
		Description string
		Amount      decimal.Decimal
		// RawAmount preserves the original cell text when the amount did
		// not parse on load. Validation never runs retroactively on
		// historic rows.
		RawAmount string
		Owner     string
	}

	// Catalog holds the category enumeration for each movement kind.
	// It is configuration, not a fixed rule: deployments and tests
	// inject their own lists.
	Catalog struct {
		Income  []string
		Expense []string
	}

	// Rules are the validation switches that differ between deployments.
	Rules struct {
		Catalog             Catalog
		DescriptionRequired bool
	}

	// ValidationError names the movement field that failed entry-time
	// validation.
	ValidationError struct {
		Field  string
		Reason string
	}
)

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// DefaultCatalog returns the category lists historic ledger data uses.
func DefaultCatalog() Catalog {
	return Catalog{
		Income:  []string{"Ventas", "Nómina", "Préstamos", "Intereses", "Otros"},
		Expense: []string{"Mercancías", "Gastos generales", "Gastos financieros", "Gastos personales", "Combustibles", "Otros"},
	}
}

// For returns the category list associated with a kind.
func (c Catalog) For(k Kind) []string {
	switch k {
	case Income:
		return c.Income
	case Expense:
		return c.Expense
	default:
		return nil
	}
}

// Contains reports whether category belongs to the enumeration for kind.
func (c Catalog) Contains(k Kind, category string) bool {
	for _, v := range c.For(k) {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(category)) {
			return true
		}
	}
	return false
}

// ParseKind maps user or backend text onto a movement kind. Spanish wire
// values are canonical; English aliases are accepted for convenience.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ingreso", "income":
		return Income, true
	case "egreso", "expense":
		return Expense, true
	default:
		return "", false
	}
}

// Sign returns +1 for income and -1 for expense movements.
func (k Kind) Sign() int {
	if k == Income {
		return 1
	}
	return -1
}

// NewDate creates a valid calendar date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// dateLayouts mirror the formats seen in real ledger sheets.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006",
	"2/1/2006",
}

// ParseDate coerces cell text into a calendar date. Text that matches no
// known layout yields an invalid date carrying the original text; a
// malformed date is a data-quality signal, not a fatal error.
func ParseDate(s string) Date {
	v := strings.TrimSpace(s)
	if v == "" {
		return Date{Raw: s}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return NewDate(t.Year(), int(t.Month()), t.Day())
		}
	}
	return Date{Raw: s}
}

// Valid reports whether the date parsed as a calendar date.
func (d Date) Valid() bool {
	return !d.Time.IsZero()
}

func (d Date) String() string {
	if !d.Valid() {
		return d.Raw
	}
	return d.Time.Format("2006-01-02")
}

// Validate checks an entry-time candidate against the active rules and
// returns a normalized copy: date truncated to a UTC calendar date, amount
// fixed to two decimal places, text fields trimmed. The input is not
// mutated. Validating an already valid movement returns it unchanged.
func Validate(m Movement, rules Rules) (Movement, error) {
	out := m
	out.Category = strings.TrimSpace(m.Category)
	out.Description = strings.TrimSpace(m.Description)
	out.Owner = strings.TrimSpace(m.Owner)
	out.RawAmount = ""

	if !m.Date.Valid() {
		return Movement{}, &ValidationError{Field: "date", Reason: "not a calendar date"}
	}
	out.Date = NewDate(m.Date.Year(), int(m.Date.Month()), m.Date.Day())

	if m.Kind != Income && m.Kind != Expense {
		return Movement{}, &ValidationError{Field: "kind", Reason: "must be Ingreso or Egreso"}
	}
	if m.Amount.IsNegative() {
		return Movement{}, &ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	out.Amount = m.Amount.Round(2)

	if !rules.Catalog.Contains(m.Kind, out.Category) {
		return Movement{}, &ValidationError{Field: "category", Reason: "not in the " + string(m.Kind) + " catalog"}
	}
	if rules.DescriptionRequired && out.Description == "" {
		return Movement{}, &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	return out, nil
}
