package profile

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Doomsbay/TaxPasta/taxpasta/table"
)

const (
	StringKind Kind = iota
	IntKind
	FloatKind
)

// Kind is the semantic type of a schema column.
type Kind uint8

func (k Kind) String() string {
	switch k {
	case StringKind:
		return "string"
	case IntKind:
		return "integer"
	case FloatKind:
		return "float"
	}
	return ""
}

const reasonMissingColumn = "column not found"

// nullTokens are the cell contents read as missing values.
var nullTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
	"null": {},
	"NULL": {},
	"None": {},
	"<NA>": {},
}

func isNull(raw string) bool {
	_, ok := nullTokens[strings.TrimSpace(raw)]
	return ok
}

// Check is an extra value constraint applied to non-null cells.
type Check struct {
	Name string
	Ok   func(Value) bool
}

// NonNegative requires numeric values >= 0.
func NonNegative() Check {
	return Check{
		Name: "must be >= 0",
		Ok: func(v Value) bool {
			return v.Int >= 0 && v.Float >= 0
		},
	}
}

// InRange requires numeric values within [lo, hi].
func InRange(lo, hi float64) Check {
	return Check{
		Name: fmt.Sprintf("must be within [%g, %g]", lo, hi),
		Ok: func(v Value) bool {
			return v.Float >= lo && v.Float <= hi
		},
	}
}

// Column declares one named, typed column of a producer schema.
type Column struct {
	Name     string
	Kind     Kind
	Nullable bool
	Checks   []Check
}

// Schema is an ordered set of column declarations for one producer.
type Schema struct {
	Name    string
	Columns []Column
}

// Names returns the declared column names in order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Len returns the number of declared columns.
func (s *Schema) Len() int {
	return len(s.Columns)
}

// Value is a coerced cell. Int and Float are both populated for integer
// columns; only Float for float columns.
type Value struct {
	Raw   string
	Null  bool
	Int   int64
	Float float64
}

func coerce(raw string, kind Kind) (Value, bool) {
	v := Value{Raw: raw}
	if isNull(raw) {
		v.Null = true
		return v, true
	}
	trimmed := strings.TrimSpace(raw)
	switch kind {
	case IntKind:
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return v, false
		}
		v.Int, v.Float = n, float64(n)
	case FloatKind:
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsInf(f, 0) {
			return v, false
		}
		v.Float = f
	}
	return v, true
}

// Validate checks every declared column of t lazily: all violations are
// collected before a single *SchemaValidationError is returned. Extra
// columns are ignored but remain reachable through the returned table.
func (s *Schema) Validate(t *table.Table) (*ProducerTable, error) {
	violations := make([]Violation, 0)
	values := make(map[string][]Value, len(s.Columns))

	for _, col := range s.Columns {
		j := t.Index(col.Name)
		if j < 0 {
			violations = append(violations, Violation{Column: col.Name, Row: -1, Reason: reasonMissingColumn})
			continue
		}
		cells := make([]Value, t.NumRows())
		for i := range cells {
			raw := t.Cell(i, j)
			v, ok := coerce(raw, col.Kind)
			if !ok {
				violations = append(violations, Violation{
					Column: col.Name, Row: i, Value: raw,
					Reason: "not coercible to " + col.Kind.String(),
				})
				continue
			}
			if v.Null {
				if !col.Nullable {
					violations = append(violations, Violation{Column: col.Name, Row: i, Value: raw, Reason: "missing value"})
				}
				cells[i] = v
				continue
			}
			for _, check := range col.Checks {
				if !check.Ok(v) {
					violations = append(violations, Violation{Column: col.Name, Row: i, Value: raw, Reason: check.Name})
				}
			}
			cells[i] = v
		}
		values[col.Name] = cells
	}

	if len(violations) > 0 {
		return nil, &SchemaValidationError{Schema: s.Name, Violations: violations}
	}
	return &ProducerTable{schema: s, raw: t, values: values}, nil
}

// ProducerTable is a raw table proven valid against a producer schema. It
// is read-only.
type ProducerTable struct {
	schema *Schema
	raw    *table.Table
	values map[string][]Value
}

// Schema returns the schema the table was validated against.
func (t *ProducerTable) Schema() *Schema {
	return t.schema
}

// Len returns the number of rows.
func (t *ProducerTable) Len() int {
	return t.raw.NumRows()
}

// Value returns the coerced cell of a declared column. Undeclared columns
// come back as raw strings.
func (t *ProducerTable) Value(i int, column string) Value {
	if cells, ok := t.values[column]; ok {
		return cells[i]
	}
	raw, _ := t.raw.Value(i, column)
	return Value{Raw: raw, Null: isNull(raw)}
}

// Table returns the underlying raw table.
func (t *ProducerTable) Table() *table.Table {
	return t.raw
}

// conform returns t when it was validated against s and revalidates the raw
// table otherwise.
func conform(t *ProducerTable, s *Schema) (*ProducerTable, error) {
	if t == nil {
		return nil, &SchemaValidationError{
			Schema:     s.Name,
			Violations: []Violation{{Row: -1, Reason: "no table"}},
		}
	}
	if t.schema == s {
		return t, nil
	}
	return s.Validate(t.raw)
}
