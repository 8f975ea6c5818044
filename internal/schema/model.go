// Package schema holds the declarative description of one tenant's
// destination tables: TableSchema, ColumnMapping, and ComputedColumnRule.
// These are tagged variants (per SPEC_FULL.md's dynamic-typing note) decoded
// from YAML by loader.go; evaluating a ComputedColumnRule is a separate
// concern owned by internal/transform.
package schema

// Kind distinguishes a TableSchema's database object type.
type Kind string

const (
	KindTable    Kind = "TABLE"
	KindView     Kind = "VIEW"
	KindMatview  Kind = "MATVIEW"
)

// TableSchema is the declarative description of one destination table.
// Ordinal is used solely for deterministic creation/drop ordering (see
// SortForCreation) and never influences runtime loads.
type TableSchema struct {
	Name    string            `yaml:"name"`
	Kind    Kind              `yaml:"kind"`
	Ordinal int               `yaml:"ordinal"`
	DDL     string            `yaml:"ddl"`
	Comments map[string]string `yaml:"comments"`
}

// ColumnMappingEntry renames one source column to a target column and
// declares the target's type/nullability, plus the per-column cleaning
// rules applied to it during coercion (uppercase, decimal rounding, and a
// date layout distinct from the engine-wide default).
type ColumnMappingEntry struct {
	Source   string  `yaml:"source"`
	Target   string  `yaml:"target"`
	Type     string  `yaml:"type"`
	Nullable bool    `yaml:"nullable"`
	Default  *string `yaml:"default"`

	// Uppercase requests that a string value (typically a code column, e.g.
	// a dealer or region code) is upper-cased after trimming.
	Uppercase bool `yaml:"uppercase"`
	// DecimalPrecision, when set, rounds a decimal/float/double value to
	// this many digits after the decimal point.
	DecimalPrecision *int `yaml:"decimal_precision"`
	// DateFormat is a Go reference-time layout used to parse date/timestamp/
	// datetime values for this column. Empty means the engine's default
	// layout ("2006-01-02").
	DateFormat string `yaml:"date_format"`
}

// ColumnMapping is the ordered list of entries for one table.
type ColumnMapping struct {
	Table   string               `yaml:"table"`
	Entries []ColumnMappingEntry `yaml:"entries"`
}

// TargetNames returns the mapping's target columns in declared order.
func (m ColumnMapping) TargetNames() []string {
	out := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		out[i] = e.Target
	}
	return out
}

// ByTarget indexes entries by target column name.
func (m ColumnMapping) ByTarget() map[string]ColumnMappingEntry {
	idx := make(map[string]ColumnMappingEntry, len(m.Entries))
	for _, e := range m.Entries {
		idx[e.Target] = e
	}
	return idx
}

// ComputedKind enumerates the kinds of computed-column rule.
type ComputedKind string

const (
	ComputedConcat    ComputedKind = "concatenation"
	ComputedArith     ComputedKind = "arithmetic"
	ComputedLookup    ComputedKind = "lookup"
	ComputedTransform ComputedKind = "transformation"
)

// ComputedColumnRule describes one derived column.
type ComputedColumnRule struct {
	Target       string       `yaml:"target"`
	Kind         ComputedKind `yaml:"kind"`
	OutputType   string       `yaml:"output_type"`

	// Concatenation params.
	Sources   []string `yaml:"sources"`
	Separator string   `yaml:"separator"`

	// Arithmetic params. Expr references column names, e.g. "a / b".
	// Division by zero yields NULL (NULLIF-style safe division) rather than
	// an error.
	Expr string `yaml:"expr"`

	// Lookup params: join against a small in-memory table keyed by Key's
	// value, reading Field from the matched row into Target.
	Table string `yaml:"table"`
	Key   string `yaml:"key"`
	Field string `yaml:"field"`

	// Transformation params: a named function (registered in
	// internal/transform) applied to Sources.
	Function string `yaml:"function"`
}

// ComputedColumnSet is the per-table ordered list of rules.
type ComputedColumnSet struct {
	Table string               `yaml:"table"`
	Rules []ComputedColumnRule `yaml:"rules"`
}

// RowFilter is a tenant-declared predicate applied after computed columns.
type RowFilter struct {
	Table  string `yaml:"table"`
	Column string `yaml:"column"`
	Op     string `yaml:"op"` // "in", "gte", "lte", "eq", "neq"
	Values []string `yaml:"values"`
}
