package dbctl

import (
	"context"

	"tenantetl/internal/errs"
)

// ColumnInfo describes one live column as reported by information_schema.
type ColumnInfo struct {
	OrdinalPosition int     `db:"ORDINAL_POSITION"`
	ColumnName      string  `db:"COLUMN_NAME"`
	DataType        string  `db:"DATA_TYPE"`
	IsNullable      string  `db:"IS_NULLABLE"`
	CharMaxLength   *int64  `db:"CHARACTER_MAXIMUM_LENGTH"`
}

// Nullable reports whether the column accepts NULL.
func (c ColumnInfo) Nullable() bool { return c.IsNullable == "YES" }

const describeQuery = `
SELECT ORDINAL_POSITION, COLUMN_NAME, DATA_TYPE, IS_NULLABLE, CHARACTER_MAXIMUM_LENGTH
FROM information_schema.columns
WHERE table_schema = ? AND table_name = ?
ORDER BY ORDINAL_POSITION`

// DescribeTable fetches the live column order and types for table, the
// source of truth the loader reconciles every serialization against
// (spec.md §3's critical "column order before serialize" invariant — never
// the declared ColumnMapping order).
func (c *Conn) DescribeTable(ctx context.Context, table string) ([]ColumnInfo, error) {
	var cols []ColumnInfo
	if err := c.DB.SelectContext(ctx, &cols, describeQuery, c.Database, table); err != nil {
		return nil, errs.New(errs.KindLoad, errs.ReasonSchemaDrift, table, "", err)
	}
	if len(cols) == 0 {
		return nil, errs.New(errs.KindLoad, errs.ReasonSchemaDrift, table, "table not found or has no columns", nil)
	}
	return cols, nil
}

// ColumnOrder returns DescribeTable's columns reduced to their names, in
// live ordinal order.
func ColumnOrder(cols []ColumnInfo) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.ColumnName
	}
	return out
}
