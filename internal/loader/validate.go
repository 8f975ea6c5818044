// Package loader implements the validation and Stream Load stages that turn
// a silver-layer frame.Frame into StarRocks rows: missing/extra column
// reconciliation against the live schema, chunked HTTP Stream Load with
// retry, and the three load strategies (dimension full-refresh, dimension
// incremental, fact incremental). It generalizes the teacher's
// internal/storage.LoadBatches channel-draining batch loader from a
// backend-agnostic CopyFn to StarRocks's HTTP Stream Load protocol.
package loader

import (
	"fmt"
	"strconv"
	"strings"

	"tenantetl/internal/dbctl"
	"tenantetl/internal/errs"
	"tenantetl/internal/frame"
)

// ValidationResult reports what Validate did to one frame before load.
type ValidationResult struct {
	FilledMissingNonNullable map[string]int // column -> rows filled with NULL; only nullable columns are ever filled
	DroppedExtraColumns      []string
	WideningNeeded           map[string]int // column -> observed max byte length
}

// Validate reconciles f's columns against the live schema described by
// cols: columns present in the live schema but absent from f are filled
// with NULL when nullable, or raise a MissingColumn LoadError when not;
// columns present in f but absent from the live schema are dropped with a
// warning recorded in the result (spec.md §4.5.1). It does not reorder
// columns — that is reorder.go's job, applied immediately before
// serialization, never before.
func Validate(f *frame.Frame, cols []dbctl.ColumnInfo) (*frame.Frame, ValidationResult, error) {
	result := ValidationResult{
		FilledMissingNonNullable: map[string]int{},
		WideningNeeded:           map[string]int{},
	}

	live := make(map[string]dbctl.ColumnInfo, len(cols))
	for _, c := range cols {
		live[c.ColumnName] = c
	}

	out := f
	for _, c := range cols {
		if out.IndexOf(c.ColumnName) >= 0 {
			continue
		}
		if !c.Nullable() {
			return nil, result, errs.New(errs.KindLoad, errs.ReasonMissingColumn, "", c.ColumnName, fmt.Errorf("column %q is required and absent from the frame", c.ColumnName))
		}
		values := make([]any, out.NumRows())
		var err error
		out, err = out.WithColumn(c.ColumnName, values)
		if err != nil {
			return nil, result, err
		}
		result.FilledMissingNonNullable[c.ColumnName] = out.NumRows()
	}

	drop := map[string]struct{}{}
	for _, colName := range out.Columns {
		if _, ok := live[colName]; !ok {
			drop[colName] = struct{}{}
			result.DroppedExtraColumns = append(result.DroppedExtraColumns, colName)
		}
	}
	if len(drop) > 0 {
		out = out.DropColumns(drop)
	}

	for _, c := range cols {
		if c.CharMaxLength == nil {
			continue
		}
		values, ok := out.Column(c.ColumnName)
		if !ok {
			continue
		}
		maxLen := 0
		for _, v := range values {
			s, isStr := v.(string)
			if !isStr {
				continue
			}
			if len(s) > maxLen {
				maxLen = len(s)
			}
		}
		if int64(maxLen) > *c.CharMaxLength {
			result.WideningNeeded[c.ColumnName] = maxLen
		}
	}

	return out, result, nil
}

// integerBitSize maps a StarRocks/MySQL information_schema DATA_TYPE to the
// signed integer bit width CheckNumericOverflow range-checks against. Not
// every DATA_TYPE names a fixed-width integer (decimal, varchar, datetime,
// ...); those report ok == false and are left to StarRocks's own load-time
// validation rather than range-checked here.
func integerBitSize(dataType string) (bitSize int, ok bool) {
	switch strings.ToLower(dataType) {
	case "tinyint":
		return 8, true
	case "smallint":
		return 16, true
	case "int", "integer", "mediumint":
		return 32, true
	case "bigint":
		return 64, true
	default:
		return 0, false
	}
}

// CheckNumericOverflowAgainstSchema range-checks every integer column in f
// against the live column types reported by DescribeTable, per spec.md
// §4.5.2 ("each numeric column is range-checked against the declared type;
// overflows surface as LoadError(NumericOverflow)"). Columns whose DATA_TYPE
// isn't a fixed-width integer (decimal, varchar, datetime, ...) are skipped.
func CheckNumericOverflowAgainstSchema(f *frame.Frame, cols []dbctl.ColumnInfo) error {
	for _, c := range cols {
		bitSize, ok := integerBitSize(c.DataType)
		if !ok {
			continue
		}
		if err := CheckNumericOverflow(f, c.ColumnName, bitSize); err != nil {
			return err
		}
	}
	return nil
}

// CheckNumericOverflow returns a LoadError if any value in a numeric column
// cannot be represented in bitSize bits, per spec.md's numeric range check.
func CheckNumericOverflow(f *frame.Frame, column string, bitSize int) error {
	values, ok := f.Column(column)
	if !ok {
		return nil
	}
	for _, v := range values {
		var s string
		switch t := v.(type) {
		case nil:
			continue
		case string:
			s = t
		case int64:
			s = strconv.FormatInt(t, 10)
		default:
			continue
		}
		if _, err := strconv.ParseInt(s, 10, bitSize); err != nil {
			return errs.New(errs.KindLoad, errs.ReasonNumericOverflow, "", column, err)
		}
	}
	return nil
}
