package transform

import (
	"math"
	"strconv"
	"strings"
	"time"

	"tenantetl/internal/frame"
	"tenantetl/internal/schema"
)

// CoercionPolicy selects what happens to a value that fails type coercion.
type CoercionPolicy string

const (
	// CoerceToNull replaces an unparseable value with NULL (the default).
	CoerceToNull CoercionPolicy = "null"
	// CoerceToZero replaces an unparseable numeric value with the type's zero
	// value instead of NULL.
	CoerceToZero CoercionPolicy = "zero"
	// CoerceFlagAndKeepString leaves the original string value in place but
	// is counted as a failure in Summary.CoercionFailures, for tenants that
	// would rather see the raw string downstream than lose the value.
	CoerceFlagAndKeepString CoercionPolicy = "flag_and_keep_string"
)

const dateLayout = "2006-01-02"

// applyCoercion converts each mapped column's string values to the type
// declared in its ColumnMappingEntry. Failures are handled per policy; the
// policy defaults to CoerceToNull when unset.
func applyCoercion(f *frame.Frame, mapping schema.ColumnMapping, policy CoercionPolicy) (*frame.Frame, map[string]int, error) {
	if policy == "" {
		policy = CoerceToNull
	}
	failures := map[string]int{}
	out := f
	for _, entry := range mapping.Entries {
		idx := out.IndexOf(entry.Target)
		if idx < 0 || entry.Type == "" {
			continue
		}
		values, _ := out.Column(entry.Target)
		for i, v := range values {
			s, isStr := v.(string)
			if !isStr {
				continue
			}
			coerced, ok := coerceValue(s, entry)
			if ok {
				values[i] = coerced
				continue
			}
			failures[entry.Target]++
			switch policy {
			case CoerceToZero:
				values[i] = zeroValue(entry.Type)
			case CoerceFlagAndKeepString:
				values[i] = s
			default:
				values[i] = nil
			}
		}
		var err error
		out, err = out.WithColumn(entry.Target, values)
		if err != nil {
			return nil, failures, err
		}
	}
	return out, failures, nil
}

func coerceValue(s string, entry schema.ColumnMappingEntry) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	switch strings.ToLower(entry.Type) {
	case "int", "bigint", "integer":
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, false
		}
		return i, true
	case "float", "double", "decimal":
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		if entry.DecimalPrecision != nil {
			v = roundTo(v, *entry.DecimalPrecision)
		}
		return v, true
	case "bool", "boolean":
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, false
		}
		return v, true
	case "date", "timestamp", "datetime":
		layout := entry.DateFormat
		if layout == "" {
			layout = dateLayout
		}
		t, err := time.Parse(layout, s)
		if err != nil {
			return nil, false
		}
		return t, true
	case "string", "varchar", "text", "":
		return applyUppercase(s, entry), true
	default:
		return applyUppercase(s, entry), true
	}
}

func applyUppercase(s string, entry schema.ColumnMappingEntry) string {
	if entry.Uppercase {
		return strings.ToUpper(s)
	}
	return s
}

// roundTo rounds v to precision digits after the decimal point.
func roundTo(v float64, precision int) float64 {
	if precision < 0 {
		return v
	}
	p := math.Pow10(precision)
	return math.Round(v*p) / p
}

func zeroValue(typ string) any {
	switch strings.ToLower(typ) {
	case "int", "bigint", "integer":
		return int64(0)
	case "float", "double", "decimal":
		return float64(0)
	case "bool", "boolean":
		return false
	default:
		return ""
	}
}
