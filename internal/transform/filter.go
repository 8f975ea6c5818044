package transform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"tenantetl/internal/frame"
	"tenantetl/internal/schema"
)

// applyFilters applies a tenant's declared row filters, last in the
// pipeline so that a filter may reference a computed column (spec.md
// §4.4's stated evaluation order).
func applyFilters(f *frame.Frame, filters []schema.RowFilter) (*frame.Frame, error) {
	out := f
	for _, rf := range filters {
		idx := out.IndexOf(rf.Column)
		if idx < 0 {
			return nil, fmt.Errorf("transform: filter references unknown column %q", rf.Column)
		}
		keep, err := filterPredicate(rf)
		if err != nil {
			return nil, err
		}
		out = out.Filter(func(row []any) bool { return keep(row[idx]) })
	}
	return out, nil
}

func filterPredicate(rf schema.RowFilter) (func(v any) bool, error) {
	switch strings.ToLower(rf.Op) {
	case "in":
		set := make(map[string]struct{}, len(rf.Values))
		for _, v := range rf.Values {
			set[v] = struct{}{}
		}
		return func(v any) bool { _, ok := set[asString(v)]; return ok }, nil
	case "eq":
		want := firstOr(rf.Values, "")
		return func(v any) bool { return asString(v) == want }, nil
	case "neq":
		want := firstOr(rf.Values, "")
		return func(v any) bool { return asString(v) != want }, nil
	case "gte", "lte":
		if len(rf.Values) != 1 {
			return nil, fmt.Errorf("transform: filter op %q requires exactly one value", rf.Op)
		}
		if threshold, err := strconv.ParseFloat(rf.Values[0], 64); err == nil {
			return func(v any) bool {
				n, ok := asFloat(v)
				if !ok {
					return false
				}
				if rf.Op == "gte" {
					return n >= threshold
				}
				return n <= threshold
			}, nil
		}
		if deadline, err := time.Parse(dateLayout, rf.Values[0]); err == nil {
			return func(v any) bool {
				t, ok := asTime(v)
				if !ok {
					return false
				}
				if rf.Op == "gte" {
					return !t.Before(deadline)
				}
				return !t.After(deadline)
			}, nil
		}
		return nil, fmt.Errorf("transform: filter op %q requires a numeric or %s-formatted date value", rf.Op, dateLayout)
	default:
		return nil, fmt.Errorf("transform: unknown filter op %q", rf.Op)
	}
}

// asTime reads a time.Time value coerced by the date/timestamp/datetime
// branch of applyCoercion. A raw string is also accepted, parsed with the
// engine's default date layout, for filters declared against a column that
// was never routed through coercion (e.g. a computed column).
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(dateLayout, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}

func firstOr(vs []string, def string) string {
	if len(vs) == 0 {
		return def
	}
	return vs[0]
}
