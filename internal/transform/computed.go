package transform

import (
	"fmt"
	"strconv"
	"strings"

	"tenantetl/internal/frame"
	"tenantetl/internal/schema"
)

// TransformFunc is a named, tenant-invocable function for
// schema.ComputedTransform rules. Registered by callers that need
// domain-specific derivations beyond concat/arithmetic/lookup.
type TransformFunc func(args []any) (any, error)

var transformFuncs = map[string]TransformFunc{
	"upper": func(args []any) (any, error) {
		return strings.ToUpper(asString(firstArg(args))), nil
	},
	"lower": func(args []any) (any, error) {
		return strings.ToLower(asString(firstArg(args))), nil
	},
}

// RegisterTransformFunc adds or replaces a named transformation function.
func RegisterTransformFunc(name string, fn TransformFunc) { transformFuncs[name] = fn }

func firstArg(args []any) any {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

// applyComputedRule evaluates one computed-column rule against every row
// and appends (or replaces) the target column.
func applyComputedRule(f *frame.Frame, rule schema.ComputedColumnRule) (*frame.Frame, error) {
	values := make([]any, f.NumRows())
	switch rule.Kind {
	case schema.ComputedConcat:
		idxs := make([]int, len(rule.Sources))
		for i, s := range rule.Sources {
			idxs[i] = f.IndexOf(s)
		}
		for r, row := range f.Rows {
			var b strings.Builder
			for i, idx := range idxs {
				if i > 0 {
					b.WriteString(rule.Separator)
				}
				if idx >= 0 {
					b.WriteString(asString(row[idx]))
				}
			}
			values[r] = b.String()
		}
	case schema.ComputedArith:
		lhs, op, rhs, err := parseArithExpr(rule.Expr)
		if err != nil {
			return nil, err
		}
		lIdx, rIdx := f.IndexOf(lhs), f.IndexOf(rhs)
		for r, row := range f.Rows {
			values[r] = evalArith(rowValue(row, lIdx), op, rowValue(row, rIdx))
		}
	case schema.ComputedLookup:
		keyIdx := f.IndexOf(rule.Key)
		table := lookupTables[rule.Table]
		for r, row := range f.Rows {
			key := asString(rowValue(row, keyIdx))
			if entry, ok := table[key]; ok {
				values[r] = entry[rule.Field]
			}
		}
	case schema.ComputedTransform:
		fn, ok := transformFuncs[rule.Function]
		if !ok {
			return nil, fmt.Errorf("transform: unknown function %q for column %q", rule.Function, rule.Target)
		}
		idxs := make([]int, len(rule.Sources))
		for i, s := range rule.Sources {
			idxs[i] = f.IndexOf(s)
		}
		for r, row := range f.Rows {
			args := make([]any, len(idxs))
			for i, idx := range idxs {
				args[i] = rowValue(row, idx)
			}
			v, err := fn(args)
			if err != nil {
				return nil, fmt.Errorf("transform: function %q on column %q: %w", rule.Function, rule.Target, err)
			}
			values[r] = v
		}
	default:
		return nil, fmt.Errorf("transform: unknown computed-column kind %q", rule.Kind)
	}
	return f.WithColumn(rule.Target, values)
}

func rowValue(row []any, idx int) any {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}

// lookupTables holds small in-memory join tables keyed by table name, for
// schema.ComputedLookup rules. Tenants register these via RegisterLookupTable
// (typically populated from a seed or constants-backend read at job start).
var lookupTables = map[string]map[string]map[string]any{}

// RegisterLookupTable installs (or replaces) a named lookup table, keyed by
// its join key value.
func RegisterLookupTable(name string, rows map[string]map[string]any) {
	lookupTables[name] = rows
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(t)
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// parseArithExpr splits a two-operand expression like "a / b" or "price*qty".
func parseArithExpr(expr string) (lhs string, op byte, rhs string, err error) {
	for _, candidate := range []byte{'/', '*', '+', '-'} {
		if idx := strings.IndexByte(expr, candidate); idx >= 0 {
			lhs = strings.TrimSpace(expr[:idx])
			rhs = strings.TrimSpace(expr[idx+1:])
			return lhs, candidate, rhs, nil
		}
	}
	return "", 0, "", fmt.Errorf("transform: unrecognized arithmetic expression %q", expr)
}

// evalArith applies op to a and b. Division by zero (or a non-numeric
// operand) yields NULL rather than an error or panic (NULLIF-style safe
// division, spec.md §4.4).
func evalArith(a any, op byte, b any) any {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return nil
	}
	switch op {
	case '/':
		if bf == 0 {
			return nil
		}
		return af / bf
	case '*':
		return af * bf
	case '+':
		return af + bf
	case '-':
		return af - bf
	default:
		return nil
	}
}
