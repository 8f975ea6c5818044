package schema

import "fmt"

// dependsOn returns the set of source/input column names a rule reads from.
// A dependency on another computed column is only meaningful if that name
// also appears as a Target elsewhere in the same rule set; plain source
// frame columns are not part of the graph.
func dependsOn(r ComputedColumnRule) []string {
	switch r.Kind {
	case ComputedConcat:
		return r.Sources
	case ComputedArith:
		return tokenizeExprColumns(r.Expr)
	case ComputedLookup:
		return []string{r.Key}
	case ComputedTransform:
		return r.Sources
	default:
		return nil
	}
}

// tokenizeExprColumns extracts identifier-like tokens from a simple
// arithmetic expression ("a / b", "price * qty"). It is intentionally naive:
// the expression grammar itself is evaluated elsewhere (internal/transform);
// here we only need candidate column names for cycle detection.
func tokenizeExprColumns(expr string) []string {
	var out []string
	var cur []byte
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'):
			cur = append(cur, c)
		default:
			flush()
		}
	}
	flush()
	return out
}

// CheckAcyclic validates that a table's computed-column rule set has no
// circular dependency among rules that reference each other's target
// columns. It returns an error naming the cycle if one exists.
func CheckAcyclic(rules []ComputedColumnRule) error {
	targets := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		targets[r.Target] = struct{}{}
	}

	adj := make(map[string][]string, len(rules))
	for _, r := range rules {
		for _, dep := range dependsOn(r) {
			if _, isComputed := targets[dep]; isComputed {
				adj[r.Target] = append(adj[r.Target], dep)
			}
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(rules))
	var stack []string

	var visit func(node string) error
	visit = func(node string) error {
		color[node] = gray
		stack = append(stack, node)
		for _, next := range adj[node] {
			switch color[next] {
			case white:
				if err := visit(next); err != nil {
					return err
				}
			case gray:
				return fmt.Errorf("cycle detected: %v -> %s", append(append([]string{}, stack...), next), next)
			}
		}
		stack = stack[:len(stack)-1]
		color[node] = black
		return nil
	}

	for _, r := range rules {
		if color[r.Target] == white {
			if err := visit(r.Target); err != nil {
				return err
			}
		}
	}
	return nil
}

// TopoSort returns rules ordered so that every rule appears after the
// computed columns it depends on. Callers may assume CheckAcyclic has
// already been run; TopoSort does not re-validate.
func TopoSort(rules []ComputedColumnRule) []ComputedColumnRule {
	byTarget := make(map[string]ComputedColumnRule, len(rules))
	for _, r := range rules {
		byTarget[r.Target] = r
	}
	visited := make(map[string]bool, len(rules))
	var out []ComputedColumnRule

	var visit func(r ComputedColumnRule)
	visit = func(r ComputedColumnRule) {
		if visited[r.Target] {
			return
		}
		visited[r.Target] = true
		for _, dep := range dependsOn(r) {
			if depRule, ok := byTarget[dep]; ok {
				visit(depRule)
			}
		}
		out = append(out, r)
	}
	for _, r := range rules {
		visit(r)
	}
	return out
}
