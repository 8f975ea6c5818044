package schema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tenantetl/internal/schema"
)

func TestCheckAcyclicAcceptsDiamond(t *testing.T) {
	rules := []schema.ComputedColumnRule{
		{Target: "a", Kind: schema.ComputedConcat, Sources: []string{"raw1"}},
		{Target: "b", Kind: schema.ComputedConcat, Sources: []string{"a", "raw2"}},
		{Target: "c", Kind: schema.ComputedConcat, Sources: []string{"a", "raw3"}},
		{Target: "d", Kind: schema.ComputedConcat, Sources: []string{"b", "c"}},
	}
	require.NoError(t, schema.CheckAcyclic(rules))

	ordered := schema.TopoSort(rules)
	pos := map[string]int{}
	for i, r := range ordered {
		pos[r.Target] = i
	}
	require.Less(t, pos["a"], pos["b"])
	require.Less(t, pos["a"], pos["c"])
	require.Less(t, pos["b"], pos["d"])
	require.Less(t, pos["c"], pos["d"])
}

func TestCheckAcyclicRejectsDirectCycle(t *testing.T) {
	rules := []schema.ComputedColumnRule{
		{Target: "a", Kind: schema.ComputedConcat, Sources: []string{"b"}},
		{Target: "b", Kind: schema.ComputedConcat, Sources: []string{"a"}},
	}
	require.Error(t, schema.CheckAcyclic(rules))
}

func TestCheckAcyclicRejectsArithmeticCycle(t *testing.T) {
	rules := []schema.ComputedColumnRule{
		{Target: "total", Kind: schema.ComputedArith, Expr: "unit_price * qty"},
		{Target: "unit_price", Kind: schema.ComputedArith, Expr: "total / qty"},
	}
	require.Error(t, schema.CheckAcyclic(rules))
}

func TestCheckAcyclicIgnoresNonComputedDependencies(t *testing.T) {
	rules := []schema.ComputedColumnRule{
		{Target: "composite_key", Kind: schema.ComputedConcat, Sources: []string{"invoice_date", "customer_code", "invoice_no"}},
	}
	require.NoError(t, schema.CheckAcyclic(rules))
}
