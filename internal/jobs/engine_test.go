package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"tenantetl/internal/tenant"
)

func TestLoadBusinessConstantsSkipsUnconfiguredTenant(t *testing.T) {
	e := NewEngine(nil, nil)
	tc := &tenant.Context{TenantID: "11111111-2222-3333-4444-555555555555"}
	require.NoError(t, e.loadBusinessConstants(context.Background(), tc))
}

func TestLoadBusinessConstantsRejectsUnknownBackendKind(t *testing.T) {
	e := NewEngine(nil, nil)
	tc := &tenant.Context{
		TenantID:             "11111111-2222-3333-4444-555555555555",
		ConstantsBackendKind: "carrier_pigeon",
		ConstantsDSN:         "whatever",
	}
	err := e.loadBusinessConstants(context.Background(), tc)
	require.Error(t, err)
}

func TestValidateFactTableRejectsUndeclaredTable(t *testing.T) {
	e := NewEngine(nil, nil)
	tc := &tenant.Context{FactTables: []string{"orders", "shipments"}}
	require.NoError(t, e.validateFactTable(tc, "orders"))
	require.Error(t, e.validateFactTable(tc, "returns"))
}
