package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tenantetl/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setupRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tenant_registry.yaml"), `
tenants:
  - tenant_id: "3607d64c-1111-4c11-8a11-aaaaaaaaaaaa"
    tenant_slug: "t-demo"
    enabled: true
    database_name: "t_demo_db"
    provider: "local"
    backend: "relational"
    priority: 1
  - tenant_id: "aaaabbbb-2222-4c11-8a11-bbbbbbbbbbbb"
    tenant_slug: "t-disabled"
    enabled: false
    database_name: "disabled_db"
    provider: "local"
    backend: "relational"
    priority: 2
`)
	writeFile(t, filepath.Join(root, "shared", "default_config.yaml"), `
database:
  host: shared-host
  port: 9030
storage:
  root: "/data/{tenant_slug}/source_files"
`)
	writeFile(t, filepath.Join(root, "tenants", "t-demo", "config.yaml"), `
database:
  host: tenant-host
`)
	writeFile(t, filepath.Join(root, "tenants", "t-demo", ".env"), "DB_USER=demo\nDB_PASSWORD=secretpw\n")
	return root
}

func TestListTenantsOrdersByPriorityAndExcludesDisabled(t *testing.T) {
	root := setupRoot(t)
	r := config.New(root)

	tenants, err := r.ListTenants(false)
	require.NoError(t, err)
	require.Len(t, tenants, 1)
	require.Equal(t, "t-demo", tenants[0].TenantSlug)

	all, err := r.ListTenants(true)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestGetMergesLayersLaterWins(t *testing.T) {
	root := setupRoot(t)
	r := config.New(root)

	ctx, err := r.Get("t-demo")
	require.NoError(t, err)
	require.Equal(t, "tenant-host", ctx.DB.Host) // tenant config.yaml overrides shared default
	require.Equal(t, 9030, ctx.DB.Port)          // untouched by tenant override
	require.Equal(t, "demo", ctx.Env["DB_USER"])
	require.Equal(t, "secretpw", ctx.DB.Password)
}

func TestGetInterpolatesTenantSlug(t *testing.T) {
	root := setupRoot(t)
	r := config.New(root)

	ctx, err := r.Get("t-demo")
	require.NoError(t, err)
	require.Equal(t, "/data/t-demo/source_files", ctx.Storage.Root)
}

func TestGetRejectsSecretInYAML(t *testing.T) {
	root := setupRoot(t)
	writeFile(t, filepath.Join(root, "tenants", "t-demo", "config.yaml"), `
database:
  host: tenant-host
  password: "oops-this-should-be-in-env"
`)
	r := config.New(root)
	_, err := r.Get("t-demo")
	require.Error(t, err)
}

func TestGetUnknownTenantFails(t *testing.T) {
	root := setupRoot(t)
	r := config.New(root)
	_, err := r.Get("does-not-exist")
	require.Error(t, err)
}

func TestGetDecodesBlobPrefixes(t *testing.T) {
	root := setupRoot(t)
	writeFile(t, filepath.Join(root, "tenants", "t-demo", "config.yaml"), `
database:
  host: tenant-host
blob_prefixes:
  dim_dealer_master: "DimDealer_MS"
  orders: "Orders"
`)
	r := config.New(root)
	ctx, err := r.Get("t-demo")
	require.NoError(t, err)
	require.Equal(t, "DimDealer_MS", ctx.BlobPrefixes["dim_dealer_master"])
	require.Equal(t, "Orders", ctx.BlobPrefixes["orders"])
}

func TestGetMatchesByUUID(t *testing.T) {
	root := setupRoot(t)
	r := config.New(root)
	ctx, err := r.Get("3607d64c-1111-4c11-8a11-aaaaaaaaaaaa")
	require.NoError(t, err)
	require.Equal(t, "t-demo", ctx.TenantSlug)
}
