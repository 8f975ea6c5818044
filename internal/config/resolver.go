package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tenantetl/internal/errs"
	"tenantetl/internal/schema"
	"tenantetl/internal/tenant"
)

// reservedSecretNames are YAML leaf keys that must never appear in the YAML
// configuration layer; any credential belongs in the tenant's .env file
// instead (spec.md §4.1 "secret separation contract").
var reservedSecretNames = map[string]struct{}{
	"password":          {},
	"passwd":            {},
	"secret":            {},
	"secret_key":        {},
	"access_key_secret":  {},
	"token":             {},
	"sas_token":         {},
	"connection_string": {},
	"dsn":               {},
	"api_key":           {},
	"private_key":       {},
}

// Resolver implements the ConfigResolver component: it merges the layered
// configuration tree rooted at Root and produces immutable tenant.Context
// values.
type Resolver struct {
	Root string
}

// New returns a Resolver rooted at configRoot (the directory containing
// tenant_registry.yaml, shared/, starrocks/, and tenants/).
func New(configRoot string) *Resolver {
	return &Resolver{Root: configRoot}
}

func (r *Resolver) path(parts ...string) string {
	return filepath.Join(append([]string{r.Root}, parts...)...)
}

func readYAML(path string) (Raw, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Raw{}, nil
		}
		return nil, err
	}
	raw, err := DecodeYAML(b)
	if err != nil {
		return nil, errs.New(errs.KindConfig, errs.ReasonParseError, "", path, err)
	}
	return raw, nil
}

func (r *Resolver) loadRegistry() (Registry, error) {
	path := r.path("tenant_registry.yaml")
	b, err := os.ReadFile(path)
	if err != nil {
		return Registry{}, errs.New(errs.KindConfig, errs.ReasonParseError, "", path, err)
	}
	var reg Registry
	if err := unmarshalYAML(b, &reg); err != nil {
		return Registry{}, errs.New(errs.KindConfig, errs.ReasonParseError, "", path, err)
	}
	return reg, nil
}

// ListTenants returns the tenant registry entries ordered by
// schedule_priority ascending. Disabled tenants are excluded unless
// includeDisabled is true.
func (r *Resolver) ListTenants(includeDisabled bool) ([]TenantRegistryEntry, error) {
	reg, err := r.loadRegistry()
	if err != nil {
		return nil, err
	}
	out := make([]TenantRegistryEntry, 0, len(reg.Tenants))
	for _, t := range reg.Tenants {
		if !t.Enabled && !includeDisabled {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SchedulePriority < out[j].SchedulePriority })
	return out, nil
}

// Get resolves a single tenant (matched by slug or UUID) into a frozen
// tenant.Context by running the five-layer merge of spec.md §4.1.
func (r *Resolver) Get(slugOrUUID string) (*tenant.Context, error) {
	reg, err := r.loadRegistry()
	if err != nil {
		return nil, err
	}

	var entry *TenantRegistryEntry
	for i := range reg.Tenants {
		t := &reg.Tenants[i]
		if t.TenantSlug == slugOrUUID || t.TenantID == slugOrUUID {
			entry = t
			break
		}
	}
	if entry == nil {
		return nil, errs.New(errs.KindConfig, errs.ReasonInvalidTenant, "", "tenant not found: "+slugOrUUID, nil)
	}
	if _, err := uuid.Parse(entry.TenantID); err != nil {
		return nil, errs.New(errs.KindConfig, errs.ReasonInvalidTenant, "", "tenant_id is not a valid uuid", err)
	}
	if entry.TenantSlug == "" || entry.DatabaseName == "" {
		return nil, errs.New(errs.KindConfig, errs.ReasonInvalidTenant, "", "tenant_slug and database.name are required", nil)
	}

	merged := Raw{}

	layers := []string{
		r.path("shared", "default_config.yaml"),
		r.path("starrocks", "connection_pool.yaml"),
		r.path("starrocks", "stream_load_defaults.yaml"),
		r.path("shared", "common_business_rules.yaml"),
		r.path("tenants", entry.TenantSlug, "config.yaml"),
	}
	for _, l := range layers {
		raw, err := readYAML(l)
		if err != nil {
			return nil, err
		}
		if err := validateNoSecrets(raw, l); err != nil {
			return nil, err
		}
		merged = Merge(merged, raw)
	}

	env, err := loadEnv(r.path("tenants", entry.TenantSlug, ".env"))
	if err != nil {
		return nil, err
	}

	interpolate := func(s string) string {
		return strings.ReplaceAll(s, "{tenant_slug}", entry.TenantSlug)
	}

	storageKind := entry.StorageProvider
	switch storageKind {
	case "azure", "s3", "gcs", "minio":
		storageKind = "object"
	case "local", "":
		storageKind = "local"
	case "object":
		// already canonical
	default:
		return nil, errs.New(errs.KindConfig, errs.ReasonUnsupportedProvider, "", storageKind, nil)
	}

	poolSection := merged.Sub("connection_pool")
	slSection := merged.Sub("stream_load")
	storageSection := merged.Sub("storage")

	ctx := &tenant.Context{
		TenantID:             entry.TenantID,
		TenantSlug:           entry.TenantSlug,
		Priority:             entry.SchedulePriority,
		ConstantsBackendKind: entry.ConstantsBackend,
		ConstantsDSN:         env["CONSTANTS_DSN"],
		Env:                  env,
		DB: tenant.DatabaseConfig{
			Host:        merged.String("database.host", "localhost"),
			Port:        merged.Int("database.port", 9030),
			HTTPPort:    merged.Int("database.http_port", 8040),
			User:        env["DB_USER"],
			Password:    env["DB_PASSWORD"],
			Database:    entry.DatabaseName,
			PoolMin:     poolSection.Int("min", 1),
			PoolMax:     poolSection.Int("max", 10),
			PoolPrePing: poolSection.Bool("pre_ping", true),
			PoolRecycle: poolSection.Int("recycle_seconds", 3600),
		},
		Storage: tenant.StorageConfig{
			Kind:      storageKind,
			Root:      interpolate(storageSection.String("root", "")),
			Endpoint:  storageSection.String("endpoint", ""),
			Region:    storageSection.String("region", ""),
			Bucket:    interpolate(storageSection.String("bucket", storageSection.String("container", ""))),
			Prefix:    interpolate(storageSection.String("prefix", "")),
			AccessKey: env["STORAGE_ACCESS_KEY"],
			SecretKey: env["STORAGE_SECRET_KEY"],
			Anonymous: storageSection.Bool("anonymous", false),
		},
		SeedDir:            r.path("tenants", entry.TenantSlug, "seeds"),
		ComputedColumnFile: r.path("tenants", entry.TenantSlug, "computed_columns.yaml"),
		StreamLoad:         tenant.DefaultStreamLoadConfig(),
	}
	ctx.StreamLoad.ChunkRows = slSection.Int("chunk_rows", ctx.StreamLoad.ChunkRows)
	ctx.StreamLoad.TimeoutSeconds = slSection.Int("timeout_seconds", ctx.StreamLoad.TimeoutSeconds)
	ctx.StreamLoad.MaxFilterRatio = floatOr(slSection, "max_filter_ratio", ctx.StreamLoad.MaxFilterRatio)
	ctx.StreamLoad.StrictMode = slSection.Bool("strict_mode", ctx.StreamLoad.StrictMode)
	ctx.StreamLoad.WideningEnabled = slSection.Bool("widening_enabled", ctx.StreamLoad.WideningEnabled)
	ctx.StreamLoad.WideningCapBytes = slSection.Int("widening_cap_bytes", ctx.StreamLoad.WideningCapBytes)

	schemaFiles, err := r.collectSchemaFiles(entry.TenantSlug)
	if err != nil {
		return nil, err
	}
	ctx.SchemaFiles = schemaFiles

	mappingFiles, err := r.collectColumnMappingFiles(entry.TenantSlug)
	if err != nil {
		return nil, err
	}
	ctx.ColumnMappingFiles = mappingFiles

	ctx.Paths = r.derivedPaths(ctx)

	ctx.DimensionTables = stringListAt(merged, "dimension_tables")
	ctx.FactTables = stringListAt(merged, "fact_tables")
	ctx.BlobPrefixes = stringMapAt(merged, "blob_prefixes")

	rowFilters, err := rowFiltersAt(merged, "row_filters")
	if err != nil {
		return nil, errs.New(errs.KindConfig, errs.ReasonParseError, "", "row_filters", err)
	}
	ctx.RowFilters = rowFilters

	return ctx, nil
}

// stringListAt reads a YAML list of strings at a dotted path, tolerating a
// missing or non-list value (returns nil in either case).
func stringListAt(r Raw, path string) []string {
	v, ok := lookup(r, path)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// stringMapAt reads a YAML mapping of string to string at a dotted path
// (e.g. "blob_prefixes"), tolerating a missing or non-mapping value (returns
// nil in either case). Used for the per-tenant table-name-to-blob-prefix
// declaration (spec.md §4.2/§8): that mapping must come from tenant config,
// never from mangling the table name itself.
func stringMapAt(r Raw, path string) map[string]string {
	v, ok := lookup(r, path)
	if !ok {
		return nil
	}
	m, ok := asMap(v)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, vv := range m {
		if s, ok := vv.(string); ok {
			out[k] = s
		}
	}
	return out
}

// rowFiltersAt decodes the "row_filters" list into schema.RowFilter values.
// The merged tree already round-trips through gopkg.in/yaml.v3, so
// re-marshaling the raw slice and unmarshaling into the typed slice is the
// simplest correct decode (the same trick the teacher applies to its inline
// validate.contract via a JSON round-trip in cmd/etl/container.go).
func rowFiltersAt(r Raw, path string) ([]schema.RowFilter, error) {
	v, ok := lookup(r, path)
	if !ok {
		return nil, nil
	}
	b, err := yaml.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out []schema.RowFilter
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DerivedPaths returns the six subdirectory roots for the given context,
// creating them on demand. This mirrors spec.md §4.1's derived_paths(context)
// operation.
func (r *Resolver) DerivedPaths(ctx *tenant.Context) (tenant.Paths, error) {
	p := r.derivedPaths(ctx)
	for _, dir := range []string{
		p.SourceFilesIncremental, p.RawIncremental, p.CleanedIncremental,
		p.SourceFilesHistorical, p.RawHistorical, p.CleanedHistorical,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return tenant.Paths{}, fmt.Errorf("derived_paths: %w", err)
		}
	}
	return p, nil
}

func (r *Resolver) derivedPaths(ctx *tenant.Context) tenant.Paths {
	root := r.path("..", "data", ctx.TenantSlug)
	inc := filepath.Join(root, "incremental")
	hist := filepath.Join(root, "historical")
	return tenant.Paths{
		SourceFilesIncremental: filepath.Join(inc, "source_files"),
		RawIncremental:         filepath.Join(inc, "raw"),
		CleanedIncremental:     filepath.Join(inc, "cleaned"),
		SourceFilesHistorical:  filepath.Join(hist, "source_files"),
		RawHistorical:          filepath.Join(hist, "raw"),
		CleanedHistorical:      filepath.Join(hist, "cleaned"),
	}
}

func (r *Resolver) collectSchemaFiles(slug string) ([]string, error) {
	var out []string
	for _, kind := range []string{"tables", "views", "matviews"} {
		dir := r.path("tenants", slug, "schemas", kind)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errs.New(errs.KindConfig, errs.ReasonParseError, "", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
				continue
			}
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *Resolver) collectColumnMappingFiles(slug string) ([]string, error) {
	dir := r.path("tenants", slug, "column_mappings")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.New(errs.KindConfig, errs.ReasonParseError, "", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func loadEnv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	m, err := godotenv.Read(path)
	if err != nil {
		return nil, errs.New(errs.KindConfig, errs.ReasonParseError, "", path, err)
	}
	return m, nil
}

func validateNoSecrets(raw Raw, path string) error {
	var walk func(any) error
	walk = func(v any) error {
		m, ok := asMap(v)
		if !ok {
			return nil
		}
		for k, vv := range m {
			if _, reserved := reservedSecretNames[strings.ToLower(k)]; reserved {
				return errs.New(errs.KindConfig, errs.ReasonSecretInYaml, "", fmt.Sprintf("%s: key %q", path, k), nil)
			}
			if err := walk(vv); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(raw)
}

func floatOr(r Raw, key string, def float64) float64 {
	v, ok := lookup(r, key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return def
}
