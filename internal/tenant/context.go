// Package tenant defines the frozen, in-memory TenantContext produced by the
// ConfigResolver. No stage in the pipeline is permitted to read tenant
// configuration except through a Context value: this keeps the "no stage may
// read tenant configuration except through the context" invariant mechanical
// rather than a convention to remember.
package tenant

import (
	"path/filepath"

	"tenantetl/internal/schema"
)

// Paths is the set of filesystem roots derived for one tenant, nested under
// both the incremental/ and historical/ trees per the specification.
type Paths struct {
	SourceFilesIncremental string
	RawIncremental         string
	CleanedIncremental     string
	SourceFilesHistorical  string
	RawHistorical          string
	CleanedHistorical      string
}

// DatabaseConfig holds the StarRocks (MySQL-protocol) connection parameters
// and the bulk-load HTTP endpoint template for one tenant.
type DatabaseConfig struct {
	Host         string
	Port         int
	HTTPPort     int
	User         string
	Password     string
	Database     string
	PoolMin      int
	PoolMax      int
	PoolPrePing  bool
	PoolRecycle  int // seconds
}

// StorageConfig holds object-store credentials and location for one tenant.
// Kind selects the Provider implementation in internal/blobstore.
type StorageConfig struct {
	Kind      string // "local" | "object" (covers container+blob and bucket+key)
	Root      string // local filesystem root, when Kind == "local"
	Endpoint  string // object-store endpoint, when Kind == "object"
	Region    string
	Bucket    string // or container name
	Prefix    string
	AccessKey string
	SecretKey string
	Anonymous bool
}

// Context is the frozen, per-tenant view consumed by every stage. It is
// built once by config.Resolver.Get and never mutated afterward.
type Context struct {
	TenantID   string
	TenantSlug string
	Priority   int

	DB      DatabaseConfig
	Storage StorageConfig

	ConstantsBackendKind string
	// ConstantsDSN is the connection string for the tenant's business-
	// constants backend: a Postgres DSN when ConstantsBackendKind ==
	// "relational", a MongoDB URI when "document".
	ConstantsDSN string

	Paths Paths

	SchemaFiles        []string
	ColumnMappingFiles []string
	ComputedColumnFile string
	SeedDir            string

	// DimensionTables and FactTables classify table names for the job engine
	// (evening_dimension_refresh, morning_dimension_incremental,
	// morning_fact_incremental), declared under the "dimension_tables" /
	// "fact_tables" keys of the merged tenant config.
	DimensionTables []string
	FactTables      []string

	// RowFilters holds every tenant-declared row-level predicate across all
	// tables, decoded from the merged "row_filters" list (shared business
	// rules layer plus tenant overrides). The Transformer selects the subset
	// matching its own table.
	RowFilters []schema.RowFilter

	// BlobPrefixes maps a destination table name to the provider-native path
	// segment its source blobs are filed under, declared per tenant under the
	// "blob_prefixes" config key. Source folder names are not algorithmically
	// derivable from table names (dim_dealer_master's blobs live under
	// DimDealer_MS, not DimDealerMaster), so this must be an explicit,
	// per-tenant mapping rather than a naming convention.
	BlobPrefixes map[string]string

	// Env is the flat secret map loaded from the tenant's .env file. It is
	// never merged into the YAML tree (see SPEC_FULL.md §2.1 / spec.md §4.1).
	Env map[string]string

	// StreamLoad carries per-tenant bulk-load tuning (chunk size, timeouts).
	StreamLoad StreamLoadConfig
}

// StreamLoadConfig configures chunking and the Stream Load HTTP request.
type StreamLoadConfig struct {
	ChunkRows        int
	TimeoutSeconds   int
	MaxFilterRatio   float64
	StrictMode       bool
	ColumnSeparator  byte
	SendColumnsHeader bool
	WideningCapBytes int
	WideningEnabled  bool
}

// DefaultStreamLoadConfig returns the specification's defaults: 8192-row
// chunks, 900s timeout, strict max_filter_ratio=0.0, strict_mode=false.
func DefaultStreamLoadConfig() StreamLoadConfig {
	return StreamLoadConfig{
		ChunkRows:         8192,
		TimeoutSeconds:    900,
		MaxFilterRatio:    0.0,
		StrictMode:        false,
		ColumnSeparator:   0x01,
		SendColumnsHeader: true,
		WideningCapBytes:  65533,
		WideningEnabled:   true,
	}
}

// Secret looks up a key in Env.
func (c *Context) Secret(key string) (string, bool) {
	v, ok := c.Env[key]
	return v, ok
}

// SecretPrefix derives the per-tenant constants-backend secret prefix from
// the first 8 hex characters of the tenant UUID, e.g. "BC_3607d64c_".
// Two tenants sharing one OS environment can never collide because the
// prefix is derived from an identifier unique to each tenant.
func (c *Context) SecretPrefix() string {
	id := c.TenantID
	if len(id) > 8 {
		id = id[:8]
	}
	return "BC_" + id + "_"
}

// UnderRoot joins name onto root with filepath.Join. It does not check
// that the result stays inside root.
func (p Paths) UnderRoot(root, name string) string {
	return filepath.Join(root, name)
}
