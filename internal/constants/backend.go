// Package constants implements tenant "business constants" lookups: small,
// slowly changing key/value tables a tenant stores either relationally
// (pgx/pgxpool, grounded on the teacher's internal/storage/postgres.Repository)
// or as a document collection (mongo-driver, grounded on
// BartekS5-IDA's internal/etl.MongoLoader/MongoToSQLExtractor). Keys are
// namespaced per-tenant with a short hex prefix derived from the tenant's
// UUID, so two tenants sharing a backend never collide (spec.md §6.1).
package constants

import "context"

// Backend reads business constants for one tenant.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	List(ctx context.Context, prefix string) (map[string]string, error)
	Close() error
}
