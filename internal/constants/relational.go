package constants

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"tenantetl/internal/errs"
)

// RelationalBackend reads business constants from a
// business_constants(key, value, updated_at) table, grounded on the
// teacher's internal/storage/postgres.Repository pgxpool usage.
type RelationalBackend struct {
	pool       *pgxpool.Pool
	tenantID   string
	schemaName string
}

// NewRelationalBackend connects a pgxpool.Pool from dsn, scoped to one
// tenant's key namespace.
func NewRelationalBackend(ctx context.Context, dsn, tenantID, schemaName string) (*RelationalBackend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errs.New(errs.KindConfig, errs.ReasonTransient, "", "constants backend", err)
	}
	if schemaName == "" {
		schemaName = "public"
	}
	return &RelationalBackend{pool: pool, tenantID: tenantID, schemaName: schemaName}, nil
}

func (b *RelationalBackend) table() string {
	return fmt.Sprintf("%s.business_constants", b.schemaName)
}

func (b *RelationalBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	row := b.pool.QueryRow(ctx, fmt.Sprintf("SELECT value FROM %s WHERE key = $1", b.table()), NamespacedKey(b.tenantID, key))
	if err := row.Scan(&value); err != nil {
		return "", false, nil
	}
	return value, true, nil
}

func (b *RelationalBackend) List(ctx context.Context, prefix string) (map[string]string, error) {
	full := NamespacedKey(b.tenantID, prefix)
	rows, err := b.pool.Query(ctx, fmt.Sprintf("SELECT key, value FROM %s WHERE key LIKE $1", b.table()), full+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (b *RelationalBackend) Close() error {
	b.pool.Close()
	return nil
}
