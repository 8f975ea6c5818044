// Package dbctl manages the control-plane side of a tenant's StarRocks
// database: live schema introspection, column widening, truncation, and DDL
// bootstrap. StarRocks speaks the MySQL wire protocol, so this wraps
// *sqlx.DB over go-sql-driver/mysql the way the teacher wraps *pgxpool.Pool
// for its Postgres repository (internal/storage/postgres.Repository) — one
// Config-constructed type holding a pooled connection plus the table it is
// scoped to operate against.
package dbctl

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	_ "github.com/go-sql-driver/mysql"

	"tenantetl/internal/errs"
)

// Config configures a Conn.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	PoolMax  int
}

// DSN builds a go-sql-driver/mysql DSN from Config.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&interpolateParams=true",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Conn wraps a pooled connection to one tenant's StarRocks database.
type Conn struct {
	DB       *sqlx.DB
	Database string
}

// Open connects to the configured database and verifies it with a ping.
func Open(ctx context.Context, cfg Config) (*Conn, error) {
	db, err := sqlx.ConnectContext(ctx, "mysql", cfg.DSN())
	if err != nil {
		return nil, errs.New(errs.KindLoad, errs.ReasonTransient, "", cfg.Database, err)
	}
	if cfg.PoolMax > 0 {
		db.SetMaxOpenConns(cfg.PoolMax)
	}
	return &Conn{DB: db, Database: cfg.Database}, nil
}

// Close releases the underlying pool.
func (c *Conn) Close() error { return c.DB.Close() }

// CreateDatabaseIfMissing issues CREATE DATABASE IF NOT EXISTS.
func (c *Conn) CreateDatabaseIfMissing(ctx context.Context) error {
	_, err := c.DB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", c.Database))
	if err != nil {
		return errs.New(errs.KindLoad, errs.ReasonPermanent, "", c.Database, err)
	}
	return nil
}

// ApplyDDL executes one table's CREATE statement. It is idempotent only to
// the extent the DDL text itself says "IF NOT EXISTS" — dbctl does not
// inject that clause, since some tenants intentionally use CREATE OR
// REPLACE VIEW semantics that are not idempotent-safe to wrap.
func (c *Conn) ApplyDDL(ctx context.Context, table, ddl string) error {
	if _, err := c.DB.ExecContext(ctx, ddl); err != nil {
		return errs.New(errs.KindLoad, errs.ReasonPermanent, table, ddl, err)
	}
	return nil
}

// TruncateTable empties a table ahead of a full-refresh load. Per spec.md's
// ordering invariant, callers must complete the truncate before any Stream
// Load PUT for the same table is issued.
func (c *Conn) TruncateTable(ctx context.Context, table string) error {
	_, err := c.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE `%s`.`%s`", c.Database, table))
	if err != nil {
		return errs.New(errs.KindLoad, errs.ReasonTruncateFailed, table, "", err)
	}
	return nil
}
