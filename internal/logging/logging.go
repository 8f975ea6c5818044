// Package logging builds the process-wide *zap.Logger. The engine runs as a
// batch CLI rather than the request-serving services elsewhere in the
// example pack that reach for zap through an adapter interface (e.g.
// Gobusters/ectologger's zapadapter), so this package constructs a
// zap.Logger directly instead of wrapping it behind that interface — there
// is no HTTP middleware here to satisfy.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the logger's format and verbosity.
type Config struct {
	// JSON selects zap's production JSON encoder; false uses the
	// human-readable console encoder (development runs, local debugging).
	JSON    bool
	Verbose bool
}

// New builds a *zap.Logger per cfg. Callers must Sync() before process
// exit to flush any buffered output.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Verbose {
		level = zapcore.DebugLevel
	}

	zc := zap.NewProductionConfig()
	if !cfg.JSON {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zc.Build()
}

// TenantFields returns the base fields every log line in a tenant's run
// should carry, so grepping one tenant's activity out of a shared log
// stream never depends on message text.
func TenantFields(tenantSlug, tenantID string) []zap.Field {
	return []zap.Field{
		zap.String("tenant_slug", tenantSlug),
		zap.String("tenant_id", tenantID),
	}
}
