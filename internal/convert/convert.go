// Package convert implements the bronze-layer stage: turning one downloaded
// blob (CSV, XLSX, or Parquet) into a frame.Frame of raw, untyped string
// values, column order exactly as found in the source file. It generalizes
// the teacher's per-format internal/parser packages (parser.Parser,
// parser/csv.Parser) behind a single suffix-keyed registry, the same
// registration idiom the teacher uses for per-kind DDL functions
// (internal/dbctl-equivalent RegisterDDL/ddlFns in the teacher's db layer).
package convert

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"tenantetl/internal/errs"
	"tenantetl/internal/frame"
)

// Converter turns one file's bytes into a raw frame. SkippedRows reports
// rows dropped for width mismatches or parse errors (soft-fail, matching
// the teacher's CSV parser behavior).
type Converter interface {
	Convert(r io.Reader) (f *frame.Frame, skippedRows int, err error)
}

var (
	mu       sync.RWMutex
	registry = map[string]func() Converter{}
)

// Register binds a Converter factory to a file suffix (e.g. ".csv",
// ".xlsx", ".parquet"). Suffix matching is case-insensitive.
func Register(suffix string, factory func() Converter) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(suffix)] = factory
}

func init() {
	Register(".csv", func() Converter { return NewCSVConverter(CSVOptions{HasHeader: true, TrimSpace: true}) })
	Register(".xlsx", func() Converter { return NewXLSXConverter() })
	Register(".parquet", func() Converter { return NewParquetConverter() })
}

// ForFile resolves the Converter registered for path's suffix.
func ForFile(path string) (Converter, error) {
	mu.RLock()
	defer mu.RUnlock()
	for suffix, factory := range registry {
		if strings.HasSuffix(strings.ToLower(path), suffix) {
			return factory(), nil
		}
	}
	return nil, errs.New(errs.KindConvert, errs.ReasonUnsupportedFormat, "", path, fmt.Errorf("no converter registered for %s", path))
}
