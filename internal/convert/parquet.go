package convert

import (
	"fmt"
	"io"

	"tenantetl/internal/frame"
)

// ParquetConverter exists only to satisfy the suffix registry. No library in
// the retrieved example pack reads Parquet, and Parquet's columnar layout
// already matches the destination's bulk-load shape, so parquet blobs are
// not run through row-level conversion at all: internal/pipeline detects
// the ".parquet" suffix upstream and routes the blob directly to the raw
// passthrough load path (internal/loader.LoadRawFile), bypassing
// Converter/Transformer entirely. Convert is therefore never expected to be
// called for a real parquet blob; it reports that explicitly rather than
// silently producing an empty frame.
type ParquetConverter struct{}

// NewParquetConverter constructs a ParquetConverter.
func NewParquetConverter() *ParquetConverter { return &ParquetConverter{} }

func (c *ParquetConverter) Convert(r io.Reader) (*frame.Frame, int, error) {
	return nil, 0, fmt.Errorf("convert: parquet blobs bypass row conversion; route via internal/loader.LoadRawFile")
}
