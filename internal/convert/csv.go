package convert

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"tenantetl/internal/frame"
)

// CSVOptions configures the streaming CSV converter. Grounded on the
// teacher's internal/parser/csv.Options.
type CSVOptions struct {
	HasHeader bool
	Comma     rune
	TrimSpace bool
}

// CSVConverter parses CSV input into a raw frame, one column per header
// cell (or col_N when headerless). It never buffers the whole file; rows
// with a field count mismatch are skipped and counted rather than aborting
// the whole blob.
type CSVConverter struct{ opt CSVOptions }

// NewCSVConverter constructs a CSVConverter.
func NewCSVConverter(opt CSVOptions) *CSVConverter { return &CSVConverter{opt: opt} }

const utf8BOM = "\ufeff"

func (c *CSVConverter) Convert(r io.Reader) (*frame.Frame, int, error) {
	cr := csv.NewReader(r)
	if c.opt.Comma != 0 {
		cr.Comma = c.opt.Comma
	}

	var headers []string
	if c.opt.HasHeader {
		h, err := cr.Read()
		if err != nil {
			return nil, 0, fmt.Errorf("convert: read csv header: %w", err)
		}
		headers = stripHeaderBOM(h)
	}

	f := frame.New(headers)
	skipped := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		if headers == nil {
			headers = make([]string, len(row))
			for i := range headers {
				headers[i] = fmt.Sprintf("col_%d", i)
			}
			f = frame.New(headers)
		}
		if len(row) != len(headers) {
			skipped++
			continue
		}
		vals := make([]any, len(row))
		for i, v := range row {
			if c.opt.TrimSpace {
				v = strings.TrimSpace(v)
			}
			// StarRocks compares strings byte-for-byte; a tenant's source
			// system may emit NFD-decomposed accents where another emits
			// NFC, so normalize before the value ever reaches a mapping
			// or filter rule.
			v = norm.NFC.String(v)
			if v == "" {
				vals[i] = nil
			} else {
				vals[i] = v
			}
		}
		_ = f.AppendRow(vals)
	}
	return f, skipped, nil
}

// stripHeaderBOM strips a leading UTF-8 byte-order mark from the first
// header cell. A BOM is an encoding artifact, never part of the visible
// column name, so removing it isn't a rename: column names are otherwise
// preserved verbatim from the source (spec.md §4.3) — any casing or
// separator normalization belongs to the Transformer's column mapping.
func stripHeaderBOM(h []string) []string {
	out := make([]string, len(h))
	copy(out, h)
	if len(out) > 0 {
		out[0] = strings.TrimPrefix(out[0], utf8BOM)
	}
	return out
}
