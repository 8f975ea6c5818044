package frame

// ChunkDescriptor identifies a contiguous row range of a Frame destined for
// one Stream Load request (spec.md §4.5.4's default 8192-row chunk size).
// Ordinal is used by pkg/idempotency to derive a stable load label and is
// 0-based in declaration order.
type ChunkDescriptor struct {
	Start, End int // [Start, End) row range into the source Frame.
	Ordinal    int
	Columns    []string // column order shared by every chunk of the same load.
}

// Split partitions a frame into fixed-size chunks, in row order. The final
// chunk may be shorter than chunkRows. A frame with zero rows yields zero
// chunks (nothing to load, not an empty chunk).
func Split(f *Frame, chunkRows int) []ChunkDescriptor {
	if chunkRows <= 0 {
		chunkRows = f.NumRows()
	}
	var out []ChunkDescriptor
	for start, ord := 0, 0; start < f.NumRows(); start, ord = start+chunkRows, ord+1 {
		end := start + chunkRows
		if end > f.NumRows() {
			end = f.NumRows()
		}
		out = append(out, ChunkDescriptor{Start: start, End: end, Ordinal: ord, Columns: f.Columns})
	}
	return out
}

// Slice materializes the rows for one ChunkDescriptor as a standalone Frame.
func (f *Frame) Slice(c ChunkDescriptor) *Frame {
	out := New(f.Columns)
	out.Rows = append(out.Rows, f.Rows[c.Start:c.End]...)
	return out
}
