package frame_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tenantetl/internal/frame"
)

func TestSplitProducesFixedSizeChunksWithShortTail(t *testing.T) {
	f := frame.New([]string{"id"})
	for i := 0; i < 10; i++ {
		_ = f.AppendRow([]any{i})
	}
	chunks := frame.Split(f, 4)
	require.Len(t, chunks, 3)
	require.Equal(t, 0, chunks[0].Start)
	require.Equal(t, 4, chunks[0].End)
	require.Equal(t, 2, chunks[2].Ordinal)
	require.Equal(t, 8, chunks[2].Start)
	require.Equal(t, 10, chunks[2].End)
}

func TestSplitEmptyFrameYieldsNoChunks(t *testing.T) {
	f := frame.New([]string{"id"})
	require.Empty(t, frame.Split(f, 100))
}

func TestSliceMaterializesOnlyThatRange(t *testing.T) {
	f := frame.New([]string{"id"})
	for i := 0; i < 5; i++ {
		_ = f.AppendRow([]any{i})
	}
	chunks := frame.Split(f, 2)
	sliced := f.Slice(chunks[1])
	require.Equal(t, 2, sliced.NumRows())
	require.Equal(t, 2, sliced.Rows[0][0])
	require.Equal(t, 3, sliced.Rows[1][0])
}
