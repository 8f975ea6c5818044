package blobstore_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"tenantetl/internal/blobstore"
)

// flakyProvider fails Open the first N times per key, then succeeds.
type flakyProvider struct {
	blobs     []blobstore.Blob
	content   map[string]string
	failTimes map[string]*int32
	failN     int32
}

func (p *flakyProvider) List(ctx context.Context, prefix string) ([]blobstore.Blob, error) {
	return p.blobs, nil
}

func (p *flakyProvider) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	counter := p.failTimes[key]
	if counter == nil {
		c := int32(0)
		p.failTimes[key] = &c
		counter = &c
	}
	if atomic.AddInt32(counter, 1) <= p.failN {
		return nil, errors.New("simulated transient failure")
	}
	return io.NopCloser(newStringReader(p.content[key])), nil
}

type stringReader struct{ s string; i int }

func newStringReader(s string) *stringReader { return &stringReader{s: s} }
func (r *stringReader) Read(p []byte) (int, error) {
	if r.i >= len(r.s) {
		return 0, io.EOF
	}
	n := copy(p, r.s[r.i:])
	r.i += n
	return n, nil
}

func TestFetchAllNeverLeavesPartialFileAtFinalName(t *testing.T) {
	dir := t.TempDir()
	provider := &flakyProvider{
		blobs:     []blobstore.Blob{{Key: "orders.csv", Size: int64(len("id,amount\n1,10\n"))}},
		content:   map[string]string{"orders.csv": "id,amount\n1,10\n"},
		failTimes: map[string]*int32{},
		failN:     2,
	}
	f := blobstore.NewFetcher(provider, nil)
	files, err := f.FetchAll(context.Background(), blobstore.FetchOptions{DestDir: dir, RetryAttempts: 5})
	require.NoError(t, err)
	require.Len(t, files, 1)

	_, partErr := os.Stat(filepath.Join(dir, "orders.csv.part"))
	require.True(t, os.IsNotExist(partErr), "partial file must not survive a successful fetch")

	data, err := os.ReadFile(files[0].LocalPath)
	require.NoError(t, err)
	require.Equal(t, "id,amount\n1,10\n", string(data))
}

func TestFetchAllFailsOnSizeMismatchAndLeavesNoFinalFile(t *testing.T) {
	dir := t.TempDir()
	provider := &flakyProvider{
		blobs:     []blobstore.Blob{{Key: "short.csv", Size: 999}},
		content:   map[string]string{"short.csv": "id,amount\n1,10\n"},
		failTimes: map[string]*int32{},
		failN:     0,
	}
	f := blobstore.NewFetcher(provider, nil)
	_, err := f.FetchAll(context.Background(), blobstore.FetchOptions{DestDir: dir, RetryAttempts: 1})
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "short.csv"))
	require.True(t, os.IsNotExist(statErr), "a size-mismatched download must not be renamed into place as a success")
}

func TestFetchAllExhaustsRetriesAndLeavesNoFinalFile(t *testing.T) {
	dir := t.TempDir()
	provider := &flakyProvider{
		blobs:     []blobstore.Blob{{Key: "bad.csv", Size: 1}},
		content:   map[string]string{"bad.csv": "x"},
		failTimes: map[string]*int32{},
		failN:     100,
	}
	f := blobstore.NewFetcher(provider, nil)
	_, err := f.FetchAll(context.Background(), blobstore.FetchOptions{DestDir: dir, RetryAttempts: 2})
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "bad.csv"))
	require.True(t, os.IsNotExist(statErr))
	_, partErr := os.Stat(filepath.Join(dir, "bad.csv.part"))
	require.True(t, os.IsNotExist(partErr))
}
