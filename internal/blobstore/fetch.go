package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"tenantetl/internal/errs"
)

// FetchOptions configures a BlobFetcher run.
type FetchOptions struct {
	Prefix           string
	DestDir          string
	RetryAttempts    uint
	ProgressEvery    int // log a milestone line every N blobs; 0 disables.
}

// Fetcher downloads a tenant's pending blobs into a local staging
// directory, one file at a time by default (spec.md §4.1 — concurrent
// downloads are an explicit Non-goal; sequential fetch keeps memory bounded
// and keeps retry semantics simple).
type Fetcher struct {
	provider Provider
	log      *zap.Logger
}

// NewFetcher builds a Fetcher over provider.
func NewFetcher(provider Provider, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{provider: provider, log: log}
}

// List exposes the underlying provider's listing, so callers that need a
// separate discovery step ahead of FetchAll (e.g. to record a discovery
// state transition) don't need their own Provider reference.
func (f *Fetcher) List(ctx context.Context, prefix string) ([]Blob, error) {
	blobs, err := f.provider.List(ctx, prefix)
	if err != nil {
		return nil, errs.New(errs.KindDiscovery, errs.ReasonListFailed, "", prefix, err)
	}
	return blobs, nil
}

// FetchedFile names one blob downloaded to local disk.
type FetchedFile struct {
	Key      string
	LocalPath string
}

// FetchAll lists blobs under opts.Prefix and downloads each to opts.DestDir,
// decompressing gzip-suffixed blobs transparently. Downloads never leave a
// partial file at the final path: each blob is written to a ".part" sibling
// first and renamed only after the full body has landed on disk and the
// number of bytes read from the provider matches the size its listing
// reported.
func (f *Fetcher) FetchAll(ctx context.Context, opts FetchOptions) ([]FetchedFile, error) {
	blobs, err := f.provider.List(ctx, opts.Prefix)
	if err != nil {
		return nil, errs.New(errs.KindDiscovery, errs.ReasonListFailed, "", opts.Prefix, err)
	}
	if err := os.MkdirAll(opts.DestDir, 0o755); err != nil {
		return nil, errs.New(errs.KindDownload, errs.ReasonPermanent, "", opts.DestDir, err)
	}

	out := make([]FetchedFile, 0, len(blobs))
	for i, b := range blobs {
		local, err := f.fetchOne(ctx, b, opts.DestDir, opts.RetryAttempts)
		if err != nil {
			return out, err
		}
		out = append(out, FetchedFile{Key: b.Key, LocalPath: local})
		if opts.ProgressEvery > 0 && (i+1)%opts.ProgressEvery == 0 {
			f.log.Info("blob fetch progress", zap.Int("fetched", i+1), zap.Int("total", len(blobs)))
		}
	}
	return out, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, b Blob, destDir string, attempts uint) (string, error) {
	if attempts == 0 {
		attempts = 3
	}
	destName := filepath.Base(b.Key)
	destName = strings.TrimSuffix(destName, ".gz")
	finalPath := filepath.Join(destDir, destName)
	partPath := finalPath + ".part"

	err := retry.Do(
		func() error { return f.download(ctx, b, partPath) },
		retry.Attempts(attempts),
		retry.Context(ctx),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			f.log.Warn("retrying blob download", zap.String("key", b.Key), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		_ = os.Remove(partPath)
		return "", errs.New(errs.KindDownload, errs.ReasonTransient, "", b.Key, err)
	}
	if err := os.Rename(partPath, finalPath); err != nil {
		return "", errs.New(errs.KindDownload, errs.ReasonPermanent, "", b.Key, err)
	}
	return finalPath, nil
}

// countingReader tracks bytes read from the underlying reader, independent
// of anything downstream that may later transform them (e.g. gunzip).
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (f *Fetcher) download(ctx context.Context, b Blob, partPath string) error {
	rc, err := f.provider.Open(ctx, b.Key)
	if err != nil {
		return err
	}
	defer rc.Close()

	counted := &countingReader{r: rc}
	var src io.Reader = counted
	if strings.HasSuffix(b.Key, ".gz") {
		gz, err := gzip.NewReader(counted)
		if err != nil {
			return fmt.Errorf("blobstore: gunzip %s: %w", b.Key, err)
		}
		defer gz.Close()
		src = gz
	}

	part, err := os.OpenFile(partPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		part.Close()
		return err
	}
	if err := part.Sync(); err != nil {
		part.Close()
		return err
	}
	if err := part.Close(); err != nil {
		return err
	}

	// Size is reported pre-decompression, so integrity is checked against
	// bytes read from the provider, not bytes written after gunzip.
	if b.Size > 0 && counted.n != b.Size {
		return errs.New(errs.KindDownload, errs.ReasonIntegrity, "", b.Key,
			fmt.Errorf("downloaded %d bytes, provider reported %d", counted.n, b.Size))
	}
	return nil
}
