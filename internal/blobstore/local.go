package blobstore

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Local is a filesystem-backed Provider rooted at a directory, grounded on
// the teacher's file.Local data source and generalized to support listing.
type Local struct{ root string }

// NewLocal returns a Provider rooted at root.
func NewLocal(root string) *Local { return &Local{root: root} }

func (l *Local) List(ctx context.Context, prefix string) ([]Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := filepath.Join(l.root, prefix)
	var out []Blob
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}
		out = append(out, Blob{
			Key:          filepath.ToSlash(rel),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("blobstore: list %s: %w", base, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (l *Local) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	path := filepath.Join(l.root, filepath.FromSlash(strings.TrimPrefix(key, "/")))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("blobstore: open %s: %w", path, err)
	}
	return f, nil
}
