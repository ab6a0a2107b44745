package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalBackend keeps objects on disk under dir/bucket/key. Development only.
type LocalBackend struct {
	dir string
}

func NewLocalBackend(dir string) *LocalBackend { return &LocalBackend{dir: dir} }

func (b *LocalBackend) objectPath(bucket, key string) string {
	return filepath.Join(b.dir, SanitizeFilename(bucket), SanitizeFilename(key))
}

func (b *LocalBackend) Put(_ context.Context, bucket, key, _ string, body io.Reader, size int64) error {
	p := b.objectPath(bucket, key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return err
	}
	n, err := io.Copy(f, io.LimitReader(body, size+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n != size {
		err = fmt.Errorf("short upload: got %d of %d bytes", n, size)
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), p)
}

func (b *LocalBackend) Locate(_ context.Context, bucket, key string) (Location, error) {
	p := b.objectPath(bucket, key)
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Location{}, ErrObjectMissing
		}
		return Location{}, err
	}
	return Location{FilePath: p}, nil
}

func (b *LocalBackend) EnsureBuckets(_ context.Context, buckets ...string) error {
	for _, name := range buckets {
		if err := os.MkdirAll(filepath.Join(b.dir, SanitizeFilename(name)), 0o755); err != nil {
			return err
		}
	}
	return nil
}
