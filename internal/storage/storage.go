// Package storage stores uploaded media (profile pictures, id cards, post images)
// and hands out permanent URLs that resolve through the /media route.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"
)

// Logical buckets. Physical names come from config.
const (
	BucketProfilePictures = "profile-pictures"
	BucketCollegeIDs      = "college-ids"
	BucketPostImages      = "post-images"
)

var (
	ErrTooLarge      = errors.New("file too large")
	ErrEmptyFile     = errors.New("empty file")
	ErrUnknownBucket = errors.New("unknown bucket")
	ErrObjectMissing = errors.New("object not found")
)

// Location says how to serve a stored object: either redirect the client to a
// short-lived URL or stream a local file.
type Location struct {
	RedirectURL string
	FilePath    string
}

// Backend is the raw object store.
type Backend interface {
	Put(ctx context.Context, bucket, key, contentType string, body io.Reader, size int64) error
	Locate(ctx context.Context, bucket, key string) (Location, error)
	EnsureBuckets(ctx context.Context, buckets ...string) error
}

// Blob is one uploaded file.
type Blob struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// StoredObject is the result of an upload. URL is empty for private buckets.
type StoredObject struct {
	Bucket string
	Key    string
	URL    string
}

// Uploader is what the services depend on.
type Uploader interface {
	Upload(ctx context.Context, bucket, ownerID string, blob *Blob) (*StoredObject, error)
}

// Options configure a Service.
type Options struct {
	PublicBaseURL  string
	BucketPrefix   string
	Buckets        map[string]string // logical -> physical
	MaxUploadBytes int64
	Now            func() time.Time
}

// Service names objects, enforces limits and builds permanent media URLs.
type Service struct {
	backend Backend
	opts    Options
}

func NewService(backend Backend, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Buckets == nil {
		opts.Buckets = map[string]string{}
	}
	for _, b := range []string{BucketProfilePictures, BucketCollegeIDs, BucketPostImages} {
		if _, ok := opts.Buckets[b]; !ok {
			opts.Buckets[b] = b
		}
	}
	return &Service{backend: backend, opts: opts}
}

// IsPublic reports whether objects in the logical bucket may be served without auth.
func IsPublic(bucket string) bool {
	return bucket == BucketProfilePictures || bucket == BucketPostImages
}

func (s *Service) physical(bucket string) (string, error) {
	name, ok := s.opts.Buckets[bucket]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownBucket, bucket)
	}
	return s.opts.BucketPrefix + name, nil
}

// EnsureBuckets creates any missing physical buckets.
func (s *Service) EnsureBuckets(ctx context.Context) error {
	names := make([]string, 0, len(s.opts.Buckets))
	for logical := range s.opts.Buckets {
		p, err := s.physical(logical)
		if err != nil {
			return err
		}
		names = append(names, p)
	}
	return s.backend.EnsureBuckets(ctx, names...)
}

func (s *Service) Upload(ctx context.Context, bucket, ownerID string, blob *Blob) (*StoredObject, error) {
	if blob == nil || blob.Body == nil || blob.Size == 0 {
		return nil, ErrEmptyFile
	}
	if s.opts.MaxUploadBytes > 0 && blob.Size > s.opts.MaxUploadBytes {
		return nil, ErrTooLarge
	}
	phys, err := s.physical(bucket)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s_%d_%s", ownerID, s.opts.Now().UnixMilli(), SanitizeFilename(blob.Filename))
	ct := blob.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	if err := s.backend.Put(ctx, phys, key, ct, blob.Body, blob.Size); err != nil {
		return nil, fmt.Errorf("upload to %s: %w", bucket, err)
	}

	obj := &StoredObject{Bucket: bucket, Key: key}
	if IsPublic(bucket) {
		obj.URL = s.MediaURL(bucket, key)
	}
	return obj, nil
}

// MediaURL is stable for the lifetime of the object, unlike a presigned URL.
func (s *Service) MediaURL(bucket, key string) string {
	base := strings.TrimRight(s.opts.PublicBaseURL, "/")
	return base + "/" + path.Join("media", bucket, url.PathEscape(key))
}

// Locate resolves a public object for the media route.
func (s *Service) Locate(ctx context.Context, bucket, key string) (Location, error) {
	if !IsPublic(bucket) {
		return Location{}, fmt.Errorf("%w: %s", ErrUnknownBucket, bucket)
	}
	if key == "" || key != SanitizeFilename(key) {
		return Location{}, ErrObjectMissing
	}
	phys, err := s.physical(bucket)
	if err != nil {
		return Location{}, err
	}
	return s.backend.Locate(ctx, phys, key)
}

// SanitizeFilename keeps [A-Za-z0-9._-] and replaces everything else with '_'.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}
