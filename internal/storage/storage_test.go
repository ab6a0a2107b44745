package storage

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalService(t *testing.T) *Service {
	t.Helper()
	fixed := time.UnixMilli(1700000000000)
	svc := NewService(NewLocalBackend(t.TempDir()), Options{
		PublicBaseURL:  "http://cdn.test/",
		BucketPrefix:   "cc-",
		MaxUploadBytes: 16,
		Now:            func() time.Time { return fixed },
	})
	require.NoError(t, svc.EnsureBuckets(context.Background()))
	return svc
}

func TestUpload_PublicBucketGetsPermanentURL(t *testing.T) {
	svc := newLocalService(t)
	ctx := context.Background()

	obj, err := svc.Upload(ctx, BucketProfilePictures, "u1", &Blob{
		Filename: "me pic.png", ContentType: "image/png", Size: 4, Body: strings.NewReader("abcd"),
	})
	require.NoError(t, err)
	assert.Equal(t, "u1_1700000000000_me_pic.png", obj.Key)
	assert.Equal(t, "http://cdn.test/media/profile-pictures/u1_1700000000000_me_pic.png", obj.URL)

	loc, err := svc.Locate(ctx, BucketProfilePictures, obj.Key)
	require.NoError(t, err)
	data, err := os.ReadFile(loc.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(data))
}

func TestUpload_PrivateBucketHasNoURL(t *testing.T) {
	svc := newLocalService(t)
	ctx := context.Background()

	obj, err := svc.Upload(ctx, BucketCollegeIDs, "u1", &Blob{Filename: "id.jpg", Size: 2, Body: strings.NewReader("ok")})
	require.NoError(t, err)
	assert.Empty(t, obj.URL)

	_, err = svc.Locate(ctx, BucketCollegeIDs, obj.Key)
	assert.ErrorIs(t, err, ErrUnknownBucket)
}

func TestUpload_Limits(t *testing.T) {
	svc := newLocalService(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, BucketPostImages, "u1", &Blob{Filename: "a", Size: 0, Body: strings.NewReader("")})
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = svc.Upload(ctx, BucketPostImages, "u1", &Blob{Filename: "a", Size: 17, Body: strings.NewReader(strings.Repeat("x", 17))})
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = svc.Upload(ctx, "nope", "u1", &Blob{Filename: "a", Size: 1, Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrUnknownBucket)
}

func TestLocate_RejectsTraversal(t *testing.T) {
	svc := newLocalService(t)
	_, err := svc.Locate(context.Background(), BucketPostImages, "../secret")
	assert.ErrorIs(t, err, ErrObjectMissing)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"photo.jpg":           "photo.jpg",
		"../../etc/passwd":    "passwd",
		`C:\Users\me\id.png`:  "id.png",
		"héllo wörld.png":     "h_llo_w_rld.png",
		"":                    "file",
		".hidden":             "hidden",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFilename(in), in)
	}
}
