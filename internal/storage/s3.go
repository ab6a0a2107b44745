package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config points at any S3-compatible endpoint (MinIO in development).
type S3Config struct {
	Endpoint   string
	Region     string
	AccessKey  string
	SecretKey  string
	PresignTTL time.Duration
}

type S3Backend struct {
	client     *s3.Client
	presign    *s3.PresignClient
	presignTTL time.Duration
}

func NewS3Backend(ctx context.Context, c S3Config) (*S3Backend, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(c.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.Endpoint)
		o.UsePathStyle = true
	})
	ttl := c.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &S3Backend{client: client, presign: s3.NewPresignClient(client), presignTTL: ttl}, nil
}

func (b *S3Backend) Put(ctx context.Context, bucket, key, contentType string, body io.Reader, size int64) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	return err
}

// Locate presigns a GET; the permanent media URL redirects here on every request.
func (b *S3Backend) Locate(ctx context.Context, bucket, key string) (Location, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return Location{}, ErrObjectMissing
		}
		return Location{}, err
	}
	req, err := b.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(b.presignTTL))
	if err != nil {
		return Location{}, err
	}
	return Location{RedirectURL: req.URL}, nil
}

func (b *S3Backend) EnsureBuckets(ctx context.Context, buckets ...string) error {
	for _, name := range buckets {
		if _, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(name)}); err == nil {
			continue
		}
		_, err := b.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(name)})
		if err != nil {
			var owned *types.BucketAlreadyOwnedByYou
			if errors.As(err, &owned) {
				continue
			}
			return fmt.Errorf("create bucket %s: %w", name, err)
		}
	}
	return nil
}
