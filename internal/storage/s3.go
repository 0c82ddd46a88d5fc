package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config locates a bucket on any S3-compatible service.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	// PublicURL is the base objects are served from, such as a CDN. When
	// empty, path-style URLs on Endpoint are used.
	PublicURL string
}

// S3 stores media in one public-read bucket using path-style addressing,
// which MinIO and AWS both accept.
type S3 struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3 creates an S3 backend from cfg.
func NewS3(cfg S3Config) (*S3, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("s3 storage: endpoint and credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("s3 storage: bucket is required")
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	base := strings.TrimRight(cfg.PublicURL, "/")
	if base == "" {
		base = endpoint + "/" + cfg.Bucket
	}

	return &S3{
		client: s3.New(s3.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
			UsePathStyle: true,
		}),
		bucket:  cfg.Bucket,
		baseURL: base,
	}, nil
}

func (b *S3) Name() string { return "s3" }

// Check confirms the bucket exists and the credentials can reach it.
func (b *S3) Check(ctx context.Context) error {
	if _, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.bucket)}); err != nil {
		return fmt.Errorf("s3 bucket %s: %w", b.bucket, err)
	}
	return nil
}

// Put uploads an object with a public-read ACL and returns its URL.
func (b *S3) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s/%s: %w", b.bucket, key, err)
	}
	return b.objectURL(key), nil
}

// Delete removes an object from the bucket.
func (b *S3) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", b.bucket, key, err)
	}
	return nil
}

func (b *S3) objectURL(key string) string {
	return b.baseURL + "/" + key
}
