package blob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config carries the connection settings for a MinIO/S3 backend.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// S3 stores objects in a MinIO/S3 bucket.
type S3 struct {
	client *mclient.Client
	bucket string
}

// NewS3 builds the client, normalising a scheme-carrying endpoint, and
// fails fast when the target bucket does not exist.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	const op = "blob/NewS3"

	endpoint := cfg.Endpoint
	secure := strings.HasPrefix(endpoint, "https://")
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: bucket %q does not exist", op, cfg.Bucket)
	}

	return &S3{client: client, bucket: cfg.Bucket}, nil
}

func (s *S3) Save(ctx context.Context, key string, contentType string, r io.Reader) error {
	const op = "blob/s3/Save"

	// Size -1 streams with multipart upload; payload sizes are unknown
	// at this point (multipart form parts).
	_, err := s.client.PutObject(ctx, s.bucket, key, r, -1, mclient.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *S3) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	const op = "blob/s3/Open"

	obj, err := s.client.GetObject(ctx, s.bucket, key, mclient.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	// GetObject is lazy; Stat forces the first request so a missing key
	// surfaces here instead of on the first Read.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		errResp := mclient.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.StatusCode == 404 {
			return nil, "", fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	ct := info.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return obj, ct, nil
}

func (s *S3) Remove(ctx context.Context, key string) error {
	const op = "blob/s3/Remove"

	if err := s.client.RemoveObject(ctx, s.bucket, key, mclient.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
