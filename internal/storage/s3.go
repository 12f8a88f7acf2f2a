package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config configures an S3-compatible object store (AWS S3, DigitalOcean
// Spaces, MinIO).
type S3Config struct {
	Endpoint  string // host[:port], no scheme
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Insecure  bool // plain HTTP, for local MinIO in dev
	PathStyle bool // path-style addressing; needed when the bucket name has a dot
}

// S3Store reads and writes objects in one bucket of an S3-compatible store.
type S3Store struct {
	client *minio.Client
	cfg    S3Config
}

// NewS3Store builds a client for the configured endpoint and bucket.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	lookup := minio.BucketLookupAuto
	if cfg.PathStyle {
		lookup = minio.BucketLookupPath
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       !cfg.Insecure,
		Region:       cfg.Region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client for %s: %w", cfg.Endpoint, err)
	}

	return &S3Store{client: client, cfg: cfg}, nil
}

// Fetch downloads one object. A missing key maps to ErrNotFound so callers
// can distinguish it from transport failures.
func (s *S3Store) Fetch(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}

		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	return data, nil
}

// Store uploads data under key and returns the object's public URL.
func (s *S3Store) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}

	return s.objectURL(key), nil
}

// objectURL renders the path-style URL of an object, matching how the store
// was addressed.
func (s *S3Store) objectURL(key string) string {
	scheme := "https"
	if s.cfg.Insecure {
		scheme = "http"
	}

	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.Endpoint, s.cfg.Bucket, strings.TrimPrefix(key, "/"))
}
