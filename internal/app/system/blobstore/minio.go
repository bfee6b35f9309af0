package blobstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinIOConfig configures an S3-compatible bucket.
type MinIOConfig struct {
	Endpoint  string // host:port, no scheme
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL prefixes object paths in returned URLs. Defaults to the
	// endpoint URL plus bucket.
	PublicURL string
}

// MinIO stores blobs in an S3-compatible bucket.
type MinIO struct {
	client    *minio.Client
	bucket    string
	publicURL string
	log       *zap.Logger
}

func NewMinIO(cfg MinIOConfig, logger *zap.Logger) (*MinIO, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("blobstore: %w", err)
	}
	public := strings.TrimRight(cfg.PublicURL, "/")
	if public == "" {
		public = strings.TrimRight(client.EndpointURL().String(), "/") + "/" + cfg.Bucket
	}
	return &MinIO{client: client, bucket: cfg.Bucket, publicURL: public, log: logger}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (m *MinIO) EnsureBucket(ctx context.Context) error {
	ok, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("blobstore: bucket check: %w", err)
	}
	if ok {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("blobstore: make bucket: %w", err)
	}
	m.log.Info("blob bucket created", zap.String("bucket", m.bucket))
	return nil
}

func (m *MinIO) Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) (string, error) {
	info, err := m.client.PutObject(ctx, m.bucket, path, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("blobstore: put %s: %w", path, err)
	}
	m.log.Debug("blob uploaded", zap.String("key", info.Key), zap.Int64("size", info.Size))
	return m.publicURL + "/" + path, nil
}
