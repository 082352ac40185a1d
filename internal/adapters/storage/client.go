package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultURLTTL is used when a caller passes a non-positive ttl.
const DefaultURLTTL = 24 * time.Hour

// maxPresignTTL is the upper bound S3 accepts for a presigned URL.
const maxPresignTTL = 7 * 24 * time.Hour

// MinIOService implements ObjectStore using MinIO.
type MinIOService struct {
	client *minio.Client
}

var _ ObjectStore = (*MinIOService)(nil)

// NewMinIOService creates a new MinIO storage service.
func NewMinIOService(cfg Config) (*MinIOService, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOService{client: client}, nil
}

// EnsureBucketExists creates the bucket if it doesn't exist.
func (s *MinIOService) EnsureBucketExists(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}

	return nil
}

// ObjectExists reports whether fileKey is stored in bucket.
func (s *MinIOService) ObjectExists(ctx context.Context, bucket, fileKey string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucket, fileKey, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat object %s: %w", fileKey, err)
}

// GenerateDownloadURL creates a presigned URL for downloading a file.
func (s *MinIOService) GenerateDownloadURL(ctx context.Context, bucket, fileKey string, ttl time.Duration) (*PresignedURL, error) {
	ttl = clampTTL(ttl)
	expiresAt := time.Now().Add(ttl)

	// Force a download instead of inline rendering.
	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", baseName(fileKey)))

	presignedURL, err := s.client.PresignedGetObject(ctx, bucket, fileKey, ttl, reqParams)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned download URL: %w", err)
	}

	return &PresignedURL{
		URL:       presignedURL.String(),
		FileKey:   fileKey,
		ExpiresAt: expiresAt,
	}, nil
}

func clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultURLTTL
	}
	if ttl > maxPresignTTL {
		return maxPresignTTL
	}
	return ttl
}

func baseName(fileKey string) string {
	for i := len(fileKey) - 1; i >= 0; i-- {
		if fileKey[i] == '/' {
			return fileKey[i+1:]
		}
	}
	return fileKey
}
