// Package storage wraps S3-compatible object storage for the downloadable
// lead-magnet guide.
package storage

import (
	"context"
	"time"
)

// PresignedURL is a time-limited download link for one object.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ObjectStore is the subset of object storage the guide presigner needs.
type ObjectStore interface {
	// GenerateDownloadURL creates a presigned GET URL valid for ttl.
	GenerateDownloadURL(ctx context.Context, bucket, fileKey string, ttl time.Duration) (*PresignedURL, error)

	// ObjectExists reports whether the object is present in the bucket.
	ObjectExists(ctx context.Context, bucket, fileKey string) (bool, error)

	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	IsMinIOEnabled() bool
}
