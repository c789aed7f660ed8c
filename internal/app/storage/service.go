/*
Package storage issues presigned uploads for profile pictures.

Clients PUT the image bytes straight to the object store and then send the
returned public URL as their profile picture; the server never touches the bytes.
*/
package storage

import (
	"context"
	"time"
)

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// S3PublicBaseURL is the public prefix objects are served from, without trailing slash.
	S3PublicBaseURL string
}

// StorageService defines the public interface for the file storage service.
type StorageService interface {
	// PresignUpload generates a pre-signed URL for uploading a file.
	PresignUpload(
		ctx context.Context,
		key string,
		mimeType string,
		fileSize int64,
		duration time.Duration,
	) (string, error)

	// PublicURL returns the URL the object stored under key is served from.
	PublicURL(key string) string
}

// NewStorageService is the factory function for StorageService.
// Only S3 compatible object stores are supported.
func NewStorageService(ctx context.Context, cfg ServiceConfig) (StorageService, error) {
	return newS3Client(ctx, cfg)
}
