package storage

import "context"

// ObjectStorage captures the minimal operation the export CLI needs to
// deliver CSV artifacts to an S3-compatible bucket.
type ObjectStorage interface {
	UploadObject(ctx context.Context, key string, data []byte, contentType string) error
}
