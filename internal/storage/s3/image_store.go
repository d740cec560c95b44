package s3

import (
	"context"
	"fmt"
	"strings"

	"erpverify/internal/port"
)

// ImageStore resolves staged document images from one bucket.
type ImageStore struct {
	storage port.ObjectStorage
	bucket  string
}

// NewImageStore creates an ImageStore reading from bucket.
func NewImageStore(storage port.ObjectStorage, bucket string) *ImageStore {
	return &ImageStore{storage: storage, bucket: bucket}
}

// Fetch downloads the object stored under key. Keys may be given as
// s3://bucket/key URIs; the bucket part must then match the configured one.
func (s *ImageStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	bucket, objectKey, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return s.storage.Download(ctx, bucket, objectKey)
}

func (s *ImageStore) resolve(key string) (string, string, error) {
	key = strings.TrimSpace(key)
	if rest, ok := strings.CutPrefix(key, "s3://"); ok {
		bucket, objectKey, found := strings.Cut(rest, "/")
		if !found || objectKey == "" {
			return "", "", fmt.Errorf("s3.ImageStore: malformed object uri %q", key)
		}
		if bucket != s.bucket {
			return "", "", fmt.Errorf("s3.ImageStore: bucket %q is not the staging bucket", bucket)
		}
		return bucket, objectKey, nil
	}
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", "", fmt.Errorf("s3.ImageStore: empty object key")
	}
	return s.bucket, key, nil
}
