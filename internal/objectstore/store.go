package objectstore

import (
	"context"
	"fmt"
	"os"
)

// Reader fetches a serialized blob from wherever artifacts live.
type Reader interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// Writer uploads a serialized blob. Satisfied by S3Client; sinks depend on
// this instead of the concrete client so tests can inject fakes.
type Writer interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
	GetBucketName() string
}

// LocalStore reads artifacts from the filesystem, for deployments that bake
// the model into the image instead of pulling it from a bucket.
type LocalStore struct{}

func (LocalStore) GetObject(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read local artifact %s: %w", key, err)
	}
	return data, nil
}
