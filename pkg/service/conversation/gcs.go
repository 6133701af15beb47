package conversation

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
)

// GCS is a Backend on a Cloud Storage bucket
type GCS struct {
	bucketName string
	client     *storage.Client
}

var _ Backend = &GCS{}

// NewGCS creates a Cloud Storage backend
func NewGCS(ctx context.Context, bucketName string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &GCS{
		bucketName: bucketName,
		client:     client,
	}, nil
}

func (s *GCS) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	w := s.client.Bucket(s.bucketName).Object(key).NewWriter(ctx)
	w.ContentType = "application/json"
	return w, nil
}

func (s *GCS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := s.client.Bucket(s.bucketName).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, goerr.Wrap(ErrNotFound, "object not found", goerr.V("key", key))
		}
		return nil, goerr.Wrap(err, "failed to read from storage", goerr.V("key", key))
	}

	return reader, nil
}

func (s *GCS) Close() error {
	return s.client.Close()
}
