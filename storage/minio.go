package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
)

type minioStore struct {
	client *minio.Client
	bucket string
}

// NewMinIO returns a Store backed by an object store bucket, with object
// keys shaped {owner}/{filename}.
func NewMinIO(client *minio.Client, bucket string) Store {
	return &minioStore{client: client, bucket: bucket}
}

func (s *minioStore) Save(ctx context.Context, owner string, data []byte, filename string) (string, error) {
	objectName := s.PathFor(owner, filename)
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "audio/wav",
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return objectName, nil
}

func (s *minioStore) PathFor(owner, filename string) string {
	return path.Join(owner, filename)
}

func (s *minioStore) Fetch(ctx context.Context, owner, filename string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.PathFor(owner, filename), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data, nil
}

func (s *minioStore) Delete(ctx context.Context, owner, filename string) (bool, error) {
	objectName := s.PathFor(owner, filename)
	_, err := s.client.StatObject(ctx, s.bucket, objectName, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("stat object: %w", err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return false, fmt.Errorf("remove object: %w", err)
	}
	return true, nil
}
