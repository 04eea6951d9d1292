package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

type localStore struct {
	root string
}

// NewLocal returns a Store writing blobs under {root}/{owner}/{filename}.
func NewLocal(root string) Store {
	return &localStore{root: root}
}

func (s *localStore) Save(_ context.Context, owner string, data []byte, filename string) (string, error) {
	dir := filepath.Join(s.root, owner)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create owner directory: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return path, nil
}

func (s *localStore) PathFor(owner, filename string) string {
	return filepath.Join(s.root, owner, filename)
}

func (s *localStore) Fetch(_ context.Context, owner, filename string) ([]byte, error) {
	data, err := os.ReadFile(s.PathFor(owner, filename))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

func (s *localStore) Delete(_ context.Context, owner, filename string) (bool, error) {
	err := os.Remove(s.PathFor(owner, filename))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete blob: %w", err)
	}
	return true, nil
}
