package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FSStorage хранит блобы на локальной файловой системе:
// <base>/<владелец>/<uuid файла>, без расширения и без хеша содержимого
type FSStorage struct {
	baseDir string
}

func NewFSStorage(baseDir string) (*FSStorage, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("blob base directory is required")
	}

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	return &FSStorage{baseDir: baseDir}, nil
}

func (s *FSStorage) Save(_ context.Context, ownerID string, fileID uuid.UUID, data []byte) (string, error) {
	dir := filepath.Join(s.baseDir, SanitizeOwnerID(ownerID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create owner directory: %w", err)
	}

	path := filepath.Join(dir, fileID.String())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	return path, nil
}

func (s *FSStorage) Read(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", path, err)
	}
	return data, nil
}

func (s *FSStorage) Delete(_ context.Context, path string) error {
	if path == "" {
		return nil
	}

	if err := os.Remove(path); err != nil {
		// Блоб уже отсутствует — цель достигнута
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete blob %s: %w", path, err)
	}

	return nil
}
