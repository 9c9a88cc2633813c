package preview

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/bimg"

	"orbitdrive/internal/blob"
	"orbitdrive/internal/domain"
	"orbitdrive/internal/repository"
)

const (
	maxImageSize = 1024            // максимальный размер превью в пикселях
	jpegQuality  = 85              // качество JPEG
	cacheMaxAge  = 30 * 24 * time.Hour
)

// Service строит и кеширует JPEG-превью для файлов-изображений
type Service struct {
	storage  blob.Storage
	fileRepo repository.FileRepository
	cacheDir string
}

func NewService(storage blob.Storage, fileRepo repository.FileRepository, cacheDir string) (*Service, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create preview cache directory: %w", err)
	}

	return &Service{
		storage:  storage,
		fileRepo: fileRepo,
		cacheDir: cacheDir,
	}, nil
}

// StartCleanupTask запускает периодическую очистку кеша превью
func (s *Service) StartCleanupTask(done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.cleanupOldPreviews()
			case <-done:
				return
			}
		}
	}()
}

func (s *Service) cleanupOldPreviews() {
	entries, err := os.ReadDir(s.cacheDir)
	if err != nil {
		log.Printf("[Preview] failed to read cache directory: %v", err)
		return
	}

	cutoff := time.Now().Add(-cacheMaxAge)
	removed := 0

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.cacheDir, entry.Name())); err != nil {
				log.Printf("[Preview] failed to remove stale preview %s: %v", entry.Name(), err)
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		log.Printf("[Preview] removed %d stale previews", removed)
	}
}

// GetPreview возвращает превью файла, генерируя и кешируя его при первом запросе
func (s *Service) GetPreview(ctx context.Context, userID string, fileID uuid.UUID) ([]byte, error) {
	file, err := s.fileRepo.GetByUUID(ctx, fileID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	if file == nil {
		return nil, fmt.Errorf("file %s: %w", fileID, domain.ErrNotFound)
	}

	if file.MIMEType == nil || !strings.HasPrefix(*file.MIMEType, "image/") {
		return nil, fmt.Errorf("previews are only available for images: %w", domain.ErrInvalidOperation)
	}

	cachePath := filepath.Join(s.cacheDir, fileID.String()+".jpg")
	if cached, err := os.ReadFile(cachePath); err == nil {
		return cached, nil
	}

	data, err := s.storage.Read(ctx, file.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file data: %w", err)
	}

	processed, err := s.optimizeImage(data)
	if err != nil {
		return nil, fmt.Errorf("failed to generate preview: %w", err)
	}

	if err := os.WriteFile(cachePath, processed, 0o644); err != nil {
		// Кеш необязателен, превью все равно отдаем
		log.Printf("[Preview] failed to cache preview for %s: %v", fileID, err)
	}

	return processed, nil
}

func (s *Service) optimizeImage(data []byte) ([]byte, error) {
	image := bimg.NewImage(data)

	size, err := image.Size()
	if err != nil {
		return nil, fmt.Errorf("failed to get image size: %w", err)
	}

	// Уменьшаем с сохранением пропорций
	width, height := calculateNewDimensions(size.Width, size.Height, maxImageSize)

	processed, err := image.Process(bimg.Options{
		Width:   width,
		Height:  height,
		Quality: jpegQuality,
		Type:    bimg.JPEG,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to process image: %w", err)
	}

	return processed, nil
}

func calculateNewDimensions(width, height, maxSize int) (newWidth, newHeight int) {
	if width <= maxSize && height <= maxSize {
		return width, height
	}
	if width > height {
		newWidth = maxSize
		newHeight = (height * maxSize) / width
	} else {
		newHeight = maxSize
		newWidth = (width * maxSize) / height
	}
	return
}
