package service

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"orbitdrive/internal/blob"
	"orbitdrive/internal/domain"
	"orbitdrive/internal/repository"
)

type FileService struct {
	fileRepo   repository.FileRepository
	folderRepo repository.FolderRepository
	userRepo   repository.UserRepository
	storage    blob.Storage

	// Сериализует последовательность "проверка квоты -> запись" по владельцу
	mu          sync.Mutex
	uploadLocks map[string]*sync.Mutex
}

func NewFileService(
	fileRepo repository.FileRepository,
	folderRepo repository.FolderRepository,
	userRepo repository.UserRepository,
	storage blob.Storage,
) *FileService {
	return &FileService{
		fileRepo:    fileRepo,
		folderRepo:  folderRepo,
		userRepo:    userRepo,
		storage:     storage,
		uploadLocks: make(map[string]*sync.Mutex),
	}
}

func (s *FileService) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.uploadLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.uploadLocks[userID] = lock
	}
	return lock
}

// UploadFile загружает файл: проверки лимитов, запись блоба, затем метаданные
// и счетчики в одной транзакции; при ошибке метаданных блоб удаляется
func (s *FileService) UploadFile(ctx context.Context, userID string, upload domain.FileUpload) (*domain.File, error) {
	if upload.Name == "" || len(upload.Data) == 0 {
		return nil, fmt.Errorf("file name and data are required: %w", domain.ErrInvalidOperation)
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	user, err := s.userRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	size := int64(len(upload.Data))
	limits := user.Plan.Limits()

	if size > limits.MaxUploadSize {
		return nil, fmt.Errorf("file of %d bytes exceeds per-upload limit of %d: %w",
			size, limits.MaxUploadSize, domain.ErrPayloadTooLarge)
	}

	if user.StorageUsed+size > user.StorageLimit {
		return nil, fmt.Errorf("upload of %d bytes would exceed quota (%d of %d used): %w",
			size, user.StorageUsed, user.StorageLimit, domain.ErrQuotaExceeded)
	}

	if upload.FolderID != nil {
		folder, err := s.folderRepo.GetByUUID(ctx, *upload.FolderID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get folder: %w", err)
		}
		if folder == nil {
			return nil, fmt.Errorf("folder %s: %w", upload.FolderID, domain.ErrNotFound)
		}
	}

	fileID := uuid.New()

	path, err := s.storage.Save(ctx, userID, fileID, upload.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store file data: %w", err)
	}

	var mimeType *string
	if upload.MIMEType != "" {
		mimeType = &upload.MIMEType
	}

	file := &domain.File{
		UUID:        fileID,
		Name:        filepath.Clean(upload.Name),
		MIMEType:    mimeType,
		SizeBytes:   size,
		FolderID:    upload.FolderID,
		OwnerID:     userID,
		StoragePath: path,
	}

	if err := s.fileRepo.CreateWithQuota(ctx, file); err != nil {
		// Компенсация: убираем уже записанный блоб
		if deleteErr := s.storage.Delete(ctx, path); deleteErr != nil {
			log.Printf("[FileService] failed to delete blob after metadata error: %v", deleteErr)
		}
		return nil, err
	}

	return file, nil
}

// GetFile возвращает nil без ошибки, если файла нет или он в корзине
func (s *FileService) GetFile(ctx context.Context, userID string, fileID uuid.UUID) (*domain.File, error) {
	return s.fileRepo.GetByUUID(ctx, fileID, userID)
}

// GetFileBuffer читает блоб целиком в память; потоковых чтений нет,
// размеры ограничены лимитом загрузки тарифа
func (s *FileService) GetFileBuffer(ctx context.Context, userID string, fileID uuid.UUID) (*domain.FileDownload, error) {
	file, err := s.fileRepo.GetByUUID(ctx, fileID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	if file == nil {
		return nil, fmt.Errorf("file %s: %w", fileID, domain.ErrNotFound)
	}

	data, err := s.storage.Read(ctx, file.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file data: %w", err)
	}

	return &domain.FileDownload{File: file, Data: data}, nil
}

func (s *FileService) RenameFile(ctx context.Context, userID string, fileID uuid.UUID, newName string) error {
	if newName == "" {
		return fmt.Errorf("file name is required: %w", domain.ErrInvalidOperation)
	}

	return s.fileRepo.Rename(ctx, fileID, userID, newName)
}

func (s *FileService) MoveFile(ctx context.Context, userID string, fileID uuid.UUID, newFolderID *uuid.UUID) error {
	if newFolderID != nil {
		folder, err := s.folderRepo.GetByUUID(ctx, *newFolderID, userID)
		if err != nil {
			return fmt.Errorf("failed to get target folder: %w", err)
		}
		if folder == nil {
			return fmt.Errorf("target folder %s: %w", newFolderID, domain.ErrNotFound)
		}
	}

	return s.fileRepo.Move(ctx, fileID, userID, newFolderID)
}

// DeleteFile мягко удаляет файл; байты остаются на диске до очистки корзины
func (s *FileService) DeleteFile(ctx context.Context, userID string, fileID uuid.UUID) error {
	return s.fileRepo.SoftDelete(ctx, fileID, userID)
}
