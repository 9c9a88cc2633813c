package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"orbitdrive/internal/blob"
	"orbitdrive/internal/domain"
	"orbitdrive/internal/repository"
)

type TrashService struct {
	trashRepo repository.TrashRepository
	storage   blob.Storage
}

func NewTrashService(trashRepo repository.TrashRepository, storage blob.Storage) *TrashService {
	return &TrashService{
		trashRepo: trashRepo,
		storage:   storage,
	}
}

// GetTrash возвращает содержимое корзины, свежеудаленное первым
func (s *TrashService) GetTrash(ctx context.Context, ownerID string) (*domain.TrashContent, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}

	return s.trashRepo.GetTrashContent(ctx, ownerID)
}

func (s *TrashService) RestoreFile(ctx context.Context, ownerID string, fileID uuid.UUID) error {
	return s.trashRepo.RestoreFile(ctx, fileID, ownerID)
}

// RestoreFolder возвращает папку из корзины вместе со всем удаленным поддеревом
func (s *TrashService) RestoreFolder(ctx context.Context, ownerID string, folderID uuid.UUID) error {
	return s.trashRepo.RestoreFolder(ctx, folderID, ownerID)
}

// PermanentDeleteFile окончательно удаляет файл из корзины и освобождает квоту
func (s *TrashService) PermanentDeleteFile(ctx context.Context, ownerID string, fileID uuid.UUID) error {
	info, err := s.trashRepo.DeleteFilePermanently(ctx, fileID, ownerID)
	if err != nil {
		return err
	}

	// Отсутствующий блоб не считается ошибкой: место уже свободно
	if err := s.storage.Delete(ctx, info.StoragePath); err != nil {
		log.Printf("[TrashService] warning: failed to delete blob %s: %v", info.StoragePath, err)
	}

	return nil
}

func (s *TrashService) PermanentDeleteFolder(ctx context.Context, ownerID string, folderID uuid.UUID) error {
	infos, err := s.trashRepo.DeleteFolderPermanently(ctx, folderID, ownerID)
	if err != nil {
		return err
	}

	for _, info := range infos {
		if err := s.storage.Delete(ctx, info.StoragePath); err != nil {
			log.Printf("[TrashService] warning: failed to delete blob %s: %v", info.StoragePath, err)
		}
	}

	return nil
}

// CleanupOldTrash удаляет из корзины все старше daysOld дней у всех
// пользователей. Ядро только предоставляет операцию, расписание за вызывающим
func (s *TrashService) CleanupOldTrash(ctx context.Context, daysOld int) (*domain.CleanupResult, error) {
	if daysOld <= 0 {
		return nil, fmt.Errorf("retention must be positive: %w", domain.ErrInvalidOperation)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -daysOld)

	infos, foldersPurged, err := s.trashRepo.RunCleanup(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to run trash cleanup: %w", err)
	}

	result := &domain.CleanupResult{
		FilesPurged:   len(infos),
		FoldersPurged: foldersPurged,
	}

	for _, info := range infos {
		result.BytesFreed += info.SizeBytes
		if err := s.storage.Delete(ctx, info.StoragePath); err != nil {
			log.Printf("[TrashService] warning: failed to delete blob %s: %v", info.StoragePath, err)
		}
	}

	if result.FilesPurged > 0 || result.FoldersPurged > 0 {
		log.Printf("[TrashService] cleanup purged %d files, %d folders, freed %d bytes",
			result.FilesPurged, result.FoldersPurged, result.BytesFreed)
	}

	return result, nil
}
