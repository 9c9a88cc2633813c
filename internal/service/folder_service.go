package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"orbitdrive/internal/domain"
	"orbitdrive/internal/repository"
)

// RootName имя синтетического корня в хлебных крошках
const RootName = "root"

type FolderService struct {
	folderRepo repository.FolderRepository
	fileRepo   repository.FileRepository
	userRepo   repository.UserRepository
}

func NewFolderService(
	folderRepo repository.FolderRepository,
	fileRepo repository.FileRepository,
	userRepo repository.UserRepository,
) *FolderService {
	return &FolderService{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		userRepo:   userRepo,
	}
}

func (s *FolderService) CreateFolder(ctx context.Context, userID, name string, parentID *uuid.UUID) (*domain.Folder, error) {
	if name == "" {
		return nil, fmt.Errorf("folder name is required: %w", domain.ErrInvalidOperation)
	}

	if _, err := s.userRepo.GetOrCreate(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	// Родитель должен существовать, принадлежать пользователю и быть живым
	if parentID != nil {
		parent, err := s.folderRepo.GetByUUID(ctx, *parentID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get parent folder: %w", err)
		}
		if parent == nil {
			return nil, fmt.Errorf("parent folder %s: %w", parentID, domain.ErrNotFound)
		}
	}

	folder := &domain.Folder{
		UUID:     uuid.New(),
		Name:     name,
		OwnerID:  userID,
		ParentID: parentID,
	}

	if err := s.folderRepo.Create(ctx, folder); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	return folder, nil
}

// GetFolder возвращает nil без ошибки, если папки нет или она в корзине
func (s *FolderService) GetFolder(ctx context.Context, userID string, folderID uuid.UUID) (*domain.Folder, error) {
	return s.folderRepo.GetByUUID(ctx, folderID, userID)
}

func (s *FolderService) GetFolderContents(ctx context.Context, userID string, folderID *uuid.UUID) (*domain.FolderContent, error) {
	if _, err := s.userRepo.GetOrCreate(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	var folder *domain.Folder
	breadcrumbs := []domain.Breadcrumb{{ID: nil, Name: RootName}}

	if folderID != nil {
		var err error
		folder, err = s.folderRepo.GetByUUID(ctx, *folderID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get folder: %w", err)
		}
		if folder == nil {
			return nil, fmt.Errorf("folder %s: %w", folderID, domain.ErrNotFound)
		}

		chain, err := s.folderRepo.GetBreadcrumbs(ctx, *folderID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get breadcrumbs: %w", err)
		}
		breadcrumbs = append(breadcrumbs, chain...)
	}

	folders, err := s.folderRepo.ListByParent(ctx, userID, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subfolders: %w", err)
	}

	files, err := s.fileRepo.ListByFolder(ctx, userID, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return &domain.FolderContent{
		Folder:      folder,
		Breadcrumbs: breadcrumbs,
		Folders:     folders,
		Files:       files,
	}, nil
}

func (s *FolderService) RenameFolder(ctx context.Context, userID string, folderID uuid.UUID, newName string) error {
	if newName == "" {
		return fmt.Errorf("folder name is required: %w", domain.ErrInvalidOperation)
	}

	return s.folderRepo.Rename(ctx, folderID, userID, newName)
}

func (s *FolderService) MoveFolder(ctx context.Context, userID string, folderID uuid.UUID, newParentID *uuid.UUID) error {
	folder, err := s.folderRepo.GetByUUID(ctx, folderID, userID)
	if err != nil {
		return fmt.Errorf("failed to get folder: %w", err)
	}
	if folder == nil {
		return fmt.Errorf("folder %s: %w", folderID, domain.ErrNotFound)
	}

	if newParentID != nil {
		if *newParentID == folderID {
			return fmt.Errorf("cannot move folder into itself: %w", domain.ErrInvalidOperation)
		}

		parent, err := s.folderRepo.GetByUUID(ctx, *newParentID, userID)
		if err != nil {
			return fmt.Errorf("failed to get target folder: %w", err)
		}
		if parent == nil {
			return fmt.Errorf("target folder %s: %w", newParentID, domain.ErrNotFound)
		}

		// Проверяем цепочку предков: перенос под собственного потомка создал бы цикл
		isDescendant, err := s.folderRepo.IsDescendant(ctx, folderID, *newParentID, userID)
		if err != nil {
			return fmt.Errorf("failed to check folder hierarchy: %w", err)
		}
		if isDescendant {
			return fmt.Errorf("cannot move folder into its own subtree: %w", domain.ErrInvalidOperation)
		}
	}

	return s.folderRepo.Move(ctx, folderID, userID, newParentID)
}

// DeleteFolder мягко удаляет папку вместе со всем живым поддеревом
func (s *FolderService) DeleteFolder(ctx context.Context, userID string, folderID uuid.UUID) error {
	return s.folderRepo.SoftDeleteCascade(ctx, folderID, userID)
}
