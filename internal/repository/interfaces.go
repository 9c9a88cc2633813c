package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"orbitdrive/internal/domain"
)

// Интерфейсы хранилища метаданных; сервисы зависят от них, а не от *sqlx.DB

type UserRepository interface {
	// GetOrCreate возвращает запись квоты, лениво создавая её с тарифом free
	GetOrCreate(ctx context.Context, userID string) (*domain.User, error)
	UpdatePlan(ctx context.Context, userID string, plan domain.Plan, newLimit int64, subscriptionStart, subscriptionEnd *time.Time) error
	List(ctx context.Context, limit, offset int) ([]domain.User, int64, error)
	GetAdminStats(ctx context.Context) (*domain.AdminStats, error)
}

type FolderRepository interface {
	Create(ctx context.Context, folder *domain.Folder) error
	// GetByUUID возвращает (nil, nil), если папка не найдена или удалена
	GetByUUID(ctx context.Context, id uuid.UUID, ownerID string) (*domain.Folder, error)
	GetBreadcrumbs(ctx context.Context, id uuid.UUID, ownerID string) ([]domain.Breadcrumb, error)
	ListByParent(ctx context.Context, ownerID string, parentID *uuid.UUID) ([]domain.Folder, error)
	Rename(ctx context.Context, id uuid.UUID, ownerID, newName string) error
	Move(ctx context.Context, id uuid.UUID, ownerID string, newParentID *uuid.UUID) error
	// IsDescendant сообщает, входит ли nodeID в поддерево ancestorID (включая равенство)
	IsDescendant(ctx context.Context, ancestorID, nodeID uuid.UUID, ownerID string) (bool, error)
	SoftDeleteCascade(ctx context.Context, id uuid.UUID, ownerID string) error
}

type FileRepository interface {
	// CreateWithQuota вставляет запись файла и атомарно увеличивает счетчики
	// владельца; возвращает domain.ErrQuotaExceeded, если лимит был бы превышен
	CreateWithQuota(ctx context.Context, file *domain.File) error
	// GetByUUID возвращает (nil, nil), если файл не найден или удален
	GetByUUID(ctx context.Context, id uuid.UUID, ownerID string) (*domain.File, error)
	ListByFolder(ctx context.Context, ownerID string, folderID *uuid.UUID) ([]domain.File, error)
	Rename(ctx context.Context, id uuid.UUID, ownerID, newName string) error
	Move(ctx context.Context, id uuid.UUID, ownerID string, newFolderID *uuid.UUID) error
	SoftDelete(ctx context.Context, id uuid.UUID, ownerID string) error
}

type TrashRepository interface {
	GetTrashContent(ctx context.Context, ownerID string) (*domain.TrashContent, error)
	RestoreFile(ctx context.Context, id uuid.UUID, ownerID string) error
	RestoreFolder(ctx context.Context, id uuid.UUID, ownerID string) error
	// DeleteFilePermanently удаляет запись и возвращает данные для очистки блоба
	DeleteFilePermanently(ctx context.Context, id uuid.UUID, ownerID string) (*domain.DeleteInfo, error)
	DeleteFolderPermanently(ctx context.Context, id uuid.UUID, ownerID string) ([]domain.DeleteInfo, error)
	// RunCleanup удаляет из корзины все, что старше cutoff; возвращает данные
	// удаленных файлов и число удаленных папок
	RunCleanup(ctx context.Context, cutoff time.Time) ([]domain.DeleteInfo, int, error)
}
