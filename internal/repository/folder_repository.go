package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"orbitdrive/internal/domain"
)

type PostgresFolderRepository struct {
	db *sqlx.DB
}

func NewFolderRepository(db *sqlx.DB) *PostgresFolderRepository {
	return &PostgresFolderRepository{db: db}
}

func (r *PostgresFolderRepository) Create(ctx context.Context, folder *domain.Folder) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
        INSERT INTO folders (uuid, owner_id, name, parent_id)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at, updated_at`

	err = tx.QueryRowContext(
		ctx,
		query,
		folder.UUID,
		folder.OwnerID,
		folder.Name,
		folder.ParentID,
	).Scan(&folder.CreatedAt, &folder.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}

	// Поддерживаем живой счетчик папок владельца
	_, err = tx.ExecContext(ctx, `
        UPDATE users
        SET folder_count = folder_count + 1,
            updated_at = CURRENT_TIMESTAMP
        WHERE id = $1`,
		folder.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to update folder count: %w", err)
	}

	return tx.Commit()
}

func (r *PostgresFolderRepository) GetByUUID(ctx context.Context, id uuid.UUID, ownerID string) (*domain.Folder, error) {
	var folder domain.Folder
	query := `
        SELECT * FROM folders
        WHERE uuid = $1 AND owner_id = $2 AND NOT is_deleted`

	err := r.db.GetContext(ctx, &folder, query, id, ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}

	return &folder, nil
}

func (r *PostgresFolderRepository) GetBreadcrumbs(ctx context.Context, id uuid.UUID, ownerID string) ([]domain.Breadcrumb, error) {
	// Поднимаемся по цепочке parent_id до корня, возвращаем в порядке корень -> лист
	query := `
        WITH RECURSIVE chain AS (
            SELECT uuid, name, parent_id, 0 AS depth
            FROM folders
            WHERE uuid = $1 AND owner_id = $2 AND NOT is_deleted

            UNION ALL

            SELECT f.uuid, f.name, f.parent_id, c.depth + 1
            FROM folders f
            INNER JOIN chain c ON f.uuid = c.parent_id
            WHERE NOT f.is_deleted
        )
        SELECT uuid, name FROM chain ORDER BY depth DESC`

	var rows []struct {
		UUID uuid.UUID `db:"uuid"`
		Name string    `db:"name"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, id, ownerID); err != nil {
		return nil, fmt.Errorf("failed to get breadcrumbs: %w", err)
	}

	crumbs := make([]domain.Breadcrumb, len(rows))
	for i, row := range rows {
		folderID := row.UUID
		crumbs[i] = domain.Breadcrumb{ID: &folderID, Name: row.Name}
	}

	return crumbs, nil
}

func (r *PostgresFolderRepository) ListByParent(ctx context.Context, ownerID string, parentID *uuid.UUID) ([]domain.Folder, error) {
	folders := []domain.Folder{}
	query := `
        SELECT * FROM folders
        WHERE owner_id = $1
        AND parent_id IS NOT DISTINCT FROM $2
        AND NOT is_deleted
        ORDER BY name`

	if err := r.db.SelectContext(ctx, &folders, query, ownerID, parentID); err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}

	return folders, nil
}

func (r *PostgresFolderRepository) Rename(ctx context.Context, id uuid.UUID, ownerID, newName string) error {
	query := `
        UPDATE folders
        SET name = $1, updated_at = CURRENT_TIMESTAMP
        WHERE uuid = $2 AND owner_id = $3 AND NOT is_deleted`

	result, err := r.db.ExecContext(ctx, query, newName, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to rename folder: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (r *PostgresFolderRepository) Move(ctx context.Context, id uuid.UUID, ownerID string, newParentID *uuid.UUID) error {
	query := `
        UPDATE folders
        SET parent_id = $1, updated_at = CURRENT_TIMESTAMP
        WHERE uuid = $2 AND owner_id = $3 AND NOT is_deleted`

	result, err := r.db.ExecContext(ctx, query, newParentID, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to move folder: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (r *PostgresFolderRepository) IsDescendant(ctx context.Context, ancestorID, nodeID uuid.UUID, ownerID string) (bool, error) {
	// Идем от nodeID вверх по цепочке предков и ищем ancestorID
	query := `
        WITH RECURSIVE chain AS (
            SELECT uuid, parent_id
            FROM folders
            WHERE uuid = $1 AND owner_id = $3

            UNION ALL

            SELECT f.uuid, f.parent_id
            FROM folders f
            INNER JOIN chain c ON f.uuid = c.parent_id
        )
        SELECT EXISTS(SELECT 1 FROM chain WHERE uuid = $2)`

	var isDescendant bool
	if err := r.db.GetContext(ctx, &isDescendant, query, nodeID, ancestorID, ownerID); err != nil {
		return false, fmt.Errorf("failed to check folder hierarchy: %w", err)
	}

	return isDescendant, nil
}

func (r *PostgresFolderRepository) SoftDeleteCascade(ctx context.Context, id uuid.UUID, ownerID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Один момент времени на весь каскад
	now := time.Now().UTC()

	// Помечаем удаленным все живое поддерево папок
	markFoldersQuery := `
        WITH RECURSIVE subtree AS (
            SELECT uuid FROM folders
            WHERE uuid = $2 AND owner_id = $3 AND NOT is_deleted

            UNION ALL

            SELECT f.uuid
            FROM folders f
            INNER JOIN subtree s ON f.parent_id = s.uuid
            WHERE NOT f.is_deleted
        )
        UPDATE folders
        SET is_deleted = TRUE, deleted_at = $1, updated_at = $1
        WHERE uuid IN (SELECT uuid FROM subtree)`

	result, err := tx.ExecContext(ctx, markFoldersQuery, now, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to mark folders as deleted: %w", err)
	}

	foldersDeleted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if foldersDeleted == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	// Помечаем живые файлы внутри только что удаленного поддерева;
	// поддерево опознается по общему deleted_at
	markFilesQuery := `
        UPDATE files
        SET is_deleted = TRUE, deleted_at = $1, updated_at = $1
        WHERE owner_id = $2
        AND NOT is_deleted
        AND folder_id IN (
            SELECT uuid FROM folders
            WHERE owner_id = $2 AND is_deleted AND deleted_at = $1
        )`

	result, err = tx.ExecContext(ctx, markFilesQuery, now, ownerID)
	if err != nil {
		return fmt.Errorf("failed to mark files as deleted: %w", err)
	}

	filesDeleted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	// Счетчики отражают только живые сущности
	_, err = tx.ExecContext(ctx, `
        UPDATE users
        SET folder_count = GREATEST(0, folder_count - $1),
            file_count = GREATEST(0, file_count - $2),
            updated_at = CURRENT_TIMESTAMP
        WHERE id = $3`,
		foldersDeleted, filesDeleted, ownerID)
	if err != nil {
		return fmt.Errorf("failed to update counters: %w", err)
	}

	return tx.Commit()
}
