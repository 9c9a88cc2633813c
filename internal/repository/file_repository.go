package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"orbitdrive/internal/domain"
)

type PostgresFileRepository struct {
	db *sqlx.DB
}

func NewFileRepository(db *sqlx.DB) *PostgresFileRepository {
	return &PostgresFileRepository{db: db}
}

func (r *PostgresFileRepository) CreateWithQuota(ctx context.Context, file *domain.File) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Условное обновление закрывает гонку параллельных загрузок:
	// инкремент проходит только если лимит не превышается
	result, err := tx.ExecContext(ctx, `
        UPDATE users
        SET storage_used = storage_used + $1,
            file_count = file_count + 1,
            updated_at = CURRENT_TIMESTAMP
        WHERE id = $2 AND storage_used + $1 <= storage_limit`,
		file.SizeBytes, file.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to update storage usage: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("owner %s: %w", file.OwnerID, domain.ErrQuotaExceeded)
	}

	query := `
        INSERT INTO files (uuid, owner_id, folder_id, name, mime_type, size_bytes, storage_path)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING created_at, updated_at`

	err = tx.QueryRowContext(
		ctx,
		query,
		file.UUID,
		file.OwnerID,
		file.FolderID,
		file.Name,
		file.MIMEType,
		file.SizeBytes,
		file.StoragePath,
	).Scan(&file.CreatedAt, &file.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	return tx.Commit()
}

func (r *PostgresFileRepository) GetByUUID(ctx context.Context, id uuid.UUID, ownerID string) (*domain.File, error) {
	var file domain.File
	query := `
        SELECT * FROM files
        WHERE uuid = $1 AND owner_id = $2 AND NOT is_deleted`

	err := r.db.GetContext(ctx, &file, query, id, ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	return &file, nil
}

func (r *PostgresFileRepository) ListByFolder(ctx context.Context, ownerID string, folderID *uuid.UUID) ([]domain.File, error) {
	files := []domain.File{}
	query := `
        SELECT * FROM files
        WHERE owner_id = $1
        AND folder_id IS NOT DISTINCT FROM $2
        AND NOT is_deleted
        ORDER BY name`

	if err := r.db.SelectContext(ctx, &files, query, ownerID, folderID); err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return files, nil
}

func (r *PostgresFileRepository) Rename(ctx context.Context, id uuid.UUID, ownerID, newName string) error {
	// Переименование не трогает storage_path и блоб
	query := `
        UPDATE files
        SET name = $1, updated_at = CURRENT_TIMESTAMP
        WHERE uuid = $2 AND owner_id = $3 AND NOT is_deleted`

	result, err := r.db.ExecContext(ctx, query, newName, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (r *PostgresFileRepository) Move(ctx context.Context, id uuid.UUID, ownerID string, newFolderID *uuid.UUID) error {
	query := `
        UPDATE files
        SET folder_id = $1, updated_at = CURRENT_TIMESTAMP
        WHERE uuid = $2 AND owner_id = $3 AND NOT is_deleted`

	result, err := r.db.ExecContext(ctx, query, newFolderID, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to move file: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (r *PostgresFileRepository) SoftDelete(ctx context.Context, id uuid.UUID, ownerID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
        UPDATE files
        SET is_deleted = TRUE,
            deleted_at = CURRENT_TIMESTAMP,
            updated_at = CURRENT_TIMESTAMP
        WHERE uuid = $1 AND owner_id = $2 AND NOT is_deleted`,
		id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to soft delete file: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	// Байты остаются на диске до окончательного удаления, квота не меняется
	_, err = tx.ExecContext(ctx, `
        UPDATE users
        SET file_count = GREATEST(0, file_count - 1),
            updated_at = CURRENT_TIMESTAMP
        WHERE id = $1`,
		ownerID)
	if err != nil {
		return fmt.Errorf("failed to update file count: %w", err)
	}

	return tx.Commit()
}
